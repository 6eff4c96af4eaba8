package cli

import (
	"github.com/spf13/cobra"
)

func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "View and edit the active participant",
	}

	profileCmd.AddCommand(newShowCmd())
	profileCmd.AddCommand(newUpdateCmd())
	profileCmd.AddCommand(newPasswordCmd())
	profileCmd.AddCommand(newRotateTokenCmd())
	profileCmd.AddCommand(newProxyCmd())

	return profileCmd
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the active participant's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AuthResult
			if err := client.Get("/api/v1/participants/me", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	var (
		firstName string
		lastName  string
		email     string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only send the fields that were actually set; the server
			// leaves absent fields unchanged
			body := map[string]any{}
			if cmd.Flags().Changed("first-name") {
				body["first_name"] = firstName
			}
			if cmd.Flags().Changed("last-name") {
				body["last_name"] = lastName
			}
			if cmd.Flags().Changed("email") {
				body["email"] = email
			}

			var result AuthResult
			if err := client.Patch("/api/v1/participants/me", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "New first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "New last name")
	cmd.Flags().StringVar(&email, "email", "", "New email address (empty clears it)")

	return cmd
}

func newPasswordCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the active participant's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"password": password}

			var result OKResult
			if err := client.Post("/api/v1/participants/me/password", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Password changed")
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newRotateTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate-token",
		Short: "Replace the active participant's access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TokenResult
			if err := client.Post("/api/v1/participants/me/token", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newProxyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxy",
		Short: "Fetch the anonymous proxy ID for the active participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ProxyResult
			if err := client.Post("/api/v1/participants/me/proxy", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
