package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Register, log in and manage the session",
	}

	authCmd.AddCommand(newRegisterCmd())
	authCmd.AddCommand(newLoginCmd())
	authCmd.AddCommand(newTokenLoginCmd())
	authCmd.AddCommand(newResumeCmd())
	authCmd.AddCommand(newLogoutCmd())
	authCmd.AddCommand(newForgetCmd())
	authCmd.AddCommand(newSessionCmd())
	authCmd.AddCommand(newRecoverCmd())
	authCmd.AddCommand(newReminderCmd())
	authCmd.AddCommand(newResetCmd())
	authCmd.AddCommand(newAvailableCmd())

	return authCmd
}

func newRegisterCmd() *cobra.Command {
	var (
		password  string
		firstName string
		lastName  string
		email     string
		remember  bool
	)

	cmd := &cobra.Command{
		Use:   "register <userid>",
		Short: "Register a new participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"userid":     args[0],
				"password":   password,
				"first_name": firstName,
				"last_name":  lastName,
				"email":      email,
				"remember":   remember,
			}

			var result AuthResult
			if err := client.Post("/api/v1/auth/register", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().BoolVar(&remember, "remember", false, "Keep the access token across browser restarts")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("first-name")

	return cmd
}

func newLoginCmd() *cobra.Command {
	var (
		password string
		remember bool
	)

	cmd := &cobra.Command{
		Use:   "login <userid>",
		Short: "Log in with a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"userid":   args[0],
				"password": password,
				"remember": remember,
			}

			var result AuthResult
			if err := client.Post("/api/v1/auth/login", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Keep the access token across browser restarts")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newTokenLoginCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "token <userid>",
		Short: "Log in with an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"userid": args[0],
				"token":  token,
			}

			var result AuthResult
			if err := client.Post("/api/v1/auth/token", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "Access token (required)")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <userid>",
		Short: "Switch to a previously remembered identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"userid": args[0]}

			var result AuthResult
			if err := client.Post("/api/v1/auth/resume", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the active session (remembered identities survive)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result OKResult
			if err := client.Post("/api/v1/auth/logout", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Logged out")
			return nil
		},
	}
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget <userid>",
		Short: "Drop a remembered identity from this session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"userid": args[0]}

			var result OKResult
			if err := client.Post("/api/v1/auth/forget", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage(fmt.Sprintf("Forgot %s", args[0]))
			return nil
		},
	}
}

func newSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionResult
			if err := client.Get("/api/v1/auth/session", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newRecoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recover <email>",
		Short: "Request a password recovery email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"email": args[0]}

			var result OKResult
			if err := client.Post("/api/v1/auth/recover", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("If the address is registered, a recovery email is on its way")
			return nil
		},
	}
}

func newReminderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reminder <email>",
		Short: "Request a user ID reminder email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"email": args[0]}

			var result OKResult
			if err := client.Post("/api/v1/auth/reminder", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("If the address is registered, a reminder email is on its way")
			return nil
		},
	}
}

func newResetCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset <token>",
		Short: "Set a new password with a recovery token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"token":    args[0],
				"password": password,
			}

			var result OKResult
			if err := client.Post("/api/v1/auth/reset", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).PrintMessage("Password updated")
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "New password (required)")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAvailableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "available <userid>",
		Short: "Check whether a user ID is free to register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result AvailabilityResult
			path := "/api/v1/auth/available?userid=" + url.QueryEscape(args[0])
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
