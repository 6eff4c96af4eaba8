package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Identity:
		o.printIdentity(v)
	case AuthResult:
		o.printAuthResult(v)
	case SessionResult:
		o.printSessionResult(v)
	case ProxyResult:
		fmt.Printf("Anonymous ID: %s\n", v.AnonID)
	case TokenResult:
		fmt.Printf("Access Token: %s\n", v.Token)
	case AvailabilityResult:
		o.printAvailability(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Identity response type (matches API)
type Identity struct {
	UserID    string `json:"userid"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// AuthResult response type
type AuthResult struct {
	OK       bool     `json:"ok"`
	Identity Identity `json:"identity"`
	AnonID   string   `json:"anon_id,omitempty"`
}

// SessionResult response type
type SessionResult struct {
	OK     bool     `json:"ok"`
	Active string   `json:"active,omitempty"`
	Known  []string `json:"known"`
}

// ProxyResult response type
type ProxyResult struct {
	OK     bool   `json:"ok"`
	AnonID string `json:"anon_id"`
}

// TokenResult response type
type TokenResult struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// AvailabilityResult response type
type AvailabilityResult struct {
	OK        bool `json:"ok"`
	Available bool `json:"available"`
}

// OKResult response type
type OKResult struct {
	OK bool `json:"ok"`
}

func (o *Output) printIdentity(id Identity) {
	fmt.Printf("User ID: %s\n", id.UserID)
	name := strings.TrimSpace(id.FirstName + " " + id.LastName)
	if name != "" {
		fmt.Printf("Name: %s\n", name)
	}
	if id.Email != "" {
		fmt.Printf("Email: %s\n", id.Email)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printIdentity(a.Identity)
	if a.AnonID != "" {
		fmt.Printf("Anonymous ID: %s\n", a.AnonID)
	}
}

func (o *Output) printSessionResult(s SessionResult) {
	if s.Active != "" {
		fmt.Printf("Active: %s\n", s.Active)
	} else {
		fmt.Println("Active: (none)")
	}
	if len(s.Known) > 0 {
		fmt.Printf("Known: %s\n", strings.Join(s.Known, ", "))
	}
}

func (o *Output) printAvailability(a AvailabilityResult) {
	if a.Available {
		fmt.Println("Available")
	} else {
		fmt.Println("Taken")
	}
}
