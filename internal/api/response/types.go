package response

import (
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/services/session"
)

// Identity represents a participant in API responses. Internal refs,
// hashes and tokens never appear here.
type Identity struct {
	UserID    string `json:"userid"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// IdentityFromModel converts a participant record to a response Identity
func IdentityFromModel(id *model.Identity) Identity {
	return Identity{
		UserID:    string(id.PublicID),
		FirstName: id.Profile.FirstName,
		LastName:  id.Profile.LastName,
		Email:     id.Profile.Email,
	}
}

// AuthResponse is the success envelope for authentication endpoints
type AuthResponse struct {
	OK       bool     `json:"ok"`
	Identity Identity `json:"identity"`
	AnonID   string   `json:"anon_id,omitempty"`
}

// AuthResponseFor builds an AuthResponse from the authenticated record
// and the session's remembered anonymous id
func AuthResponseFor(id *model.Identity, st *session.State) AuthResponse {
	anonid, _ := st.AnonID(string(id.PublicID))
	return AuthResponse{
		OK:       true,
		Identity: IdentityFromModel(id),
		AnonID:   anonid,
	}
}

// OKResponse is the bare success envelope
type OKResponse struct {
	OK bool `json:"ok"`
}

// ProxyResponse reports the anonymous proxy id for the active identity
type ProxyResponse struct {
	OK     bool   `json:"ok"`
	AnonID string `json:"anon_id"`
}

// AvailabilityResponse reports whether a userid is free to register
type AvailabilityResponse struct {
	OK        bool `json:"ok"`
	Available bool `json:"available"`
}

// TokenResponse returns a freshly rotated access token
type TokenResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// SessionResponse describes the browser's session state
type SessionResponse struct {
	OK     bool     `json:"ok"`
	Active string   `json:"active,omitempty"`
	Known  []string `json:"known"`
}
