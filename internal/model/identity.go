package model

import "time"

// PublicID is the identifier an identity is known by outside the system.
// Participants choose their own; anonymous proxies are assigned one from
// a disjoint namespace.
type PublicID string

// Ref is the internal record reference for an identity. It is opaque to
// callers and never shown to participants.
type Ref string

// Kind distinguishes the two classes of identity record
type Kind string

const (
	KindParticipant    Kind = "participant"
	KindAnonymousProxy Kind = "anonymous_proxy"
)

// Profile holds the optional participant-provided profile fields
type Profile struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns the name as shown on survey reports
func (p Profile) DisplayName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// ResetToken is a pending password-reset secret with an absolute expiry.
// It is single use: consumption deletes it before the secret is checked.
type ResetToken struct {
	Secret    string    `json:"secret"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProxyLink is the one-way verifiable binding stored inside an anonymous
// proxy record. Digest commits to the owning participant's Ref under a
// per-proxy random salt; given a candidate Ref the binding can be
// re-checked, but listing proxy records reveals no ownership.
type ProxyLink struct {
	Salt   string `json:"salt"`
	Digest string `json:"digest"`
}

// Identity is the durable unit of the identity store
type Identity struct {
	Ref      Ref      `json:"ref"`
	PublicID PublicID `json:"public_id"`
	Kind     Kind     `json:"kind"`

	// Participant-only fields
	Profile      Profile     `json:"profile,omitempty"`
	PasswordHash string      `json:"password_hash,omitempty"`
	AccessToken  string      `json:"access_token,omitempty"`
	Reset        *ResetToken `json:"reset,omitempty"`

	// AnonymousProxy-only field
	Link *ProxyLink `json:"link,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsParticipant reports whether this is a primary participant record
func (i *Identity) IsParticipant() bool {
	return i.Kind == KindParticipant
}

// IsProxy reports whether this is an anonymous proxy record
func (i *Identity) IsProxy() bool {
	return i.Kind == KindAnonymousProxy
}
