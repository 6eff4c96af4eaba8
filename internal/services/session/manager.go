package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pmorrell/surveyid/internal/dependencies/clock"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/storage"
)

// Cookie names for the two client-held session values
const (
	ActiveCookieName = "surveyid_active"
	KnownCookieName  = "surveyid_known"
)

// CookieTTL is the sliding expiry applied on every write
const CookieTTL = 365 * 24 * time.Hour

// Manager loads session state from request cookies and writes it back
// with a refreshed expiry. Entries naming identifiers that no longer
// resolve to a participant are dropped silently on load; a stale or
// tampered cookie is not an error.
type Manager struct {
	store storage.Store
	clock clock.Clock
}

// NewManager creates a session cookie manager
func NewManager(store storage.Store, clk clock.Clock) *Manager {
	return &Manager{store: store, clock: clk}
}

// Load reconstructs the session state from the request's cookies
func (m *Manager) Load(ctx context.Context, r *http.Request) *State {
	st := NewState()

	for userid, anonid := range m.decodeKnown(r) {
		if !m.resolvesToParticipant(ctx, userid) {
			continue
		}
		st.known[userid] = anonid
	}

	if c, err := r.Cookie(ActiveCookieName); err == nil && c.Value != "" {
		if st.IsKnown(c.Value) || m.resolvesToParticipant(ctx, c.Value) {
			st.active = c.Value
		}
	}

	return st
}

// Write serializes the state onto the response with the sliding expiry
func (m *Manager) Write(w http.ResponseWriter, st *State) {
	expires := m.clock.Now().Add(CookieTTL)

	http.SetCookie(w, &http.Cookie{
		Name:     ActiveCookieName,
		Value:    st.active,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	data, err := json.Marshal(st.known)
	if err != nil {
		// a map[string]string cannot fail to marshal
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     KnownCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// decodeKnown parses the known-identifiers cookie, tolerating garbage
func (m *Manager) decodeKnown(r *http.Request) map[string]string {
	c, err := r.Cookie(KnownCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var known map[string]string
	if err := json.Unmarshal(raw, &known); err != nil {
		return nil
	}
	return known
}

// resolvesToParticipant checks that userid still names a valid
// participant record
func (m *Manager) resolvesToParticipant(ctx context.Context, userid string) bool {
	id, err := m.store.GetIdentity(ctx, model.PublicID(userid))
	if err != nil {
		if errors.Is(err, model.ErrIdentityNotFound) {
			return false
		}
		// Conflicts and transient store failures also exclude the
		// entry; the cookie is convenience state, not worth failing a
		// request over
		return false
	}
	return id.IsParticipant()
}
