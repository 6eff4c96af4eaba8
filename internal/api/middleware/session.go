package middleware

import (
	"context"
	"net/http"

	"github.com/pmorrell/surveyid/internal/services/session"
)

type contextKey string

const (
	stateContextKey    contextKey = "session_state"
	identityContextKey contextKey = "identity"
)

// Session creates middleware that reconstructs the client-held session
// state from the request cookies and writes it back, with its sliding
// expiry refreshed, on every response. Handlers read and mutate the
// state through the request context; whatever it holds when the first
// response byte is written is what gets serialized.
func Session(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := sessions.Load(r.Context(), r)

			sw := &stateWriter{ResponseWriter: w, sessions: sessions, state: st}
			ctx := context.WithValue(r.Context(), stateContextKey, st)

			next.ServeHTTP(sw, r.WithContext(ctx))
			sw.flush()
		})
	}
}

// GetState returns the session state from the request context. It is
// nil only if the session middleware was not applied.
func GetState(ctx context.Context) *session.State {
	st, _ := ctx.Value(stateContextKey).(*session.State)
	return st
}

// MustGetState returns the session state or panics
func MustGetState(ctx context.Context) *session.State {
	st := GetState(ctx)
	if st == nil {
		panic("no session state in context - session middleware not applied?")
	}
	return st
}

// stateWriter defers cookie serialization until the headers go out, so
// handler mutations made before the first write are captured
type stateWriter struct {
	http.ResponseWriter
	sessions *session.Manager
	state    *session.State
	flushed  bool
}

func (sw *stateWriter) WriteHeader(status int) {
	sw.flush()
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *stateWriter) Write(b []byte) (int, error) {
	sw.flush()
	return sw.ResponseWriter.Write(b)
}

func (sw *stateWriter) flush() {
	if sw.flushed {
		return
	}
	sw.flushed = true
	sw.sessions.Write(sw.ResponseWriter, sw.state)
}
