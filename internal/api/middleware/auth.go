package middleware

import (
	"context"
	"net/http"

	"github.com/pmorrell/surveyid/internal/api/apierr"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/services/account"
)

// TokenCookieName carries the active identity's bearer access token
const TokenCookieName = "surveyid_token"

// Auth creates middleware requiring an authenticated participant. The
// active identifier comes from the session state and is re-verified
// against the access token cookie on every request, so a revoked token
// cuts access immediately.
func Auth(accounts *account.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := MustGetState(r.Context())
			if st.Active() == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			id, err := accounts.LoginWithToken(r.Context(), st, st.Active(), cookie.Value)
			if err != nil {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the authenticated participant from the request
// context, or nil
func GetIdentity(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(identityContextKey).(*model.Identity)
	return id
}

// MustGetIdentity returns the authenticated participant or panics
func MustGetIdentity(ctx context.Context) *model.Identity {
	id := GetIdentity(ctx)
	if id == nil {
		panic("no identity in context - auth middleware not applied?")
	}
	return id
}
