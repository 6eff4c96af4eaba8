package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pmorrell/surveyid/internal/api/apierr"
	"github.com/pmorrell/surveyid/internal/api/middleware"
	"github.com/pmorrell/surveyid/internal/api/request"
	"github.com/pmorrell/surveyid/internal/api/response"
	"github.com/pmorrell/surveyid/internal/services/account"
)

// ProfileHandler handles the authenticated participant endpoints
type ProfileHandler struct {
	accounts *account.Service
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(accounts *account.Service) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

// Me handles GET /api/v1/participants/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetIdentity(r.Context())
	st := middleware.MustGetState(r.Context())
	response.JSON(w, http.StatusOK, response.AuthResponseFor(id, st))
}

// Update handles PATCH /api/v1/participants/me
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	id := middleware.MustGetIdentity(r.Context())
	st := middleware.MustGetState(r.Context())
	userid := string(id.PublicID)

	if req.FirstName != nil || req.LastName != nil {
		first := id.Profile.FirstName
		last := id.Profile.LastName
		if req.FirstName != nil {
			first = *req.FirstName
		}
		if req.LastName != nil {
			last = *req.LastName
		}
		updated, err := h.accounts.SetName(r.Context(), userid, first, last)
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		id = updated
	}

	if req.Email != nil {
		updated, err := h.accounts.SetEmail(r.Context(), userid, *req.Email)
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		id = updated
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFor(id, st))
}

// ChangePassword handles POST /api/v1/participants/me/password
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req request.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	id := middleware.MustGetIdentity(r.Context())
	if err := h.accounts.ChangePassword(r.Context(), string(id.PublicID), req.Password); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// RotateToken handles POST /api/v1/participants/me/token. The old
// token stops working immediately, so the fresh one is both returned
// and installed in the cookie.
func (h *ProfileHandler) RotateToken(w http.ResponseWriter, r *http.Request) {
	id := middleware.MustGetIdentity(r.Context())

	token, err := h.accounts.RotateAccessToken(r.Context(), string(id.PublicID))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	setAccessTokenCookie(w, token, true)
	response.JSON(w, http.StatusOK, response.TokenResponse{OK: true, Token: token})
}

// Proxy handles POST /api/v1/participants/me/proxy
func (h *ProfileHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetState(r.Context())

	proxy, err := h.accounts.EstablishProxy(r.Context(), st)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProxyResponse{OK: true, AnonID: string(proxy.PublicID)})
}
