package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pmorrell/surveyid/internal/api/apierr"
	"github.com/pmorrell/surveyid/internal/api/middleware"
	"github.com/pmorrell/surveyid/internal/api/request"
	"github.com/pmorrell/surveyid/internal/api/response"
	"github.com/pmorrell/surveyid/internal/model"
	"github.com/pmorrell/surveyid/internal/services/account"
	"github.com/pmorrell/surveyid/internal/services/session"
)

// AccountHandler handles registration, login and recovery endpoints
type AccountHandler struct {
	accounts *account.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *account.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register handles POST /api/v1/auth/register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	st := middleware.MustGetState(r.Context())
	id, err := h.accounts.Register(r.Context(), st, account.RegisterParams{
		UserID:    req.UserID,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	setAccessTokenCookie(w, id.AccessToken, req.Remember)
	response.JSON(w, http.StatusCreated, response.AuthResponseFor(id, st))
}

// Login handles POST /api/v1/auth/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.UserID == "" || req.Password == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("userid and password are required"))
		return
	}

	st := middleware.MustGetState(r.Context())
	id, err := h.accounts.LoginWithPassword(r.Context(), st, req.UserID, req.Password)
	if err != nil {
		apierr.WriteError(w, apierr.MaskCredentials(err))
		return
	}

	setAccessTokenCookie(w, id.AccessToken, req.Remember)
	response.JSON(w, http.StatusOK, response.AuthResponseFor(id, st))
}

// TokenLogin handles POST /api/v1/auth/token
func (h *AccountHandler) TokenLogin(w http.ResponseWriter, r *http.Request) {
	var req request.TokenLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.UserID == "" || req.Token == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("userid and token are required"))
		return
	}

	st := middleware.MustGetState(r.Context())
	id, err := h.accounts.LoginWithToken(r.Context(), st, req.UserID, req.Token)
	if err != nil {
		apierr.WriteError(w, apierr.MaskCredentials(err))
		return
	}

	setAccessTokenCookie(w, id.AccessToken, true)
	response.JSON(w, http.StatusOK, response.AuthResponseFor(id, st))
}

// Resume handles POST /api/v1/auth/resume
func (h *AccountHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req request.ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	st := middleware.MustGetState(r.Context())
	id, err := h.accounts.ResumeAs(r.Context(), st, req.UserID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	setAccessTokenCookie(w, id.AccessToken, true)
	response.JSON(w, http.StatusOK, response.AuthResponseFor(id, st))
}

// Logout handles POST /api/v1/auth/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetState(r.Context())
	h.accounts.Logout(st)
	clearAccessTokenCookie(w)
	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Forget handles POST /api/v1/auth/forget
func (h *AccountHandler) Forget(w http.ResponseWriter, r *http.Request) {
	var req request.ForgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	st := middleware.MustGetState(r.Context())
	wasActive := st.Active() == req.UserID
	h.accounts.Forget(st, req.UserID)
	if wasActive {
		clearAccessTokenCookie(w)
	}
	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Session handles GET /api/v1/auth/session
func (h *AccountHandler) Session(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetState(r.Context())
	response.JSON(w, http.StatusOK, response.SessionResponse{
		OK:     true,
		Active: st.Active(),
		Known:  st.Known(),
	})
}

// Recover handles POST /api/v1/auth/recover. The response is opaque:
// it never says whether the email matched anything.
func (h *AccountHandler) Recover(w http.ResponseWriter, r *http.Request) {
	var req request.RecoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("email is required"))
		return
	}

	_, err := h.accounts.RequestRecovery(r.Context(), req.Email)
	if err != nil && !errors.Is(err, model.ErrNoMatchingEmail) {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Reminder handles POST /api/v1/auth/reminder, opaque like Recover
func (h *AccountHandler) Reminder(w http.ResponseWriter, r *http.Request) {
	var req request.ReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Email == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("email is required"))
		return
	}

	err := h.accounts.SendIDReminder(r.Context(), req.Email)
	if err != nil && !errors.Is(err, model.ErrNoMatchingEmail) {
		apierr.WriteError(w, apierr.NewInternalError())
		return
	}

	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Reset handles POST /api/v1/auth/reset
func (h *AccountHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req request.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Token == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("token is required"))
		return
	}

	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OKResponse{OK: true})
}

// Availability handles GET /api/v1/auth/available?userid=
func (h *AccountHandler) Availability(w http.ResponseWriter, r *http.Request) {
	userid := r.URL.Query().Get("userid")
	if userid == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("userid is required"))
		return
	}

	available, err := h.accounts.IsUserIDAvailable(r.Context(), userid)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AvailabilityResponse{OK: true, Available: available})
}

// setAccessTokenCookie installs the bearer token cookie. With remember
// it persists for the session cookie TTL; otherwise it lasts only for
// the browser session.
func setAccessTokenCookie(w http.ResponseWriter, token string, remember bool) {
	c := &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		c.Expires = time.Now().Add(session.CookieTTL)
	}
	http.SetCookie(w, c)
}

func clearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
