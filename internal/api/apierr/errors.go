package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pmorrell/surveyid/internal/model"
)

// ErrorResponse is the failure envelope: {"ok":false,"error":CODE,...}
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// Common error codes
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInvalidField   = "INVALID_FIELD"
	CodeDuplicateID    = "DUPLICATE_ID"
	// CodeBadCredentials covers unknown identifier, wrong password and
	// wrong token alike; the response never says which
	CodeBadCredentials  = "BAD_CREDENTIALS"
	CodeUnknownIdentity = "UNKNOWN_IDENTITY"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeNoPendingReset  = "NO_PENDING_RESET"
	CodeInvalidReset    = "INVALID_RESET_TOKEN"
	CodeResetExpired    = "RESET_EXPIRED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// httpError combines an HTTP status with a response body
type httpError struct {
	status int
	body   ErrorResponse
}

// Error implements the error interface
func (e *httpError) Error() string {
	return e.body.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(he.body)
}

// MaskCredentials collapses credential-stage failures into one opaque
// error so responses cannot reveal whether the identifier or the secret
// was wrong
func MaskCredentials(err error) error {
	if errors.Is(err, model.ErrIdentityNotFound) ||
		errors.Is(err, model.ErrBadPassword) ||
		errors.Is(err, model.ErrBadToken) {
		return &httpError{http.StatusUnauthorized,
			ErrorResponse{Code: CodeBadCredentials, Message: "Invalid identifier or credentials"}}
	}
	return err
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	if fe, ok := model.AsFieldError(err); ok {
		return &httpError{http.StatusBadRequest,
			ErrorResponse{Code: CodeInvalidField, Message: fe.Error(), Field: fe.Field}}
	}

	switch {
	case errors.Is(err, model.ErrDuplicateID):
		return &httpError{http.StatusConflict,
			ErrorResponse{Code: CodeDuplicateID, Message: "This identifier is already registered"}}
	case errors.Is(err, model.ErrIdentityNotFound):
		return &httpError{http.StatusNotFound,
			ErrorResponse{Code: CodeUnknownIdentity, Message: "Unknown identifier"}}
	case errors.Is(err, model.ErrBadPassword), errors.Is(err, model.ErrBadToken):
		return &httpError{http.StatusUnauthorized,
			ErrorResponse{Code: CodeBadCredentials, Message: "Invalid identifier or credentials"}}
	case errors.Is(err, model.ErrNoPendingReset):
		return &httpError{http.StatusBadRequest,
			ErrorResponse{Code: CodeNoPendingReset, Message: "No password reset is pending"}}
	case errors.Is(err, model.ErrInvalidReset):
		return &httpError{http.StatusBadRequest,
			ErrorResponse{Code: CodeInvalidReset, Message: "Invalid password reset token"}}
	case errors.Is(err, model.ErrResetExpired):
		return &httpError{http.StatusBadRequest,
			ErrorResponse{Code: CodeResetExpired, Message: "Password reset token has expired"}}
	case errors.Is(err, model.ErrIdentityConflict):
		// Store invariant violation: the caller sees a generic failure,
		// the details stay in the error log
		return &httpError{http.StatusInternalServerError,
			ErrorResponse{Code: CodeInternalError, Message: "Internal server error"}}
	default:
		return &httpError{http.StatusInternalServerError,
			ErrorResponse{Code: CodeInternalError, Message: "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest,
		ErrorResponse{Code: CodeInvalidRequest, Message: message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized,
		ErrorResponse{Code: CodeUnauthorized, Message: "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError,
		ErrorResponse{Code: CodeInternalError, Message: "Internal server error"}}
}
