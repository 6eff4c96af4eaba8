package request

// RegisterRequest is the request body for registering a participant
type RegisterRequest struct {
	UserID    string `json:"userid"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
	Remember  bool   `json:"remember,omitempty"`
}

// LoginRequest is the request body for password login
type LoginRequest struct {
	UserID   string `json:"userid"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// TokenLoginRequest is the request body for explicit token login
type TokenLoginRequest struct {
	UserID string `json:"userid"`
	Token  string `json:"token"`
}

// ResumeRequest is the request body for switching the active identity
type ResumeRequest struct {
	UserID string `json:"userid"`
}

// ForgetRequest is the request body for dropping a remembered identifier
type ForgetRequest struct {
	UserID string `json:"userid"`
}

// RecoverRequest is the request body for requesting password recovery
type RecoverRequest struct {
	Email string `json:"email"`
}

// ReminderRequest is the request body for a userid reminder email
type ReminderRequest struct {
	Email string `json:"email"`
}

// ResetRequest is the request body for redeeming a recovery ticket
type ResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the request body for profile edits. Nil
// fields are left unchanged; an empty email clears it.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
}

// ChangePasswordRequest is the request body for changing a password
// while logged in
type ChangePasswordRequest struct {
	Password string `json:"password"`
}
