package dto

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdatePasswordRequest represents the password update payload
type UpdatePasswordRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"new_password"`
}

// UpdateEmailRequest represents the username/email update payload
type UpdateEmailRequest struct {
	Username string `json:"username"`
	NewEmail string `json:"new_email"`
}

// GoogleTokenRequest carries a Google ID token for the dev-only social login
type GoogleTokenRequest struct {
	Token string `json:"token"`
}

// UserOutput represents user data in API responses
type UserOutput struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	CashBalance string `json:"cash_balance"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserOutput `json:"user"`
}
