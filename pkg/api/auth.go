package api

// SignupRequest represents a signup or OTP verification request body
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse represents a successful refresh token rotation
type RefreshResponse struct {
	RefreshToken string `json:"refreshToken"`
	Username     string `json:"username"`
}

// UserInfoResponse represents the identity claims of an access token
type UserInfoResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// MessageResponse represents a plain informational response
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
