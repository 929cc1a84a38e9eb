package dto

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is returned when user info is needed (e.g. after login or on /me).
type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
