package dto

import "time"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	UserID   int64  `json:"user_id"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StaffResponse describes an authenticated staff member.
type StaffResponse struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}
