package dto

import "time"

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ImpersonateRequest names the target account for POST /auth/impersonate.
type ImpersonateRequest struct {
	UserID string `json:"userId"`
}

// SessionResponse summarizes the resolved session for the UI. Tokens never
// leave the cookie.
type SessionResponse struct {
	SubjectID             string     `json:"subjectId"`
	Role                  string     `json:"role"`
	SubscriptionStatus    string     `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	Impersonating         bool       `json:"impersonating"`
}
