package session

import (
	"time"

	"github.com/spec-kit/storefront-gateway/internal/domain"
)

// Claims is the decoded payload of a session token. It is the only session
// state the system holds; everything travels inside the signed cookie.
type Claims struct {
	SubjectID             string                    `json:"subjectId"`
	Role                  domain.Role               `json:"role"`
	AccessToken           string                    `json:"accessToken"`
	RefreshToken          string                    `json:"refreshToken"`
	AccessTokenExpiresAt  int64                     `json:"accessTokenExpiresAt"` // epoch millis
	SubscriptionStatus    domain.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time                `json:"subscriptionExpiresAt,omitempty"`
	Impersonating         bool                      `json:"impersonating"`
	Original              *AdminSession             `json:"originalAdminSession,omitempty"`
	// Error is set when a refresh attempt failed; the cookie stays valid so
	// the caller decides how to surface it.
	Error string `json:"error,omitempty"`
}

// AdminSession is the administrator identity preserved while impersonating.
// It deliberately has no Original field of its own, so the token can never
// nest more than one level deep.
type AdminSession struct {
	SubjectID             string                    `json:"subjectId"`
	Role                  domain.Role               `json:"role"`
	AccessToken           string                    `json:"accessToken"`
	RefreshToken          string                    `json:"refreshToken"`
	AccessTokenExpiresAt  int64                     `json:"accessTokenExpiresAt"`
	SubscriptionStatus    domain.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time                `json:"subscriptionExpiresAt,omitempty"`
}

// AccessTokenExpired reports whether the inner access token has expired at
// the given instant.
func (c *Claims) AccessTokenExpired(now time.Time) bool {
	return now.UnixMilli() >= c.AccessTokenExpiresAt
}

// HasActiveSubscription reports whether the claims carry a usable,
// unexpired subscription at the given instant.
func (c *Claims) HasActiveSubscription(now time.Time) bool {
	if !c.SubscriptionStatus.Usable() {
		return false
	}
	return c.SubscriptionExpiresAt != nil && c.SubscriptionExpiresAt.After(now)
}

// AsAdminSession flattens the claims into an AdminSession, discarding any
// impersonation state. This is the normalization that keeps nesting at one
// level even when called with an already-impersonated token.
func (c *Claims) AsAdminSession() *AdminSession {
	return &AdminSession{
		SubjectID:             c.SubjectID,
		Role:                  c.Role,
		AccessToken:           c.AccessToken,
		RefreshToken:          c.RefreshToken,
		AccessTokenExpiresAt:  c.AccessTokenExpiresAt,
		SubscriptionStatus:    c.SubscriptionStatus,
		SubscriptionExpiresAt: c.SubscriptionExpiresAt,
	}
}

// Claims rebuilds full session claims from the preserved admin identity.
func (a *AdminSession) Claims() *Claims {
	return &Claims{
		SubjectID:             a.SubjectID,
		Role:                  a.Role,
		AccessToken:           a.AccessToken,
		RefreshToken:          a.RefreshToken,
		AccessTokenExpiresAt:  a.AccessTokenExpiresAt,
		SubscriptionStatus:    a.SubscriptionStatus,
		SubscriptionExpiresAt: a.SubscriptionExpiresAt,
	}
}
