package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/backend"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

// ErrInvalidCredentials means the backend rejected the login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// LoginBackend is the slice of the backend API the auth service needs.
type LoginBackend interface {
	Login(ctx context.Context, email, password string) (*backend.LoginResult, error)
}

// AuthService mints the initial session claims at login. Credentials are
// verified by the backend; nothing is stored or hashed locally.
type AuthService struct {
	api        LoginBackend
	codec      *session.Codec
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(api LoginBackend, codec *session.Codec, dispatcher events.Dispatcher, logger *zap.Logger) *AuthService {
	return &AuthService{api: api, codec: codec, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Login authenticates against the backend and returns fresh claims plus
// their encoded token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*session.Claims, string, error) {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.Status == http.StatusUnauthorized || statusErr.Status == http.StatusBadRequest) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	claims := &session.Claims{
		SubjectID:             result.User.ID,
		Role:                  result.User.Role,
		AccessToken:           result.AccessToken,
		RefreshToken:          result.RefreshToken,
		AccessTokenExpiresAt:  s.now().Add(time.Duration(result.ExpiresIn) * time.Second).UnixMilli(),
		SubscriptionStatus:    result.User.SubscriptionStatus,
		SubscriptionExpiresAt: result.User.SubscriptionExpiresAt,
	}

	token, err := s.codec.Encode(claims)
	if err != nil {
		return nil, "", apperrors.NewEncodeFailure(err)
	}

	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventLogin, claims.SubjectID, nil))
	return claims, token, nil
}

// Logout records the sign-out. The session itself dies with the cookie; no
// server-side state exists to revoke.
func (s *AuthService) Logout(ctx context.Context, claims *session.Claims) {
	if claims == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventLogout, claims.SubjectID, nil))
}
