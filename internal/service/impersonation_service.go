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

var (
	// ErrNotAdministrator means the caller's role may not impersonate.
	ErrNotAdministrator = errors.New("administrator role required")
	// ErrTargetMissing means the backend knows no such user.
	ErrTargetMissing = errors.New("impersonation target not found")
	// ErrNotImpersonating means stop was called without an active
	// impersonation; callers fall back to a plain sign-out.
	ErrNotImpersonating = errors.New("no impersonation in progress")
)

// ImpersonationBackend is the slice of the backend API the manager needs.
type ImpersonationBackend interface {
	Impersonate(ctx context.Context, adminAccessToken, targetUserID string) (*backend.ImpersonationGrant, error)
}

// ImpersonationService lets an administrator assume another account's
// identity and restore their own afterwards. The original identity rides
// inside the new token; nothing is stored server side.
type ImpersonationService struct {
	api        ImpersonationBackend
	codec      *session.Codec
	dispatcher events.Dispatcher
	logger     *zap.Logger
	// grantTTL bounds the impersonated access token; the backend's grant
	// response carries no expiry and impersonation sessions cannot refresh.
	grantTTL time.Duration
	now      func() time.Time
}

// NewImpersonationService builds the manager.
func NewImpersonationService(api ImpersonationBackend, codec *session.Codec, dispatcher events.Dispatcher, logger *zap.Logger, grantTTL time.Duration) *ImpersonationService {
	if grantTTL <= 0 {
		grantTTL = time.Hour
	}
	return &ImpersonationService{api: api, codec: codec, dispatcher: dispatcher, logger: logger, grantTTL: grantTTL, now: time.Now}
}

// Start mints a session for the target user with the administrator's
// identity nested inside. Returns the new claims, their encoded token, and
// the landing route for the target's role.
func (s *ImpersonationService) Start(ctx context.Context, current *session.Claims, targetUserID string) (*session.Claims, string, string, error) {
	if !current.Role.IsAdministrative() {
		return nil, "", "", ErrNotAdministrator
	}

	grant, err := s.api.Impersonate(ctx, current.AccessToken, targetUserID)
	if err != nil {
		var statusErr *backend.StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, "", "", ErrTargetMissing
		}
		return nil, "", "", err
	}

	next := &session.Claims{
		SubjectID:             grant.User.ID,
		Role:                  grant.User.Role,
		AccessToken:           grant.ImpersonationToken,
		AccessTokenExpiresAt:  s.now().Add(s.grantTTL).UnixMilli(),
		SubscriptionStatus:    grant.User.SubscriptionStatus,
		SubscriptionExpiresAt: grant.User.SubscriptionExpiresAt,
		Impersonating:         true,
		// AsAdminSession drops any nested session the caller's claims may
		// already carry, so nesting never exceeds one level.
		Original: current.AsAdminSession(),
	}

	token, err := s.codec.Encode(next)
	if err != nil {
		return nil, "", "", apperrors.NewEncodeFailure(err)
	}

	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventImpersonationStarted, current.SubjectID, map[string]string{
		"target_id": grant.User.ID,
	}))
	return next, token, next.Role.LandingRoute(), nil
}

// Stop restores the nested administrator identity as the active session.
func (s *ImpersonationService) Stop(ctx context.Context, current *session.Claims) (*session.Claims, string, string, error) {
	if !current.Impersonating || current.Original == nil {
		return nil, "", "", ErrNotImpersonating
	}

	restored := current.Original.Claims()
	token, err := s.codec.Encode(restored)
	if err != nil {
		return nil, "", "", apperrors.NewEncodeFailure(err)
	}

	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventImpersonationStopped, restored.SubjectID, map[string]string{
		"target_id": current.SubjectID,
	}))
	return restored, token, restored.Role.LandingRoute(), nil
}
