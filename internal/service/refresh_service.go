package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/backend"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

// ErrNoRefreshToken means the claims carry nothing to rotate with; the
// caller must treat the user as unauthenticated.
var ErrNoRefreshToken = errors.New("no refresh token in session")

// RefreshBackend is the slice of the backend API the coordinator needs.
type RefreshBackend interface {
	Refresh(ctx context.Context, refreshToken string) (*backend.RefreshResult, error)
	FetchProfile(ctx context.Context, accessToken string) (*backend.Profile, error)
}

// RefreshService rotates an expired access token into fresh claims. No
// retries happen here; a failed rotation is fatal for the call and the
// caller decides whether to retry.
type RefreshService struct {
	api        RefreshBackend
	codec      *session.Codec
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewRefreshService builds the coordinator.
func NewRefreshService(api RefreshBackend, codec *session.Codec, dispatcher events.Dispatcher, logger *zap.Logger) *RefreshService {
	return &RefreshService{api: api, codec: codec, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Refresh mints a new access token from the session's refresh token and
// returns the merged claims plus their encoded token. The profile re-fetch
// is best effort: on failure the prior role and subscription values are
// kept, because stale profile data is less harmful than blocking rotation.
func (s *RefreshService) Refresh(ctx context.Context, current *session.Claims) (*session.Claims, string, error) {
	if current.RefreshToken == "" {
		return nil, "", ErrNoRefreshToken
	}

	result, err := s.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return nil, "", apperrors.NewRefreshFailed(err)
	}

	// Absolute expiry is pinned to the response arrival time so the profile
	// fetch below cannot skew it.
	expiresAt := s.now().Add(time.Duration(result.ExpiresIn) * time.Second).UnixMilli()

	next := *current
	next.AccessToken = result.AccessToken
	next.AccessTokenExpiresAt = expiresAt
	next.Error = ""

	if profile, profileErr := s.api.FetchProfile(ctx, result.AccessToken); profileErr != nil {
		s.logger.Warn("profile fetch failed during refresh, keeping prior values",
			zap.String("subject_id", current.SubjectID),
			zap.Error(profileErr))
	} else if profile.Role.Valid() {
		next.Role = profile.Role
		next.SubscriptionStatus = profile.SubscriptionStatus
		next.SubscriptionExpiresAt = profile.SubscriptionExpiresAt
	}

	token, err := s.codec.Encode(&next)
	if err != nil {
		return nil, "", apperrors.NewEncodeFailure(err)
	}

	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventSessionRefreshed, next.SubjectID, nil))
	return &next, token, nil
}
