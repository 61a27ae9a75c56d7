package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/backend"
	"github.com/spec-kit/storefront-gateway/internal/domain"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

type fakeRefreshBackend struct {
	refreshCalls int
	profileCalls int

	refreshResult *backend.RefreshResult
	refreshErr    error
	profile       *backend.Profile
	profileErr    error
}

func (f *fakeRefreshBackend) Refresh(_ context.Context, _ string) (*backend.RefreshResult, error) {
	f.refreshCalls++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshResult, nil
}

func (f *fakeRefreshBackend) FetchProfile(_ context.Context, _ string) (*backend.Profile, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func baseClaims() *session.Claims {
	subExpiry := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return &session.Claims{
		SubjectID:             "user-7",
		Role:                  domain.RoleWholesaler,
		AccessToken:           "old-access",
		RefreshToken:          "refresh-token",
		AccessTokenExpiresAt:  time.Date(2026, 9, 1, 11, 0, 0, 0, time.UTC).UnixMilli(),
		SubscriptionStatus:    domain.SubscriptionTrial,
		SubscriptionExpiresAt: &subExpiry,
	}
}

func newRefreshService(api RefreshBackend) *RefreshService {
	codec := session.NewCodec("test-secret", time.Hour)
	return NewRefreshService(api, codec, events.NewInMemoryDispatcher(), zap.NewNop())
}

func TestRefreshWithoutRefreshTokenFailsBeforeAnyBackendCall(t *testing.T) {
	api := &fakeRefreshBackend{}
	svc := newRefreshService(api)

	claims := baseClaims()
	claims.RefreshToken = ""

	_, _, err := svc.Refresh(context.Background(), claims)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Zero(t, api.refreshCalls)
	assert.Zero(t, api.profileCalls)
}

func TestRefreshComputesAbsoluteExpiryAtResponseTime(t *testing.T) {
	api := &fakeRefreshBackend{
		refreshResult: &backend.RefreshResult{AccessToken: "new-access", ExpiresIn: 3600},
		profile: &backend.Profile{
			ID:                 "user-7",
			Role:               domain.RoleWholesaler,
			SubscriptionStatus: domain.SubscriptionActive,
		},
	}
	svc := newRefreshService(api)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	fresh, token, err := svc.Refresh(context.Background(), baseClaims())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, "new-access", fresh.AccessToken)
	assert.Equal(t, now.UnixMilli()+3600*1000, fresh.AccessTokenExpiresAt)
	assert.Equal(t, domain.SubscriptionActive, fresh.SubscriptionStatus)
	assert.Empty(t, fresh.Error)
}

func TestRefreshKeepsPriorProfileOnFetchFailure(t *testing.T) {
	api := &fakeRefreshBackend{
		refreshResult: &backend.RefreshResult{AccessToken: "new-access", ExpiresIn: 600},
		profileErr:    errors.New("profile endpoint down"),
	}
	svc := newRefreshService(api)

	current := baseClaims()
	fresh, _, err := svc.Refresh(context.Background(), current)
	require.NoError(t, err)

	// Rotation succeeded; the stale profile values ride along.
	assert.Equal(t, "new-access", fresh.AccessToken)
	assert.Equal(t, current.Role, fresh.Role)
	assert.Equal(t, current.SubscriptionStatus, fresh.SubscriptionStatus)
	assert.Equal(t, current.SubscriptionExpiresAt, fresh.SubscriptionExpiresAt)
}

func TestRefreshBackendFailureIsFatal(t *testing.T) {
	api := &fakeRefreshBackend{refreshErr: &backend.StatusError{Status: 401}}
	svc := newRefreshService(api)

	_, _, err := svc.Refresh(context.Background(), baseClaims())
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "REFRESH_FAILED", domainErr.Code)
	// No retry inside the coordinator.
	assert.Equal(t, 1, api.refreshCalls)
}

func TestRefreshClearsErrorTag(t *testing.T) {
	api := &fakeRefreshBackend{
		refreshResult: &backend.RefreshResult{AccessToken: "new-access", ExpiresIn: 600},
		profile:       &backend.Profile{Role: domain.RoleWholesaler, SubscriptionStatus: domain.SubscriptionTrial},
	}
	svc := newRefreshService(api)

	current := baseClaims()
	current.Error = "refresh_failed"

	fresh, _, err := svc.Refresh(context.Background(), current)
	require.NoError(t, err)
	assert.Empty(t, fresh.Error)
}
