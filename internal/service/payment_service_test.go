package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/domain"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

type fakePaymentBackend struct {
	verifyCalls int
	probeCalls  int

	status         int
	subscriptionID string
	verifyErr      error

	subscription *domain.Subscription
	probeErr     error
}

func (f *fakePaymentBackend) CreateSubscriptionFromAuthority(_ context.Context, _, _ string) (int, string, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return 0, "", f.verifyErr
	}
	return f.status, f.subscriptionID, nil
}

func (f *fakePaymentBackend) CurrentSubscription(_ context.Context, _ string) (*domain.Subscription, error) {
	f.probeCalls++
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.subscription, nil
}

func payerClaims() *session.Claims {
	return &session.Claims{
		SubjectID:   "retailer-3",
		Role:        domain.RoleRetailer,
		AccessToken: "access",
	}
}

func newPaymentService(api PaymentBackend) *PaymentService {
	return NewPaymentService(api, events.NewInMemoryDispatcher(), zap.NewNop())
}

func TestVerifyShortCircuitsOnNonOKStatus(t *testing.T) {
	api := &fakePaymentBackend{status: 200}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "NOK", "abc")
	assert.Equal(t, domain.VerificationRejected, result.Outcome)
	assert.Zero(t, api.verifyCalls)
	assert.Zero(t, api.probeCalls)
}

func TestVerifyShortCircuitsOnEmptyAuthority(t *testing.T) {
	api := &fakePaymentBackend{status: 200}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "OK", "")
	assert.Equal(t, domain.VerificationRejected, result.Outcome)
	assert.Zero(t, api.verifyCalls)
}

func TestVerifyAcceptsCaseInsensitiveStatus(t *testing.T) {
	api := &fakePaymentBackend{status: 201, subscriptionID: "sub-1"}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "ok", "auth-1")
	assert.Equal(t, domain.VerificationVerified, result.Outcome)
	assert.Equal(t, "sub-1", result.SubscriptionID)
}

func TestVerifyTreatsDuplicateDeliveryAsSuccess(t *testing.T) {
	api := &fakePaymentBackend{status: 200, subscriptionID: "sub-2"}
	svc := newPaymentService(api)

	first := svc.Verify(context.Background(), payerClaims(), "OK", "auth-dup")
	require.True(t, first.Outcome.Succeeded())

	// The gateway re-delivers; the backend now reports a conflict.
	api.status = 409
	second := svc.Verify(context.Background(), payerClaims(), "OK", "auth-dup")
	assert.Equal(t, domain.VerificationAlreadyVerified, second.Outcome)
	assert.True(t, second.Outcome.Succeeded())
	assert.Zero(t, api.probeCalls)
}

func TestVerifyTreats208AsSuccess(t *testing.T) {
	api := &fakePaymentBackend{status: 208}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "OK", "auth-3")
	assert.Equal(t, domain.VerificationAlreadyVerified, result.Outcome)
}

func TestPermanentRejectionNeverProbes(t *testing.T) {
	for _, status := range []int{400, 422} {
		api := &fakePaymentBackend{status: status}
		svc := newPaymentService(api)

		result := svc.Verify(context.Background(), payerClaims(), "OK", "auth-bad")
		assert.Equal(t, domain.VerificationRejected, result.Outcome)
		assert.Zero(t, api.probeCalls, "status %d must not trigger the fallback probe", status)
	}
}

func TestTransientFailureProbesOnceAndSucceedsOnActiveSubscription(t *testing.T) {
	future := time.Now().Add(30 * 24 * time.Hour)
	api := &fakePaymentBackend{
		status: 502,
		subscription: &domain.Subscription{
			ID:        "sub-9",
			Status:    domain.SubscriptionActive,
			ExpiresAt: &future,
		},
	}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "OK", "auth-9")
	assert.Equal(t, domain.VerificationVerified, result.Outcome)
	assert.Equal(t, "sub-9", result.SubscriptionID)
	assert.Equal(t, 1, api.probeCalls)
}

func TestTransientFailureProbeFailsWithoutActiveSubscription(t *testing.T) {
	api := &fakePaymentBackend{
		status:       503,
		subscription: &domain.Subscription{Status: domain.SubscriptionNone},
	}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "OK", "auth-10")
	assert.Equal(t, domain.VerificationFailed, result.Outcome)
	assert.Equal(t, 1, api.probeCalls)
}

func TestTransportErrorProbes(t *testing.T) {
	api := &fakePaymentBackend{
		verifyErr: errors.New("connection refused"),
		probeErr:  errors.New("connection refused"),
	}
	svc := newPaymentService(api)

	result := svc.Verify(context.Background(), payerClaims(), "OK", "auth-11")
	assert.Equal(t, domain.VerificationFailed, result.Outcome)
	assert.Equal(t, 1, api.verifyCalls)
	assert.Equal(t, 1, api.probeCalls)
}
