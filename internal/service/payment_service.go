package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/domain"
	"github.com/spec-kit/storefront-gateway/internal/events"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

// PaymentBackend is the slice of the backend API the guard needs.
type PaymentBackend interface {
	CreateSubscriptionFromAuthority(ctx context.Context, accessToken, authority string) (int, string, error)
	CurrentSubscription(ctx context.Context, accessToken string) (*domain.Subscription, error)
}

// VerificationResult is the guard's classification of one callback.
type VerificationResult struct {
	Outcome        domain.VerificationOutcome
	SubscriptionID string
}

// PaymentService reconciles payment-gateway callbacks against backend
// subscription state. The gateway may deliver the same callback more than
// once; the backend's conflict response is what makes replays safe, so no
// local deduplication exists.
type PaymentService struct {
	api        PaymentBackend
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPaymentService builds the guard.
func NewPaymentService(api PaymentBackend, dispatcher events.Dispatcher, logger *zap.Logger) *PaymentService {
	return &PaymentService{api: api, dispatcher: dispatcher, logger: logger, now: time.Now}
}

// Verify classifies a gateway callback. A non-OK status or empty authority
// never reaches the backend. Permanent backend rejections are final; any
// other failure triggers exactly one probe of the current subscription
// state, never an automatic retry of the verification call itself.
func (s *PaymentService) Verify(ctx context.Context, claims *session.Claims, status, authority string) VerificationResult {
	if !strings.EqualFold(status, "OK") || authority == "" {
		return VerificationResult{Outcome: domain.VerificationRejected}
	}

	code, subscriptionID, err := s.api.CreateSubscriptionFromAuthority(ctx, claims.AccessToken, authority)
	if err != nil {
		s.logger.Warn("subscription verification unreachable",
			zap.String("authority", authority),
			zap.Error(err))
		return s.probeSubscription(ctx, claims)
	}

	switch {
	case code >= 200 && code <= 299:
		s.publishVerified(ctx, claims, authority, subscriptionID)
		return VerificationResult{Outcome: domain.VerificationVerified, SubscriptionID: subscriptionID}
	case code == http.StatusConflict || code == http.StatusAlreadyReported:
		// The backend already applied this authority in a prior, possibly
		// concurrent call. Logged so a genuinely conflicting reuse stays
		// visible.
		s.logger.Warn("authority already applied",
			zap.String("authority", authority),
			zap.Int("status", code))
		return VerificationResult{Outcome: domain.VerificationAlreadyVerified}
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		s.logger.Info("authority rejected",
			zap.String("authority", authority),
			zap.Int("status", code))
		return VerificationResult{Outcome: domain.VerificationRejected}
	default:
		s.logger.Warn("unexpected verification status",
			zap.String("authority", authority),
			zap.Int("status", code))
		return s.probeSubscription(ctx, claims)
	}
}

// probeSubscription is the single fallback check after an indeterminate
// verification outcome: success iff an active subscription is now present.
func (s *PaymentService) probeSubscription(ctx context.Context, claims *session.Claims) VerificationResult {
	sub, err := s.api.CurrentSubscription(ctx, claims.AccessToken)
	if err != nil {
		return VerificationResult{Outcome: domain.VerificationFailed}
	}
	if !sub.ActiveAt(s.now()) {
		return VerificationResult{Outcome: domain.VerificationFailed}
	}
	s.publishVerified(ctx, claims, "", sub.ID)
	return VerificationResult{Outcome: domain.VerificationVerified, SubscriptionID: sub.ID}
}

func (s *PaymentService) publishVerified(ctx context.Context, claims *session.Claims, authority, subscriptionID string) {
	_ = s.dispatcher.Publish(ctx, events.NewEvent(events.EventPaymentVerified, claims.SubjectID, map[string]string{
		"authority":       authority,
		"subscription_id": subscriptionID,
	}))
}
