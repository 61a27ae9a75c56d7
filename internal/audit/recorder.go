package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/events"
)

// Recorder writes identity audit events to the structured log. This process
// is stateless, so the log is the only local trace; the backend owns the
// durable audit trail.
type Recorder struct {
	logger *zap.Logger
}

// NewRecorder builds a recorder.
func NewRecorder(logger *zap.Logger) *Recorder {
	return &Recorder{logger: logger.Named("audit")}
}

// Register subscribes the recorder to every identity event type.
func (r *Recorder) Register(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventLogin,
		events.EventLogout,
		events.EventSessionRefreshed,
		events.EventImpersonationStarted,
		events.EventImpersonationStopped,
		events.EventPaymentVerified,
	} {
		dispatcher.Subscribe(eventType, r.record)
	}
}

func (r *Recorder) record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.Time("at", event.At),
	}
	for key, value := range event.Fields {
		fields = append(fields, zap.String(key, value))
	}
	r.logger.Info(string(event.Type), fields...)
	return nil
}
