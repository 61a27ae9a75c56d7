package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names an identity audit event.
type EventType string

const (
	EventLogin                EventType = "session.login"
	EventLogout               EventType = "session.logout"
	EventSessionRefreshed     EventType = "session.refreshed"
	EventImpersonationStarted EventType = "impersonation.started"
	EventImpersonationStopped EventType = "impersonation.stopped"
	EventPaymentVerified      EventType = "payment.verified"
)

// Event is a single identity audit record. Events are in-memory only; the
// backend keeps the durable audit trail.
type Event struct {
	ID        string
	Type      EventType
	SubjectID string
	At        time.Time
	Fields    map[string]string
}

// NewEvent stamps a new event with an id and timestamp.
func NewEvent(eventType EventType, subjectID string, fields map[string]string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		At:        time.Now(),
		Fields:    fields,
	}
}
