package menu

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that has occurred in the menu domain.
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// CaseRetainedEvent fires when the retention manager persists a case.
type CaseRetainedEvent struct {
	CaseID     uuid.UUID
	Ordinal    int
	Utility    float64
	Cost       int
	RetainedAt time.Time
}

// EventName returns the event name
func (e CaseRetainedEvent) EventName() string { return "menu.case.retained" }

// OccurredAt returns when the event occurred
func (e CaseRetainedEvent) OccurredAt() time.Time { return e.RetainedAt }

// CaseRejectedEvent fires when the retention manager discards a candidate.
type CaseRejectedEvent struct {
	CaseID     uuid.UUID
	Reason     string
	RejectedAt time.Time
}

// EventName returns the event name
func (e CaseRejectedEvent) EventName() string { return "menu.case.rejected" }

// OccurredAt returns when the event occurred
func (e CaseRejectedEvent) OccurredAt() time.Time { return e.RejectedAt }
