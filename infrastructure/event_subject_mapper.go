package infrastructure

import (
	"fmt"

	"whogowin/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChange:
		return "wallets.balance_changed"
	case events.EventTypeTicketsPurchased:
		return "draws.tickets_purchased"
	case events.EventTypeDrawCompleted:
		return "draws.completed"
	case events.EventTypeDrawCancelled:
		return "draws.cancelled"
	case events.EventTypeDrawUpdated:
		return "draws.updated"
	case events.EventTypeNotification:
		return "notifications.push"
	default:
		// Fallback for unknown event types
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "wallets.balance_changed":
		return events.EventTypeBalanceChange
	case "draws.tickets_purchased":
		return events.EventTypeTicketsPurchased
	case "draws.completed":
		return events.EventTypeDrawCompleted
	case "draws.cancelled":
		return events.EventTypeDrawCancelled
	case "draws.updated":
		return events.EventTypeDrawUpdated
	case "notifications.push":
		return events.EventTypeNotification
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns all subjects that this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"wallets.balance_changed",
		"draws.tickets_purchased",
		"draws.completed",
		"draws.cancelled",
		"draws.updated",
		"notifications.push",
	}
}
