package events

import (
	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange    EventType = "balance_change"
	EventTypeTicketsPurchased EventType = "tickets_purchased"
	EventTypeDrawCompleted    EventType = "draw_completed"
	EventTypeDrawCancelled    EventType = "draw_cancelled"
	EventTypeDrawUpdated      EventType = "draw_updated"
	EventTypeNotification     EventType = "notification"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a wallet balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64
	TransactionID   int64
	TransactionKind entities.TransactionKind
	Amount          decimal.Decimal
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	Description     string
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// TicketsPurchasedEvent represents a completed ticket purchase
type TicketsPurchasedEvent struct {
	UserID      int64
	DrawID      int64
	DrawType    entities.DrawType
	TicketCount int
	TotalPrice  decimal.Decimal
}

func (e TicketsPurchasedEvent) Type() EventType {
	return EventTypeTicketsPurchased
}

// DrawCompletedEvent represents a settled draw
type DrawCompletedEvent struct {
	DrawID           int64
	DrawType         entities.DrawType
	WinningNumbers   []int32
	TotalPot         decimal.Decimal
	PlatformEarnings decimal.Decimal
	WinnerCount      int
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}

// DrawCancelledEvent represents a cancelled draw with refunded tickets
type DrawCancelledEvent struct {
	DrawID        int64
	DrawType      entities.DrawType
	TotalRefunded decimal.Decimal
	RefundedUsers int
}

func (e DrawCancelledEvent) Type() EventType {
	return EventTypeDrawCancelled
}

// DrawUpdatedEvent represents an admin edit to an active draw
type DrawUpdatedEvent struct {
	DrawID   int64
	DrawType entities.DrawType
	Changes  []string
}

func (e DrawUpdatedEvent) Type() EventType {
	return EventTypeDrawUpdated
}

// NotificationEvent represents a user-facing notification. Delivery is
// fire-and-forget: events are flushed only after the owning transaction
// commits, and publish failures never abort the caller.
type NotificationEvent struct {
	UserID           int64
	Title            string
	Body             string
	NotificationType string
}

func (e NotificationEvent) Type() EventType {
	return EventTypeNotification
}
