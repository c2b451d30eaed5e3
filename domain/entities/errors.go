package entities

import "errors"

// Domain errors shared by services and repositories. Callers match them
// with errors.Is; repositories classify low-level failures into these
// before they cross the interface boundary.
var (
	// Validation errors - rejected before any mutation
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrZeroAdjustment         = errors.New("adjustment amount cannot be zero")
	ErrInvalidTicketPrice     = errors.New("ticket price must be at least the base price")
	ErrInvalidNumberSelection = errors.New("selection must be 5 unique numbers between 1 and 30")
	ErrEndTimeNotFuture       = errors.New("end time must be in the future")
	ErrInvalidDrawType        = errors.New("unknown draw type")

	// Not-found errors - no mutation attempted
	ErrUserNotFound        = errors.New("user not found")
	ErrDrawNotFound        = errors.New("draw not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTransactionNotFound = errors.New("transaction not found")

	// State-conflict errors - detected via conditional updates failing;
	// usually means another actor already handled the transition
	ErrDrawNotActive         = errors.New("draw is not active")
	ErrDrawEnded             = errors.New("draw has ended")
	ErrTicketNotActive       = errors.New("only active tickets can be refunded")
	ErrTicketsSold           = errors.New("cannot change end time after tickets are sold")
	ErrTransactionNotPending = errors.New("transaction is not a pending withdrawal")
	ErrPaymentNotVerified    = errors.New("payment could not be verified")

	// Funds errors - refused with no partial effect
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
)
