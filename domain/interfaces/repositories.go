package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
	"whogowin/domain/events"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByID retrieves a user by ID, or nil if no such user exists
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByEmail retrieves a user by email, or nil if no such user exists
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// Create inserts a new user and fills its ID and timestamps
	Create(ctx context.Context, user *entities.User) error

	// CreditBalance atomically increments a user's balance and returns
	// the new balance. Returns entities.ErrUserNotFound if the user
	// does not exist.
	CreditBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)

	// DebitBalance atomically decrements a user's balance with a single
	// conditional update that only succeeds if the stored balance covers
	// the amount at the moment of the update. Returns the new balance,
	// entities.ErrInsufficientBalance, or entities.ErrUserNotFound.
	DebitBalance(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error)
}

// TransactionRepository defines the interface for the append-only
// transaction log
type TransactionRepository interface {
	// Create inserts a new transaction record and fills its ID
	Create(ctx context.Context, txn *entities.Transaction) error

	// GetByID retrieves a transaction by ID, or nil if none exists
	GetByID(ctx context.Context, id int64) (*entities.Transaction, error)

	// GetByReference retrieves a transaction by payment reference, or nil
	GetByReference(ctx context.Context, reference string) (*entities.Transaction, error)

	// GetByUser returns a user's most recent transactions
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)

	// SettlePending persists the status transition of a pending
	// transaction (approval or rejection metadata included). The update
	// is conditional on the stored row still being pending; returns
	// entities.ErrTransactionNotPending otherwise.
	SettlePending(ctx context.Context, txn *entities.Transaction) error
}

// DrawRepository defines the interface for draw data access
type DrawRepository interface {
	// Create inserts a new draw and fills its ID and created_at
	Create(ctx context.Context, draw *entities.Draw) error

	// GetByID retrieves a draw by ID, or nil if no such draw exists
	GetByID(ctx context.Context, id int64) (*entities.Draw, error)

	// GetByIDForUpdate retrieves a draw by ID with a row lock for update
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Draw, error)

	// GetActiveDraws returns all active draws ordered by end time
	GetActiveDraws(ctx context.Context) ([]*entities.Draw, error)

	// GetExpiredActiveDraws returns active draws whose end time has passed
	GetExpiredActiveDraws(ctx context.Context, asOf time.Time) ([]*entities.Draw, error)

	// FindActiveByTypeSince returns the active draw of the given type
	// whose start time falls on or after periodStart, or nil
	FindActiveByTypeSince(ctx context.Context, drawType entities.DrawType, periodStart time.Time) (*entities.Draw, error)

	// AddTickets increments the pot and ticket counters, conditional on
	// the draw still being active. Returns entities.ErrDrawNotActive if
	// the draw was settled or cancelled in the meantime.
	AddTickets(ctx context.Context, drawID int64, amount decimal.Decimal, count int64) error

	// UpdateSchedule persists admin edits (end time, type) on an active draw
	UpdateSchedule(ctx context.Context, draw *entities.Draw) error

	// Settle persists the active->completed or active->cancelled
	// transition together with the outcome fields. The status flip is
	// conditional on the stored row still being active; returns
	// entities.ErrDrawNotActive if another settlement won the race.
	Settle(ctx context.Context, draw *entities.Draw) error
}

// TicketRepository defines the interface for ticket data access
type TicketRepository interface {
	// CreateBatch inserts multiple tickets in one statement and fills
	// their IDs and purchase timestamps
	CreateBatch(ctx context.Context, tickets []*entities.Ticket) error

	// GetByID retrieves a ticket by ID, or nil if no such ticket exists
	GetByID(ctx context.Context, id int64) (*entities.Ticket, error)

	// MarkRefunded flips a single ticket to cancelled and refunded,
	// conditional on the stored row still being active. Returns
	// entities.ErrTicketNotActive if the ticket was already settled
	// or refunded.
	MarkRefunded(ctx context.Context, ticketID int64) error

	// GetByDraw returns every ticket belonging to a draw
	GetByDraw(ctx context.Context, drawID int64) ([]*entities.Ticket, error)

	// GetByUser returns a user's most recent tickets
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Ticket, error)

	// UpdateOutcomes persists settlement outcome fields for a batch of tickets
	UpdateOutcomes(ctx context.Context, tickets []*entities.Ticket) error

	// RefundAllForDraw marks every ticket of a draw cancelled and refunded
	RefundAllForDraw(ctx context.Context, drawID int64) error
}

// PlatformWalletRepository defines the interface for the treasury singleton
type PlatformWalletRepository interface {
	// Get returns the platform treasury aggregate
	Get(ctx context.Context) (*entities.PlatformWallet, error)

	// RecordSettlement accumulates one draw settlement: the platform cut
	// into total earnings, prize credits into total payouts, and the
	// retained share of the pot into the current balance.
	RecordSettlement(ctx context.Context, earnings, payouts, retained decimal.Decimal) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher buffers events during a transaction and
// releases them only after commit
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all buffered events; called after commit
	Flush(ctx context.Context) error

	// Discard drops all buffered events; called on rollback
	Discard()
}
