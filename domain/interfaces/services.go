package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
)

// TicketPurchaseResult captures the outcome of a ticket purchase
type TicketPurchaseResult struct {
	Tickets    []*entities.Ticket
	Draw       *entities.Draw
	NewBalance decimal.Decimal
	Charged    decimal.Decimal
}

// DrawSettlementResult captures the outcome of settling one draw
type DrawSettlementResult struct {
	Draw               *entities.Draw
	WinningNumbers     []int32
	FirstPlaceWinners  []entities.Winner
	ConsolationWinners []entities.Winner
	TotalPayouts       decimal.Decimal
	PlatformEarnings   decimal.Decimal
}

// DrawCancellationResult captures the outcome of cancelling one draw
type DrawCancellationResult struct {
	Draw            *entities.Draw
	TicketsRefunded int64
	AmountRefunded  decimal.Decimal
}

// TicketRefundResult captures the outcome of refunding a single ticket
type TicketRefundResult struct {
	Ticket         *entities.Ticket
	Draw           *entities.Draw
	AmountRefunded decimal.Decimal
	NewBalance     decimal.Decimal
}

// DrawUpdate carries admin edits for an active draw. Nil fields are
// left unchanged.
type DrawUpdate struct {
	EndTime *time.Time
	Type    *entities.DrawType
}

// WalletService defines operations on user balances and the
// transaction ledger
type WalletService interface {
	// Credit adds funds to a user's wallet and records a completed
	// credit transaction. Amount must be positive.
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*entities.Transaction, error)

	// Debit removes funds from a user's wallet and records a completed
	// debit transaction. Fails with entities.ErrInsufficientBalance
	// without partial effect.
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*entities.Transaction, error)

	// Adjust applies a signed admin correction to a user's wallet,
	// recording the acting admin on the transaction
	Adjust(ctx context.Context, userID int64, amount decimal.Decimal, reason string, actorID int64) (*entities.Transaction, error)

	// RequestWithdrawal records a pending withdrawal carrying the
	// payout bank details. No funds move until approval.
	RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, details entities.PayoutDetails) (*entities.Transaction, error)

	// ApproveWithdrawal debits the requested amount and settles the
	// pending withdrawal as completed. Fails with
	// entities.ErrInsufficientBalance if the balance no longer covers
	// the amount at approval time.
	ApproveWithdrawal(ctx context.Context, transactionID int64, actorID int64) (*entities.Transaction, error)

	// RejectWithdrawal settles a pending withdrawal as failed. The
	// balance is untouched since nothing was debited at request time.
	RejectWithdrawal(ctx context.Context, transactionID int64, actorID int64, reason string) (*entities.Transaction, error)

	// GetBalance returns a user's current wallet balance
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	// GetHistory returns a user's most recent ledger entries
	GetHistory(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)
}

// DrawService defines the draw lifecycle operations
type DrawService interface {
	// CreateDraw opens a new draw with the given sales window
	CreateDraw(ctx context.Context, drawType entities.DrawType, startTime, endTime time.Time) (*entities.Draw, error)

	// UpdateDraw applies admin edits to an active draw. End time edits
	// are refused once tickets have been sold.
	UpdateDraw(ctx context.Context, drawID int64, update DrawUpdate) (*entities.Draw, error)

	// PurchaseTicket buys tickets in a draw. A price of N times the
	// base ticket price buys N tickets at the base price, all carrying
	// the same number selection. The debit, the ticket rows and the pot
	// increment land atomically or not at all.
	PurchaseTicket(ctx context.Context, userID, drawID int64, numbers []int32, price decimal.Decimal) (*TicketPurchaseResult, error)

	// SettleDraw draws winning numbers, allocates prizes, credits the
	// winners and completes the draw in one atomic transition
	SettleDraw(ctx context.Context, drawID int64) (*DrawSettlementResult, error)

	// CancelDraw refunds every ticket at its purchase price and
	// transitions the draw to cancelled
	CancelDraw(ctx context.Context, drawID int64) (*DrawCancellationResult, error)

	// RefundTicket refunds a single active ticket in an active draw:
	// the ticket price is credited back, the ticket is marked refunded
	// and the pot shrinks by the ticket price, atomically
	RefundTicket(ctx context.Context, ticketID int64) (*TicketRefundResult, error)

	// EnsureScheduledDraws idempotently creates the current daily,
	// weekly and monthly draws for the given instant
	EnsureScheduledDraws(ctx context.Context, now time.Time) ([]*entities.Draw, error)

	// GetDraw returns a draw by ID
	GetDraw(ctx context.Context, drawID int64) (*entities.Draw, error)

	// GetActiveDraws returns all draws currently open for play
	GetActiveDraws(ctx context.Context) ([]*entities.Draw, error)

	// GetUserTickets returns a user's most recent tickets
	GetUserTickets(ctx context.Context, userID int64, limit int) ([]*entities.Ticket, error)
}

// TopupIntent is a payment authorization handed to the client to
// complete checkout
type TopupIntent struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
	Amount           decimal.Decimal
}

// TopupConfirmation is the settled outcome of a verified top-up
type TopupConfirmation struct {
	Transaction *entities.Transaction
	NewBalance  decimal.Decimal
}

// PaymentService defines wallet top-ups through the payment gateway
type PaymentService interface {
	// InitiateTopup creates a pending credit and a gateway checkout
	// session for it
	InitiateTopup(ctx context.Context, userID int64, amount decimal.Decimal) (*TopupIntent, error)

	// ConfirmTopup verifies a gateway reference and credits the wallet.
	// Confirming the same reference twice credits only once.
	ConfirmTopup(ctx context.Context, reference string) (*TopupConfirmation, error)
}

// PaymentAuthorization is a checkout session created by the gateway
type PaymentAuthorization struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// PaymentVerification is the gateway's view of a transaction
type PaymentVerification struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
}

// PaymentGateway abstracts the external payment processor
type PaymentGateway interface {
	// InitializeTransaction opens a checkout session for the amount
	InitializeTransaction(ctx context.Context, email string, amount decimal.Decimal, reference string) (*PaymentAuthorization, error)

	// VerifyTransaction fetches the settlement state of a reference
	VerifyTransaction(ctx context.Context, reference string) (*PaymentVerification, error)
}
