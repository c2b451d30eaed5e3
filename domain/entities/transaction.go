package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a wallet movement
type TransactionKind string

const (
	TransactionKindCredit TransactionKind = "credit"
	TransactionKindDebit  TransactionKind = "debit"
)

// TransactionStatus represents the settlement state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// PayoutDetails carries the bank destination for a withdrawal request
type PayoutDetails struct {
	BankName      string
	AccountNumber string
	AccountName   string
}

// Transaction is an immutable ledger entry. Rows are created once; only
// the status (and approval metadata) may transition afterwards, and only
// for pending withdrawals and top-ups.
type Transaction struct {
	ID                int64             `db:"id"`
	UserID            int64             `db:"user_id"`
	Kind              TransactionKind   `db:"kind"`
	Amount            decimal.Decimal   `db:"amount"`
	Description       string            `db:"description"`
	Status            TransactionStatus `db:"status"`
	PaymentReference  *string           `db:"payment_reference"`
	WithdrawalRequest bool              `db:"withdrawal_request"`
	BankName          *string           `db:"bank_name"`
	AccountNumber     *string           `db:"account_number"`
	AccountName       *string           `db:"account_name"`
	ActorID           *int64            `db:"actor_id"`
	ApprovedBy        *int64            `db:"approved_by"`
	ApprovedAt        *time.Time        `db:"approved_at"`
	RejectedBy        *int64            `db:"rejected_by"`
	RejectedAt        *time.Time        `db:"rejected_at"`
	RejectionReason   *string           `db:"rejection_reason"`
	CreatedAt         time.Time         `db:"created_at"`
}

// IsPending returns true if the transaction has not settled yet
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionStatusPending
}

// IsPendingWithdrawal returns true if this is an unsettled withdrawal request
func (t *Transaction) IsPendingWithdrawal() bool {
	return t.WithdrawalRequest && t.IsPending()
}

// Approve marks the withdrawal as settled by the given actor
func (t *Transaction) Approve(actorID int64) {
	now := time.Now().UTC()
	t.Status = TransactionStatusCompleted
	t.ApprovedBy = &actorID
	t.ApprovedAt = &now
}

// Reject marks the withdrawal as failed with a reason
func (t *Transaction) Reject(actorID int64, reason string) {
	now := time.Now().UTC()
	t.Status = TransactionStatusFailed
	t.RejectedBy = &actorID
	t.RejectedAt = &now
	t.RejectionReason = &reason
}
