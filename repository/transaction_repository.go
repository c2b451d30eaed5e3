package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whogowin/database"
	"whogowin/domain/entities"
)

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q Queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

func newTransactionRepository(tx Queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `id, user_id, kind, amount, description, status, payment_reference,
	withdrawal_request, bank_name, account_number, account_name, actor_id,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason, created_at`

func scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var txn entities.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Kind,
		&txn.Amount,
		&txn.Description,
		&txn.Status,
		&txn.PaymentReference,
		&txn.WithdrawalRequest,
		&txn.BankName,
		&txn.AccountNumber,
		&txn.AccountName,
		&txn.ActorID,
		&txn.ApprovedBy,
		&txn.ApprovedAt,
		&txn.RejectedBy,
		&txn.RejectedAt,
		&txn.RejectionReason,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Create inserts a new ledger entry
func (r *TransactionRepository) Create(ctx context.Context, txn *entities.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, kind, amount, description, status, payment_reference,
		                          withdrawal_request, bank_name, account_number, account_name, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.Kind,
		txn.Amount,
		txn.Description,
		txn.Status,
		txn.PaymentReference,
		txn.WithdrawalRequest,
		txn.BankName,
		txn.AccountNumber,
		txn.AccountName,
		txn.ActorID,
	).Scan(&txn.ID, &txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction for user %d: %w", txn.UserID, err)
	}

	return nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	txn, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return txn, nil
}

// GetByReference retrieves a transaction by payment reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*entities.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE payment_reference = $1`

	txn, err := scanTransaction(r.q.QueryRow(ctx, query, reference))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by reference %s: %w", reference, err)
	}
	return txn, nil
}

// GetByUser returns a user's most recent ledger entries
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, txn)
	}

	return transactions, rows.Err()
}

// SettlePending persists the status transition of a pending
// transaction. The update matches only while the stored row is still
// pending, so two settlements of the same entry cannot both succeed.
func (r *TransactionRepository) SettlePending(ctx context.Context, txn *entities.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2,
		    approved_by = $3,
		    approved_at = $4,
		    rejected_by = $5,
		    rejected_at = $6,
		    rejection_reason = $7
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query,
		txn.ID,
		txn.Status,
		txn.ApprovedBy,
		txn.ApprovedAt,
		txn.RejectedBy,
		txn.RejectedAt,
		txn.RejectionReason,
	)
	if err != nil {
		return fmt.Errorf("failed to settle transaction %d: %w", txn.ID, err)
	}

	if result.RowsAffected() == 0 {
		return entities.ErrTransactionNotPending
	}

	return nil
}
