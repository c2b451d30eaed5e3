package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"whogowin/database"
	"whogowin/domain/entities"
)

// PlatformWalletRepository implements treasury data access
type PlatformWalletRepository struct {
	q Queryable
}

// NewPlatformWalletRepository creates a new platform wallet repository
func NewPlatformWalletRepository(db *database.DB) *PlatformWalletRepository {
	return &PlatformWalletRepository{q: db.Pool}
}

func newPlatformWalletRepository(tx Queryable) *PlatformWalletRepository {
	return &PlatformWalletRepository{q: tx}
}

// Get returns the platform treasury aggregate. The row is seeded by the
// schema migration, so a missing row is an error rather than nil.
func (r *PlatformWalletRepository) Get(ctx context.Context) (*entities.PlatformWallet, error) {
	query := `
		SELECT id, total_earnings, total_payouts, current_balance, updated_at
		FROM platform_wallet
		WHERE id = $1
	`

	var wallet entities.PlatformWallet
	err := r.q.QueryRow(ctx, query, entities.PlatformWalletID).Scan(
		&wallet.ID,
		&wallet.TotalEarnings,
		&wallet.TotalPayouts,
		&wallet.CurrentBalance,
		&wallet.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("platform wallet row missing")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get platform wallet: %w", err)
	}

	return &wallet, nil
}

// RecordSettlement accumulates one draw settlement into the treasury
func (r *PlatformWalletRepository) RecordSettlement(ctx context.Context, earnings, payouts, retained decimal.Decimal) error {
	query := `
		UPDATE platform_wallet
		SET total_earnings = total_earnings + $2,
		    total_payouts = total_payouts + $3,
		    current_balance = current_balance + $4,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, entities.PlatformWalletID, earnings, payouts, retained)
	if err != nil {
		return fmt.Errorf("failed to record settlement on platform wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("platform wallet row missing")
	}

	return nil
}
