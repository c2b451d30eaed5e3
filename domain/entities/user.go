package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a registered player with a wallet balance
type User struct {
	ID             int64           `db:"id"`
	Email          string          `db:"email"`
	Name           string          `db:"name"`
	ReferralCode   string          `db:"referral_code"`
	TotalReferrals int64           `db:"total_referrals"`
	PushToken      *string         `db:"push_token"`
	IsAdmin        bool            `db:"is_admin"`
	IsActive       bool            `db:"is_active"`
	Balance        decimal.Decimal `db:"balance"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// HasSufficientBalance checks if the user can cover an amount
func (u *User) HasSufficientBalance(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// HasPushToken returns true if the user can receive push notifications
func (u *User) HasPushToken() bool {
	return u.PushToken != nil && *u.PushToken != ""
}
