package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlatformWalletID is the primary key of the singleton treasury row
const PlatformWalletID = "platform"

// PlatformWallet is the operator treasury aggregate. TotalEarnings
// accumulates the fixed platform cut of every completed draw;
// TotalPayouts accumulates prize credits; CurrentBalance holds the
// portion of settled pots not paid out to winners (cut, unclaimed tier
// pools and rounding residue).
type PlatformWallet struct {
	ID             string          `db:"id"`
	TotalEarnings  decimal.Decimal `db:"total_earnings"`
	TotalPayouts   decimal.Decimal `db:"total_payouts"`
	CurrentBalance decimal.Decimal `db:"current_balance"`
	UpdatedAt      time.Time       `db:"updated_at"`
}
