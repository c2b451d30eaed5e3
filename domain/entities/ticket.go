package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusCompleted TicketStatus = "completed"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// Ticket represents a single lottery entry. A purchase of N times the
// base price creates N rows, each at the base price and each carrying
// the same selected numbers. Outcome fields are written exactly once,
// at settlement or cancellation.
type Ticket struct {
	ID              int64            `db:"id"`
	UserID          int64            `db:"user_id"`
	DrawID          int64            `db:"draw_id"`
	DrawType        DrawType         `db:"draw_type"`
	Price           decimal.Decimal  `db:"price"`
	SelectedNumbers []int32          `db:"selected_numbers"`
	Status          TicketStatus     `db:"status"`
	Refunded        bool             `db:"refunded"`
	IsWinner        bool             `db:"is_winner"`
	PrizeAmount     *decimal.Decimal `db:"prize_amount"`
	MatchCount      *int32           `db:"match_count"`
	PurchasedAt     time.Time        `db:"purchased_at"`
}

// MatchesAgainst counts how many of the ticket's numbers appear in the
// winning set; both sides are treated as sets.
func (t *Ticket) MatchesAgainst(winningNumbers []int32) int {
	winning := make(map[int32]struct{}, len(winningNumbers))
	for _, n := range winningNumbers {
		winning[n] = struct{}{}
	}

	seen := make(map[int32]struct{}, len(t.SelectedNumbers))
	matches := 0
	for _, n := range t.SelectedNumbers {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := winning[n]; ok {
			matches++
		}
	}
	return matches
}

// SettleOutcome records the settlement result on the ticket
func (t *Ticket) SettleOutcome(matchCount int, prize decimal.Decimal, won bool) {
	mc := int32(matchCount)
	t.MatchCount = &mc
	t.IsWinner = won
	t.Status = TicketStatusCompleted
	if won {
		t.PrizeAmount = &prize
	}
}

// MarkRefunded flags the ticket as refunded due to draw cancellation
func (t *Ticket) MarkRefunded() {
	t.Status = TicketStatusCancelled
	t.Refunded = true
}
