package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Numbers drawn per draw and the inclusive range they are picked from.
const (
	NumbersPerDraw = 5
	MinPickableNum = 1
	MaxPickableNum = 30
)

// DrawType represents the cadence of a draw
type DrawType string

const (
	DrawTypeDaily   DrawType = "Daily"
	DrawTypeWeekly  DrawType = "Weekly"
	DrawTypeMonthly DrawType = "Monthly"
)

// Valid returns true for a known draw cadence
func (dt DrawType) Valid() bool {
	return dt == DrawTypeDaily || dt == DrawTypeWeekly || dt == DrawTypeMonthly
}

// DrawStatus represents the lifecycle state of a draw
type DrawStatus string

const (
	DrawStatusActive    DrawStatus = "active"
	DrawStatusCompleted DrawStatus = "completed"
	DrawStatusCancelled DrawStatus = "cancelled"
)

// Winner summarizes one winning ticket in a draw outcome
type Winner struct {
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	TicketID    int64           `json:"ticket_id"`
	MatchCount  int             `json:"match_count"`
	PrizeAmount decimal.Decimal `json:"prize_amount"`
}

// Draw represents one lottery round with a fixed ticket-sales window.
// Only the lifecycle engine transitions a draw out of the active state;
// completed and cancelled are terminal.
type Draw struct {
	ID                 int64           `db:"id"`
	Type               DrawType        `db:"draw_type"`
	StartTime          time.Time       `db:"start_time"`
	EndTime            time.Time       `db:"end_time"`
	TotalPot           decimal.Decimal `db:"total_pot"`
	TotalTickets       int64           `db:"total_tickets"`
	Status             DrawStatus      `db:"status"`
	WinningNumbers     []int32         `db:"winning_numbers"`
	FirstPlaceWinners  []Winner        `db:"first_place_winners"`
	ConsolationWinners []Winner        `db:"consolation_winners"`
	PlatformEarnings   decimal.Decimal `db:"platform_earnings"`
	AutoCreated        bool            `db:"auto_created"`
	CreatedAt          time.Time       `db:"created_at"`
	CompletedAt        *time.Time      `db:"completed_at"`
	CancelledAt        *time.Time      `db:"cancelled_at"`
}

// IsActive returns true if the draw is still open for settlement
func (d *Draw) IsActive() bool {
	return d.Status == DrawStatusActive
}

// IsTerminal returns true once the draw has completed or been cancelled
func (d *Draw) IsTerminal() bool {
	return d.Status == DrawStatusCompleted || d.Status == DrawStatusCancelled
}

// HasEnded returns true if the ticket-sales window has closed
func (d *Draw) HasEnded(now time.Time) bool {
	return !now.Before(d.EndTime)
}

// CanPurchaseTickets returns true if tickets can still be purchased
func (d *Draw) CanPurchaseTickets(now time.Time) bool {
	return d.IsActive() && !d.HasEnded(now)
}

// Complete records the settlement outcome on the draw
func (d *Draw) Complete(winningNumbers []int32, firstPlace, consolation []Winner, platformEarnings decimal.Decimal) {
	now := time.Now().UTC()
	d.Status = DrawStatusCompleted
	d.WinningNumbers = winningNumbers
	d.FirstPlaceWinners = firstPlace
	d.ConsolationWinners = consolation
	d.PlatformEarnings = platformEarnings
	d.CompletedAt = &now
}

// Cancel records the cancellation outcome; the pot is zeroed because
// every ticket is refunded.
func (d *Draw) Cancel() {
	now := time.Now().UTC()
	d.Status = DrawStatusCancelled
	d.TotalPot = decimal.Zero
	d.PlatformEarnings = decimal.Zero
	d.CancelledAt = &now
}
