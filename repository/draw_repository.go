package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"whogowin/database"
	"whogowin/domain/entities"
)

// DrawRepository implements draw data access
type DrawRepository struct {
	q Queryable
}

// NewDrawRepository creates a new draw repository
func NewDrawRepository(db *database.DB) *DrawRepository {
	return &DrawRepository{q: db.Pool}
}

func newDrawRepository(tx Queryable) *DrawRepository {
	return &DrawRepository{q: tx}
}

const drawColumns = `id, draw_type, start_time, end_time, total_pot, total_tickets, status,
	winning_numbers, first_place_winners, consolation_winners, platform_earnings,
	auto_created, created_at, completed_at, cancelled_at`

func scanDraw(row pgx.Row) (*entities.Draw, error) {
	var draw entities.Draw
	var firstPlace, consolation []byte
	err := row.Scan(
		&draw.ID,
		&draw.Type,
		&draw.StartTime,
		&draw.EndTime,
		&draw.TotalPot,
		&draw.TotalTickets,
		&draw.Status,
		&draw.WinningNumbers,
		&firstPlace,
		&consolation,
		&draw.PlatformEarnings,
		&draw.AutoCreated,
		&draw.CreatedAt,
		&draw.CompletedAt,
		&draw.CancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(firstPlace, &draw.FirstPlaceWinners); err != nil {
		return nil, fmt.Errorf("failed to decode first place winners: %w", err)
	}
	if err := json.Unmarshal(consolation, &draw.ConsolationWinners); err != nil {
		return nil, fmt.Errorf("failed to decode consolation winners: %w", err)
	}

	return &draw, nil
}

func marshalWinners(winners []entities.Winner) ([]byte, error) {
	if winners == nil {
		winners = []entities.Winner{}
	}
	return json.Marshal(winners)
}

// Create inserts a new draw
func (r *DrawRepository) Create(ctx context.Context, draw *entities.Draw) error {
	query := `
		INSERT INTO draws (draw_type, start_time, end_time, total_pot, status, auto_created)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		draw.Type,
		draw.StartTime,
		draw.EndTime,
		draw.TotalPot,
		draw.Status,
		draw.AutoCreated,
	).Scan(&draw.ID, &draw.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s draw: %w", draw.Type, err)
	}

	return nil
}

// GetByID retrieves a draw by its ID
func (r *DrawRepository) GetByID(ctx context.Context, id int64) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw by ID %d: %w", id, err)
	}
	return draw, nil
}

// GetByIDForUpdate retrieves a draw by ID with a row lock for update
func (r *DrawRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Draw, error) {
	query := `SELECT ` + drawColumns + ` FROM draws WHERE id = $1 FOR UPDATE`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw for update by ID %d: %w", id, err)
	}
	return draw, nil
}

func (r *DrawRepository) queryDraws(ctx context.Context, query string, args ...any) ([]*entities.Draw, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var draws []*entities.Draw
	for rows.Next() {
		draw, err := scanDraw(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		draws = append(draws, draw)
	}

	return draws, rows.Err()
}

// GetActiveDraws returns all active draws ordered by end time
func (r *DrawRepository) GetActiveDraws(ctx context.Context) ([]*entities.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'active'
		ORDER BY end_time ASC
	`

	draws, err := r.queryDraws(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active draws: %w", err)
	}
	return draws, nil
}

// GetExpiredActiveDraws returns active draws whose sales window has closed
func (r *DrawRepository) GetExpiredActiveDraws(ctx context.Context, asOf time.Time) ([]*entities.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'active'
		  AND end_time <= $1
		ORDER BY end_time ASC
	`

	draws, err := r.queryDraws(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired draws: %w", err)
	}
	return draws, nil
}

// FindActiveByTypeSince returns the active draw of the given type whose
// start time falls on or after periodStart
func (r *DrawRepository) FindActiveByTypeSince(ctx context.Context, drawType entities.DrawType, periodStart time.Time) (*entities.Draw, error) {
	query := `
		SELECT ` + drawColumns + `
		FROM draws
		WHERE status = 'active'
		  AND draw_type = $1
		  AND start_time >= $2
		ORDER BY start_time DESC
		LIMIT 1
	`

	draw, err := scanDraw(r.q.QueryRow(ctx, query, drawType, periodStart))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active %s draw: %w", drawType, err)
	}
	return draw, nil
}

// AddTickets increments the pot and ticket counters. The update matches
// only while the draw is active, so a purchase racing a settlement
// fails here and rolls back.
func (r *DrawRepository) AddTickets(ctx context.Context, drawID int64, amount decimal.Decimal, count int64) error {
	query := `
		UPDATE draws
		SET total_pot = total_pot + $2, total_tickets = total_tickets + $3
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, drawID, amount, count)
	if err != nil {
		return fmt.Errorf("failed to add tickets to draw %d: %w", drawID, err)
	}

	if result.RowsAffected() == 0 {
		return entities.ErrDrawNotActive
	}

	return nil
}

// UpdateSchedule persists admin edits on a draw's sales window
func (r *DrawRepository) UpdateSchedule(ctx context.Context, draw *entities.Draw) error {
	query := `
		UPDATE draws
		SET draw_type = $2, end_time = $3
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query, draw.ID, draw.Type, draw.EndTime)
	if err != nil {
		return fmt.Errorf("failed to update draw %d: %w", draw.ID, err)
	}

	if result.RowsAffected() == 0 {
		return entities.ErrDrawNotActive
	}

	return nil
}

// Settle persists the terminal transition of a draw. The status flip is
// conditional on the stored row still being active, so only one
// settlement or cancellation of a draw can ever succeed.
func (r *DrawRepository) Settle(ctx context.Context, draw *entities.Draw) error {
	firstPlace, err := marshalWinners(draw.FirstPlaceWinners)
	if err != nil {
		return fmt.Errorf("failed to encode first place winners: %w", err)
	}
	consolation, err := marshalWinners(draw.ConsolationWinners)
	if err != nil {
		return fmt.Errorf("failed to encode consolation winners: %w", err)
	}

	query := `
		UPDATE draws
		SET status = $2,
		    total_pot = $3,
		    winning_numbers = $4,
		    first_place_winners = $5,
		    consolation_winners = $6,
		    platform_earnings = $7,
		    completed_at = $8,
		    cancelled_at = $9
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.q.Exec(ctx, query,
		draw.ID,
		draw.Status,
		draw.TotalPot,
		draw.WinningNumbers,
		firstPlace,
		consolation,
		draw.PlatformEarnings,
		draw.CompletedAt,
		draw.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to settle draw %d: %w", draw.ID, err)
	}

	if result.RowsAffected() == 0 {
		return entities.ErrDrawNotActive
	}

	return nil
}
