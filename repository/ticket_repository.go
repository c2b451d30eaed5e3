package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"whogowin/database"
	"whogowin/domain/entities"
)

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{q: db.Pool}
}

func newTicketRepository(tx Queryable) *TicketRepository {
	return &TicketRepository{q: tx}
}

const ticketColumns = `id, user_id, draw_id, draw_type, price, selected_numbers, status,
	refunded, is_winner, prize_amount, match_count, purchased_at`

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var ticket entities.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.DrawID,
		&ticket.DrawType,
		&ticket.Price,
		&ticket.SelectedNumbers,
		&ticket.Status,
		&ticket.Refunded,
		&ticket.IsWinner,
		&ticket.PrizeAmount,
		&ticket.MatchCount,
		&ticket.PurchasedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateBatch creates multiple tickets in a single batch insert
func (r *TicketRepository) CreateBatch(ctx context.Context, tickets []*entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	query := `
		INSERT INTO tickets (user_id, draw_id, draw_type, price, selected_numbers, status)
		VALUES `

	values := make([]interface{}, 0, len(tickets)*6)
	for i, ticket := range tickets {
		if i > 0 {
			query += ", "
		}
		paramOffset := i * 6
		query += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			paramOffset+1, paramOffset+2, paramOffset+3, paramOffset+4, paramOffset+5, paramOffset+6)
		values = append(values, ticket.UserID, ticket.DrawID, ticket.DrawType,
			ticket.Price, ticket.SelectedNumbers, ticket.Status)
	}
	query += " RETURNING id, purchased_at"

	rows, err := r.q.Query(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("failed to batch create tickets: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&tickets[i].ID, &tickets[i].PurchasedAt); err != nil {
			return fmt.Errorf("failed to scan ticket result: %w", err)
		}
		i++
	}

	return rows.Err()
}

// GetByID retrieves a ticket by ID, or nil if no such ticket exists
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*entities.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1
	`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	return ticket, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*entities.Ticket, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*entities.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	return tickets, rows.Err()
}

// GetByDraw returns every ticket belonging to a draw
func (r *TicketRepository) GetByDraw(ctx context.Context, drawID int64) ([]*entities.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE draw_id = $1
		ORDER BY id ASC
	`

	tickets, err := r.queryTickets(ctx, query, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for draw %d: %w", drawID, err)
	}
	return tickets, nil
}

// GetByUser returns a user's most recent tickets
func (r *TicketRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE user_id = $1
		ORDER BY purchased_at DESC
		LIMIT $2
	`

	tickets, err := r.queryTickets(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets for user %d: %w", userID, err)
	}
	return tickets, nil
}

// UpdateOutcomes persists settlement outcome fields for a batch of tickets
func (r *TicketRepository) UpdateOutcomes(ctx context.Context, tickets []*entities.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	// One UPDATE per draw settlement via unnested parallel arrays
	ids := make([]int64, len(tickets))
	statuses := make([]string, len(tickets))
	winners := make([]bool, len(tickets))
	prizes := make([]*string, len(tickets))
	matches := make([]*int32, len(tickets))
	for i, ticket := range tickets {
		ids[i] = ticket.ID
		statuses[i] = string(ticket.Status)
		winners[i] = ticket.IsWinner
		matches[i] = ticket.MatchCount
		if ticket.PrizeAmount != nil {
			s := ticket.PrizeAmount.String()
			prizes[i] = &s
		}
	}

	query := `
		UPDATE tickets t
		SET status = u.status,
		    is_winner = u.is_winner,
		    prize_amount = u.prize_amount::numeric,
		    match_count = u.match_count
		FROM (
			SELECT * FROM unnest($1::bigint[], $2::text[], $3::boolean[], $4::text[], $5::int[])
			AS x(id, status, is_winner, prize_amount, match_count)
		) u
		WHERE t.id = u.id
	`

	if _, err := r.q.Exec(ctx, query, ids, statuses, winners, prizes, matches); err != nil {
		return fmt.Errorf("failed to update ticket outcomes: %w", err)
	}

	return nil
}

// MarkRefunded flips a single ticket to cancelled and refunded. The
// update is conditional on the row still being active, so a ticket that
// was settled or refunded in the meantime is left untouched.
func (r *TicketRepository) MarkRefunded(ctx context.Context, ticketID int64) error {
	query := `
		UPDATE tickets
		SET status = 'cancelled', refunded = TRUE
		WHERE id = $1 AND status = 'active'
	`

	tag, err := r.q.Exec(ctx, query, ticketID)
	if err != nil {
		return fmt.Errorf("failed to refund ticket %d: %w", ticketID, err)
	}
	if tag.RowsAffected() == 0 {
		return entities.ErrTicketNotActive
	}

	return nil
}

// RefundAllForDraw marks every ticket of a draw cancelled and refunded
func (r *TicketRepository) RefundAllForDraw(ctx context.Context, drawID int64) error {
	query := `
		UPDATE tickets
		SET status = 'cancelled', refunded = TRUE
		WHERE draw_id = $1
	`

	if _, err := r.q.Exec(ctx, query, drawID); err != nil {
		return fmt.Errorf("failed to refund tickets for draw %d: %w", drawID, err)
	}

	return nil
}
