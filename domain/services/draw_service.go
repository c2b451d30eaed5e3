package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
	"whogowin/domain/events"
	"whogowin/domain/interfaces"
	"whogowin/domain/utils"

	log "github.com/sirupsen/logrus"
)

// drawService implements the draw lifecycle: scheduling, ticket sales,
// settlement and cancellation. All mutating operations are expected to
// run inside a single unit of work so they land atomically.
type drawService struct {
	drawRepo        interfaces.DrawRepository
	ticketRepo      interfaces.TicketRepository
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	walletRepo      interfaces.PlatformWalletRepository
	eventPublisher  interfaces.EventPublisher
	baseTicketPrice decimal.Decimal
}

// NewDrawService creates a new draw service
func NewDrawService(
	drawRepo interfaces.DrawRepository,
	ticketRepo interfaces.TicketRepository,
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	walletRepo interfaces.PlatformWalletRepository,
	eventPublisher interfaces.EventPublisher,
	baseTicketPrice decimal.Decimal,
) interfaces.DrawService {
	return &drawService{
		drawRepo:        drawRepo,
		ticketRepo:      ticketRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		walletRepo:      walletRepo,
		eventPublisher:  eventPublisher,
		baseTicketPrice: baseTicketPrice,
	}
}

// CreateDraw opens a new draw with the given sales window
func (s *drawService) CreateDraw(ctx context.Context, drawType entities.DrawType, startTime, endTime time.Time) (*entities.Draw, error) {
	if !drawType.Valid() {
		return nil, entities.ErrInvalidDrawType
	}
	if !endTime.After(time.Now().UTC()) || !endTime.After(startTime) {
		return nil, entities.ErrEndTimeNotFuture
	}

	draw := &entities.Draw{
		Type:      drawType,
		StartTime: startTime.UTC(),
		EndTime:   endTime.UTC(),
		TotalPot:  decimal.Zero,
		Status:    entities.DrawStatusActive,
	}
	if err := s.drawRepo.Create(ctx, draw); err != nil {
		return nil, fmt.Errorf("failed to create draw: %w", err)
	}

	return draw, nil
}

// UpdateDraw applies admin edits to an active draw. End time edits are
// refused once tickets have been sold; terminal draws are immutable.
func (s *drawService) UpdateDraw(ctx context.Context, drawID int64, update interfaces.DrawUpdate) (*entities.Draw, error) {
	draw, err := s.drawRepo.GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if !draw.IsActive() {
		return nil, entities.ErrDrawNotActive
	}

	var changes []string
	if update.EndTime != nil {
		if draw.TotalTickets > 0 {
			return nil, entities.ErrTicketsSold
		}
		endTime := update.EndTime.UTC()
		if !endTime.After(time.Now().UTC()) || !endTime.After(draw.StartTime) {
			return nil, entities.ErrEndTimeNotFuture
		}
		draw.EndTime = endTime
		changes = append(changes, "end_time")
	}
	if update.Type != nil {
		if !update.Type.Valid() {
			return nil, entities.ErrInvalidDrawType
		}
		draw.Type = *update.Type
		changes = append(changes, "draw_type")
	}
	if len(changes) == 0 {
		return draw, nil
	}

	if err := s.drawRepo.UpdateSchedule(ctx, draw); err != nil {
		return nil, fmt.Errorf("failed to update draw: %w", err)
	}

	if err := s.eventPublisher.Publish(events.DrawUpdatedEvent{
		DrawID:   draw.ID,
		DrawType: draw.Type,
		Changes:  changes,
	}); err != nil {
		log.WithError(err).Error("Failed to publish draw updated event")
	}

	return draw, nil
}

// PurchaseTicket buys tickets in a draw. A price of N times the base
// ticket price buys N ticket rows at the base price, all carrying the
// same number selection. The pot grows by the full price paid.
func (s *drawService) PurchaseTicket(ctx context.Context, userID, drawID int64, numbers []int32, price decimal.Decimal) (*interfaces.TicketPurchaseResult, error) {
	if err := ValidateNumberSelection(numbers); err != nil {
		return nil, err
	}

	quantity := price.Div(s.baseTicketPrice).IntPart()
	if quantity < 1 {
		return nil, entities.ErrInvalidTicketPrice
	}

	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	now := time.Now().UTC()
	if !draw.IsActive() {
		return nil, entities.ErrDrawNotActive
	}
	if draw.HasEnded(now) {
		return nil, entities.ErrDrawEnded
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}

	newBalance, err := s.userRepo.DebitBalance(ctx, userID, price)
	if err != nil {
		return nil, err
	}

	txn := &entities.Transaction{
		UserID:      userID,
		Kind:        entities.TransactionKindDebit,
		Amount:      price,
		Description: fmt.Sprintf("Ticket purchase - %s draw #%d", draw.Type, draw.ID),
		Status:      entities.TransactionStatusCompleted,
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Add(price), newBalance); err != nil {
		return nil, err
	}

	tickets := make([]*entities.Ticket, 0, quantity)
	for i := int64(0); i < quantity; i++ {
		tickets = append(tickets, &entities.Ticket{
			UserID:          userID,
			DrawID:          draw.ID,
			DrawType:        draw.Type,
			Price:           s.baseTicketPrice,
			SelectedNumbers: numbers,
			Status:          entities.TicketStatusActive,
		})
	}
	if err := s.ticketRepo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	// Conditional on the draw still being active; a racing settlement
	// makes this fail and the whole purchase rolls back
	if err := s.drawRepo.AddTickets(ctx, draw.ID, price, quantity); err != nil {
		return nil, err
	}

	draw, err = s.drawRepo.GetByID(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh draw: %w", err)
	}

	if err := s.eventPublisher.Publish(events.TicketsPurchasedEvent{
		UserID:      userID,
		DrawID:      draw.ID,
		DrawType:    draw.Type,
		TicketCount: len(tickets),
		TotalPrice:  price,
	}); err != nil {
		log.WithError(err).Error("Failed to publish tickets purchased event")
	}

	return &interfaces.TicketPurchaseResult{
		Tickets:    tickets,
		Draw:       draw,
		NewBalance: newBalance,
		Charged:    price,
	}, nil
}

// SettleDraw draws winning numbers, allocates prizes, credits the
// winners, accumulates the platform treasury and completes the draw
func (s *drawService) SettleDraw(ctx context.Context, drawID int64) (*interfaces.DrawSettlementResult, error) {
	draw, err := s.drawRepo.GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if !draw.IsActive() {
		return nil, entities.ErrDrawNotActive
	}

	tickets, err := s.ticketRepo.GetByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	winningNumbers, err := DrawWinningNumbers()
	if err != nil {
		return nil, err
	}

	alloc := AllocatePrizes(draw.TotalPot, tickets, winningNumbers, nil)

	// Credit each winner once with their combined prize
	prizeByUser := make(map[int64]decimal.Decimal)
	var winnerOrder []int64
	for i, ticket := range tickets {
		outcome := alloc.Outcomes[i]
		ticket.SettleOutcome(outcome.MatchCount, outcome.Prize, outcome.Won)
		if !outcome.Won {
			continue
		}
		if _, seen := prizeByUser[ticket.UserID]; !seen {
			winnerOrder = append(winnerOrder, ticket.UserID)
		}
		prizeByUser[ticket.UserID] = prizeByUser[ticket.UserID].Add(outcome.Prize)
	}

	names := make(map[int64]string, len(prizeByUser))
	for _, userID := range winnerOrder {
		prize := prizeByUser[userID]
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get winner: %w", err)
		}
		if user == nil {
			return nil, entities.ErrUserNotFound
		}
		names[userID] = user.Name

		newBalance, err := s.userRepo.CreditBalance(ctx, userID, prize)
		if err != nil {
			return nil, fmt.Errorf("failed to credit winner: %w", err)
		}

		txn := &entities.Transaction{
			UserID:      userID,
			Kind:        entities.TransactionKindCredit,
			Amount:      prize,
			Description: fmt.Sprintf("Prize - %s draw #%d", draw.Type, draw.ID),
			Status:      entities.TransactionStatusCompleted,
		}
		if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Sub(prize), newBalance); err != nil {
			return nil, err
		}

		if err := s.eventPublisher.Publish(events.NotificationEvent{
			UserID:           userID,
			Title:            "You Won!",
			Body:             fmt.Sprintf("You won %s in the %s draw", prize.StringFixed(2), draw.Type),
			NotificationType: "draw_win",
		}); err != nil {
			log.WithError(err).Error("Failed to publish winner notification")
		}
	}
	fillWinnerNames(alloc.FirstPlaceWinners, names)
	fillWinnerNames(alloc.ConsolationWinners, names)

	if len(tickets) > 0 {
		if err := s.ticketRepo.UpdateOutcomes(ctx, tickets); err != nil {
			return nil, fmt.Errorf("failed to update ticket outcomes: %w", err)
		}
	}

	// The pot splits three ways: prizes to winners, the fixed cut as
	// earnings, and whatever the tiers did not pay out stays with the
	// platform balance.
	retained := draw.TotalPot.Sub(alloc.TotalPayouts)
	if err := s.walletRepo.RecordSettlement(ctx, alloc.PlatformCut, alloc.TotalPayouts, retained); err != nil {
		return nil, fmt.Errorf("failed to record settlement on platform wallet: %w", err)
	}

	draw.Complete(winningNumbers, alloc.FirstPlaceWinners, alloc.ConsolationWinners, alloc.PlatformCut)
	if err := s.drawRepo.Settle(ctx, draw); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.DrawCompletedEvent{
		DrawID:           draw.ID,
		DrawType:         draw.Type,
		WinningNumbers:   winningNumbers,
		TotalPot:         draw.TotalPot,
		PlatformEarnings: alloc.PlatformCut,
		WinnerCount:      len(alloc.FirstPlaceWinners) + len(alloc.ConsolationWinners),
	}); err != nil {
		log.WithError(err).Error("Failed to publish draw completed event")
	}

	log.WithFields(log.Fields{
		"drawID":         draw.ID,
		"drawType":       draw.Type,
		"totalPot":       draw.TotalPot,
		"winningNumbers": winningNumbers,
		"totalPayouts":   alloc.TotalPayouts,
		"platformCut":    alloc.PlatformCut,
	}).Info("Draw settled")

	return &interfaces.DrawSettlementResult{
		Draw:               draw,
		WinningNumbers:     winningNumbers,
		FirstPlaceWinners:  alloc.FirstPlaceWinners,
		ConsolationWinners: alloc.ConsolationWinners,
		TotalPayouts:       alloc.TotalPayouts,
		PlatformEarnings:   alloc.PlatformCut,
	}, nil
}

// CancelDraw refunds every ticket at its purchase price and transitions
// the draw to cancelled
func (s *drawService) CancelDraw(ctx context.Context, drawID int64) (*interfaces.DrawCancellationResult, error) {
	draw, err := s.drawRepo.GetByIDForUpdate(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if !draw.IsActive() {
		return nil, entities.ErrDrawNotActive
	}

	tickets, err := s.ticketRepo.GetByDraw(ctx, draw.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}

	// One refund per user for all their tickets in this draw
	refundByUser := make(map[int64]decimal.Decimal)
	var refundOrder []int64
	for _, ticket := range tickets {
		if _, seen := refundByUser[ticket.UserID]; !seen {
			refundOrder = append(refundOrder, ticket.UserID)
		}
		refundByUser[ticket.UserID] = refundByUser[ticket.UserID].Add(ticket.Price)
	}

	totalRefunded := decimal.Zero
	for _, userID := range refundOrder {
		refund := refundByUser[userID]
		newBalance, err := s.userRepo.CreditBalance(ctx, userID, refund)
		if err != nil {
			return nil, fmt.Errorf("failed to refund user: %w", err)
		}
		totalRefunded = totalRefunded.Add(refund)

		txn := &entities.Transaction{
			UserID:      userID,
			Kind:        entities.TransactionKindCredit,
			Amount:      refund,
			Description: fmt.Sprintf("Refund - cancelled %s draw #%d", draw.Type, draw.ID),
			Status:      entities.TransactionStatusCompleted,
		}
		if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Sub(refund), newBalance); err != nil {
			return nil, err
		}

		if err := s.eventPublisher.Publish(events.NotificationEvent{
			UserID:           userID,
			Title:            "Draw Cancelled",
			Body:             fmt.Sprintf("The %s draw was cancelled; %s has been refunded", draw.Type, refund.StringFixed(2)),
			NotificationType: "draw_cancelled",
		}); err != nil {
			log.WithError(err).Error("Failed to publish refund notification")
		}
	}

	if len(tickets) > 0 {
		if err := s.ticketRepo.RefundAllForDraw(ctx, draw.ID); err != nil {
			return nil, fmt.Errorf("failed to refund tickets: %w", err)
		}
	}

	draw.Cancel()
	if err := s.drawRepo.Settle(ctx, draw); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.DrawCancelledEvent{
		DrawID:        draw.ID,
		DrawType:      draw.Type,
		TotalRefunded: totalRefunded,
		RefundedUsers: len(refundByUser),
	}); err != nil {
		log.WithError(err).Error("Failed to publish draw cancelled event")
	}

	log.WithFields(log.Fields{
		"drawID":        draw.ID,
		"drawType":      draw.Type,
		"totalRefunded": totalRefunded,
		"tickets":       len(tickets),
	}).Info("Draw cancelled")

	return &interfaces.DrawCancellationResult{
		Draw:            draw,
		TicketsRefunded: int64(len(tickets)),
		AmountRefunded:  totalRefunded,
	}, nil
}

// RefundTicket refunds a single active ticket in an active draw. The
// user gets the ticket price back, the ticket is marked refunded and
// the pot shrinks by the ticket price.
func (s *drawService) RefundTicket(ctx context.Context, ticketID int64) (*interfaces.TicketRefundResult, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	if ticket == nil {
		return nil, entities.ErrTicketNotFound
	}
	if ticket.Status != entities.TicketStatusActive {
		return nil, entities.ErrTicketNotActive
	}

	draw, err := s.drawRepo.GetByIDForUpdate(ctx, ticket.DrawID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	if !draw.IsActive() {
		return nil, entities.ErrDrawNotActive
	}

	if err := s.ticketRepo.MarkRefunded(ctx, ticket.ID); err != nil {
		return nil, err
	}
	ticket.MarkRefunded()

	// Take the ticket back out of the pot
	if err := s.drawRepo.AddTickets(ctx, draw.ID, ticket.Price.Neg(), -1); err != nil {
		return nil, err
	}
	draw.TotalPot = draw.TotalPot.Sub(ticket.Price)
	draw.TotalTickets--

	newBalance, err := s.userRepo.CreditBalance(ctx, ticket.UserID, ticket.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to credit refund: %w", err)
	}

	txn := &entities.Transaction{
		UserID:      ticket.UserID,
		Kind:        entities.TransactionKindCredit,
		Amount:      ticket.Price,
		Description: fmt.Sprintf("Refund - ticket #%d in %s draw #%d", ticket.ID, draw.Type, draw.ID),
		Status:      entities.TransactionStatusCompleted,
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Sub(ticket.Price), newBalance); err != nil {
		return nil, err
	}

	if err := s.eventPublisher.Publish(events.NotificationEvent{
		UserID:           ticket.UserID,
		Title:            "Ticket Refunded",
		Body:             fmt.Sprintf("Your ticket for the %s draw has been refunded; %s has been credited", draw.Type, ticket.Price.StringFixed(2)),
		NotificationType: "refund",
	}); err != nil {
		log.WithError(err).Error("Failed to publish refund notification")
	}

	log.WithFields(log.Fields{
		"ticketID": ticket.ID,
		"drawID":   draw.ID,
		"userID":   ticket.UserID,
		"amount":   ticket.Price,
	}).Info("Ticket refunded")

	return &interfaces.TicketRefundResult{
		Ticket:         ticket,
		Draw:           draw,
		AmountRefunded: ticket.Price,
		NewBalance:     newBalance,
	}, nil
}

// EnsureScheduledDraws idempotently creates the daily, weekly and
// monthly draws whose windows cover the given instant
func (s *drawService) EnsureScheduledDraws(ctx context.Context, now time.Time) ([]*entities.Draw, error) {
	var created []*entities.Draw
	for _, drawType := range []entities.DrawType{entities.DrawTypeDaily, entities.DrawTypeWeekly, entities.DrawTypeMonthly} {
		start, end := scheduleWindow(drawType, now)
		if !end.After(now.UTC()) {
			continue
		}

		existing, err := s.drawRepo.FindActiveByTypeSince(ctx, drawType, start)
		if err != nil {
			return nil, fmt.Errorf("failed to check for existing %s draw: %w", drawType, err)
		}
		if existing != nil {
			continue
		}

		draw := &entities.Draw{
			Type:        drawType,
			StartTime:   start,
			EndTime:     end,
			TotalPot:    decimal.Zero,
			Status:      entities.DrawStatusActive,
			AutoCreated: true,
		}
		if err := s.drawRepo.Create(ctx, draw); err != nil {
			return nil, fmt.Errorf("failed to create %s draw: %w", drawType, err)
		}
		created = append(created, draw)

		log.WithFields(log.Fields{
			"drawID":   draw.ID,
			"drawType": drawType,
			"endTime":  end,
		}).Info("Created scheduled draw")
	}
	return created, nil
}

// GetDraw returns a draw by ID
func (s *drawService) GetDraw(ctx context.Context, drawID int64) (*entities.Draw, error) {
	draw, err := s.drawRepo.GetByID(ctx, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw: %w", err)
	}
	if draw == nil {
		return nil, entities.ErrDrawNotFound
	}
	return draw, nil
}

// GetActiveDraws returns all draws currently open for play
func (s *drawService) GetActiveDraws(ctx context.Context) ([]*entities.Draw, error) {
	return s.drawRepo.GetActiveDraws(ctx)
}

// GetUserTickets returns a user's most recent tickets
func (s *drawService) GetUserTickets(ctx context.Context, userID int64, limit int) ([]*entities.Ticket, error) {
	return s.ticketRepo.GetByUser(ctx, userID, limit)
}

func fillWinnerNames(winners []entities.Winner, names map[int64]string) {
	for i := range winners {
		winners[i].Name = names[winners[i].UserID]
	}
}
