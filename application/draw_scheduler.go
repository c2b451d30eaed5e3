package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"whogowin/domain/entities"
	"whogowin/domain/services"
)

// DrawScheduler runs the draw lifecycle in the background: on every
// tick it settles draws whose sales window has closed and makes sure
// the current daily, weekly and monthly draws exist. Every draw is
// handled in its own transaction, so one failing draw never blocks the
// rest.
type DrawScheduler struct {
	uowFactory      UnitOfWorkFactory
	interval        time.Duration
	baseTicketPrice decimal.Decimal
}

// NewDrawScheduler creates a new draw scheduler
func NewDrawScheduler(uowFactory UnitOfWorkFactory, interval time.Duration, baseTicketPrice decimal.Decimal) *DrawScheduler {
	return &DrawScheduler{
		uowFactory:      uowFactory,
		interval:        interval,
		baseTicketPrice: baseTicketPrice,
	}
}

// Start begins the scheduler loop and returns a stop function
func (s *DrawScheduler) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})

	go func() {
		log.WithField("interval", s.interval).Info("Draw scheduler started")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		// Run once immediately so a restart catches up without waiting
		// a full interval
		s.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Draw scheduler shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw scheduler shutting down (stop requested)...")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// Tick runs one scheduler pass: settle expired draws, then ensure the
// scheduled draws for the current period exist
func (s *DrawScheduler) Tick(ctx context.Context) {
	now := time.Now().UTC()

	if err := s.settleExpiredDraws(ctx, now); err != nil {
		log.WithError(err).Error("Error settling expired draws")
	}

	if err := s.ensureScheduledDraws(ctx, now); err != nil {
		log.WithError(err).Error("Error ensuring scheduled draws")
	}
}

// settleExpiredDraws settles every active draw whose end time has
// passed, each in its own transaction
func (s *DrawScheduler) settleExpiredDraws(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	expired, err := uow.DrawRepository().GetExpiredActiveDraws(ctx, now)
	if err != nil {
		uow.Rollback()
		return fmt.Errorf("failed to get expired draws: %w", err)
	}
	uow.Rollback() // Close the read transaction

	if len(expired) == 0 {
		return nil
	}

	log.WithField("count", len(expired)).Info("Found expired draws to settle")

	var successCount, failureCount int
	for _, draw := range expired {
		if err := s.settleDraw(ctx, draw.ID); err != nil {
			log.WithFields(log.Fields{
				"drawID": draw.ID,
				"error":  err,
			}).Error("Error settling draw")
			failureCount++
		} else {
			successCount++
		}
	}

	log.WithFields(log.Fields{
		"total":      len(expired),
		"successful": successCount,
		"failed":     failureCount,
	}).Info("Completed draw settlement pass")

	return nil
}

// settleDraw settles a single draw in its own transaction
func (s *DrawScheduler) settleDraw(ctx context.Context, drawID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	drawService := services.NewDrawService(
		uow.DrawRepository(),
		uow.TicketRepository(),
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.PlatformWalletRepository(),
		uow.EventBus(),
		s.baseTicketPrice,
	)

	result, err := drawService.SettleDraw(ctx, drawID)
	if err != nil {
		// Another settlement already won the race; nothing to do
		if errors.Is(err, entities.ErrDrawNotActive) {
			log.WithField("drawID", drawID).Info("Draw already settled, skipping")
			return nil
		}
		return fmt.Errorf("failed to settle draw: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"drawID":         drawID,
		"winningNumbers": result.WinningNumbers,
		"totalPot":       result.Draw.TotalPot,
		"totalPayouts":   result.TotalPayouts,
		"winnerCount":    len(result.FirstPlaceWinners) + len(result.ConsolationWinners),
	}).Info("Scheduled draw settled")

	return nil
}

// ensureScheduledDraws idempotently creates the current daily, weekly
// and monthly draws
func (s *DrawScheduler) ensureScheduledDraws(ctx context.Context, now time.Time) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	drawService := services.NewDrawService(
		uow.DrawRepository(),
		uow.TicketRepository(),
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.PlatformWalletRepository(),
		uow.EventBus(),
		s.baseTicketPrice,
	)

	created, err := drawService.EnsureScheduledDraws(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to ensure scheduled draws: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(created) > 0 {
		log.WithField("count", len(created)).Info("Created scheduled draws")
	}

	return nil
}
