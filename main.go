package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/shopspring/decimal"

	"whogowin/application"
	"whogowin/config"
	"whogowin/database"
	"whogowin/domain/services"
	"whogowin/infrastructure"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error:", err)
		}
		return
	}

	// Check for balance adjustment subcommands
	if len(os.Args) > 1 && os.Args[1] == "adjust-balance" {
		if err := handleBalanceAdjustment(); err != nil {
			log.Fatal("Balance adjustment error:", err)
		}
		return
	}

	// Check for manual top-up confirmation
	if len(os.Args) > 1 && os.Args[1] == "confirm-topup" {
		if err := handleTopupConfirmation(); err != nil {
			log.Fatal("Top-up confirmation error:", err)
		}
		return
	}

	// Normal service operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

// run wires the service together and blocks until the context is cancelled
func run(ctx context.Context) error {
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrationsWithURL(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsClient.Close()

	subjectMapper := infrastructure.NewEventSubjectMapper()
	eventPublisher := infrastructure.NewNATSEventPublisher(natsClient, subjectMapper)
	if err := eventPublisher.EnsureDomainEventStream(); err != nil {
		return fmt.Errorf("failed to ensure event stream: %w", err)
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)

	scheduler := application.NewDrawScheduler(uowFactory, cfg.SchedulerInterval, cfg.BaseTicketPrice)
	stopScheduler := scheduler.Start(ctx)
	defer stopScheduler()

	<-ctx.Done()
	return nil
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: whogowin migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleBalanceAdjustment applies an admin wallet correction from the
// command line: whogowin adjust-balance <user-id> <amount> <actor-id> [reason]
func handleBalanceAdjustment() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: whogowin adjust-balance user-id amount actor-id [reason]")
	}

	userID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user ID %q: %w", os.Args[2], err)
	}
	amount, err := decimal.NewFromString(os.Args[3])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", os.Args[3], err)
	}
	actorID, err := strconv.ParseInt(os.Args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid actor ID %q: %w", os.Args[4], err)
	}
	reason := "manual adjustment"
	if len(os.Args) > 5 {
		reason = os.Args[5]
	}

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Events are not processed for one-off admin commands
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	walletService := services.NewWalletService(
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.EventBus(),
	)

	txn, err := walletService.Adjust(ctx, userID, amount, reason, actorID)
	if err != nil {
		return fmt.Errorf("failed to adjust balance: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Adjusted balance of user %d by %s (transaction %d)", userID, amount, txn.ID)
	return nil
}

// handleTopupConfirmation settles a pending top-up by reference, for
// when the payment callback was missed: whogowin confirm-topup <reference>
func handleTopupConfirmation() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: whogowin confirm-topup reference")
	}
	reference := os.Args[2]

	ctx := context.Background()
	cfg := config.Get()

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	gateway := infrastructure.NewPaystackGateway(cfg.PaystackSecretKey, cfg.PaystackBaseURL)

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	paymentService := services.NewPaymentService(
		uow.UserRepository(),
		uow.TransactionRepository(),
		uow.EventBus(),
		gateway,
		cfg.MaxTopupAmount,
	)

	confirmation, err := paymentService.ConfirmTopup(ctx, reference)
	if err != nil {
		return fmt.Errorf("failed to confirm top-up: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Confirmed top-up %s for user %d; new balance %s",
		reference, confirmation.Transaction.UserID, confirmation.NewBalance.StringFixed(2))
	return nil
}
