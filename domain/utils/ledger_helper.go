package utils

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
	"whogowin/domain/events"
	"whogowin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordLedgerEntry records a transaction row and emits the matching
// balance change event. This is the single entry point for all balance
// changes in the system.
func RecordLedgerEntry(ctx context.Context, transactionRepo interfaces.TransactionRepository, eventPublisher interfaces.EventPublisher, txn *entities.Transaction, oldBalance, newBalance decimal.Decimal) error {
	if err := transactionRepo.Create(ctx, txn); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}

	event := events.BalanceChangeEvent{
		UserID:          txn.UserID,
		TransactionID:   txn.ID,
		TransactionKind: txn.Kind,
		Amount:          txn.Amount,
		OldBalance:      oldBalance,
		NewBalance:      newBalance,
		Description:     txn.Description,
	}
	log.WithFields(log.Fields{
		"userID":        event.UserID,
		"transactionID": event.TransactionID,
		"kind":          event.TransactionKind,
		"amount":        event.Amount,
		"newBalance":    event.NewBalance,
	}).Debug("Publishing BalanceChangeEvent")
	if err := eventPublisher.Publish(event); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	// Every completed movement also pushes a wallet notification
	if txn.Status == entities.TransactionStatusCompleted {
		title := "Wallet Credited"
		if txn.Kind == entities.TransactionKindDebit {
			title = "Wallet Debited"
		}
		if err := eventPublisher.Publish(events.NotificationEvent{
			UserID:           txn.UserID,
			Title:            title,
			Body:             fmt.Sprintf("%s: %s", txn.Description, txn.Amount.StringFixed(2)),
			NotificationType: "wallet_" + string(txn.Kind),
		}); err != nil {
			log.WithError(err).Error("Failed to publish wallet notification")
		}
	}

	return nil
}
