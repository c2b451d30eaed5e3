package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
	"whogowin/domain/events"
	"whogowin/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// paymentService implements wallet top-ups through the payment gateway
type paymentService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
	gateway         interfaces.PaymentGateway
	maxTopupAmount  decimal.Decimal
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
	gateway interfaces.PaymentGateway,
	maxTopupAmount decimal.Decimal,
) interfaces.PaymentService {
	return &paymentService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
		gateway:         gateway,
		maxTopupAmount:  maxTopupAmount,
	}
}

// InitiateTopup creates a pending credit and opens a gateway checkout
// session for it
func (s *paymentService) InitiateTopup(ctx context.Context, userID int64, amount decimal.Decimal) (*interfaces.TopupIntent, error) {
	if !amount.IsPositive() || amount.GreaterThan(s.maxTopupAmount) {
		return nil, entities.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}

	reference := uuid.New().String()
	auth, err := s.gateway.InitializeTransaction(ctx, user.Email, amount, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	txn := &entities.Transaction{
		UserID:           userID,
		Kind:             entities.TransactionKindCredit,
		Amount:           amount,
		Description:      "Wallet top-up",
		Status:           entities.TransactionStatusPending,
		PaymentReference: &reference,
	}
	if err := s.transactionRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record pending top-up: %w", err)
	}

	return &interfaces.TopupIntent{
		Reference:        reference,
		AuthorizationURL: auth.AuthorizationURL,
		AccessCode:       auth.AccessCode,
		Amount:           amount,
	}, nil
}

// ConfirmTopup verifies a gateway reference and credits the wallet.
// Confirming the same reference twice credits only once: the credit is
// gated on the pending->completed flip.
func (s *paymentService) ConfirmTopup(ctx context.Context, reference string) (*interfaces.TopupConfirmation, error) {
	txn, err := s.transactionRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, entities.ErrTransactionNotFound
	}

	if !txn.IsPending() {
		if txn.Status == entities.TransactionStatusCompleted {
			// Already confirmed; report the settled state without
			// crediting again
			user, err := s.userRepo.GetByID(ctx, txn.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to get user: %w", err)
			}
			if user == nil {
				return nil, entities.ErrUserNotFound
			}
			return &interfaces.TopupConfirmation{Transaction: txn, NewBalance: user.Balance}, nil
		}
		return nil, entities.ErrTransactionNotPending
	}

	verification, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}
	if verification.Status != "success" || !verification.Amount.Equal(txn.Amount) {
		log.WithFields(log.Fields{
			"reference": reference,
			"status":    verification.Status,
			"expected":  txn.Amount,
			"reported":  verification.Amount,
		}).Warn("Top-up verification failed")
		return nil, entities.ErrPaymentNotVerified
	}

	txn.Status = entities.TransactionStatusCompleted
	if err := s.transactionRepo.SettlePending(ctx, txn); err != nil {
		return nil, err
	}

	newBalance, err := s.userRepo.CreditBalance(ctx, txn.UserID, txn.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit top-up: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          txn.UserID,
		TransactionID:   txn.ID,
		TransactionKind: txn.Kind,
		Amount:          txn.Amount,
		OldBalance:      newBalance.Sub(txn.Amount),
		NewBalance:      newBalance,
		Description:     txn.Description,
	}); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	log.WithFields(log.Fields{
		"userID":    txn.UserID,
		"reference": reference,
		"amount":    txn.Amount,
	}).Info("Top-up confirmed")

	return &interfaces.TopupConfirmation{Transaction: txn, NewBalance: newBalance}, nil
}
