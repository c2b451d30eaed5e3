package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
	"whogowin/domain/events"
	"whogowin/domain/interfaces"
	"whogowin/domain/utils"

	log "github.com/sirupsen/logrus"
)

// walletService implements business logic for wallet operations
type walletService struct {
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.TransactionRepository
	eventPublisher  interfaces.EventPublisher
}

// NewWalletService creates a new wallet service
func NewWalletService(
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.TransactionRepository,
	eventPublisher interfaces.EventPublisher,
) interfaces.WalletService {
	return &walletService{
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		eventPublisher:  eventPublisher,
	}
}

// Credit adds funds to a user's wallet
func (s *walletService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*entities.Transaction, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	newBalance, err := s.userRepo.CreditBalance(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	txn := &entities.Transaction{
		UserID:      userID,
		Kind:        entities.TransactionKindCredit,
		Amount:      amount,
		Description: description,
		Status:      entities.TransactionStatusCompleted,
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Sub(amount), newBalance); err != nil {
		return nil, err
	}

	return txn, nil
}

// Debit removes funds from a user's wallet
func (s *walletService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (*entities.Transaction, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	newBalance, err := s.userRepo.DebitBalance(ctx, userID, amount)
	if err != nil {
		return nil, err
	}

	txn := &entities.Transaction{
		UserID:      userID,
		Kind:        entities.TransactionKindDebit,
		Amount:      amount,
		Description: description,
		Status:      entities.TransactionStatusCompleted,
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, newBalance.Add(amount), newBalance); err != nil {
		return nil, err
	}

	return txn, nil
}

// Adjust applies a signed admin correction to a user's wallet. Positive
// amounts credit, negative amounts debit; the acting admin is recorded
// on the ledger entry.
func (s *walletService) Adjust(ctx context.Context, userID int64, amount decimal.Decimal, reason string, actorID int64) (*entities.Transaction, error) {
	if amount.IsZero() {
		return nil, entities.ErrZeroAdjustment
	}

	kind := entities.TransactionKindCredit
	magnitude := amount
	var newBalance decimal.Decimal
	var err error

	if amount.IsNegative() {
		kind = entities.TransactionKindDebit
		magnitude = amount.Neg()
		newBalance, err = s.userRepo.DebitBalance(ctx, userID, magnitude)
	} else {
		newBalance, err = s.userRepo.CreditBalance(ctx, userID, magnitude)
	}
	if err != nil {
		return nil, err
	}

	oldBalance := newBalance.Sub(amount)
	txn := &entities.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      magnitude,
		Description: fmt.Sprintf("Admin adjustment: %s", reason),
		Status:      entities.TransactionStatusCompleted,
		ActorID:     &actorID,
	}
	if err := utils.RecordLedgerEntry(ctx, s.transactionRepo, s.eventPublisher, txn, oldBalance, newBalance); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"actorID": actorID,
		"amount":  amount,
	}).Info("Applied admin balance adjustment")

	return txn, nil
}

// RequestWithdrawal records the intent to withdraw as a pending
// transaction. No balance moves here; funds leave the wallet only when
// an admin approves the request.
func (s *walletService) RequestWithdrawal(ctx context.Context, userID int64, amount decimal.Decimal, details entities.PayoutDetails) (*entities.Transaction, error) {
	if !amount.IsPositive() {
		return nil, entities.ErrInvalidAmount
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, entities.ErrUserNotFound
	}
	if user.Balance.LessThan(amount) {
		return nil, entities.ErrInsufficientBalance
	}

	txn := &entities.Transaction{
		UserID:            userID,
		Kind:              entities.TransactionKindDebit,
		Amount:            amount,
		Description:       "Withdrawal request",
		Status:            entities.TransactionStatusPending,
		WithdrawalRequest: true,
		BankName:          &details.BankName,
		AccountNumber:     &details.AccountNumber,
		AccountName:       &details.AccountName,
	}
	if err := s.transactionRepo.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal request: %w", err)
	}

	return txn, nil
}

// ApproveWithdrawal debits the user and settles the pending withdrawal
// as paid out. The debit is conditional on the balance still covering
// the amount at approval time; the enclosing transaction keeps the
// debit and the status flip atomic.
func (s *walletService) ApproveWithdrawal(ctx context.Context, transactionID int64, actorID int64) (*entities.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, entities.ErrTransactionNotFound
	}
	if !txn.IsPendingWithdrawal() {
		return nil, entities.ErrTransactionNotPending
	}

	newBalance, err := s.userRepo.DebitBalance(ctx, txn.UserID, txn.Amount)
	if err != nil {
		return nil, err
	}

	txn.Approve(actorID)
	if err := s.transactionRepo.SettlePending(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to settle withdrawal: %w", err)
	}

	if err := s.eventPublisher.Publish(events.BalanceChangeEvent{
		UserID:          txn.UserID,
		TransactionID:   txn.ID,
		TransactionKind: txn.Kind,
		Amount:          txn.Amount,
		OldBalance:      newBalance.Add(txn.Amount),
		NewBalance:      newBalance,
		Description:     txn.Description,
	}); err != nil {
		log.WithError(err).Error("Failed to publish balance change event")
	}

	if err := s.eventPublisher.Publish(events.NotificationEvent{
		UserID:           txn.UserID,
		Title:            "Withdrawal Approved",
		Body:             fmt.Sprintf("Your withdrawal of %s has been approved", txn.Amount.StringFixed(2)),
		NotificationType: "withdrawal_approved",
	}); err != nil {
		log.WithError(err).Error("Failed to publish withdrawal notification")
	}

	return txn, nil
}

// RejectWithdrawal settles a pending withdrawal as failed. The balance
// never moved, so rejection is a pure status flip.
func (s *walletService) RejectWithdrawal(ctx context.Context, transactionID int64, actorID int64, reason string) (*entities.Transaction, error) {
	txn, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if txn == nil {
		return nil, entities.ErrTransactionNotFound
	}
	if !txn.IsPendingWithdrawal() {
		return nil, entities.ErrTransactionNotPending
	}

	txn.Reject(actorID, reason)
	if err := s.transactionRepo.SettlePending(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to settle withdrawal: %w", err)
	}

	if err := s.eventPublisher.Publish(events.NotificationEvent{
		UserID:           txn.UserID,
		Title:            "Withdrawal Rejected",
		Body:             fmt.Sprintf("Your withdrawal of %s was rejected: %s", txn.Amount.StringFixed(2), reason),
		NotificationType: "withdrawal_rejected",
	}); err != nil {
		log.WithError(err).Error("Failed to publish withdrawal notification")
	}

	return txn, nil
}

// GetBalance returns a user's current wallet balance
func (s *walletService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return decimal.Zero, entities.ErrUserNotFound
	}
	return user.Balance, nil
}

// GetHistory returns a user's most recent ledger entries
func (s *walletService) GetHistory(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	return s.transactionRepo.GetByUser(ctx, userID, limit)
}
