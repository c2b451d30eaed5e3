package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whogowin/domain/entities"
	"whogowin/domain/interfaces"
	"whogowin/domain/testhelpers"
)

var testMaxTopup = decimal.NewFromInt(100000)

func setupPaymentService() (interfaces.PaymentService, *testhelpers.MockUserRepository, *testhelpers.MockTransactionRepository, *testhelpers.MockEventPublisher, *testhelpers.MockPaymentGateway) {
	userRepo := new(testhelpers.MockUserRepository)
	txnRepo := new(testhelpers.MockTransactionRepository)
	publisher := new(testhelpers.MockEventPublisher)
	gateway := new(testhelpers.MockPaymentGateway)
	service := NewPaymentService(userRepo, txnRepo, publisher, gateway, testMaxTopup)
	return service, userRepo, txnRepo, publisher, gateway
}

func pendingTopup(reference string, amount decimal.Decimal) *entities.Transaction {
	return &entities.Transaction{
		ID:               42,
		UserID:           1,
		Kind:             entities.TransactionKindCredit,
		Amount:           amount,
		Description:      "Wallet top-up",
		Status:           entities.TransactionStatusPending,
		PaymentReference: &reference,
	}
}

func TestPaymentService_InitiateTopup(t *testing.T) {
	t.Parallel()

	service, userRepo, txnRepo, _, gateway := setupPaymentService()

	user := &entities.User{ID: 1, Email: "ada@example.com", Name: "Ada"}
	amount := decimal.NewFromInt(500)

	userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
	gateway.On("InitializeTransaction", mock.Anything, "ada@example.com", amount, mock.AnythingOfType("string")).
		Return(&interfaces.PaymentAuthorization{
			AuthorizationURL: "https://checkout.paystack.com/abc123",
			AccessCode:       "abc123",
		}, nil)
	txnRepo.On("Create", mock.Anything, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.Status == entities.TransactionStatusPending &&
			txn.Kind == entities.TransactionKindCredit &&
			txn.Amount.Equal(amount) &&
			txn.PaymentReference != nil
	})).Return(nil)

	intent, err := service.InitiateTopup(context.Background(), 1, amount)
	require.NoError(t, err)

	assert.NotEmpty(t, intent.Reference)
	assert.Equal(t, "https://checkout.paystack.com/abc123", intent.AuthorizationURL)
	assert.True(t, intent.Amount.Equal(amount))
	txnRepo.AssertExpectations(t)
}

func TestPaymentService_InitiateTopup_InvalidAmount(t *testing.T) {
	t.Parallel()

	service, userRepo, _, _, gateway := setupPaymentService()

	_, err := service.InitiateTopup(context.Background(), 1, decimal.Zero)
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = service.InitiateTopup(context.Background(), 1, decimal.NewFromInt(-50))
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = service.InitiateTopup(context.Background(), 1, testMaxTopup.Add(decimal.NewFromInt(1)))
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "InitializeTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_InitiateTopup_UserNotFound(t *testing.T) {
	t.Parallel()

	service, userRepo, _, _, gateway := setupPaymentService()

	userRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := service.InitiateTopup(context.Background(), 99, decimal.NewFromInt(500))
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
	gateway.AssertNotCalled(t, "InitializeTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmTopup(t *testing.T) {
	t.Parallel()

	service, userRepo, txnRepo, publisher, gateway := setupPaymentService()

	amount := decimal.NewFromInt(500)
	txn := pendingTopup("ref-1", amount)

	txnRepo.On("GetByReference", mock.Anything, "ref-1").Return(txn, nil)
	gateway.On("VerifyTransaction", mock.Anything, "ref-1").
		Return(&interfaces.PaymentVerification{Reference: "ref-1", Status: "success", Amount: amount}, nil)
	txnRepo.On("SettlePending", mock.Anything, txn).Return(nil)
	userRepo.On("CreditBalance", mock.Anything, int64(1), amount).Return(decimal.NewFromInt(1500), nil)
	publisher.On("Publish", mock.Anything).Return(nil)

	confirmation, err := service.ConfirmTopup(context.Background(), "ref-1")
	require.NoError(t, err)

	assert.Equal(t, entities.TransactionStatusCompleted, confirmation.Transaction.Status)
	assert.True(t, confirmation.NewBalance.Equal(decimal.NewFromInt(1500)))
	txnRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestPaymentService_ConfirmTopup_Idempotent(t *testing.T) {
	t.Parallel()

	service, userRepo, txnRepo, _, gateway := setupPaymentService()

	amount := decimal.NewFromInt(500)
	completed := pendingTopup("ref-1", amount)
	completed.Status = entities.TransactionStatusCompleted
	user := &entities.User{ID: 1, Balance: decimal.NewFromInt(1500)}

	txnRepo.On("GetByReference", mock.Anything, "ref-1").Return(completed, nil)
	userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)

	// A second confirmation reports the settled state without crediting
	confirmation, err := service.ConfirmTopup(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.True(t, confirmation.NewBalance.Equal(decimal.NewFromInt(1500)))

	gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmTopup_VerificationFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		verification *interfaces.PaymentVerification
	}{
		{
			name:         "gateway reports failure",
			verification: &interfaces.PaymentVerification{Reference: "ref-1", Status: "failed", Amount: decimal.NewFromInt(500)},
		},
		{
			name:         "amount mismatch",
			verification: &interfaces.PaymentVerification{Reference: "ref-1", Status: "success", Amount: decimal.NewFromInt(100)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, userRepo, txnRepo, _, gateway := setupPaymentService()

			txn := pendingTopup("ref-1", decimal.NewFromInt(500))
			txnRepo.On("GetByReference", mock.Anything, "ref-1").Return(txn, nil)
			gateway.On("VerifyTransaction", mock.Anything, "ref-1").Return(tt.verification, nil)

			_, err := service.ConfirmTopup(context.Background(), "ref-1")
			assert.ErrorIs(t, err, entities.ErrPaymentNotVerified)

			txnRepo.AssertNotCalled(t, "SettlePending", mock.Anything, mock.Anything)
			userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestPaymentService_ConfirmTopup_UnknownReference(t *testing.T) {
	t.Parallel()

	service, _, txnRepo, _, _ := setupPaymentService()

	txnRepo.On("GetByReference", mock.Anything, "missing").Return(nil, nil)

	_, err := service.ConfirmTopup(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrTransactionNotFound)
}

func TestPaymentService_ConfirmTopup_RejectedReference(t *testing.T) {
	t.Parallel()

	service, _, txnRepo, _, gateway := setupPaymentService()

	rejected := pendingTopup("ref-1", decimal.NewFromInt(500))
	rejected.Status = entities.TransactionStatusFailed
	txnRepo.On("GetByReference", mock.Anything, "ref-1").Return(rejected, nil)

	_, err := service.ConfirmTopup(context.Background(), "ref-1")
	assert.ErrorIs(t, err, entities.ErrTransactionNotPending)
	gateway.AssertNotCalled(t, "VerifyTransaction", mock.Anything, mock.Anything)
}
