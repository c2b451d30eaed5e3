package testutil

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(email, name string) *entities.User {
	return &entities.User{
		Email:        email,
		Name:         name,
		ReferralCode: fmt.Sprintf("REF-%s", name),
		IsActive:     true,
		Balance:      decimal.NewFromInt(1000),
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(email, name string, balance decimal.Decimal) *entities.User {
	user := CreateTestUser(email, name)
	user.Balance = balance
	return user
}

// CreateTestDraw creates an active draw with a sales window around now
func CreateTestDraw(drawType entities.DrawType) *entities.Draw {
	now := time.Now().UTC()
	return &entities.Draw{
		Type:      drawType,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		TotalPot:  decimal.Zero,
		Status:    entities.DrawStatusActive,
	}
}

// CreateTestTicket creates an active ticket for the given user and draw
func CreateTestTicket(userID int64, draw *entities.Draw, numbers []int32) *entities.Ticket {
	return &entities.Ticket{
		UserID:          userID,
		DrawID:          draw.ID,
		DrawType:        draw.Type,
		Price:           decimal.NewFromInt(100),
		SelectedNumbers: numbers,
		Status:          entities.TicketStatusActive,
	}
}

// CreateTestTransaction creates a completed credit transaction
func CreateTestTransaction(userID int64, amount decimal.Decimal) *entities.Transaction {
	return &entities.Transaction{
		UserID:      userID,
		Kind:        entities.TransactionKindCredit,
		Amount:      amount,
		Description: "test credit",
		Status:      entities.TransactionStatusCompleted,
	}
}
