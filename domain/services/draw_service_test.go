package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"whogowin/domain/entities"
	"whogowin/domain/interfaces"
	"whogowin/domain/testhelpers"
)

var testBasePrice = decimal.NewFromInt(100)

type drawServiceMocks struct {
	drawRepo   *testhelpers.MockDrawRepository
	ticketRepo *testhelpers.MockTicketRepository
	userRepo   *testhelpers.MockUserRepository
	txnRepo    *testhelpers.MockTransactionRepository
	walletRepo *testhelpers.MockPlatformWalletRepository
	publisher  *testhelpers.MockEventPublisher
}

func setupDrawService() (interfaces.DrawService, *drawServiceMocks) {
	m := &drawServiceMocks{
		drawRepo:   new(testhelpers.MockDrawRepository),
		ticketRepo: new(testhelpers.MockTicketRepository),
		userRepo:   new(testhelpers.MockUserRepository),
		txnRepo:    new(testhelpers.MockTransactionRepository),
		walletRepo: new(testhelpers.MockPlatformWalletRepository),
		publisher:  new(testhelpers.MockEventPublisher),
	}
	service := NewDrawService(m.drawRepo, m.ticketRepo, m.userRepo, m.txnRepo, m.walletRepo, m.publisher, testBasePrice)
	return service, m
}

func activeDraw(id int64, pot decimal.Decimal) *entities.Draw {
	now := time.Now().UTC()
	return &entities.Draw{
		ID:        id,
		Type:      entities.DrawTypeDaily,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		TotalPot:  pot,
		Status:    entities.DrawStatusActive,
	}
}

func TestDrawService_PurchaseTicket(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.Zero)
	user := &entities.User{ID: 1, Name: "Ada", Balance: decimal.NewFromInt(1000)}
	numbers := []int32{1, 7, 15, 22, 30}
	price := decimal.NewFromInt(250)

	m.drawRepo.On("GetByID", mock.Anything, int64(7)).Return(draw, nil)
	m.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
	m.userRepo.On("DebitBalance", mock.Anything, int64(1), price).Return(decimal.NewFromInt(750), nil)
	m.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.ticketRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]*entities.Ticket")).Return(nil)
	m.drawRepo.On("AddTickets", mock.Anything, int64(7), price, int64(2)).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := service.PurchaseTicket(context.Background(), 1, 7, numbers, price)
	require.NoError(t, err)

	// 250 at a base price of 100 buys two tickets; the full 250 is
	// debited and lands in the pot
	require.Len(t, result.Tickets, 2)
	for _, ticket := range result.Tickets {
		assert.True(t, ticket.Price.Equal(testBasePrice))
		assert.Equal(t, numbers, ticket.SelectedNumbers)
		assert.Equal(t, entities.TicketStatusActive, ticket.Status)
	}
	assert.True(t, result.Charged.Equal(price))
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(750)))
	m.drawRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}

func TestDrawService_PurchaseTicket_Validation(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	// Bad number selection is rejected before anything is read
	_, err := service.PurchaseTicket(context.Background(), 1, 7, []int32{1, 2, 3}, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, entities.ErrInvalidNumberSelection)

	// Price below the base buys zero tickets
	_, err = service.PurchaseTicket(context.Background(), 1, 7, []int32{1, 2, 3, 4, 5}, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, entities.ErrInvalidTicketPrice)

	m.drawRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	m.userRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_PurchaseTicket_DrawEnded(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.Zero)
	draw.EndTime = time.Now().UTC().Add(-time.Minute)
	m.drawRepo.On("GetByID", mock.Anything, int64(7)).Return(draw, nil)

	_, err := service.PurchaseTicket(context.Background(), 1, 7, []int32{1, 2, 3, 4, 5}, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, entities.ErrDrawEnded)

	m.userRepo.AssertNotCalled(t, "DebitBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_PurchaseTicket_RacingSettlementAborts(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.Zero)
	user := &entities.User{ID: 1, Balance: decimal.NewFromInt(1000)}
	price := decimal.NewFromInt(100)

	m.drawRepo.On("GetByID", mock.Anything, int64(7)).Return(draw, nil)
	m.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil)
	m.userRepo.On("DebitBalance", mock.Anything, int64(1), price).Return(decimal.NewFromInt(900), nil)
	m.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.ticketRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]*entities.Ticket")).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)
	// The draw was settled between the read and the pot increment
	m.drawRepo.On("AddTickets", mock.Anything, int64(7), price, int64(1)).Return(entities.ErrDrawNotActive)

	_, err := service.PurchaseTicket(context.Background(), 1, 7, []int32{1, 2, 3, 4, 5}, price)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)
}

func TestDrawService_SettleDraw_NoTickets(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.Zero)
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)
	m.ticketRepo.On("GetByDraw", mock.Anything, int64(7)).Return([]*entities.Ticket{}, nil)
	m.walletRepo.On("RecordSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.drawRepo.On("Settle", mock.Anything, draw).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := service.SettleDraw(context.Background(), 7)
	require.NoError(t, err)

	// An empty draw still completes, records numbers and pays nothing
	assert.Equal(t, entities.DrawStatusCompleted, result.Draw.Status)
	assert.Len(t, result.WinningNumbers, entities.NumbersPerDraw)
	assert.Empty(t, result.FirstPlaceWinners)
	assert.Empty(t, result.ConsolationWinners)
	assert.True(t, result.TotalPayouts.IsZero())
	assert.True(t, result.PlatformEarnings.IsZero())

	m.ticketRepo.AssertNotCalled(t, "UpdateOutcomes", mock.Anything, mock.Anything)
	m.userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_SettleDraw_MoneyConservation(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	pot := decimal.NewFromInt(1000)
	draw := activeDraw(7, pot)
	tickets := []*entities.Ticket{
		{ID: 1, UserID: 1, DrawID: 7, Price: testBasePrice, SelectedNumbers: []int32{1, 2, 3, 4, 5}, Status: entities.TicketStatusActive},
	}
	user := &entities.User{ID: 1, Name: "Ada", Balance: decimal.NewFromInt(100)}

	var earnings, payouts, retained decimal.Decimal
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)
	m.ticketRepo.On("GetByDraw", mock.Anything, int64(7)).Return(tickets, nil)
	m.ticketRepo.On("UpdateOutcomes", mock.Anything, tickets).Return(nil)
	m.walletRepo.On("RecordSettlement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			earnings = args.Get(1).(decimal.Decimal)
			payouts = args.Get(2).(decimal.Decimal)
			retained = args.Get(3).(decimal.Decimal)
		}).Return(nil)
	m.drawRepo.On("Settle", mock.Anything, draw).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)
	// Winner path depends on the random numbers drawn
	m.userRepo.On("GetByID", mock.Anything, int64(1)).Return(user, nil).Maybe()
	m.userRepo.On("CreditBalance", mock.Anything, int64(1), mock.Anything).Return(decimal.NewFromInt(600), nil).Maybe()
	m.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil).Maybe()

	result, err := service.SettleDraw(context.Background(), 7)
	require.NoError(t, err)

	// The cut is always 10% of the pot, and the pot fully splits into
	// payouts plus what the platform keeps
	assert.True(t, earnings.Equal(decimal.NewFromInt(100)), "earnings %s", earnings)
	assert.True(t, payouts.Add(retained).Equal(pot), "payouts %s retained %s", payouts, retained)
	assert.True(t, result.TotalPayouts.Equal(payouts))
	assert.Equal(t, entities.DrawStatusCompleted, result.Draw.Status)
	assert.True(t, result.Draw.PlatformEarnings.Equal(decimal.NewFromInt(100)))
}

func TestDrawService_SettleDraw_NotActive(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	completed := activeDraw(7, decimal.NewFromInt(500))
	completed.Status = entities.DrawStatusCompleted
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(completed, nil)
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(8)).Return(nil, nil)

	// Settling twice fails the second time
	_, err := service.SettleDraw(context.Background(), 7)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)

	_, err = service.SettleDraw(context.Background(), 8)
	assert.ErrorIs(t, err, entities.ErrDrawNotFound)

	m.ticketRepo.AssertNotCalled(t, "GetByDraw", mock.Anything, mock.Anything)
}

func TestDrawService_CancelDraw_RefundsPerUser(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.NewFromInt(300))
	tickets := []*entities.Ticket{
		{ID: 1, UserID: 1, DrawID: 7, Price: testBasePrice, Status: entities.TicketStatusActive},
		{ID: 2, UserID: 1, DrawID: 7, Price: testBasePrice, Status: entities.TicketStatusActive},
		{ID: 3, UserID: 2, DrawID: 7, Price: testBasePrice, Status: entities.TicketStatusActive},
	}

	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)
	m.ticketRepo.On("GetByDraw", mock.Anything, int64(7)).Return(tickets, nil)
	// One combined refund per user, not per ticket
	m.userRepo.On("CreditBalance", mock.Anything, int64(1), decimal.NewFromInt(200)).Return(decimal.NewFromInt(200), nil).Once()
	m.userRepo.On("CreditBalance", mock.Anything, int64(2), decimal.NewFromInt(100)).Return(decimal.NewFromInt(100), nil).Once()
	m.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.ticketRepo.On("RefundAllForDraw", mock.Anything, int64(7)).Return(nil)
	m.drawRepo.On("Settle", mock.Anything, draw).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := service.CancelDraw(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, entities.DrawStatusCancelled, result.Draw.Status)
	assert.Equal(t, int64(3), result.TicketsRefunded)
	assert.True(t, result.AmountRefunded.Equal(decimal.NewFromInt(300)))
	assert.True(t, result.Draw.TotalPot.IsZero())
	m.userRepo.AssertExpectations(t)
}

func TestDrawService_CancelDraw_NotActive(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	cancelled := activeDraw(7, decimal.Zero)
	cancelled.Status = entities.DrawStatusCancelled
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(cancelled, nil)

	_, err := service.CancelDraw(context.Background(), 7)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)
	m.userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_RefundTicket(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	draw := activeDraw(7, decimal.NewFromInt(500))
	draw.TotalTickets = 5
	ticket := &entities.Ticket{
		ID:       3,
		UserID:   1,
		DrawID:   7,
		DrawType: entities.DrawTypeDaily,
		Price:    testBasePrice,
		Status:   entities.TicketStatusActive,
	}

	m.ticketRepo.On("GetByID", mock.Anything, int64(3)).Return(ticket, nil)
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)
	m.ticketRepo.On("MarkRefunded", mock.Anything, int64(3)).Return(nil)
	m.drawRepo.On("AddTickets", mock.Anything, int64(7), testBasePrice.Neg(), int64(-1)).Return(nil)
	m.userRepo.On("CreditBalance", mock.Anything, int64(1), testBasePrice).Return(decimal.NewFromInt(600), nil)
	m.txnRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return(nil)

	result, err := service.RefundTicket(context.Background(), 3)
	require.NoError(t, err)

	// The price goes back to the user and comes out of the pot
	assert.True(t, result.AmountRefunded.Equal(testBasePrice))
	assert.True(t, result.NewBalance.Equal(decimal.NewFromInt(600)))
	assert.True(t, result.Draw.TotalPot.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, int64(4), result.Draw.TotalTickets)
	assert.Equal(t, entities.TicketStatusCancelled, result.Ticket.Status)
	assert.True(t, result.Ticket.Refunded)
	m.ticketRepo.AssertExpectations(t)
	m.drawRepo.AssertExpectations(t)
	m.userRepo.AssertExpectations(t)
}

func TestDrawService_RefundTicket_NotActive(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	settled := &entities.Ticket{
		ID:     3,
		UserID: 1,
		DrawID: 7,
		Price:  testBasePrice,
		Status: entities.TicketStatusCompleted,
	}
	m.ticketRepo.On("GetByID", mock.Anything, int64(3)).Return(settled, nil)

	_, err := service.RefundTicket(context.Background(), 3)
	assert.ErrorIs(t, err, entities.ErrTicketNotActive)

	m.ticketRepo.On("GetByID", mock.Anything, int64(4)).Return(nil, nil)
	_, err = service.RefundTicket(context.Background(), 4)
	assert.ErrorIs(t, err, entities.ErrTicketNotFound)

	m.userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_RefundTicket_DrawNotActive(t *testing.T) {
	t.Parallel()

	service, m := setupDrawService()

	ticket := &entities.Ticket{
		ID:     3,
		UserID: 1,
		DrawID: 7,
		Price:  testBasePrice,
		Status: entities.TicketStatusActive,
	}
	completed := activeDraw(7, decimal.NewFromInt(500))
	completed.Status = entities.DrawStatusCompleted

	m.ticketRepo.On("GetByID", mock.Anything, int64(3)).Return(ticket, nil)
	m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(completed, nil)

	_, err := service.RefundTicket(context.Background(), 3)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)

	m.ticketRepo.AssertNotCalled(t, "MarkRefunded", mock.Anything, mock.Anything)
	m.userRepo.AssertNotCalled(t, "CreditBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawService_CreateDraw_Validation(t *testing.T) {
	t.Parallel()

	service, _ := setupDrawService()
	now := time.Now().UTC()

	_, err := service.CreateDraw(context.Background(), "Hourly", now, now.Add(time.Hour))
	assert.ErrorIs(t, err, entities.ErrInvalidDrawType)

	_, err = service.CreateDraw(context.Background(), entities.DrawTypeDaily, now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, entities.ErrEndTimeNotFuture)
}

func TestDrawService_UpdateDraw(t *testing.T) {
	t.Parallel()

	t.Run("end time blocked once tickets sold", func(t *testing.T) {
		service, m := setupDrawService()

		draw := activeDraw(7, decimal.NewFromInt(100))
		draw.TotalTickets = 1
		m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)

		newEnd := time.Now().UTC().Add(2 * time.Hour)
		_, err := service.UpdateDraw(context.Background(), 7, interfaces.DrawUpdate{EndTime: &newEnd})
		assert.ErrorIs(t, err, entities.ErrTicketsSold)
	})

	t.Run("terminal draws are immutable", func(t *testing.T) {
		service, m := setupDrawService()

		draw := activeDraw(7, decimal.Zero)
		draw.Status = entities.DrawStatusCompleted
		m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)

		newEnd := time.Now().UTC().Add(2 * time.Hour)
		_, err := service.UpdateDraw(context.Background(), 7, interfaces.DrawUpdate{EndTime: &newEnd})
		assert.ErrorIs(t, err, entities.ErrDrawNotActive)
	})

	t.Run("valid end time edit persists", func(t *testing.T) {
		service, m := setupDrawService()

		draw := activeDraw(7, decimal.Zero)
		m.drawRepo.On("GetByIDForUpdate", mock.Anything, int64(7)).Return(draw, nil)
		m.drawRepo.On("UpdateSchedule", mock.Anything, draw).Return(nil)
		m.publisher.On("Publish", mock.Anything).Return(nil)

		newEnd := time.Now().UTC().Add(2 * time.Hour)
		updated, err := service.UpdateDraw(context.Background(), 7, interfaces.DrawUpdate{EndTime: &newEnd})
		require.NoError(t, err)
		assert.True(t, updated.EndTime.Equal(newEnd))
	})
}

func TestDrawService_EnsureScheduledDraws(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC) // a Wednesday

	t.Run("creates all three draws when none exist", func(t *testing.T) {
		service, m := setupDrawService()

		m.drawRepo.On("FindActiveByTypeSince", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		m.drawRepo.On("Create", mock.Anything, mock.AnythingOfType("*entities.Draw")).Return(nil)

		created, err := service.EnsureScheduledDraws(context.Background(), now)
		require.NoError(t, err)
		require.Len(t, created, 3)

		assert.Equal(t, entities.DrawTypeDaily, created[0].Type)
		assert.Equal(t, entities.DrawTypeWeekly, created[1].Type)
		assert.Equal(t, entities.DrawTypeMonthly, created[2].Type)
		for _, draw := range created {
			assert.True(t, draw.AutoCreated)
			assert.True(t, draw.EndTime.After(now))
			assert.Equal(t, entities.DrawStatusActive, draw.Status)
		}
	})

	t.Run("skips draws that already exist", func(t *testing.T) {
		service, m := setupDrawService()

		existing := activeDraw(1, decimal.Zero)
		m.drawRepo.On("FindActiveByTypeSince", mock.Anything, mock.Anything, mock.Anything).Return(existing, nil)

		created, err := service.EnsureScheduledDraws(context.Background(), now)
		require.NoError(t, err)
		assert.Empty(t, created)
		m.drawRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
