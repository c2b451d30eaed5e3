package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whogowin/domain/entities"
	"whogowin/repository/testutil"
)

func TestDrawRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	drawRepo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw(entities.DrawTypeDaily)
	err := drawRepo.Create(ctx, draw)
	require.NoError(t, err)
	require.NotZero(t, draw.ID)

	fetched, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, entities.DrawTypeDaily, fetched.Type)
	assert.Equal(t, entities.DrawStatusActive, fetched.Status)
	assert.True(t, fetched.TotalPot.IsZero())
	assert.Empty(t, fetched.FirstPlaceWinners)
	assert.Empty(t, fetched.ConsolationWinners)

	missing, err := drawRepo.GetByID(ctx, 99999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDrawRepository_AddTickets(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	drawRepo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw(entities.DrawTypeDaily)
	require.NoError(t, drawRepo.Create(ctx, draw))

	err := drawRepo.AddTickets(ctx, draw.ID, decimal.NewFromInt(250), 2)
	require.NoError(t, err)
	err = drawRepo.AddTickets(ctx, draw.ID, decimal.NewFromInt(100), 1)
	require.NoError(t, err)

	fetched, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.True(t, fetched.TotalPot.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, int64(3), fetched.TotalTickets)
}

func TestDrawRepository_Settle_OnlyOnce(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	drawRepo := NewDrawRepository(testDB.DB)

	draw := testutil.CreateTestDraw(entities.DrawTypeWeekly)
	require.NoError(t, drawRepo.Create(ctx, draw))
	require.NoError(t, drawRepo.AddTickets(ctx, draw.ID, decimal.NewFromInt(1000), 10))

	draw, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)

	winners := []entities.Winner{{UserID: 1, Name: "Ada", TicketID: 5, MatchCount: 5, PrizeAmount: decimal.NewFromInt(500)}}
	draw.Complete([]int32{3, 9, 14, 21, 28}, winners, nil, decimal.NewFromInt(100))
	err = drawRepo.Settle(ctx, draw)
	require.NoError(t, err)

	fetched, err := drawRepo.GetByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.DrawStatusCompleted, fetched.Status)
	assert.Equal(t, []int32{3, 9, 14, 21, 28}, fetched.WinningNumbers)
	require.Len(t, fetched.FirstPlaceWinners, 1)
	assert.Equal(t, "Ada", fetched.FirstPlaceWinners[0].Name)
	assert.True(t, fetched.FirstPlaceWinners[0].PrizeAmount.Equal(decimal.NewFromInt(500)))
	assert.True(t, fetched.PlatformEarnings.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, fetched.CompletedAt)

	// The status flip is conditional on the row still being active
	err = drawRepo.Settle(ctx, draw)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)

	// A settled draw can no longer take purchases
	err = drawRepo.AddTickets(ctx, draw.ID, decimal.NewFromInt(100), 1)
	assert.ErrorIs(t, err, entities.ErrDrawNotActive)
}

func TestDrawRepository_GetExpiredActiveDraws(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	drawRepo := NewDrawRepository(testDB.DB)
	now := time.Now().UTC()

	expired := testutil.CreateTestDraw(entities.DrawTypeDaily)
	expired.StartTime = now.Add(-2 * time.Hour)
	expired.EndTime = now.Add(-time.Minute)
	require.NoError(t, drawRepo.Create(ctx, expired))

	open := testutil.CreateTestDraw(entities.DrawTypeWeekly)
	require.NoError(t, drawRepo.Create(ctx, open))

	draws, err := drawRepo.GetExpiredActiveDraws(ctx, now)
	require.NoError(t, err)
	require.Len(t, draws, 1)
	assert.Equal(t, expired.ID, draws[0].ID)

	active, err := drawRepo.GetActiveDraws(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestDrawRepository_FindActiveByTypeSince(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	drawRepo := NewDrawRepository(testDB.DB)
	now := time.Now().UTC()
	periodStart := now.Add(-2 * time.Hour)

	// No daily draw in the period yet
	found, err := drawRepo.FindActiveByTypeSince(ctx, entities.DrawTypeDaily, periodStart)
	require.NoError(t, err)
	assert.Nil(t, found)

	draw := testutil.CreateTestDraw(entities.DrawTypeDaily)
	require.NoError(t, drawRepo.Create(ctx, draw))

	found, err = drawRepo.FindActiveByTypeSince(ctx, entities.DrawTypeDaily, periodStart)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, draw.ID, found.ID)

	// Draws of another type or from before the period do not match
	found, err = drawRepo.FindActiveByTypeSince(ctx, entities.DrawTypeWeekly, periodStart)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = drawRepo.FindActiveByTypeSince(ctx, entities.DrawTypeDaily, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, found)
}
