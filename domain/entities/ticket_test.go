package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicket_MatchesAgainst(t *testing.T) {
	winning := []int32{1, 7, 15, 22, 30}

	tests := []struct {
		name     string
		selected []int32
		want     int
	}{
		{
			name:     "all five match",
			selected: []int32{1, 7, 15, 22, 30},
			want:     5,
		},
		{
			name:     "partial match",
			selected: []int32{1, 7, 15, 9, 11},
			want:     3,
		},
		{
			name:     "no match",
			selected: []int32{2, 3, 4, 5, 6},
			want:     0,
		},
		{
			name:     "duplicate selections count once",
			selected: []int32{7, 7, 7, 2, 3},
			want:     1,
		},
		{
			name:     "order does not matter",
			selected: []int32{30, 22, 15, 7, 1},
			want:     5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &Ticket{SelectedNumbers: tt.selected}
			assert.Equal(t, tt.want, ticket.MatchesAgainst(winning))
		})
	}
}

func TestTicket_SettleOutcome(t *testing.T) {
	t.Run("winning ticket", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusActive}
		prize := decimal.NewFromFloat(66.66)

		ticket.SettleOutcome(3, prize, true)

		assert.Equal(t, TicketStatusCompleted, ticket.Status)
		assert.True(t, ticket.IsWinner)
		require.NotNil(t, ticket.MatchCount)
		assert.Equal(t, int32(3), *ticket.MatchCount)
		require.NotNil(t, ticket.PrizeAmount)
		assert.True(t, ticket.PrizeAmount.Equal(prize))
	})

	t.Run("losing ticket carries no prize", func(t *testing.T) {
		ticket := &Ticket{Status: TicketStatusActive}

		ticket.SettleOutcome(1, decimal.Zero, false)

		assert.Equal(t, TicketStatusCompleted, ticket.Status)
		assert.False(t, ticket.IsWinner)
		require.NotNil(t, ticket.MatchCount)
		assert.Equal(t, int32(1), *ticket.MatchCount)
		assert.Nil(t, ticket.PrizeAmount)
	})
}

func TestTicket_MarkRefunded(t *testing.T) {
	ticket := &Ticket{Status: TicketStatusActive}

	ticket.MarkRefunded()

	assert.Equal(t, TicketStatusCancelled, ticket.Status)
	assert.True(t, ticket.Refunded)
}
