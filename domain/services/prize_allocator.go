package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"

	"github.com/shopspring/decimal"

	"whogowin/domain/entities"
)

// Prize tier rates as fractions of the pot. The remaining 10% is the
// platform cut; tiers left without winners are retained by the platform
// rather than redistributed.
var (
	platformCutRate = decimal.NewFromFloat(0.10)

	tierRates = map[int]decimal.Decimal{
		5: decimal.NewFromFloat(0.50),
		4: decimal.NewFromFloat(0.20),
		3: decimal.NewFromFloat(0.15),
		2: decimal.NewFromFloat(0.05),
	}
)

// TicketOutcome is the settlement result for one ticket, parallel to
// the ticket slice passed to Allocate
type TicketOutcome struct {
	MatchCount int
	Prize      decimal.Decimal
	Won        bool
}

// PrizeAllocation is the full money split of one settled draw
type PrizeAllocation struct {
	Outcomes           []TicketOutcome
	FirstPlaceWinners  []entities.Winner
	ConsolationWinners []entities.Winner
	TotalPayouts       decimal.Decimal
	PlatformCut        decimal.Decimal
}

// DrawWinningNumbers generates the winning combination: unique numbers
// in the pickable range, sorted ascending, from a cryptographic source.
func DrawWinningNumbers() ([]int32, error) {
	poolSize := int64(entities.MaxPickableNum - entities.MinPickableNum + 1)
	drawn := make(map[int32]struct{}, entities.NumbersPerDraw)
	numbers := make([]int32, 0, entities.NumbersPerDraw)

	for len(numbers) < entities.NumbersPerDraw {
		n, err := rand.Int(rand.Reader, big.NewInt(poolSize))
		if err != nil {
			return nil, fmt.Errorf("failed to generate winning number: %w", err)
		}
		num := int32(n.Int64()) + entities.MinPickableNum
		if _, taken := drawn[num]; taken {
			continue
		}
		drawn[num] = struct{}{}
		numbers = append(numbers, num)
	}

	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })
	return numbers, nil
}

// AllocatePrizes splits a pot across the winning tickets. Each tier's
// pool is shared equally by that tier's tickets, with per-ticket prizes
// rounded down to the cent so a tier never pays out more than its pool.
// names maps user IDs to display names for the winner summaries.
func AllocatePrizes(pot decimal.Decimal, tickets []*entities.Ticket, winningNumbers []int32, names map[int64]string) *PrizeAllocation {
	alloc := &PrizeAllocation{
		Outcomes:           make([]TicketOutcome, len(tickets)),
		FirstPlaceWinners:  []entities.Winner{},
		ConsolationWinners: []entities.Winner{},
		TotalPayouts:       decimal.Zero,
		PlatformCut:        pot.Mul(platformCutRate).Round(2),
	}

	// Group ticket indexes by match count
	tiers := make(map[int][]int)
	for i, ticket := range tickets {
		matches := ticket.MatchesAgainst(winningNumbers)
		alloc.Outcomes[i] = TicketOutcome{MatchCount: matches}
		if _, winning := tierRates[matches]; winning {
			tiers[matches] = append(tiers[matches], i)
		}
	}

	for matches, indexes := range tiers {
		tierPool := pot.Mul(tierRates[matches])
		perTicket := tierPool.Div(decimal.NewFromInt(int64(len(indexes)))).RoundDown(2)

		for _, i := range indexes {
			ticket := tickets[i]
			alloc.Outcomes[i].Prize = perTicket
			alloc.Outcomes[i].Won = true
			alloc.TotalPayouts = alloc.TotalPayouts.Add(perTicket)

			winner := entities.Winner{
				UserID:      ticket.UserID,
				Name:        names[ticket.UserID],
				TicketID:    ticket.ID,
				MatchCount:  matches,
				PrizeAmount: perTicket,
			}
			if matches == entities.NumbersPerDraw {
				alloc.FirstPlaceWinners = append(alloc.FirstPlaceWinners, winner)
			} else {
				alloc.ConsolationWinners = append(alloc.ConsolationWinners, winner)
			}
		}
	}

	sortWinners(alloc.FirstPlaceWinners)
	sortWinners(alloc.ConsolationWinners)
	return alloc
}

// sortWinners orders winner summaries by match count descending, then
// ticket ID for a stable record
func sortWinners(winners []entities.Winner) {
	sort.Slice(winners, func(i, j int) bool {
		if winners[i].MatchCount != winners[j].MatchCount {
			return winners[i].MatchCount > winners[j].MatchCount
		}
		return winners[i].TicketID < winners[j].TicketID
	})
}

// ValidateNumberSelection checks a player's pick: exactly the required
// count of unique numbers inside the pickable range
func ValidateNumberSelection(numbers []int32) error {
	if len(numbers) != entities.NumbersPerDraw {
		return entities.ErrInvalidNumberSelection
	}
	seen := make(map[int32]struct{}, len(numbers))
	for _, n := range numbers {
		if n < entities.MinPickableNum || n > entities.MaxPickableNum {
			return entities.ErrInvalidNumberSelection
		}
		if _, dup := seen[n]; dup {
			return entities.ErrInvalidNumberSelection
		}
		seen[n] = struct{}{}
	}
	return nil
}
