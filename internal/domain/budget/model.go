package budget

import (
	"context"
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned by conditional debits that would push a
// team's spend past its allocation.
var ErrInsufficientFunds = errors.New("insufficient budget")

// TeamBudget is a team's currency pool for one season. Spent only ever grows
// through conditional debits; Allocated is owned by league administration.
type TeamBudget struct {
	TeamID    string
	Season    string
	Allocated int64
	Spent     int64
}

func (b TeamBudget) Available() int64 {
	return b.Allocated - b.Spent
}

func (b TeamBudget) Validate() error {
	if b.TeamID == "" {
		return fmt.Errorf("budget team id is required")
	}
	if b.Season == "" {
		return fmt.Errorf("budget season is required")
	}
	if b.Allocated < 0 || b.Spent < 0 || b.Spent > b.Allocated {
		return fmt.Errorf("budget amounts are inconsistent: allocated=%d spent=%d", b.Allocated, b.Spent)
	}

	return nil
}

// Repository describes budget persistence. Debits are conditional decrements
// guarded by a re-read of the current balance inside the store transaction,
// never a write of a pre-computed balance.
type Repository interface {
	GetByTeamAndSeason(ctx context.Context, teamID, season string) (TeamBudget, bool, error)
}
