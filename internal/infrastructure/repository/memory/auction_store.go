package memory

import (
	"context"
	"fmt"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
)

// RoundRepository is a view over the shared store implementing
// auction.RoundRepository.
type RoundRepository struct{ s *Store }

func (s *Store) Rounds() *RoundRepository { return &RoundRepository{s: s} }

func (r *RoundRepository) GetByID(_ context.Context, roundID string) (auction.Round, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	round, ok := r.s.rounds[roundID]
	if !ok {
		return auction.Round{}, false, nil
	}

	return round, true, nil
}

func (r *RoundRepository) ListExpiredActive(_ context.Context) ([]auction.Round, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	now := r.s.now().UTC()
	var out []auction.Round
	for _, round := range r.s.rounds {
		if round.Status == auction.RoundStatusActive && !now.Before(round.EndTime) {
			out = append(out, round)
		}
	}

	return out, nil
}

func (r *RoundRepository) TransitionStatus(_ context.Context, roundID string, from, to auction.RoundStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	round, ok := r.s.rounds[roundID]
	if !ok {
		return fmt.Errorf("round %s not found", roundID)
	}
	if round.Status != from {
		return fmt.Errorf("%w: round=%s status=%s expected=%s", auction.ErrStaleState, roundID, round.Status, from)
	}

	round.Status = to
	round.UpdatedAt = r.s.now().UTC()
	r.s.rounds[roundID] = round
	return nil
}

// BidRepository is a view over the shared store implementing
// auction.BidRepository.
type BidRepository struct{ s *Store }

func (s *Store) Bids() *BidRepository { return &BidRepository{s: s} }

func (r *BidRepository) Create(_ context.Context, bid auction.Bid, maxBidsPerTeam int) (auction.Bid, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.bids {
		if existing.RoundID == bid.RoundID && existing.TeamID == bid.TeamID && existing.Nonce == bid.Nonce {
			return existing, true, nil
		}
	}

	active := 0
	for _, existing := range r.s.bids {
		if existing.RoundID == bid.RoundID && existing.TeamID == bid.TeamID && existing.Status == auction.BidStatusActive {
			active++
		}
	}
	if active >= maxBidsPerTeam {
		return auction.Bid{}, false, fmt.Errorf("%w: round=%s limit=%d", auction.ErrBidLimitExceeded, bid.RoundID, maxBidsPerTeam)
	}

	round, ok := r.s.rounds[bid.RoundID]
	if !ok {
		return auction.Bid{}, false, fmt.Errorf("round %s not found", bid.RoundID)
	}
	if teamBudget, ok := r.s.budgets[budgetKey(bid.TeamID, round.Season)]; ok {
		committed := r.s.sumActiveCeilingsLocked(round.Season, bid.TeamID)
		if bid.DeclaredCeiling > teamBudget.Available()-committed {
			return auction.Bid{}, false, fmt.Errorf("%w: ceiling=%d available=%d committed=%d",
				budget.ErrInsufficientFunds, bid.DeclaredCeiling, teamBudget.Available(), committed)
		}
	}

	r.s.bids[bid.ID] = bid
	return bid, false, nil
}

func (r *BidRepository) GetByID(_ context.Context, bidID string) (auction.Bid, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bid, ok := r.s.bids[bidID]
	if !ok {
		return auction.Bid{}, false, nil
	}

	return bid, true, nil
}

func (r *BidRepository) ListByRound(_ context.Context, roundID string) ([]auction.Bid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []auction.Bid
	for _, bid := range r.s.bids {
		if bid.RoundID == roundID {
			out = append(out, bid)
		}
	}

	return out, nil
}

func (r *BidRepository) CountActiveByRoundAndTeam(_ context.Context, roundID, teamID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, bid := range r.s.bids {
		if bid.RoundID == roundID && bid.TeamID == teamID && bid.Status == auction.BidStatusActive {
			n++
		}
	}

	return n, nil
}

func (r *BidRepository) SumActiveByTeam(_ context.Context, season, teamID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.sumActiveCeilingsLocked(season, teamID), nil
}

func (r *BidRepository) UpdateStatuses(_ context.Context, bidIDs []string, status auction.BidStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range bidIDs {
		bid, ok := r.s.bids[id]
		if !ok {
			return fmt.Errorf("bid %s not found", id)
		}
		bid.Status = status
		r.s.bids[id] = bid
	}

	return nil
}

// BudgetRepository is a view over the shared store implementing
// budget.Repository.
type BudgetRepository struct{ s *Store }

func (s *Store) Budgets() *BudgetRepository { return &BudgetRepository{s: s} }

func (r *BudgetRepository) GetByTeamAndSeason(_ context.Context, teamID, season string) (budget.TeamBudget, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.budgets[budgetKey(teamID, season)]
	if !ok {
		return budget.TeamBudget{}, false, nil
	}

	return b, true, nil
}

func (s *Store) sumActiveCeilingsLocked(season, teamID string) int64 {
	var total int64
	for _, bid := range s.bids {
		if bid.TeamID != teamID || bid.Status != auction.BidStatusActive {
			continue
		}
		round, ok := s.rounds[bid.RoundID]
		if !ok || round.Season != season {
			continue
		}
		total += bid.DeclaredCeiling
	}

	return total
}
