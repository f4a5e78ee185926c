package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
)

// OwnershipRepository is a view over the shared store implementing
// ownership.Repository. Finalize applies every step under the single store
// lock so either all of them land or none do.
type OwnershipRepository struct{ s *Store }

func (s *Store) Ownership() *OwnershipRepository { return &OwnershipRepository{s: s} }

func (r *OwnershipRepository) Finalize(_ context.Context, req ownership.FinalizeRequest) (ownership.Record, bool, error) {
	if err := req.Validate(); err != nil {
		return ownership.Record{}, false, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if existing, ok := r.s.owned[req.PlayerID]; ok {
		if existing.TeamID == req.TeamID {
			return existing, true, nil
		}
		return ownership.Record{}, false, fmt.Errorf("%w: player=%s owner=%s",
			ownership.ErrPlayerAlreadyOwned, req.PlayerID, existing.TeamID)
	}

	season := req.Season
	if season == "" {
		round, ok := r.s.rounds[req.RoundID]
		if !ok {
			return ownership.Record{}, false, fmt.Errorf("round %s not found", req.RoundID)
		}
		season = round.Season
	}

	key := budgetKey(req.TeamID, season)
	teamBudget, ok := r.s.budgets[key]
	if !ok {
		return ownership.Record{}, false, fmt.Errorf("budget not found team=%s season=%s", req.TeamID, season)
	}
	if teamBudget.Spent+req.Price > teamBudget.Allocated {
		return ownership.Record{}, false, fmt.Errorf("%w: price=%d available=%d",
			budget.ErrInsufficientFunds, req.Price, teamBudget.Available())
	}
	teamBudget.Spent += req.Price
	r.s.budgets[key] = teamBudget

	rec := ownership.Record{
		ID:            req.RecordID,
		TeamID:        req.TeamID,
		PlayerID:      req.PlayerID,
		PurchasePrice: req.Price,
		AcquiredAt:    req.Now.UTC(),
	}
	r.s.owned[req.PlayerID] = rec
	r.s.assigned[req.PlayerID] = true

	if req.WinningBidID != "" {
		if bid, ok := r.s.bids[req.WinningBidID]; ok {
			bid.Status = auction.BidStatusWon
			r.s.bids[req.WinningBidID] = bid
		}
	}
	for _, id := range req.LosingBidIDs {
		if bid, ok := r.s.bids[id]; ok {
			bid.Status = auction.BidStatusLost
			r.s.bids[id] = bid
		}
	}

	r.s.ledger = append(r.s.ledger, ownership.LedgerEntry{
		ID:           req.LedgerEntryID,
		TeamID:       req.TeamID,
		PlayerID:     req.PlayerID,
		RoundID:      req.RoundID,
		TiebreakerID: req.TiebreakerID,
		Season:       season,
		Amount:       req.Price,
		Kind:         req.Kind,
		CreatedAt:    req.Now.UTC(),
	})

	return rec, false, nil
}

func (r *OwnershipRepository) GetByPlayer(_ context.Context, playerID string) (ownership.Record, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.owned[playerID]
	if !ok {
		return ownership.Record{}, false, nil
	}

	return rec, true, nil
}

func (r *OwnershipRepository) ListLedgerByTeam(_ context.Context, teamID, season string) ([]ownership.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []ownership.LedgerEntry
	for _, entry := range r.s.ledger {
		if entry.TeamID == teamID && (season == "" || entry.Season == season) {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}
