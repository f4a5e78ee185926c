package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/leaguehq/auction-engine/internal/infrastructure/notifier"
	"github.com/leaguehq/auction-engine/internal/infrastructure/repository/memory"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
)

// harness wires the full service stack over the in-memory store, the same
// shape the app wires over postgres.
type harness struct {
	store       *memory.Store
	events      *notifier.Recorder
	bids        *BidService
	rounds      *RoundService
	tiebreakers *TiebreakerService
	finalizer   *FinalizeService
}

func newHarness(t *testing.T, stallTimeout time.Duration) *harness {
	t.Helper()

	store := memory.NewStore()
	events := notifier.NewRecorder()
	ids := idgen.NewRandomGenerator()

	finalizer := NewFinalizeService(store.Rounds(), store.Tiebreakers(), store.Ownership(), events, ids, nil)
	bids := NewBidService(store.Rounds(), store.Bids(), store.Budgets(), events, ids, nil)
	rounds := NewRoundService(store.Rounds(), store.Bids(), store.Tiebreakers(), finalizer, events, ids, stallTimeout, nil)
	tiebreakers := NewTiebreakerService(store.Tiebreakers(), store.Bids(), store.Budgets(), finalizer, events, resilience.DefaultRetryConfig(), nil)

	return &harness{
		store:       store,
		events:      events,
		bids:        bids,
		rounds:      rounds,
		tiebreakers: tiebreakers,
		finalizer:   finalizer,
	}
}

func (h *harness) seedRound(t *testing.T, id, season string) auction.Round {
	t.Helper()

	round := auction.Round{
		ID:             id,
		Season:         season,
		PositionGroup:  "GK",
		Status:         auction.RoundStatusActive,
		MaxBidsPerTeam: 3,
		EndTime:        time.Now().Add(time.Hour),
		CreatedAt:      time.Now(),
	}
	h.store.PutRound(round)
	return round
}

func (h *harness) seedBudget(t *testing.T, teamID, season string, allocated int64) {
	t.Helper()
	h.store.PutBudget(budget.TeamBudget{TeamID: teamID, Season: season, Allocated: allocated})
}

func (h *harness) placeBid(t *testing.T, roundID, teamID, playerID string, amount int64) auction.Bid {
	t.Helper()

	bid, err := h.bids.PlaceBid(context.Background(), PlaceBidInput{
		TeamID:   teamID,
		Season:   "2026",
		RoundID:  roundID,
		PlayerID: playerID,
		Amount:   amount,
		Nonce:    teamID + "-" + playerID,
	})
	if err != nil {
		t.Fatalf("place bid team=%s player=%s: %v", teamID, playerID, err)
	}
	return bid
}

// startedTiebreakerID pulls the tiebreaker id for a player out of the
// recorded start events.
func (h *harness) startedTiebreakerID(t *testing.T, playerID string) string {
	t.Helper()

	for _, e := range h.events.ByKind(event.KindTiebreakerStarted) {
		started := e.(event.TiebreakerStarted)
		if started.PlayerID == playerID {
			return started.TiebreakerID
		}
	}
	t.Fatalf("no tiebreaker started for player %s", playerID)
	return ""
}

func (h *harness) roundStatus(t *testing.T, roundID string) auction.RoundStatus {
	t.Helper()

	round, ok, err := h.store.Rounds().GetByID(context.Background(), roundID)
	if err != nil || !ok {
		t.Fatalf("round %s not found: %v", roundID, err)
	}
	return round.Status
}

func (h *harness) budgetFor(t *testing.T, teamID, season string) budget.TeamBudget {
	t.Helper()

	b, ok, err := h.store.Budgets().GetByTeamAndSeason(context.Background(), teamID, season)
	if err != nil || !ok {
		t.Fatalf("budget team=%s season=%s not found: %v", teamID, season, err)
	}
	return b
}
