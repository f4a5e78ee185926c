package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/event"
)

func TestBidService_PlaceBid_NonceReplay(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 15*time.Minute)
	ctx := context.Background()
	round := h.seedRound(t, "round-1", "2026")
	h.seedBudget(t, "team-a", "2026", 1000)

	input := PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "p1",
		Amount:   100,
		Nonce:    "nonce-1",
	}

	first, err := h.bids.PlaceBid(ctx, input)
	if err != nil {
		t.Fatalf("first place: %v", err)
	}
	second, err := h.bids.PlaceBid(ctx, input)
	if err != nil {
		t.Fatalf("replayed place: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay created a new bid: %s vs %s", first.ID, second.ID)
	}

	if _, bids, _ := h.bids.GetRoundBids(ctx, round.ID); len(bids) != 1 {
		t.Fatalf("replay stored a duplicate bid")
	}
	if got := len(h.events.ByKind(event.KindBidPlaced)); got != 1 {
		t.Fatalf("replay emitted extra events: %d", got)
	}
}

func TestBidService_PlaceBid_PerRoundLimit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 15*time.Minute)
	ctx := context.Background()
	round := h.seedRound(t, "round-1", "2026")
	h.seedBudget(t, "team-a", "2026", 10000)

	for i, playerID := range []string{"p1", "p2", "p3"} {
		if _, err := h.bids.PlaceBid(ctx, PlaceBidInput{
			TeamID:   "team-a",
			Season:   "2026",
			RoundID:  round.ID,
			PlayerID: playerID,
			Amount:   100,
			Nonce:    playerID,
		}); err != nil {
			t.Fatalf("bid %d: %v", i, err)
		}
	}

	_, err := h.bids.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "p4",
		Amount:   100,
		Nonce:    "p4",
	})
	if !errors.Is(err, auction.ErrBidLimitExceeded) {
		t.Fatalf("expected ErrBidLimitExceeded, got %v", err)
	}
}

func TestBidService_PlaceBid_BudgetCeilingAcrossBids(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 15*time.Minute)
	ctx := context.Background()
	round := h.seedRound(t, "round-1", "2026")
	h.seedBudget(t, "team-a", "2026", 250)

	if _, err := h.bids.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "p1",
		Amount:   200,
		Nonce:    "p1",
	}); err != nil {
		t.Fatalf("first bid: %v", err)
	}

	// 200 of the 250 allocation is already committed to p1.
	_, err := h.bids.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "p2",
		Amount:   100,
		Nonce:    "p2",
	})
	if !errors.Is(err, budget.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestBidService_SealedRound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 15*time.Minute)
	ctx := context.Background()

	round := auction.Round{
		ID:             "round-sealed",
		Season:         "2026",
		PositionGroup:  "FW",
		Status:         auction.RoundStatusActive,
		MaxBidsPerTeam: 3,
		SealedBids:     true,
		EndTime:        time.Now().Add(time.Hour),
	}
	h.store.PutRound(round)
	h.seedBudget(t, "team-a", "2026", 1000)

	t.Run("ceiling must cover the sealed amount", func(t *testing.T) {
		_, err := h.bids.PlaceBid(ctx, PlaceBidInput{
			TeamID:          "team-a",
			Season:          "2026",
			RoundID:         round.ID,
			PlayerID:        "p1",
			Amount:          300,
			DeclaredCeiling: 200,
			Nonce:           "low-ceiling",
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})

	placed, err := h.bids.PlaceBid(ctx, PlaceBidInput{
		TeamID:          "team-a",
		Season:          "2026",
		RoundID:         round.ID,
		PlayerID:        "p1",
		Amount:          300,
		DeclaredCeiling: 400,
		Nonce:           "sealed-1",
	})
	if err != nil {
		t.Fatalf("place sealed bid: %v", err)
	}
	if !placed.Sealed || placed.DeclaredCeiling != 400 {
		t.Fatalf("unexpected sealed bid: %+v", placed)
	}

	// Broadcast payloads withhold sealed amounts until close.
	events := h.events.ByKind(event.KindBidPlaced)
	if len(events) != 1 || events[0].(event.BidPlaced).Amount != 0 {
		t.Fatalf("sealed amount leaked in events: %+v", events)
	}

	// Read surface withholds amounts while the round is active.
	_, bids, err := h.bids.GetRoundBids(ctx, round.ID)
	if err != nil {
		t.Fatalf("get round bids: %v", err)
	}
	if len(bids) != 1 || bids[0].Amount != 0 {
		t.Fatalf("sealed amount leaked in reads: %+v", bids)
	}
}

func TestBidService_PlaceBid_RejectsClosedRound(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 15*time.Minute)
	ctx := context.Background()
	round := h.seedRound(t, "round-1", "2026")
	h.seedBudget(t, "team-a", "2026", 1000)

	round.Status = auction.RoundStatusClosed
	h.store.PutRound(round)

	_, err := h.bids.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "p1",
		Amount:   100,
		Nonce:    "late",
	})
	if !errors.Is(err, auction.ErrRoundNotOpen) {
		t.Fatalf("expected ErrRoundNotOpen, got %v", err)
	}
}
