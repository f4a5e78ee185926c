package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	auctionmock "github.com/leaguehq/auction-engine/internal/mocks/domain/auction"
	budgetmock "github.com/leaguehq/auction-engine/internal/mocks/domain/budget"
	eventmock "github.com/leaguehq/auction-engine/internal/mocks/domain/event"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
	"github.com/stretchr/testify/mock"
)

func TestBidService_PlaceBid_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	roundRepo := auctionmock.NewRoundRepository(t)
	bidRepo := auctionmock.NewBidRepository(t)
	budgetRepo := budgetmock.NewRepository(t)
	events := eventmock.NewPublisher(t)

	service := NewBidService(roundRepo, bidRepo, budgetRepo, events, idgen.NewRandomGenerator(), nil)
	round := auction.Round{
		ID:             "round-gk-1",
		Season:         "2026",
		Status:         auction.RoundStatusActive,
		MaxBidsPerTeam: 3,
		EndTime:        time.Now().Add(time.Hour),
	}

	roundRepo.
		On("GetByID", mock.Anything, round.ID).
		Return(round, true, nil).
		Once()
	bidRepo.
		On("CountActiveByRoundAndTeam", mock.Anything, round.ID, "team-a").
		Return(0, nil).
		Once()
	budgetRepo.
		On("GetByTeamAndSeason", mock.Anything, "team-a", "2026").
		Return(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000}, true, nil).
		Once()
	bidRepo.
		On("SumActiveByTeam", mock.Anything, "2026", "team-a").
		Return(int64(0), nil).
		Once()
	bidRepo.
		On("Create", mock.Anything, mock.MatchedBy(func(b auction.Bid) bool {
			return b.RoundID == round.ID && b.TeamID == "team-a" && b.Amount == 150
		}), round.MaxBidsPerTeam).
		Return(func(_ context.Context, b auction.Bid, _ int) auction.Bid { return b }, false, nil).
		Once()
	events.
		On("Publish", mock.Anything, mock.MatchedBy(func(e event.Event) bool {
			return e.EventKind() == event.KindBidPlaced
		})).
		Once()

	got, err := service.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "player-1",
		Amount:   150,
		Nonce:    "nonce-1",
	})
	if err != nil {
		t.Fatalf("place bid: %v", err)
	}
	if got.Status != auction.BidStatusActive {
		t.Fatalf("unexpected bid status: %s", got.Status)
	}
}

func TestBidService_PlaceBid_RoundNotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	roundRepo := auctionmock.NewRoundRepository(t)
	bidRepo := auctionmock.NewBidRepository(t)
	budgetRepo := budgetmock.NewRepository(t)
	events := eventmock.NewPublisher(t)

	service := NewBidService(roundRepo, bidRepo, budgetRepo, events, idgen.NewRandomGenerator(), nil)

	roundRepo.
		On("GetByID", mock.Anything, "missing-round").
		Return(auction.Round{}, false, nil).
		Once()

	_, err := service.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  "missing-round",
		PlayerID: "player-1",
		Amount:   150,
		Nonce:    "nonce-1",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBidService_PlaceBid_BudgetExhaustedUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	roundRepo := auctionmock.NewRoundRepository(t)
	bidRepo := auctionmock.NewBidRepository(t)
	budgetRepo := budgetmock.NewRepository(t)
	events := eventmock.NewPublisher(t)

	service := NewBidService(roundRepo, bidRepo, budgetRepo, events, idgen.NewRandomGenerator(), nil)
	round := auction.Round{
		ID:             "round-gk-1",
		Season:         "2026",
		Status:         auction.RoundStatusActive,
		MaxBidsPerTeam: 3,
		EndTime:        time.Now().Add(time.Hour),
	}

	roundRepo.
		On("GetByID", mock.Anything, round.ID).
		Return(round, true, nil).
		Once()
	bidRepo.
		On("CountActiveByRoundAndTeam", mock.Anything, round.ID, "team-a").
		Return(0, nil).
		Once()
	budgetRepo.
		On("GetByTeamAndSeason", mock.Anything, "team-a", "2026").
		Return(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 200, Spent: 100}, true, nil).
		Once()
	bidRepo.
		On("SumActiveByTeam", mock.Anything, "2026", "team-a").
		Return(int64(80), nil).
		Once()

	_, err := service.PlaceBid(ctx, PlaceBidInput{
		TeamID:   "team-a",
		Season:   "2026",
		RoundID:  round.ID,
		PlayerID: "player-1",
		Amount:   50,
		Nonce:    "nonce-1",
	})
	if !errors.Is(err, budget.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}
