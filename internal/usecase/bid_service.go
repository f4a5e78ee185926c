package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
)

// PlaceBidInput is the incoming payload for bid intake. Nonce is the
// client-supplied idempotency key; replaying it returns the original bid
// without consuming the per-round limit again.
type PlaceBidInput struct {
	TeamID          string
	Season          string
	RoundID         string
	PlayerID        string
	Amount          int64
	DeclaredCeiling int64
	Nonce           string
}

type BidService struct {
	roundRepo  auction.RoundRepository
	bidRepo    auction.BidRepository
	budgetRepo budget.Repository
	events     event.Publisher
	idGen      idgen.Generator
	logger     *slog.Logger
	now        func() time.Time
}

func NewBidService(
	roundRepo auction.RoundRepository,
	bidRepo auction.BidRepository,
	budgetRepo budget.Repository,
	events event.Publisher,
	idGen idgen.Generator,
	logger *slog.Logger,
) *BidService {
	if logger == nil {
		logger = slog.Default()
	}

	return &BidService{
		roundRepo:  roundRepo,
		bidRepo:    bidRepo,
		budgetRepo: budgetRepo,
		events:     events,
		idGen:      idGen,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *BidService) PlaceBid(ctx context.Context, input PlaceBidInput) (auction.Bid, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BidService.PlaceBid")
	defer span.End()

	input.TeamID = strings.TrimSpace(input.TeamID)
	input.Season = strings.TrimSpace(input.Season)
	input.RoundID = strings.TrimSpace(input.RoundID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	input.Nonce = strings.TrimSpace(input.Nonce)

	if input.TeamID == "" || input.Season == "" {
		return auction.Bid{}, fmt.Errorf("%w: team id and season are required", ErrInvalidInput)
	}
	if input.RoundID == "" {
		return auction.Bid{}, fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}
	if input.PlayerID == "" {
		return auction.Bid{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	if input.Nonce == "" {
		return auction.Bid{}, fmt.Errorf("%w: nonce is required", ErrInvalidInput)
	}
	if input.Amount <= 0 {
		return auction.Bid{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}

	now := s.now().UTC()
	round, exists, err := s.roundRepo.GetByID(ctx, input.RoundID)
	if err != nil {
		return auction.Bid{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return auction.Bid{}, fmt.Errorf("%w: round=%s", ErrNotFound, input.RoundID)
	}
	if !round.IsOpenAt(now) {
		return auction.Bid{}, fmt.Errorf("%w: round=%s status=%s", auction.ErrRoundNotOpen, round.ID, round.Status)
	}

	ceiling := input.Amount
	if round.SealedBids {
		if input.DeclaredCeiling < input.Amount {
			return auction.Bid{}, fmt.Errorf("%w: declared ceiling must cover the sealed amount", ErrInvalidInput)
		}
		ceiling = input.DeclaredCeiling
	} else if input.DeclaredCeiling != 0 && input.DeclaredCeiling != input.Amount {
		return auction.Bid{}, fmt.Errorf("%w: declared ceiling only applies to sealed rounds", ErrInvalidInput)
	}

	// Friendly pre-checks; the repository re-runs them inside the insert
	// transaction, which is the guard that actually holds under races.
	activeCount, err := s.bidRepo.CountActiveByRoundAndTeam(ctx, round.ID, input.TeamID)
	if err != nil {
		return auction.Bid{}, fmt.Errorf("count active bids: %w", err)
	}
	if activeCount >= round.MaxBidsPerTeam {
		return auction.Bid{}, fmt.Errorf("%w: round=%s limit=%d", auction.ErrBidLimitExceeded, round.ID, round.MaxBidsPerTeam)
	}

	if err := s.checkBudgetCeiling(ctx, input.TeamID, input.Season, ceiling); err != nil {
		return auction.Bid{}, err
	}

	bidID, err := s.idGen.NewID()
	if err != nil {
		return auction.Bid{}, fmt.Errorf("generate bid id: %w", err)
	}

	bid := auction.Bid{
		ID:              bidID,
		RoundID:         round.ID,
		TeamID:          input.TeamID,
		PlayerID:        input.PlayerID,
		Amount:          input.Amount,
		DeclaredCeiling: ceiling,
		Sealed:          round.SealedBids,
		Status:          auction.BidStatusActive,
		Nonce:           input.Nonce,
		CreatedAt:       now,
	}
	if err := bid.Validate(); err != nil {
		return auction.Bid{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	stored, replayed, err := s.bidRepo.Create(ctx, bid, round.MaxBidsPerTeam)
	if err != nil {
		return auction.Bid{}, fmt.Errorf("create bid: %w", err)
	}
	if replayed {
		s.logger.InfoContext(ctx, "bid replay detected",
			"round_id", round.ID,
			"team_id", input.TeamID,
			"nonce", input.Nonce,
			"bid_id", stored.ID,
		)
		return stored, nil
	}

	s.events.Publish(ctx, event.BidPlaced{
		BidID:    stored.ID,
		RoundID:  stored.RoundID,
		TeamID:   stored.TeamID,
		PlayerID: stored.PlayerID,
		Amount:   visibleAmount(stored),
		Sealed:   stored.Sealed,
		At:       now,
	})

	s.logger.InfoContext(ctx, "bid placed",
		"round_id", stored.RoundID,
		"team_id", stored.TeamID,
		"player_id", stored.PlayerID,
		"bid_id", stored.ID,
		"sealed", stored.Sealed,
	)

	return stored, nil
}

// GetRoundBids returns a round with its bids for read surfaces. Sealed
// amounts stay withheld while the round is still active.
func (s *BidService) GetRoundBids(ctx context.Context, roundID string) (auction.Round, []auction.Bid, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BidService.GetRoundBids")
	defer span.End()

	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return auction.Round{}, nil, fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}

	round, exists, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return auction.Round{}, nil, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return auction.Round{}, nil, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}

	bids, err := s.bidRepo.ListByRound(ctx, roundID)
	if err != nil {
		return auction.Round{}, nil, fmt.Errorf("list bids: %w", err)
	}

	if round.Status == auction.RoundStatusActive && round.SealedBids {
		for i := range bids {
			bids[i].Amount = 0
		}
	}

	return round, bids, nil
}

// GetTeamBudget returns the team's seasonal allocation together with the
// ceiling total committed to still-active bids, so clients can show a live
// available balance without precomputing holds server-side.
func (s *BidService) GetTeamBudget(ctx context.Context, teamID, season string) (budget.TeamBudget, int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BidService.GetTeamBudget")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	season = strings.TrimSpace(season)
	if teamID == "" || season == "" {
		return budget.TeamBudget{}, 0, fmt.Errorf("%w: team id and season are required", ErrInvalidInput)
	}

	teamBudget, exists, err := s.budgetRepo.GetByTeamAndSeason(ctx, teamID, season)
	if err != nil {
		return budget.TeamBudget{}, 0, fmt.Errorf("get team budget: %w", err)
	}
	if !exists {
		return budget.TeamBudget{}, 0, fmt.Errorf("%w: budget team=%s season=%s", ErrNotFound, teamID, season)
	}

	committed, err := s.bidRepo.SumActiveByTeam(ctx, season, teamID)
	if err != nil {
		return budget.TeamBudget{}, 0, fmt.Errorf("sum active bids: %w", err)
	}

	return teamBudget, committed, nil
}

func (s *BidService) checkBudgetCeiling(ctx context.Context, teamID, season string, ceiling int64) error {
	teamBudget, exists, err := s.budgetRepo.GetByTeamAndSeason(ctx, teamID, season)
	if err != nil {
		return fmt.Errorf("get team budget: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: budget team=%s season=%s", ErrNotFound, teamID, season)
	}

	committed, err := s.bidRepo.SumActiveByTeam(ctx, season, teamID)
	if err != nil {
		return fmt.Errorf("sum active bids: %w", err)
	}

	if ceiling > teamBudget.Available()-committed {
		return fmt.Errorf("%w: ceiling=%d available=%d committed=%d",
			budget.ErrInsufficientFunds, ceiling, teamBudget.Available(), committed)
	}

	return nil
}

// visibleAmount hides sealed amounts from broadcast payloads until close.
func visibleAmount(b auction.Bid) int64 {
	if b.Sealed {
		return 0
	}
	return b.Amount
}
