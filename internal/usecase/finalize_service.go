package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
)

// FinalizeInput carries one resolved (team, player, price) outcome into the
// atomic commit step. LosingBidIDs may be empty; the repository also flips
// any remaining non-winning bids on the player.
type FinalizeInput struct {
	RoundID      string
	TiebreakerID string
	Season       string
	TeamID       string
	PlayerID     string
	Price        int64
	WinningBidID string
	LosingBidIDs []string
	Kind         ownership.LedgerKind
}

type FinalizeService struct {
	roundRepo      auction.RoundRepository
	tiebreakerRepo tiebreaker.Repository
	ownershipRepo  ownership.Repository
	events         event.Publisher
	idGen          idgen.Generator
	logger         *slog.Logger
	now            func() time.Time
}

func NewFinalizeService(
	roundRepo auction.RoundRepository,
	tiebreakerRepo tiebreaker.Repository,
	ownershipRepo ownership.Repository,
	events event.Publisher,
	idGen idgen.Generator,
	logger *slog.Logger,
) *FinalizeService {
	if logger == nil {
		logger = slog.Default()
	}

	return &FinalizeService{
		roundRepo:      roundRepo,
		tiebreakerRepo: tiebreakerRepo,
		ownershipRepo:  ownershipRepo,
		events:         events,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// Finalize atomically commits a resolved outcome: ownership insert,
// conditional budget debit, player assignment, bid status flips, and a ledger
// row, all in one store transaction. Replays for the same (team, player)
// return the stored record without double-charging. A budget shortfall found
// inside the transaction escalates as ErrReconciliationRequired; the winner
// is never silently replaced.
func (s *FinalizeService) Finalize(ctx context.Context, input FinalizeInput) (ownership.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FinalizeService.Finalize")
	defer span.End()

	input.RoundID = strings.TrimSpace(input.RoundID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.PlayerID = strings.TrimSpace(input.PlayerID)
	if input.Kind == "" {
		input.Kind = ownership.LedgerKindAuctionWin
	}

	now := s.now().UTC()
	recordID, err := s.idGen.NewID()
	if err != nil {
		return ownership.Record{}, fmt.Errorf("generate ownership record id: %w", err)
	}
	ledgerID, err := s.idGen.NewID()
	if err != nil {
		return ownership.Record{}, fmt.Errorf("generate ledger entry id: %w", err)
	}

	req := ownership.FinalizeRequest{
		RecordID:      recordID,
		LedgerEntryID: ledgerID,
		RoundID:       input.RoundID,
		TiebreakerID:  input.TiebreakerID,
		Season:        input.Season,
		TeamID:        input.TeamID,
		PlayerID:      input.PlayerID,
		Price:         input.Price,
		WinningBidID:  input.WinningBidID,
		LosingBidIDs:  input.LosingBidIDs,
		Kind:          input.Kind,
		Now:           now,
	}
	if err := req.Validate(); err != nil {
		return ownership.Record{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	record, replayed, err := s.ownershipRepo.Finalize(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, budget.ErrInsufficientFunds):
			return ownership.Record{}, fmt.Errorf("%w: team=%s player=%s price=%d: %v",
				ErrReconciliationRequired, input.TeamID, input.PlayerID, input.Price, err)
		case errors.Is(err, ownership.ErrPlayerAlreadyOwned):
			return ownership.Record{}, fmt.Errorf("%w: player=%s", ErrAlreadyFinalized, input.PlayerID)
		default:
			return ownership.Record{}, fmt.Errorf("finalize outcome: %w", err)
		}
	}
	if replayed {
		s.logger.InfoContext(ctx, "finalize replay detected",
			"team_id", input.TeamID,
			"player_id", input.PlayerID,
			"record_id", record.ID,
		)
		return record, nil
	}

	s.events.Publish(ctx, event.PlayerWon{
		RoundID:  input.RoundID,
		TeamID:   input.TeamID,
		PlayerID: input.PlayerID,
		Price:    input.Price,
		At:       now,
	})

	s.logger.InfoContext(ctx, "player outcome finalized",
		"round_id", input.RoundID,
		"tiebreaker_id", input.TiebreakerID,
		"team_id", input.TeamID,
		"player_id", input.PlayerID,
		"price", input.Price,
		"kind", string(input.Kind),
	)

	if err := s.TryFinalizeRound(ctx, input.RoundID); err != nil {
		return ownership.Record{}, err
	}

	return record, nil
}

// TryFinalizeRound moves a closed round to its terminal status once no
// unresolved tiebreakers remain. Lost swaps are fine: some other instance
// got there first.
func (s *FinalizeService) TryFinalizeRound(ctx context.Context, roundID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.FinalizeService.TryFinalizeRound")
	defer span.End()

	unresolved, err := s.tiebreakerRepo.CountUnresolvedByRound(ctx, roundID)
	if err != nil {
		return fmt.Errorf("count unresolved tiebreakers: %w", err)
	}
	if unresolved > 0 {
		return nil
	}

	err = s.roundRepo.TransitionStatus(ctx, roundID, auction.RoundStatusClosed, auction.RoundStatusFinalized)
	if err != nil && !errors.Is(err, auction.ErrStaleState) {
		return fmt.Errorf("transition round to finalized: %w", err)
	}

	return nil
}

// GetOwnership returns the committed record for a player.
func (s *FinalizeService) GetOwnership(ctx context.Context, playerID string) (ownership.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FinalizeService.GetOwnership")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return ownership.Record{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	record, exists, err := s.ownershipRepo.GetByPlayer(ctx, playerID)
	if err != nil {
		return ownership.Record{}, fmt.Errorf("get ownership: %w", err)
	}
	if !exists {
		return ownership.Record{}, fmt.Errorf("%w: player=%s", ErrNotFound, playerID)
	}

	return record, nil
}

// ListTeamLedger returns the append-only debit trail for reconciliation.
func (s *FinalizeService) ListTeamLedger(ctx context.Context, teamID, season string) ([]ownership.LedgerEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FinalizeService.ListTeamLedger")
	defer span.End()

	teamID = strings.TrimSpace(teamID)
	season = strings.TrimSpace(season)
	if teamID == "" || season == "" {
		return nil, fmt.Errorf("%w: team id and season are required", ErrInvalidInput)
	}

	entries, err := s.ownershipRepo.ListLedgerByTeam(ctx, teamID, season)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}

	return entries, nil
}
