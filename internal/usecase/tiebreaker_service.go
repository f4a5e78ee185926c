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
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
)

type RaiseInput struct {
	TiebreakerID string
	TeamID       string
	Season       string
	Amount       int64
}

type TiebreakerService struct {
	tiebreakerRepo tiebreaker.Repository
	bidRepo        auction.BidRepository
	budgetRepo     budget.Repository
	finalizer      *FinalizeService
	events         event.Publisher
	retryCfg       resilience.RetryConfig
	logger         *slog.Logger
	now            func() time.Time
}

func NewTiebreakerService(
	tiebreakerRepo tiebreaker.Repository,
	bidRepo auction.BidRepository,
	budgetRepo budget.Repository,
	finalizer *FinalizeService,
	events event.Publisher,
	retryCfg resilience.RetryConfig,
	logger *slog.Logger,
) *TiebreakerService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TiebreakerService{
		tiebreakerRepo: tiebreakerRepo,
		bidRepo:        bidRepo,
		budgetRepo:     budgetRepo,
		finalizer:      finalizer,
		events:         events,
		retryCfg:       resilience.NormalizeRetryConfig(retryCfg),
		logger:         logger,
		now:            time.Now,
	}
}

// Raise records a strictly higher bid by an active, non-leading participant.
// The repository re-reads the current highest inside its transaction; losing
// that race is retried a bounded number of times before surfacing
// ErrConflict.
func (s *TiebreakerService) Raise(ctx context.Context, input RaiseInput) (tiebreaker.Tiebreaker, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.Raise")
	defer span.End()

	input.TiebreakerID = strings.TrimSpace(input.TiebreakerID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.Season = strings.TrimSpace(input.Season)
	if input.TiebreakerID == "" || input.TeamID == "" {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: tiebreaker id and team id are required", ErrInvalidInput)
	}
	if input.Season == "" {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if input.Amount <= 0 {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}

	t, exists, err := s.tiebreakerRepo.GetByID(ctx, input.TiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("get tiebreaker: %w", err)
	}
	if !exists {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: tiebreaker=%s", ErrNotFound, input.TiebreakerID)
	}

	if err := s.checkRaiseBudget(ctx, t, input); err != nil {
		return tiebreaker.Tiebreaker{}, err
	}

	now := s.now().UTC()
	var updated tiebreaker.Tiebreaker
	err = resilience.Retry(ctx, s.retryCfg, isTransientConflict, func(ctx context.Context) error {
		var raiseErr error
		updated, raiseErr = s.tiebreakerRepo.Raise(ctx, input.TiebreakerID, input.TeamID, input.Amount, now)
		return raiseErr
	})
	if err != nil {
		if errors.Is(err, auction.ErrStaleState) {
			return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: raise tiebreaker=%s", ErrConflict, input.TiebreakerID)
		}
		return tiebreaker.Tiebreaker{}, fmt.Errorf("raise tiebreaker: %w", err)
	}

	s.events.Publish(ctx, event.TiebreakerBid{
		TiebreakerID: updated.ID,
		TeamID:       input.TeamID,
		Amount:       input.Amount,
		At:           now,
	})

	s.logger.InfoContext(ctx, "tiebreaker raise accepted",
		"tiebreaker_id", updated.ID,
		"team_id", input.TeamID,
		"amount", input.Amount,
	)

	return updated, nil
}

// Withdraw marks a participant withdrawn; the instant only one participant
// remains active the tiebreaker resolves in the same store transaction and
// the winner is finalized at their standing bid.
func (s *TiebreakerService) Withdraw(ctx context.Context, tiebreakerID, teamID string) (tiebreaker.Tiebreaker, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.Withdraw")
	defer span.End()

	tiebreakerID = strings.TrimSpace(tiebreakerID)
	teamID = strings.TrimSpace(teamID)
	if tiebreakerID == "" || teamID == "" {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: tiebreaker id and team id are required", ErrInvalidInput)
	}

	now := s.now().UTC()
	var (
		updated  tiebreaker.Tiebreaker
		resolved bool
	)
	err := resilience.Retry(ctx, s.retryCfg, isTransientConflict, func(ctx context.Context) error {
		var withdrawErr error
		updated, resolved, withdrawErr = s.tiebreakerRepo.Withdraw(ctx, tiebreakerID, teamID, now)
		return withdrawErr
	})
	if err != nil {
		if errors.Is(err, auction.ErrStaleState) {
			return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: withdraw tiebreaker=%s", ErrConflict, tiebreakerID)
		}
		return tiebreaker.Tiebreaker{}, fmt.Errorf("withdraw from tiebreaker: %w", err)
	}

	remaining := -1
	if participants, listErr := s.tiebreakerRepo.ListParticipants(ctx, updated.ID); listErr != nil {
		s.logger.WarnContext(ctx, "count remaining participants failed",
			"tiebreaker_id", updated.ID,
			"error", listErr,
		)
	} else {
		remaining = 0
		for _, p := range participants {
			if p.Status == tiebreaker.ParticipantActive {
				remaining++
			}
		}
	}

	s.events.Publish(ctx, event.TiebreakerWithdraw{
		TiebreakerID: updated.ID,
		TeamID:       teamID,
		Remaining:    remaining,
		At:           now,
	})

	if resolved {
		if err := s.completeResolved(ctx, updated, false); err != nil {
			return tiebreaker.Tiebreaker{}, err
		}
	}

	return updated, nil
}

// Cancel terminally cancels an unresolved tiebreaker. Committed ownership is
// untouched; budget holds are derived from active bids, so nothing needs
// unwinding.
func (s *TiebreakerService) Cancel(ctx context.Context, tiebreakerID string) (tiebreaker.Tiebreaker, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.Cancel")
	defer span.End()

	tiebreakerID = strings.TrimSpace(tiebreakerID)
	if tiebreakerID == "" {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: tiebreaker id is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	cancelled, err := s.tiebreakerRepo.Cancel(ctx, tiebreakerID, now)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("cancel tiebreaker: %w", err)
	}

	s.logger.WarnContext(ctx, "tiebreaker cancelled",
		"tiebreaker_id", cancelled.ID,
		"round_id", cancelled.RoundID,
		"player_id", cancelled.PlayerID,
	)

	return cancelled, nil
}

// ForceFinalize applies the stall-timeout escape hatch to one tiebreaker:
// the current highest bidder wins, recorded as a forced timeout so the audit
// trail distinguishes it from a genuine elimination.
func (s *TiebreakerService) ForceFinalize(ctx context.Context, tiebreakerID string) (tiebreaker.Tiebreaker, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.ForceFinalize")
	defer span.End()

	tiebreakerID = strings.TrimSpace(tiebreakerID)
	if tiebreakerID == "" {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: tiebreaker id is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	forced, err := s.tiebreakerRepo.ForceResolve(ctx, tiebreakerID, now)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("force-resolve tiebreaker: %w", err)
	}

	if err := s.completeResolved(ctx, forced, true); err != nil {
		return tiebreaker.Tiebreaker{}, err
	}

	return forced, nil
}

// SweepStalled force-finalizes tiebreakers stuck past their maximum end
// time. Ones where no raise ever established a leader are skipped: there is
// no fair winner to pick, only the admin cancel path remains.
func (s *TiebreakerService) SweepStalled(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.SweepStalled")
	defer span.End()

	now := s.now().UTC()
	stalled, err := s.tiebreakerRepo.ListStalledActive(ctx, now)
	if err != nil {
		return fmt.Errorf("list stalled tiebreakers: %w", err)
	}

	for _, t := range stalled {
		if _, err := s.ForceFinalize(ctx, t.ID); err != nil {
			if errors.Is(err, tiebreaker.ErrNoStandingLeader) {
				s.logger.WarnContext(ctx, "stalled tiebreaker has no leader, leaving active",
					"tiebreaker_id", t.ID,
					"player_id", t.PlayerID,
				)
				continue
			}
			s.logger.ErrorContext(ctx, "force-finalize stalled tiebreaker failed",
				"tiebreaker_id", t.ID,
				"error", err,
			)
		}
	}

	// A crash between resolution committing and the finalize transaction
	// leaves a resolved tiebreaker with no ownership row. Re-drive the
	// finalize; it is idempotent, so racing another instance is harmless.
	pending, err := s.tiebreakerRepo.ListResolvedUnowned(ctx)
	if err != nil {
		return fmt.Errorf("list resolved tiebreakers pending finalize: %w", err)
	}

	for _, t := range pending {
		s.logger.WarnContext(ctx, "resolved tiebreaker missing ownership, re-driving finalize",
			"tiebreaker_id", t.ID,
			"player_id", t.PlayerID,
			"winner_team_id", t.WinnerTeamID,
		)
		if err := s.finalizeResolved(ctx, t, t.Resolution == tiebreaker.ResolutionForcedTimeout); err != nil {
			s.logger.ErrorContext(ctx, "re-drive tiebreaker finalize failed",
				"tiebreaker_id", t.ID,
				"error", err,
			)
		}
	}

	return nil
}

// GetTiebreaker returns a tiebreaker with its participants for read surfaces.
func (s *TiebreakerService) GetTiebreaker(ctx context.Context, tiebreakerID string) (tiebreaker.Tiebreaker, []tiebreaker.Participant, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TiebreakerService.GetTiebreaker")
	defer span.End()

	tiebreakerID = strings.TrimSpace(tiebreakerID)
	if tiebreakerID == "" {
		return tiebreaker.Tiebreaker{}, nil, fmt.Errorf("%w: tiebreaker id is required", ErrInvalidInput)
	}

	t, exists, err := s.tiebreakerRepo.GetByID(ctx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, nil, fmt.Errorf("get tiebreaker: %w", err)
	}
	if !exists {
		return tiebreaker.Tiebreaker{}, nil, fmt.Errorf("%w: tiebreaker=%s", ErrNotFound, tiebreakerID)
	}

	participants, err := s.tiebreakerRepo.ListParticipants(ctx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, nil, fmt.Errorf("list participants: %w", err)
	}

	return t, participants, nil
}

func (s *TiebreakerService) completeResolved(ctx context.Context, t tiebreaker.Tiebreaker, forced bool) error {
	now := s.now().UTC()
	s.events.Publish(ctx, event.TiebreakerComplete{
		TiebreakerID: t.ID,
		PlayerID:     t.PlayerID,
		WinnerTeamID: t.WinnerTeamID,
		Amount:       t.WinningAmount,
		Forced:       forced,
		At:           now,
	})

	return s.finalizeResolved(ctx, t, forced)
}

// finalizeResolved carries a resolved tiebreaker through to ownership. Also
// the sweep's re-drive path, which must not re-announce completion.
func (s *TiebreakerService) finalizeResolved(ctx context.Context, t tiebreaker.Tiebreaker, forced bool) error {
	winningBidID, losingBidIDs, err := s.tiedBidIDs(ctx, t)
	if err != nil {
		return err
	}

	kind := ownership.LedgerKindTiebreakerWin
	if forced {
		kind = ownership.LedgerKindForcedTimeout
	}

	_, err = s.finalizer.Finalize(ctx, FinalizeInput{
		RoundID:      t.RoundID,
		TiebreakerID: t.ID,
		TeamID:       t.WinnerTeamID,
		PlayerID:     t.PlayerID,
		Price:        t.WinningAmount,
		WinningBidID: winningBidID,
		LosingBidIDs: losingBidIDs,
		Kind:         kind,
	})
	if err != nil && !errors.Is(err, ErrReconciliationRequired) {
		return fmt.Errorf("finalize tiebreaker winner: %w", err)
	}
	if errors.Is(err, ErrReconciliationRequired) {
		s.logger.ErrorContext(ctx, "tiebreaker finalize needs reconciliation",
			"tiebreaker_id", t.ID,
			"winner_team_id", t.WinnerTeamID,
			"error", err,
		)
	}

	return nil
}

// tiedBidIDs maps the resolved tiebreaker back onto the round's bid rows:
// the winner's tied bid flips to won, the other tied bids to lost.
func (s *TiebreakerService) tiedBidIDs(ctx context.Context, t tiebreaker.Tiebreaker) (string, []string, error) {
	bids, err := s.bidRepo.ListByRound(ctx, t.RoundID)
	if err != nil {
		return "", nil, fmt.Errorf("list round bids: %w", err)
	}

	var winningBidID string
	var losingBidIDs []string
	for _, b := range bids {
		if b.PlayerID != t.PlayerID || b.Status != auction.BidStatusActive {
			continue
		}
		if b.TeamID == t.WinnerTeamID {
			winningBidID = b.ID
			continue
		}
		losingBidIDs = append(losingBidIDs, b.ID)
	}

	return winningBidID, losingBidIDs, nil
}

// checkRaiseBudget gates a raise against the same ceiling math as bid intake:
// allocated minus spent minus the ceilings committed to other active bids. The
// team's own tied bid for this player is excluded because the raise replaces
// it rather than stacking on top of it.
func (s *TiebreakerService) checkRaiseBudget(ctx context.Context, t tiebreaker.Tiebreaker, input RaiseInput) error {
	teamBudget, exists, err := s.budgetRepo.GetByTeamAndSeason(ctx, input.TeamID, input.Season)
	if err != nil {
		return fmt.Errorf("get team budget: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: budget team=%s season=%s", ErrNotFound, input.TeamID, input.Season)
	}

	committed, err := s.bidRepo.SumActiveByTeam(ctx, input.Season, input.TeamID)
	if err != nil {
		return fmt.Errorf("sum active bids: %w", err)
	}

	roundBids, err := s.bidRepo.ListByRound(ctx, t.RoundID)
	if err != nil {
		return fmt.Errorf("list round bids: %w", err)
	}
	for _, b := range roundBids {
		if b.TeamID == input.TeamID && b.PlayerID == t.PlayerID && b.Status == auction.BidStatusActive {
			committed -= b.DeclaredCeiling
			break
		}
	}

	if input.Amount > teamBudget.Available()-committed {
		return fmt.Errorf("%w: amount=%d available=%d committed=%d",
			budget.ErrInsufficientFunds, input.Amount, teamBudget.Available(), committed)
	}

	return nil
}

func isTransientConflict(err error) bool {
	return errors.Is(err, auction.ErrStaleState)
}
