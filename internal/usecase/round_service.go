package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/event"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
	"github.com/sourcegraph/conc/pool"
)

const finalizeWorkers = 4

type RoundService struct {
	roundRepo      auction.RoundRepository
	bidRepo        auction.BidRepository
	tiebreakerRepo tiebreaker.Repository
	finalizer      *FinalizeService
	events         event.Publisher
	idGen          idgen.Generator
	stallTimeout   time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

func NewRoundService(
	roundRepo auction.RoundRepository,
	bidRepo auction.BidRepository,
	tiebreakerRepo tiebreaker.Repository,
	finalizer *FinalizeService,
	events event.Publisher,
	idGen idgen.Generator,
	stallTimeout time.Duration,
	logger *slog.Logger,
) *RoundService {
	if logger == nil {
		logger = slog.Default()
	}
	if stallTimeout <= 0 {
		stallTimeout = 15 * time.Minute
	}

	return &RoundService{
		roundRepo:      roundRepo,
		bidRepo:        bidRepo,
		tiebreakerRepo: tiebreakerRepo,
		finalizer:      finalizer,
		events:         events,
		idGen:          idGen,
		stallTimeout:   stallTimeout,
		logger:         logger,
		now:            time.Now,
	}
}

// CloseRound transitions the round active -> closed exactly once and derives
// per-player outcomes from bid rows alone. Losing a compare-and-swap race to
// another instance makes the call a no-op; a crash after the swap is repaired
// by the next sweep because outcome application is idempotent.
func (s *RoundService) CloseRound(ctx context.Context, roundID string) ([]auction.PlayerOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.CloseRound")
	defer span.End()

	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return nil, fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}

	round, exists, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}

	switch round.Status {
	case auction.RoundStatusActive:
		if err := s.roundRepo.TransitionStatus(ctx, round.ID, auction.RoundStatusActive, auction.RoundStatusClosed); err != nil {
			if errors.Is(err, auction.ErrStaleState) {
				s.logger.InfoContext(ctx, "round close lost race, skipping", "round_id", round.ID)
				return nil, nil
			}
			return nil, fmt.Errorf("transition round to closed: %w", err)
		}
	case auction.RoundStatusClosed:
		// Crash-recovery path: the swap already happened, reapply outcomes.
		s.logger.WarnContext(ctx, "round already closed, reapplying outcomes", "round_id", round.ID)
	default:
		return nil, nil
	}

	bids, err := s.bidRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("list round bids: %w", err)
	}

	outcomes := auction.ComputeOutcomes(bids)

	ties := 0
	winners := make([]auction.PlayerOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		if err := s.markLosers(ctx, round, outcome); err != nil {
			return nil, err
		}

		switch outcome.Kind {
		case auction.OutcomeTied:
			ties++
			if err := s.openTiebreaker(ctx, round, outcome); err != nil {
				return nil, err
			}
		case auction.OutcomeWon:
			winners = append(winners, outcome)
		}
	}

	if err := s.finalizeWinners(ctx, round, winners); err != nil {
		return nil, err
	}

	if ties == 0 {
		if err := s.finalizer.TryFinalizeRound(ctx, round.ID); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "round closed",
		"round_id", round.ID,
		"players", len(outcomes),
		"immediate_winners", len(winners),
		"tiebreakers", ties,
	)

	return outcomes, nil
}

// CloseExpired is the sweep entrypoint: closes every active round whose end
// time has passed. Safe to run on every instance concurrently.
func (s *RoundService) CloseExpired(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.CloseExpired")
	defer span.End()

	rounds, err := s.roundRepo.ListExpiredActive(ctx)
	if err != nil {
		return fmt.Errorf("list expired rounds: %w", err)
	}

	for _, round := range rounds {
		if _, err := s.CloseRound(ctx, round.ID); err != nil {
			s.logger.ErrorContext(ctx, "close expired round failed", "round_id", round.ID, "error", err)
		}
	}

	return nil
}

func (s *RoundService) markLosers(ctx context.Context, round auction.Round, outcome auction.PlayerOutcome) error {
	if len(outcome.LosingBids) == 0 {
		return nil
	}

	now := s.now().UTC()
	ids := make([]string, 0, len(outcome.LosingBids))
	for _, b := range outcome.LosingBids {
		if b.Status != auction.BidStatusActive {
			continue
		}
		ids = append(ids, b.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.bidRepo.UpdateStatuses(ctx, ids, auction.BidStatusLost); err != nil {
		return fmt.Errorf("mark losing bids player=%s: %w", outcome.PlayerID, err)
	}

	for _, b := range outcome.LosingBids {
		s.events.Publish(ctx, event.PlayerLost{
			RoundID:  round.ID,
			TeamID:   b.TeamID,
			PlayerID: b.PlayerID,
			BidID:    b.ID,
			At:       now,
		})
	}

	return nil
}

func (s *RoundService) openTiebreaker(ctx context.Context, round auction.Round, outcome auction.PlayerOutcome) error {
	// A reapplied close re-derives the same tie from the still-active bids.
	// One open tiebreaker per (round, player); the store's partial unique
	// index backstops this check.
	existing, found, err := s.tiebreakerRepo.GetOpenByRoundAndPlayer(ctx, round.ID, outcome.PlayerID)
	if err != nil {
		return fmt.Errorf("check open tiebreaker player=%s: %w", outcome.PlayerID, err)
	}
	if found {
		s.logger.InfoContext(ctx, "tiebreaker already open, skipping",
			"round_id", round.ID,
			"player_id", outcome.PlayerID,
			"tiebreaker_id", existing.ID,
		)
		return nil
	}

	now := s.now().UTC()
	tiebreakerID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate tiebreaker id: %w", err)
	}

	t := tiebreaker.Tiebreaker{
		ID:                tiebreakerID,
		RoundID:           round.ID,
		PlayerID:          outcome.PlayerID,
		TiedAmount:        outcome.TopAmount,
		Status:            tiebreaker.StatusActive,
		CurrentHighestBid: outcome.TopAmount,
		StartTime:         now,
		LastActivityTime:  now,
		MaxEndTime:        now.Add(s.stallTimeout),
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate tiebreaker player=%s: %v", outcome.PlayerID, err)
	}

	participants := make([]tiebreaker.Participant, 0, len(outcome.TiedTeams))
	for _, teamID := range outcome.TiedTeams {
		participants = append(participants, tiebreaker.Participant{
			TiebreakerID: t.ID,
			TeamID:       teamID,
			Status:       tiebreaker.ParticipantActive,
			CurrentBid:   outcome.TopAmount,
		})
	}

	if err := s.tiebreakerRepo.Create(ctx, t, participants); err != nil {
		return fmt.Errorf("create tiebreaker player=%s: %w", outcome.PlayerID, err)
	}

	s.events.Publish(ctx, event.TiebreakerStarted{
		TiebreakerID: t.ID,
		RoundID:      round.ID,
		PlayerID:     outcome.PlayerID,
		TiedAmount:   outcome.TopAmount,
		TeamIDs:      outcome.TiedTeams,
		At:           now,
	})

	return nil
}

func (s *RoundService) finalizeWinners(ctx context.Context, round auction.Round, winners []auction.PlayerOutcome) error {
	if len(winners) == 0 {
		return nil
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(finalizeWorkers)
	for _, outcome := range winners {
		outcome := outcome
		p.Go(func(ctx context.Context) error {
			_, err := s.finalizer.Finalize(ctx, FinalizeInput{
				RoundID:      round.ID,
				Season:       round.Season,
				TeamID:       outcome.WinningBid.TeamID,
				PlayerID:     outcome.PlayerID,
				Price:        outcome.WinningBid.Amount,
				WinningBidID: outcome.WinningBid.ID,
				Kind:         ownership.LedgerKindAuctionWin,
			})
			if err != nil && !errors.Is(err, ErrReconciliationRequired) {
				return fmt.Errorf("finalize player=%s: %w", outcome.PlayerID, err)
			}
			if errors.Is(err, ErrReconciliationRequired) {
				// Escalated, not fatal to the rest of the round.
				s.logger.ErrorContext(ctx, "finalize needs reconciliation",
					"round_id", round.ID,
					"player_id", outcome.PlayerID,
					"team_id", outcome.WinningBid.TeamID,
					"error", err,
				)
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("finalize round winners: %w", err)
	}

	return nil
}
