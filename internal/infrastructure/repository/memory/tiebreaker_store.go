package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
)

// TiebreakerRepository is a view over the shared store implementing
// tiebreaker.Repository. Every mutation re-reads state under the store lock
// and applies the tiebreaker package rules before writing.
type TiebreakerRepository struct{ s *Store }

func (s *Store) Tiebreakers() *TiebreakerRepository { return &TiebreakerRepository{s: s} }

func (r *TiebreakerRepository) Create(_ context.Context, t tiebreaker.Tiebreaker, participants []tiebreaker.Participant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tiebreakers[t.ID]; ok {
		return fmt.Errorf("tiebreaker %s already exists", t.ID)
	}
	// Mirrors the partial unique index on (round, player) for non-cancelled
	// rows.
	for _, existing := range r.s.tiebreakers {
		if existing.RoundID == t.RoundID && existing.PlayerID == t.PlayerID && existing.Status != tiebreaker.StatusCancelled {
			return fmt.Errorf("tiebreaker for round=%s player=%s already open", t.RoundID, t.PlayerID)
		}
	}

	r.s.tiebreakers[t.ID] = t
	r.s.participants[t.ID] = append([]tiebreaker.Participant(nil), participants...)
	return nil
}

func (r *TiebreakerRepository) GetByID(_ context.Context, tiebreakerID string) (tiebreaker.Tiebreaker, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tiebreakers[tiebreakerID]
	if !ok {
		return tiebreaker.Tiebreaker{}, false, nil
	}

	return t, true, nil
}

func (r *TiebreakerRepository) ListParticipants(_ context.Context, tiebreakerID string) ([]tiebreaker.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return append([]tiebreaker.Participant(nil), r.s.participants[tiebreakerID]...), nil
}

func (r *TiebreakerRepository) ListStalledActive(_ context.Context, now time.Time) ([]tiebreaker.Tiebreaker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []tiebreaker.Tiebreaker
	for _, t := range r.s.tiebreakers {
		if t.Stalled(now) {
			out = append(out, t)
		}
	}

	return out, nil
}

func (r *TiebreakerRepository) CountUnresolvedByRound(_ context.Context, roundID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, t := range r.s.tiebreakers {
		if t.RoundID == roundID && (t.Status == tiebreaker.StatusPending || t.Status == tiebreaker.StatusActive) {
			n++
		}
	}

	return n, nil
}

func (r *TiebreakerRepository) GetOpenByRoundAndPlayer(_ context.Context, roundID, playerID string) (tiebreaker.Tiebreaker, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tiebreakers {
		if t.RoundID == roundID && t.PlayerID == playerID && t.Status != tiebreaker.StatusCancelled {
			return t, true, nil
		}
	}

	return tiebreaker.Tiebreaker{}, false, nil
}

func (r *TiebreakerRepository) ListResolvedUnowned(_ context.Context) ([]tiebreaker.Tiebreaker, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []tiebreaker.Tiebreaker
	for _, t := range r.s.tiebreakers {
		if t.Status != tiebreaker.StatusResolved {
			continue
		}
		if _, owned := r.s.owned[t.PlayerID]; owned {
			continue
		}
		out = append(out, t)
	}

	return out, nil
}

func (r *TiebreakerRepository) Raise(_ context.Context, tiebreakerID, teamID string, amount int64, now time.Time) (tiebreaker.Tiebreaker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiebreakers[tiebreakerID]
	if !ok {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("tiebreaker %s not found", tiebreakerID)
	}

	participants := r.s.participants[tiebreakerID]
	idx := -1
	for i := range participants {
		if participants[i].TeamID == teamID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: team=%s", tiebreaker.ErrNotParticipant, teamID)
	}

	if err := tiebreaker.ValidateRaise(t, participants[idx], amount); err != nil {
		return tiebreaker.Tiebreaker{}, err
	}

	participants[idx].CurrentBid = amount
	t.CurrentHighestBid = amount
	t.CurrentHighestTeam = teamID
	t.LastActivityTime = now.UTC()
	r.s.tiebreakers[tiebreakerID] = t

	return t, nil
}

func (r *TiebreakerRepository) Withdraw(_ context.Context, tiebreakerID, teamID string, now time.Time) (tiebreaker.Tiebreaker, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiebreakers[tiebreakerID]
	if !ok {
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("tiebreaker %s not found", tiebreakerID)
	}

	participants := r.s.participants[tiebreakerID]
	if err := tiebreaker.ValidateWithdraw(t, participants, teamID); err != nil {
		return tiebreaker.Tiebreaker{}, false, err
	}

	for i := range participants {
		if participants[i].TeamID == teamID {
			participants[i].Status = tiebreaker.ParticipantWithdrawn
			break
		}
	}
	t.LastActivityTime = now.UTC()

	winner, decided := tiebreaker.ResolveWinner(participants)
	if decided {
		t.Status = tiebreaker.StatusResolved
		t.Resolution = tiebreaker.ResolutionElimination
		t.WinnerTeamID = winner.TeamID
		t.WinningAmount = winner.CurrentBid
	}
	r.s.tiebreakers[tiebreakerID] = t

	return t, decided, nil
}

func (r *TiebreakerRepository) ForceResolve(_ context.Context, tiebreakerID string, now time.Time) (tiebreaker.Tiebreaker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiebreakers[tiebreakerID]
	if !ok {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("tiebreaker %s not found", tiebreakerID)
	}
	if t.Status != tiebreaker.StatusActive {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: status=%s", tiebreaker.ErrTiebreakerNotActive, t.Status)
	}
	if t.CurrentHighestTeam == "" {
		return tiebreaker.Tiebreaker{}, tiebreaker.ErrNoStandingLeader
	}

	t.Status = tiebreaker.StatusResolved
	t.Resolution = tiebreaker.ResolutionForcedTimeout
	t.WinnerTeamID = t.CurrentHighestTeam
	t.WinningAmount = t.CurrentHighestBid
	t.LastActivityTime = now.UTC()
	r.s.tiebreakers[tiebreakerID] = t

	return t, nil
}

func (r *TiebreakerRepository) Cancel(_ context.Context, tiebreakerID string, now time.Time) (tiebreaker.Tiebreaker, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiebreakers[tiebreakerID]
	if !ok {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("tiebreaker %s not found", tiebreakerID)
	}
	if t.Status != tiebreaker.StatusPending && t.Status != tiebreaker.StatusActive {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: status=%s", tiebreaker.ErrTiebreakerNotActive, t.Status)
	}

	t.Status = tiebreaker.StatusCancelled
	t.LastActivityTime = now.UTC()
	r.s.tiebreakers[tiebreakerID] = t

	return t, nil
}
