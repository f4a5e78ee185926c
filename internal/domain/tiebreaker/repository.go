package tiebreaker

import (
	"context"
	"time"
)

// Repository describes tiebreaker persistence. State-changing operations run
// inside a single store transaction that re-reads tiebreaker and participant
// rows under row locks and applies the package rules before writing, so
// concurrent raises and withdrawals are rejected instead of overwritten.
type Repository interface {
	Create(ctx context.Context, t Tiebreaker, participants []Participant) error
	GetByID(ctx context.Context, tiebreakerID string) (Tiebreaker, bool, error)
	ListParticipants(ctx context.Context, tiebreakerID string) ([]Participant, error)
	ListStalledActive(ctx context.Context, now time.Time) ([]Tiebreaker, error)
	CountUnresolvedByRound(ctx context.Context, roundID string) (int, error)

	// GetOpenByRoundAndPlayer returns the non-cancelled tiebreaker for one
	// (round, player) pair, if any. Round close consults it so a retried
	// close never opens a second tiebreaker for the same tie.
	GetOpenByRoundAndPlayer(ctx context.Context, roundID, playerID string) (Tiebreaker, bool, error)

	// ListResolvedUnowned returns resolved tiebreakers whose player has no
	// ownership record yet: a crash landed between resolution and the
	// finalize transaction. The stall sweep re-drives these.
	ListResolvedUnowned(ctx context.Context) ([]Tiebreaker, error)

	// Raise records a strictly higher bid by an active, non-leading
	// participant and promotes them to current highest.
	Raise(ctx context.Context, tiebreakerID, teamID string, amount int64, now time.Time) (Tiebreaker, error)

	// Withdraw marks the participant withdrawn and, when exactly one active
	// participant remains, resolves the tiebreaker by elimination in the
	// same transaction. resolved reports whether that happened.
	Withdraw(ctx context.Context, tiebreakerID, teamID string, now time.Time) (t Tiebreaker, resolved bool, err error)

	// ForceResolve ends a stalled tiebreaker in favor of the current
	// highest bidder, recording ResolutionForcedTimeout. Fails with
	// ErrTiebreakerNotActive if the tiebreaker resolved in the meantime and
	// with ErrNoStandingLeader when no raise ever established a leader.
	ForceResolve(ctx context.Context, tiebreakerID string, now time.Time) (Tiebreaker, error)

	// Cancel terminally cancels an unresolved tiebreaker.
	Cancel(ctx context.Context, tiebreakerID string, now time.Time) (Tiebreaker, error)
}
