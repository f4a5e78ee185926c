package auction

import (
	"context"
	"errors"
)

var (
	// ErrStaleState is returned by repositories when a compare-and-swap
	// guard fails because another instance changed the row first.
	ErrStaleState = errors.New("auction state changed concurrently")
	// ErrRoundNotOpen rejects intake against a round that is closed,
	// finalized, or past its end time.
	ErrRoundNotOpen = errors.New("round is not open for bids")
	// ErrBidLimitExceeded rejects intake once a team holds the per-round
	// maximum of active bids.
	ErrBidLimitExceeded = errors.New("per-round bid limit reached")
)

// RoundRepository describes round persistence needs from use cases.
type RoundRepository interface {
	GetByID(ctx context.Context, roundID string) (Round, bool, error)
	// ListExpiredActive returns active rounds whose end time has passed.
	ListExpiredActive(ctx context.Context) ([]Round, error)
	// TransitionStatus performs a guarded status swap and returns
	// ErrStaleState when the round is no longer in the expected status.
	TransitionStatus(ctx context.Context, roundID string, from, to RoundStatus) error
}

// BidRepository describes bid persistence needs from use cases.
type BidRepository interface {
	// Create inserts the bid unless one with the same (round, team, nonce)
	// already exists, in which case the existing bid is returned with
	// replayed=true and no row is written. The per-team bid count and the
	// budget ceiling are re-checked inside the same transaction; races lost
	// there surface as ErrBidLimitExceeded or budget.ErrInsufficientFunds.
	Create(ctx context.Context, bid Bid, maxBidsPerTeam int) (created Bid, replayed bool, err error)
	GetByID(ctx context.Context, bidID string) (Bid, bool, error)
	ListByRound(ctx context.Context, roundID string) ([]Bid, error)
	CountActiveByRoundAndTeam(ctx context.Context, roundID, teamID string) (int, error)
	// SumActiveByTeam returns the total amount a team has committed in
	// still-active bids across open rounds for a season.
	SumActiveByTeam(ctx context.Context, season, teamID string) (int64, error)
	UpdateStatuses(ctx context.Context, bidIDs []string, status BidStatus) error
}
