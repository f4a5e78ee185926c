package auction

import (
	"fmt"
	"time"
)

type RoundStatus string

const (
	RoundStatusActive    RoundStatus = "active"
	RoundStatusClosed    RoundStatus = "closed"
	RoundStatusFinalized RoundStatus = "finalized"
)

type BidStatus string

const (
	BidStatusActive     BidStatus = "active"
	BidStatusWon        BidStatus = "won"
	BidStatusLost       BidStatus = "lost"
	BidStatusSuperseded BidStatus = "superseded"
)

// Round is a time-boxed bidding window for a position group within a season.
// Rounds are created by the external scheduler; this core only transitions
// active -> closed -> finalized.
type Round struct {
	ID             string
	Season         string
	PositionGroup  string
	Status         RoundStatus
	MaxBidsPerTeam int
	SealedBids     bool
	EndTime        time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Round) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("round id is required")
	}
	if r.Season == "" {
		return fmt.Errorf("round season is required")
	}
	if r.MaxBidsPerTeam < 1 {
		return fmt.Errorf("round max bids per team must be >= 1")
	}
	if r.EndTime.IsZero() {
		return fmt.Errorf("round end time is required")
	}

	return nil
}

func (r Round) IsOpenAt(now time.Time) bool {
	return r.Status == RoundStatusActive && now.Before(r.EndTime)
}

// Bid is a single team's offer for one player within a round. Immutable after
// round close except for its status transition. Nonce is the client-supplied
// idempotency key; replaying it returns the original bid.
type Bid struct {
	ID       string
	RoundID  string
	TeamID   string
	PlayerID string
	Amount   int64
	// DeclaredCeiling gates sealed bids at intake time; equals Amount for
	// open rounds.
	DeclaredCeiling int64
	Sealed          bool
	Status          BidStatus
	Nonce           string
	CreatedAt       time.Time
}

func (b Bid) Validate() error {
	if b.RoundID == "" {
		return fmt.Errorf("bid round id is required")
	}
	if b.TeamID == "" {
		return fmt.Errorf("bid team id is required")
	}
	if b.PlayerID == "" {
		return fmt.Errorf("bid player id is required")
	}
	if b.Amount <= 0 {
		return fmt.Errorf("bid amount must be > 0")
	}
	if b.DeclaredCeiling < b.Amount {
		return fmt.Errorf("bid declared ceiling cannot be below amount")
	}
	if b.Nonce == "" {
		return fmt.Errorf("bid nonce is required")
	}

	return nil
}
