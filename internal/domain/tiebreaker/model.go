package tiebreaker

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusResolved  Status = "resolved"
	StatusCancelled Status = "cancelled"
)

type ParticipantStatus string

const (
	ParticipantActive    ParticipantStatus = "active"
	ParticipantWithdrawn ParticipantStatus = "withdrawn"
)

// Resolution distinguishes a genuine elimination win from the stall-timeout
// escape hatch in the audit trail.
type Resolution string

const (
	ResolutionNone          Resolution = ""
	ResolutionElimination   Resolution = "elimination"
	ResolutionForcedTimeout Resolution = "forced_timeout"
)

var (
	ErrTiebreakerNotActive           = errors.New("tiebreaker is not active")
	ErrBidTooLow                     = errors.New("raise does not beat current highest bid")
	ErrAlreadyWithdrawn              = errors.New("participant already withdrew")
	ErrAlreadyHighest                = errors.New("participant already holds the highest bid")
	ErrNotParticipant                = errors.New("team is not a tiebreaker participant")
	ErrCannotWithdrawSoleParticipant = errors.New("sole remaining participant cannot withdraw")
	ErrNoStandingLeader              = errors.New("no raise has established a leader to force-resolve to")
)

// Tiebreaker is a sequential elimination sub-auction among teams whose bids
// tied at the top amount for one player.
type Tiebreaker struct {
	ID                 string
	RoundID            string
	PlayerID           string
	TiedAmount         int64
	Status             Status
	Resolution         Resolution
	CurrentHighestBid  int64
	CurrentHighestTeam string // empty until the first raise
	WinnerTeamID       string
	WinningAmount      int64
	StartTime          time.Time
	LastActivityTime   time.Time
	MaxEndTime         time.Time
}

type Participant struct {
	TiebreakerID string
	TeamID       string
	Status       ParticipantStatus
	CurrentBid   int64
}

func (t Tiebreaker) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tiebreaker id is required")
	}
	if t.RoundID == "" {
		return fmt.Errorf("tiebreaker round id is required")
	}
	if t.PlayerID == "" {
		return fmt.Errorf("tiebreaker player id is required")
	}
	if t.TiedAmount <= 0 {
		return fmt.Errorf("tiebreaker tied amount must be > 0")
	}

	return nil
}

// Stalled reports whether the stall-timeout escape hatch applies: still
// active past the maximum end time.
func (t Tiebreaker) Stalled(now time.Time) bool {
	return t.Status == StatusActive && !t.MaxEndTime.IsZero() && now.After(t.MaxEndTime)
}
