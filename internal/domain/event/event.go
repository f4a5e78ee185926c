// Package event defines the closed set of domain events the auction core
// emits. Delivery is best-effort; publishing never blocks or fails the store
// transaction that produced the event.
package event

import (
	"context"
	"time"
)

type Kind string

const (
	KindBidPlaced          Kind = "bid_placed"
	KindTiebreakerStarted  Kind = "tiebreaker_started"
	KindTiebreakerBid      Kind = "tiebreaker_bid"
	KindTiebreakerWithdraw Kind = "tiebreaker_withdraw"
	KindTiebreakerComplete Kind = "tiebreaker_complete"
	KindPlayerWon          Kind = "player_won"
	KindPlayerLost         Kind = "player_lost"
)

// Event is implemented by every variant below and by nothing else.
type Event interface {
	EventKind() Kind
	OccurredAt() time.Time
}

type BidPlaced struct {
	BidID    string    `json:"bid_id"`
	RoundID  string    `json:"round_id"`
	TeamID   string    `json:"team_id"`
	PlayerID string    `json:"player_id"`
	Amount   int64     `json:"amount"`
	Sealed   bool      `json:"sealed"`
	At       time.Time `json:"at"`
}

type TiebreakerStarted struct {
	TiebreakerID string    `json:"tiebreaker_id"`
	RoundID      string    `json:"round_id"`
	PlayerID     string    `json:"player_id"`
	TiedAmount   int64     `json:"tied_amount"`
	TeamIDs      []string  `json:"team_ids"`
	At           time.Time `json:"at"`
}

type TiebreakerBid struct {
	TiebreakerID string    `json:"tiebreaker_id"`
	TeamID       string    `json:"team_id"`
	Amount       int64     `json:"amount"`
	At           time.Time `json:"at"`
}

// TiebreakerWithdraw carries Remaining = -1 when the participant count could
// not be read after the withdrawal committed.
type TiebreakerWithdraw struct {
	TiebreakerID string    `json:"tiebreaker_id"`
	TeamID       string    `json:"team_id"`
	Remaining    int       `json:"remaining"`
	At           time.Time `json:"at"`
}

type TiebreakerComplete struct {
	TiebreakerID string    `json:"tiebreaker_id"`
	PlayerID     string    `json:"player_id"`
	WinnerTeamID string    `json:"winner_team_id"`
	Amount       int64     `json:"amount"`
	Forced       bool      `json:"forced"`
	At           time.Time `json:"at"`
}

type PlayerWon struct {
	RoundID  string    `json:"round_id"`
	TeamID   string    `json:"team_id"`
	PlayerID string    `json:"player_id"`
	Price    int64     `json:"price"`
	At       time.Time `json:"at"`
}

type PlayerLost struct {
	RoundID  string    `json:"round_id"`
	TeamID   string    `json:"team_id"`
	PlayerID string    `json:"player_id"`
	BidID    string    `json:"bid_id"`
	At       time.Time `json:"at"`
}

func (e BidPlaced) EventKind() Kind          { return KindBidPlaced }
func (e TiebreakerStarted) EventKind() Kind  { return KindTiebreakerStarted }
func (e TiebreakerBid) EventKind() Kind      { return KindTiebreakerBid }
func (e TiebreakerWithdraw) EventKind() Kind { return KindTiebreakerWithdraw }
func (e TiebreakerComplete) EventKind() Kind { return KindTiebreakerComplete }
func (e PlayerWon) EventKind() Kind          { return KindPlayerWon }
func (e PlayerLost) EventKind() Kind         { return KindPlayerLost }

func (e BidPlaced) OccurredAt() time.Time          { return e.At }
func (e TiebreakerStarted) OccurredAt() time.Time  { return e.At }
func (e TiebreakerBid) OccurredAt() time.Time      { return e.At }
func (e TiebreakerWithdraw) OccurredAt() time.Time { return e.At }
func (e TiebreakerComplete) OccurredAt() time.Time { return e.At }
func (e PlayerWon) OccurredAt() time.Time          { return e.At }
func (e PlayerLost) OccurredAt() time.Time         { return e.At }

// Publisher is the narrow interface the notifier adapter implements.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}
