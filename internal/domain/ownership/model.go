package ownership

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrPlayerAlreadyOwned is returned when a finalize attempt targets a player
// that already has an ownership record for a different team.
var ErrPlayerAlreadyOwned = errors.New("player already owned")

// Record is created exactly once per (team, player) by the finalizer. The
// player's assignment flag and the team budget are updated in the same store
// transaction that writes it.
type Record struct {
	ID            string
	TeamID        string
	PlayerID      string
	PurchasePrice int64
	AcquiredAt    time.Time
}

type LedgerKind string

const (
	LedgerKindAuctionWin    LedgerKind = "auction_win"
	LedgerKindTiebreakerWin LedgerKind = "tiebreaker_win"
	LedgerKindForcedTimeout LedgerKind = "forced_timeout_win"
)

// LedgerEntry is an append-only audit row for every committed debit.
type LedgerEntry struct {
	ID           string
	TeamID       string
	PlayerID     string
	RoundID      string
	TiebreakerID string
	Season       string
	Amount       int64
	Kind         LedgerKind
	CreatedAt    time.Time
}

// FinalizeRequest carries one resolved (team, player, price) outcome into the
// atomic commit step.
type FinalizeRequest struct {
	RecordID      string
	LedgerEntryID string
	RoundID       string
	TiebreakerID  string
	// Season may be left empty; implementations fall back to the round's
	// season for the budget and ledger rows.
	Season        string
	TeamID        string
	PlayerID      string
	Price         int64
	WinningBidID  string
	LosingBidIDs  []string
	Kind          LedgerKind
	Now           time.Time
}

func (r FinalizeRequest) Validate() error {
	if r.RoundID == "" {
		return fmt.Errorf("finalize round id is required")
	}
	if r.TeamID == "" {
		return fmt.Errorf("finalize team id is required")
	}
	if r.PlayerID == "" {
		return fmt.Errorf("finalize player id is required")
	}
	if r.Price <= 0 {
		return fmt.Errorf("finalize price must be > 0")
	}

	return nil
}

// Repository describes ownership persistence. Finalize runs steps (budget
// re-check, record insert, conditional debit, player assignment, bid status
// flips, ledger append) in one transaction; a replay for an already-assigned
// player returns the existing record with replayed=true and writes nothing.
type Repository interface {
	Finalize(ctx context.Context, req FinalizeRequest) (rec Record, replayed bool, err error)
	GetByPlayer(ctx context.Context, playerID string) (Record, bool, error)
	ListLedgerByTeam(ctx context.Context, teamID, season string) ([]LedgerEntry, error)
}
