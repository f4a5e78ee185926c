// Package memory holds a mutex-guarded in-memory ledger store used by
// service tests and local development. Finalize and the tiebreaker
// transitions span several entities, so one Store backs every repository
// interface and each mutating call runs under a single lock, mirroring the
// single-transaction guarantee of the SQL implementation.
package memory

import (
	"sync"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
)

type Store struct {
	mu           sync.RWMutex
	rounds       map[string]auction.Round
	bids         map[string]auction.Bid
	budgets      map[string]budget.TeamBudget
	tiebreakers  map[string]tiebreaker.Tiebreaker
	participants map[string][]tiebreaker.Participant
	owned        map[string]ownership.Record
	ledger       []ownership.LedgerEntry
	assigned     map[string]bool

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		rounds:       make(map[string]auction.Round),
		bids:         make(map[string]auction.Bid),
		budgets:      make(map[string]budget.TeamBudget),
		tiebreakers:  make(map[string]tiebreaker.Tiebreaker),
		participants: make(map[string][]tiebreaker.Participant),
		owned:        make(map[string]ownership.Record),
		assigned:     make(map[string]bool),
		now:          time.Now,
	}
}

// SetNow pins the store clock for tests.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) PutRound(r auction.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.ID] = r
}

func (s *Store) PutBudget(b budget.TeamBudget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[budgetKey(b.TeamID, b.Season)] = b
}

// Ledger returns a copy of the append-only trail for assertions.
func (s *Store) Ledger() []ownership.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ownership.LedgerEntry(nil), s.ledger...)
}

func budgetKey(teamID, season string) string {
	return teamID + "::" + season
}
