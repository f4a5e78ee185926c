package auction

import "sort"

type OutcomeKind string

const (
	// OutcomeWon means exactly one bid held the maximum amount.
	OutcomeWon OutcomeKind = "won"
	// OutcomeTied means two or more bids shared the maximum amount and a
	// tiebreaker is required.
	OutcomeTied OutcomeKind = "tied"
)

// PlayerOutcome is the per-player result of closing a round.
type PlayerOutcome struct {
	PlayerID   string
	Kind       OutcomeKind
	TopAmount  int64
	WinningBid Bid      // set when Kind == OutcomeWon
	TiedBids   []Bid    // set when Kind == OutcomeTied, ordered by team id
	LosingBids []Bid    // every bid below the top amount
	TiedTeams  []string // convenience view over TiedBids
}

// ComputeOutcomes derives round outcomes from bid rows alone so that a
// retried close recomputes identical results. Only active bids participate;
// ties are decided by amount only, never by timestamp.
func ComputeOutcomes(bids []Bid) []PlayerOutcome {
	byPlayer := make(map[string][]Bid)
	for _, b := range bids {
		if b.Status != BidStatusActive {
			continue
		}
		byPlayer[b.PlayerID] = append(byPlayer[b.PlayerID], b)
	}

	playerIDs := make([]string, 0, len(byPlayer))
	for playerID := range byPlayer {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Strings(playerIDs)

	outcomes := make([]PlayerOutcome, 0, len(playerIDs))
	for _, playerID := range playerIDs {
		outcomes = append(outcomes, computePlayerOutcome(playerID, byPlayer[playerID]))
	}

	return outcomes
}

func computePlayerOutcome(playerID string, bids []Bid) PlayerOutcome {
	var top int64
	for _, b := range bids {
		if b.Amount > top {
			top = b.Amount
		}
	}

	var topBids, losers []Bid
	for _, b := range bids {
		if b.Amount == top {
			topBids = append(topBids, b)
			continue
		}
		losers = append(losers, b)
	}

	sort.Slice(topBids, func(i, j int) bool { return topBids[i].TeamID < topBids[j].TeamID })

	outcome := PlayerOutcome{
		PlayerID:   playerID,
		TopAmount:  top,
		LosingBids: losers,
	}

	if len(topBids) == 1 {
		outcome.Kind = OutcomeWon
		outcome.WinningBid = topBids[0]
		return outcome
	}

	outcome.Kind = OutcomeTied
	outcome.TiedBids = topBids
	outcome.TiedTeams = make([]string, 0, len(topBids))
	for _, b := range topBids {
		outcome.TiedTeams = append(outcome.TiedTeams, b.TeamID)
	}

	return outcome
}
