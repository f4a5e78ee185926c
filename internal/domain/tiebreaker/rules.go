package tiebreaker

import "fmt"

// ValidateRaise checks a raise attempt against the current tiebreaker state.
// Callers must evaluate it inside the same store transaction that re-read the
// state, so a raise that lost a race is rejected rather than applied over a
// newer highest bid.
func ValidateRaise(t Tiebreaker, p Participant, amount int64) error {
	if t.Status != StatusActive {
		return fmt.Errorf("%w: status=%s", ErrTiebreakerNotActive, t.Status)
	}
	if p.Status != ParticipantActive {
		return ErrAlreadyWithdrawn
	}
	if t.CurrentHighestTeam == p.TeamID {
		return ErrAlreadyHighest
	}
	if amount <= t.CurrentHighestBid {
		return fmt.Errorf("%w: amount=%d current=%d", ErrBidTooLow, amount, t.CurrentHighestBid)
	}

	return nil
}

// ValidateWithdraw checks a withdrawal attempt. The forced final participant
// can never withdraw; resolution happens around them instead.
func ValidateWithdraw(t Tiebreaker, participants []Participant, teamID string) error {
	if t.Status != StatusActive {
		return fmt.Errorf("%w: status=%s", ErrTiebreakerNotActive, t.Status)
	}

	var target *Participant
	for i := range participants {
		if participants[i].TeamID == teamID {
			target = &participants[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: team=%s", ErrNotParticipant, teamID)
	}
	if target.Status != ParticipantActive {
		return ErrAlreadyWithdrawn
	}
	if countActive(participants) <= 1 {
		return ErrCannotWithdrawSoleParticipant
	}

	return nil
}

// ResolveWinner reports whether the tiebreaker is decided: exactly one
// participant still active. The winner takes their own current bid, which is
// the tied amount when no raise ever occurred. Must be evaluated immediately
// after every withdrawal, not on a timer.
func ResolveWinner(participants []Participant) (Participant, bool) {
	var winner Participant
	active := 0
	for _, p := range participants {
		if p.Status == ParticipantActive {
			winner = p
			active++
		}
	}
	if active != 1 {
		return Participant{}, false
	}

	return winner, true
}

func countActive(participants []Participant) int {
	n := 0
	for _, p := range participants {
		if p.Status == ParticipantActive {
			n++
		}
	}
	return n
}
