package tiebreaker

import (
	"errors"
	"testing"
)

func activeTiebreaker() Tiebreaker {
	return Tiebreaker{
		ID:                "tb-1",
		RoundID:           "round-1",
		PlayerID:          "p1",
		TiedAmount:        200,
		Status:            StatusActive,
		CurrentHighestBid: 200,
	}
}

func TestValidateRaise(t *testing.T) {
	t.Parallel()

	tb := activeTiebreaker()
	p := Participant{TiebreakerID: tb.ID, TeamID: "team-a", Status: ParticipantActive, CurrentBid: 200}

	if err := ValidateRaise(tb, p, 210); err != nil {
		t.Fatalf("expected valid raise, got %v", err)
	}

	t.Run("rejects raise at or below current highest", func(t *testing.T) {
		if err := ValidateRaise(tb, p, 200); !errors.Is(err, ErrBidTooLow) {
			t.Fatalf("expected ErrBidTooLow, got %v", err)
		}
		if err := ValidateRaise(tb, p, 150); !errors.Is(err, ErrBidTooLow) {
			t.Fatalf("expected ErrBidTooLow, got %v", err)
		}
	})

	t.Run("rejects current leader raising over themselves", func(t *testing.T) {
		led := tb
		led.CurrentHighestTeam = "team-a"
		led.CurrentHighestBid = 210
		if err := ValidateRaise(led, p, 220); !errors.Is(err, ErrAlreadyHighest) {
			t.Fatalf("expected ErrAlreadyHighest, got %v", err)
		}
	})

	t.Run("rejects withdrawn participant", func(t *testing.T) {
		gone := p
		gone.Status = ParticipantWithdrawn
		if err := ValidateRaise(tb, gone, 210); !errors.Is(err, ErrAlreadyWithdrawn) {
			t.Fatalf("expected ErrAlreadyWithdrawn, got %v", err)
		}
	})

	t.Run("rejects inactive tiebreaker", func(t *testing.T) {
		done := tb
		done.Status = StatusResolved
		if err := ValidateRaise(done, p, 210); !errors.Is(err, ErrTiebreakerNotActive) {
			t.Fatalf("expected ErrTiebreakerNotActive, got %v", err)
		}
	})
}

func TestValidateWithdraw(t *testing.T) {
	t.Parallel()

	tb := activeTiebreaker()
	participants := []Participant{
		{TiebreakerID: tb.ID, TeamID: "team-a", Status: ParticipantActive, CurrentBid: 200},
		{TiebreakerID: tb.ID, TeamID: "team-b", Status: ParticipantActive, CurrentBid: 200},
	}

	if err := ValidateWithdraw(tb, participants, "team-a"); err != nil {
		t.Fatalf("expected valid withdraw, got %v", err)
	}

	t.Run("rejects non participant", func(t *testing.T) {
		if err := ValidateWithdraw(tb, participants, "team-z"); !errors.Is(err, ErrNotParticipant) {
			t.Fatalf("expected ErrNotParticipant, got %v", err)
		}
	})

	t.Run("rejects double withdraw", func(t *testing.T) {
		withdrawn := []Participant{
			{TiebreakerID: tb.ID, TeamID: "team-a", Status: ParticipantWithdrawn, CurrentBid: 200},
			{TiebreakerID: tb.ID, TeamID: "team-b", Status: ParticipantActive, CurrentBid: 200},
		}
		if err := ValidateWithdraw(tb, withdrawn, "team-a"); !errors.Is(err, ErrAlreadyWithdrawn) {
			t.Fatalf("expected ErrAlreadyWithdrawn, got %v", err)
		}
	})

	t.Run("sole remaining participant cannot withdraw", func(t *testing.T) {
		last := []Participant{
			{TiebreakerID: tb.ID, TeamID: "team-a", Status: ParticipantActive, CurrentBid: 200},
			{TiebreakerID: tb.ID, TeamID: "team-b", Status: ParticipantWithdrawn, CurrentBid: 200},
		}
		if err := ValidateWithdraw(tb, last, "team-a"); !errors.Is(err, ErrCannotWithdrawSoleParticipant) {
			t.Fatalf("expected ErrCannotWithdrawSoleParticipant, got %v", err)
		}
	})

	t.Run("rejects inactive tiebreaker", func(t *testing.T) {
		cancelled := tb
		cancelled.Status = StatusCancelled
		if err := ValidateWithdraw(cancelled, participants, "team-a"); !errors.Is(err, ErrTiebreakerNotActive) {
			t.Fatalf("expected ErrTiebreakerNotActive, got %v", err)
		}
	})
}

func TestResolveWinner(t *testing.T) {
	t.Parallel()

	t.Run("undecided while two remain active", func(t *testing.T) {
		participants := []Participant{
			{TeamID: "team-a", Status: ParticipantActive, CurrentBid: 200},
			{TeamID: "team-b", Status: ParticipantActive, CurrentBid: 200},
		}
		if _, ok := ResolveWinner(participants); ok {
			t.Fatalf("expected no winner with two active participants")
		}
	})

	t.Run("last active participant wins at own bid", func(t *testing.T) {
		participants := []Participant{
			{TeamID: "team-a", Status: ParticipantWithdrawn, CurrentBid: 200},
			{TeamID: "team-b", Status: ParticipantActive, CurrentBid: 200},
			{TeamID: "team-c", Status: ParticipantWithdrawn, CurrentBid: 250},
		}
		winner, ok := ResolveWinner(participants)
		if !ok {
			t.Fatalf("expected a winner")
		}
		// No raise happened for team-b, so they win at the tied amount.
		if winner.TeamID != "team-b" || winner.CurrentBid != 200 {
			t.Fatalf("unexpected winner: %+v", winner)
		}
	})

	t.Run("no winner when everyone withdrew", func(t *testing.T) {
		participants := []Participant{
			{TeamID: "team-a", Status: ParticipantWithdrawn},
			{TeamID: "team-b", Status: ParticipantWithdrawn},
		}
		if _, ok := ResolveWinner(participants); ok {
			t.Fatalf("expected no winner when all withdrew")
		}
	})
}

func TestTiebreakerStalled(t *testing.T) {
	t.Parallel()

	tb := activeTiebreaker()
	now := tb.StartTime

	if tb.Stalled(now) {
		t.Fatalf("tiebreaker without max end time should never stall")
	}
}
