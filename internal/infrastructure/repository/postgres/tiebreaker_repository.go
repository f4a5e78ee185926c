package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
)

type TiebreakerRepository struct {
	db *sqlx.DB
}

func NewTiebreakerRepository(db *sqlx.DB) *TiebreakerRepository {
	return &TiebreakerRepository{db: db}
}

const selectTiebreakerColumns = `
SELECT id, public_id, round_public_id, player_public_id, tied_amount, status, resolution,
       current_highest_bid, current_highest_team, winner_team_id, winning_amount,
       start_time, last_activity_time, max_end_time
FROM tiebreakers`

const selectParticipantColumns = `
SELECT id, tiebreaker_public_id, team_id, status, current_bid
FROM tiebreaker_participants`

func (r *TiebreakerRepository) Create(ctx context.Context, t tiebreaker.Tiebreaker, participants []tiebreaker.Participant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx for tiebreaker create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const insertQuery = `
INSERT INTO tiebreakers (public_id, round_public_id, player_public_id, tied_amount, status, resolution,
                         current_highest_bid, current_highest_team, start_time, last_activity_time, max_end_time)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9, $10, $11)`

	_, err = tx.ExecContext(ctx, insertQuery,
		t.ID, t.RoundID, t.PlayerID, t.TiedAmount, string(t.Status), string(t.Resolution),
		t.CurrentHighestBid, t.CurrentHighestTeam, t.StartTime, t.LastActivityTime, t.MaxEndTime,
	)
	if err != nil {
		return fmt.Errorf("insert tiebreaker: %w", err)
	}

	const insertParticipantQuery = `
INSERT INTO tiebreaker_participants (tiebreaker_public_id, team_id, status, current_bid)
VALUES ($1, $2, $3, $4)`

	for _, p := range participants {
		if _, err := tx.ExecContext(ctx, insertParticipantQuery, t.ID, p.TeamID, string(p.Status), p.CurrentBid); err != nil {
			return fmt.Errorf("insert tiebreaker participant team=%s: %w", p.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tiebreaker create tx: %w", err)
	}

	return nil
}

func (r *TiebreakerRepository) GetByID(ctx context.Context, tiebreakerID string) (tiebreaker.Tiebreaker, bool, error) {
	const query = selectTiebreakerColumns + `
WHERE public_id = $1`

	var row tiebreakerTableModel
	if err := r.db.GetContext(ctx, &row, query, tiebreakerID); err != nil {
		if isNotFound(err) {
			return tiebreaker.Tiebreaker{}, false, nil
		}
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("get tiebreaker by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TiebreakerRepository) ListParticipants(ctx context.Context, tiebreakerID string) ([]tiebreaker.Participant, error) {
	const query = selectParticipantColumns + `
WHERE tiebreaker_public_id = $1
ORDER BY id`

	var rows []participantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, tiebreakerID); err != nil {
		return nil, fmt.Errorf("list tiebreaker participants: %w", err)
	}

	out := make([]tiebreaker.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TiebreakerRepository) ListStalledActive(ctx context.Context, now time.Time) ([]tiebreaker.Tiebreaker, error) {
	const query = selectTiebreakerColumns + `
WHERE status = $1
  AND max_end_time < $2
ORDER BY max_end_time`

	var rows []tiebreakerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, string(tiebreaker.StatusActive), now); err != nil {
		return nil, fmt.Errorf("list stalled tiebreakers: %w", err)
	}

	out := make([]tiebreaker.Tiebreaker, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TiebreakerRepository) CountUnresolvedByRound(ctx context.Context, roundID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM tiebreakers
WHERE round_public_id = $1
  AND status IN ($2, $3)`

	var n int
	err := r.db.GetContext(ctx, &n, query, roundID, string(tiebreaker.StatusPending), string(tiebreaker.StatusActive))
	if err != nil {
		return 0, fmt.Errorf("count unresolved tiebreakers: %w", err)
	}

	return n, nil
}

func (r *TiebreakerRepository) GetOpenByRoundAndPlayer(ctx context.Context, roundID, playerID string) (tiebreaker.Tiebreaker, bool, error) {
	const query = selectTiebreakerColumns + `
WHERE round_public_id = $1
  AND player_public_id = $2
  AND status <> $3`

	var row tiebreakerTableModel
	err := r.db.GetContext(ctx, &row, query, roundID, playerID, string(tiebreaker.StatusCancelled))
	if err != nil {
		if isNotFound(err) {
			return tiebreaker.Tiebreaker{}, false, nil
		}
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("get open tiebreaker by round and player: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *TiebreakerRepository) ListResolvedUnowned(ctx context.Context) ([]tiebreaker.Tiebreaker, error) {
	const query = selectTiebreakerColumns + `
WHERE status = $1
  AND NOT EXISTS (
      SELECT 1 FROM player_ownership o
      WHERE o.player_public_id = tiebreakers.player_public_id
  )
ORDER BY last_activity_time`

	var rows []tiebreakerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, string(tiebreaker.StatusResolved)); err != nil {
		return nil, fmt.Errorf("list resolved tiebreakers pending finalize: %w", err)
	}

	out := make([]tiebreaker.Tiebreaker, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// Raise re-reads the tiebreaker and participant under row locks, applies the
// raise rules, and promotes the bidder. A concurrent raise that committed
// first is visible after the lock is granted, so the rules see fresh state.
func (r *TiebreakerRepository) Raise(ctx context.Context, tiebreakerID, teamID string, amount int64, now time.Time) (tiebreaker.Tiebreaker, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("begin tx for tiebreaker raise: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := lockTiebreaker(ctx, tx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, err
	}

	const participantQuery = selectParticipantColumns + `
WHERE tiebreaker_public_id = $1
  AND team_id = $2
FOR UPDATE`

	var pRow participantTableModel
	if err := tx.GetContext(ctx, &pRow, participantQuery, tiebreakerID, teamID); err != nil {
		if isNotFound(err) {
			return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: team=%s", tiebreaker.ErrNotParticipant, teamID)
		}
		return tiebreaker.Tiebreaker{}, fmt.Errorf("lock tiebreaker participant: %w", err)
	}

	if err := tiebreaker.ValidateRaise(t, pRow.toDomain(), amount); err != nil {
		return tiebreaker.Tiebreaker{}, err
	}

	const updateParticipantQuery = `
UPDATE tiebreaker_participants
SET current_bid = $1
WHERE tiebreaker_public_id = $2
  AND team_id = $3`
	if _, err := tx.ExecContext(ctx, updateParticipantQuery, amount, tiebreakerID, teamID); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("update participant bid: %w", err)
	}

	const updateTiebreakerQuery = `
UPDATE tiebreakers
SET current_highest_bid = $1, current_highest_team = $2, last_activity_time = $3
WHERE public_id = $4`
	if _, err := tx.ExecContext(ctx, updateTiebreakerQuery, amount, teamID, now, tiebreakerID); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("update tiebreaker highest bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("commit tiebreaker raise tx: %w", err)
	}

	t.CurrentHighestBid = amount
	t.CurrentHighestTeam = teamID
	t.LastActivityTime = now
	return t, nil
}

// Withdraw marks the participant withdrawn and resolves by elimination in the
// same transaction when exactly one active participant remains.
func (r *TiebreakerRepository) Withdraw(ctx context.Context, tiebreakerID, teamID string, now time.Time) (tiebreaker.Tiebreaker, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("begin tx for tiebreaker withdraw: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := lockTiebreaker(ctx, tx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, false, err
	}

	const participantsQuery = selectParticipantColumns + `
WHERE tiebreaker_public_id = $1
ORDER BY id
FOR UPDATE`

	var pRows []participantTableModel
	if err := tx.SelectContext(ctx, &pRows, participantsQuery, tiebreakerID); err != nil {
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("lock tiebreaker participants: %w", err)
	}
	participants := make([]tiebreaker.Participant, 0, len(pRows))
	for _, row := range pRows {
		participants = append(participants, row.toDomain())
	}

	if err := tiebreaker.ValidateWithdraw(t, participants, teamID); err != nil {
		return tiebreaker.Tiebreaker{}, false, err
	}

	const withdrawQuery = `
UPDATE tiebreaker_participants
SET status = $1
WHERE tiebreaker_public_id = $2
  AND team_id = $3`
	if _, err := tx.ExecContext(ctx, withdrawQuery, string(tiebreaker.ParticipantWithdrawn), tiebreakerID, teamID); err != nil {
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("withdraw tiebreaker participant: %w", err)
	}

	for i := range participants {
		if participants[i].TeamID == teamID {
			participants[i].Status = tiebreaker.ParticipantWithdrawn
		}
	}
	t.LastActivityTime = now

	winner, decided := tiebreaker.ResolveWinner(participants)
	if decided {
		const resolveQuery = `
UPDATE tiebreakers
SET status = $1, resolution = $2, winner_team_id = $3, winning_amount = $4, last_activity_time = $5
WHERE public_id = $6`
		_, err := tx.ExecContext(ctx, resolveQuery,
			string(tiebreaker.StatusResolved), string(tiebreaker.ResolutionElimination),
			winner.TeamID, winner.CurrentBid, now, tiebreakerID,
		)
		if err != nil {
			return tiebreaker.Tiebreaker{}, false, fmt.Errorf("resolve tiebreaker by elimination: %w", err)
		}
		t.Status = tiebreaker.StatusResolved
		t.Resolution = tiebreaker.ResolutionElimination
		t.WinnerTeamID = winner.TeamID
		t.WinningAmount = winner.CurrentBid
	} else {
		const touchQuery = `
UPDATE tiebreakers
SET last_activity_time = $1
WHERE public_id = $2`
		if _, err := tx.ExecContext(ctx, touchQuery, now, tiebreakerID); err != nil {
			return tiebreaker.Tiebreaker{}, false, fmt.Errorf("touch tiebreaker activity: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return tiebreaker.Tiebreaker{}, false, fmt.Errorf("commit tiebreaker withdraw tx: %w", err)
	}

	return t, decided, nil
}

func (r *TiebreakerRepository) ForceResolve(ctx context.Context, tiebreakerID string, now time.Time) (tiebreaker.Tiebreaker, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("begin tx for tiebreaker force resolve: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := lockTiebreaker(ctx, tx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, err
	}
	if t.Status != tiebreaker.StatusActive {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: status=%s", tiebreaker.ErrTiebreakerNotActive, t.Status)
	}
	if t.CurrentHighestTeam == "" {
		return tiebreaker.Tiebreaker{}, tiebreaker.ErrNoStandingLeader
	}

	const resolveQuery = `
UPDATE tiebreakers
SET status = $1, resolution = $2, winner_team_id = $3, winning_amount = $4, last_activity_time = $5
WHERE public_id = $6`
	_, err = tx.ExecContext(ctx, resolveQuery,
		string(tiebreaker.StatusResolved), string(tiebreaker.ResolutionForcedTimeout),
		t.CurrentHighestTeam, t.CurrentHighestBid, now, tiebreakerID,
	)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("force resolve tiebreaker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("commit tiebreaker force resolve tx: %w", err)
	}

	t.Status = tiebreaker.StatusResolved
	t.Resolution = tiebreaker.ResolutionForcedTimeout
	t.WinnerTeamID = t.CurrentHighestTeam
	t.WinningAmount = t.CurrentHighestBid
	t.LastActivityTime = now
	return t, nil
}

func (r *TiebreakerRepository) Cancel(ctx context.Context, tiebreakerID string, now time.Time) (tiebreaker.Tiebreaker, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("begin tx for tiebreaker cancel: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	t, err := lockTiebreaker(ctx, tx, tiebreakerID)
	if err != nil {
		return tiebreaker.Tiebreaker{}, err
	}
	if t.Status != tiebreaker.StatusPending && t.Status != tiebreaker.StatusActive {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("%w: status=%s", tiebreaker.ErrTiebreakerNotActive, t.Status)
	}

	const cancelQuery = `
UPDATE tiebreakers
SET status = $1, last_activity_time = $2
WHERE public_id = $3`
	if _, err := tx.ExecContext(ctx, cancelQuery, string(tiebreaker.StatusCancelled), now, tiebreakerID); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("cancel tiebreaker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return tiebreaker.Tiebreaker{}, fmt.Errorf("commit tiebreaker cancel tx: %w", err)
	}

	t.Status = tiebreaker.StatusCancelled
	t.LastActivityTime = now
	return t, nil
}

func lockTiebreaker(ctx context.Context, tx *sqlx.Tx, tiebreakerID string) (tiebreaker.Tiebreaker, error) {
	const query = selectTiebreakerColumns + `
WHERE public_id = $1
FOR UPDATE`

	var row tiebreakerTableModel
	if err := tx.GetContext(ctx, &row, query, tiebreakerID); err != nil {
		if isNotFound(err) {
			return tiebreaker.Tiebreaker{}, fmt.Errorf("tiebreaker %s not found", tiebreakerID)
		}
		return tiebreaker.Tiebreaker{}, fmt.Errorf("lock tiebreaker: %w", err)
	}

	return row.toDomain(), nil
}
