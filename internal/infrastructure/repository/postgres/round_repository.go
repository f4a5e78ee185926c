package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/domain/auction"
)

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

func (r *RoundRepository) GetByID(ctx context.Context, roundID string) (auction.Round, bool, error) {
	const query = `
SELECT id, public_id, season, position_group, status, max_bids_per_team, sealed_bids, end_time, created_at, updated_at, deleted_at
FROM auction_rounds
WHERE public_id = $1
  AND deleted_at IS NULL`

	var row roundTableModel
	if err := r.db.GetContext(ctx, &row, query, roundID); err != nil {
		if isNotFound(err) {
			return auction.Round{}, false, nil
		}
		return auction.Round{}, false, fmt.Errorf("get round by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *RoundRepository) ListExpiredActive(ctx context.Context) ([]auction.Round, error) {
	const query = `
SELECT id, public_id, season, position_group, status, max_bids_per_team, sealed_bids, end_time, created_at, updated_at, deleted_at
FROM auction_rounds
WHERE status = $1
  AND end_time <= NOW()
  AND deleted_at IS NULL
ORDER BY end_time`

	var rows []roundTableModel
	if err := r.db.SelectContext(ctx, &rows, query, string(auction.RoundStatusActive)); err != nil {
		return nil, fmt.Errorf("select expired active rounds: %w", err)
	}

	out := make([]auction.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

// TransitionStatus is the compare-and-swap behind round lifecycle changes:
// the UPDATE only lands when the stored status still equals from, so exactly
// one of N concurrent closers wins.
func (r *RoundRepository) TransitionStatus(ctx context.Context, roundID string, from, to auction.RoundStatus) error {
	const query = `
UPDATE auction_rounds
SET status = $1, updated_at = NOW()
WHERE public_id = $2
  AND status = $3
  AND deleted_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, string(to), roundID, string(from))
	if err != nil {
		return fmt.Errorf("transition round status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition round status rows affected: %w", err)
	}
	if affected == 0 {
		var current string
		err := r.db.GetContext(ctx, &current, `SELECT status FROM auction_rounds WHERE public_id = $1 AND deleted_at IS NULL`, roundID)
		if err != nil {
			if isNotFound(err) {
				return fmt.Errorf("round %s not found", roundID)
			}
			return fmt.Errorf("read round status after failed swap: %w", err)
		}
		return fmt.Errorf("%w: round=%s status=%s expected=%s", auction.ErrStaleState, roundID, current, from)
	}

	return nil
}
