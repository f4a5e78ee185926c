package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/lib/pq"
)

type BidRepository struct {
	db *sqlx.DB
}

func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

const selectBidColumns = `
SELECT id, public_id, round_public_id, team_id, player_public_id, amount, declared_ceiling, sealed, status, nonce, created_at
FROM auction_bids`

// Create inserts a bid with the per-team limit and budget-ceiling checks in
// the same transaction. The round row is locked first so two bids from the
// same team cannot both pass the count check, and a nonce replay returns the
// original row instead of a duplicate.
func (r *BidRepository) Create(ctx context.Context, bid auction.Bid, maxBidsPerTeam int) (auction.Bid, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return auction.Bid{}, false, fmt.Errorf("begin tx for bid create: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const replayQuery = selectBidColumns + `
WHERE round_public_id = $1
  AND team_id = $2
  AND nonce = $3`

	var existing bidTableModel
	err = tx.GetContext(ctx, &existing, replayQuery, bid.RoundID, bid.TeamID, bid.Nonce)
	if err == nil {
		return existing.toDomain(), true, nil
	}
	if !isNotFound(err) {
		return auction.Bid{}, false, fmt.Errorf("check bid nonce: %w", err)
	}

	const lockRoundQuery = `
SELECT season
FROM auction_rounds
WHERE public_id = $1
  AND deleted_at IS NULL
FOR UPDATE`

	var season string
	if err := tx.GetContext(ctx, &season, lockRoundQuery, bid.RoundID); err != nil {
		if isNotFound(err) {
			return auction.Bid{}, false, fmt.Errorf("round %s not found", bid.RoundID)
		}
		return auction.Bid{}, false, fmt.Errorf("lock round for bid create: %w", err)
	}

	const countQuery = `
SELECT COUNT(*)
FROM auction_bids
WHERE round_public_id = $1
  AND team_id = $2
  AND status = $3`

	var active int
	if err := tx.GetContext(ctx, &active, countQuery, bid.RoundID, bid.TeamID, string(auction.BidStatusActive)); err != nil {
		return auction.Bid{}, false, fmt.Errorf("count active bids: %w", err)
	}
	if active >= maxBidsPerTeam {
		return auction.Bid{}, false, fmt.Errorf("%w: round=%s limit=%d", auction.ErrBidLimitExceeded, bid.RoundID, maxBidsPerTeam)
	}

	const budgetQuery = `
SELECT allocated - spent
FROM team_budgets
WHERE team_id = $1
  AND season = $2`

	var available int64
	err = tx.GetContext(ctx, &available, budgetQuery, bid.TeamID, season)
	if err != nil && !isNotFound(err) {
		return auction.Bid{}, false, fmt.Errorf("read team budget: %w", err)
	}
	if err == nil {
		const committedQuery = `
SELECT COALESCE(SUM(b.declared_ceiling), 0)
FROM auction_bids b
JOIN auction_rounds r ON r.public_id = b.round_public_id
WHERE b.team_id = $1
  AND b.status = $2
  AND r.season = $3`

		var committed int64
		if err := tx.GetContext(ctx, &committed, committedQuery, bid.TeamID, string(auction.BidStatusActive), season); err != nil {
			return auction.Bid{}, false, fmt.Errorf("sum committed ceilings: %w", err)
		}
		if bid.DeclaredCeiling > available-committed {
			return auction.Bid{}, false, fmt.Errorf("%w: ceiling=%d available=%d committed=%d",
				budget.ErrInsufficientFunds, bid.DeclaredCeiling, available, committed)
		}
	}

	const insertQuery = `
INSERT INTO auction_bids (public_id, round_public_id, team_id, player_public_id, amount, declared_ceiling, sealed, status, nonce)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = tx.ExecContext(ctx, insertQuery,
		bid.ID, bid.RoundID, bid.TeamID, bid.PlayerID,
		bid.Amount, bid.DeclaredCeiling, bid.Sealed, string(bid.Status), bid.Nonce,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a replay race after the nonce check; hand back the winner.
			var winner bidTableModel
			if getErr := r.db.GetContext(ctx, &winner, replayQuery, bid.RoundID, bid.TeamID, bid.Nonce); getErr != nil {
				return auction.Bid{}, false, fmt.Errorf("read bid after nonce conflict: %w", getErr)
			}
			return winner.toDomain(), true, nil
		}
		return auction.Bid{}, false, fmt.Errorf("insert bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return auction.Bid{}, false, fmt.Errorf("commit bid create tx: %w", err)
	}

	return bid, false, nil
}

func (r *BidRepository) GetByID(ctx context.Context, bidID string) (auction.Bid, bool, error) {
	const query = selectBidColumns + `
WHERE public_id = $1`

	var row bidTableModel
	if err := r.db.GetContext(ctx, &row, query, bidID); err != nil {
		if isNotFound(err) {
			return auction.Bid{}, false, nil
		}
		return auction.Bid{}, false, fmt.Errorf("get bid by id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *BidRepository) ListByRound(ctx context.Context, roundID string) ([]auction.Bid, error) {
	const query = selectBidColumns + `
WHERE round_public_id = $1
ORDER BY id`

	var rows []bidTableModel
	if err := r.db.SelectContext(ctx, &rows, query, roundID); err != nil {
		return nil, fmt.Errorf("list bids by round: %w", err)
	}

	out := make([]auction.Bid, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *BidRepository) CountActiveByRoundAndTeam(ctx context.Context, roundID, teamID string) (int, error) {
	const query = `
SELECT COUNT(*)
FROM auction_bids
WHERE round_public_id = $1
  AND team_id = $2
  AND status = $3`

	var n int
	if err := r.db.GetContext(ctx, &n, query, roundID, teamID, string(auction.BidStatusActive)); err != nil {
		return 0, fmt.Errorf("count active bids by round and team: %w", err)
	}

	return n, nil
}

func (r *BidRepository) SumActiveByTeam(ctx context.Context, season, teamID string) (int64, error) {
	const query = `
SELECT COALESCE(SUM(b.declared_ceiling), 0)
FROM auction_bids b
JOIN auction_rounds r ON r.public_id = b.round_public_id
WHERE b.team_id = $1
  AND b.status = $2
  AND r.season = $3`

	var total int64
	if err := r.db.GetContext(ctx, &total, query, teamID, string(auction.BidStatusActive), season); err != nil {
		return 0, fmt.Errorf("sum active bid ceilings: %w", err)
	}

	return total, nil
}

func (r *BidRepository) UpdateStatuses(ctx context.Context, bidIDs []string, status auction.BidStatus) error {
	if len(bidIDs) == 0 {
		return nil
	}

	const query = `
UPDATE auction_bids
SET status = $1
WHERE public_id = ANY($2)`

	if _, err := r.db.ExecContext(ctx, query, string(status), pq.Array(bidIDs)); err != nil {
		return fmt.Errorf("update bid statuses: %w", err)
	}

	return nil
}
