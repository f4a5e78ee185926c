package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
	"github.com/lib/pq"
)

type OwnershipRepository struct {
	db *sqlx.DB
}

func NewOwnershipRepository(db *sqlx.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

type ownershipTableModel struct {
	ID             int64     `db:"id"`
	PublicID       string    `db:"public_id"`
	TeamID         string    `db:"team_id"`
	PlayerPublicID string    `db:"player_public_id"`
	PurchasePrice  int64     `db:"purchase_price"`
	AcquiredAt     time.Time `db:"acquired_at"`
}

func (m ownershipTableModel) toDomain() ownership.Record {
	return ownership.Record{
		ID:            m.PublicID,
		TeamID:        m.TeamID,
		PlayerID:      m.PlayerPublicID,
		PurchasePrice: m.PurchasePrice,
		AcquiredAt:    m.AcquiredAt,
	}
}

const selectOwnershipColumns = `
SELECT id, public_id, team_id, player_public_id, purchase_price, acquired_at
FROM player_ownership`

// Finalize commits one resolved outcome atomically: ownership insert,
// conditional budget debit, player assignment, bid status flips, and the
// ledger append all ride one transaction. The debit's WHERE clause is the
// budget invariant; a team that cannot afford the price rolls everything
// back. Replays for an already-owned player return the existing record.
func (r *OwnershipRepository) Finalize(ctx context.Context, req ownership.FinalizeRequest) (ownership.Record, bool, error) {
	if err := req.Validate(); err != nil {
		return ownership.Record{}, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return ownership.Record{}, false, fmt.Errorf("begin tx for finalize: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const existingQuery = selectOwnershipColumns + `
WHERE player_public_id = $1
FOR UPDATE`

	var existing ownershipTableModel
	err = tx.GetContext(ctx, &existing, existingQuery, req.PlayerID)
	if err == nil {
		if existing.TeamID == req.TeamID {
			return existing.toDomain(), true, nil
		}
		return ownership.Record{}, false, fmt.Errorf("%w: player=%s owner=%s",
			ownership.ErrPlayerAlreadyOwned, req.PlayerID, existing.TeamID)
	}
	if !isNotFound(err) {
		return ownership.Record{}, false, fmt.Errorf("check player ownership: %w", err)
	}

	season := req.Season
	if season == "" {
		const seasonQuery = `
SELECT season
FROM auction_rounds
WHERE public_id = $1
  AND deleted_at IS NULL`
		if err := tx.GetContext(ctx, &season, seasonQuery, req.RoundID); err != nil {
			if isNotFound(err) {
				return ownership.Record{}, false, fmt.Errorf("round %s not found", req.RoundID)
			}
			return ownership.Record{}, false, fmt.Errorf("read round season: %w", err)
		}
	}

	const debitQuery = `
UPDATE team_budgets
SET spent = spent + $1, updated_at = NOW()
WHERE team_id = $2
  AND season = $3
  AND spent + $1 <= allocated`

	res, err := tx.ExecContext(ctx, debitQuery, req.Price, req.TeamID, season)
	if err != nil {
		return ownership.Record{}, false, fmt.Errorf("debit team budget: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ownership.Record{}, false, fmt.Errorf("debit team budget rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		const budgetExistsQuery = `SELECT EXISTS (SELECT 1 FROM team_budgets WHERE team_id = $1 AND season = $2)`
		if err := tx.GetContext(ctx, &exists, budgetExistsQuery, req.TeamID, season); err != nil {
			return ownership.Record{}, false, fmt.Errorf("check team budget exists: %w", err)
		}
		if !exists {
			return ownership.Record{}, false, fmt.Errorf("budget not found team=%s season=%s", req.TeamID, season)
		}
		return ownership.Record{}, false, fmt.Errorf("%w: price=%d team=%s season=%s",
			budget.ErrInsufficientFunds, req.Price, req.TeamID, season)
	}

	const insertQuery = `
INSERT INTO player_ownership (public_id, team_id, player_public_id, purchase_price, acquired_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.ExecContext(ctx, insertQuery, req.RecordID, req.TeamID, req.PlayerID, req.Price, req.Now)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a finalize race after the ownership check.
			var winner ownershipTableModel
			if getErr := r.db.GetContext(ctx, &winner, selectOwnershipColumns+` WHERE player_public_id = $1`, req.PlayerID); getErr != nil {
				return ownership.Record{}, false, fmt.Errorf("read ownership after conflict: %w", getErr)
			}
			if winner.TeamID == req.TeamID {
				return winner.toDomain(), true, nil
			}
			return ownership.Record{}, false, fmt.Errorf("%w: player=%s owner=%s",
				ownership.ErrPlayerAlreadyOwned, req.PlayerID, winner.TeamID)
		}
		return ownership.Record{}, false, fmt.Errorf("insert ownership record: %w", err)
	}

	const assignQuery = `
UPDATE players
SET owner_team_id = $1, updated_at = NOW()
WHERE public_id = $2`
	if _, err := tx.ExecContext(ctx, assignQuery, req.TeamID, req.PlayerID); err != nil {
		return ownership.Record{}, false, fmt.Errorf("assign player to team: %w", err)
	}

	if req.WinningBidID != "" {
		const winQuery = `UPDATE auction_bids SET status = $1 WHERE public_id = $2`
		if _, err := tx.ExecContext(ctx, winQuery, string(auction.BidStatusWon), req.WinningBidID); err != nil {
			return ownership.Record{}, false, fmt.Errorf("mark winning bid: %w", err)
		}
	}
	if len(req.LosingBidIDs) > 0 {
		const loseQuery = `UPDATE auction_bids SET status = $1 WHERE public_id = ANY($2)`
		if _, err := tx.ExecContext(ctx, loseQuery, string(auction.BidStatusLost), pq.Array(req.LosingBidIDs)); err != nil {
			return ownership.Record{}, false, fmt.Errorf("mark losing bids: %w", err)
		}
	}

	const ledgerQuery = `
INSERT INTO transaction_ledger (public_id, team_id, player_public_id, round_public_id, tiebreaker_public_id, season, amount, kind, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)`
	_, err = tx.ExecContext(ctx, ledgerQuery,
		req.LedgerEntryID, req.TeamID, req.PlayerID, req.RoundID, req.TiebreakerID,
		season, req.Price, string(req.Kind), req.Now,
	)
	if err != nil {
		return ownership.Record{}, false, fmt.Errorf("append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ownership.Record{}, false, fmt.Errorf("commit finalize tx: %w", err)
	}

	return ownership.Record{
		ID:            req.RecordID,
		TeamID:        req.TeamID,
		PlayerID:      req.PlayerID,
		PurchasePrice: req.Price,
		AcquiredAt:    req.Now,
	}, false, nil
}

func (r *OwnershipRepository) GetByPlayer(ctx context.Context, playerID string) (ownership.Record, bool, error) {
	const query = selectOwnershipColumns + `
WHERE player_public_id = $1`

	var row ownershipTableModel
	if err := r.db.GetContext(ctx, &row, query, playerID); err != nil {
		if isNotFound(err) {
			return ownership.Record{}, false, nil
		}
		return ownership.Record{}, false, fmt.Errorf("get ownership by player: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *OwnershipRepository) ListLedgerByTeam(ctx context.Context, teamID, season string) ([]ownership.LedgerEntry, error) {
	const query = `
SELECT public_id, team_id, player_public_id, round_public_id, COALESCE(tiebreaker_public_id, '') AS tiebreaker_public_id, season, amount, kind, created_at
FROM transaction_ledger
WHERE team_id = $1
  AND ($2 = '' OR season = $2)
ORDER BY created_at, id`

	var rows []struct {
		PublicID           string    `db:"public_id"`
		TeamID             string    `db:"team_id"`
		PlayerPublicID     string    `db:"player_public_id"`
		RoundPublicID      string    `db:"round_public_id"`
		TiebreakerPublicID string    `db:"tiebreaker_public_id"`
		Season             string    `db:"season"`
		Amount             int64     `db:"amount"`
		Kind               string    `db:"kind"`
		CreatedAt          time.Time `db:"created_at"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, teamID, season); err != nil {
		return nil, fmt.Errorf("list ledger by team: %w", err)
	}

	out := make([]ownership.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ownership.LedgerEntry{
			ID:           row.PublicID,
			TeamID:       row.TeamID,
			PlayerID:     row.PlayerPublicID,
			RoundID:      row.RoundPublicID,
			TiebreakerID: row.TiebreakerPublicID,
			Season:       row.Season,
			Amount:       row.Amount,
			Kind:         ownership.LedgerKind(row.Kind),
			CreatedAt:    row.CreatedAt,
		})
	}

	return out, nil
}
