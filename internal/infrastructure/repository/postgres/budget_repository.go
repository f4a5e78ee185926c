package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
)

type BudgetRepository struct {
	db *sqlx.DB
}

func NewBudgetRepository(db *sqlx.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) GetByTeamAndSeason(ctx context.Context, teamID, season string) (budget.TeamBudget, bool, error) {
	const query = `
SELECT team_id, season, allocated, spent
FROM team_budgets
WHERE team_id = $1
  AND season = $2`

	var row struct {
		TeamID    string `db:"team_id"`
		Season    string `db:"season"`
		Allocated int64  `db:"allocated"`
		Spent     int64  `db:"spent"`
	}
	if err := r.db.GetContext(ctx, &row, query, teamID, season); err != nil {
		if isNotFound(err) {
			return budget.TeamBudget{}, false, nil
		}
		return budget.TeamBudget{}, false, fmt.Errorf("get team budget: %w", err)
	}

	return budget.TeamBudget{
		TeamID:    row.TeamID,
		Season:    row.Season,
		Allocated: row.Allocated,
		Spent:     row.Spent,
	}, true, nil
}
