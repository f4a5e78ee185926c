package postgres

import (
	"database/sql"
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
)

type tiebreakerTableModel struct {
	ID                 int64          `db:"id"`
	PublicID           string         `db:"public_id"`
	RoundPublicID      string         `db:"round_public_id"`
	PlayerPublicID     string         `db:"player_public_id"`
	TiedAmount         int64          `db:"tied_amount"`
	Status             string         `db:"status"`
	Resolution         sql.NullString `db:"resolution"`
	CurrentHighestBid  int64          `db:"current_highest_bid"`
	CurrentHighestTeam sql.NullString `db:"current_highest_team"`
	WinnerTeamID       sql.NullString `db:"winner_team_id"`
	WinningAmount      sql.NullInt64  `db:"winning_amount"`
	StartTime          time.Time      `db:"start_time"`
	LastActivityTime   time.Time      `db:"last_activity_time"`
	MaxEndTime         time.Time      `db:"max_end_time"`
}

func (m tiebreakerTableModel) toDomain() tiebreaker.Tiebreaker {
	return tiebreaker.Tiebreaker{
		ID:                 m.PublicID,
		RoundID:            m.RoundPublicID,
		PlayerID:           m.PlayerPublicID,
		TiedAmount:         m.TiedAmount,
		Status:             tiebreaker.Status(m.Status),
		Resolution:         tiebreaker.Resolution(m.Resolution.String),
		CurrentHighestBid:  m.CurrentHighestBid,
		CurrentHighestTeam: m.CurrentHighestTeam.String,
		WinnerTeamID:       m.WinnerTeamID.String,
		WinningAmount:      m.WinningAmount.Int64,
		StartTime:          m.StartTime,
		LastActivityTime:   m.LastActivityTime,
		MaxEndTime:         m.MaxEndTime,
	}
}

type participantTableModel struct {
	ID                 int64  `db:"id"`
	TiebreakerPublicID string `db:"tiebreaker_public_id"`
	TeamID             string `db:"team_id"`
	Status             string `db:"status"`
	CurrentBid         int64  `db:"current_bid"`
}

func (m participantTableModel) toDomain() tiebreaker.Participant {
	return tiebreaker.Participant{
		TiebreakerID: m.TiebreakerPublicID,
		TeamID:       m.TeamID,
		Status:       tiebreaker.ParticipantStatus(m.Status),
		CurrentBid:   m.CurrentBid,
	}
}
