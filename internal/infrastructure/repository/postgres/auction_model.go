package postgres

import (
	"time"

	"github.com/leaguehq/auction-engine/internal/domain/auction"
)

type roundTableModel struct {
	ID             int64      `db:"id"`
	PublicID       string     `db:"public_id"`
	Season         string     `db:"season"`
	PositionGroup  string     `db:"position_group"`
	Status         string     `db:"status"`
	MaxBidsPerTeam int        `db:"max_bids_per_team"`
	SealedBids     bool       `db:"sealed_bids"`
	EndTime        time.Time  `db:"end_time"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeletedAt      *time.Time `db:"deleted_at"`
}

func (m roundTableModel) toDomain() auction.Round {
	return auction.Round{
		ID:             m.PublicID,
		Season:         m.Season,
		PositionGroup:  m.PositionGroup,
		Status:         auction.RoundStatus(m.Status),
		MaxBidsPerTeam: m.MaxBidsPerTeam,
		SealedBids:     m.SealedBids,
		EndTime:        m.EndTime,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type bidTableModel struct {
	ID              int64     `db:"id"`
	PublicID        string    `db:"public_id"`
	RoundPublicID   string    `db:"round_public_id"`
	TeamID          string    `db:"team_id"`
	PlayerPublicID  string    `db:"player_public_id"`
	Amount          int64     `db:"amount"`
	DeclaredCeiling int64     `db:"declared_ceiling"`
	Sealed          bool      `db:"sealed"`
	Status          string    `db:"status"`
	Nonce           string    `db:"nonce"`
	CreatedAt       time.Time `db:"created_at"`
}

func (m bidTableModel) toDomain() auction.Bid {
	return auction.Bid{
		ID:              m.PublicID,
		RoundID:         m.RoundPublicID,
		TeamID:          m.TeamID,
		PlayerID:        m.PlayerPublicID,
		Amount:          m.Amount,
		DeclaredCeiling: m.DeclaredCeiling,
		Sealed:          m.Sealed,
		Status:          auction.BidStatus(m.Status),
		Nonce:           m.Nonce,
		CreatedAt:       m.CreatedAt,
	}
}
