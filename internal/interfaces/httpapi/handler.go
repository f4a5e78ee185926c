package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/ownership"
	"github.com/leaguehq/auction-engine/internal/domain/tiebreaker"
	"github.com/leaguehq/auction-engine/internal/usecase"
)

type Handler struct {
	bidService        *usecase.BidService
	roundService      *usecase.RoundService
	tiebreakerService *usecase.TiebreakerService
	finalizeService   *usecase.FinalizeService
	logger            *slog.Logger
	validator         *validator.Validate
}

func NewHandler(
	bidService *usecase.BidService,
	roundService *usecase.RoundService,
	tiebreakerService *usecase.TiebreakerService,
	finalizeService *usecase.FinalizeService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		bidService:        bidService,
		roundService:      roundService,
		tiebreakerService: tiebreakerService,
		finalizeService:   finalizeService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PlaceBid")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	roundID := strings.TrimSpace(r.PathValue("roundID"))

	var req placeBidRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	bid, err := h.bidService.PlaceBid(ctx, usecase.PlaceBidInput{
		TeamID:          principal.TeamID,
		Season:          principal.Season,
		RoundID:         roundID,
		PlayerID:        req.PlayerID,
		Amount:          req.Amount,
		DeclaredCeiling: req.DeclaredCeiling,
		Nonce:           req.Nonce,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "place bid failed", "team_id", principal.TeamID, "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, bidToDTO(ctx, bid))
}

func (h *Handler) GetRoundBids(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRoundBids")
	defer span.End()

	roundID := r.PathValue("roundID")
	round, bids, err := h.bidService.GetRoundBids(ctx, roundID)
	if err != nil {
		h.logger.WarnContext(ctx, "get round bids failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, roundBidsToDTO(ctx, round, bids))
}

func (h *Handler) RaiseTiebreakerBid(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RaiseTiebreakerBid")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tiebreakerID := strings.TrimSpace(r.PathValue("tiebreakerID"))

	var req raiseRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := h.tiebreakerService.Raise(ctx, usecase.RaiseInput{
		TiebreakerID: tiebreakerID,
		TeamID:       principal.TeamID,
		Season:       principal.Season,
		Amount:       req.Amount,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "tiebreaker raise failed", "team_id", principal.TeamID, "tiebreaker_id", tiebreakerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiebreakerToDTO(ctx, updated, nil))
}

func (h *Handler) WithdrawFromTiebreaker(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawFromTiebreaker")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	tiebreakerID := strings.TrimSpace(r.PathValue("tiebreakerID"))
	updated, err := h.tiebreakerService.Withdraw(ctx, tiebreakerID, principal.TeamID)
	if err != nil {
		h.logger.WarnContext(ctx, "tiebreaker withdraw failed", "team_id", principal.TeamID, "tiebreaker_id", tiebreakerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiebreakerToDTO(ctx, updated, nil))
}

func (h *Handler) GetTiebreaker(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTiebreaker")
	defer span.End()

	tiebreakerID := r.PathValue("tiebreakerID")
	t, participants, err := h.tiebreakerService.GetTiebreaker(ctx, tiebreakerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get tiebreaker failed", "tiebreaker_id", tiebreakerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiebreakerToDTO(ctx, t, participants))
}

func (h *Handler) GetPlayerOwnership(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerOwnership")
	defer span.End()

	playerID := r.PathValue("playerID")
	record, err := h.finalizeService.GetOwnership(ctx, playerID)
	if err != nil {
		h.logger.WarnContext(ctx, "get ownership failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ownershipToDTO(ctx, record))
}

func (h *Handler) GetMyBudget(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMyBudget")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	teamBudget, committed, err := h.bidService.GetTeamBudget(ctx, principal.TeamID, principal.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "get budget failed", "team_id", principal.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, budgetDTO{
		TeamID:    teamBudget.TeamID,
		Season:    teamBudget.Season,
		Allocated: teamBudget.Allocated,
		Spent:     teamBudget.Spent,
		Committed: committed,
		Available: teamBudget.Available() - committed,
	})
}

func (h *Handler) ListMyLedger(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMyLedger")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	entries, err := h.finalizeService.ListTeamLedger(ctx, principal.TeamID, principal.Season)
	if err != nil {
		h.logger.WarnContext(ctx, "list ledger failed", "team_id", principal.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]ledgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ledgerEntryToDTO(ctx, entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type placeBidRequest struct {
	PlayerID        string `json:"player_id" validate:"required"`
	Amount          int64  `json:"amount" validate:"required,gt=0"`
	DeclaredCeiling int64  `json:"declared_ceiling" validate:"gte=0"`
	Nonce           string `json:"nonce" validate:"required,max=128"`
}

type raiseRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type bidDTO struct {
	ID           string `json:"id"`
	RoundID      string `json:"round_id"`
	TeamID       string `json:"team_id"`
	PlayerID     string `json:"player_id"`
	Amount       int64  `json:"amount"`
	Sealed       bool   `json:"sealed"`
	Status       string `json:"status"`
	CreatedAtUTC string `json:"created_at_utc"`
}

type roundBidsDTO struct {
	ID             string   `json:"id"`
	Season         string   `json:"season"`
	PositionGroup  string   `json:"position_group"`
	Status         string   `json:"status"`
	MaxBidsPerTeam int      `json:"max_bids_per_team"`
	SealedBids     bool     `json:"sealed_bids"`
	EndTimeUTC     string   `json:"end_time_utc"`
	Bids           []bidDTO `json:"bids"`
}

type tiebreakerDTO struct {
	ID                 string           `json:"id"`
	RoundID            string           `json:"round_id"`
	PlayerID           string           `json:"player_id"`
	TiedAmount         int64            `json:"tied_amount"`
	Status             string           `json:"status"`
	Resolution         string           `json:"resolution,omitempty"`
	CurrentHighestBid  int64            `json:"current_highest_bid"`
	CurrentHighestTeam string           `json:"current_highest_team,omitempty"`
	WinnerTeamID       string           `json:"winner_team_id,omitempty"`
	WinningAmount      int64            `json:"winning_amount,omitempty"`
	MaxEndTimeUTC      string           `json:"max_end_time_utc"`
	Participants       []participantDTO `json:"participants,omitempty"`
}

type participantDTO struct {
	TeamID     string `json:"team_id"`
	Status     string `json:"status"`
	CurrentBid int64  `json:"current_bid"`
}

type budgetDTO struct {
	TeamID    string `json:"team_id"`
	Season    string `json:"season"`
	Allocated int64  `json:"allocated"`
	Spent     int64  `json:"spent"`
	Committed int64  `json:"committed"`
	Available int64  `json:"available"`
}

type ownershipDTO struct {
	ID            string `json:"id"`
	TeamID        string `json:"team_id"`
	PlayerID      string `json:"player_id"`
	PurchasePrice int64  `json:"purchase_price"`
	AcquiredAtUTC string `json:"acquired_at_utc"`
}

type ledgerEntryDTO struct {
	ID           string `json:"id"`
	TeamID       string `json:"team_id"`
	PlayerID     string `json:"player_id"`
	RoundID      string `json:"round_id"`
	TiebreakerID string `json:"tiebreaker_id,omitempty"`
	Season       string `json:"season"`
	Amount       int64  `json:"amount"`
	Kind         string `json:"kind"`
	CreatedAtUTC string `json:"created_at_utc"`
}

func bidToDTO(ctx context.Context, b auction.Bid) bidDTO {
	ctx, span := startSpan(ctx, "httpapi.bidToDTO")
	defer span.End()

	return bidDTO{
		ID:           b.ID,
		RoundID:      b.RoundID,
		TeamID:       b.TeamID,
		PlayerID:     b.PlayerID,
		Amount:       b.Amount,
		Sealed:       b.Sealed,
		Status:       string(b.Status),
		CreatedAtUTC: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func roundBidsToDTO(ctx context.Context, round auction.Round, bids []auction.Bid) roundBidsDTO {
	ctx, span := startSpan(ctx, "httpapi.roundBidsToDTO")
	defer span.End()

	items := make([]bidDTO, 0, len(bids))
	for _, b := range bids {
		items = append(items, bidToDTO(ctx, b))
	}

	return roundBidsDTO{
		ID:             round.ID,
		Season:         round.Season,
		PositionGroup:  round.PositionGroup,
		Status:         string(round.Status),
		MaxBidsPerTeam: round.MaxBidsPerTeam,
		SealedBids:     round.SealedBids,
		EndTimeUTC:     round.EndTime.UTC().Format(time.RFC3339),
		Bids:           items,
	}
}

func tiebreakerToDTO(ctx context.Context, t tiebreaker.Tiebreaker, participants []tiebreaker.Participant) tiebreakerDTO {
	ctx, span := startSpan(ctx, "httpapi.tiebreakerToDTO")
	defer span.End()

	items := make([]participantDTO, 0, len(participants))
	for _, p := range participants {
		items = append(items, participantDTO{
			TeamID:     p.TeamID,
			Status:     string(p.Status),
			CurrentBid: p.CurrentBid,
		})
	}

	return tiebreakerDTO{
		ID:                 t.ID,
		RoundID:            t.RoundID,
		PlayerID:           t.PlayerID,
		TiedAmount:         t.TiedAmount,
		Status:             string(t.Status),
		Resolution:         string(t.Resolution),
		CurrentHighestBid:  t.CurrentHighestBid,
		CurrentHighestTeam: t.CurrentHighestTeam,
		WinnerTeamID:       t.WinnerTeamID,
		WinningAmount:      t.WinningAmount,
		MaxEndTimeUTC:      t.MaxEndTime.UTC().Format(time.RFC3339),
		Participants:       items,
	}
}

func ownershipToDTO(ctx context.Context, record ownership.Record) ownershipDTO {
	ctx, span := startSpan(ctx, "httpapi.ownershipToDTO")
	defer span.End()

	return ownershipDTO{
		ID:            record.ID,
		TeamID:        record.TeamID,
		PlayerID:      record.PlayerID,
		PurchasePrice: record.PurchasePrice,
		AcquiredAtUTC: record.AcquiredAt.UTC().Format(time.RFC3339),
	}
}

func ledgerEntryToDTO(ctx context.Context, entry ownership.LedgerEntry) ledgerEntryDTO {
	ctx, span := startSpan(ctx, "httpapi.ledgerEntryToDTO")
	defer span.End()

	return ledgerEntryDTO{
		ID:           entry.ID,
		TeamID:       entry.TeamID,
		PlayerID:     entry.PlayerID,
		RoundID:      entry.RoundID,
		TiebreakerID: entry.TiebreakerID,
		Season:       entry.Season,
		Amount:       entry.Amount,
		Kind:         string(entry.Kind),
		CreatedAtUTC: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
