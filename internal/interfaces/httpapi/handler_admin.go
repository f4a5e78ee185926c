package httpapi

import (
	"net/http"
	"strings"
)

// Admin and internal job surfaces. These routes sit behind the internal job
// token, not team auth: the league platform's scheduler and operators call
// them, never team clients.

func (h *Handler) CloseRound(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseRound")
	defer span.End()

	roundID := strings.TrimSpace(r.PathValue("roundID"))
	outcomes, err := h.roundService.CloseRound(ctx, roundID)
	if err != nil {
		h.logger.ErrorContext(ctx, "close round failed", "round_id", roundID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"round_id": roundID,
		"players":  len(outcomes),
	})
}

func (h *Handler) RunCloseExpiredJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunCloseExpiredJob")
	defer span.End()

	if err := h.roundService.CloseExpired(ctx); err != nil {
		h.logger.ErrorContext(ctx, "close expired sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "done"})
}

func (h *Handler) RunSweepStalledJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSweepStalledJob")
	defer span.End()

	if err := h.tiebreakerService.SweepStalled(ctx); err != nil {
		h.logger.ErrorContext(ctx, "sweep stalled tiebreakers failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "done"})
}

func (h *Handler) ForceFinalizeTiebreaker(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceFinalizeTiebreaker")
	defer span.End()

	tiebreakerID := strings.TrimSpace(r.PathValue("tiebreakerID"))
	forced, err := h.tiebreakerService.ForceFinalize(ctx, tiebreakerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "force-finalize tiebreaker failed", "tiebreaker_id", tiebreakerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiebreakerToDTO(ctx, forced, nil))
}

func (h *Handler) CancelTiebreaker(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelTiebreaker")
	defer span.End()

	tiebreakerID := strings.TrimSpace(r.PathValue("tiebreakerID"))
	cancelled, err := h.tiebreakerService.Cancel(ctx, tiebreakerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "cancel tiebreaker failed", "tiebreaker_id", tiebreakerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, tiebreakerToDTO(ctx, cancelled, nil))
}

func (h *Handler) ListTeamLedger(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamLedger")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	season := strings.TrimSpace(r.URL.Query().Get("season"))

	entries, err := h.finalizeService.ListTeamLedger(ctx, teamID, season)
	if err != nil {
		h.logger.WarnContext(ctx, "list team ledger failed", "team_id", teamID, "season", season, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]ledgerEntryDTO, 0, len(entries))
	for _, entry := range entries {
		items = append(items, ledgerEntryToDTO(ctx, entry))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}
