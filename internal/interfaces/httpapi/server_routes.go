package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/rounds/{roundID}/bids", handler.GetRoundBids)
	mux.HandleFunc("GET /v1/tiebreakers/{tiebreakerID}", handler.GetTiebreaker)
	mux.HandleFunc("GET /v1/players/{playerID}/ownership", handler.GetPlayerOwnership)
}

func registerTeamRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/rounds/{roundID}/bids", RequireAuth(verifier, http.HandlerFunc(handler.PlaceBid)))
	mux.Handle("POST /v1/tiebreakers/{tiebreakerID}/bids", RequireAuth(verifier, http.HandlerFunc(handler.RaiseTiebreakerBid)))
	mux.Handle("POST /v1/tiebreakers/{tiebreakerID}/withdraw", RequireAuth(verifier, http.HandlerFunc(handler.WithdrawFromTiebreaker)))
	mux.Handle("GET /v1/budget/me", RequireAuth(verifier, http.HandlerFunc(handler.GetMyBudget)))
	mux.Handle("GET /v1/ledger/me", RequireAuth(verifier, http.HandlerFunc(handler.ListMyLedger)))
}

func registerInternalRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/rounds/{roundID}/close", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.CloseRound)))
	mux.Handle("POST /v1/internal/jobs/close-expired", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunCloseExpiredJob)))
	mux.Handle("POST /v1/internal/jobs/sweep-stalled", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunSweepStalledJob)))
	mux.Handle("POST /v1/internal/tiebreakers/{tiebreakerID}/force-finalize", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ForceFinalizeTiebreaker)))
	mux.Handle("POST /v1/internal/tiebreakers/{tiebreakerID}/cancel", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.CancelTiebreaker)))
	mux.Handle("GET /v1/internal/teams/{teamID}/ledger", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListTeamLedger)))
}
