package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/leaguehq/auction-engine/internal/domain/auction"
	"github.com/leaguehq/auction-engine/internal/domain/budget"
	"github.com/leaguehq/auction-engine/internal/domain/team"
	"github.com/leaguehq/auction-engine/internal/infrastructure/notifier"
	"github.com/leaguehq/auction-engine/internal/infrastructure/repository/memory"
	idgen "github.com/leaguehq/auction-engine/internal/platform/id"
	"github.com/leaguehq/auction-engine/internal/platform/resilience"
	"github.com/leaguehq/auction-engine/internal/usecase"
)

const (
	testBearerToken = "team-token"
	testJobToken    = "job-secret"
)

type staticVerifier struct {
	principal team.Principal
}

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (team.Principal, error) {
	if token != testBearerToken {
		return team.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return v.principal, nil
}

type apiHarness struct {
	store  *memory.Store
	router http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	store := memory.NewStore()
	events := notifier.NewRecorder()
	ids := idgen.NewRandomGenerator()

	finalizeSvc := usecase.NewFinalizeService(store.Rounds(), store.Tiebreakers(), store.Ownership(), events, ids, nil)
	bidSvc := usecase.NewBidService(store.Rounds(), store.Bids(), store.Budgets(), events, ids, nil)
	roundSvc := usecase.NewRoundService(store.Rounds(), store.Bids(), store.Tiebreakers(), finalizeSvc, events, ids, 15*time.Minute, nil)
	tiebreakerSvc := usecase.NewTiebreakerService(store.Tiebreakers(), store.Bids(), store.Budgets(), finalizeSvc, events, resilience.DefaultRetryConfig(), nil)

	handler := NewHandler(bidSvc, roundSvc, tiebreakerSvc, finalizeSvc, nil)
	verifier := staticVerifier{principal: team.Principal{TeamID: "team-a", Season: "2026"}}
	router := NewRouter(handler, verifier, nil, []string{"https://app.example.com"}, testJobToken)

	return &apiHarness{store: store, router: router}
}

func (h *apiHarness) seedRound(t *testing.T, id string) auction.Round {
	t.Helper()

	round := auction.Round{
		ID:             id,
		Season:         "2026",
		PositionGroup:  "GK",
		Status:         auction.RoundStatusActive,
		MaxBidsPerTeam: 3,
		EndTime:        time.Now().Add(time.Hour),
	}
	h.store.PutRound(round)
	return round
}

func (h *apiHarness) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func authHeader() map[string]string {
	return map[string]string{"Authorization": "Bearer " + testBearerToken}
}

type envelope struct {
	APIVersion string         `json:"apiVersion"`
	Data       map[string]any `json:"data"`
	Error      *struct {
		Code   int    `json:"code"`
		Status string `json:"status"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	if env.APIVersion != "2.0" {
		t.Fatalf("unexpected apiVersion: %q", env.APIVersion)
	}
	return env
}

func TestRouter_Healthz(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestRouter_PlaceBid(t *testing.T) {
	h := newAPIHarness(t)
	h.seedRound(t, "round-1")
	h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000})

	body := `{"player_id":"p1","amount":100,"nonce":"n-1"}`
	rec := h.do(t, http.MethodPost, "/v1/rounds/round-1/bids", body, authHeader())
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if env.Data["round_id"] != "round-1" || env.Data["team_id"] != "team-a" || env.Data["player_id"] != "p1" {
		t.Fatalf("unexpected payload: %v", env.Data)
	}
	if id, _ := env.Data["id"].(string); id == "" {
		t.Fatalf("bid id missing: %v", env.Data)
	}
}

func TestRouter_PlaceBid_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		body       string
		headers    map[string]string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "missing auth",
			path:       "/v1/rounds/round-1/bids",
			body:       `{"player_id":"p1","amount":100,"nonce":"n"}`,
			headers:    nil,
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
		{
			name:       "bad token",
			path:       "/v1/rounds/round-1/bids",
			body:       `{"player_id":"p1","amount":100,"nonce":"n"}`,
			headers:    map[string]string{"Authorization": "Bearer wrong"},
			wantCode:   http.StatusUnauthorized,
			wantStatus: "UNAUTHENTICATED",
		},
		{
			name:       "malformed json",
			path:       "/v1/rounds/round-1/bids",
			body:       `{"player_id":`,
			headers:    authHeader(),
			wantCode:   http.StatusBadRequest,
			wantStatus: "INVALID_ARGUMENT",
		},
		{
			name:       "unknown field rejected",
			path:       "/v1/rounds/round-1/bids",
			body:       `{"player_id":"p1","amount":100,"nonce":"n","extra":true}`,
			headers:    authHeader(),
			wantCode:   http.StatusBadRequest,
			wantStatus: "INVALID_ARGUMENT",
		},
		{
			name:       "validation failure",
			path:       "/v1/rounds/round-1/bids",
			body:       `{"player_id":"p1","amount":-5,"nonce":"n"}`,
			headers:    authHeader(),
			wantCode:   http.StatusBadRequest,
			wantStatus: "INVALID_ARGUMENT",
		},
		{
			name:       "round not found",
			path:       "/v1/rounds/missing/bids",
			body:       `{"player_id":"p1","amount":100,"nonce":"n"}`,
			headers:    authHeader(),
			wantCode:   http.StatusNotFound,
			wantStatus: "NOT_FOUND",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAPIHarness(t)
			h.seedRound(t, "round-1")
			h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000})

			rec := h.do(t, http.MethodPost, tc.path, tc.body, tc.headers)
			if rec.Code != tc.wantCode {
				t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Status != tc.wantStatus {
				t.Fatalf("unexpected error body: %+v", env.Error)
			}
		})
	}
}

func TestRouter_PlaceBid_RuleViolationIs422(t *testing.T) {
	h := newAPIHarness(t)
	h.seedRound(t, "round-1")
	h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 50})

	body := `{"player_id":"p1","amount":100,"nonce":"n-1"}`
	rec := h.do(t, http.MethodPost, "/v1/rounds/round-1/bids", body, authHeader())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || len(env.Error.Errors) != 1 || env.Error.Errors[0].Reason != "ruleViolation" {
		t.Fatalf("unexpected error body: %+v", env.Error)
	}
}

func TestRouter_GetRoundBids_IsPublic(t *testing.T) {
	h := newAPIHarness(t)
	h.seedRound(t, "round-1")
	h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000})

	body := `{"player_id":"p1","amount":100,"nonce":"n-1"}`
	if rec := h.do(t, http.MethodPost, "/v1/rounds/round-1/bids", body, authHeader()); rec.Code != http.StatusCreated {
		t.Fatalf("seed bid failed: %d", rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/v1/rounds/round-1/bids", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	bids, ok := env.Data["bids"].([]any)
	if !ok || len(bids) != 1 {
		t.Fatalf("unexpected bids payload: %v", env.Data)
	}
}

func TestRouter_GetMyBudget(t *testing.T) {
	h := newAPIHarness(t)
	h.seedRound(t, "round-1")
	h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000, Spent: 200})

	body := `{"player_id":"p1","amount":150,"nonce":"n-1"}`
	if rec := h.do(t, http.MethodPost, "/v1/rounds/round-1/bids", body, authHeader()); rec.Code != http.StatusCreated {
		t.Fatalf("seed bid failed: %d", rec.Code)
	}

	rec := h.do(t, http.MethodGet, "/v1/budget/me", "", authHeader())
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Data["allocated"] != float64(1000) || env.Data["spent"] != float64(200) {
		t.Fatalf("unexpected budget payload: %v", env.Data)
	}
	if env.Data["committed"] != float64(150) || env.Data["available"] != float64(650) {
		t.Fatalf("committed bids not reflected: %v", env.Data)
	}

	t.Run("requires auth", func(t *testing.T) {
		if rec := h.do(t, http.MethodGet, "/v1/budget/me", "", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	})
}

func TestRouter_InternalCloseRound(t *testing.T) {
	h := newAPIHarness(t)
	h.seedRound(t, "round-1")
	h.store.PutBudget(budget.TeamBudget{TeamID: "team-a", Season: "2026", Allocated: 1000})

	body := `{"player_id":"p1","amount":100,"nonce":"n-1"}`
	if rec := h.do(t, http.MethodPost, "/v1/rounds/round-1/bids", body, authHeader()); rec.Code != http.StatusCreated {
		t.Fatalf("seed bid failed: %d", rec.Code)
	}

	t.Run("missing job token", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/internal/rounds/round-1/close", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	})

	t.Run("team bearer token is not enough", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/v1/internal/rounds/round-1/close", "", authHeader())
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("unexpected status: %d", rec.Code)
		}
	})

	rec := h.do(t, http.MethodPost, "/v1/internal/rounds/round-1/close", "", map[string]string{
		"X-Internal-Job-Token": testJobToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Data["players"] != float64(1) {
		t.Fatalf("unexpected close payload: %v", env.Data)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodOptions, "/v1/rounds/round-1/bids", "", map[string]string{
		"Origin": "https://app.example.com",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin: %q", got)
	}

	t.Run("unknown origin gets no cors headers", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/healthz", "", map[string]string{
			"Origin": "https://evil.example.com",
		})
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("unexpected allow-origin: %q", got)
		}
	})
}
