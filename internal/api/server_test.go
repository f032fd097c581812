package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
)

type stubBacktester struct {
	lastSymbol string
	result     *backtest.Result
	err        error
}

func (s *stubBacktester) RunBacktest(ctx context.Context, symbol string) (*backtest.Result, error) {
	s.lastSymbol = symbol
	return s.result, s.err
}

func newTestServer(bt Backtester) *Server {
	return NewServer(config.ServerConfig{Port: 0}, bt, nil, nil, nil, zerolog.Nop())
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("Health status = %v, want ok", body["status"])
	}
}

func TestRunBacktestEndpoint(t *testing.T) {
	bt := &stubBacktester{result: &backtest.Result{Symbol: "SPY", TotalTrades: 2}}
	srv := newTestServer(bt)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", strings.NewReader(`{"symbol": "QQQ"}`))
	req.Header.Set("Content-Type", "application/json")
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, body %s", w.Code, w.Body.String())
	}
	if bt.lastSymbol != "QQQ" {
		t.Errorf("Backtester got symbol %q, want QQQ", bt.lastSymbol)
	}
}

func TestRunBacktestWithoutBacktester(t *testing.T) {
	srv := newTestServer(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", nil)
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", w.Code)
	}
}

func TestGetResultInvalidID(t *testing.T) {
	srv := newTestServer(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest/not-a-uuid", nil)
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", w.Code)
	}
}

func TestListResultsWithoutRepo(t *testing.T) {
	srv := newTestServer(nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest", nil)
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want 503", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	if !rl.Allow("client") || !rl.Allow("client") {
		t.Fatal("First two requests should pass")
	}
	if rl.Allow("client") {
		t.Error("Third request inside the window should be rejected")
	}
	if !rl.Allow("other") {
		t.Error("Distinct clients have independent budgets")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	srv := NewServer(config.ServerConfig{RateLimit: 1, RateWindowSec: 60}, nil, nil, nil, nil, zerolog.Nop())

	first := httptest.NewRecorder()
	srv.router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/params", nil))
	second := httptest.NewRecorder()
	srv.router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/params", nil))

	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Second request status = %d, want 429", second.Code)
	}
}
