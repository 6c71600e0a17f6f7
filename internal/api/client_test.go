package api

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/auth"
)

// newTestClient returns a client with no rate limit and fast retries.
func newTestClient(url string, opts ...ClientOption) *Client {
	base := []ClientOption{WithRateLimit(0, 0), WithRetries(3, 10*time.Millisecond)}
	return NewClient(url, append(base, opts...)...)
}

func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com/trade-api/v2")

		if c.baseURL != "https://api.example.com/trade-api/v2" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com/trade-api/v2")
		}
		if c.signer != nil {
			t.Error("signer should be nil by default")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxRetries != 3 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 3)
		}
		if c.retryBackoff != time.Second {
			t.Errorf("retryBackoff = %v, want %v", c.retryBackoff, time.Second)
		}
		if c.limiter == nil || c.limiter.Limit() != 10 {
			t.Error("limiter should default to 10 requests per second")
		}
	})

	t.Run("with options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com",
			WithTimeout(15*time.Second),
			WithRetries(10, 500*time.Millisecond),
			WithLogger(logger),
			WithRateLimit(2, 4),
		)
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 10 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 10)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
		if c.limiter.Limit() != 2 || c.limiter.Burst() != 4 {
			t.Errorf("limiter = %v/%d, want 2/4", c.limiter.Limit(), c.limiter.Burst())
		}
	})

	t.Run("non-positive rate disables limiter", func(t *testing.T) {
		c := NewClient("https://api.example.com", WithRateLimit(0, 0))
		if c.limiter != nil {
			t.Error("limiter should be nil")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Not Found"}
	if err.Error() != "kalshi api error 404: Not Found" {
		t.Errorf("Error() = %q", err.Error())
	}

	tests := []struct {
		code     int
		expected bool
	}{
		{500, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.code}
		if got := err.IsRetryable(); got != tt.expected {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
		}
	}
}

func TestDoRequest(t *testing.T) {
	t.Run("signs with full path", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate key: %v", err)
		}
		creds := auth.NewCredentials("kid", key)

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			if r.Header.Get(auth.HeaderKey) != "kid" {
				t.Errorf("%s = %q, want %q", auth.HeaderKey, r.Header.Get(auth.HeaderKey), "kid")
			}
			err := auth.Verify(&key.PublicKey, r.Header.Get(auth.HeaderTimestamp), r.Method, r.URL.Path, r.Header.Get(auth.HeaderSignature))
			if err != nil {
				t.Errorf("signature does not verify: %v", err)
			}
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL+"/trade-api/v2", WithSigner(creds))
		body, err := c.doRequest(context.Background(), http.MethodGet, "/portfolio/positions", map[string][]string{"limit": {"5"}}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("unsigned without signer", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(auth.HeaderSignature) != "" {
				t.Errorf("signature header should be empty, got %q", r.Header.Get(auth.HeaderSignature))
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if _, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil, nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if !strings.Contains(string(apiErr.Body), "not found") {
			t.Errorf("Body should contain 'not found', got %q", string(apiErr.Body))
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.doRequest(ctx, http.MethodGet, "/test", nil, nil)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context canceled") {
			t.Errorf("error should contain 'context canceled', got %v", err)
		}
	})
}

func TestDoWithRetry(t *testing.T) {
	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		body, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"ok": true}` {
			t.Errorf("body = %q, want %q", string(body), `{"ok": true}`)
		}
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})

	t.Run("retries on 429", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if _, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts != 2 {
			t.Errorf("attempts = %d, want 2", attempts)
		}
	})

	t.Run("does not retry on 4xx", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		c := newTestClient(server.URL)
		if _, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil); err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts != 1 {
			t.Errorf("attempts = %d, want 1", attempts)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&attempts, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := newTestClient(server.URL, WithRetries(2, 5*time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test", nil)
		if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
			t.Errorf("error should contain 'max retries exceeded', got %v", err)
		}
		// 1 initial + 2 retries
		if attempts != 3 {
			t.Errorf("attempts = %d, want 3", attempts)
		}
	})
}

func TestGetAllMarkets(t *testing.T) {
	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&requestCount, 1)
		q := r.URL.Query()
		if q.Get("series_ticker") != "KXATPMATCH" {
			t.Errorf("series_ticker = %q, want %q", q.Get("series_ticker"), "KXATPMATCH")
		}
		if q.Get("status") != "open" {
			t.Errorf("status = %q, want %q", q.Get("status"), "open")
		}
		if q.Get("limit") != "1000" {
			t.Errorf("limit = %q, want %q", q.Get("limit"), "1000")
		}

		switch {
		case count == 1 && q.Get("cursor") == "":
			json.NewEncoder(w).Encode(MarketsResponse{
				Markets: []APIMarket{{Ticker: "MKT1"}, {Ticker: "MKT2"}},
				Cursor:  "page2",
			})
		case count == 2 && q.Get("cursor") == "page2":
			json.NewEncoder(w).Encode(MarketsResponse{
				Markets: []APIMarket{{Ticker: "MKT3"}},
			})
		default:
			t.Errorf("unexpected request: count=%d cursor=%q", count, q.Get("cursor"))
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	markets, err := c.GetAllMarkets(context.Background(), GetMarketsOptions{SeriesTicker: "KXATPMATCH", Status: "open"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 3 {
		t.Errorf("len(markets) = %d, want 3", len(markets))
	}
	if requestCount != 2 {
		t.Errorf("requestCount = %d, want 2", requestCount)
	}
}

func TestGetOrderbook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/MKT1/orderbook" {
			t.Errorf("path = %q, want %q", r.URL.Path, "/markets/MKT1/orderbook")
		}
		if r.URL.Query().Get("depth") != "10" {
			t.Errorf("depth = %q, want %q", r.URL.Query().Get("depth"), "10")
		}
		w.Write([]byte(`{"orderbook": {"yes": [[40, 5], [45, 10]], "no": [[50, 1], [52, 3], [30, 2]]}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	resp, err := c.GetOrderbook(context.Background(), "MKT1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Orderbook.Yes[0][0] != 45 {
		t.Errorf("best yes bid = %d, want 45", resp.Orderbook.Yes[0][0])
	}
	if resp.Orderbook.No[0][0] != 52 || resp.Orderbook.No[2][0] != 30 {
		t.Errorf("no levels not sorted best-first: %v", resp.Orderbook.No)
	}
}

func TestGetSeriesAndExchangeStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/series/KXWTAMATCH":
			w.Write([]byte(`{"series": {"ticker": "KXWTAMATCH", "title": "WTA Tennis Match", "category": "Sports"}}`))
		case "/exchange/status":
			w.Write([]byte(`{"exchange_active": true, "trading_active": false}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	series, err := c.GetSeries(context.Background(), "KXWTAMATCH")
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if series.Category != "Sports" || series.Title != "WTA Tennis Match" {
		t.Errorf("series = %+v", series)
	}

	status, err := c.GetExchangeStatus(context.Background())
	if err != nil {
		t.Fatalf("GetExchangeStatus: %v", err)
	}
	if !status.ExchangeActive || status.TradingActive {
		t.Errorf("status = %+v, want exchange active and trading inactive", status)
	}
}

func TestPortfolio(t *testing.T) {
	var positionCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/portfolio/positions":
			if atomic.AddInt32(&positionCalls, 1) == 1 {
				w.Write([]byte(`{"market_positions": [{"ticker": "A-B-C", "position": 2}], "cursor": "next"}`))
				return
			}
			if r.URL.Query().Get("cursor") != "next" {
				t.Errorf("cursor = %q, want %q", r.URL.Query().Get("cursor"), "next")
			}
			w.Write([]byte(`{"market_positions": [{"ticker": "D-E-F", "position": -1, "resting_orders_count": 1}]}`))
		case "/portfolio/orders":
			if r.Method == http.MethodPost {
				body, _ := io.ReadAll(r.Body)
				var req CreateOrderRequest
				if err := json.Unmarshal(body, &req); err != nil {
					t.Errorf("decode order: %v", err)
				}
				if req.YesPrice == nil || *req.YesPrice != 62 || req.NoPrice != nil {
					t.Errorf("order prices = %v/%v, want yes 62 only", req.YesPrice, req.NoPrice)
				}
				if r.Header.Get("Content-Type") != "application/json" {
					t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
				}
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"order": {"order_id": "ord-1", "ticker": "T", "side": "yes", "status": "resting", "yes_price": 62}}`))
				return
			}
			if r.URL.Query().Get("status") != "resting" {
				t.Errorf("status = %q, want %q", r.URL.Query().Get("status"), "resting")
			}
			w.Write([]byte(`{"orders": [{"order_id": "o1", "ticker": "X-Y", "side": "no", "status": "resting", "no_price": 40}]}`))
		case "/portfolio/fills":
			w.Write([]byte(`{"fills": [{"trade_id": "f1", "ticker": "X-Y", "side": "yes", "count": 1, "created_time": "2026-01-03T10:00:00Z"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()

	positions, err := c.GetPositions(ctx)
	if err != nil {
		t.Fatalf("GetPositions: %v", err)
	}
	if len(positions) != 2 || positions[1].RestingOrdersCount != 1 {
		t.Errorf("positions = %+v", positions)
	}

	orders, err := c.GetOrders(ctx, "resting")
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderID != "o1" {
		t.Errorf("orders = %+v", orders)
	}

	fills, err := c.GetFills(ctx)
	if err != nil {
		t.Fatalf("GetFills: %v", err)
	}
	if len(fills) != 1 || fills[0].TradeID != "f1" {
		t.Errorf("fills = %+v", fills)
	}

	price := 62
	order, err := c.CreateOrder(ctx, CreateOrderRequest{
		Ticker: "T", ClientOrderID: "cid", Side: "yes", Action: "buy", Count: 1, Type: "limit", YesPrice: &price,
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if order.OrderID != "ord-1" {
		t.Errorf("OrderID = %q, want %q", order.OrderID, "ord-1")
	}
}

func TestCreateOrderIsNotRetried(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.CreateOrder(context.Background(), CreateOrderRequest{Ticker: "T"}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestCheckExchange(t *testing.T) {
	statusServer := func(t *testing.T, code int, body string) *httptest.Server {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/exchange/status" {
				t.Errorf("path = %q, want %q", r.URL.Path, "/exchange/status")
			}
			w.WriteHeader(code)
			w.Write([]byte(body))
		}))
		t.Cleanup(server.Close)
		return server
	}

	tests := []struct {
		name           string
		code           int
		body           string
		requireTrading bool
		wantErr        error
		wantAnyErr     bool
	}{
		{"trading active live", http.StatusOK, `{"exchange_active":true,"trading_active":true}`, true, nil, false},
		{"trading halted live", http.StatusOK, `{"exchange_active":true,"trading_active":false}`, true, ErrTradingInactive, true},
		{"trading halted dry run", http.StatusOK, `{"exchange_active":true,"trading_active":false}`, false, nil, false},
		{"unreachable live", http.StatusBadRequest, `{}`, true, nil, true},
		{"unreachable without trading", http.StatusBadRequest, `{}`, false, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := statusServer(t, tt.code, tt.body)
			c := newTestClient(server.URL, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

			err := c.CheckExchange(context.Background(), tt.requireTrading)
			if !tt.wantAnyErr {
				if err != nil {
					t.Errorf("CheckExchange() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("CheckExchange() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckExchange() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
