package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/tokenapi/internal/security"
	"github.com/yourorg/tokenapi/model"
	"github.com/yourorg/tokenapi/price"
	"github.com/yourorg/tokenapi/types"
)

type stubQuoter struct {
	mu      sync.Mutex
	quotes  map[types.Currency]*price.Quote
	err     error
	calls   []types.Currency
	forced  int
	cleared [][]types.Currency
}

func (s *stubQuoter) GetWithStats(_ context.Context, c types.Currency, opts ...price.GetOption) (*price.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
	if len(opts) > 0 {
		s.forced++
	}
	if s.err != nil {
		return nil, s.err
	}
	q, ok := s.quotes[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", price.ErrUnsupportedCurrency, c)
	}
	return q, nil
}

func (s *stubQuoter) ClearCache(_ context.Context, cs ...types.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, cs)
	return nil
}

func (s *stubQuoter) SupportedCurrencies() []types.Currency { return types.Currencies() }

type stubHealth struct {
	health model.Health
	err    error
}

func (s stubHealth) Health(context.Context) (model.Health, error) { return s.health, s.err }

func testConfig() adapterConfig {
	return adapterConfig{Port: "0", RequestTimeout: 5 * time.Second}
}

func newTestServer(t *testing.T, cfg adapterConfig, q quoter, h healthChecker, signer *security.Signer) *httptest.Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := NewServer(cfg, q, h, signer, prometheus.NewRegistry(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func ethQuote() *price.Quote {
	return &price.Quote{
		Currency:   types.CurrencyETH,
		Price:      3012.5,
		Trades:     87,
		Confidence: 0.92,
		Volatility: 0.004,
		FetchedAt:  time.Unix(1748736000, 0),
	}
}

func post(t *testing.T, url, body string) (*http.Response, ChainlinkResponse) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ChainlinkResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHandleRequest_Success(t *testing.T) {
	q := &stubQuoter{quotes: map[types.Currency]*price.Quote{types.CurrencyETH: ethQuote()}}
	ts := newTestServer(t, testConfig(), q, stubHealth{}, nil)

	resp, out := post(t, ts.URL, `{"id":"1","jobRunId":"job-42","data":{"from":"eth"}}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "job-42", out.JobRunID)
	assert.Equal(t, "success", out.Status)
	assert.Equal(t, 3012.5, out.Data["result"])
	assert.Equal(t, 0.92, out.Data["confidence"])
	assert.Equal(t, float64(87), out.Data["trades"])
	assert.Equal(t, float64(1748736000), out.Data["fetchedAt"])
	assert.Equal(t, "1", out.Data["id"])
	assert.Nil(t, out.Signed)
	assert.Equal(t, []types.Currency{types.CurrencyETH}, q.calls)
	assert.Zero(t, q.forced)
}

func TestHandleRequest_ForceRefresh(t *testing.T) {
	q := &stubQuoter{quotes: map[types.Currency]*price.Quote{types.CurrencyETH: ethQuote()}}
	ts := newTestServer(t, testConfig(), q, stubHealth{}, nil)

	resp, _ := post(t, ts.URL, `{"jobRunId":"1","data":{"currency":"ETH","forceRefresh":true}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, q.forced)
}

func TestHandleRequest_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "unknown currency", body: `{"jobRunId":"1","data":{"currency":"DOGE"}}`, wantStatus: http.StatusBadRequest},
		{name: "missing currency", body: `{"jobRunId":"1","data":{}}`, wantStatus: http.StatusBadRequest},
		{name: "bad body", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "insufficient data", body: `{"jobRunId":"1","data":{"currency":"SOL"}}`, err: fmt.Errorf("%w: 1 samples", price.ErrInsufficientData), wantStatus: http.StatusServiceUnavailable},
		{name: "low confidence", body: `{"jobRunId":"1","data":{"currency":"SOL"}}`, err: price.ErrLowConfidence, wantStatus: http.StatusServiceUnavailable},
		{name: "circuit open", body: `{"jobRunId":"1","data":{"currency":"SOL"}}`, err: fmt.Errorf("%w: tripped", price.ErrCircuitOpen), wantStatus: http.StatusServiceUnavailable},
		{name: "upstream failure", body: `{"jobRunId":"1","data":{"currency":"SOL"}}`, err: errors.New("boom"), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuoter{err: tt.err}
			ts := newTestServer(t, testConfig(), q, stubHealth{}, nil)

			resp, out := post(t, ts.URL, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantStatus, out.StatusCode)
			assert.Equal(t, "errored", out.Status)
			assert.NotEmpty(t, out.Error)
		})
	}
}

func TestHandleRequest_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, testConfig(), &stubQuoter{}, stubHealth{}, nil)

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleRequest_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1

	q := &stubQuoter{quotes: map[types.Currency]*price.Quote{types.CurrencyETH: ethQuote()}}
	ts := newTestServer(t, cfg, q, stubHealth{}, nil)

	resp, _ := post(t, ts.URL, `{"jobRunId":"1","data":{"currency":"ETH"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, out := post(t, ts.URL, `{"jobRunId":"2","data":{"currency":"ETH"}}`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Rate limit exceeded", out.Error)
	assert.Len(t, q.calls, 1)
}

func TestHandleRequest_Signed(t *testing.T) {
	signer, err := security.NewSigner("", time.Hour)
	require.NoError(t, err)

	q := &stubQuoter{quotes: map[types.Currency]*price.Quote{types.CurrencyETH: ethQuote()}}
	ts := newTestServer(t, testConfig(), q, stubHealth{}, signer)

	_, out := post(t, ts.URL, `{"jobRunId":"1","data":{"currency":"ETH"}}`)
	require.NotNil(t, out.Signed)

	addr, err := security.Verify(out.Signed, time.Now())
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), addr)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(out.Signed.Payload, &payload))
	assert.Equal(t, 3012.5, payload["result"])
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name       string
		checker    stubHealth
		wantStatus int
	}{
		{name: "healthy", checker: stubHealth{health: model.Health{Healthy: true, StatusCode: 200, Status: "OK"}}, wantStatus: http.StatusOK},
		{name: "unauthorized", checker: stubHealth{health: model.Health{StatusCode: 401, Reason: "invalid key"}}, wantStatus: http.StatusServiceUnavailable},
		{name: "unreachable", checker: stubHealth{err: errors.New("dial tcp: refused")}, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, testConfig(), &stubQuoter{}, tt.checker, nil)

			resp, err := http.Get(ts.URL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHandleStatus(t *testing.T) {
	signer, err := security.NewSigner("", 0)
	require.NoError(t, err)
	ts := newTestServer(t, testConfig(), &stubQuoter{}, stubHealth{}, signer)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "operational", status["status"])
	assert.Equal(t, []any{"ETH", "SOL", "POL"}, status["currencies"])
	assert.Equal(t, signer.Address().Hex(), status["signer"])
}

func TestHandleCache(t *testing.T) {
	q := &stubQuoter{}
	ts := newTestServer(t, testConfig(), q, stubHealth{}, nil)

	resp, err := http.Post(ts.URL+"/cache?action=clear&currency=sol", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/cache?action=clear", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/cache?action=clear&currency=BTC", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Len(t, q.cleared, 2)
	assert.Equal(t, []types.Currency{types.CurrencySOL}, q.cleared[0])
	assert.Empty(t, q.cleared[1])
}

func TestMetricsEndpoint(t *testing.T) {
	q := &stubQuoter{quotes: map[types.Currency]*price.Quote{types.CurrencyETH: ethQuote()}}
	ts := newTestServer(t, testConfig(), q, stubHealth{}, nil)

	post(t, ts.URL, `{"jobRunId":"1","data":{"currency":"ETH"}}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `priceadapter_requests_total{currency="ETH",status="success"} 1`)
	assert.Contains(t, string(body), `priceadapter_price_usd{currency="ETH"} 3012.5`)
}
