package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/time/rate"

	"github.com/yourorg/tokenapi/internal/validation"
)

type record struct {
	Contract string `json:"contract"`
	Amount   string `json:"amount"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*Options)) (*Client, *int32) {
	t.Helper()

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	opts := Options{
		BaseURL:      srv.URL + "/",
		APIKey:       "test-key",
		UserAgent:    "tokenapi-test",
		Timeout:      5 * time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 2 * time.Millisecond,
		Logger:       logrus.NewEntry(logger),
	}
	if mutate != nil {
		mutate(&opts)
	}

	c := NewClient(opts)
	t.Cleanup(c.Close)
	return c, &hits
}

func TestEndpointQuery(t *testing.T) {
	params := url.Values{"address": {"0xabc"}, KeyNetwork: {"mainnet"}}
	q, err := EVMBalances.Query(params)
	require.NoError(t, err)
	assert.Equal(t, "address=0xabc&network_id=mainnet", q)

	_, err = EVMBalances.Query(url.Values{KeyNetwork: {"mainnet"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
	assert.Contains(t, err.Error(), "required by evm_balances")

	_, err = EVMBalances.Query(url.Values{"address": {"0xabc"}, "adress": {"typo"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not accepted by evm_balances")

	u, err := Health.URL("https://token-api.thegraph.com", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://token-api.thegraph.com/health", u)
}

func TestEndpointsHaveUniqueNames(t *testing.T) {
	all := []Endpoint{
		EVMBalances, EVMHistoricalBalances, EVMTokens, EVMHolders, EVMTransfers, EVMSwaps, EVMPools,
		EVMPriceOHLC, EVMPoolOHLC, NFTOwnerships, NFTCollections, NFTItems, NFTActivities, NFTHolders,
		NFTSales, SVMBalances, SVMTransfers, SVMSwaps, Health, Version, Networks,
	}
	seen := map[string]bool{}
	for _, ep := range all {
		assert.False(t, seen[ep.Name], ep.Name)
		seen[ep.Name] = true
		assert.NotEmpty(t, ep.Path)
		for _, k := range ep.Required {
			assert.NotContains(t, ep.Optional, k, "%s lists %s twice", ep.Name, k)
		}
	}
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []record
	}{
		{name: "bare array", body: `[{"contract":"0xA","amount":"100"}]`, want: []record{{Contract: "0xA", Amount: "100"}}},
		{name: "envelope", body: `{"data":[{"contract":"0xB","amount":"7"}],"statistics":{"elapsed":0.1}}`, want: []record{{Contract: "0xB", Amount: "7"}}},
		{name: "single object in data", body: `{"data":{"contract":"0xC","amount":"1"}}`, want: []record{{Contract: "0xC", Amount: "1"}}},
		{name: "null data", body: `{"data":null}`, want: []record{}},
		{name: "empty array", body: ` [] `, want: []record{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeList[record](EVMBalances, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeList_Malformed(t *testing.T) {
	for _, body := range []string{``, `not json`, `{"data":[{"contract":1}]}`, `{"items":[]}`, `[{"contract":"0xA"`} {
		_, err := DecodeList[record](EVMBalances, []byte(body))
		require.Error(t, err, body)
		assert.ErrorIs(t, err, ErrDecode)
		assert.NotErrorIs(t, err, ErrAPI)

		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "evm_balances", derr.Endpoint)
	}
}

func TestDecodeFirstAndObject(t *testing.T) {
	got, err := DecodeFirst[record](EVMTokens, []byte(`{"data":[]}`))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = DecodeFirst[record](EVMTokens, []byte(`[{"contract":"0xA"},{"contract":"0xB"}]`))
	require.NoError(t, err)
	assert.Equal(t, "0xA", got.Contract)

	v, err := DecodeObject[struct{ Version string }](Version, []byte(`{"version":"2.1.0"}`))
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", v.Version)

	_, err = DecodeObject[struct{ Version string }](Version, []byte(`["2.1.0"]`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestClient_SendsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`[{"contract":"0xA","amount":"100"}]`))
	}, nil)

	out, err := List[record](context.Background(), c, EVMBalances, url.Values{"address": {"0xabc"}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "100", out[0].Amount)

	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/balances/evm", got.URL.Path)
	assert.Equal(t, "0xabc", got.URL.Query().Get("address"))
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))
	assert.Equal(t, "tokenapi-test", got.Header.Get("User-Agent"))
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    string
		message string
	}{
		{name: "json error", status: 401, body: `{"status":401,"code":"authentication_failed","message":"invalid token"}`, code: "authentication_failed", message: "invalid token"},
		{name: "plain text", status: 500, body: "boom\n", message: "boom"},
		{name: "empty body", status: 404, message: "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, nil)

			_, err := c.Get(context.Background(), Health, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrAPI)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, int32(1), atomic.LoadInt32(hits), "no retries by default")
		})
	}
}

func TestClient_RawReturnsStatus(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("unauthorized"))
	}, nil)

	status, body, err := c.Raw(context.Background(), Health, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", string(body))
}

func TestClient_ConfiguredRetries(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(o *Options) { o.MaxRetries = 2 })

	_, err := c.Get(context.Background(), Version, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, int32(3), atomic.LoadInt32(hits))
}

func TestClient_RetryRecovers(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"version":"1"}`))
	}, func(o *Options) { o.MaxRetries = 1 })

	v, err := Object[map[string]string](context.Background(), c, Version, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", (*v)["version"])
}

func TestClient_TransportError(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", APIKey: "k", Timeout: time.Second})
	defer c.Close()

	_, err := c.Get(context.Background(), Health, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.NotNil(t, apiErr.Err)
}

func TestClient_ContextCanceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, Health, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClient_ValidationSkipsNetwork(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, func(o *Options) { o.Metrics = metrics })

	_, err = c.Get(context.Background(), EVMTokens, url.Values{})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
	assert.Equal(t, int32(0), atomic.LoadInt32(hits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.validation.WithLabelValues("evm_tokens")))
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	again, err := NewMetrics(reg)
	require.NoError(t, err, "second registration reuses collectors")

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`OK`))
	}, func(o *Options) { o.Metrics = again })

	_, _, err = c.Raw(context.Background(), Health, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("health", "200")))
}

func TestClient_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`OK`))
	}, func(o *Options) { o.TracerProvider = tp })

	_, _, err := c.Raw(context.Background(), Health, nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tokenapi health", spans[0].Name())
}

func TestClient_RateLimiter(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`OK`))
	}, func(o *Options) { o.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1) })

	_, _, err := c.Raw(context.Background(), Health, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = c.Raw(ctx, Health, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}
