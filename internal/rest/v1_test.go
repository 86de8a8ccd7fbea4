package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeblocks/edgesite/internal/proxy"
)

func newV1Engine(client *proxy.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewEventEdgeController(client).RegisterV1Routes(r.Group(""))
	return r
}

func get(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	return doc
}

func TestV1FallbackShapesWhenUnconfigured(t *testing.T) {
	r := newV1Engine(proxy.NewClient("", "", time.Second, nil, nil))

	cases := map[string][]string{
		"/api/v1/health":            {"ok", "service", "api", "ts"},
		"/api/v1/market/overview":   {"ts", "kpis"},
		"/api/v1/assets/BTC/card":   {"ts", "symbol", "card"},
		"/api/v1/edge/regime":       {"ts", "version", "regime", "axes", "drivers", "disclaimer"},
		"/api/v1/edge/supercard":    {"ts", "symbol", "version", "summary", "pillars", "disclaimer"},
		"/api/v1/sentiment/fear-greed": {"ts", "current", "history"},
		"/api/v1/paper/summary":     {"ts", "version", "accounts", "kpis", "sample", "disclaimer"},
		"/api/v1/simlab/overview":   {"ts", "version", "admin", "kpis", "curve", "per_account", "disclaimer"},
		"/api/v1/simlab/trades/live": {"ts", "version", "admin", "items", "disclaimer"},
		"/api/v1/alerts/live":       {"ok", "version", "source_ts", "items"},
	}

	for path, keys := range cases {
		t.Run(path, func(t *testing.T) {
			w := get(t, r, path)
			require.Equal(t, http.StatusOK, w.Code, "degradation must never change the status code")
			assert.Equal(t, proxy.DefaultDegradedCacheControl, w.Header().Get("Cache-Control"))

			doc := decode(t, w)
			for _, key := range keys {
				assert.Contains(t, doc, key)
			}
		})
	}
}

func TestV1AssetCardFallbackScenario(t *testing.T) {
	r := newV1Engine(proxy.NewClient("", "", time.Second, nil, nil))

	w := get(t, r, "/api/v1/assets/BTC/card")
	require.Equal(t, http.StatusOK, w.Code)

	doc := decode(t, w)
	assert.Equal(t, "BTC", doc["symbol"])

	card, ok := doc["card"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"price", "change_24h", "dominance", "vol_24h", "funding", "open_interest", "liquidations_24h"} {
		assert.Equal(t, "—", card[field], field)
	}

	_, err := time.Parse(time.RFC3339, doc["ts"].(string))
	assert.NoError(t, err, "fallback ts must be RFC 3339")
}

func TestV1SentimentHistoryHasSevenPoints(t *testing.T) {
	r := newV1Engine(proxy.NewClient("", "", time.Second, nil, nil))

	doc := decode(t, get(t, r, "/api/v1/sentiment/fear-greed"))
	history, ok := doc["history"].([]any)
	require.True(t, ok)
	assert.Len(t, history, 7)
}

func TestV1PassThroughAndCacheControl(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/market/overview", r.URL.Path)
		w.Header().Set("ETag", `"v42"`)
		w.Write([]byte(`{"ts":"2026-02-02T00:00:00Z","kpis":[{"key":"btc_price","label":"BTC Price","value":"$64,000","sub":"+2.4%"}]}`))
	}))
	defer upstream.Close()

	r := newV1Engine(proxy.NewClient(upstream.URL, "", time.Second, nil, nil))

	w := get(t, r, "/api/v1/market/overview")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, s-maxage=30, stale-while-revalidate=600", w.Header().Get("Cache-Control"))
	assert.Equal(t, `"v42"`, w.Header().Get("ETag"))
	assert.JSONEq(t, `{"ts":"2026-02-02T00:00:00Z","kpis":[{"key":"btc_price","label":"BTC Price","value":"$64,000","sub":"+2.4%"}]}`, w.Body.String())

	// Same upstream state, same bytes.
	w2 := get(t, r, "/api/v1/market/overview")
	assert.Equal(t, w.Body.String(), w2.Body.String())
}

func TestV1QueryDefaulting(t *testing.T) {
	var gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"ts":"2026-02-02T00:00:00Z","items":[]}`))
	}))
	defer upstream.Close()

	r := newV1Engine(proxy.NewClient(upstream.URL, "", time.Second, nil, nil))

	get(t, r, "/api/v1/simlab/trades/live")
	assert.Equal(t, "limit=30", gotQuery)

	get(t, r, "/api/v1/simlab/trades/live?limit=50")
	assert.Equal(t, "limit=50", gotQuery)

	// Malformed limits still produce a well-formed upstream call.
	get(t, r, "/api/v1/simlab/trades/live?limit=abc")
	assert.Equal(t, "limit=30", gotQuery)

	get(t, r, "/api/v1/simlab/overview?days=7")
	assert.Equal(t, "days=7", gotQuery)
}

func TestV1SupercardSymbolDefault(t *testing.T) {
	var gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"ts":"2026-02-02T00:00:00Z"}`))
	}))
	defer upstream.Close()

	r := newV1Engine(proxy.NewClient(upstream.URL, "", time.Second, nil, nil))

	get(t, r, "/api/v1/edge/supercard")
	assert.Equal(t, "symbol=BTC", gotQuery)

	get(t, r, "/api/v1/edge/supercard?symbol=eth")
	assert.Equal(t, "symbol=ETH", gotQuery)
}

func TestV1UpstreamFailureServes200Fallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	r := newV1Engine(proxy.NewClient(upstream.URL, "", time.Second, nil, nil))

	w := get(t, r, "/api/v1/edge/regime")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, proxy.DefaultDegradedCacheControl, w.Header().Get("Cache-Control"))

	doc := decode(t, w)
	drivers, ok := doc["drivers"].([]any)
	require.True(t, ok)
	assert.Len(t, drivers, 3)
}
