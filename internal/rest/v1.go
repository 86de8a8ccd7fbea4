package rest

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgeblocks/edgesite/internal/fallback"
	"github.com/edgeblocks/edgesite/internal/proxy"
)

// Cache policies per resource, scaled to its volatility: short for
// near-real-time feeds, long for slow-moving sentiment data.
var (
	policyHealth    = proxy.Policy{CacheControl: "public, s-maxage=10"}
	policyMarket    = proxy.Policy{CacheControl: "public, s-maxage=30, stale-while-revalidate=600"}
	policyAssetCard = proxy.Policy{CacheControl: "public, s-maxage=20, stale-while-revalidate=600"}
	policyRegime    = proxy.Policy{CacheControl: "public, s-maxage=20, stale-while-revalidate=300"}
	policySupercard = proxy.Policy{CacheControl: "public, s-maxage=20, stale-while-revalidate=300"}
	policyFearGreed = proxy.Policy{CacheControl: "public, s-maxage=60, stale-while-revalidate=1200"}
	policyPaper     = proxy.Policy{CacheControl: "public, s-maxage=15, stale-while-revalidate=120"}
	policySimlab    = proxy.Policy{CacheControl: "public, s-maxage=10, stale-while-revalidate=60"}
	policyTrades    = proxy.Policy{CacheControl: "public, s-maxage=5, stale-while-revalidate=30"}
	policyAlerts    = proxy.Policy{CacheControl: "public, s-maxage=5, stale-while-revalidate=30"}
)

// EventEdgeController serves the /api/v1 family: every route is one
// upstream fetch with a resource-specific fallback shape, always HTTP 200.
type EventEdgeController struct {
	client *proxy.Client
}

func NewEventEdgeController(client *proxy.Client) *EventEdgeController {
	return &EventEdgeController{client: client}
}

func (c *EventEdgeController) RegisterV1Routes(rg *gin.RouterGroup) {
	v1 := rg.Group("/api/v1")
	v1.GET("/health", c.handleHealth)
	v1.GET("/market/overview", c.handleMarketOverview)
	v1.GET("/assets/:symbol/card", c.handleAssetCard)
	v1.GET("/edge/regime", c.handleRegime)
	v1.GET("/edge/supercard", c.handleSupercard)
	v1.GET("/sentiment/fear-greed", c.handleFearGreed)
	v1.GET("/paper/summary", c.handlePaperSummary)
	v1.GET("/simlab/overview", c.handleSimlabOverview)
	v1.GET("/simlab/trades/live", c.handleSimlabTrades)
	v1.GET("/alerts/live", c.handleAlertsLive)
}

// serve writes the proxy result. Degradation shows up only in the payload
// and cache headers, never the status code, so browser code needs no error
// branch.
func serve(ctx *gin.Context, res proxy.Result) {
	ctx.Header("Cache-Control", res.CacheControl)
	if res.ETag != "" {
		ctx.Header("ETag", res.ETag)
	}
	ctx.Data(http.StatusOK, "application/json", res.Body)
}

func (c *EventEdgeController) handleHealth(ctx *gin.Context) {
	serve(ctx, c.client.Fetch(ctx.Request.Context(), "/v1/health", fallback.Health(time.Now()), policyHealth))
}

func (c *EventEdgeController) handleMarketOverview(ctx *gin.Context) {
	serve(ctx, c.client.Fetch(ctx.Request.Context(), "/v1/market/overview", fallback.MarketOverview(time.Now()), policyMarket))
}

func (c *EventEdgeController) handleAssetCard(ctx *gin.Context) {
	symbol := strings.ToUpper(ctx.Param("symbol"))
	if symbol == "" {
		symbol = "BTC"
	}
	path := "/v1/assets/" + url.PathEscape(symbol) + "/card"
	serve(ctx, c.client.Fetch(ctx.Request.Context(), path, fallback.AssetCard(time.Now(), symbol), policyAssetCard))
}

func (c *EventEdgeController) handleRegime(ctx *gin.Context) {
	serve(ctx, c.client.Fetch(ctx.Request.Context(), "/v1/edge/regime", fallback.Regime(time.Now()), policyRegime))
}

func (c *EventEdgeController) handleSupercard(ctx *gin.Context) {
	symbol := strings.ToUpper(ctx.DefaultQuery("symbol", "BTC"))
	path := "/v1/edge/supercard?symbol=" + url.QueryEscape(symbol)
	serve(ctx, c.client.Fetch(ctx.Request.Context(), path, fallback.Supercard(time.Now(), symbol), policySupercard))
}

func (c *EventEdgeController) handleFearGreed(ctx *gin.Context) {
	serve(ctx, c.client.Fetch(ctx.Request.Context(), "/v1/sentiment/fear-greed", fallback.FearGreed(time.Now()), policyFearGreed))
}

func (c *EventEdgeController) handlePaperSummary(ctx *gin.Context) {
	serve(ctx, c.client.Fetch(ctx.Request.Context(), "/v1/paper/summary", fallback.PaperSummary(time.Now()), policyPaper))
}

func (c *EventEdgeController) handleSimlabOverview(ctx *gin.Context) {
	days := numericQuery(ctx, "days", "30")
	path := "/v1/simlab/overview?days=" + url.QueryEscape(days)
	serve(ctx, c.client.Fetch(ctx.Request.Context(), path, fallback.SimlabOverview(time.Now()), policySimlab))
}

func (c *EventEdgeController) handleSimlabTrades(ctx *gin.Context) {
	limit := numericQuery(ctx, "limit", "30")
	path := "/v1/simlab/trades/live?limit=" + url.QueryEscape(limit)
	serve(ctx, c.client.Fetch(ctx.Request.Context(), path, fallback.SimlabTrades(time.Now()), policyTrades))
}

func (c *EventEdgeController) handleAlertsLive(ctx *gin.Context) {
	limit := numericQuery(ctx, "limit", "30")
	path := "/v1/alerts/live?limit=" + url.QueryEscape(limit)
	serve(ctx, c.client.Fetch(ctx.Request.Context(), path, fallback.AlertsLive(time.Now()), policyAlerts))
}

// numericQuery forwards a client-supplied numeric parameter, falling back
// to the default when absent or malformed so the upstream call is always
// well formed.
func numericQuery(ctx *gin.Context, name, def string) string {
	raw := ctx.DefaultQuery(name, def)
	if raw == "" {
		return def
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return def
		}
	}
	return raw
}
