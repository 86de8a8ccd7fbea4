// Package fallback defines the static placeholder payloads served when the
// EventEdge API is unreachable or unconfigured. Every payload carries the
// same key set as its live counterpart so consumers never branch on
// "is this a fallback"; placeholder scalars are em-dash strings or zeros.
package fallback

import (
	"encoding/json"
	"time"
)

const (
	// Placeholder rendered for values with no live data behind them.
	Dash = "—"

	Version    = "v1"
	Disclaimer = "Simulated, delayed, or unavailable data. Not financial advice."
)

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func iso(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}

// Health mirrors /api/v1/health.
func Health(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ok":      true,
		"service": "edgesite",
		"api":     "unreachable",
		"ts":      iso(now),
	})
}

// MarketOverview mirrors /api/v1/market/overview.
func MarketOverview(now time.Time) json.RawMessage {
	kpi := func(key, label string) map[string]any {
		return map[string]any{"key": key, "label": label, "value": Dash, "sub": ""}
	}
	return mustJSON(map[string]any{
		"ts": iso(now),
		"kpis": []map[string]any{
			kpi("btc_price", "BTC Price"),
			kpi("eth_price", "ETH Price"),
			kpi("total_mcap", "Total Market Cap"),
			kpi("btc_dominance", "BTC Dominance"),
		},
	})
}

// AssetCard mirrors /api/v1/assets/{symbol}/card.
func AssetCard(now time.Time, symbol string) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":     iso(now),
		"symbol": symbol,
		"card": map[string]any{
			"price":            Dash,
			"change_24h":       Dash,
			"dominance":        Dash,
			"vol_24h":          Dash,
			"funding":          Dash,
			"open_interest":    Dash,
			"liquidations_24h": Dash,
		},
	})
}

// Regime mirrors /api/v1/edge/regime.
func Regime(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":      iso(now),
		"version": Version,
		"regime": map[string]any{
			"label":      Dash,
			"confidence": 0,
			"since":      "",
		},
		"axes":       []any{},
		"drivers":    []string{Dash, Dash, Dash},
		"disclaimer": Disclaimer,
	})
}

// Supercard mirrors /api/v1/edge/supercard.
func Supercard(now time.Time, symbol string) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":      iso(now),
		"symbol":  symbol,
		"version": Version,
		"summary": map[string]any{
			"headline":   Dash,
			"stance":     Dash,
			"confidence": 0,
			"notes":      []any{},
		},
		"pillars":    []any{},
		"disclaimer": Disclaimer,
	})
}

// FearGreed mirrors /api/v1/sentiment/fear-greed with a zeroed 7 day history.
func FearGreed(now time.Time) json.RawMessage {
	history := make([]map[string]any, 0, 7)
	for i := 6; i >= 0; i-- {
		history = append(history, map[string]any{
			"t": now.UTC().AddDate(0, 0, -i).Format("2006-01-02"),
			"v": 0,
		})
	}
	return mustJSON(map[string]any{
		"ts":      iso(now),
		"current": map[string]any{"value": 0, "label": Dash},
		"history": history,
	})
}

// PaperSummary mirrors /api/v1/paper/summary.
func PaperSummary(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":       iso(now),
		"version":  Version,
		"accounts": map[string]any{"active": 0, "tracked": 0},
		"kpis": map[string]any{
			"total_pnl_pct":    0,
			"win_rate":         0,
			"trades_30d":       0,
			"max_drawdown_pct": 0,
		},
		"sample":     map[string]any{"name": Dash, "equity_curve": []any{}},
		"disclaimer": Disclaimer,
	})
}

// SimlabOverview mirrors /api/v1/simlab/overview.
func SimlabOverview(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":      iso(now),
		"version": Version,
		"admin": map[string]any{
			"tg_id":    "",
			"accounts": map[string]any{"total": 0, "active": 0},
		},
		"kpis": map[string]any{
			"equity":   0,
			"pnl_24h":  0,
			"pnl_7d":   0,
			"win_rate": 0,
		},
		"curve":       []any{},
		"per_account": []any{},
		"disclaimer":  Disclaimer,
	})
}

// SimlabTrades mirrors /api/v1/simlab/trades/live.
func SimlabTrades(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ts":         iso(now),
		"version":    Version,
		"admin":      map[string]any{"tg_id": ""},
		"items":      []any{},
		"disclaimer": Disclaimer,
	})
}

// AlertsLive mirrors /api/v1/alerts/live.
func AlertsLive(now time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"ok":        true,
		"version":   Version,
		"source_ts": iso(now),
		"items":     []any{},
	})
}
