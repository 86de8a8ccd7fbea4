package live

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/edgeblocks/edgesite/internal/numbers"
)

// DefaultNewWindow is how long a freshly observed feed item keeps its NEW
// badge.
const DefaultNewWindow = 2 * time.Second

// DisplayLimits are the feed lengths a client may request.
var DisplayLimits = []int{10, 30, 50}

// SeenKey builds the composite identity used for NEW badge tracking. It is
// deliberately a display concern: the upstream list remains the source of
// truth for contents and ordering.
func SeenKey(item map[string]any) string {
	parts := make([]string, 0, 5)
	for _, field := range []string{"time", "ts", "account", "symbol", "side", "price"} {
		v, ok := item[field]
		if !ok {
			continue
		}
		s, err := numbers.ExtractString(v)
		if err != nil {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "|")
}

// FeedItems extracts the list payload from a feed snapshot body.
func FeedItems(body []byte) []map[string]any {
	var doc struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	return doc.Items
}

// FeedTracker maintains the seen set and NEW badge expiries for one feed
// module. It is not safe for concurrent use; the owning poller serializes
// access.
type FeedTracker struct {
	window   time.Duration
	seen     map[string]struct{}
	newUntil map[string]time.Time
}

func NewFeedTracker(window time.Duration) *FeedTracker {
	if window <= 0 {
		window = DefaultNewWindow
	}
	return &FeedTracker{
		window:   window,
		seen:     make(map[string]struct{}),
		newUntil: make(map[string]time.Time),
	}
}

// Seed marks the initial payload as already seen so pre-existing items are
// never badged NEW.
func (t *FeedTracker) Seed(keys []string) {
	for _, k := range keys {
		if k != "" {
			t.seen[k] = struct{}{}
		}
	}
}

// Observe records one tick's keys, marks previously unseen ones NEW for the
// badge window, and garbage-collects expired badge entries. It returns the
// keys newly marked.
func (t *FeedTracker) Observe(keys []string, now time.Time) []string {
	t.gc(now)

	var marked []string
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := t.seen[k]; ok {
			continue
		}
		t.seen[k] = struct{}{}
		t.newUntil[k] = now.Add(t.window)
		marked = append(marked, k)
	}
	return marked
}

// IsNew reports whether the key's NEW badge window is still open.
func (t *FeedTracker) IsNew(key string, now time.Time) bool {
	until, ok := t.newUntil[key]
	return ok && now.Before(until)
}

// NewKeys returns every key whose badge window is still open.
func (t *FeedTracker) NewKeys(now time.Time) []string {
	var keys []string
	for k, until := range t.newUntil {
		if now.Before(until) {
			keys = append(keys, k)
		}
	}
	return keys
}

func (t *FeedTracker) gc(now time.Time) {
	for k, until := range t.newUntil {
		if !now.Before(until) {
			delete(t.newUntil, k)
		}
	}
}

// FilterItems applies the optional PnL sign filter and display limit used
// by feed views. pnlSign is "positive", "negative", or empty for no filter;
// limits outside DisplayLimits fall back to 30.
func FilterItems(items []map[string]any, pnlSign string, limit int) []map[string]any {
	allowed := false
	for _, l := range DisplayLimits {
		if limit == l {
			allowed = true
			break
		}
	}
	if !allowed {
		limit = 30
	}

	out := make([]map[string]any, 0, limit)
	for _, item := range items {
		if pnlSign != "" {
			pnl, err := numbers.ExtractFloat(item["pnl"])
			if err != nil {
				continue
			}
			if pnlSign == "positive" && pnl <= 0 {
				continue
			}
			if pnlSign == "negative" && pnl >= 0 {
				continue
			}
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
