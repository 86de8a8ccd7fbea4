// Package live is the server-side counterpart of the browser polling layer:
// per-module pollers that diff snapshots by change key, track "new" feed
// items, and fan change notifications out to SSE subscribers.
package live

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"
)

// ChangeKeyOf derives the comparison key for a snapshot body: the payload's
// freshness timestamp when present, else a content hash. A missing ts field
// therefore degrades to hash-based detection instead of freezing the module.
func ChangeKeyOf(body []byte) string {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err == nil {
		for _, field := range []string{"ts", "source_ts"} {
			if v, ok := doc[field]; ok {
				if s, ok := v.(string); ok && s != "" {
					return s
				}
				if f, ok := v.(float64); ok && f != 0 {
					return strconv.FormatFloat(f, 'f', -1, 64)
				}
			}
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Reconciler decides whether a newly fetched snapshot differs from the last
// committed one. Overlapping polls may resolve out of order, so a key that
// parses as a timestamp older than the committed key is rejected rather
// than committed; non-timestamp keys commit on plain inequality.
type Reconciler struct {
	committed string
}

func NewReconciler(seedKey string) *Reconciler {
	return &Reconciler{committed: seedKey}
}

// Committed returns the currently committed change key.
func (r *Reconciler) Committed() string {
	return r.committed
}

// Observe applies the commit rules to a fetched key and reports whether the
// snapshot carrying it should be committed.
func (r *Reconciler) Observe(key string) bool {
	if key == "" || key == r.committed {
		return false
	}
	if nt, ok := parseKeyTime(key); ok {
		if ct, ok := parseKeyTime(r.committed); ok && !nt.After(ct) {
			return false
		}
	}
	r.committed = key
	return true
}

// parseKeyTime interprets a change key as a timestamp when possible:
// RFC 3339 strings or unix seconds/milliseconds.
func parseKeyTime(key string) (time.Time, bool) {
	if key == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, key); err == nil {
		return t, true
	}
	if n, err := strconv.ParseInt(key, 10, 64); err == nil {
		// Heuristic threshold between unix seconds and milliseconds.
		if n > 1e12 {
			return time.UnixMilli(n), true
		}
		return time.Unix(n, 0), true
	}
	return time.Time{}, false
}
