package live

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/edgeblocks/edgesite/internal/domain"
)

// FeedOptions carries the client's display choices for feed modules.
type FeedOptions struct {
	PnLSign string
	Limit   int
}

// ModuleView is the externally visible state of one dashboard module.
type ModuleView struct {
	Name         string            `json:"name"`
	Snapshot     json.RawMessage   `json:"snapshot"`
	ChangeKey    string            `json:"change_key"`
	Flash        bool              `json:"flash"`
	StaleSeconds float64           `json:"stale_seconds"`
	Polls        int               `json:"polls"`
	Failures     int               `json:"failures"`
	Items        []map[string]any  `json:"items,omitempty"`
	NewKeys      []string          `json:"new_keys,omitempty"`
}

// View is the aggregated dashboard state served to browsers.
type View struct {
	TS      string               `json:"ts"`
	Modules []ModuleView         `json:"modules"`
	Events  []domain.SystemEvent `json:"events"`
}

// View renders the current state. Feed modules get their items filtered
// and truncated per opts; flash reflects the 700ms change window.
func (d *Dashboard) View(opts FeedOptions) View {
	now := d.now()

	d.mu.RLock()
	defer d.mu.RUnlock()

	modules := make([]ModuleView, 0, len(d.states))
	for _, st := range d.states {
		mv := ModuleView{
			Name:      st.spec.Name,
			Snapshot:  st.snapshot.Body,
			ChangeKey: st.snapshot.ChangeKey,
			Flash:     !st.lastChange.IsZero() && now.Sub(st.lastChange) < FlashWindow,
			Polls:     st.polls,
			Failures:  st.failures,
		}
		mv.StaleSeconds = staleness(st.snapshot, now)
		if st.feed != nil {
			mv.Items = FilterItems(FeedItems(st.snapshot.Body), opts.PnLSign, opts.Limit)
			mv.NewKeys = st.feed.NewKeys(now)
		}
		modules = append(modules, mv)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })

	events := make([]domain.SystemEvent, len(d.events))
	copy(events, d.events)

	return View{
		TS:      now.UTC().Format(time.RFC3339),
		Modules: modules,
		Events:  events,
	}
}

// staleness measures seconds since the snapshot's own timestamp when it has
// one, else since the last fetch. It keeps growing while the upstream is
// down, which is the only staleness signal the UI gets.
func staleness(snap domain.Snapshot, now time.Time) float64 {
	if t, ok := parseKeyTime(snap.ChangeKey); ok {
		return now.Sub(t).Seconds()
	}
	if snap.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(snap.FetchedAt).Seconds()
}
