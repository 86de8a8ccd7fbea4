package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/edgeblocks/edgesite/internal/domain"
	"github.com/edgeblocks/edgesite/internal/routine"
)

const (
	// FlashWindow is how long a module's flash indicator stays raised after
	// a committed change.
	FlashWindow = 700 * time.Millisecond

	// EventLogCap bounds the system event log, most recent first.
	EventLogCap = 30
)

// ModuleSpec describes one polled dashboard module.
type ModuleSpec struct {
	Name     string
	Path     string // self-origin route polled on each tick
	Interval time.Duration
	Feed     bool // list-valued payload, tracked for NEW badges
}

// DefaultModules is the standard dashboard registry. Slow-moving modules
// poll on long intervals, feeds on short ones.
func DefaultModules() []ModuleSpec {
	return []ModuleSpec{
		{Name: "market", Path: "/api/v1/market/overview", Interval: 30 * time.Second},
		{Name: "asset_btc", Path: "/api/v1/assets/BTC/card", Interval: 20 * time.Second},
		{Name: "regime", Path: "/api/v1/edge/regime", Interval: 20 * time.Second},
		{Name: "supercard", Path: "/api/v1/edge/supercard", Interval: 20 * time.Second},
		{Name: "sentiment", Path: "/api/v1/sentiment/fear-greed", Interval: 60 * time.Second},
		{Name: "paper", Path: "/api/v1/paper/summary", Interval: 15 * time.Second},
		{Name: "simlab", Path: "/api/v1/simlab/overview", Interval: 15 * time.Second},
		{Name: "simlab_trades", Path: "/api/v1/simlab/trades/live", Interval: 5 * time.Second, Feed: true},
		{Name: "alerts", Path: "/api/v1/alerts/live", Interval: 5 * time.Second, Feed: true},
	}
}

// EventPublisher receives committed change events. Satisfied by the Kafka
// publisher; nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ChangeEvent) error
}

type moduleState struct {
	spec     ModuleSpec
	rec      *Reconciler
	feed     *FeedTracker
	snapshot domain.Snapshot
	seeded   bool

	lastChange time.Time
	polls      int
	failures   int
}

// Dashboard polls the service's own API routes and maintains per-module
// view state. Each module runs as an independent managed goroutine; a
// failed poll leaves state untouched and is retried next tick.
type Dashboard struct {
	base      string
	httpc     *http.Client
	logger    *log.Logger
	publisher EventPublisher
	newWindow time.Duration

	manager *routine.Manager
	once    sync.Once

	mu     sync.RWMutex
	states map[string]*moduleState
	events []domain.SystemEvent

	subMu sync.Mutex
	subs  map[chan string]struct{}

	now func() time.Time
}

func NewDashboard(base string, modules []ModuleSpec, publisher EventPublisher, logger *log.Logger) *Dashboard {
	if len(modules) == 0 {
		modules = DefaultModules()
	}
	states := make(map[string]*moduleState, len(modules))
	for _, spec := range modules {
		st := &moduleState{spec: spec, rec: NewReconciler("")}
		if spec.Feed {
			st.feed = NewFeedTracker(DefaultNewWindow)
		}
		states[spec.Name] = st
	}
	return &Dashboard{
		base:      base,
		httpc:     &http.Client{Timeout: 10 * time.Second},
		logger:    logger,
		publisher: publisher,
		newWindow: DefaultNewWindow,
		states:    states,
		subs:      make(map[chan string]struct{}),
		now:       time.Now,
	}
}

// Start launches one poller per module and blocks until ctx cancellation.
func (d *Dashboard) Start(ctx context.Context) error {
	d.once.Do(func() {
		d.manager = routine.NewManager(ctx)
	})

	d.mu.RLock()
	specs := make([]ModuleSpec, 0, len(d.states))
	for _, st := range d.states {
		specs = append(specs, st.spec)
	}
	d.mu.RUnlock()

	for _, spec := range specs {
		spec := spec
		err := d.manager.RunTask(&routine.Task{
			ID: spec.Name,
			Handler: func(taskCtx context.Context) error {
				return d.pollLoop(taskCtx, spec)
			},
			OnError: func(id string, err error) {
				d.logger.Printf("module %s poller stopped: %v", id, err)
			},
		})
		if err != nil {
			_ = d.manager.ShutdownAll()
			return fmt.Errorf("start module %s: %w", spec.Name, err)
		}
	}

	<-ctx.Done()
	return d.manager.ShutdownAll()
}

func (d *Dashboard) pollLoop(ctx context.Context, spec ModuleSpec) error {
	// Immediate first fetch seeds the module so the dashboard has data
	// before the first interval elapses.
	d.pollOnce(ctx, spec)

	ticker := time.NewTicker(spec.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.pollOnce(ctx, spec)
		}
	}
}

func (d *Dashboard) pollOnce(ctx context.Context, spec ModuleSpec) {
	body, err := d.fetch(ctx, spec.Path)

	d.mu.Lock()
	st := d.states[spec.Name]
	st.polls++
	if err != nil {
		st.failures++
		d.mu.Unlock()
		d.logger.Printf("poll %s: %v", spec.Name, err)
		return
	}

	now := d.now()
	key := ChangeKeyOf(body)

	// First successful fetch seeds state without raising a change: it is
	// the baseline, and pre-existing feed items must not be badged NEW.
	if !st.seeded {
		st.seeded = true
		st.rec = NewReconciler(key)
		st.snapshot = domain.Snapshot{Module: spec.Name, Body: body, ChangeKey: key, FetchedAt: now}
		if st.feed != nil {
			st.feed.Seed(feedKeys(body))
		}
		d.mu.Unlock()
		return
	}

	if !st.rec.Observe(key) {
		// Unchanged, or a stale overlapping response; state stays put.
		st.snapshot.FetchedAt = now
		d.mu.Unlock()
		return
	}

	st.snapshot = domain.Snapshot{Module: spec.Name, Body: body, ChangeKey: key, FetchedAt: now}
	st.lastChange = now
	if st.feed != nil {
		st.feed.Observe(feedKeys(body), now)
	}
	d.appendEventLocked(domain.SystemEvent{
		Module:  spec.Name,
		Message: fmt.Sprintf("%s updated (%s)", spec.Name, key),
		At:      now,
	})
	d.mu.Unlock()

	d.broadcast(spec.Name)
	d.publish(ctx, domain.ChangeEvent{Module: spec.Name, ChangeKey: key, At: now})
}

func (d *Dashboard) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	return body, nil
}

func feedKeys(body []byte) []string {
	items := FeedItems(body)
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, SeenKey(item))
	}
	return keys
}

// appendEventLocked prepends to the bounded event log; callers hold d.mu.
func (d *Dashboard) appendEventLocked(ev domain.SystemEvent) {
	d.events = append([]domain.SystemEvent{ev}, d.events...)
	if len(d.events) > EventLogCap {
		d.events = d.events[:EventLogCap]
	}
}

func (d *Dashboard) publish(ctx context.Context, ev domain.ChangeEvent) {
	if d.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.publisher.Publish(pubCtx, ev); err != nil {
		d.logger.Printf("publish change event for %s: %v", ev.Module, err)
	}
}

// Subscribe registers a change notification channel carrying module names.
// Slow subscribers miss notifications instead of blocking pollers.
func (d *Dashboard) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 32)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()

	cancel := func() {
		d.subMu.Lock()
		delete(d.subs, ch)
		d.subMu.Unlock()
	}
	return ch, cancel
}

func (d *Dashboard) broadcast(module string) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- module:
		default:
		}
	}
}
