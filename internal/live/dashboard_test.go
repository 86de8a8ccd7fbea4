package live

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgeblocks/edgesite/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(os.Stdout, "test ", log.LstdFlags)
}

func feedServer(body *atomic.Value) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body.Load().(string))
	}))
}

func TestDashboardSeedThenCommit(t *testing.T) {
	var body atomic.Value
	body.Store(`{"ok":true,"version":"v1","source_ts":"2026-02-02T12:00:00Z","items":[{"time":"2026-02-02T11:59:00Z","account":"sim-1","symbol":"BTC","side":"LONG","price":64000}]}`)

	srv := feedServer(&body)
	defer srv.Close()

	spec := ModuleSpec{Name: "alerts", Path: "/api/v1/alerts/live", Interval: time.Hour, Feed: true}
	d := NewDashboard(srv.URL, []ModuleSpec{spec}, nil, testLogger())

	now := time.Date(2026, 2, 2, 12, 0, 5, 0, time.UTC)
	d.now = func() time.Time { return now }

	ch, cancel := d.Subscribe()
	defer cancel()

	// First poll seeds the baseline: no change event, no NEW badges.
	d.pollOnce(context.Background(), spec)

	view := d.View(FeedOptions{})
	require.Len(t, view.Modules, 1)
	assert.Equal(t, "2026-02-02T12:00:00Z", view.Modules[0].ChangeKey)
	assert.Empty(t, view.Events)
	assert.Empty(t, view.Modules[0].NewKeys)
	assert.False(t, view.Modules[0].Flash)
	select {
	case <-ch:
		t.Fatal("seeding must not broadcast a change")
	default:
	}

	// A fresher snapshot with one additional item commits.
	body.Store(`{"ok":true,"version":"v1","source_ts":"2026-02-02T12:00:10Z","items":[{"time":"2026-02-02T11:59:00Z","account":"sim-1","symbol":"BTC","side":"LONG","price":64000},{"time":"2026-02-02T12:00:08Z","account":"sim-2","symbol":"ETH","side":"SHORT","price":3200}]}`)
	now = now.Add(10 * time.Second)
	d.pollOnce(context.Background(), spec)

	view = d.View(FeedOptions{})
	assert.Equal(t, "2026-02-02T12:00:10Z", view.Modules[0].ChangeKey)
	assert.True(t, view.Modules[0].Flash, "a fresh commit raises the flash indicator")
	require.Len(t, view.Events, 1)
	assert.Equal(t, "alerts", view.Events[0].Module)
	assert.Equal(t, []string{"2026-02-02T12:00:08Z|sim-2|ETH|SHORT|3200"}, view.Modules[0].NewKeys)

	select {
	case module := <-ch:
		assert.Equal(t, "alerts", module)
	default:
		t.Fatal("commit must notify subscribers")
	}
}

func TestDashboardUnchangedSnapshotIsNoOp(t *testing.T) {
	var body atomic.Value
	body.Store(`{"ts":"2026-02-02T12:00:00Z","kpis":[]}`)

	srv := feedServer(&body)
	defer srv.Close()

	spec := ModuleSpec{Name: "market", Path: "/api/v1/market/overview", Interval: time.Hour}
	d := NewDashboard(srv.URL, []ModuleSpec{spec}, nil, testLogger())

	d.pollOnce(context.Background(), spec)
	d.pollOnce(context.Background(), spec)
	d.pollOnce(context.Background(), spec)

	view := d.View(FeedOptions{})
	assert.Empty(t, view.Events)
	assert.Equal(t, 3, view.Modules[0].Polls)
	assert.Equal(t, 0, view.Modules[0].Failures)
}

func TestDashboardFailedPollRetainsState(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ts":"2026-02-02T12:00:00Z","kpis":[]}`)
	}))
	defer srv.Close()

	spec := ModuleSpec{Name: "market", Path: "/api/v1/market/overview", Interval: time.Hour}
	d := NewDashboard(srv.URL, []ModuleSpec{spec}, nil, testLogger())

	d.pollOnce(context.Background(), spec)
	fail.Store(true)
	d.pollOnce(context.Background(), spec)

	view := d.View(FeedOptions{})
	assert.Equal(t, "2026-02-02T12:00:00Z", view.Modules[0].ChangeKey, "failed polls leave the snapshot in place")
	assert.Equal(t, 1, view.Modules[0].Failures)
}

func TestDashboardEventLogBounded(t *testing.T) {
	d := NewDashboard("http://unused", []ModuleSpec{{Name: "m", Path: "/x", Interval: time.Hour}}, nil, testLogger())

	at := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	d.mu.Lock()
	for i := 0; i < EventLogCap+10; i++ {
		d.appendEventLocked(domain.SystemEvent{
			Module:  "m",
			Message: fmt.Sprintf("update %d", i),
			At:      at.Add(time.Duration(i) * time.Second),
		})
	}
	d.mu.Unlock()

	view := d.View(FeedOptions{})
	require.Len(t, view.Events, EventLogCap)
	// Most recent first.
	assert.Equal(t, fmt.Sprintf("update %d", EventLogCap+9), view.Events[0].Message)
}

func TestDashboardStartStopsOnCancel(t *testing.T) {
	var body atomic.Value
	body.Store(`{"ts":"2026-02-02T12:00:00Z"}`)
	srv := feedServer(&body)
	defer srv.Close()

	spec := ModuleSpec{Name: "market", Path: "/api/v1/market/overview", Interval: 10 * time.Millisecond}
	d := NewDashboard(srv.URL, []ModuleSpec{spec}, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
