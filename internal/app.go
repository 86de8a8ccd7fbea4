package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/edgeblocks/edgesite/internal/config"
	"github.com/edgeblocks/edgesite/internal/kafka"
	"github.com/edgeblocks/edgesite/internal/live"
	"github.com/edgeblocks/edgesite/internal/proxy"
	"github.com/edgeblocks/edgesite/internal/rest"
	"github.com/edgeblocks/edgesite/internal/store"
)

// App centralizes dependency wiring for the edgesite service.
type App struct {
	cfg    config.Config
	logger *log.Logger

	redis     *redis.Client
	snapshots *store.SnapshotStore
	publisher *kafka.ChangeEventPublisher
	upstream  *proxy.Client
	dashboard *live.Dashboard

	httpServer *http.Server
}

// NewApp builds an App with all required dependencies. Redis and Kafka are
// optional: absent configuration disables warm fallback and event
// publishing respectively.
func NewApp(cfg config.Config, logger *log.Logger) *App {
	a := &App{cfg: cfg, logger: logger}

	var lastGood proxy.LastGoodStore
	if cfg.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.snapshots = store.NewSnapshotStore(a.redis, cfg.SnapshotKeyPrefix, cfg.SnapshotTTL)
		lastGood = a.snapshots
	}

	a.upstream = proxy.NewClient(cfg.EventEdgeBase, cfg.EventEdgeToken, cfg.UpstreamTimeout, lastGood, logger)

	var publisher live.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		a.publisher = kafka.NewChangeEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = a.publisher
	}

	if cfg.LiveEnabled {
		a.dashboard = live.NewDashboard(cfg.SiteURL, live.DefaultModules(), publisher, logger)
	}

	return a
}

// Run starts the HTTP server and the live dashboard pollers, blocking until
// ctx cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	if a.dashboard != nil {
		g.Go(func() error {
			if err := a.dashboard.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("start dashboard: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.runHTTPServer(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (a *App) runHTTPServer(ctx context.Context) error {
	r, srv := rest.NewServer(a.cfg)
	a.httpServer = srv

	root := r.Group("")
	rest.NewEventEdgeController(a.upstream).RegisterV1Routes(root)
	rest.NewEdgeCoreController(a.cfg.EdgeCoreInternal, a.cfg.UpstreamTimeout, a.logger).RegisterEdgeCoreRoutes(root)
	if a.dashboard != nil {
		rest.NewDashboardController(a.dashboard).RegisterDashboardRoutes(root)
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Printf("HTTP server started at: %s", srv.Addr)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	// App context shutdown:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		err := <-serverErr
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	// HTTP server error:
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (a *App) cleanup() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Printf("error closing Kafka publisher: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Printf("error closing Redis client: %v", err)
		}
	}
}
