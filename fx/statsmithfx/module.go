// Package statsmithfx provides an fx module that assembles the statsmith
// service and its HTTP server from a *config.Config.
package statsmithfx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/statsmith/statsmith"
	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/artifact"
	"github.com/statsmith/statsmith/internal/artifact/diskartifact"
	"github.com/statsmith/statsmith/internal/artifact/gcsartifact"
	"github.com/statsmith/statsmith/internal/artifact/s3artifact"
	"github.com/statsmith/statsmith/internal/config"
	"github.com/statsmith/statsmith/internal/httpapi"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/leaderboard/memstore"
	"github.com/statsmith/statsmith/internal/leaderboard/mongostore"
	"github.com/statsmith/statsmith/internal/schedule"
	"github.com/statsmith/statsmith/internal/stats"
	"github.com/statsmith/statsmith/internal/stats/logger"
	promstats "github.com/statsmith/statsmith/internal/stats/prometheus"
	"github.com/statsmith/statsmith/internal/upstream"
	"github.com/statsmith/statsmith/internal/upstream/hypixel"
	"github.com/statsmith/statsmith/internal/upstream/mojang"
	"github.com/statsmith/statsmith/internal/upstream/playerdb"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 15 * time.Second

// Module provides the service, its HTTP server and the background
// scheduler. Requires a *config.Config and a *zap.Logger.
var Module = fx.Module("statsmith",
	fx.Provide(
		newMetrics,
		newUpstreams,
		newRedis,
		newRowStore,
		newPublisher,
		newNotifier,
		newService,
		newScheduler,
		newServer,
	),
	fx.Invoke(func(*http.Server, *schedule.Scheduler) {}),
)

// Metrics holds the collector and the registry served on /metrics. Gatherer
// is nil when metrics are disabled.
type Metrics struct {
	fx.Out

	Collector stats.Collector
	Gatherer  prometheus.Gatherer
}

func newMetrics(cfg *config.Config, log *zap.Logger) Metrics {
	if !cfg.Metrics.Enabled {
		return Metrics{Collector: logger.New(log.Named("stats"))}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return Metrics{
		Collector: promstats.New(reg, cfg.Metrics.Namespace),
		Gatherer:  reg,
	}
}

// Upstreams holds the outbound API clients.
type Upstreams struct {
	fx.Out

	Source   statsmith.Source
	Resolver upstream.Resolver
}

func newUpstreams(cfg *config.Config, collector stats.Collector, log *zap.Logger) Upstreams {
	client := func(service string, opts ...upstream.Option) *upstream.Client {
		return upstream.NewClient(service, append([]upstream.Option{
			upstream.WithTimeout(cfg.UpstreamTimeout),
			upstream.WithStats(collector),
			upstream.WithLogger(log),
		}, opts...)...)
	}

	resolver := upstream.Chain{
		mojang.New(client("mojang"), cfg.Mojang.APIURL, cfg.Mojang.SessionURL),
		playerdb.New(client("playerdb"), cfg.PlayerDB.URL),
	}
	source := hypixel.New(
		client("hypixel", upstream.WithHeader("API-Key", cfg.Hypixel.APIKey)),
		cfg.Hypixel.URL,
		log,
	)
	return Upstreams{Source: source, Resolver: resolver}
}

// newRedis returns nil unless the redis cache backend is configured.
func newRedis(cfg *config.Config, lc fx.Lifecycle) (*redis.Client, error) {
	if cfg.Cache.Backend != "redis" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("connecting to redis: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

func newRowStore(cfg *config.Config) (leaderboard.RowStore, error) {
	lb := cfg.Leaderboard
	if lb.Store != "mongo" {
		return memstore.New(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout)
	defer cancel()
	st, err := mongostore.Connect(ctx, lb.MongoURI, lb.MongoDatabase, lb.MongoCollection)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	return st, nil
}

// newPublisher returns nil when no artifact backend is configured.
func newPublisher(cfg *config.Config, lc fx.Lifecycle, log *zap.Logger) (*leaderboard.Publisher, error) {
	a := cfg.Artifacts
	c, ok := artifact.CodecByName(a.Codec)
	if !ok {
		return nil, fmt.Errorf("unknown artifact codec %q", a.Codec)
	}

	ctx := context.Background()
	var (
		store artifact.Store
		err   error
	)
	switch a.Backend {
	case "", "none":
		return nil, nil
	case "disk":
		store, err = diskartifact.New(a.Path, c)
	case "s3":
		store, err = s3artifact.New(ctx, a.Bucket, c,
			s3artifact.WithPrefix(a.Prefix),
			s3artifact.WithRegion(a.Region),
			s3artifact.WithEndpoint(a.Endpoint),
		)
	case "gcs":
		store, err = gcsartifact.New(ctx, a.Bucket, c, gcsartifact.WithPrefix(a.Prefix))
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", a.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s artifact store: %w", a.Backend, err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return leaderboard.NewPublisher(store, a.Keep, log), nil
}

func newNotifier(cfg *config.Config) alert.Notifier {
	if cfg.Alerts.DiscordWebhook == "" {
		return alert.Noop{}
	}
	return alert.NewDiscord(cfg.Alerts.DiscordWebhook, nil)
}

// ServiceParams holds dependencies for creating the service.
type ServiceParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Collector stats.Collector
	Source    statsmith.Source
	Resolver  upstream.Resolver
	Rows      leaderboard.RowStore
	Publisher *leaderboard.Publisher
	Notifier  alert.Notifier
	Redis     *redis.Client
	Lifecycle fx.Lifecycle
}

func newService(p ServiceParams) (*statsmith.Service, error) {
	c := p.Config.Cache
	opts := []statsmith.Option{
		statsmith.WithSource(p.Source),
		statsmith.WithResolver(p.Resolver),
		statsmith.WithRowStore(p.Rows),
		statsmith.WithNotifier(p.Notifier),
		statsmith.WithCacheCapacity(c.Capacity),
		statsmith.WithTTLs(statsmith.TTLs{
			Player:   c.PlayerTTL,
			Card:     c.CardTTL,
			Guild:    c.GuildTTL,
			SkyBlock: c.SkyBlockTTL,
			Name:     c.NameTTL,
		}),
		statsmith.WithStaleness(p.Config.Leaderboard.Staleness),
		statsmith.WithStats(p.Collector),
		statsmith.WithLogger(p.Logger.Named("statsmith")),
	}
	if p.Publisher != nil {
		opts = append(opts, statsmith.WithPublisher(p.Publisher))
	}
	if p.Redis != nil {
		opts = append(opts, statsmith.WithRedis(p.Redis))
	}

	svc, err := statsmith.New(opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Init(ctx)
		},
		OnStop: func(context.Context) error {
			return svc.Close()
		},
	})
	return svc, nil
}

func newScheduler(cfg *config.Config, svc *statsmith.Service, lc fx.Lifecycle, log *zap.Logger) *schedule.Scheduler {
	sched := schedule.New(log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			svc.Schedule(sched, statsmith.ScheduleOptions{
				RebuildInterval: cfg.Leaderboard.RebuildInterval,
				SweepInterval:   cfg.Cache.SweepInterval,
			})
			return nil
		},
		OnStop: func(context.Context) error {
			sched.Stop()
			return nil
		},
	})
	return sched
}

// ServerParams holds dependencies for creating the HTTP server.
type ServerParams struct {
	fx.In

	Config    *config.Config
	Service   *statsmith.Service
	Collector stats.Collector
	Gatherer  prometheus.Gatherer `optional:"true"`
	Notifier  alert.Notifier
	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
}

func newServer(p ServerParams) *http.Server {
	opts := []httpapi.Option{
		httpapi.WithNotifier(p.Notifier),
		httpapi.WithStats(p.Collector),
		httpapi.WithLogger(p.Logger),
	}
	if p.Gatherer != nil {
		opts = append(opts, httpapi.WithGatherer(p.Gatherer))
	}

	srv := &http.Server{
		Addr:              p.Config.Listen,
		Handler:           httpapi.New(p.Service, opts...),
		ReadHeaderTimeout: 10 * time.Second,
	}
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
			p.Logger.Info("serving", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
