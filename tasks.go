package statsmith

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/statsmith/statsmith/internal/alert"
	"github.com/statsmith/statsmith/internal/leaderboard"
	"github.com/statsmith/statsmith/internal/schedule"
	"github.com/statsmith/statsmith/internal/stats"
	"github.com/statsmith/statsmith/internal/usage"
)

// Health describes the readiness of the service.
type Health struct {
	Cards        bool                   `json:"cards"`
	Rows         int                    `json:"rows"`
	SnapshotRows int                    `json:"snapshotRows"`
	Caches       map[string]CacheHealth `json:"caches"`
}

// CacheHealth summarizes one cache.
type CacheHealth struct {
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// Init restores leaderboard rows from the last published snapshot, writes
// the leaderboard index and warms the card renderer in the background.
func (s *Service) Init(ctx context.Context) error {
	go s.renderer.Warm()

	if s.publisher == nil {
		return nil
	}
	if _, err := s.publisher.Restore(ctx, s.board); err != nil {
		return fmt.Errorf("restoring leaderboard rows: %w", err)
	}
	if err := s.publisher.PublishIndex(ctx, s.board.Registry()); err != nil {
		return fmt.Errorf("publishing leaderboard index: %w", err)
	}
	return nil
}

// Schedule registers the periodic jobs of the service on sched.
func (s *Service) Schedule(sched *schedule.Scheduler, opts ScheduleOptions) {
	sched.Every("leaderboard-rebuild", opts.RebuildInterval, s.RebuildLeaderboards)
	sched.Every("cache-sweep", opts.SweepInterval, s.Sweep)
	sched.Daily("usage-flush", func(ctx context.Context) error {
		s.FlushUsage(ctx)
		return nil
	})
}

// ScheduleOptions sets the intervals of the periodic jobs. A zero interval
// disables the job.
type ScheduleOptions struct {
	RebuildInterval time.Duration
	SweepInterval   time.Duration
}

// RebuildLeaderboards swaps in a fresh leaderboard snapshot and publishes
// it. A rebuild that is still running from the previous tick is left alone.
func (s *Service) RebuildLeaderboards(ctx context.Context) error {
	snap, err := s.board.Rebuild(ctx)
	if errors.Is(err, leaderboard.ErrRebuildInProgress) {
		s.logger.Info("skipping leaderboard rebuild, previous one still running")
		return nil
	}
	if err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Publish(ctx, s.board.Registry(), snap); err != nil {
		return fmt.Errorf("publishing snapshot: %w", err)
	}
	return nil
}

// FlushUsage summarizes and clears the usage log and forwards the summary
// to the notifier.
func (s *Service) FlushUsage(_ context.Context) usage.Summary {
	summary := s.usage.Flush()
	s.logger.Info("usage flushed",
		zap.Int("total", summary.Total),
		zap.Any("kinds", summary.Kinds),
		zap.Int("busiestHour", summary.Busiest),
	)
	alert.Send(s.notifier, summaryAlert(summary), s.logger)
	return summary
}

// Sweep drops expired entries from every cache.
func (s *Service) Sweep(ctx context.Context) error {
	evicted := s.names.Sweep(ctx) +
		s.players.Sweep(ctx) +
		s.guilds.Sweep(ctx) +
		s.skyblock.Sweep(ctx) +
		s.cards.Sweep(ctx)
	if evicted > 0 {
		s.logger.Debug("caches swept", zap.Int("evicted", evicted))
	}
	return nil
}

// Health reports readiness and cache statistics.
func (s *Service) Health(ctx context.Context) Health {
	h := Health{
		Cards:  s.renderer.Ready(),
		Caches: make(map[string]CacheHealth),
	}
	if n, err := s.board.Rows(ctx); err == nil {
		h.Rows = n
	}
	if snap := s.board.Snapshot(); snap != nil {
		h.SnapshotRows = snap.Len()
	}
	add := func(name string, size int, hitRate float64) {
		h.Caches[name] = CacheHealth{Size: size, HitRate: hitRate}
		s.stats.SetGauge(stats.Prefixed(name, stats.MetricCacheSize), int64(size))
	}
	add(s.names.Name(), s.names.Len(), s.names.Stats().HitRate())
	add(s.players.Name(), s.players.Len(), s.players.Stats().HitRate())
	add(s.guilds.Name(), s.guilds.Len(), s.guilds.Stats().HitRate())
	add(s.skyblock.Name(), s.skyblock.Len(), s.skyblock.Stats().HitRate())
	add(s.cards.Name(), s.cards.Len(), s.cards.Stats().HitRate())
	return h
}

func summaryAlert(s usage.Summary) alert.Alert {
	kinds := make([]string, 0, len(s.Kinds))
	for k := range s.Kinds {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)

	a := alert.Alert{
		Level:   alert.LevelInfo,
		Title:   "Daily usage",
		Message: fmt.Sprintf("%d requests between %s and %s", s.Total, s.From.Format("2006-01-02 15:04"), s.To.Format("2006-01-02 15:04")),
	}
	for _, k := range kinds {
		kind := usage.Kind(k)
		a.Fields = append(a.Fields, alert.Field{
			Name:  k,
			Value: fmt.Sprintf("%d (%d unique)", s.Kinds[kind], s.Unique[kind]),
		})
	}
	a.Fields = append(a.Fields,
		alert.Field{Name: "busiest hour", Value: strconv.Itoa(s.Busiest) + ":00"},
		alert.Field{Name: "hourly mean", Value: strconv.FormatFloat(s.HourlyMean, 'f', 1, 64)},
		alert.Field{Name: "hourly stddev", Value: strconv.FormatFloat(s.HourlyStdDev, 'f', 1, 64)},
	)
	return a
}
