// Package schedule runs background jobs on fixed intervals or once a day at
// local midnight.
package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work.
type Job func(ctx context.Context) error

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// Scheduler runs jobs in their own goroutines until stopped.
type Scheduler struct {
	logger *zap.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. logger may be nil.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger: logger.Named("schedule"),
		now:    time.Now,
		after:  time.After,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Every runs job every interval, first after one interval has passed.
func (s *Scheduler) Every(name string, interval time.Duration, job Job) {
	if interval <= 0 {
		s.logger.Warn("job disabled", zap.String("job", name), zap.Duration("interval", interval))
		return
	}
	s.start(name, func(time.Time) time.Duration { return interval }, job)
}

// Daily runs job at every local midnight.
func (s *Scheduler) Daily(name string, job Job) {
	s.start(name, func(now time.Time) time.Duration {
		return NextMidnight(now).Sub(now)
	}, job)
}

// Stop cancels pending runs and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) start(name string, next func(time.Time) time.Duration, job Job) {
	logger := s.logger.With(zap.String("job", name))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			wait := next(s.now())
			select {
			case <-s.ctx.Done():
				return
			case <-s.after(wait):
			}
			s.run(logger, job)
		}
	}()
}

func (s *Scheduler) run(logger *zap.Logger, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("job panicked", zap.Any("panic", r))
		}
	}()

	start := s.now()
	if err := job(s.ctx); err != nil {
		logger.Warn("job failed", zap.Error(err))
		return
	}
	logger.Debug("job finished", zap.Duration("elapsed", s.now().Sub(start)))
}
