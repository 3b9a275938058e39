// Package scheduler drives pipeline runs in one of three modes: a
// single immediate run, a fixed interval loop, or a daily cron with an
// optional weekday skip.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Run modes.
const (
	ModeOnce     = "once"
	ModeInterval = "interval"
	ModeDaily    = "daily"
)

// Runner is one pipeline execution.
type Runner interface {
	Run(ctx context.Context) error
}

// Config selects the mode and its parameters.
type Config struct {
	Mode     string
	Interval time.Duration  // interval mode
	Hour     int            // daily mode, local to Location
	Minute   int            // daily mode
	Location *time.Location // daily mode; nil means UTC
	SkipDay  time.Weekday   // daily mode; -1 disables the skip
}

// Scheduler executes a Runner on the configured cadence.
type Scheduler struct {
	cfg    Config
	runner Runner
	logger *zap.Logger
}

// New builds a scheduler.
func New(cfg Config, runner Runner, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{cfg: cfg, runner: runner, logger: logger}
}

// Start blocks until the context is cancelled (or, in once mode, until
// the single run completes). An in-flight run always finishes before
// Start returns.
func (s *Scheduler) Start(ctx context.Context) error {
	switch s.cfg.Mode {
	case ModeOnce:
		return s.runner.Run(ctx)
	case ModeInterval:
		return s.runInterval(ctx)
	case ModeDaily:
		return s.runDaily(ctx)
	default:
		return errors.Errorf("scheduler: unknown mode %q", s.cfg.Mode)
	}
}

func (s *Scheduler) runInterval(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return errors.New("scheduler: interval must be positive")
	}

	for {
		s.runSafe(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.Interval):
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context) error {
	expr := dailyExpr(s.cfg.Hour, s.cfg.Minute, s.cfg.SkipDay)

	c := cron.New(cron.WithLocation(s.cfg.Location))
	if _, err := c.AddFunc(expr, func() { s.runSafe(ctx) }); err != nil {
		return errors.Wrapf(err, "scheduler: register daily job %q", expr)
	}

	s.logger.Info("daily schedule registered",
		zap.String("cron", expr),
		zap.String("location", s.cfg.Location.String()))

	c.Start()
	<-ctx.Done()

	// Stop returns once any running job has finished.
	<-c.Stop().Done()
	return ctx.Err()
}

// runSafe keeps a panicking or failing run from taking down the loop.
func (s *Scheduler) runSafe(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("run panicked", zap.Any("panic", r))
		}
	}()

	if err := s.runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("run failed", zap.Error(err))
	}
}

// dailyExpr builds the five-field cron spec for a daily run at
// hour:minute, optionally excluding one weekday.
func dailyExpr(hour, minute int, skip time.Weekday) string {
	dow := "*"
	if skip >= time.Sunday && skip <= time.Saturday {
		days := make([]byte, 0, 13)
		for d := time.Sunday; d <= time.Saturday; d++ {
			if d == skip {
				continue
			}
			if len(days) > 0 {
				days = append(days, ',')
			}
			days = append(days, byte('0'+d))
		}
		dow = string(days)
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow)
}
