package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/segment"
)

// Sleeper pauses for d or until ctx is done, returning ctx.Err() in the latter case.
type Sleeper func(ctx context.Context, d time.Duration) error

// Report summarises a delivery run.
type Report struct {
	RunID     string        `json:"run_id"`
	Total     int           `json:"total"`
	Delivered int           `json:"delivered"`
	HintSent  bool          `json:"hint_sent"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Scheduler issues the actions of a run to a Sender in order, pausing between them.
type Scheduler struct {
	opts   Options
	logger *zap.Logger
	sleep  Sleeper
	newID  func() string
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the logger used for run progress.
func WithLogger(l *zap.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSleeper replaces the timer-based pause, mainly for tests.
func WithSleeper(fn Sleeper) SchedulerOption {
	return func(s *Scheduler) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// WithRunID sets the generator for run IDs (default: random UUIDs).
func WithRunID(fn func() string) SchedulerOption {
	return func(s *Scheduler) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewScheduler creates a scheduler with the given pacing options.
func NewScheduler(opts Options, sopts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		opts:   opts,
		logger: zap.NewNop(),
		sleep:  sleepContext,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range sopts {
		opt(s)
	}
	return s
}

// Schedule delivers segments to sender in order. Each action is issued only after the
// previous one was accepted and the configured delay has passed. Cancelling ctx stops the
// run before the next action; an action already handed to the sender is not interrupted.
// A sender error stops the run and is returned as *SendError.
func (s *Scheduler) Schedule(ctx context.Context, segments []segment.Segment, sender Sender) (report Report, err error) {
	report = Report{RunID: s.newID(), Total: len(segments)}
	if sender == nil {
		return report, ErrNoSender
	}
	start := time.Now()
	defer func() { report.Elapsed = time.Since(start) }()

	log := s.logger.With(zap.String("run_id", report.RunID))
	actions := Actions(segments, s.opts)
	for i, a := range actions {
		if i > 0 {
			delay := s.opts.SendDelay
			if actions[i-1].Kind == KindHint {
				delay = s.opts.StartHintDelay
			}
			if err := s.sleep(ctx, delay); err != nil {
				log.Info("delivery cancelled", zap.Int("delivered", report.Delivered), zap.Int("total", report.Total))
				return report, err
			}
		}
		if err := ctx.Err(); err != nil {
			log.Info("delivery cancelled", zap.Int("delivered", report.Delivered), zap.Int("total", report.Total))
			return report, err
		}
		a.RunID = report.RunID
		// Once issued, an action is delivered whole even if ctx is cancelled meanwhile.
		if err := sender.Send(context.WithoutCancel(ctx), a); err != nil {
			log.Warn("delivery failed", zap.String("kind", string(a.Kind)), zap.Int("index", a.Index), zap.Error(err))
			return report, &SendError{Kind: a.Kind, Index: a.Index, Err: err}
		}
		if a.Kind == KindHint {
			report.HintSent = true
		} else {
			report.Delivered++
		}
		log.Debug("action delivered", zap.String("kind", string(a.Kind)), zap.Int("index", a.Index), zap.Int("total", a.Total))
	}
	log.Info("delivery complete", zap.Int("segments", report.Delivered), zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
