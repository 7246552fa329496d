package content

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/constants"
)

// Refreshable is what the refresher drives.
type Refreshable interface {
	Refresh(ctx context.Context, bypassCache bool) (*Snapshot, error)
}

// Refresher re-runs the content pipeline on a cron schedule. A run that is still
// going when the next tick fires is not overlapped.
type Refresher struct {
	cron    *cron.Cron
	target  Refreshable
	spec    string
	timeout time.Duration
	logger  *zap.Logger
}

// ParseSchedule validates a cron spec (five fields or an @every/@hourly descriptor).
func ParseSchedule(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return schedule, nil
}

func NewRefresher(target Refreshable, spec string, logger *zap.Logger) (*Refresher, error) {
	if _, err := ParseSchedule(spec); err != nil {
		return nil, err
	}

	cl := cronLogger{logger: logger.Sugar()}
	r := &Refresher{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		target:  target,
		spec:    spec,
		timeout: constants.ServerConfig.RefreshTimeout,
		logger:  logger,
	}

	if _, err := r.cron.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("schedule refresh: %w", err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("Content refresher started", zap.String("schedule", r.spec))
}

// Stop stops scheduling and waits for a running refresh, bounded by ctx.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("Content refresher stop timed out")
	}
}

// Next returns the next scheduled run, zero before Start.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	// scheduled runs bypass the raw cache so edits show up on every tick
	if _, err := r.target.Refresh(ctx, true); err != nil {
		r.logger.Error("Scheduled content refresh failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
