package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Advancer replays finalized weeks for every open bracket.
type Advancer interface {
	AdvancePending(ctx context.Context) (int, error)
}

// AdvanceScheduler runs the advancer on a cron schedule. A run still in progress makes the next
// tick a no-op.
type AdvanceScheduler struct {
	cron     *cron.Cron
	advancer Advancer
	timeout  time.Duration
}

func NewAdvanceScheduler(advancer Advancer, spec string, timeout time.Duration) (*AdvanceScheduler, error) {
	s := &AdvanceScheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		advancer: advancer,
		timeout:  timeout,
	}
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("invalid advance schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *AdvanceScheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context done once the running job finishes.
func (s *AdvanceScheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *AdvanceScheduler) Run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	n, err := s.advancer.AdvancePending(ctx)
	if err != nil {
		slog.Error("advance job failed", "advanced", n, "error", err)
		return
	}
	slog.Debug("advance job finished", "advanced", n, "took", time.Since(start))
}
