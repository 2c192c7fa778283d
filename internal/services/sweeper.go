package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yukikurage/taskflow/internal/constants"
)

// SweeperConfig sets the two sweep periods. Zero values use the defaults.
type SweeperConfig struct {
	AutoCompleteInterval   time.Duration
	RetentionSweepInterval time.Duration
}

// Sweeper drives the periodic auto-complete and retention sweeps of a
// TaskService from a single goroutine.
type Sweeper struct {
	service *TaskService
	cfg     SweeperConfig
	logger  *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(service *TaskService, cfg SweeperConfig, logger *slog.Logger) *Sweeper {
	if cfg.AutoCompleteInterval <= 0 {
		cfg.AutoCompleteInterval = constants.DefaultAutoCompleteInterval
	}
	if cfg.RetentionSweepInterval <= 0 {
		cfg.RetentionSweepInterval = constants.DefaultRetentionSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{service: service, cfg: cfg, logger: logger}
}

// Start launches the sweep loop. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	s.logger.Info("sweeper started",
		"auto_complete_interval", s.cfg.AutoCompleteInterval,
		"retention_sweep_interval", s.cfg.RetentionSweepInterval,
	)
}

// Stop cancels the loop and waits for it to exit. After Stop returns no sweep
// runs. Safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	autoComplete := time.NewTicker(s.cfg.AutoCompleteInterval)
	defer autoComplete.Stop()
	retentionSweep := time.NewTicker(s.cfg.RetentionSweepInterval)
	defer retentionSweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-autoComplete.C:
			n := s.service.SweepAutoComplete(s.service.Now())
			s.logSweep("auto-complete sweep", "completed", n)
		case <-retentionSweep.C:
			n := s.service.SweepRetention(s.service.Now())
			s.logSweep("retention sweep", "removed", n)
		}
	}
}

func (s *Sweeper) logSweep(msg, key string, n int) {
	if n > 0 {
		s.logger.Info(msg, key, n)
		return
	}
	s.logger.Debug(msg, key, n)
}
