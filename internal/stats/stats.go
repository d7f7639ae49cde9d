// Package stats periodically logs a one-line desk summary and refreshes
// the sampled Prometheus gauges. Mostly useful when orderdesk runs on
// scripted input rather than an interactive REPL.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"orderdesk/internal/desk"
	"orderdesk/internal/metrics"
	"orderdesk/pkg/logx"
)

type Config struct {
	Enabled bool
	Every   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Every <= 0 {
		c.Every = 30 * time.Second
	}
	return c
}

type Service struct {
	log  logx.Logger
	desk *desk.Desk
	met  *metrics.Metrics

	mu  sync.Mutex
	cfg Config
	c   *cron.Cron
}

func New(cfg Config, d *desk.Desk, met *metrics.Metrics, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, desk: d, met: met, cfg: cfg.withDefaults()}
}

func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

func (s *Service) startLocked() {
	if !s.cfg.Enabled || s.c != nil {
		return
	}
	c := cron.New()
	spec := fmt.Sprintf("@every %s", s.cfg.Every)
	if _, err := c.AddFunc(spec, s.emit); err != nil {
		s.log.Error("stats schedule register failed", logx.String("spec", spec), logx.Err(err))
		return
	}
	c.Start()
	s.c = c
	s.log.Debug("stats job started", logx.Duration("every", s.cfg.Every))
}

// Apply restarts the job when the cadence or enabled flag changes.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == s.cfg {
		return
	}
	s.cfg = cfg
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	s.startLocked()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Service) emit() {
	snap := s.desk.Snapshot()
	if s.met != nil {
		s.met.UpdateQueues(snap)
	}
	s.log.Info("desk stats",
		logx.Int("pending_vip", len(snap.PendingVIP)),
		logx.Int("pending_normal", len(snap.PendingNormal)),
		logx.Int("processing", len(snap.Processing)),
		logx.Int("completed", len(snap.Completed)),
		logx.Int("bots", len(snap.Bots)),
		logx.Uint64("requeued", snap.Requeued),
	)
}
