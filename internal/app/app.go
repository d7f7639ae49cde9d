// Package app wires the services together: config manager, logging, event
// bus, desk core, journal, metrics, and the stats job.
package app

import (
	"context"

	"orderdesk/internal/config"
	"orderdesk/internal/desk"
	"orderdesk/internal/eventbus"
	"orderdesk/internal/journal"
	"orderdesk/internal/metrics"
	"orderdesk/internal/stats"
	"orderdesk/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus   eventbus.Bus
	desk  *desk.Desk
	jw    *journal.Worker
	met   *metrics.Metrics
	stats *stats.Service

	watchCancel context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg.Log))
	mgr.SetLogger(log)

	bus := eventbus.New()
	d := desk.New(
		desk.Config{ServiceTime: cfg.Desk.Duration()},
		log.With(logx.String("component", "desk")),
		bus,
		nil, // real clock
	)

	store, err := journal.Open(journal.Config{
		Driver:      cfg.Journal.Driver,
		Path:        cfg.Journal.Path,
		BusyTimeout: cfg.Journal.BusyTimeoutDuration(),
	}, log)
	if err != nil {
		logSvc.Close()
		return nil, err
	}

	met := metrics.New(log)

	return &App{
		cfgMgr: mgr,
		logSvc: logSvc,
		log:    log,
		bus:    bus,
		desk:   d,
		jw:     journal.NewWorker(store, bus, log),
		met:    met,
		stats: stats.New(stats.Config{
			Enabled: cfg.Stats.Enabled,
			Every:   cfg.Stats.EveryDuration(),
		}, d, met, log),
	}, nil
}

func (a *App) Desk() *desk.Desk    { return a.desk }
func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Start(ctx context.Context) {
	cfg := a.cfgMgr.Get()

	a.jw.Start()
	a.met.Observe(a.bus)
	a.met.Serve(cfg.Metrics.Listen)
	a.stats.Start()

	watchCtx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	go func() {
		if err := a.cfgMgr.Watch(watchCtx, a.applyConfig); err != nil {
			a.log.Warn("config watch unavailable", logx.Err(err))
		}
	}()

	a.log.Info("orderdesk started", logx.Duration("service_time", cfg.Desk.Duration()))
}

// applyConfig pushes a hot-reloaded config into the live services.
// Journal driver and metrics listener changes require a restart.
func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logConfig(cfg.Log))
	a.desk.Apply(desk.Config{ServiceTime: cfg.Desk.Duration()})
	a.stats.Apply(stats.Config{Enabled: cfg.Stats.Enabled, Every: cfg.Stats.EveryDuration()})
}

// Stop shuts down in dependency order: the desk first (it emits the final
// events), then the observers, then logging.
func (a *App) Stop(ctx context.Context) {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.stats.Stop(ctx)
	if err := a.desk.Stop(ctx); err != nil {
		a.log.Warn("desk stop incomplete", logx.Err(err))
	}
	a.met.Stop(ctx)
	a.jw.Stop(ctx)
	a.log.Info("orderdesk stopped")
	_ = a.logSvc.Close()
}

func logConfig(c config.LogConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
		Alerts: logx.AlertsConfig{
			Enabled:    c.Alerts.Enabled,
			Path:       c.Alerts.Path,
			MinLevel:   c.Alerts.MinLevel,
			RatePerSec: c.Alerts.RatePerSec,
		},
	}
}
