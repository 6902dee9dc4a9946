package server

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/HendryAvila/plantbot/internal/blob"
	"github.com/HendryAvila/plantbot/internal/config"
	"github.com/HendryAvila/plantbot/internal/elicit"
	"github.com/HendryAvila/plantbot/internal/history"
	"github.com/HendryAvila/plantbot/internal/ingredients"
	"github.com/HendryAvila/plantbot/internal/lab"
	"github.com/HendryAvila/plantbot/internal/model"
	"github.com/HendryAvila/plantbot/internal/telemetry"
)

// App holds the resolved dependencies shared by the MCP server and the
// terminal commands.
type App struct {
	Config   config.Config
	Blobs    blob.Store
	History  history.Store
	Lab      *lab.Lab
	Sessions *elicit.Sessions
	Machine  *elicit.Machine
	Metrics  *telemetry.Metrics
	Registry *prometheus.Registry
}

// Open validates cfg, opens storage, and trains the first model. namer
// may be nil. The returned cleanup function is always non-nil and safe to
// call even when Open fails.
func Open(ctx context.Context, cfg config.Config, namer elicit.Namer) (*App, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, noop, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := telemetry.New(reg)

	blobs, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		return nil, noop, fmt.Errorf("opening storage: %w", err)
	}

	hist, err := history.Open(ctx, cfg.HistoryOptions(blobs))
	if err != nil {
		return nil, noop, fmt.Errorf("opening history: %w", err)
	}
	cleanup := func() {
		if err := hist.Close(); err != nil {
			log.Printf("WARNING: history store close: %v", err)
		}
	}

	m := model.New(cfg.ModelOptions(), metrics)
	l := lab.New(ingredients.NewDocStore(blobs), hist, m, metrics, lab.Options{AsyncRetrain: cfg.AsyncRetrain})
	if err := l.Bootstrap(ctx); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("training initial model: %w", err)
	}

	app := &App{
		Config:   cfg,
		Blobs:    blobs,
		History:  hist,
		Lab:      l,
		Sessions: elicit.NewSessions(),
		Machine:  elicit.NewMachine(l, namer, metrics),
		Metrics:  metrics,
		Registry: reg,
	}
	return app, func() {
		l.WaitIdle()
		cleanup()
	}, nil
}

func noop() {}
