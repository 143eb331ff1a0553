package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/evalgrid/internal/config"
	"github.com/specialistvlad/evalgrid/internal/ctxlog"
	"github.com/specialistvlad/evalgrid/internal/localsession"
	"github.com/specialistvlad/evalgrid/internal/metrics"
	"github.com/specialistvlad/evalgrid/internal/parser"
	"github.com/specialistvlad/evalgrid/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx            context.Context
	outW           io.Writer
	logger         *slog.Logger
	config         *Config
	loader         config.Loader
	parsers        *parser.Registry
	metrics        *metrics.Collector
	sessionFactory session.SessionFactory
	httpServer     *http.Server

	plan *config.Plan
}

// NewApp is the constructor for the main application. A nil loader selects
// one from the plan path.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = LoaderFor(cfg.PlanPath)
	}

	return &App{
		ctx:            ctx,
		outW:           outW,
		logger:         logger,
		config:         cfg,
		loader:         loader,
		parsers:        parser.NewRegistry(),
		metrics:        metrics.NewCollector(),
		sessionFactory: &localsession.SessionFactory{},
	}
}

// Parsers exposes the parser registry so callers can add custom kinds
// before Run.
func (app *App) Parsers() *parser.Registry {
	return app.parsers
}

// Metrics returns the collector fed by the run's events.
func (app *App) Metrics() *metrics.Collector {
	return app.metrics
}

// Plan returns the loaded plan, nil before LoadPlan succeeds.
func (app *App) Plan() *config.Plan {
	return app.plan
}
