package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vinodismyname/edamcp/config"
	"github.com/vinodismyname/edamcp/internal/dataset"
	"github.com/vinodismyname/edamcp/internal/eda"
	"github.com/vinodismyname/edamcp/internal/pyexec"
	"github.com/vinodismyname/edamcp/internal/registry"
	"github.com/vinodismyname/edamcp/internal/runtime"
	"github.com/vinodismyname/edamcp/internal/sandbox"
	"github.com/vinodismyname/edamcp/internal/security"
	"github.com/vinodismyname/edamcp/internal/telemetry"
	"github.com/vinodismyname/edamcp/pkg/version"
)

const probeTimeout = 15 * time.Second

// app is the wired server: backends, limits, metrics and the MCP server.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	controller *runtime.Controller
	metrics    *telemetry.Metrics
	selector   *eda.Selector
	registry   *registry.Registry
	server     *server.MCPServer
	python     bool
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	loaderOpts := dataset.Options{
		FetchTimeout: cfg.FetchTimeout,
		FetchRate:    cfg.FetchRate,
		FetchBurst:   cfg.FetchBurst,
		MaxBytes:     cfg.MaxFileBytes,
		Sheet:        cfg.Sheet,
	}
	if len(cfg.AllowedDirs) > 0 {
		guard, err := security.NewManager(cfg.AllowedDirs, nil)
		if err != nil {
			return nil, fmt.Errorf("allowed_dirs: %w", err)
		}
		loaderOpts.Guard = guard
		logger.Info().Strs("allowed_dirs", guard.AllowedDirectories()).Msg("security allow-list configured")
	}
	loader := dataset.NewLoader(loaderOpts)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		controller: runtime.NewController(runtime.LimitsFromConfig(cfg)),
		metrics:    telemetry.NewMetrics(),
		registry:   registry.New(),
	}

	backends := []eda.Backend{
		a.metrics.Instrument(eda.NewNative(loader, sandbox.New(cfg.CustomCodeTimeout, cfg.MaxOutputBytes))),
	}
	if cfg.EnablePython {
		pctx, cancel := context.WithTimeout(ctx, probeTimeout)
		interp, err := pyexec.Probe(pctx, cfg.Interpreters)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Strs("interpreters", cfg.Interpreters).Msg("python backend disabled: no interpreter with pandas and numpy")
		} else {
			logger.Info().Str("interpreter", interp).Msg("python backend enabled")
			a.python = true
			backends = append(backends, a.metrics.Instrument(pyexec.New(loader, pyexec.Options{
				Interpreters: cfg.Interpreters,
				TempDir:      cfg.TempDir,
				Gate:         a.controller,
			})))
		}
	}
	a.selector = eda.NewSelector(backends...)

	mw := runtime.NewMiddleware(a.controller, logger)
	filter := registry.NewToolFilter(cfg.DisabledTools)
	a.server = server.NewMCPServer(
		"Exploratory Data Analysis Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.NewHooks(logger, a.metrics).Server()),
		server.WithToolHandlerMiddleware(mw.ToolMiddleware),
		server.WithToolHandlerMiddleware(filter.ToolMiddleware),
		server.WithToolFilter(filter.FilterTools),
	)

	pageBytes := a.registry.PageBudget(cfg.Model, cfg.ReportPageBytes)
	registry.RegisterAnalysisTools(a.server, a.registry, a.selector, filter, pageBytes)

	limits := a.controller.LimitsSnapshot()
	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_subprocesses", limits.MaxSubprocesses).
		Dur("operation_timeout", limits.OperationTimeout).
		Str("max_file_size", humanize.IBytes(uint64(cfg.MaxFileBytes))).
		Str("report_page_size", humanize.IBytes(uint64(pageBytes))).
		Strs("backends", a.selector.Names()).
		Strs("disabled_tools", cfg.DisabledTools).
		Msg("server bootstrap configured")
	return a, nil
}
