// Package app wires configuration into a ready engine for the CLI and the
// MCP server.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/aggregate"
	"github.com/vinodismyname/peerxcel/internal/corpus"
	"github.com/vinodismyname/peerxcel/internal/entity"
	"github.com/vinodismyname/peerxcel/internal/metrics"
	"github.com/vinodismyname/peerxcel/internal/pipeline"
	"github.com/vinodismyname/peerxcel/internal/runtime"
	"github.com/vinodismyname/peerxcel/internal/security"
	"github.com/vinodismyname/peerxcel/internal/telemetry"
)

// App holds the components built from one Config.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Security   *security.Manager
	Controller *runtime.Controller
	Scan       *telemetry.ScanHooks
	Corpus     *corpus.Corpus
	Resolver   *entity.Resolver
	Extractor  *metrics.Extractor
	Engine     *pipeline.Engine
}

// New validates the directories in cfg and builds the engine. Without
// allowed directories the data directory itself is the only root.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	roots := cfg.AllowedDirs
	if len(roots) == 0 {
		roots = []string{cfg.DataDir}
	}
	sec, err := security.NewManager(roots, nil)
	if err != nil {
		return nil, err
	}
	if err := sec.ValidateConfig(); err != nil {
		return nil, err
	}
	dataDir, err := sec.ValidateDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("app: data dir %q: %w", cfg.DataDir, err)
	}

	ctrl := runtime.NewController(runtime.NewLimits(cfg.Limits))
	scan := telemetry.NewScanHooks(logger)
	cache := corpus.NewCache(
		corpus.WithGate(ctrl),
		corpus.WithValidator(sec),
		corpus.WithObserver(scan),
	)
	c, err := corpus.New(dataDir, cache)
	if err != nil {
		return nil, err
	}

	resolver := entity.NewResolver(c, cfg.Layout, cfg.Matching, entity.WithLogger(logger))
	extractor := metrics.NewExtractor(c, cfg.Layout, cfg.Matching, metrics.WithLogger(logger))

	opts := []pipeline.Option{pipeline.WithLogger(logger)}
	if cfg.ProviderFile != "" {
		p, err := metrics.LoadStaticProvider(cfg.ProviderFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithProvider(p, cfg.Matching.ProviderFieldTag))
		logger.Info().Str("path", cfg.ProviderFile).Int("identifiers", len(p)).Msg("static metric provider loaded")
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Security:   sec,
		Controller: ctrl,
		Scan:       scan,
		Corpus:     c,
		Resolver:   resolver,
		Extractor:  extractor,
		Engine:     pipeline.NewEngine(resolver, extractor, aggregate.New(cfg.Aggregate), opts...),
	}, nil
}

// LogStats writes the corpus cache summary.
func (a *App) LogStats() {
	telemetry.LogCacheStats(a.Logger, a.Corpus.Cache().Stats())
}

// Level maps a config log level onto zerolog, defaulting to info.
func Level(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
