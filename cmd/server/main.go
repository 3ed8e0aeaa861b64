package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/app"
	"github.com/vinodismyname/peerxcel/internal/registry"
	"github.com/vinodismyname/peerxcel/internal/runtime"
	"github.com/vinodismyname/peerxcel/internal/telemetry"
	"github.com/vinodismyname/peerxcel/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var useStdio bool
	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol; logs go to stderr.
	logger := zlog.Output(os.Stderr).Level(app.Level(cfg.LogLevel)).With().Str("service", "peerxcel-server").Logger()
	ctx := logger.WithContext(context.Background())

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("bootstrap failed")
		fmt.Fprintln(os.Stderr, "check PEERXCEL_DATA_DIR and PEERXCEL_ALLOWED_DIRS")
		os.Exit(1)
	}
	logger.Info().Strs("allowed_dirs", a.Security.AllowedDirectories()).Str("data_dir", a.Corpus.Dir()).Msg("corpus configured")

	limits := a.Controller.LimitsSnapshot()
	runtimeMW := runtime.NewMiddleware(a.Controller)
	toolRegistry := registry.New()
	writeFilter := registry.NewWriteToolFilterFromEnv()

	srv := server.NewMCPServer(
		"Peer Aggregation Server",
		version.Version(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.ServerHooks(logger)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, tools []mcp.Tool) []mcp.Tool { return writeFilter.FilterTools(ctx, tools) }),
	)

	registry.RegisterTools(srv, toolRegistry, registry.Deps{
		Resolver:    a.Resolver,
		Extractor:   a.Extractor,
		Engine:      a.Engine,
		Security:    a.Security,
		PageSize:    config.DefaultPeerPageSize,
		Logger:      logger,
		AllowWrites: writeFilter.AllowWrites(),
	})

	logger.Info().
		Ctx(ctx).
		Str("version", version.String()).
		Int("max_concurrent_requests", limits.MaxConcurrentRequests).
		Int("max_open_workbooks", limits.MaxOpenWorkbooks).
		Bool("writes_enabled", writeFilter.AllowWrites()).
		Bool("stdio", useStdio).
		Msg("server bootstrap configured")

	if useStdio {
		err := server.ServeStdio(srv)
		a.LogStats()
		if err != nil {
			// Use stderr for transport errors so clients don't misinterpret output
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintln(os.Stderr, "no transport selected; use --stdio to run over stdio")
	os.Exit(2)
}
