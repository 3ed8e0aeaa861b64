package main

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vinodismyname/peerxcel/config"
	"github.com/vinodismyname/peerxcel/internal/app"
	"github.com/vinodismyname/peerxcel/pkg/version"
)

// cli carries the persistent flags and the engine built from them.
type cli struct {
	envFile    string
	configFile string
	dataDir    string
	logLevel   string

	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "peerxcel",
		Short:         "Resolve companies, find peers and average their metrics across a spreadsheet corpus",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.app != nil {
				c.app.LogStats()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.envFile, "env-file", ".env", "Dotenv file loaded before configuration (ignored when missing)")
	pf.StringVar(&c.configFile, "config", "", "YAML configuration file (overrides PEERXCEL_CONFIG_FILE)")
	pf.StringVar(&c.dataDir, "data-dir", "", "Corpus directory (overrides PEERXCEL_DATA_DIR)")
	pf.StringVar(&c.logLevel, "log-level", "", "trace|debug|info|warn|error|disabled")

	root.AddCommand(
		newResolveCmd(c),
		newPeersCmd(c),
		newMetricsCmd(c),
		newRunCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		// Existing variables win over the dotenv file.
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if c.configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", c.configFile); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.dataDir != "" {
		cfg.DataDir = c.dataDir
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(app.Level(cfg.LogLevel)).
		With().Timestamp().Logger()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func newTable(cmd *cobra.Command, title string, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)
	if title != "" {
		tw.SetTitle(title)
	}
	tw.AppendHeader(header)
	return tw
}
