package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vinodismyname/edamcp/config"
)

// errReported marks a failure already written to the command output.
var errReported = errors.New("reported")

type rootOptions struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "edamcp",
		Short:         "Exploratory data analysis over MCP",
		Long:          `edamcp serves exploratory data analysis of CSV, TSV, TXT and XLSX files as MCP tools, with a Python (pandas) backend and an in-process Go backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $EDA_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(newServeCmd(opts), newAnalyzeCmd(opts), newVersionCmd())
	return cmd
}

func (o *rootOptions) load(logOut io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	lvl, err := cfg.Level()
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = zerolog.New(logOut).Level(lvl).With().Timestamp().Str("service", "edamcp").Logger()
	return nil
}
