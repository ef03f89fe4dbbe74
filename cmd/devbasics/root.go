package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/devbasics/internal/config"
	"github.com/okian/devbasics/pkg/logger"
)

// cli carries what every subcommand needs after the root pre-run.
type cli struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "devbasics",
		Short:        "Career assessment and auth session service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (overrides "+config.EnvConfig+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCommand(c),
		newPreviewCommand(c),
		newSessionCommand(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfig, c.configPath); err != nil {
			return fmt.Errorf("set %s: %w", config.EnvConfig, err)
		}
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}

	if err := logger.InitWithWriter(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.cfg = cfg
	return nil
}
