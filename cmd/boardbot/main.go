package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/nbenliogludev/boardbot-e2e/internal/common"
	"github.com/nbenliogludev/boardbot-e2e/internal/config"
)

var (
	configDir string
	logLevel  string

	cfg    *config.Config
	logger arbor.ILogger
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "boardbot",
		Short:         "End-to-end checks for the PICMG BoardBot product search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configDir != "" {
				cfg, err = config.Load(configDir)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if logLevel != "" {
				level = logLevel
			}
			logger = common.InitLogger(level)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Directory holding boardbot.toml (default: . and ./config)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn)")

	root.AddCommand(
		runCmd(),
		pruneCmd(),
		cleanCmd(),
		scenariosCmd(),
		ownersCmd(),
		preflightCmd(),
	)
	return root
}
