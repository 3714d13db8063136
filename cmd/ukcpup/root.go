package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ukcpup/internal/config"
	"ukcpup/internal/slogutil"
	"ukcpup/internal/update"
	"ukcpup/internal/version"
)

var (
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "ukcpup",
	Short: "ukcpup - UK Controller Pack updater",
	Long: `ukcpup keeps a local UK Controller Pack checkout up to date: it resolves the
current AIRAC release cycle, reviews your local customizations against the
latest release, pulls the new release, and reapplies your retained settings
onto the fresh files.`,
	Version: version.Version,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		notifyUpdate()
	},
}

func init() {
	rootCmd.SetVersionTemplate("ukcpup version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (default from config)")
}

// mustLoadConfig loads the configuration from the current directory,
// creating the default one on first run.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Cannot load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the run logger from config, with the --log-level flag
// taking precedence.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if logLevelFlag != "" {
		level = slogutil.LevelFromString(logLevelFlag)
	}
	return slogutil.NewLogger(os.Stderr, level)
}

// notifyUpdate prints a release notice after the command finishes. The check
// is cache-first and capped at the HTTP timeout, so it delays exit by at most
// a few seconds once a day.
func notifyUpdate() {
	if info := update.NewChecker().Check(context.Background()); info != nil {
		os.Stderr.WriteString(info.Notice() + "\n")
	}
}
