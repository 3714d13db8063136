package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ukcpup/internal/merge"
	"ukcpup/internal/records"
	"ukcpup/internal/settings"
)

var mergeRulesFile string

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Reapply settings to the pack files",
	Long: `Discover your settings from existing profiles and reapply them, together with
any retained customizations from a previous review, to the controller pack
files. No git operations are performed.`,
	Run: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeRulesFile, "rules", "",
		"TOML file overriding the built-in rewrite rules")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	rules := merge.DefaultRules()
	if mergeRulesFile != "" {
		var err error
		rules, err = merge.LoadRules(mergeRulesFile)
		if err != nil {
			logger.Error("Cannot load rewrite rules", "error", err)
			os.Exit(1)
		}
	}

	workingDir := filepath.Join(cfg.Repo.CloneDir, cfg.Repo.PackDir)
	resolver := settings.NewPromptResolver(os.Stdin, os.Stdout)

	user, err := settings.Discover(workingDir, resolver, logger)
	if err != nil {
		logger.Error("Settings discovery failed", "error", err)
		os.Exit(1)
	}
	user.WriteSummary(os.Stdout)

	store, err := records.OpenCSV(filepath.Join(cfg.State.Dir, "settings.csv"))
	if err != nil {
		logger.Error("Cannot open record file", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	session := merge.NewSession(rules, logger)
	if err := session.Apply(workingDir, user, store); err != nil {
		logger.Error("Merge failed", "state", session.State().String(), "error", err)
		os.Exit(1)
	}

	fmt.Println("Settings applied to all profile and settings files.")
}
