package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ukcpup/internal/merge"
	"ukcpup/internal/records"
	"ukcpup/internal/updater"
)

var (
	updateKeepSector bool
	updateNoJournal  bool
	updateRulesFile  string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Run the full update pipeline",
	Long: `Run the full update pipeline: resolve the current release cycle, review your
local customizations, pull the latest release, replace a stale sector file,
and reapply your retained settings.`,
	Run: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateKeepSector, "keep-sector", false,
		"Do not replace an out-of-date sector file")
	updateCmd.Flags().BoolVar(&updateNoJournal, "no-journal", false,
		"Skip the run history journal")
	updateCmd.Flags().StringVar(&updateRulesFile, "rules", "",
		"TOML file overriding the built-in rewrite rules")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	pipeline := updater.New(cfg, logger)
	pipeline.ReplaceStaleSector = !updateKeepSector

	if updateRulesFile != "" {
		rules, err := merge.LoadRules(updateRulesFile)
		if err != nil {
			logger.Error("Cannot load rewrite rules", "error", err)
			os.Exit(1)
		}
		pipeline.Rules = rules
	}

	if !updateNoJournal {
		journal, err := records.OpenJournal(cfg.State.Dir, logger)
		if err != nil {
			logger.Warn("Run journal unavailable, continuing without history", "error", err)
		} else {
			defer journal.Close()
			pipeline.Journal = journal
		}
	}

	report, err := pipeline.Run(context.Background())
	if err != nil {
		logger.Error("Update failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Update complete: release %s checked out as %s (%d customizations retained)\n",
		report.CycleTag, report.CheckedOutTag, report.Review.Accepted)
	if report.SectorReplaced {
		fmt.Println("The sector file was replaced with the current release.")
	}
}
