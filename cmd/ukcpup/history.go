package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ukcpup/internal/records"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past reconciliation runs",
	Long: `List past reconciliation runs from the local journal, or show the individual
review decisions of one run with --run.`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the decisions of one run ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	journal, err := records.OpenJournal(cfg.State.Dir, logger)
	if err != nil {
		logger.Error("Cannot open run journal", "error", err)
		os.Exit(1)
	}
	defer journal.Close()

	if historyRun != "" {
		showDecisions(journal, historyRun)
		return
	}

	runs, err := journal.RecentRuns(historyLimit)
	if err != nil {
		logger.Error("Cannot read run history", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tCYCLE\tSTATUS\tACCEPTED\tREJECTED\tSTARTED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.ID, run.CycleTag, run.Status, run.Accepted, run.Rejected,
			run.StartedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func showDecisions(journal *records.Journal, runID string) {
	decisions, err := journal.DecisionsForRun(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(decisions) == 0 {
		fmt.Println("No decisions recorded for that run.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "DECISION\tFILE\tLINE")
	for _, d := range decisions {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Decision, d.FilePath, d.LineContent)
	}
	w.Flush()
}
