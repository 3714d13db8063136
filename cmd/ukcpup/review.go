package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ukcpup/internal/extract"
	"ukcpup/internal/gitrepo"
	"ukcpup/internal/records"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review local customizations without updating",
	Long: `Diff your locally modified files against the latest release tag and decide,
line by line, which customizations to retain. Accepted lines are written to
the record file for a later merge; nothing in the checkout is changed.`,
	Run: runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(cfg)

	if !gitrepo.IsInstalled() {
		logger.Error("git is not installed")
		os.Exit(1)
	}
	repo := &gitrepo.Repo{Dir: cfg.Repo.CloneDir, Logger: logger}

	latest, err := repo.LatestTag()
	if err != nil {
		logger.Error("No release tags found", "error", err)
		os.Exit(1)
	}
	changed, err := repo.ChangedFiles()
	if err != nil {
		logger.Error("Cannot list changed files", "error", err)
		os.Exit(1)
	}
	if len(changed) == 0 {
		fmt.Println("No local modifications to review.")
		return
	}

	var files []extract.FileCandidates
	for _, path := range changed {
		if !extract.Reviewable(path) {
			logger.Debug("File type is handled elsewhere, not reviewing", "file", path)
			continue
		}
		diffText, err := repo.Diff(latest, path)
		if err != nil {
			logger.Warn("Cannot diff file against reference, skipping", "file", path, "error", err)
			continue
		}
		cands, err := extract.ExtractCandidates(path, diffText)
		if err != nil {
			logger.Warn("Cannot parse diff, skipping", "file", path, "error", err)
			continue
		}
		if len(cands) > 0 {
			files = append(files, extract.FileCandidates{Path: path, Candidates: cands})
		}
	}

	store, err := records.CreateCSV(filepath.Join(cfg.State.Dir, "settings.csv"))
	if err != nil {
		logger.Error("Cannot open record file", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	reviewer := &extract.Reviewer{
		Store:  store,
		Decide: extract.NewPromptDecider(os.Stdin, os.Stdout),
		Logger: logger,
	}
	outcome, err := reviewer.Review(files)
	if err != nil {
		logger.Error("Review failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Review finished: %d retained, %d rejected\n", outcome.Accepted, outcome.Rejected)
	if outcome.Terminated {
		fmt.Println("Remaining files were skipped.")
	}
}
