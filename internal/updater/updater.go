// Package updater orchestrates one full reconciliation run: resolve the
// release cycle, harvest the user's customizations, update the pack checkout
// and merge everything back. The pipeline is strictly sequential.
package updater

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ukcpup/internal/airac"
	"ukcpup/internal/config"
	"ukcpup/internal/errors"
	"ukcpup/internal/extract"
	"ukcpup/internal/gitrepo"
	"ukcpup/internal/merge"
	"ukcpup/internal/records"
	"ukcpup/internal/sector"
	"ukcpup/internal/settings"
)

// recordFileName is the flat record file holding retained customizations
// for the duration of one run.
const recordFileName = "settings.csv"

// Pipeline wires the collaborators of one reconciliation run. Decide and
// Resolver carry the interactive strategy; swapping them for scripted
// implementations makes the whole pipeline headless.
type Pipeline struct {
	Config   *config.Config
	Logger   *slog.Logger
	Calc     *airac.Calculator
	Decide   extract.DecisionFunc
	Resolver settings.Resolver
	Rules    *merge.Rules
	Stdout   io.Writer

	// Journal, when non-nil, receives an audit record of the run.
	Journal *records.Journal

	// ReplaceStaleSector downloads a fresh sector file set when the present
	// one does not carry the computed cycle tag.
	ReplaceStaleSector bool
}

// Report summarizes a completed run.
type Report struct {
	CycleTag       string
	Cloned         bool
	CheckedOutTag  string
	Review         extract.Outcome
	SectorReplaced bool
}

// New creates a Pipeline over the given configuration with interactive
// terminal strategies.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Config:   cfg,
		Logger:   logger,
		Calc:     airac.NewCalculator(),
		Decide:   extract.NewPromptDecider(os.Stdin, os.Stdout),
		Resolver: settings.NewPromptResolver(os.Stdin, os.Stdout),
		Stdout:   os.Stdout,
	}
}

// Run executes the full pipeline. Per-file problems are logged and skipped;
// the first precondition failure terminates the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	tag, err := p.Calc.CurrentTag("")
	if err != nil {
		return nil, err
	}
	report.CycleTag = tag
	p.Logger.Info("Current release cycle", "tag", tag)

	if !gitrepo.IsInstalled() {
		return nil, errors.New(errors.MissingCollaboratorTool, "git is not installed", nil)
	}

	repo, result, err := gitrepo.CloneIfAbsent(p.Config.Repo.URL, p.Config.Repo.CloneDir, p.Config.Repo.Branch, p.Logger)
	if err != nil {
		return nil, err
	}
	report.Cloned = result == gitrepo.Cloned
	workingDir := filepath.Join(p.Config.Repo.CloneDir, p.Config.Repo.PackDir)

	user, err := settings.Discover(workingDir, p.Resolver, p.Logger)
	if err != nil {
		return nil, err
	}
	user.WriteSummary(p.Stdout)

	// Each run harvests from scratch; a leftover record file from a previous
	// run must not replay onto this one.
	store, err := records.CreateCSV(filepath.Join(p.Config.State.Dir, recordFileName))
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if err := p.reviewChanges(repo, store, tag, report); err != nil {
		return nil, err
	}

	if err := p.refreshCheckout(repo, tag, report); err != nil {
		return nil, err
	}

	if p.ReplaceStaleSector {
		replaced, err := p.replaceSectorIfStale(ctx, workingDir, tag)
		if err != nil {
			return nil, err
		}
		report.SectorReplaced = replaced
	}

	session := merge.NewSession(p.Rules, p.Logger)
	if err := session.Apply(workingDir, user, store); err != nil {
		return nil, err
	}

	if err := repo.DropAllStashes(); err != nil {
		p.Logger.Warn("Could not drop stashes", "error", err)
	}

	p.Logger.Info("Update complete", "tag", tag,
		"accepted", report.Review.Accepted, "rejected", report.Review.Rejected)
	return report, nil
}

// reviewChanges diffs the user's modified files against the latest release
// tag and walks the candidates through the review state machine. Diff
// failures on one file never abort the pass.
func (p *Pipeline) reviewChanges(repo *gitrepo.Repo, store records.Store, cycleTag string, report *Report) error {
	latest, err := repo.LatestTag()
	if err != nil {
		p.Logger.Warn("No release tags found, skipping customization review", "error", err)
		return nil
	}

	changed, err := repo.ChangedFiles()
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		p.Logger.Info("No local modifications to review")
		return nil
	}

	var files []extract.FileCandidates
	for _, path := range changed {
		if !extract.Reviewable(path) {
			p.Logger.Debug("File type is handled elsewhere, not reviewing", "file", path)
			continue
		}
		diffText, err := repo.Diff(latest, path)
		if err != nil {
			p.Logger.Warn("Cannot diff file against reference, skipping", "file", path, "error", err)
			continue
		}
		cands, err := extract.ExtractCandidates(path, diffText)
		if err != nil {
			p.Logger.Warn("Cannot parse diff, skipping", "file", path, "error", err)
			continue
		}
		if len(cands) > 0 {
			files = append(files, extract.FileCandidates{Path: path, Candidates: cands})
		}
	}

	reviewer := &extract.Reviewer{
		Store:  store,
		Decide: p.Decide,
		Logger: p.Logger,
	}

	runID := p.beginJournalRun(cycleTag, reviewer)
	outcome, err := reviewer.Review(files)
	report.Review = outcome
	p.finishJournalRun(runID, outcome, err)
	return err
}

// refreshCheckout stashes local modifications, pulls, and checks out the
// latest release tag. A detached HEAD afterwards is expected and reported
// informationally.
func (p *Pipeline) refreshCheckout(repo *gitrepo.Repo, cycleTag string, report *Report) error {
	if err := repo.Stash(fmt.Sprintf("ukcpup %s", cycleTag)); err != nil {
		return err
	}
	if err := repo.Pull(); err != nil {
		return err
	}

	latest, err := repo.LatestTag()
	if err != nil {
		p.Logger.Warn("No release tags after pull, staying on branch", "error", err)
		return nil
	}
	if err := repo.Checkout(latest); err != nil {
		return err
	}
	report.CheckedOutTag = latest

	if repo.IsDetachedHead() {
		if headTag, ok := repo.TagForHead(); ok {
			p.Logger.Info("Checked out release", "tag", headTag)
		} else {
			p.Logger.Info("HEAD is detached with no matching release tag")
		}
	}
	return nil
}

// replaceSectorIfStale downloads a fresh sector file set when the resolved
// one was built for a different cycle, or when the pack holds anything other
// than exactly one sector file.
func (p *Pipeline) replaceSectorIfStale(ctx context.Context, workingDir, tag string) (bool, error) {
	dataDir := filepath.Join(workingDir, p.Config.Sector.DataDir)
	fetcher := sector.NewFetcher(p.Config.Sector.BaseURL, p.Logger)

	current, err := sector.Resolve(workingDir)
	if err != nil {
		if errors.CodeOf(err) != errors.AmbiguousReferenceFile {
			return false, err
		}
		p.Logger.Warn("Sector file set is ambiguous, re-downloading", "error", err)
		stale, err := sector.FindAll(workingDir)
		if err != nil {
			return false, err
		}
		for _, path := range stale {
			if err := sector.RemoveSet(path); err != nil {
				p.Logger.Warn("Could not remove stale sector files", "file", path, "error", err)
			}
		}
		if _, err := fetcher.Replace(ctx, dataDir, "", tag); err != nil {
			return false, err
		}
		return true, nil
	}

	if sector.IsCurrent(current, tag) {
		return false, nil
	}
	p.Logger.Warn("Sector file is out of date with the current release", "file", filepath.Base(current), "tag", tag)
	if _, err := fetcher.Replace(ctx, dataDir, current, tag); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Pipeline) beginJournalRun(cycleTag string, reviewer *extract.Reviewer) string {
	if p.Journal == nil {
		return ""
	}
	runID, err := p.Journal.BeginRun(cycleTag)
	if err != nil {
		p.Logger.Warn("Run journal unavailable", "error", err)
		return ""
	}
	reviewer.Observer = func(c extract.Candidate, d extract.Decision) {
		if err := p.Journal.RecordDecision(runID, c.FilePath, c.Line, d.String()); err != nil {
			p.Logger.Warn("Could not journal decision", "error", err)
		}
	}
	return runID
}

func (p *Pipeline) finishJournalRun(runID string, outcome extract.Outcome, runErr error) {
	if p.Journal == nil || runID == "" {
		return
	}
	status := "completed"
	if runErr != nil {
		status = "failed"
	} else if outcome.Terminated {
		status = "terminated"
	}
	if err := p.Journal.FinishRun(runID, status, outcome.Accepted, outcome.Rejected); err != nil {
		p.Logger.Warn("Could not finalize journal run", "error", err)
	}
}
