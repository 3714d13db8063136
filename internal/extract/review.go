package extract

import (
	"fmt"
	"log/slog"

	"ukcpup/internal/records"
)

// Decision is the user's verdict on one candidate line.
type Decision int

const (
	// Reject drops the candidate (the default on an unrecognized answer)
	Reject Decision = iota
	// Accept retains the candidate as a customization to reapply
	Accept
	// SkipFile abandons the remaining candidates of the current file
	SkipFile
	// SkipAll abandons the remaining candidates of every remaining file
	SkipAll
)

// String returns the journal label for a decision.
func (d Decision) String() string {
	switch d {
	case Accept:
		return "accept"
	case Reject:
		return "reject"
	case SkipFile:
		return "skip-file"
	case SkipAll:
		return "skip-all"
	}
	return "unknown"
}

// DecisionFunc supplies the per-candidate verdict. The reconciliation
// algorithm never prompts directly, so a scripted source can drive it in tests.
type DecisionFunc func(c Candidate) (Decision, error)

// FileCandidates groups the candidates of one changed file.
type FileCandidates struct {
	Path       string
	Candidates []Candidate
}

// Outcome summarizes a review pass.
type Outcome struct {
	Accepted   int
	Rejected   int
	Terminated bool // SkipAll was issued
}

// Reviewer walks candidates through the decision state machine, streaming
// accepted records to the store as each decision lands so partial progress
// survives interruption.
type Reviewer struct {
	Store  records.Store
	Decide DecisionFunc
	Logger *slog.Logger

	// Observer, when set, sees every decision as it is made (audit journal hook)
	Observer func(c Candidate, d Decision)
}

// Review runs the decision state machine over the given files in order.
// SkipFile aborts the current file only; SkipAll terminates the whole pass.
// Records accepted before either skip remain persisted.
func (r *Reviewer) Review(files []FileCandidates) (Outcome, error) {
	var out Outcome

	for _, file := range files {
		if len(file.Candidates) > 0 {
			r.Logger.Info("Reviewing changed file", "file", file.Path, "candidates", len(file.Candidates))
		}

		skipFile := false
		for _, cand := range file.Candidates {
			decision, err := r.Decide(cand)
			if err != nil {
				return out, fmt.Errorf("decision input failed: %w", err)
			}

			if r.Observer != nil {
				r.Observer(cand, decision)
			}

			switch decision {
			case Accept:
				if err := r.Store.Append(records.Record{FilePath: cand.FilePath, LineContent: cand.Line}); err != nil {
					return out, fmt.Errorf("failed to persist retained setting: %w", err)
				}
				out.Accepted++
			case Reject:
				out.Rejected++
			case SkipFile:
				skipFile = true
			case SkipAll:
				out.Terminated = true
				return out, nil
			}

			if skipFile {
				break
			}
		}
	}

	return out, nil
}
