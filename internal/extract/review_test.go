package extract

import (
	"path/filepath"
	"strings"
	"testing"

	"ukcpup/internal/records"
	"ukcpup/internal/slogutil"
)

// scriptedDecider returns the queued decisions in order, rejecting once exhausted.
func scriptedDecider(decisions ...Decision) DecisionFunc {
	i := 0
	return func(c Candidate) (Decision, error) {
		if i >= len(decisions) {
			return Reject, nil
		}
		d := decisions[i]
		i++
		return d, nil
	}
}

func openStore(t *testing.T) *records.CSVStore {
	t.Helper()
	store, err := records.OpenCSV(filepath.Join(t.TempDir(), "settings.csv"))
	if err != nil {
		t.Fatalf("OpenCSV failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReview_AcceptAndReject(t *testing.T) {
	store := openStore(t)
	r := &Reviewer{
		Store:  store,
		Decide: scriptedDecider(Accept, Reject, Accept),
		Logger: slogutil.NewDiscardLogger(),
	}

	files := []FileCandidates{{
		Path: "f.txt",
		Candidates: []Candidate{
			{FilePath: "f.txt", Line: "A:1"},
			{FilePath: "f.txt", Line: "B:2"},
			{FilePath: "f.txt", Line: "C:3"},
		},
	}}

	out, err := r.Review(files)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if out.Accepted != 2 || out.Rejected != 1 || out.Terminated {
		t.Errorf("outcome = %+v, want 2 accepted, 1 rejected", out)
	}

	all, _ := store.All()
	if len(all) != 2 {
		t.Fatalf("store has %d records, want 2", len(all))
	}
	if all[0].LineContent != "A:1" || all[1].LineContent != "C:3" {
		t.Errorf("stored records = %v", all)
	}
}

func TestReview_SkipFileKeepsEarlierAccepts(t *testing.T) {
	store := openStore(t)
	r := &Reviewer{
		Store:  store,
		Decide: scriptedDecider(Accept, SkipFile, Accept),
		Logger: slogutil.NewDiscardLogger(),
	}

	files := []FileCandidates{
		{
			Path: "f1.txt",
			Candidates: []Candidate{
				{FilePath: "f1.txt", Line: "A:1"},
				{FilePath: "f1.txt", Line: "B:2"},
				{FilePath: "f1.txt", Line: "C:3"}, // never offered after SkipFile
			},
		},
		{
			Path:       "f2.txt",
			Candidates: []Candidate{{FilePath: "f2.txt", Line: "D:4"}},
		},
	}

	out, err := r.Review(files)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if out.Terminated {
		t.Error("SkipFile must not terminate the run")
	}

	all, _ := store.All()
	want := []string{"A:1", "D:4"}
	if len(all) != len(want) {
		t.Fatalf("store has %d records, want %d: %v", len(all), len(want), all)
	}
	for i, rec := range all {
		if rec.LineContent != want[i] {
			t.Errorf("record %d = %q, want %q", i, rec.LineContent, want[i])
		}
	}
}

func TestReview_SkipAllTerminatesRun(t *testing.T) {
	store := openStore(t)
	r := &Reviewer{
		Store:  store,
		Decide: scriptedDecider(Accept, SkipAll),
		Logger: slogutil.NewDiscardLogger(),
	}

	files := []FileCandidates{
		{
			Path: "file1",
			Candidates: []Candidate{
				{FilePath: "file1", Line: "A:1"},
				{FilePath: "file1", Line: "B:2"},
			},
		},
		{
			Path:       "file2",
			Candidates: []Candidate{{FilePath: "file2", Line: "C:3"}},
		},
	}

	out, err := r.Review(files)
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if !out.Terminated {
		t.Error("SkipAll should terminate the run")
	}

	// Exactly the record accepted before SkipAll survives
	all, _ := store.All()
	if len(all) != 1 || all[0].LineContent != "A:1" || all[0].FilePath != "file1" {
		t.Errorf("persisted set = %v, want exactly {file1, A:1}", all)
	}
}

func TestReview_ObserverSeesEveryDecision(t *testing.T) {
	store := openStore(t)
	var seen []string
	r := &Reviewer{
		Store:  store,
		Decide: scriptedDecider(Accept, Reject),
		Logger: slogutil.NewDiscardLogger(),
		Observer: func(c Candidate, d Decision) {
			seen = append(seen, c.Line+"="+d.String())
		},
	}

	files := []FileCandidates{{
		Path: "f.txt",
		Candidates: []Candidate{
			{FilePath: "f.txt", Line: "A:1"},
			{FilePath: "f.txt", Line: "B:2"},
		},
	}}

	if _, err := r.Review(files); err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if len(seen) != 2 || seen[0] != "A:1=accept" || seen[1] != "B:2=reject" {
		t.Errorf("observer saw %v", seen)
	}
}

func TestNewPromptDecider(t *testing.T) {
	tests := []struct {
		input string
		want  Decision
	}{
		{"y\n", Accept},
		{"Y\n", Accept},
		{"n\n", Reject},
		{"\n", Reject},
		{"s\n", SkipFile},
		{"A\n", SkipAll},
		{"gibberish\n", Reject},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out strings.Builder
			decide := NewPromptDecider(strings.NewReader(tt.input), &out)

			got, err := decide(Candidate{FilePath: "f.txt", Line: "A:1"})
			if err != nil {
				t.Fatalf("decider failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("decision = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "A:1") {
				t.Errorf("prompt should show the candidate, got %q", out.String())
			}
		})
	}
}
