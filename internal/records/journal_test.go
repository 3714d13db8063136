package records

import (
	"testing"

	"ukcpup/internal/slogutil"
)

func TestJournal_RunLifecycle(t *testing.T) {
	j, err := OpenJournal(t.TempDir(), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenJournal failed: %v", err)
	}
	defer j.Close()

	id, err := j.BeginRun("2023/05")
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if id == "" {
		t.Fatal("BeginRun returned empty id")
	}

	if err := j.RecordDecision(id, "a.txt", "m_FontSize:3", "accept"); err != nil {
		t.Fatalf("RecordDecision failed: %v", err)
	}
	if err := j.RecordDecision(id, "a.txt", "m_Opacity:80", "reject"); err != nil {
		t.Fatalf("RecordDecision failed: %v", err)
	}

	if err := j.FinishRun(id, "done", 1, 1); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := j.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(RecentRuns) = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.ID != id || run.CycleTag != "2023/05" || run.Status != "done" {
		t.Errorf("unexpected run record: %+v", run)
	}
	if run.Accepted != 1 || run.Rejected != 1 {
		t.Errorf("counts = %d/%d, want 1/1", run.Accepted, run.Rejected)
	}
	if run.FinishedAt.IsZero() {
		t.Error("FinishedAt should be set after FinishRun")
	}

	decisions, err := j.DecisionsForRun(id)
	if err != nil {
		t.Fatalf("DecisionsForRun failed: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("len(decisions) = %d, want 2", len(decisions))
	}
	if decisions[0].Decision != "accept" || decisions[1].Decision != "reject" {
		t.Errorf("decisions out of order: %+v", decisions)
	}
}

func TestJournal_RecentRunsOrder(t *testing.T) {
	j, err := OpenJournal(t.TempDir(), slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("OpenJournal failed: %v", err)
	}
	defer j.Close()

	var ids []string
	for _, tag := range []string{"2023/04", "2023/05"} {
		id, err := j.BeginRun(tag)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	runs, err := j.RecentRuns(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("limit not applied, got %d runs", len(runs))
	}
}
