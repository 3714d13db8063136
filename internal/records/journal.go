package records

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Journal is a sqlite-backed audit trail of reconciliation runs and review
// decisions. It is advisory state only: the pipeline treats a missing or
// broken journal as a logging problem, never as a run failure.
type Journal struct {
	conn   *sql.DB
	logger *slog.Logger
	dbPath string
}

// RunRecord summarizes one reconciliation run for the history listing.
type RunRecord struct {
	ID         string
	CycleTag   string
	Status     string
	Accepted   int
	Rejected   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// DecisionRecord is one review decision within a run.
type DecisionRecord struct {
	RunID       string
	FilePath    string
	LineContent string
	Decision    string
	DecidedAt   time.Time
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	cycle_tag   TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	accepted    INTEGER NOT NULL DEFAULT 0,
	rejected    INTEGER NOT NULL DEFAULT 0,
	started_at  TEXT NOT NULL,
	finished_at TEXT
);

CREATE TABLE IF NOT EXISTS decisions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	file_path    TEXT NOT NULL,
	line_content TEXT NOT NULL,
	decision     TEXT NOT NULL,
	decided_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_run ON decisions(run_id);
`

// OpenJournal opens or creates the run journal at <stateDir>/ukcpup.db
func OpenJournal(stateDir string, logger *slog.Logger) (*Journal, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbPath := filepath.Join(stateDir, "ukcpup.db")

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Set pragmas for reliability on a small local database
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(journalSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	logger.Debug("Run journal opened", "path", dbPath)

	return &Journal{
		conn:   conn,
		logger: logger,
		dbPath: dbPath,
	}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.conn != nil {
		return j.conn.Close()
	}
	return nil
}

// BeginRun opens a new run row and returns its id.
func (j *Journal) BeginRun(cycleTag string) (string, error) {
	id := uuid.NewString()
	_, err := j.conn.Exec(`
		INSERT INTO runs (id, cycle_tag, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, id, cycleTag, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// FinishRun closes a run row with its terminal status and review counts.
func (j *Journal) FinishRun(runID, status string, accepted, rejected int) error {
	_, err := j.conn.Exec(`
		UPDATE runs SET status = ?, accepted = ?, rejected = ?, finished_at = ?
		WHERE id = ?
	`, status, accepted, rejected, time.Now().UTC().Format(time.RFC3339), runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	return nil
}

// RecordDecision appends one review decision to the run's audit trail.
// Line content is stored verbatim, so callers must keep credential-bearing
// files out of the review before their lines reach this point.
func (j *Journal) RecordDecision(runID, filePath, lineContent, decision string) error {
	_, err := j.conn.Exec(`
		INSERT INTO decisions (run_id, file_path, line_content, decision, decided_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, filePath, lineContent, decision, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (j *Journal) RecentRuns(limit int) ([]RunRecord, error) {
	rows, err := j.conn.Query(`
		SELECT id, cycle_tag, status, accepted, rejected, started_at, COALESCE(finished_at, '')
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.ID, &r.CycleTag, &r.Status, &r.Accepted, &r.Rejected, &started, &finished); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DecisionsForRun returns the review decisions of a run in decision order.
func (j *Journal) DecisionsForRun(runID string) ([]DecisionRecord, error) {
	rows, err := j.conn.Query(`
		SELECT run_id, file_path, line_content, decision, decided_at
		FROM decisions
		WHERE run_id = ?
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var d DecisionRecord
		var decided string
		if err := rows.Scan(&d.RunID, &d.FilePath, &d.LineContent, &d.Decision, &decided); err != nil {
			return nil, err
		}
		d.DecidedAt, _ = time.Parse(time.RFC3339, decided)
		out = append(out, d)
	}
	return out, rows.Err()
}
