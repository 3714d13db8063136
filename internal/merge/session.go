// Package merge reapplies a user's retained settings to the freshly updated
// controller pack files, one file-type class at a time.
package merge

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ukcpup/internal/errors"
	"ukcpup/internal/records"
	"ukcpup/internal/sector"
	"ukcpup/internal/settings"
)

// State identifies where in the merge pipeline a session is.
type State int

const (
	Idle State = iota
	ResolvingSectorFile
	RewritingProfiles
	RewritingGenericText
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ResolvingSectorFile:
		return "resolving-sector-file"
	case RewritingProfiles:
		return "rewriting-profiles"
	case RewritingGenericText:
		return "rewriting-generic-text"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session applies one settings merge over a working directory. Sessions are
// single-use: Apply drives the state machine from Idle to Done or Failed.
type Session struct {
	rules  *Rules
	logger *slog.Logger

	state      State
	failReason string
	sectorPath string
}

// NewSession creates a merge session. A nil rules table uses the compiled
// defaults; a nil logger discards.
func NewSession(rules *Rules, logger *slog.Logger) *Session {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{rules: rules, logger: logger, state: Idle}
}

// State returns the session's current pipeline state.
func (s *Session) State() State {
	return s.state
}

// FailureReason returns the reason a Failed session stopped.
func (s *Session) FailureReason() string {
	return s.failReason
}

// SectorFile returns the resolved sector file path, once known.
func (s *Session) SectorFile() string {
	return s.sectorPath
}

// Apply merges the user settings and the retained records into the pack files
// under workingDir. Per-file I/O problems are logged and skipped; the
// exactly-one-sector-file precondition and a missing working directory abort
// the whole merge before any profile or session file is touched.
func (s *Session) Apply(workingDir string, user *settings.UserSettings, store records.Store) error {
	if info, err := os.Stat(workingDir); err != nil || !info.IsDir() {
		return s.fail(errors.New(errors.WorkingDirMissing,
			fmt.Sprintf("controller pack directory %s not found", workingDir), err))
	}
	if missing := user.RequiredMissing(); len(missing) > 0 {
		return s.fail(errors.New(errors.InternalError,
			fmt.Sprintf("required settings unresolved: %s", strings.Join(missing, ", ")), nil))
	}

	s.state = ResolvingSectorFile
	sct, err := sector.Resolve(workingDir)
	if err != nil {
		return s.fail(err)
	}
	s.sectorPath = sct
	s.logger.Info("Updating references to SECTORFILE and SECTORTITLE", "sector", filepath.Base(sct))
	if err := s.rewriteSectorReferences(workingDir); err != nil {
		return s.fail(errors.New(errors.InternalError, "rewriting sector references", err))
	}

	s.state = RewritingProfiles
	s.logger.Info("Updating your login and VCCS details")
	if err := s.rewriteProfiles(workingDir, user); err != nil {
		return s.fail(errors.New(errors.InternalError, "rewriting profiles", err))
	}

	s.state = RewritingGenericText
	s.logger.Info("Updating any other settings you have opted to carry over")
	if err := s.rewriteGenericText(workingDir, user, store); err != nil {
		return s.fail(errors.New(errors.InternalError, "rewriting settings files", err))
	}

	s.state = Done
	return nil
}

func (s *Session) fail(err error) error {
	s.state = Failed
	s.failReason = err.Error()
	return err
}

// rewriteSectorReferences points every .asr file at the resolved sector file.
// The append fallback is a whole-file decision: only when neither pattern
// matched anywhere are both derived lines added.
func (s *Session) rewriteSectorReferences(workingDir string) error {
	sectorLine := "SECTORFILE:" + s.sectorPath
	titleLine := "SECTORTITLE:" + filepath.Base(s.sectorPath)

	return s.forEachFile(workingDir, ".asr", func(path string, lines []string) ([]string, bool, error) {
		matched := false
		changed := false
		out := make([]string, len(lines))
		for i, line := range lines {
			switch {
			case s.rules.sectorFileLine.MatchString(line):
				out[i] = sectorLine
				matched = true
			case s.rules.sectorTitleLine.MatchString(line):
				out[i] = titleLine
				matched = true
			default:
				out[i] = line
			}
			if out[i] != line {
				changed = true
			}
		}
		if !matched {
			out = append(out, sectorLine, titleLine)
			changed = true
		}
		return out, changed, nil
	})
}

// rewriteProfiles fixes the sector reference in every .prf file and appends
// the identity, plugin and VCCS block. New plugins are numbered after the
// highest PluginN already declared in the file.
func (s *Session) rewriteProfiles(workingDir string, user *settings.UserSettings) error {
	profileLine := "Settings\tsector\t" + s.sectorPath

	return s.forEachFile(workingDir, ".prf", func(path string, lines []string) ([]string, bool, error) {
		maxPlugin := -1
		out := make([]string, 0, len(lines)+16)
		for _, line := range lines {
			if s.rules.profileSector.MatchString(line) {
				line = profileLine
			}
			if m := s.rules.pluginEntry.FindStringSubmatch(line); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil && n > maxPlugin {
					maxPlugin = n
				}
			}
			out = append(out, line)
		}

		out = append(out, "")
		out = append(out, s.profileBlock(user, maxPlugin+1)...)
		return out, true, nil
	})
}

// profileBlock builds the lines appended to each profile: identity, newly
// accepted plugins, then VCCS. Audio lines are all-or-nothing; a partial
// audio configuration is never written.
func (s *Session) profileBlock(user *settings.UserSettings, nextPlugin int) []string {
	block := []string{
		"LastSession\trealname\t" + deref(user.Realname),
		"LastSession\tcertificate\t" + deref(user.Certificate),
		"LastSession\tpassword\t" + deref(user.Password),
		"LastSession\trating\t" + deref(user.Rating),
	}

	for i, plugin := range user.Plugins {
		block = append(block, fmt.Sprintf("Plugins\tPlugin%d\t%s", nextPlugin+i, plugin))
	}

	block = append(block,
		"TeamSpeakVccs\tTs3NickName\t"+deref(user.Certificate),
		"TeamSpeakVccs\tTsVccsMiniControlX\t"+s.rules.MiniControlX,
		"TeamSpeakVccs\tTsVccsMiniControlY\t"+s.rules.MiniControlY,
	)
	if user.VccsPttG2A != nil {
		block = append(block, "TeamSpeakVccs\tTs3G2APtt\t"+*user.VccsPttG2A)
	}
	if user.VccsPttG2G != nil {
		block = append(block, "TeamSpeakVccs\tTs3G2GPtt\t"+*user.VccsPttG2G)
	}
	if user.HasFullAudioConfig() {
		block = append(block,
			"TeamSpeakVccs\tPlaybackMode\t"+*user.VccsPlaybackMode,
			"TeamSpeakVccs\tPlaybackDevice\t"+*user.VccsPlaybackDevice,
			"TeamSpeakVccs\tCaptureMode\t"+*user.VccsCaptureMode,
			"TeamSpeakVccs\tCaptureDevice\t"+*user.VccsCaptureDevice,
		)
	}
	return block
}

// rewriteGenericText applies the fixed structural tweaks to the .txt settings
// files, then replays the retained records that refer to each file.
func (s *Session) rewriteGenericText(workingDir string, user *settings.UserSettings, store records.Store) error {
	return s.forEachFile(workingDir, ".txt", func(path string, lines []string) ([]string, bool, error) {
		changed := false

		if s.rules.screenFile.MatchString(path) {
			for i, line := range lines {
				if s.rules.showVccsFlag.MatchString(line) && line != s.rules.ShowVccsLine {
					lines[i] = s.rules.ShowVccsLine
					changed = true
				}
			}
		}

		if s.rules.departureFile.MatchString(path) {
			for i, line := range lines {
				if s.rules.squawkColumn.MatchString(line) && line != s.rules.SquawkLine {
					lines[i] = s.rules.SquawkLine
					changed = true
				}
			}
			if user.PluginVFPC {
				var c bool
				lines, c = s.insertBeforeMarker(lines, []string{s.rules.VFPCColumn})
				changed = changed || c
			}
			if user.PluginCDM {
				var c bool
				lines, c = s.insertBeforeMarker(lines, s.rules.CDMColumns)
				changed = changed || c
			}
		}

		var recs []records.Record
		if store != nil {
			var err error
			recs, err = store.ForFile(path)
			if err != nil {
				return nil, false, err
			}
		}
		for _, rec := range recs {
			key, err := matchKey(rec.LineContent)
			if err != nil {
				s.logger.Warn("Skipping malformed record", "file", rec.FilePath, "error", err)
				continue
			}
			prefix := key + ":"
			for i, line := range lines {
				if strings.HasPrefix(line, prefix) && line != rec.LineContent {
					s.logger.Info("Reapplying customization", "line", rec.LineContent)
					lines[i] = rec.LineContent
					changed = true
				}
			}
		}

		return lines, changed, nil
	})
}

// insertBeforeMarker places extra lines immediately before the terminal marker
// line. Lines already present are not inserted again.
func (s *Session) insertBeforeMarker(lines, extra []string) ([]string, bool) {
	present := make(map[string]bool, len(lines))
	for _, line := range lines {
		present[line] = true
	}
	var missing []string
	for _, line := range extra {
		if !present[line] {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return lines, false
	}

	for i, line := range lines {
		if line == s.rules.EndMarker {
			out := make([]string, 0, len(lines)+len(missing))
			out = append(out, lines[:i]...)
			out = append(out, missing...)
			out = append(out, lines[i:]...)
			return out, true
		}
	}
	return append(lines, missing...), true
}

// matchKey derives the replacement key from a retained line: the first two
// colon-delimited tokens, or just the first when the line only has two.
func matchKey(line string) (string, error) {
	tokens := strings.Split(line, ":")
	switch {
	case len(tokens) > 2:
		return tokens[0] + ":" + tokens[1], nil
	case len(tokens) == 2:
		return tokens[0], nil
	default:
		return "", errors.New(errors.MalformedRecord,
			fmt.Sprintf("cannot derive a match key from %q", line), nil)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
