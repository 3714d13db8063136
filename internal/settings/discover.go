package settings

import (
	"bufio"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// settingPatterns maps setting keys to the profile line patterns that carry
// them. Profile files are tab-delimited; the capture group is the value.
var settingPatterns = map[string]*regexp.Regexp{
	"realname":               regexp.MustCompile(`^LastSession\trealname\t(.*)`),
	"certificate":            regexp.MustCompile(`^LastSession\tcertificate\t([0-9]{4,})`),
	"password":               regexp.MustCompile(`^LastSession\tpassword\t(.*)`),
	"facility":               regexp.MustCompile(`^LastSession\tfacility\t([0-9])`),
	"rating":                 regexp.MustCompile(`^LastSession\trating\t([0-9])`),
	"plugins":                regexp.MustCompile(`^Plugins\tPlugin[0-9]\t([A-Z]:\\.*)`),
	"vccs_ptt_g2a":           regexp.MustCompile(`^TeamSpeakVccs\tTs3G2APtt\t([0-9]{1,10})`),
	"vccs_ptt_g2g":           regexp.MustCompile(`^TeamSpeakVccs\tTs3G2GPtt\t([0-9]{1,10})`),
	"vccs_playback_mode":     regexp.MustCompile(`^TeamSpeakVccs\tPlaybackMode\t(.*)`),
	"vccs_playback_device":   regexp.MustCompile(`^TeamSpeakVccs\tPlaybackDevice\t(.*)`),
	"vccs_capture_mode":      regexp.MustCompile(`^TeamSpeakVccs\tCaptureMode\t(.*)`),
	"vccs_capture_device":    regexp.MustCompile(`^TeamSpeakVccs\tCaptureDevice\t(.*)`),
	"hoppies_cpdlc_password": regexp.MustCompile(`^vSMR:cpdlc_password:(.*)`),
}

var (
	vfpcPlugin = regexp.MustCompile(`.*VFPC\.dll`)
	cdmPlugin  = regexp.MustCompile(`.*CDM\.dll`)
)

// Resolver supplies the user decisions discovery cannot make on its own:
// choosing between conflicting values, entering missing required values, and
// confirming each non-pack plugin. Injected so discovery is testable headlessly.
type Resolver interface {
	// SelectValue picks one of several conflicting discovered values for key.
	SelectValue(key string, options []string) (string, error)

	// EnterValue asks for a value that was not discovered. Secret values must
	// not be echoed or logged by implementations.
	EnterValue(key string, secret bool) (string, error)

	// ConfirmPlugin asks whether a discovered non-pack plugin should be kept.
	ConfirmPlugin(path string) (bool, error)
}

// Discover walks every .prf file under dir, harvests values matching the
// pattern table, and resolves them to a complete UserSettings via the
// resolver. Required keys missing after the scan fall back to manual entry.
func Discover(dir string, resolver Resolver, logger *slog.Logger) (*UserSettings, error) {
	found := make(map[string]map[string]struct{})
	for key := range settingPatterns {
		found[key] = make(map[string]struct{})
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".prf") {
			return nil
		}
		logger.Debug("Scanning profile", "file", path)
		return scanFile(path, found)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan profiles under %s: %w", dir, err)
	}

	s := &UserSettings{}

	// Scalar settings: a single discovery is used as-is, conflicts go to the
	// resolver. Passwords are entered afresh on conflict, never listed.
	scalars := map[string]**string{
		"realname":               &s.Realname,
		"certificate":            &s.Certificate,
		"facility":               &s.Facility,
		"rating":                 &s.Rating,
		"vccs_ptt_g2a":           &s.VccsPttG2A,
		"vccs_ptt_g2g":           &s.VccsPttG2G,
		"vccs_playback_mode":     &s.VccsPlaybackMode,
		"vccs_playback_device":   &s.VccsPlaybackDevice,
		"vccs_capture_mode":      &s.VccsCaptureMode,
		"vccs_capture_device":    &s.VccsCaptureDevice,
		"hoppies_cpdlc_password": &s.HoppiesCpdlcPassword,
	}
	for key, target := range scalars {
		values := sortedValues(found[key])
		switch len(values) {
		case 0:
			// stays nil
		case 1:
			v := values[0]
			*target = &v
		default:
			logger.Warn("More than one value found", "setting", key, "count", len(values))
			picked, err := resolver.SelectValue(key, values)
			if err != nil {
				return nil, err
			}
			*target = &picked
		}
	}

	if err := resolvePassword(s, sortedValues(found["password"]), resolver, logger); err != nil {
		return nil, err
	}
	if err := resolvePlugins(s, sortedValues(found["plugins"]), resolver, logger); err != nil {
		return nil, err
	}

	// Manual entry for anything required that discovery could not supply
	for _, key := range s.RequiredMissing() {
		value, err := resolver.EnterValue(key, key == "password")
		if err != nil {
			return nil, err
		}
		v := value
		switch key {
		case "realname":
			s.Realname = &v
		case "certificate":
			s.Certificate = &v
		case "password":
			s.Password = &v
		case "rating":
			s.Rating = &v
		}
	}

	return s, nil
}

// scanFile matches every pattern against every line of one profile file.
func scanFile(path string, found map[string]map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		for key, pattern := range settingPatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				found[key][m[1]] = struct{}{}
			}
		}
	}
	return scanner.Err()
}

// resolvePassword handles the password set separately: conflicting passwords
// are never shown, the user re-enters one instead.
func resolvePassword(s *UserSettings, values []string, resolver Resolver, logger *slog.Logger) error {
	switch len(values) {
	case 0:
		// manual entry picks this up via RequiredMissing
	case 1:
		v := values[0]
		s.Password = &v
	default:
		logger.Warn("More than one password found; they will not be displayed", "count", len(values))
		entered, err := resolver.EnterValue("password", true)
		if err != nil {
			return err
		}
		s.Password = &entered
	}
	return nil
}

// resolvePlugins confirms each discovered non-pack plugin and flags the ones
// with bespoke handling downstream.
func resolvePlugins(s *UserSettings, values []string, resolver Resolver, logger *slog.Logger) error {
	if len(values) == 0 {
		logger.Info("No custom plugins were detected")
		return nil
	}

	logger.Info("Custom plugins detected", "count", len(values))
	for _, plugin := range values {
		ok, err := resolver.ConfirmPlugin(plugin)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		s.Plugins = append(s.Plugins, plugin)
		if vfpcPlugin.MatchString(plugin) {
			logger.Debug("VFPC plugin handling enabled")
			s.PluginVFPC = true
		}
		if cdmPlugin.MatchString(plugin) {
			logger.Debug("CDM plugin handling enabled")
			s.PluginCDM = true
		}
	}
	return nil
}

// sortedValues returns the set's members in a stable order.
func sortedValues(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
