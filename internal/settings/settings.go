// Package settings discovers a user's prior customizations by scanning the
// profile files of an existing controller pack installation.
package settings

import (
	"fmt"
	"io"
	"strings"
)

// UserSettings is the structured bag of preferences reapplied after an
// update. Pointer fields distinguish "never seen" from an empty value.
type UserSettings struct {
	Realname             *string
	Certificate          *string
	Password             *string
	Facility             *string
	Rating               *string
	Plugins              []string
	VccsPttG2A           *string
	VccsPttG2G           *string
	VccsCaptureMode      *string
	VccsCaptureDevice    *string
	VccsPlaybackMode     *string
	VccsPlaybackDevice   *string
	HoppiesCpdlcPassword *string

	// PluginVFPC and PluginCDM record whether the user accepted those plugins;
	// the generic-text rewrite stage keys optional column blocks off them.
	PluginVFPC bool
	PluginCDM  bool
}

// RequiredMissing returns the names of required settings still unresolved.
// Realname, certificate, password and rating must all be present before a merge.
func (s *UserSettings) RequiredMissing() []string {
	var missing []string
	if s.Realname == nil {
		missing = append(missing, "realname")
	}
	if s.Certificate == nil {
		missing = append(missing, "certificate")
	}
	if s.Password == nil {
		missing = append(missing, "password")
	}
	if s.Rating == nil {
		missing = append(missing, "rating")
	}
	return missing
}

// HasFullAudioConfig reports whether all four VCCS audio settings are present.
// Partial audio config is never written to profiles.
func (s *UserSettings) HasFullAudioConfig() bool {
	return s.VccsPlaybackMode != nil && s.VccsPlaybackDevice != nil &&
		s.VccsCaptureMode != nil && s.VccsCaptureDevice != nil
}

// WriteSummary prints the resolved settings for user confirmation.
// Passwords are never displayed.
func (s *UserSettings) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, "The following data will be appended to all profiles in the controller pack.")
	fmt.Fprintln(w, "This is a LOCAL operation; none of your data leaves your computer.")
	fmt.Fprintf(w, "Real Name:\t\t%s\n", orNone(s.Realname))
	fmt.Fprintf(w, "Certificate:\t\t%s\n", orNone(s.Certificate))
	fmt.Fprintf(w, "Password:\t\t[NOT DISPLAYED]\n")
	fmt.Fprintf(w, "Rating:\t\t\t%s\n", orNone(s.Rating))
	if len(s.Plugins) > 0 {
		fmt.Fprintf(w, "Plugins:\t\t%s\n", s.Plugins[0])
		for _, p := range s.Plugins[1:] {
			fmt.Fprintf(w, "\t\t\t%s\n", p)
		}
	}
	fmt.Fprintf(w, "VCCS Nickname:\t\t%s\t(copied from your certificate)\n", orNone(s.Certificate))
	fmt.Fprintf(w, "VCCS G2A PTT:\t\t%s\t(scancode of a physical key)\n", orNone(s.VccsPttG2A))
	fmt.Fprintf(w, "VCCS G2G PTT:\t\t%s\t(scancode of a physical key)\n", orNone(s.VccsPttG2G))
	fmt.Fprintf(w, "VCCS Capture Mode:\t%s\n", orNone(s.VccsCaptureMode))
	fmt.Fprintf(w, "VCCS Playback Mode:\t%s\n", orNone(s.VccsPlaybackMode))
	fmt.Fprintf(w, "VCCS Capture Device:\t%s\n", orNone(s.VccsCaptureDevice))
	fmt.Fprintf(w, "VCCS Playback Device:\t%s\n", orNone(s.VccsPlaybackDevice))
	if s.HoppiesCpdlcPassword != nil {
		fmt.Fprintf(w, "Hoppies CPDLC Password:\t[NOT DISPLAYED]\n")
	}
}

func orNone(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "<none>"
	}
	return *v
}
