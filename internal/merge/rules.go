package merge

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// Rules is the per-file-type rewrite table the merge session applies. The
// compiled defaults match the upstream pack layout; individual entries can be
// overridden from a TOML file when the pack changes shape between releases.
type Rules struct {
	sectorFileLine  *regexp.Regexp
	sectorTitleLine *regexp.Regexp
	profileSector   *regexp.Regexp
	pluginEntry     *regexp.Regexp
	screenFile      *regexp.Regexp
	departureFile   *regexp.Regexp
	showVccsFlag    *regexp.Regexp
	squawkColumn    *regexp.Regexp

	EndMarker    string
	ShowVccsLine string
	SquawkLine   string
	VFPCColumn   string
	CDMColumns   []string
	MiniControlX string
	MiniControlY string
}

// rulesFile is the TOML overlay shape. Empty fields keep the compiled default.
type rulesFile struct {
	SectorFileLine  string   `toml:"sector_file_line"`
	SectorTitleLine string   `toml:"sector_title_line"`
	ProfileSector   string   `toml:"profile_sector"`
	PluginEntry     string   `toml:"plugin_entry"`
	ScreenFile      string   `toml:"screen_file"`
	DepartureFile   string   `toml:"departure_file"`
	ShowVccsFlag    string   `toml:"show_vccs_flag"`
	SquawkColumn    string   `toml:"squawk_column"`
	EndMarker       string   `toml:"end_marker"`
	ShowVccsLine    string   `toml:"show_vccs_line"`
	SquawkLine      string   `toml:"squawk_line"`
	VFPCColumn      string   `toml:"vfpc_column"`
	CDMColumns      []string `toml:"cdm_columns"`
	MiniControlX    string   `toml:"mini_control_x"`
	MiniControlY    string   `toml:"mini_control_y"`
}

// DefaultRules returns the compiled rewrite table for the current pack layout.
func DefaultRules() *Rules {
	return &Rules{
		sectorFileLine:  regexp.MustCompile(`^SECTORFILE:(.*)`),
		sectorTitleLine: regexp.MustCompile(`^SECTORTITLE:(.*)`),
		profileSector:   regexp.MustCompile(`^Settings\tsector\t(.*)`),
		pluginEntry:     regexp.MustCompile(`^Plugins\tPlugin([0-9]+)\t`),
		screenFile:      regexp.MustCompile(`_APP_Screen\.txt$`),
		departureFile:   regexp.MustCompile(`_APP_DL\.txt$`),
		showVccsFlag:    regexp.MustCompile(`^m_ShowTsVccsMiniControl:[01]`),
		squawkColumn:    regexp.MustCompile(`^m_Column:ASSR`),

		EndMarker:    "END",
		ShowVccsLine: "m_ShowTsVccsMiniControl:1",
		SquawkLine:   "m_Column:ASSR:5:1:60:9000:9022:1::UK Controller Plugin:UK Controller Plugin:0:0.0",
		VFPCColumn:   "m_Column:VFPC:5:0:1:100:9004:1:VFPC (UK):VFPC (UK):UK Controller Plugin:0:0.0",
		CDMColumns: []string{
			"m_Column:EOBT:5:1:1:120:100:1:CDM Plugin:CDM Plugin:CDM Plugin:0:0.0",
			"m_Column:E:2:1:9:0:123:1:CDM Plugin::CDM Plugin:0:0.0",
			"m_Column:TOBT:5:1:4:121:115:1:CDM Plugin:CDM Plugin:CDM Plugin:0:0.0",
			"m_Column:TSAT:5:1:2:0:0:1:CDM Plugin:::0:0.0",
			"m_Column:TTOT:5:1:3:0:0:1:CDM Plugin:::0:0.0",
			"m_Column:TSAC:5:1:5:122:104:1:CDM Plugin:CDM Plugin:CDM Plugin:0:0.0",
			"m_Column:ASAT:5:1:6:0:0:1:CDM Plugin:::0:0.0",
			"m_Column:ASRT:5:1:7:107:0:1:CDM Plugin:CDM Plugin::0:0.0",
			"m_Column:CTOT:5:1:10:108:0:1:CDM Plugin:CDM Plugin::0:0.0",
			"m_Column:STUP:7:1:9:106:0:1::CDM Plugin::0:0.0",
		},
		MiniControlX: "1581",
		MiniControlY: "198",
	}
}

// LoadRules reads a TOML overlay and applies it on top of the defaults.
func LoadRules(path string) (*Rules, error) {
	var overlay rulesFile
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return nil, fmt.Errorf("loading rewrite rules from %s: %w", path, err)
	}

	rules := DefaultRules()
	patterns := []struct {
		expr   string
		target **regexp.Regexp
	}{
		{overlay.SectorFileLine, &rules.sectorFileLine},
		{overlay.SectorTitleLine, &rules.sectorTitleLine},
		{overlay.ProfileSector, &rules.profileSector},
		{overlay.PluginEntry, &rules.pluginEntry},
		{overlay.ScreenFile, &rules.screenFile},
		{overlay.DepartureFile, &rules.departureFile},
		{overlay.ShowVccsFlag, &rules.showVccsFlag},
		{overlay.SquawkColumn, &rules.squawkColumn},
	}
	for _, p := range patterns {
		if p.expr == "" {
			continue
		}
		re, err := regexp.Compile(p.expr)
		if err != nil {
			return nil, fmt.Errorf("invalid rewrite pattern %q in %s: %w", p.expr, path, err)
		}
		*p.target = re
	}

	if overlay.EndMarker != "" {
		rules.EndMarker = overlay.EndMarker
	}
	if overlay.ShowVccsLine != "" {
		rules.ShowVccsLine = overlay.ShowVccsLine
	}
	if overlay.SquawkLine != "" {
		rules.SquawkLine = overlay.SquawkLine
	}
	if overlay.VFPCColumn != "" {
		rules.VFPCColumn = overlay.VFPCColumn
	}
	if len(overlay.CDMColumns) > 0 {
		rules.CDMColumns = overlay.CDMColumns
	}
	if overlay.MiniControlX != "" {
		rules.MiniControlX = overlay.MiniControlX
	}
	if overlay.MiniControlY != "" {
		rules.MiniControlY = overlay.MiniControlY
	}
	return rules, nil
}
