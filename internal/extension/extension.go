package extension

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Extension describes a MediaWiki extension that can be installed into a wiki.
// Optional fields are empty when the catalog entry does not set them.
type Extension struct {
	Name             string            `yaml:"name" json:"name"`
	Extension        string            `yaml:"extension,omitempty" json:"extension,omitempty"` // canonical identifier e.g. "AdminLinks"
	URL              string            `yaml:"url" json:"url"`
	Purpose          string            `yaml:"purpose,omitempty" json:"purpose,omitempty"`
	GitURL           string            `yaml:"giturl,omitempty" json:"giturl,omitempty"`
	Composer         string            `yaml:"composer,omitempty" json:"composer,omitempty"` // e.g. "mediawiki/mermaid": "~3.1"
	WikidataID       string            `yaml:"wikidata_id,omitempty" json:"wikidata_id,omitempty"`
	Since            string            `yaml:"since,omitempty" json:"since,omitempty"`
	LocalSettings    string            `yaml:"localSettings,omitempty" json:"localSettings,omitempty"`
	RequireOnceUntil string            `yaml:"require_once_until,omitempty" json:"require_once_until,omitempty"`
	TagMap           map[string]string `yaml:"tagmap,omitempty" json:"tagmap,omitempty"` // REL branch -> git tag
}

// Map holds resolved extensions by name.
type Map map[string]*Extension

// Clone returns a deep copy so per-instance changes never leak between wikis.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for name, ext := range m {
		out[name] = ext.Clone()
	}
	return out
}

// Names returns the extension names in catalog order of the given list.
func (m Map) Names(order []string) []string {
	names := make([]string, 0, len(m))
	for _, name := range order {
		if _, ok := m[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Clone returns a copy of the extension including its tag map.
func (e *Extension) Clone() *Extension {
	if e == nil {
		return nil
	}
	c := *e
	if e.TagMap != nil {
		c.TagMap = make(map[string]string, len(e.TagMap))
		for k, v := range e.TagMap {
			c.TagMap[k] = v
		}
	}
	return &c
}

// LocalSettingsLine returns the LocalSettings.php entry for the given
// MediaWiki version (e.g. "1.39.15").
func (e *Extension) LocalSettingsLine(mwVersion string) string {
	line := ""
	if e.Extension != "" {
		line = fmt.Sprintf("wfLoadExtension( '%s' );", e.Extension)
	}
	if e.RequireOnceUntil != "" && e.requireOnce(mwVersion) {
		line = fmt.Sprintf(`require_once "$IP/extensions/%s/%s.php";`, e.Extension, e.Extension)
	}
	if e.LocalSettings != "" {
		line += "\n  " + e.LocalSettings
	}
	return line
}

// requireOnce reports whether the release of mwVersion is at most
// RequireOnceUntil. Unparsable versions load the extension the modern way.
func (e *Extension) requireOnce(mwVersion string) bool {
	until, err := release(compactRelease(e.RequireOnceUntil))
	if err != nil {
		return false
	}
	mw, err := release(mwVersion)
	if err != nil {
		return false
	}
	return !mw.GreaterThan(until)
}

// compactRelease turns the short forms "131" and "1_31" into "1.31".
func compactRelease(s string) string {
	s = strings.ReplaceAll(s, "_", ".")
	if !strings.Contains(s, ".") && len(s) > 1 {
		s = s[:1] + "." + s[1:]
	}
	return s
}

func release(version string) (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, err
	}
	return semver.New(v.Major(), v.Minor(), 0, "", ""), nil
}

// Script returns the installExtensions.sh command for the given branch (e.g. "REL1_39").
func (e *Extension) Script(branch string) string {
	if e.GitURL == "" {
		script := "# no installation script command specified"
		if e.Composer != "" {
			script += "\n# installed with composer require " + e.Composer
		}
		return script
	}
	options := ""
	if tag, ok := e.TagMap[branch]; ok && tag != "" {
		options = "--branch " + tag
	} else if strings.Contains(e.GitURL, "//github.com/wikimedia/") || strings.Contains(e.GitURL, "//gerrit.wikimedia.org") {
		// wikimedia keeps one REL branch per MediaWiki release
		options = "--single-branch --branch " + branch
	}
	return fmt.Sprintf(`git_get "%s" "%s" "%s"`, e.GitURL, e.Extension, options)
}
