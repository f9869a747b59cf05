package generate

import (
	"fmt"
	"sort"
	"time"

	"github.com/sarth-shah20/mwdocker/internal/config"
	"github.com/sarth-shah20/mwdocker/internal/extension"
)

// ToolVersion is written into the header of generated files.
var ToolVersion = "dev"

// Paths inside the MediaWiki container.
const (
	ScriptDir = "/scripts"
	WebDir    = "/var/www/html"
)

// Data is passed to every template. The instance configuration is
// embedded, so templates use e.g. {{.Version}} or {{.WikiID}}.
type Data struct {
	*config.Config

	Timestamp   string
	ToolVersion string

	// VolumeType is "bind" for bind mounts, else "volume".
	VolumeType string
	MySQLData  string
	WikiSites  string

	ScriptDir string
	WebDir    string
	// ScriptsDir is the host directory mounted at ScriptDir.
	ScriptsDir string

	SecretKey     string
	ExtensionList []*extension.Extension
}

// NewData returns the template data for an instance.
func NewData(c *config.Config, now time.Time, secretKey string) Data {
	d := Data{
		Config:      c,
		Timestamp:   now.Format(time.RFC3339),
		ToolVersion: ToolVersion,
		ScriptDir:   ScriptDir,
		WebDir:      WebDir,
		ScriptsDir:  c.ArtifactDir(),
		SecretKey:   secretKey,
	}
	if c.BindMount {
		d.VolumeType = "bind"
		d.MySQLData = fmt.Sprintf("/var/lib/mediawiki/mysql/%s", c.ShortVersion(""))
		d.WikiSites = "/var/www/mediawiki/sites"
	} else {
		d.VolumeType = "volume"
		d.MySQLData = "mysql-data"
		d.WikiSites = "wiki-sites"
	}
	d.ExtensionList = sortedExtensions(c.Extensions)
	return d
}

// Database returns the database name of the wiki, e.g. "mw-9080_wiki".
func (d Data) Database() string { return d.WikiID() + "_wiki" }

// DBUser returns the database user of the wiki, e.g. "mw-9080_user".
func (d Data) DBUser() string { return d.WikiID() + "_user" }

// Composer returns the composer require statements of the extensions.
func (d Data) Composer() []string {
	var requires []string
	for _, e := range d.ExtensionList {
		if e.Composer != "" {
			requires = append(requires, e.Composer)
		}
	}
	return requires
}

func sortedExtensions(m extension.Map) []*extension.Extension {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]*extension.Extension, 0, len(names))
	for _, name := range names {
		list = append(list, m[name])
	}
	return list
}
