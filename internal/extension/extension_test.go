package extension

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogResolve(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	m, unknown := c.Resolve([]string{"Admin Links", "NotARealExtension"})
	require.Len(t, m, 1)
	assert.Equal(t, "AdminLinks", m["Admin Links"].Extension)
	assert.Equal(t, []string{"NotARealExtension"}, unknown)
}

func TestResolveReturnsCopies(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	m, _ := c.Resolve([]string{"PlantUML"})
	m["PlantUML"].TagMap["REL1_39"] = "1.0.0"

	orig, ok := c.Get("PlantUML")
	require.True(t, ok)
	_, leaked := orig.TagMap["REL1_39"]
	assert.False(t, leaked)
}

func TestMapClone(t *testing.T) {
	m := Map{"Variables": {Name: "Variables", Extension: "Variables"}}
	c := m.Clone()
	c["Variables"].Extension = "Changed"
	assert.Equal(t, "Variables", m["Variables"].Extension)
	assert.Nil(t, Map(nil).Clone())
}

func TestMergeOverrides(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "extra.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extensions":[
		{"name":"Variables","extension":"Variables","url":"https://example.org/Variables","giturl":"https://github.com/example/Variables.git"},
		{"name":"Extra","extension":"Extra","url":"https://example.org/Extra"}
	]}`), 0o600))
	extra, err := LoadCatalog(path)
	require.NoError(t, err)

	overridden := c.Merge(extra)
	assert.Equal(t, []string{"Variables"}, overridden)

	v, ok := c.Get("Variables")
	require.True(t, ok)
	assert.Equal(t, "https://example.org/Variables", v.URL)
	_, ok = c.Get("Extra")
	assert.True(t, ok)
}

func TestLocalSettingsLine(t *testing.T) {
	tests := []struct {
		name      string
		ext       Extension
		mwVersion string
		want      string
	}{
		{"load", Extension{Extension: "AdminLinks"}, "1.39.15", "wfLoadExtension( 'AdminLinks' );"},
		{"require once", Extension{Extension: "Widgets", RequireOnceUntil: "1.31"}, "1.27.7", `require_once "$IP/extensions/Widgets/Widgets.php";`},
		{"require once last release", Extension{Extension: "Widgets", RequireOnceUntil: "1.31"}, "1.31.16", `require_once "$IP/extensions/Widgets/Widgets.php";`},
		{"compact until", Extension{Extension: "Widgets", RequireOnceUntil: "131"}, "1.27.7", `require_once "$IP/extensions/Widgets/Widgets.php";`},
		{"past require once", Extension{Extension: "Widgets", RequireOnceUntil: "1.31"}, "1.39.15", "wfLoadExtension( 'Widgets' );"},
		{"two digit minor", Extension{Extension: "Foo", RequireOnceUntil: "139"}, "1.100.0", "wfLoadExtension( 'Foo' );"},
		{"one digit minor", Extension{Extension: "Foo", RequireOnceUntil: "1.39"}, "1.4.0", `require_once "$IP/extensions/Foo/Foo.php";`},
		{"unparsable until", Extension{Extension: "Foo", RequireOnceUntil: "never"}, "1.27.7", "wfLoadExtension( 'Foo' );"},
		{"extra settings", Extension{Extension: "ParserFunctions", LocalSettings: "$wgPFEnableStringFunctions = true;"}, "1.39.15",
			"wfLoadExtension( 'ParserFunctions' );\n  $wgPFEnableStringFunctions = true;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ext.LocalSettingsLine(tt.mwVersion))
		})
	}
}

func TestScript(t *testing.T) {
	tests := []struct {
		name string
		ext  Extension
		want string
	}{
		{"gerrit branch", Extension{Extension: "AdminLinks", GitURL: "https://gerrit.wikimedia.org/r/mediawiki/extensions/AdminLinks.git"},
			`git_get "https://gerrit.wikimedia.org/r/mediawiki/extensions/AdminLinks.git" "AdminLinks" "--single-branch --branch REL1_39"`},
		{"tag map", Extension{Extension: "PlantUML", GitURL: "https://github.com/WolfgangFahl/PlantUML.git", TagMap: map[string]string{"REL1_39": "0.9.0"}},
			`git_get "https://github.com/WolfgangFahl/PlantUML.git" "PlantUML" "--branch 0.9.0"`},
		{"plain git", Extension{Extension: "Foo", GitURL: "https://github.com/example/Foo.git"},
			`git_get "https://github.com/example/Foo.git" "Foo" ""`},
		{"composer", Extension{Extension: "Mermaid", Composer: `"mediawiki/mermaid": "~3.1"`},
			"# no installation script command specified\n# installed with composer require \"mediawiki/mermaid\": \"~3.1\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ext.Script("REL1_39"))
		})
	}
}
