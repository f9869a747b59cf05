package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command line and restores all flags afterwards, since
// the commands are package level.
func execute(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Cleanup(func() {
		reset := func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				def := strings.Trim(f.DefValue, "[]")
				var values []string
				if def != "" {
					values = strings.Split(def, ",")
				}
				_ = sv.Replace(values)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		}
		rootCmd.PersistentFlags().VisitAll(reset)
		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(reset)
		}
	})
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestExtensions(t *testing.T) {
	code, out, _ := execute(t, "extensions", "--extensions", "Variables", "--docker_path", t.TempDir())
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Admin Links")
	assert.Regexp(t, `Variables\s+\*\s+https://www.mediawiki.org/wiki/Extension:Variables`, out)
	assert.NotRegexp(t, `Admin Links\s+\*`, out)
}

func TestExtensionFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "extra.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`extensions:
  - name: Graph Viewer
    url: https://example.com/GraphViewer
`), 0o644))

	code, out, _ := execute(t, "extensions", "--extension_file", file)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Graph Viewer")
	assert.Contains(t, out, "https://example.com/GraphViewer")
}

func TestInvalidVersionIsAnError(t *testing.T) {
	code, _, errOut := execute(t, "--versions", "1.x", "extensions")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "invalid MediaWiki version")
}

func TestUnknownCommand(t *testing.T) {
	code, _, errOut := execute(t, "frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestArchiveNeedsBucket(t *testing.T) {
	code, _, errOut := execute(t, "archive")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `required flag(s) "bucket" not set`)
}
