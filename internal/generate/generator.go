// Package generate renders the files needed to build and run a wiki
// instance with docker compose.
package generate

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

//go:embed templates
var templates embed.FS

// ErrTemplateNotFound is logged, not returned, by Generate.
var ErrTemplateNotFound = errors.New("template not found")

// Generator renders named templates to files.
type Generator struct {
	fs  fs.FS
	log *zap.Logger
}

// New returns a generator for the embedded templates.
func New(log *zap.Logger) *Generator {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	return &Generator{fs: sub, log: log}
}

// NewFromFS returns a generator reading templates from fsys.
func NewFromFS(fsys fs.FS, log *zap.Logger) *Generator {
	return &Generator{fs: fsys, log: log}
}

// Has reports whether a template with the given name exists.
func (g *Generator) Has(name string) bool {
	_, err := fs.Stat(g.fs, name)
	return err == nil
}

// FirstTemplate returns the first of names that exists, or the first name
// if none does.
func (g *Generator) FirstTemplate(names ...string) string {
	for _, name := range names {
		if g.Has(name) {
			return name
		}
	}
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Render executes the named template with data.
func (g *Generator) Render(name string, data any) ([]byte, error) {
	src, err := fs.ReadFile(g.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}
	tmpl, err := template.New(path.Base(name)).Option("missingkey=error").Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Generate renders the named template to targetPath. A missing template is
// logged and skipped. It reports whether the file was written.
func (g *Generator) Generate(name, targetPath string, overwrite bool, data any) (bool, error) {
	content, err := g.Render(name, data)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			g.log.Warn("no template, skipping", zap.String("template", name), zap.String("target", targetPath))
			return false, nil
		}
		return false, err
	}
	return g.Write(targetPath, content, overwrite)
}

// Write writes content to targetPath unless the file exists and overwrite
// is false. It reports whether the file was written.
func (g *Generator) Write(targetPath string, content []byte, overwrite bool) (bool, error) {
	if !overwrite {
		if _, err := os.Stat(targetPath); err == nil {
			g.log.Info("file already exists", zap.String("path", targetPath))
			return false, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return false, fmt.Errorf("create directory for %s: %w", targetPath, err)
	}
	if err := os.WriteFile(targetPath, content, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", targetPath, err)
	}
	g.log.Debug("generated", zap.String("path", targetPath))
	return true, nil
}

// MakeExecutable adds execute permission for user, group and others to
// the given files in dir. Missing files are ignored.
func MakeExecutable(dir string, names ...string) error {
	for _, name := range names {
		p := filepath.Join(dir, name)
		st, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		if err := os.Chmod(p, st.Mode()|0o111); err != nil {
			return fmt.Errorf("chmod %s: %w", p, err)
		}
	}
	return nil
}

// ComposerRequire returns the composer.local.json content requiring the
// given composer statements such as `"mediawiki/mermaid": "~3.1"`, plus
// Semantic MediaWiki when smwVersion is set.
func ComposerRequire(smwVersion string, requires []string) string {
	const indent = "     "
	var lines []string
	if smwVersion != "" {
		lines = append(lines, fmt.Sprintf(`%s"mediawiki/semantic-media-wiki": "~%s"`, indent, smwVersion))
	}
	for _, r := range requires {
		lines = append(lines, indent+r)
	}
	return "{\n  \"require\": {\n" + strings.Join(lines, ",\n") + "\n  }\n}"
}
