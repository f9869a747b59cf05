package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sarth-shah20/mwdocker/internal/extension"
)

// ErrInvalidVersion is returned for MediaWiki versions without major.minor.
var ErrInvalidVersion = errors.New("invalid MediaWiki version")

var versionRe = regexp.MustCompile(`^(\d+)\.(\d+)`)

// DefaultExtensions are installed when no extension list is given.
var DefaultExtensions = []string{
	"Admin Links",
	"Header Tabs",
	"ParserFunctions",
	"SyntaxHighlight",
	"Variables",
}

// DefaultVersions are the MediaWiki versions of a default cluster.
var DefaultVersions = []string{"1.35.13", "1.39.15", "1.43.5", "1.44.2"}

// Default returns the configuration of a single default wiki.
func Default() Config {
	return Config{
		Version:        "1.39.15",
		ExtensionNames: append([]string(nil), DefaultExtensions...),
		User:           "Sysop",
		Prefix:         "mw",
		Logo:           "$wgResourceBasePath/resources/assets/wiki.png",
		Prot:           "http",
		Host:           DefaultHost(),
		MariaDBVersion: "11.4",
		Port:           9080,
		SQLPort:        9306,
		NetworkName:    "mwNetwork",
		UID:            33, // www-data
		GID:            33,
		Verbose:        true,
		Lenient:        true,
		PasswordLength: 15,
		Password:       "sysop-1234!",
	}
}

// DefaultClusterConfig returns the configuration of the default cluster.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Config:      Default(),
		Versions:    append([]string(nil), DefaultVersions...),
		BasePort:    9080,
		BaseSQLPort: 9306,
	}
}

// DefaultHost returns a host name usable from the docker host, avoiding
// "localhost" and reverse DNS names.
func DefaultHost() string {
	host, err := os.Hostname()
	if err != nil || host == "" || host == "localhost" {
		return "127.0.0.1"
	}
	if strings.HasSuffix(host, ".in-addr.arpa") {
		return "127.0.0.1"
	}
	if strings.HasSuffix(host, ".ip6.arpa") {
		return "::1"
	}
	return host
}

// DefaultDockerPath returns $HOME/.pymediawikidocker.
func DefaultDockerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".pymediawikidocker")
}

// Derive fills the fields that depend on others: container names, docker
// path, base port and urls. Fields that are already set are kept.
func (c *Config) Derive() error {
	if !versionRe.MatchString(c.Version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, c.Version)
	}
	if c.DockerPath == "" {
		c.DockerPath = DefaultDockerPath()
	}
	if c.ContainerBaseName == "" {
		c.ContainerBaseName = fmt.Sprintf("%s-%s", c.Prefix, c.ShortVersion(""))
	}
	if c.DBContainerName == "" {
		c.DBContainerName = c.DefaultDBContainerName()
	}
	if c.BasePort == 0 {
		c.BasePort = c.Port
	}
	return c.ResetURL(c.URL)
}

// ResetURL sets prot, host and script path from the given url, or derives
// the urls from prot, host and base port when url is empty.
func (c *Config) ResetURL(rawURL string) error {
	if rawURL == "" {
		c.baseURL = fmt.Sprintf("%s://%s:%d", c.Prot, c.Host, c.BasePort)
		c.fullURL = c.baseURL + c.ScriptPath
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url %s: %w", rawURL, err)
	}
	c.URL = rawURL
	c.Prot = u.Scheme
	c.Host = u.Hostname()
	c.ScriptPath = u.Path
	c.baseURL = fmt.Sprintf("%s://%s", c.Prot, c.Host)
	c.fullURL = rawURL
	return nil
}

// BaseURL returns e.g. http://wiki.example.com:9080.
func (c *Config) BaseURL() string { return c.baseURL }

// FullURL returns the base url including the script path.
func (c *Config) FullURL() string { return c.fullURL }

// FullVersion returns e.g. "MediaWiki 1.39.15".
func (c *Config) FullVersion() string { return "MediaWiki " + c.Version }

// UnderscoreVersion returns e.g. "1_39_15".
func (c *Config) UnderscoreVersion() string { return strings.ReplaceAll(c.Version, ".", "_") }

// ShortVersion returns major and minor joined by sep, e.g. "139" or "1_39".
func (c *Config) ShortVersion(sep string) string {
	m := versionRe.FindStringSubmatch(c.Version)
	if m == nil {
		return ""
	}
	return m[1] + sep + m[2]
}

// Branch returns the git release branch, e.g. "REL1_39".
func (c *Config) Branch() string { return "REL" + c.ShortVersion("_") }

// DefaultDBContainerName returns {container_base_name}-db.
func (c *Config) DefaultDBContainerName() string {
	return c.ContainerBaseName + "-db"
}

// HasExternalDB reports whether the database runs in an existing container
// that is not managed by this instance's compose file.
func (c *Config) HasExternalDB() bool {
	return c.ExternalDB || c.DBContainerName != c.DefaultDBContainerName()
}

// WikiID returns the configured wiki id or {prefix}-{port}.
func (c *Config) WikiID() string {
	if c.WikiIDOverride != "" {
		return c.WikiIDOverride
	}
	return fmt.Sprintf("%s-%d", c.Prefix, c.Port)
}

// ArtifactDir returns {docker_path}/{container_base_name}.
func (c *Config) ArtifactDir() string {
	return filepath.Join(c.DockerPath, c.ContainerBaseName)
}

// ResolveExtensions looks up ExtensionNames in the catalog and returns the
// names that are not known.
func (c *Config) ResolveExtensions(catalog *extension.Catalog) []string {
	m, unknown := catalog.Resolve(c.ExtensionNames)
	c.Extensions = m
	return unknown
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.ExtensionNames = append([]string(nil), c.ExtensionNames...)
	out.Extensions = c.Extensions.Clone()
	return &out
}
