package config

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// composer 2 is needed from MediaWiki 1.39 on.
var composer2 = semver.MustParse("1.39.0")

// Release returns the MediaWiki release (major.minor.0) of Version, so
// patch levels and pre-releases of a release compare equal.
func (c *Config) Release() (*semver.Version, error) {
	v, err := semver.NewVersion(c.Version)
	if err != nil {
		return nil, err
	}
	return semver.New(v.Major(), v.Minor(), 0, "", ""), nil
}

// ComposerVersion returns the composer major version for this MediaWiki.
func (c *Config) ComposerVersion() int {
	release, err := c.Release()
	if err != nil || release.LessThan(composer2) {
		return 1
	}
	return 2
}

// SMWMajor returns the major version of SMWVersion, which may be a composer
// constraint such as "~4.1". It is 0 when no Semantic MediaWiki is set.
func (c *Config) SMWMajor() int {
	raw := strings.TrimLeft(strings.TrimSpace(c.SMWVersion), "~^=>< v")
	if raw == "" {
		return 0
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return 0
	}
	return int(v.Major())
}
