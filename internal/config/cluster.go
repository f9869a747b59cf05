package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNoVersions is returned for a cluster without MediaWiki versions.
	ErrNoVersions = errors.New("cluster needs at least one MediaWiki version")
	// ErrPortCollision is returned when the HTTP and SQL port ranges of the
	// instances overlap.
	ErrPortCollision = errors.New("port ranges collide")
	// ErrNoDBContainer is returned when an external database is requested
	// without naming its container.
	ErrNoDBContainer = errors.New("external database needs db_container_name")
)

// Validate checks the cluster wide invariants.
func (cc *ClusterConfig) Validate() error {
	if len(cc.Versions) == 0 {
		return ErrNoVersions
	}
	seen := make(map[string]bool, len(cc.Versions))
	for _, v := range cc.Versions {
		if !versionRe.MatchString(v) {
			return fmt.Errorf("%w: %q", ErrInvalidVersion, v)
		}
		short := shortOf(v)
		if seen[short] && len(cc.Versions) > 1 {
			return fmt.Errorf("versions must differ in major.minor to get distinct container names: %s", v)
		}
		seen[short] = true
	}

	n := len(cc.Versions)
	if cc.BasePort <= 0 || cc.BaseSQLPort <= 0 || cc.BasePort+n > 65536 || cc.BaseSQLPort+n > 65536 {
		return fmt.Errorf("%w: base_port %d and sql_port %d must leave room for %d instances",
			ErrPortCollision, cc.BasePort, cc.BaseSQLPort, n)
	}
	// instance i uses BasePort+i and BaseSQLPort+i
	if cc.BasePort < cc.BaseSQLPort+n && cc.BaseSQLPort < cc.BasePort+n {
		return fmt.Errorf("%w: http ports %d-%d and sql ports %d-%d",
			ErrPortCollision, cc.BasePort, cc.BasePort+n-1, cc.BaseSQLPort, cc.BaseSQLPort+n-1)
	}

	if cc.ExternalDB && cc.DBContainerName == "" {
		return ErrNoDBContainer
	}
	return nil
}

func shortOf(version string) string {
	c := Config{Version: version}
	return c.ShortVersion("")
}

// Instance derives the configuration of the i-th of count instances.
//
// Ports are offset by the index. With more than one instance the container
// base name is always re-derived from prefix and version so that instances
// never share the single instance name.
func (cc *ClusterConfig) Instance(i, count int) (*Config, error) {
	if i < 0 || i >= len(cc.Versions) {
		return nil, fmt.Errorf("instance index %d out of range for %d versions", i, len(cc.Versions))
	}
	c := cc.Config.Clone()
	c.Version = cc.Versions[i]
	c.Port = cc.BasePort + i
	c.BasePort = cc.BasePort + i
	c.SQLPort = cc.BaseSQLPort + i
	if count > 1 {
		c.ContainerBaseName = ""
		// an external database container designated for the cluster is kept
		if !c.ExternalDB {
			c.DBContainerName = ""
		}
	}
	if err := c.Derive(); err != nil {
		return nil, err
	}
	return c, nil
}

// EnsurePasswords creates random MySQL passwords that were not configured.
// The root password of an external database is owned by that container.
func (cc *ClusterConfig) EnsurePasswords() error {
	if cc.MySQLRootPassword == "" && !cc.ExternalDB {
		pw, err := RandomPassword(cc.PasswordLength)
		if err != nil {
			return err
		}
		cc.MySQLRootPassword = pw
	}
	if cc.MySQLPassword == "" {
		pw, err := RandomPassword(cc.PasswordLength)
		if err != nil {
			return err
		}
		cc.MySQLPassword = pw
	}
	return nil
}
