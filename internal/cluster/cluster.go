// Package cluster manages a set of wiki instances, one per MediaWiki
// version, started and checked one after the other.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/app"
	"github.com/sarth-shah20/mwdocker/internal/config"
	"github.com/sarth-shah20/mwdocker/internal/docker"
	"github.com/sarth-shah20/mwdocker/internal/extension"
)

// ErrUnknownExtensions is returned for extension names missing from the
// catalog when the configuration is not lenient.
var ErrUnknownExtensions = errors.New("unknown extensions")

// Cluster is the set of wiki instances of a cluster configuration.
type Cluster struct {
	Config *config.ClusterConfig
	// Apps holds one application per version, in version order.
	Apps []*app.Application
	// NewDB returns the database connection of an instance. Nil selects
	// the MySQL connector of the application.
	NewDB func(c *config.Config) app.DB

	deps    app.Deps
	catalog *extension.Catalog
	// configured tells which MySQL passwords were given rather than generated.
	configured struct{ root, user bool }
	out     io.Writer
	log     *zap.Logger
}

// New returns a cluster. deps are shared by all applications except the
// database connection, which is opened per instance.
func New(cc *config.ClusterConfig, catalog *extension.Catalog, deps app.Deps) *Cluster {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	deps.DB = nil
	return &Cluster{
		Config:  cc,
		deps:    deps,
		catalog: catalog,
		out:     deps.Out,
		log:     deps.Log,
	}
}

func (c *Cluster) checkDocker(ctx context.Context) int {
	if err := docker.CheckEnvironment(ctx, c.deps.Compose, c.log); err != nil {
		fmt.Fprintln(c.errOut(), err)
		return 1
	}
	return 0
}

func (c *Cluster) errOut() io.Writer {
	if c.deps.ErrOut != nil {
		return c.deps.ErrOut
	}
	return os.Stderr
}

// CreateApps creates the application of every version, generating their
// files when withGenerate is set. Existing files are only replaced with
// force rebuild.
func (c *Cluster) CreateApps(ctx context.Context, withGenerate bool) (map[string]*app.Application, error) {
	if err := docker.CheckEnvironment(ctx, c.deps.Compose, c.log); err != nil {
		return nil, fmt.Errorf("creating apps needs docker: %w", err)
	}
	cc := c.Config
	if c.catalog != nil {
		if unknown := cc.ResolveExtensions(c.catalog); len(unknown) > 0 {
			if !cc.Lenient {
				return nil, fmt.Errorf("%w: %s", ErrUnknownExtensions, strings.Join(unknown, ", "))
			}
			c.log.Warn("ignoring unknown extensions", zap.Strings("extensions", unknown))
		}
	}
	if err := c.readExternalRootPassword(ctx); err != nil {
		return nil, err
	}
	c.configured.root = cc.MySQLRootPassword != ""
	c.configured.user = cc.MySQLPassword != ""
	if err := cc.EnsurePasswords(); err != nil {
		return nil, err
	}

	count := len(cc.Versions)
	apps := make(map[string]*app.Application, count)
	c.Apps = make([]*app.Application, 0, count)
	for i, version := range cc.Versions {
		a, err := c.App(i, count)
		if err != nil {
			return nil, err
		}
		if withGenerate {
			if err := a.GenerateAll(cc.ForceRebuild); err != nil {
				return nil, fmt.Errorf("generating %s: %w", version, err)
			}
		}
		apps[version] = a
		c.Apps = append(c.Apps, a)
	}
	return apps, nil
}

// readExternalRootPassword takes the root password of a designated
// database container from its environment unless one was configured.
func (c *Cluster) readExternalRootPassword(ctx context.Context) error {
	cc := c.Config
	if !cc.ExternalDB || cc.DBContainerName == "" || cc.MySQLRootPassword != "" {
		return nil
	}
	h := docker.NewHandle(c.deps.Engine, cc.DBContainerName, docker.KindDatabase, c.log)
	env, err := h.Env(ctx)
	if err != nil {
		return fmt.Errorf("reading environment of database container %s: %w", cc.DBContainerName, err)
	}
	pw, ok := env["MYSQL_ROOT_PASSWORD"]
	if !ok {
		return fmt.Errorf("database container %s has no MYSQL_ROOT_PASSWORD", cc.DBContainerName)
	}
	cc.MySQLRootPassword = pw
	return nil
}

// App returns the application of the i-th of count versions.
func (c *Cluster) App(i, count int) (*app.Application, error) {
	cfg, err := c.Config.Instance(i, count)
	if err != nil {
		return nil, err
	}
	c.keepSavedPasswords(cfg)
	deps := c.deps
	if c.NewDB != nil {
		deps.DB = c.NewDB(cfg)
	}
	return app.New(cfg, deps), nil
}

// keepSavedPasswords takes generated MySQL passwords from the configuration
// saved with the instance's files, so a later run talks to the database
// with the credentials it was created with.
func (c *Cluster) keepSavedPasswords(cfg *config.Config) {
	saved, _, err := config.LoadInstance(cfg.ConfigPath(), nil)
	if err != nil {
		return
	}
	if !c.configured.root && saved.MySQLRootPassword != "" {
		cfg.MySQLRootPassword = saved.MySQLRootPassword
	}
	if !c.configured.user && saved.MySQLPassword != "" {
		cfg.MySQLPassword = saved.MySQLPassword
	}
	c.log.Debug("using saved database passwords", zap.String("config", cfg.ConfigPath()))
}

// Start starts every application. It returns 1 if docker is not usable
// or an application failed to start.
func (c *Cluster) Start(ctx context.Context, forceRebuild, withInitDB bool) int {
	if code := c.checkDocker(ctx); code > 0 {
		return code
	}
	exitCode := 0
	for _, a := range c.Apps {
		if err := a.Start(ctx, forceRebuild, withInitDB); err != nil {
			fmt.Fprintf(c.errOut(), "%s: %v\n", a.Config.ContainerBaseName, err)
			exitCode = 1
		}
	}
	return exitCode
}

// Down runs docker compose down for every application.
func (c *Cluster) Down(ctx context.Context, forceRebuild bool) int {
	if code := c.checkDocker(ctx); code > 0 {
		return code
	}
	for _, a := range c.Apps {
		a.Down(ctx, forceRebuild)
	}
	return 0
}

// ListWikis prints one line per wiki telling whether both its containers
// exist.
func (c *Cluster) ListWikis(ctx context.Context) int {
	if code := c.checkDocker(ctx); code > 0 {
		return code
	}
	exitCode := 0
	for i, a := range c.Apps {
		web, db, err := a.GetContainers(ctx)
		if err != nil {
			c.log.Warn("listing containers failed", zap.Error(err))
		}
		ok := err == nil && web != nil && db != nil
		if !ok {
			exitCode = 1
		}
		msg := fmt.Sprintf("%d:%s %s", i+1, a.Config.ContainerBaseName, a.Config.FullVersion())
		fmt.Fprintln(c.out, docker.Marker(msg, ok))
	}
	return exitCode
}

// Check checks every application and returns the worst exit code.
func (c *Cluster) Check(ctx context.Context) int {
	if code := c.checkDocker(ctx); code > 0 {
		return code
	}
	exitCode := 0
	for i, a := range c.Apps {
		fmt.Fprintf(c.out, "%d:checking %s ...\n", i+1, a.Config.Version)
		if code := a.Check(ctx); code > exitCode {
			exitCode = code
		}
	}
	return exitCode
}

// Close closes the database connections of all applications.
func (c *Cluster) Close() error {
	var errs []error
	for _, a := range c.Apps {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
