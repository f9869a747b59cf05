// Package app controls the lifecycle of a single wiki instance: a
// MediaWiki container and its database container run by docker compose.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/config"
	"github.com/sarth-shah20/mwdocker/internal/dbcheck"
	"github.com/sarth-shah20/mwdocker/internal/docker"
	"github.com/sarth-shah20/mwdocker/internal/generate"
	"github.com/sarth-shah20/mwdocker/internal/verify"
)

// ErrNoWebContainer is returned when a command needs the MediaWiki
// container and none was found.
var ErrNoWebContainer = errors.New("no mediawiki container")

// DBAlias is the host name of an external database on the shared network.
const DBAlias = "db"

// CrashError is returned when the container stopped while running a command.
type CrashError struct {
	Container string
	Logs      string
	Err       error
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("container %s crashed: %v\n%s", e.Container, e.Err, e.Logs)
}

func (e *CrashError) Unwrap() error { return e.Err }

// DB is the database connection of an instance.
type DB interface {
	dbcheck.Conn
	Close() error
}

// Deps are the collaborators of an Application. Nil fields get defaults
// where one exists.
type Deps struct {
	Engine    docker.Engine
	Compose   docker.Compose
	Generator *generate.Generator
	Reader    verify.TableReader
	DB        DB
	Out       io.Writer
	ErrOut    io.Writer
	Log       *zap.Logger
}

// Application manages one wiki instance.
type Application struct {
	Config *config.Config
	// CheckOptions are used by Start to wait for the database.
	CheckOptions dbcheck.Options
	// WaitTimeout bounds the wait for containers to run after compose up.
	WaitTimeout time.Duration

	engine    docker.Engine
	compose   docker.Compose
	generator *generate.Generator
	reader    verify.TableReader
	db        DB
	out       io.Writer
	errOut    io.Writer
	log       *zap.Logger

	web   *docker.Handle
	dbCtr *docker.Handle
}

// New returns the application for an instance configuration.
func New(cfg *config.Config, deps Deps) *Application {
	a := &Application{
		Config:       cfg,
		CheckOptions: dbcheck.DefaultOptions(),
		WaitTimeout:  docker.DefaultWaitTimeout,
		engine:       deps.Engine,
		compose:      deps.Compose,
		generator:    deps.Generator,
		reader:       deps.Reader,
		db:           deps.DB,
		out:          deps.Out,
		errOut:       deps.ErrOut,
		log:          deps.Log,
	}
	if a.log == nil {
		a.log = zap.NewNop()
	}
	a.log = a.log.With(zap.String("wiki", cfg.ContainerBaseName))
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.errOut == nil {
		a.errOut = os.Stderr
	}
	if a.generator == nil {
		a.generator = generate.New(a.log)
	}
	if a.db == nil {
		a.db = &dbcheck.MySQLConnector{
			Host:     cfg.Host,
			Port:     cfg.SQLPort,
			User:     a.DBUser(),
			Password: cfg.MySQLPassword,
			Database: a.Database(),
		}
	}
	return a
}

// Database returns the name of the wiki database.
func (a *Application) Database() string { return a.Config.WikiID() + "_wiki" }

// DBUser returns the database user of the wiki.
func (a *Application) DBUser() string { return a.Config.WikiID() + "_user" }

// ContainerName returns {container_base_name}{separator}{kind}.
func (a *Application) ContainerName(kind, separator string) string {
	return a.Config.ContainerBaseName + separator + kind
}

// GetContainers looks up the MediaWiki and database containers. Compose
// names containers with "-" or "_" depending on version and platform, so
// both separators are tried and the first complete pair wins. Without a
// complete pair the containers of the first separator that found any are
// returned; names of different separators are never mixed. Missing
// containers are returned as nil.
func (a *Application) GetContainers(ctx context.Context) (web, db *docker.Handle, err error) {
	containers, err := a.engine.ContainerMap(ctx)
	if err != nil {
		return nil, nil, err
	}
	var pickWeb, pickDB string
	found := false
	for _, sep := range []string{"-", "_"} {
		webName := a.ContainerName("mw", sep)
		dbName := a.ContainerName("db", sep)
		if a.Config.HasExternalDB() {
			dbName = a.Config.DBContainerName
		}
		_, hasWeb := containers[webName]
		_, hasDB := containers[dbName]
		if !hasWeb {
			webName = ""
		}
		if !hasDB {
			dbName = ""
		}
		if hasWeb && hasDB {
			pickWeb, pickDB, found = webName, dbName, true
			break
		}
		if !found && (hasWeb || hasDB) {
			pickWeb, pickDB, found = webName, dbName, true
		}
	}
	if pickWeb != "" {
		web = docker.NewHandle(a.engine, pickWeb, docker.KindWebserver, a.log)
	}
	if pickDB != "" {
		db = docker.NewHandle(a.engine, pickDB, docker.KindDatabase, a.log)
	}
	a.web, a.dbCtr = web, db
	return web, db, nil
}

// Up starts the instance with docker compose and waits for both containers
// to run. With forceRebuild existing containers are removed first and the
// images are rebuilt.
func (a *Application) Up(ctx context.Context, forceRebuild bool) (web, db *docker.Handle, err error) {
	a.log.Info("starting docker application", zap.String("version", a.Config.Version))
	if forceRebuild {
		a.removeContainers(ctx)
	}
	if a.Config.HasExternalDB() {
		// the compose file joins this network as external
		if err := a.engine.EnsureNetwork(ctx, a.Config.NetworkName); err != nil {
			return nil, nil, err
		}
	}

	dir := a.Config.ArtifactDir()
	err = docker.InDir(dir, func() error {
		if forceRebuild {
			if err := a.compose.Build(ctx); err != nil {
				return err
			}
		}
		return a.compose.Up(ctx, true, forceRebuild)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("docker compose up failed in %s: %w", dir, err)
	}

	web, db, err = a.GetContainers(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, h := range []*docker.Handle{web, db} {
		if h == nil {
			continue
		}
		took, err := h.WaitForState(ctx, true, docker.DefaultWaitInterval, a.WaitTimeout)
		if err != nil {
			return web, db, err
		}
		a.log.Info("container started", zap.String("container", h.Name), zap.Duration("took", took))
	}
	return web, db, nil
}

// removeContainers stops and removes the instance's containers. A
// container may already be gone, so failures are only logged.
func (a *Application) removeContainers(ctx context.Context) {
	web, db, err := a.GetContainers(ctx)
	if err != nil {
		a.log.Warn("listing containers failed", zap.Error(err))
		return
	}
	for _, h := range []*docker.Handle{db, web} {
		if h == nil {
			continue
		}
		// an external database is shared and never removed
		if h.Kind == docker.KindDatabase && a.Config.HasExternalDB() {
			continue
		}
		a.log.Info("stopping and removing container", zap.String("container", h.Name))
		if err := a.engine.Stop(ctx, h.Name); err != nil {
			a.log.Warn("stop failed", zap.String("container", h.Name), zap.Error(err))
		}
		if err := a.engine.Remove(ctx, h.Name); err != nil {
			a.log.Warn("remove failed", zap.String("container", h.Name), zap.Error(err))
		}
	}
}

// Down runs docker compose down, removing volumes with forceRebuild.
// Failures are logged as warnings since nothing may be running.
func (a *Application) Down(ctx context.Context, forceRebuild bool) {
	a.log.Info("running docker compose down", zap.String("version", a.Config.Version))
	dir := a.Config.ArtifactDir()
	err := docker.InDir(dir, func() error {
		return a.compose.Down(ctx, forceRebuild)
	})
	if err != nil {
		a.log.Warn("docker compose down failed", zap.String("dir", dir), zap.Error(err))
	}
}

// Execute runs a command in the MediaWiki container, streaming its output.
// If the container stopped while running it, a *CrashError with the
// container logs is returned.
func (a *Application) Execute(ctx context.Context, command ...string) error {
	if a.web == nil {
		if _, _, err := a.GetContainers(ctx); err != nil {
			return err
		}
	}
	if a.web == nil {
		return fmt.Errorf("%w %s or %s for %s activated by docker compose - you might want to check the separator character used for container names for your platform %s",
			ErrNoWebContainer,
			a.ContainerName("mw", "-"), a.ContainerName("mw", "_"),
			a.Config.ContainerBaseName, runtime.GOOS)
	}
	err := a.web.Execute(ctx, a.out, a.errOut, command...)
	if err == nil {
		return nil
	}
	crashed, logs, crashErr := a.web.DetectCrash(ctx)
	if crashErr != nil {
		a.log.Debug("crash detection failed", zap.Error(crashErr))
		return err
	}
	if crashed {
		return &CrashError{Container: a.web.Name, Logs: logs, Err: err}
	}
	return err
}

// CheckDBConnection checks the wiki database. See dbcheck.Checker.Check.
func (a *Application) CheckDBConnection(ctx context.Context, opts dbcheck.Options) (*dbcheck.Status, error) {
	msg := fmt.Sprintf("SQL-Connection to %s on %s port %d with user %s",
		a.Database(), a.Config.Host, a.Config.SQLPort, a.DBUser())
	return dbcheck.New(a.db, msg, opts, a.log).Check(ctx)
}

// PrepareExternalDBAccess connects the external database container to the
// shared network under the alias "db".
func (a *Application) PrepareExternalDBAccess(ctx context.Context) error {
	network := a.Config.NetworkName
	if err := a.engine.EnsureNetwork(ctx, network); err != nil {
		return err
	}
	err := a.engine.ConnectNetwork(ctx, network, a.Config.DBContainerName, DBAlias)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		// already connected under another endpoint name is harmless
		a.log.Warn("network connect hint", zap.String("network", network), zap.Error(err))
	}
	return nil
}

// Start brings the instance up and, with withInitDB, initializes the
// database and runs the MediaWiki setup. The setup script is idempotent.
func (a *Application) Start(ctx context.Context, forceRebuild, withInitDB bool) error {
	if _, _, err := a.Up(ctx, forceRebuild); err != nil {
		return err
	}
	external := a.Config.HasExternalDB()
	if external {
		if err := a.PrepareExternalDBAccess(ctx); err != nil {
			return err
		}
	}
	if withInitDB {
		msg := "initializing MediaWiki SQL tables"
		if external {
			msg += " and permissions"
		}
		a.log.Info(msg)
		if external {
			if err := a.Execute(ctx, "bash", generate.ScriptDir+"/setup-mediawiki.sh", "--grant"); err != nil {
				return err
			}
		}
		status, err := a.CheckDBConnection(ctx, a.CheckOptions)
		if err != nil {
			return err
		}
		if !status.OK {
			return fmt.Errorf("%s not established after %d attempts: %w", status.Msg, status.Attempts, status.Err)
		}
		if err := a.SetupMediaWiki(ctx); err != nil {
			return err
		}
	}
	a.log.Info("MediaWiki is ready", zap.String("url", a.Config.FullURL()))
	return nil
}

// SetupMediaWiki runs the generated setup script in the container.
func (a *Application) SetupMediaWiki(ctx context.Context) error {
	return a.Execute(ctx, "bash", generate.ScriptDir+"/setup-mediawiki.sh",
		"--script-dir", generate.ScriptDir,
		"--web-dir", generate.WebDir,
		"--all")
}

// VersionURL returns the Special:Version url with the configured port
// replaced by hostPort.
func (a *Application) VersionURL(hostPort string) string {
	url := strings.ReplaceAll(a.Config.FullURL(), strconv.Itoa(a.Config.Port), hostPort)
	return url + "/index.php?title=Special:Version"
}

// Check prints one line per check and returns 0 if both containers run,
// port 80 is bound to the configured port and the wiki reports the
// expected versions. It returns 1 otherwise.
func (a *Application) Check(ctx context.Context) int {
	web, db, err := a.GetContainers(ctx)
	if err != nil {
		fmt.Fprintln(a.out, docker.Marker(err.Error(), false))
		return 1
	}
	exitCode := 0
	if web == nil {
		fmt.Fprintln(a.out, "mediawiki container missing")
		exitCode = 1
	}
	if db == nil {
		fmt.Fprintln(a.out, "database container missing")
		exitCode = 1
	}
	if exitCode != 0 {
		return exitCode
	}
	webOK := web.Check(ctx, a.out)
	dbOK := db.Check(ctx, a.out)
	if !webOK || !dbOK {
		return 1
	}

	hostPort, err := web.HostPort(ctx, 80)
	if err != nil {
		fmt.Fprintln(a.out, docker.Marker("port binding for port 80 missing", false))
		return 1
	}
	expected := strconv.Itoa(a.Config.Port)
	if !check(a.out, fmt.Sprintf("port binding %s expected port %s", hostPort, expected), hostPort == expected) {
		exitCode = 1
	}
	verifier := verify.New(a.reader, a.Config.Version, a.Config.MariaDBVersion, a.out, a.log)
	if !verifier.CheckWiki(ctx, a.VersionURL(hostPort)) {
		exitCode = 1
	}
	return exitCode
}

func check(out io.Writer, msg string, ok bool) bool {
	fmt.Fprintln(out, docker.Marker(msg, ok))
	return ok
}

// Close closes the database connection. It is safe to call more than once.
func (a *Application) Close() error {
	return a.db.Close()
}
