package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/app"
	"github.com/sarth-shah20/mwdocker/internal/cluster"
	"github.com/sarth-shah20/mwdocker/internal/config"
	"github.com/sarth-shah20/mwdocker/internal/docker"
	"github.com/sarth-shah20/mwdocker/internal/extension"
	"github.com/sarth-shah20/mwdocker/internal/generate"
	"github.com/sarth-shah20/mwdocker/internal/logging"
	"github.com/sarth-shah20/mwdocker/internal/webscrape"
)

var (
	cfgFile string
	logOpts logging.Options

	// set by PersistentPreRunE before any command runs
	cfg     *config.ClusterConfig
	catalog *extension.Catalog
	log     = zap.NewNop()

	// exitCode is the operational result of the command that ran.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           "mwdocker",
	Short:         "Create and manage MediaWiki docker clusters",
	Version:       generate.ToolVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		exitCode = 0
		loaded, err := config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		cfg = loaded

		opts := logOpts
		opts.Verbose = cfg.Verbose
		opts.Debug = opts.Debug || cfg.Debug
		opts.Console = cmd.ErrOrStderr()
		log = logging.New(opts)

		catalog, err = extension.DefaultCatalog()
		if err != nil {
			return err
		}
		if cfg.ExtensionFile != "" {
			extra, err := extension.LoadCatalog(cfg.ExtensionFile)
			if err != nil {
				return err
			}
			if overridden := catalog.Merge(extra); len(overridden) > 0 {
				log.Info("extension definitions overridden", zap.String("file", cfg.ExtensionFile), zap.Strings("extensions", overridden))
			}
		}
		log.Debug("loaded config", zap.Strings("versions", cfg.Versions), zap.Int("base_port", cfg.BasePort))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return exitCode
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "cluster config file (yaml or json)")
	pf.BoolVar(&logOpts.Debug, "debug", false, "enable debug logging")
	pf.BoolVarP(&logOpts.Quiet, "quiet", "q", false, "only log warnings and errors")
	pf.StringVar(&logOpts.File, "log-file", "", "also write JSON logs to this rotated file")

	// flag names are the configuration keys
	d := config.DefaultClusterConfig()
	pf.StringSlice("versions", d.Versions, "MediaWiki versions of the cluster")
	pf.Int("base_port", d.BasePort, "HTTP port of the first wiki")
	pf.Int("sql_port", d.BaseSQLPort, "SQL port of the first wiki")
	pf.String("prefix", d.Prefix, "container name prefix")
	pf.String("container_name", "", "container base name of a single wiki")
	pf.String("db_container_name", "", "existing database container to use instead of a new one")
	pf.String("network_name", d.NetworkName, "network shared with an external database container")
	pf.String("mariadb_version", d.MariaDBVersion, "MariaDB version")
	pf.String("smw_version", "", "Semantic MediaWiki version to install")
	pf.StringSlice("extensions", d.ExtensionNames, "extensions to install")
	pf.String("extension_file", "", "additional extension catalog (yaml or json)")
	pf.String("user", d.User, "initial sysop user")
	pf.String("password", d.Password, "initial sysop password")
	pf.Bool("random_password", false, "create a random sysop password")
	pf.Int("password_length", d.PasswordLength, "length of random passwords")
	pf.String("mysql_root_password", "", "MySQL root password, random if empty")
	pf.String("mysql_password", "", "MySQL wiki user password, random if empty")
	pf.String("host", d.Host, "host name of the wikis")
	pf.String("prot", d.Prot, "protocol of the wiki urls")
	pf.String("url", "", "url of the wiki, overrides prot, host and script path")
	pf.String("script_path", "", "MediaWiki script path")
	pf.String("wiki_id", "", "wiki id, {prefix}-{port} if empty")
	pf.String("logo", d.Logo, "logo of the wikis")
	pf.String("docker_path", config.DefaultDockerPath(), "directory of the generated files")
	pf.Bool("bind_mount", false, "bind mount database and sites to the host instead of volumes")
	pf.Int("uid", d.UID, "user id owning the wiki files")
	pf.Int("gid", d.GID, "group id owning the wiki files")
	pf.BoolP("force_rebuild", "f", false, "rebuild images, recreate containers and overwrite files")
	pf.Bool("lenient", d.Lenient, "only warn about unknown extensions")
	pf.Bool("verbose", d.Verbose, "log progress")
}

// newCluster returns a cluster talking to the local docker engine. The
// returned func releases its connections.
func newCluster(cmd *cobra.Command) (*cluster.Cluster, *docker.Manager, func(), error) {
	mgr, err := docker.NewManager(log)
	if err != nil {
		return nil, nil, nil, err
	}
	c := cluster.New(cfg, catalog, app.Deps{
		Engine:  mgr,
		Compose: docker.NewComposeCLI(log),
		Reader:  webscrape.NewTableReader(),
		Out:     cmd.OutOrStdout(),
		ErrOut:  cmd.ErrOrStderr(),
		Log:     log,
	})
	closeFn := func() {
		if err := c.Close(); err != nil {
			log.Warn("closing database connections failed", zap.Error(err))
		}
		_ = mgr.Close()
	}
	return c, mgr, closeFn, nil
}

// withCluster creates the apps of the cluster and runs fn on it. An
// unreachable daemon or a missing docker compose is an operational failure,
// not an error.
func withCluster(cmd *cobra.Command, withGenerate bool, fn func(ctx context.Context, c *cluster.Cluster) int) error {
	c, mgr, closeFn, err := newCluster(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	if err := mgr.Ping(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		exitCode = 1
		return nil
	}
	if _, err := c.CreateApps(ctx, withGenerate); err != nil {
		if errors.Is(err, docker.ErrComposeNotInstalled) {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			exitCode = 1
			return nil
		}
		return err
	}
	exitCode = fn(ctx, c)
	return nil
}
