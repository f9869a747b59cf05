package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarth-shah20/mwdocker/internal/cluster"
)

var initDB bool

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate the files of every wiki and start them",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Info("creating wikis", zap.Strings("versions", cfg.Versions))
		return withCluster(cmd, true, func(ctx context.Context, c *cluster.Cluster) int {
			return c.Start(ctx, cfg.ForceRebuild, initDB)
		})
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the wikis from previously generated files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCluster(cmd, false, func(ctx context.Context, c *cluster.Cluster) int {
			return c.Start(ctx, cfg.ForceRebuild, initDB)
		})
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the docker files of every wiki without starting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCluster(cmd, true, func(ctx context.Context, c *cluster.Cluster) int {
			for _, a := range c.Apps {
				cmd.Printf("%s: %s\n", a.Config.ContainerBaseName, a.Config.ArtifactDir())
			}
			return 0
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{createCmd, startCmd} {
		c.Flags().BoolVar(&initDB, "init-db", true, "initialize the database and run the MediaWiki setup")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(generateCmd)
}
