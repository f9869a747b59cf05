package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/mwdocker/internal/cluster"
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the wikis, with --force_rebuild including their volumes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCluster(cmd, false, func(ctx context.Context, c *cluster.Cluster) int {
			return c.Down(ctx, cfg.ForceRebuild)
		})
	},
}

func init() {
	rootCmd.AddCommand(downCmd)
}
