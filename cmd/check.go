package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/mwdocker/internal/cluster"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that every wiki runs with the expected versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCluster(cmd, false, func(ctx context.Context, c *cluster.Cluster) int {
			return c.Check(ctx)
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the wikis and whether their containers exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCluster(cmd, false, func(ctx context.Context, c *cluster.Cluster) int {
			return c.ListWikis(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listCmd)
}
