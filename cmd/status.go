package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/mwdocker/internal/docker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the containers of every wiki",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := docker.NewManager(log)
		if err != nil {
			return err
		}
		defer mgr.Close()
		ctx := cmd.Context()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "WIKI\tNAME\tIMAGE\tSTATUS\tPORTS")
		found := 0
		for i := range cfg.Versions {
			instance, err := cfg.Instance(i, len(cfg.Versions))
			if err != nil {
				return err
			}
			// compose names the project after the artifact directory
			containers, err := mgr.ListContainers(ctx, strings.ToLower(instance.ContainerBaseName))
			if err != nil {
				return err
			}
			for _, c := range containers {
				// c.Names[0] is "/mw-139-mw", strip the slash
				name := strings.TrimPrefix(c.Names[0], "/")

				ports := ""
				for _, p := range c.Ports {
					if p.PublicPort != 0 {
						ports += fmt.Sprintf("%d->%d/tcp ", p.PublicPort, p.PrivatePort)
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", instance.ContainerBaseName, name, c.Image, c.Status, ports)
				found++
			}
		}
		if found == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No wiki containers found.")
			exitCode = 1
			return nil
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
