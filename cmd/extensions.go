package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var extensionsCmd = &cobra.Command{
	Use:   "extensions",
	Short: "List the known extensions",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := make(map[string]bool, len(cfg.ExtensionNames))
		for _, name := range cfg.ExtensionNames {
			selected[name] = true
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSELECTED\tURL")
		for _, ext := range catalog.Extensions {
			mark := ""
			if selected[ext.Name] {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ext.Name, mark, ext.URL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(extensionsCmd)
}
