package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/storyspec/packages/stories"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the scenarios in execution order",
	Long: `List every scenario of the story suite in the order run executes them.

Examples:
  storyspec list`,
	Args: cobra.NoArgs,
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	for i, sc := range stories.Scenarios() {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, sc.Name)
		fmt.Fprintf(cmd.OutOrStdout(), "   %s %s\n", sc.Method, sc.Path)
		if len(sc.Captures) > 0 {
			keys := make([]string, 0, len(sc.Captures))
			for _, c := range sc.Captures {
				keys = append(keys, c.Key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "   captures: %s\n", strings.Join(keys, ", "))
		}
		if len(sc.Invalidates) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "   invalidates: %s\n", strings.Join(sc.Invalidates, ", "))
		}
	}
	return nil
}
