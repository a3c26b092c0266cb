package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/storyspec/packages/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyDSNFlag   string
	historyLimitFlag int
	historyFullFlag  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from a history database",
	Long: `Show the most recent runs recorded by 'storyspec run --history'.

Examples:
  storyspec history --history sqlite://runs.db
  storyspec history --history sqlite://runs.db -n 3 --scenarios`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDSNFlag, "history", getEnvString("STORYSPEC_HISTORY", ""), "History database, e.g. sqlite://runs.db (env: STORYSPEC_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 10, "Number of runs to show")
	historyCmd.Flags().BoolVar(&historyFullFlag, "scenarios", false, "Show every scenario verdict")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyDSNFlag == "" {
		return withExitCode(ExitUsageError, fmt.Errorf("--history is required"))
	}

	store, err := history.Open(historyDSNFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, run := range runs {
		verdict := green("PASS")
		if run.Failed > 0 || run.AuthError != "" {
			verdict = red("FAIL")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %d passed, %d failed  %dms  %s\n",
			verdict,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.ID,
			run.Passed,
			run.Failed,
			run.Duration.Milliseconds(),
			run.BaseURL)
		if run.AuthError != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "      %s\n", run.AuthError)
		}

		if !historyFullFlag {
			continue
		}
		for _, sc := range run.Scenarios {
			symbol := green("✓")
			if !sc.Passed {
				symbol = red("✗")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "      %s %s", symbol, sc.Name)
			if sc.StatusCode != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " [%d]", sc.StatusCode)
			}
			if sc.Failure != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " %s: %s", sc.Failure, sc.Message)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}
	return nil
}
