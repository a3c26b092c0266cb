package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "storyspec",
	Short: "Ordered API checks for the story spoiler service.",
	Long: `storyspec authenticates once against the story spoiler API and runs a
fixed, ordered suite of scenarios that create, edit, list and delete a
story, plus the error paths for each. Values captured by one scenario
(such as the created story id) feed the scenarios after it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and exits the process with the resulting code.
func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(execute())
}

func execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	code := exitCodeFor(err)
	if code != ExitTestFailure {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return code
}

// exitError carries a process exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit code %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if code == ExitSuccess && err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mockCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
