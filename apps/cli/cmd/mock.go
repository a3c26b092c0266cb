package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/mock"
	"github.com/spf13/cobra"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

var (
	mockPortFlag     int
	mockDelayFlag    string
	mockUsernameFlag string
	mockPasswordFlag string
	mockVerboseFlag  bool
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Start an in-memory story spoiler API",
	Long: `Start an HTTP server that behaves like the story spoiler API.

The mock server:
- Issues bearer tokens for the configured account
- Rejects story calls without a valid bearer token
- Creates, edits, lists and deletes stories in memory
- Returns the same error bodies as the real API for missing stories
- Can add artificial delays to simulate network latency

Examples:
  storyspec mock
  storyspec mock --port 8080 --delay 100ms
  storyspec mock --username alice --password secret --verbose`,
	Args: cobra.NoArgs,
	RunE: mockCommand,
}

func init() {
	mockCmd.Flags().IntVarP(&mockPortFlag, "port", "P", getEnvInt("STORYSPEC_MOCK_PORT", mock.DefaultPort), "Port to run the mock server on (env: STORYSPEC_MOCK_PORT)")
	mockCmd.Flags().StringVarP(&mockDelayFlag, "delay", "d", "0", "Delay to add to all responses (e.g., 100ms, 1s)")
	mockCmd.Flags().StringVarP(&mockUsernameFlag, "username", "u", mock.DefaultUsername, "Username the server accepts")
	mockCmd.Flags().StringVarP(&mockPasswordFlag, "password", "p", mock.DefaultPassword, "Password the server accepts")
	mockCmd.Flags().BoolVarP(&mockVerboseFlag, "verbose", "v", false, "Log every request")
}

func mockCommand(cmd *cobra.Command, args []string) error {
	// Parse delay
	var delay time.Duration
	if mockDelayFlag != "0" {
		var err error
		delay, err = time.ParseDuration(mockDelayFlag)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("invalid delay value %q: %w", mockDelayFlag, err))
		}
	}

	level := ldlog.Info
	if mockVerboseFlag {
		level = ldlog.Debug
	}

	server := mock.NewServer(
		mock.WithPort(mockPortFlag),
		mock.WithDelay(delay),
		mock.WithUser(mockUsernameFlag, mockPasswordFlag),
		mock.WithLoggers(newLoggers(cmd.ErrOrStderr(), level)),
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down mock server...")
		cancel()
	}()

	if err := server.StartWithContext(ctx); err != nil {
		return withExitCode(ExitConfigError, err)
	}
	return nil
}
