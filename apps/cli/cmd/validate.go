package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateOpts runOptions

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the resolved configuration without running",
	Long: `Resolve the configuration exactly as run does (config file, STORYSPEC_*
variables, flags) and report whether it can drive a run.

Examples:
  storyspec validate
  storyspec validate --config staging.yaml --env-file .env.staging`,
	Args: cobra.NoArgs,
	RunE: validateCommand,
}

func init() {
	addConfigFlags(validateCmd, &validateOpts)
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(validateOpts)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	password := "(unset)"
	if cfg.Password != "" {
		password = "****"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid configuration\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  base URL:    %s\n", cfg.BaseURL)
	fmt.Fprintf(cmd.OutOrStdout(), "  auth path:   %s\n", cfg.AuthPath)
	fmt.Fprintf(cmd.OutOrStdout(), "  token field: %s\n", cfg.TokenField)
	fmt.Fprintf(cmd.OutOrStdout(), "  username:    %s\n", cfg.Username)
	fmt.Fprintf(cmd.OutOrStdout(), "  password:    %s\n", password)
	fmt.Fprintf(cmd.OutOrStdout(), "  timeout:     %s\n", cfg.TimeoutDuration())
	if cfg.RateLimit > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "  rate limit:  %g/s\n", cfg.RateLimit)
	}
	return nil
}
