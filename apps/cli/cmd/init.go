package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/storyspec/packages/core/config"
	"github.com/abdul-hamid-achik/storyspec/packages/mock"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter storyspec.yaml",
	Long: `Create storyspec.yaml in the current directory.

Credentials are written as ${STORY_API_USERNAME:-Yoo} style references so
secrets can stay in the environment or a .env file.

Examples:
  storyspec init
  storyspec init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	path, err := writeStarterConfig(cwd, forceInit)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'storyspec mock' in one terminal and\n")
	fmt.Fprintf(cmd.OutOrStdout(), "'storyspec run --base-url http://localhost:%d' in another to try it.\n", mock.DefaultPort)
	return nil
}

// writeStarterConfig writes storyspec.yaml into dir and returns its path.
func writeStarterConfig(dir string, force bool) (string, error) {
	configFile := filepath.Join(dir, "storyspec.yaml")

	if !force {
		if _, err := os.Stat(configFile); err == nil {
			return "", fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	cfg := config.DefaultConfig()
	cfg.Username = "${STORY_API_USERNAME:-Yoo}"
	cfg.Password = "${STORY_API_PASSWORD:-123456}"
	cfg.Headers = map[string]string{
		"User-Agent": "storyspec/" + version,
	}

	if err := cfg.SaveConfig(configFile); err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	return configFile, nil
}
