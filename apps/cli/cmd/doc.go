// Package cmd implements the storyspec CLI commands using Cobra.
//
// Available commands:
//   - run: Authenticate and execute the story suite
//   - validate: Check the resolved configuration without running
//   - list: Print the scenarios in execution order
//   - history: Show recent runs recorded in a history database
//   - mock: Serve an in-memory story API for local runs
//   - init: Write a starter storyspec.yaml
//   - version: Show storyspec version information
//
// Flags default from STORYSPEC_* environment variables, and run supports
// watch mode to re-run the suite when the config file changes.
package cmd
