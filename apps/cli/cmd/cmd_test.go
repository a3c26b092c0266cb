package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/storyspec/packages/auth"
	"github.com/abdul-hamid-achik/storyspec/packages/core/config"
	"github.com/abdul-hamid-achik/storyspec/packages/history"
	"github.com/abdul-hamid-achik/storyspec/packages/mock"
	"github.com/abdul-hamid-achik/storyspec/packages/output"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

var storyspecVars = []string{
	"STORYSPEC_BASE_URL", "STORYSPEC_AUTH_PATH", "STORYSPEC_TOKEN_FIELD",
	"STORYSPEC_USERNAME", "STORYSPEC_PASSWORD", "STORYSPEC_PROXY",
	"STORYSPEC_OUTPUT", "STORYSPEC_OUTPUT_FILE", "STORYSPEC_HISTORY",
	"STORYSPEC_TIMEOUT", "STORYSPEC_RATE_LIMIT", "STORYSPEC_FOLLOW_REDIRECTS",
	"STORYSPEC_VALIDATE_SSL", "STORYSPEC_VERBOSE", "STORYSPEC_NO_COLOR",
	"STORY_API_USERNAME", "STORY_API_PASSWORD",
}

// clearEnv unsets every variable the CLI reads and restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range storyspecVars {
		old, ok := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(key, old)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

func startMock(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(mock.NewServer())
	t.Cleanup(ts.Close)
	return ts
}

func mockOptions(baseURL string) runOptions {
	return runOptions{
		baseURL:  baseURL,
		username: mock.DefaultUsername,
		password: mock.DefaultPassword,
		output:   "json",
	}
}

func decodeJSON(t *testing.T, data []byte) output.JSONOutput {
	t.Helper()
	var out output.JSONOutput
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestExitCodeFor(t *testing.T) {
	assert.Nil(t, withExitCode(ExitSuccess, nil))
	assert.Equal(t, ExitAuthFailure, exitCodeFor(withExitCode(ExitAuthFailure, errors.New("denied"))))
	assert.Equal(t, ExitTestFailure, exitCodeFor(fmt.Errorf("wrapped: %w", withExitCode(ExitTestFailure, nil))))
	assert.Equal(t, ExitUsageError, exitCodeFor(errors.New("unknown flag: --nope")))

	err := withExitCode(ExitConfigError, config.ErrInvalid)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, config.ErrInvalid.Error(), err.Error())
}

func TestExecuteRun_AllScenariosPass(t *testing.T) {
	clearEnv(t)
	ts := startMock(t)

	var stdout, stderr bytes.Buffer
	code, err := executeRun(context.Background(), mockOptions(ts.URL), &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)

	out := decodeJSON(t, stdout.Bytes())
	assert.Equal(t, 7, out.Summary.Total)
	assert.Equal(t, 7, out.Summary.Passed)
	require.Len(t, out.Runs, 1)
	assert.Equal(t, ts.URL, out.Runs[0].BaseURL)
	assert.Equal(t, "CreateStory_ShouldReturnCreated", out.Runs[0].Scenarios[0].Name)
}

func TestExecuteRun_BadCredentials(t *testing.T) {
	clearEnv(t)
	ts := startMock(t)

	opts := mockOptions(ts.URL)
	opts.password = "wrong"

	var stdout, stderr bytes.Buffer
	code, err := executeRun(context.Background(), opts, &stdout, &stderr)
	assert.Equal(t, ExitAuthFailure, code)

	var failure *auth.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 401, failure.StatusCode)

	out := decodeJSON(t, stdout.Bytes())
	assert.Equal(t, 7, out.Summary.Failed)
	assert.NotEmpty(t, out.Runs[0].AuthError)
	for _, sc := range out.Runs[0].Scenarios {
		assert.Equal(t, "dependency", sc.Failure)
	}
	assert.Contains(t, stderr.String(), "authentication failed")
}

func TestExecuteRun_ConfigErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		opts runOptions
	}{
		{"missing credentials", runOptions{baseURL: "http://localhost:3000"}},
		{"bad scheme", runOptions{baseURL: "ftp://localhost", username: "u", password: "p"}},
		{"bad timeout", runOptions{baseURL: "http://localhost:3000", username: "u", password: "p", timeout: "soon"}},
		{"unknown output", runOptions{baseURL: "http://localhost:3000", username: "u", password: "p", output: "html"}},
		{"missing config file", runOptions{configPath: filepath.Join(t.TempDir(), "absent.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code, err := executeRun(context.Background(), tt.opts, &stdout, &stderr)
			assert.Equal(t, ExitConfigError, code)
			assert.Error(t, err)
			assert.Empty(t, stdout.String())
		})
	}
}

func TestExecuteRun_ConfigErrorIsReported(t *testing.T) {
	clearEnv(t)
	missingCreds := runOptions{baseURL: "http://localhost:3000"}

	t.Run("json", func(t *testing.T) {
		opts := missingCreds
		opts.output = "json"

		var stdout, stderr bytes.Buffer
		code, err := executeRun(context.Background(), opts, &stdout, &stderr)
		assert.Equal(t, ExitConfigError, code)
		require.Error(t, err)

		out := decodeJSON(t, stdout.Bytes())
		assert.Equal(t, []string{err.Error()}, out.Errors)
		assert.Equal(t, 0, out.Summary.Total)
	})

	t.Run("junit", func(t *testing.T) {
		opts := missingCreds
		opts.output = "junit"

		var stdout, stderr bytes.Buffer
		code, err := executeRun(context.Background(), opts, &stdout, &stderr)
		assert.Equal(t, ExitConfigError, code)
		require.Error(t, err)

		report := stdout.String()
		assert.Contains(t, report, `errors="1"`)
		assert.Contains(t, report, `type="RunError"`)
		assert.Contains(t, report, "username and password are required")
	})

	t.Run("tap", func(t *testing.T) {
		opts := missingCreds
		opts.output = "tap"

		var stdout, stderr bytes.Buffer
		code, err := executeRun(context.Background(), opts, &stdout, &stderr)
		assert.Equal(t, ExitConfigError, code)
		require.Error(t, err)
		assert.Equal(t, "TAP version 13\nBail out! "+err.Error()+"\n", stdout.String())
	})

	t.Run("output file", func(t *testing.T) {
		opts := missingCreds
		opts.output = "junit"
		opts.outputFile = filepath.Join(t.TempDir(), "report.xml")

		var stdout, stderr bytes.Buffer
		code, _ := executeRun(context.Background(), opts, &stdout, &stderr)
		assert.Equal(t, ExitConfigError, code)
		assert.Empty(t, stdout.String())

		report, err := os.ReadFile(opts.outputFile)
		require.NoError(t, err)
		assert.Contains(t, string(report), `type="RunError"`)
	})
}

func TestExecuteRun_HistoryOpenErrorIsReported(t *testing.T) {
	clearEnv(t)
	ts := startMock(t)

	opts := mockOptions(ts.URL)
	opts.history = "postgres://localhost/runs"

	var stdout, stderr bytes.Buffer
	code, err := executeRun(context.Background(), opts, &stdout, &stderr)
	assert.Equal(t, ExitConfigError, code)
	require.Error(t, err)

	out := decodeJSON(t, stdout.Bytes())
	require.Len(t, out.Errors, 1)
	assert.Contains(t, out.Errors[0], "postgres")
}

func TestExecuteRun_OutputFileAndHistory(t *testing.T) {
	clearEnv(t)
	ts := startMock(t)
	dir := t.TempDir()

	opts := mockOptions(ts.URL)
	opts.output = "junit"
	opts.outputFile = filepath.Join(dir, "report.xml")
	opts.history = "sqlite://" + filepath.Join(dir, "runs.db")

	var stdout, stderr bytes.Buffer
	code, err := executeRun(context.Background(), opts, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
	assert.Empty(t, stdout.String())

	report, err := os.ReadFile(opts.outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(report), "<testsuites")
	assert.Contains(t, string(report), `tests="7"`)

	store, err := history.Open(opts.history)
	require.NoError(t, err)
	defer store.Close()

	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 7, runs[0].Passed)
	assert.Len(t, runs[0].Scenarios, 7)
}

func TestExecuteRun_ConfigFileAndEnvFile(t *testing.T) {
	clearEnv(t)
	ts := startMock(t)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "storyspec.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"baseUrl: ${STORY_API_URL}\nusername: ${STORY_API_USERNAME:-Yoo}\noutput: tap\n"), 0600))

	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"STORY_API_URL="+ts.URL+"\nSTORYSPEC_PASSWORD=123456\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv("STORY_API_URL") })

	var stdout, stderr bytes.Buffer
	code, err := executeRun(context.Background(), runOptions{configPath: configPath, envFile: envPath}, &stdout, &stderr)
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, code)
	assert.True(t, strings.HasPrefix(stdout.String(), "TAP version 13\n1..7\n"))
	assert.NotContains(t, stdout.String(), "not ok")
}

func TestResolveConfig_Precedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "storyspec.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"baseUrl: http://from-file:3000\nusername: file-user\npassword: file-pass\ntimeout: 5000\n"), 0600))
	t.Setenv("STORYSPEC_USERNAME", "env-user")

	cfg, err := resolveConfig(runOptions{
		configPath: configPath,
		password:   "flag-pass",
		timeout:    "2s",
		insecure:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://from-file:3000", cfg.BaseURL)
	assert.Equal(t, "env-user", cfg.Username)
	assert.Equal(t, "flag-pass", cfg.Password)
	assert.Equal(t, 2000, cfg.Timeout)
	assert.False(t, cfg.GetValidateSSL())
	assert.Equal(t, config.DefaultAuthPath, cfg.AuthPath)
}

func TestListCommand(t *testing.T) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)

	require.NoError(t, listCommand(c, nil))

	out := buf.String()
	assert.Contains(t, out, "1. CreateStory_ShouldReturnCreated\n   POST /api/Story/Create\n   captures: storyId\n")
	assert.Contains(t, out, "invalidates: storyId")
	assert.Contains(t, out, "7. DeleteNonExistingStory_ShouldReturnBadRequest")
}

func TestWriteStarterConfig(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	path, err := writeStarterConfig(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "storyspec.yaml"), path)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Yoo", cfg.Username)
	assert.Equal(t, "123456", cfg.Password)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.NoError(t, cfg.Validate())

	_, err = writeStarterConfig(dir, false)
	assert.Error(t, err)

	_, err = writeStarterConfig(dir, true)
	assert.NoError(t, err)
}

func TestWatchTargets(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "custom.yaml")

	targets := watchTargets(runOptions{configPath: configPath})
	require.Len(t, targets, 1)
	assert.True(t, isWatched(configPath, targets))
	assert.False(t, isWatched(filepath.Join(dir, "other.yaml"), targets))

	defaults := watchTargets(runOptions{})
	assert.Len(t, defaults, len(config.ConfigFilenames))
	assert.True(t, isWatched("storyspec.yaml", defaults))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, ldlog.Warn, logLevel(0, false))
	assert.Equal(t, ldlog.Info, logLevel(1, false))
	assert.Equal(t, ldlog.Debug, logLevel(3, false))
	assert.Equal(t, ldlog.Error, logLevel(2, true))
}
