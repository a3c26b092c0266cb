package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/auth"
	"github.com/abdul-hamid-achik/storyspec/packages/core/config"
	"github.com/abdul-hamid-achik/storyspec/packages/core/env"
	"github.com/abdul-hamid-achik/storyspec/packages/core/runner"
	"github.com/abdul-hamid-achik/storyspec/packages/history"
	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/abdul-hamid-achik/storyspec/packages/output"
	"github.com/abdul-hamid-achik/storyspec/packages/stories"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the story suite against the API",
	Long: `Authenticate once and run every story scenario in order.

Configuration is read from storyspec.yaml (or --config), then STORYSPEC_*
environment variables, then flags.

Examples:
  storyspec run
  storyspec run --base-url http://localhost:3000 --username Yoo --password 123456
  storyspec run --env-file .env --output junit --output-file report.xml
  storyspec run --history sqlite://runs.db
  storyspec run --watch`,
	Args: cobra.NoArgs,
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond

	envPrefix = "STORYSPEC_"
)

// runOptions holds the flag values of run and validate.
type runOptions struct {
	configPath string
	envFile    string
	baseURL    string
	username   string
	password   string
	output     string
	outputFile string
	history    string
	timeout    string
	rateLimit  float64
	proxy      string
	insecure   bool
	noColor    bool
	verbose    int // 0=warnings, 1=-v info, 2=-vv debug
	quiet      bool
	watch      bool
}

var runOpts runOptions

func init() {
	addConfigFlags(runCmd, &runOpts)

	// Output flags
	runCmd.Flags().CountVarP(&runOpts.verbose, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().BoolVarP(&runOpts.quiet, "quiet", "q", getEnvBool("STORYSPEC_QUIET", false), "Only log errors (env: STORYSPEC_QUIET)")
	runCmd.Flags().BoolVar(&runOpts.noColor, "no-color", getEnvBool("STORYSPEC_NO_COLOR", false), "Disable colored output (env: STORYSPEC_NO_COLOR)")
	runCmd.Flags().StringVarP(&runOpts.output, "output", "o", getEnvString("STORYSPEC_OUTPUT", ""), "Output format: console, json, junit, tap (env: STORYSPEC_OUTPUT)")
	runCmd.Flags().StringVar(&runOpts.outputFile, "output-file", getEnvString("STORYSPEC_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: STORYSPEC_OUTPUT_FILE)")
	runCmd.Flags().StringVar(&runOpts.history, "history", getEnvString("STORYSPEC_HISTORY", ""), "Record runs in a SQLite database, e.g. sqlite://runs.db (env: STORYSPEC_HISTORY)")

	// Execution flags
	runCmd.Flags().BoolVarP(&runOpts.watch, "watch", "w", false, "Watch the config file and re-run the suite on change")
}

// addConfigFlags registers the flags that shape the resolved configuration.
func addConfigFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", getEnvString("STORYSPEC_CONFIG", ""), "Path to config file (env: STORYSPEC_CONFIG)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", getEnvString("STORYSPEC_ENV_FILE", ""), "Path to .env file exported before loading config (env: STORYSPEC_ENV_FILE)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "API base URL (env: STORYSPEC_BASE_URL)")
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "Account username (env: STORYSPEC_USERNAME)")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "Account password (env: STORYSPEC_PASSWORD)")
	cmd.Flags().StringVar(&opts.timeout, "timeout", "", "Per-call timeout, e.g. 30s, 1m (env: STORYSPEC_TIMEOUT in ms)")
	cmd.Flags().Float64Var(&opts.rateLimit, "rate-limit", 0, "Maximum calls per second, 0 for unlimited (env: STORYSPEC_RATE_LIMIT)")
	cmd.Flags().StringVar(&opts.proxy, "proxy", "", "Proxy URL for HTTP requests (env: STORYSPEC_PROXY)")
	cmd.Flags().BoolVarP(&opts.insecure, "insecure", "k", getEnvBool("STORYSPEC_INSECURE", false), "Disable SSL certificate validation (env: STORYSPEC_INSECURE)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if runOpts.watch {
		return watchRun(ctx, cmd, runOpts)
	}
	return withExitCode(executeRun(ctx, runOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()))
}

// overrides turns explicitly given flags into a partial config.
func (o runOptions) overrides() (*config.Config, error) {
	c := &config.Config{
		BaseURL:    o.baseURL,
		Username:   o.username,
		Password:   o.password,
		Proxy:      o.proxy,
		RateLimit:  o.rateLimit,
		Output:     strings.ToLower(o.output),
		OutputFile: o.outputFile,
		History:    o.history,
	}
	if o.timeout != "" {
		d, err := time.ParseDuration(o.timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid timeout value %q: %v (use format like 30s, 1m, 500ms)", config.ErrInvalid, o.timeout, err)
		}
		c.Timeout = int(d.Milliseconds())
	}
	if o.insecure {
		c.ValidateSSL = config.BoolPtr(false)
	}
	if o.noColor || o.quiet {
		c.NoColor = config.BoolPtr(true)
	}
	if o.verbose > 0 {
		c.Verbose = config.BoolPtr(true)
	}
	return c, nil
}

// resolveConfig layers defaults, the config file, STORYSPEC_* variables and
// flags, then validates the result.
func resolveConfig(opts runOptions) (*config.Config, error) {
	if opts.envFile != "" {
		if _, err := env.LoadAndExportDotEnv(opts.envFile); err != nil {
			return nil, fmt.Errorf("%w: env file: %v", config.ErrInvalid, err)
		}
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	cfg, err = cfg.ApplyEnv(env.LoadSystemEnv(envPrefix))
	if err != nil {
		return nil, err
	}

	overrides, err := opts.overrides()
	if err != nil {
		return nil, err
	}
	cfg = cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func logLevel(verbosity int, quiet bool) ldlog.LogLevel {
	switch {
	case quiet:
		return ldlog.Error
	case verbosity >= 2:
		return ldlog.Debug
	case verbosity == 1:
		return ldlog.Info
	default:
		return ldlog.Warn
	}
}

func newLoggers(w io.Writer, level ldlog.LogLevel) ldlog.Loggers {
	var loggers ldlog.Loggers
	loggers.SetBaseLogger(log.New(w, "storyspec: ", log.LstdFlags))
	loggers.SetMinLevel(level)
	return loggers
}

func runnerConfig(cfg *config.Config, loggers ldlog.Loggers) *runner.Config {
	clientOpts := []http.ClientOption{
		http.WithTimeout(cfg.TimeoutDuration()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithRateLimit(cfg.RateLimit),
	}
	if cfg.MaxRedirects > 0 {
		clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
	}

	return &runner.Config{
		BaseURL: cfg.BaseURL,
		Credentials: auth.Credentials{
			Username: cfg.Username,
			Password: cfg.Password,
		},
		AuthPath:      cfg.AuthPath,
		TokenField:    cfg.TokenField,
		ClientOptions: clientOpts,
		Loggers:       loggers,
	}
}

// executeRun performs one complete suite run and returns the exit code.
func executeRun(ctx context.Context, opts runOptions, stdout, stderr io.Writer) (int, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		reportSetupError(opts.output, opts.outputFile, stdout, err)
		return ExitConfigError, err
	}

	out := stdout
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			err = fmt.Errorf("cannot create output file: %w", err)
			reportSetupError(cfg.Output, "", stdout, err)
			return ExitConfigError, err
		}
		defer f.Close()
		out = f
	}

	formatter, err := output.New(cfg.Output, output.Options{
		Writer:  out,
		Verbose: cfg.GetVerbose(),
		NoColor: cfg.GetNoColor(),
	})
	if err != nil {
		return ExitConfigError, err
	}

	var store *history.Store
	if cfg.History != "" {
		store, err = history.Open(cfg.History)
		if err != nil {
			if !isConsole(cfg.Output) {
				formatter.FormatError(err)
				_ = flush(formatter, 0)
			}
			return ExitConfigError, err
		}
		defer store.Close()
	}

	loggers := newLoggers(stderr, logLevel(opts.verbose, opts.quiet))

	formatter.FormatHeader(version)
	start := time.Now()
	result := runner.NewRunner(runnerConfig(cfg, loggers)).Run(ctx, stories.Scenarios())
	formatter.FormatResult(result)

	if store != nil {
		if err := store.Record(ctx, result); err != nil {
			formatter.FormatError(fmt.Errorf("failed to record run %s: %w", result.RunID, err))
		}
	}

	if err := flush(formatter, time.Since(start)); err != nil {
		return ExitTestFailure, fmt.Errorf("error writing output: %w", err)
	}

	switch {
	case result.AuthErr != nil:
		return ExitAuthFailure, result.AuthErr
	case !result.OK():
		return ExitTestFailure, fmt.Errorf("%d of %d scenarios failed", result.Failed, len(result.Results))
	}
	return ExitSuccess, nil
}

// flush writes the document of formatters that accumulate results.
func flush(formatter output.Formatter, d time.Duration) error {
	if flushable, ok := formatter.(output.Flushable); ok {
		return flushable.Flush(d)
	}
	return nil
}

func isConsole(format string) bool {
	format = strings.ToLower(format)
	return format == "" || format == "console"
}

// reportSetupError writes err as a report in the requested machine-readable
// format so report consumers see why no scenario ran. Console errors are
// printed by the root command.
func reportSetupError(format, path string, stdout io.Writer, err error) {
	if isConsole(format) {
		return
	}

	out := stdout
	if path != "" {
		if f, ferr := os.Create(path); ferr == nil {
			defer f.Close()
			out = f
		}
	}

	formatter, ferr := output.New(strings.ToLower(format), output.Options{Writer: out})
	if ferr != nil {
		return
	}
	formatter.FormatError(err)
	_ = flush(formatter, 0)
}

// watchTargets returns the absolute config paths whose change re-runs the suite.
func watchTargets(opts runOptions) []string {
	var paths []string
	if opts.configPath != "" {
		paths = append(paths, opts.configPath)
	} else {
		paths = append(paths, config.ConfigFilenames...)
	}

	targets := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			targets = append(targets, abs)
		}
	}
	return targets
}

func isWatched(name string, targets []string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	for _, t := range targets {
		if abs == t {
			return true
		}
	}
	return false
}

func watchRun(ctx context.Context, cmd *cobra.Command, opts runOptions) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	// Each run gets a fresh fixture store and token.
	var mu sync.Mutex
	runOnce := func() {
		mu.Lock()
		defer mu.Unlock()
		if _, err := executeRun(ctx, opts, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
		}
	}
	runOnce()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := watchTargets(opts)
	watchedDirs := make(map[string]bool)
	for _, t := range targets {
		dir := filepath.Dir(t)
		if watchedDirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watchedDirs[dir] = true
	}

	fmt.Fprintf(stdout, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isWatched(event.Name, targets) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(stdout, "\n\nFile changed: %s\nRe-running suite...\n\n", name)
				runOnce()
				fmt.Fprintf(stdout, "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(stderr, "watcher error: %v\n", err)
		}
	}
}
