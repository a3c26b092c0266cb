package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/storyspec/packages/assertions"
	"github.com/abdul-hamid-achik/storyspec/packages/auth"
	"github.com/abdul-hamid-achik/storyspec/packages/capture"
	"github.com/abdul-hamid-achik/storyspec/packages/fixture"
	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/google/uuid"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

type Config struct {
	BaseURL       string
	Credentials   auth.Credentials
	AuthPath      string
	TokenField    string
	ClientOptions []http.ClientOption
	// Loggers receives suite diagnostics. Use ldlog.NewDisabledLoggers to
	// silence them.
	Loggers ldlog.Loggers
}

type Runner struct {
	config  *Config
	loggers ldlog.Loggers
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	return &Runner{
		config:  cfg,
		loggers: cfg.Loggers,
	}
}

// Suite holds the resources shared by the scenarios of one run.
type Suite struct {
	client *http.Client
	store  *fixture.Store
	cache  *auth.TokenCache
	token  auth.Token
}

// Store returns the fixture store of this suite.
func (s *Suite) Store() *fixture.Store {
	return s.store
}

// Token returns the bearer token acquired during setup, empty when
// authentication failed.
func (s *Suite) Token() auth.Token {
	return s.token
}

// SuiteSetup acquires a client, a fresh fixture store and token cache, and
// authenticates once. The returned Suite is non-nil even on error and must
// be passed to SuiteTeardown.
func (r *Runner) SuiteSetup(ctx context.Context) (*Suite, error) {
	s := &Suite{
		client: http.NewClient(r.config.BaseURL, r.config.ClientOptions...),
		store:  fixture.NewStore(),
		cache:  auth.NewTokenCache(),
	}

	authenticator := auth.NewAuthenticator(s.client,
		auth.WithPath(r.config.AuthPath),
		auth.WithTokenField(r.config.TokenField),
		auth.WithCache(s.cache),
		auth.WithLoggers(r.loggers),
	)

	token, err := authenticator.Authenticate(ctx, r.config.Credentials)
	if err != nil {
		return s, err
	}

	s.token = token
	s.store.Set(fixture.KeyToken, token.String())
	return s, nil
}

// SuiteTeardown releases everything SuiteSetup acquired.
func (r *Runner) SuiteTeardown(s *Suite) {
	if s == nil {
		return
	}
	s.cache.Clear()
	s.store.Reset()
	s.client.Close()
}

// Run executes scenarios strictly in order and returns one result per
// scenario. A failing scenario never stops the run; only an authentication
// failure does, and then every scenario is reported as a dependency failure
// without any call being made.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) *RunResult {
	start := time.Now()
	result := &RunResult{
		RunID:     uuid.NewString(),
		BaseURL:   r.config.BaseURL,
		StartedAt: start,
		Results:   make([]*ScenarioResult, len(scenarios)),
	}

	for i, sc := range scenarios {
		result.Results[i] = &ScenarioResult{
			Name:  sc.Name,
			Order: i + 1,
			State: StatePending,
		}
	}

	suite, err := r.SuiteSetup(ctx)
	defer r.SuiteTeardown(suite)

	if err != nil {
		result.AuthErr = err
		for _, res := range result.Results {
			res.State = StateFailed
			res.Failure = FailureDependency
			res.Message = fmt.Sprintf("suite setup failed: %v", err)
		}
	} else {
		latency := newLatencyRecorder()
		for i, sc := range scenarios {
			res := result.Results[i]
			r.runScenario(ctx, suite, sc, res)
			latency.record(res.Duration)
		}
		result.Latency = latency.summary()
	}

	for _, res := range result.Results {
		if res.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runScenario(ctx context.Context, suite *Suite, sc Scenario, res *ScenarioResult) {
	res.State = StateRunning
	r.loggers.Debugf("[%d] %s: running", res.Order, sc.Name)

	path, unset := suite.store.Expand(sc.Path)
	if len(unset) > 0 {
		res.Unset = unset
		r.loggers.Warnf("[%d] %s: fixture values unset: %s", res.Order, sc.Name, strings.Join(unset, ", "))
	}

	req := http.NewRequest(sc.Method, path).SetToken(suite.token.String())
	if sc.Body != nil {
		req.SetJSON(sc.Body)
	}
	res.Request = req

	out := suite.client.Send(ctx, req)
	res.Outcome = out
	res.Duration = out.Duration

	// Captures are stored even when a check below fails.
	if missing := capture.Apply(out, sc.Captures, suite.store); len(missing) > 0 {
		r.loggers.Debugf("[%d] %s: nothing captured for %s", res.Order, sc.Name, strings.Join(missing, ", "))
	}

	res.Assertions = assertions.NewEvaluator(out).Evaluate(sc.Checks)

	if out.IsSuccess() {
		for _, key := range sc.Invalidates {
			suite.store.Invalidate(key)
		}
	}

	judge(res)
	r.loggers.Debugf("[%d] %s: %s", res.Order, sc.Name, res.State)
}

func judge(res *ScenarioResult) {
	if res.Outcome.TransportFailed() {
		res.Failure = FailureTransport
		res.Message = fmt.Sprintf("transport failure: %v", res.Outcome.Err)
	} else {
		for _, a := range res.Assertions {
			if a.Passed {
				continue
			}
			res.Failure = FailureAssertion
			if a.Kind == assertions.KindParseFailure {
				res.Failure = FailureParse
			}
			res.Message = fmt.Sprintf("%s: %s", a.Check, a.Message)
			break
		}
	}

	if res.Failure == FailureNone {
		res.State = StatePassed
		res.Passed = true
		return
	}

	res.State = StateFailed
	if len(res.Unset) > 0 {
		res.Message += fmt.Sprintf(" (unset fixture values: %s)", strings.Join(res.Unset, ", "))
	}
}
