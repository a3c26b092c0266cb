// Package auth exchanges credentials for the bearer token used by every
// storyspec resource call.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/storyspec/packages/http"
	"github.com/tidwall/gjson"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldlog"
)

const (
	// DefaultPath is the authentication endpoint of the story API
	DefaultPath = "/api/User/Authentication"
	// DefaultTokenField is the response field carrying the access token
	DefaultTokenField = "accessToken"
)

// Credentials are supplied once at suite start.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is an opaque bearer credential.
type Token string

func (t Token) String() string {
	return string(t)
}

// Failure means the suite cannot authenticate. It is fatal to the run.
type Failure struct {
	StatusCode int
	Reason     string
	Err        error
}

func (f *Failure) Error() string {
	msg := "authentication failed"
	if f.StatusCode > 0 {
		msg = fmt.Sprintf("%s with status %d", msg, f.StatusCode)
	}
	if f.Reason != "" {
		msg += ": " + f.Reason
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Sender is the subset of the HTTP client the authenticator needs.
type Sender interface {
	Send(ctx context.Context, req *http.Request) *http.Outcome
	BaseURL() string
}

// Authenticator performs the credential exchange and caches the result.
type Authenticator struct {
	client     Sender
	path       string
	tokenField string
	cache      *TokenCache
	loggers    ldlog.Loggers
}

type Option func(*Authenticator)

// WithPath overrides the authentication endpoint path.
func WithPath(path string) Option {
	return func(a *Authenticator) {
		if path != "" {
			a.path = path
		}
	}
}

// WithTokenField overrides the gjson path of the token in the response.
func WithTokenField(field string) Option {
	return func(a *Authenticator) {
		if field != "" {
			a.tokenField = field
		}
	}
}

// WithCache shares a token cache, typically one owned by the current suite.
func WithCache(cache *TokenCache) Option {
	return func(a *Authenticator) {
		a.cache = cache
	}
}

func WithLoggers(loggers ldlog.Loggers) Option {
	return func(a *Authenticator) {
		a.loggers = loggers
	}
}

func NewAuthenticator(client Sender, opts ...Option) *Authenticator {
	a := &Authenticator{
		client:     client,
		path:       DefaultPath,
		tokenField: DefaultTokenField,
		cache:      NewTokenCache(),
		loggers:    ldlog.NewDisabledLoggers(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Cache returns the token cache backing this authenticator.
func (a *Authenticator) Cache() *TokenCache {
	return a.cache
}

// Authenticate returns a bearer token for creds. The exchange happens at most
// once per cache; later calls are served from the cache.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (Token, error) {
	key := a.cacheKey(creds)
	if token, ok := a.cache.Get(key); ok {
		return token, nil
	}

	token, err := a.fetchToken(ctx, creds)
	if err != nil {
		a.loggers.Errorf("%s", err)
		return "", err
	}

	a.cache.Set(key, token)
	a.loggers.Debugf("authenticated %q against %s", creds.Username, a.path)
	return token, nil
}

// cacheKey identifies the endpoint and the full credential pair. The password
// enters the key only as part of a digest.
func (a *Authenticator) cacheKey(creds Credentials) string {
	sum := sha256.Sum256([]byte(creds.Username + "\x00" + creds.Password))
	return fmt.Sprintf("%s%s:%s:%s", a.client.BaseURL(), a.path, creds.Username, hex.EncodeToString(sum[:8]))
}

func (a *Authenticator) fetchToken(ctx context.Context, creds Credentials) (Token, error) {
	req := http.NewRequest("POST", a.path).SetJSON(creds)
	out := a.client.Send(ctx, req)

	if out.TransportFailed() {
		return "", &Failure{Reason: "token request failed", Err: out.Err}
	}

	if !out.IsSuccess() {
		return "", &Failure{StatusCode: out.StatusCode, Reason: truncate(out.BodyString(), 200)}
	}

	if !gjson.ValidBytes(out.Body) {
		return "", &Failure{StatusCode: out.StatusCode, Reason: "response body is not JSON"}
	}

	field := gjson.GetBytes(out.Body, a.tokenField)
	if !field.Exists() {
		return "", &Failure{StatusCode: out.StatusCode, Reason: fmt.Sprintf("no %s in response", a.tokenField)}
	}
	if field.Type != gjson.String || field.String() == "" {
		return "", &Failure{StatusCode: out.StatusCode, Reason: fmt.Sprintf("%s is empty", a.tokenField)}
	}

	return Token(field.String()), nil
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
