package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, c.BaseURL)
	assert.Equal(t, DefaultAuthPath, c.AuthPath)
	assert.Equal(t, DefaultTokenField, c.TokenField)
	assert.Equal(t, 30*time.Second, c.TimeoutDuration())
	assert.True(t, c.GetFollowRedirects())
	assert.True(t, c.GetValidateSSL())
	assert.Equal(t, "console", c.Output)
	assert.True(t, c.IsDefault())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "storyspec.yaml", `
baseUrl: http://localhost:3000
username: Yoo
password: "123456"
timeout: 5000
validateSSL: false
headers:
  X-Trace: on
rateLimit: 2.5
output: junit
`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", c.BaseURL)
	assert.Equal(t, "Yoo", c.Username)
	assert.Equal(t, "123456", c.Password)
	assert.Equal(t, 5*time.Second, c.TimeoutDuration())
	assert.False(t, c.GetValidateSSL())
	assert.True(t, c.GetFollowRedirects(), "unset booleans keep their defaults")
	assert.Equal(t, "on", c.Headers["X-Trace"])
	assert.Equal(t, 2.5, c.RateLimit)
	assert.Equal(t, "junit", c.Output)
	assert.Equal(t, DefaultAuthPath, c.AuthPath)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "storyspec.json", `{"baseUrl": "https://api.example.com", "tokenField": "data.token"}`)

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", c.BaseURL)
	assert.Equal(t, "data.token", c.TokenField)
}

func TestLoadConfig_ExpandsVariables(t *testing.T) {
	t.Setenv("STORYSPEC_TEST_PASSWORD", "s3cret")
	dir := t.TempDir()
	path := writeFile(t, dir, "storyspec.yaml", "username: ${STORYSPEC_TEST_USER:-Yoo}\npassword: ${STORYSPEC_TEST_PASSWORD}\n")

	c, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Yoo", c.Username)
	assert.Equal(t, "s3cret", c.Password)
}

func TestLoadConfig_UnsetVariable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "storyspec.yaml", "password: ${STORYSPEC_TEST_DEFINITELY_UNSET}\n")

	_, err := LoadConfig(path)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "STORYSPEC_TEST_DEFINITELY_UNSET")
}

func TestLoadConfig_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "storyspec.json", `{"baseUrl": `)

	_, err := LoadConfig(path)

	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no file returns defaults", func(t *testing.T) {
		c, err := FindAndLoadConfig(t.TempDir())
		require.NoError(t, err)
		assert.True(t, c.IsDefault())
	})

	t.Run("yaml preferred over json", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "storyspec.json", `{"username": "json"}`)
		writeFile(t, dir, ".storyspec.yaml", "username: yaml\n")

		c, err := FindAndLoadConfig(dir)
		require.NoError(t, err)
		assert.Equal(t, "yaml", c.Username)
		assert.Equal(t, filepath.Join(dir, ".storyspec.yaml"), FindConfigFile(dir))
	})
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = map[string]string{"A": "1"}

	merged := base.Merge(&Config{
		Username:    "Yoo",
		ValidateSSL: BoolPtr(false),
		Headers:     map[string]string{"B": "2"},
	})

	assert.Equal(t, "Yoo", merged.Username)
	assert.Equal(t, DefaultBaseURL, merged.BaseURL)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged.Headers)
	assert.Equal(t, map[string]string{"A": "1"}, base.Headers, "merge does not mutate the receiver")
	assert.Same(t, base, base.Merge(nil))
}

func TestApplyEnv(t *testing.T) {
	c, err := DefaultConfig().ApplyEnv(map[string]string{
		"BASE_URL":     "http://localhost:3000",
		"USERNAME":     "Yoo",
		"PASSWORD":     "123456",
		"TIMEOUT":      "1500",
		"RATE_LIMIT":   "3",
		"VALIDATE_SSL": "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3000", c.BaseURL)
	assert.Equal(t, "Yoo", c.Username)
	assert.Equal(t, 1500, c.Timeout)
	assert.Equal(t, 3.0, c.RateLimit)
	assert.False(t, c.GetValidateSSL())
	assert.NoError(t, c.Validate())
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	for _, vars := range []map[string]string{
		{"TIMEOUT": "soon"},
		{"RATE_LIMIT": "fast"},
		{"VERBOSE": "maybe"},
	} {
		_, err := DefaultConfig().ApplyEnv(vars)
		assert.True(t, errors.Is(err, ErrInvalid), "%v", vars)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := DefaultConfig()
		c.Username = "Yoo"
		c.Password = "123456"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "base URL is required"},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://example.com" }, "scheme"},
		{"no host", func(c *Config) { c.BaseURL = "http://" }, "no host"},
		{"missing password", func(c *Config) { c.Password = "" }, "username and password"},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, "timeout"},
		{"unknown output", func(c *Config) { c.Output = "xml" }, "unknown output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveConfig_RoundTripsYAML(t *testing.T) {
	c := DefaultConfig()
	c.Username = "Yoo"
	path := filepath.Join(t.TempDir(), "storyspec.yaml")

	require.NoError(t, c.SaveConfig(path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Yoo", loaded.Username)
	assert.Equal(t, c.BaseURL, loaded.BaseURL)
}
