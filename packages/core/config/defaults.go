package config

const (
	// DefaultBaseURL is the public story spoiler API
	DefaultBaseURL = "https://d3s5nxhwblsjbi.cloudfront.net"
	// DefaultAuthPath is the credential exchange endpoint
	DefaultAuthPath = "/api/User/Authentication"
	// DefaultTokenField is the access token field of the auth response
	DefaultTokenField = "accessToken"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         DefaultBaseURL,
		AuthPath:        DefaultAuthPath,
		TokenField:      DefaultTokenField,
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		Output:          "console",
		NoColor:         BoolPtr(false),
		Verbose:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == defaults.BaseURL &&
		c.AuthPath == defaults.AuthPath &&
		c.TokenField == defaults.TokenField &&
		c.Username == "" &&
		c.Password == "" &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == "" &&
		len(c.Headers) == 0 &&
		c.RateLimit == 0 &&
		c.Output == defaults.Output &&
		c.OutputFile == "" &&
		c.GetNoColor() == defaults.GetNoColor() &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.History == ""
}
