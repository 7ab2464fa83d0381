package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:               30000, // 30 seconds
		Retries:               0,
		RetryDelay:            1000, // 1 second
		FollowRedirects:       BoolPtr(true),
		MaxRedirects:          10,
		ValidateSSL:           BoolPtr(true),
		Concurrency:           5,
		ResponseTimeThreshold: 1000,
		Reporters:             []string{"console"},
	}
}
