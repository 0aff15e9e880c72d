// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the taskhive server.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP endpoint.
//   - SessionValidityDuration: how long a login token stays valid. Expiry is
//     checked lazily on access; there is no background sweep.
//   - MaxTasksPerRequest: upper bound applied over the maxtasks value that
//     workers send in getTasks.
type Config struct {
	EndpointAddrHTTP        string
	SessionValidityDuration time.Duration
	MaxTasksPerRequest      int
}

// LoadDefaults populates Config with sensible development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8081"
	c.SessionValidityDuration = 10 * time.Minute
	c.MaxTasksPerRequest = 64
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
