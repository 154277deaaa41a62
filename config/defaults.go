package config

import "time"

// DefaultConfig returns a Config with sensible default values. Endpoint,
// environment, logger and service identity have no defaults and must be
// provided.
func DefaultConfig() Config {
	return Config{
		Level:         "INFO",
		IncludeCaller: false,
		Delivery: DeliveryConfig{
			Mode:        "async",
			Timeout:     5 * time.Second,
			MaxInFlight: 32,
			RateBurst:   100,
		},
	}
}
