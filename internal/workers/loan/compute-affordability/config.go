// internal/workers/loan/compute-affordability/config.go
package computeaffordability

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
