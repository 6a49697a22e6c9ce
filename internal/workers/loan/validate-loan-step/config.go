// internal/workers/loan/validate-loan-step/config.go
package validateloanstep

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
