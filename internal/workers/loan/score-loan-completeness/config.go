// internal/workers/loan/score-loan-completeness/config.go
package scoreloancompleteness

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
