// internal/workers/loan/resume-loan-position/config.go
package resumeloanposition

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
