// internal/workers/loan/resolve-loan-documents/config.go
package resolveloandocuments

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}
