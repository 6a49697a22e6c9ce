// internal/workers/loan/record-guarantor-decision/config.go
package recordguarantordecision

import "time"

type Config struct {
	Timeout time.Duration
	// LockTTL bounds how long one worker may hold a loan's decision lock.
	LockTTL    time.Duration
	LockPrefix string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    15 * time.Second,
		LockTTL:    10 * time.Second,
		LockPrefix: "guarantor-decision:",
	}
}
