// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"staff-loans/internal/common/config"
	"staff-loans/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// Connect opens a Zeebe client and waits until the gateway answers a
// topology request, backing off between attempts.
func Connect(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (zbc.Client, error) {
	var lastErr error
	delay := retry.BaseDelay

	for attempt := 1; attempt <= retry.MaxRetries; attempt++ {
		client, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err == nil {
			if err = HealthCheck(ctx, client, config.GetDuration(cfg.RequestTimeout)); err == nil {
				return client, nil
			}
			_ = client.Close()
		}
		lastErr = err

		if !IsRetryable(err) || attempt == retry.MaxRetries {
			break
		}

		log.Warn("Zeebe connection failed, retrying", map[string]interface{}{
			"attempt":     attempt,
			"maxRetries":  retry.MaxRetries,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("zeebe connection cancelled: %w", ctx.Err())
		}

		delay *= 2
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}

	return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, lastErr)
}

func HealthCheck(ctx context.Context, client zbc.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
