package camunda

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:26500: connect: connection refused"), true},
		{"deadline", errors.New("rpc error: code = DeadlineExceeded desc = context deadline exceeded"), true},
		{"unavailable", errors.New("rpc error: code = Unavailable"), true},
		{"bad request", errors.New("rpc error: code = InvalidArgument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
