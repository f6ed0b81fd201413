package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "rate limited", err: &StatusError{Provider: "ollama", StatusCode: 429}, want: true},
		{name: "server error", err: &StatusError{Provider: "ollama", StatusCode: 503}, want: true},
		{name: "bad request", err: &StatusError{Provider: "ollama", StatusCode: 400}, want: false},
		{name: "unauthorized", err: &StatusError{Provider: "gemini", StatusCode: 401}, want: false},
		{name: "wrapped deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "wrapped status", err: fmt.Errorf("call: %w", &StatusError{StatusCode: 500}), want: true},
		{name: "unknown error", err: errors.New("connection reset"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
