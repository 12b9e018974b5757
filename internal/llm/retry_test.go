package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestCaller_Backoff(t *testing.T) {
	c := newCaller(Options{BaseDelay: time.Second})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 5, want: maxDelay},
		{attempt: 70, want: maxDelay},
	}

	for _, tt := range tests {
		if got := c.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryable(t *testing.T) {
	ctx := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want bool
	}{
		{name: "transport error", ctx: ctx, err: errors.New("connection reset"), want: true},
		{name: "server error", ctx: ctx, err: &StatusError{Code: http.StatusInternalServerError}, want: true},
		{name: "rate limited", ctx: ctx, err: &StatusError{Code: http.StatusTooManyRequests}, want: true},
		{name: "unauthorized", ctx: ctx, err: &StatusError{Code: http.StatusUnauthorized}, want: false},
		{name: "permanent", ctx: ctx, err: permanent(errors.New("bad json")), want: false},
		{name: "cancelled context", ctx: cancelled, err: errors.New("connection reset"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.ctx, tt.err); got != tt.want {
				t.Errorf("retryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaller_RateLimit(t *testing.T) {
	c := newCaller(Options{RateLimit: 1000})
	if c.limiter == nil {
		t.Fatal("limiter should be configured")
	}

	calls := 0
	for i := 0; i < 3; i++ {
		err := c.do(context.Background(), "test", func(context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("do() error = %v", err)
		}
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}

	if newCaller(Options{}).limiter != nil {
		t.Error("zero rate limit should not configure a limiter")
	}
}
