package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rickgao/tickplant/internal/api"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unauthorized", &api.APIError{StatusCode: http.StatusUnauthorized}, true},
		{"wrapped forbidden", fmt.Errorf("get quotes: %w", &api.APIError{StatusCode: http.StatusForbidden}), true},
		{"server error", &api.APIError{StatusCode: http.StatusBadGateway}, true},
		{"rate limited", &api.APIError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad request", &api.APIError{StatusCode: http.StatusBadRequest}, false},
		{"not found", &api.APIError{StatusCode: http.StatusNotFound}, false},
		{"order rejected", &api.OrderPlaceError{StatusCode: 400, Type: "INSUFFICIENT_FUNDS"}, false},
		{"order rejected by exchange", &api.OrderPlaceError{
			StatusCode: http.StatusBadRequest,
			Type:       "INSUFFICIENT_FUNDS",
			Err:        &api.APIError{StatusCode: http.StatusBadRequest},
		}, false},
		{"order on expired session", fmt.Errorf("place: %w", &api.OrderPlaceError{
			StatusCode: http.StatusUnauthorized,
			Type:       api.UnknownRejection,
			Err:        &api.APIError{StatusCode: http.StatusUnauthorized},
		}), true},
		{"order server error", &api.OrderPlaceError{
			StatusCode: http.StatusBadGateway,
			Err:        &api.APIError{StatusCode: http.StatusBadGateway},
		}, false},
		{"page limit", fmt.Errorf("list events: %w", api.ErrPageLimit), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("do request: %w", context.DeadlineExceeded), false},
		{"transport", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDo(t *testing.T) {
	fast := Policy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

	t.Run("success first try", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, "op", func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("retry then succeed", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, "op", func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return &api.APIError{StatusCode: http.StatusServiceUnavailable}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("unauthorized retried once renewed", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, "op", func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return &api.APIError{StatusCode: http.StatusUnauthorized}
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("non-retryable stops", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, "op", func(ctx context.Context) error {
			calls++
			return &api.APIError{StatusCode: http.StatusBadRequest}
		})
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("error = %v, want 400 APIError", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fast, "quotes", func(ctx context.Context) error {
			calls++
			return &api.APIError{StatusCode: http.StatusInternalServerError}
		})
		if err == nil {
			t.Fatal("expected error")
		}
		var apiErr *api.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("last error should be wrapped, got %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("custom classifier", func(t *testing.T) {
		calls := 0
		p := fast
		p.Retryable = func(error) bool { return false }
		Do(context.Background(), p, "op", func(ctx context.Context) error {
			calls++
			return errors.New("boom")
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("context canceled during backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := Policy{Attempts: 5, Backoff: time.Second}
		calls := 0
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err := Do(ctx, p, "op", func(ctx context.Context) error {
			calls++
			return errors.New("connection refused")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if time.Since(start) > 400*time.Millisecond {
			t.Error("Do did not return promptly on cancel")
		}
	})

	t.Run("zero attempts runs once", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("boom")
		err := Do(context.Background(), Policy{}, "op", func(ctx context.Context) error {
			calls++
			return sentinel
		})
		if err != sentinel {
			t.Errorf("error = %v, want sentinel unchanged", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}

func TestJitter(t *testing.T) {
	d := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		j := jitter(d)
		if j < d/2 || j >= 3*d/2 {
			t.Fatalf("jitter(%v) = %v, outside [%v, %v)", d, j, d/2, 3*d/2)
		}
	}
	if jitter(0) != 0 {
		t.Error("jitter(0) should be 0")
	}
}
