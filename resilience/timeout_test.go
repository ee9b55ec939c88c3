package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTimeout_CompletesInTime(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 100 * time.Millisecond})

	err := timeout.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v, want nil", err)
	}
}

func TestTimeout_PropagatesError(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 100 * time.Millisecond})

	wantErr := errors.New("operation failed")
	err := timeout.Execute(context.Background(), func(ctx context.Context) error {
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want %v", err, wantErr)
	}
}

func TestTimeout_DeadlineFires(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	err := timeout.Execute(context.Background(), func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestTimeout_ParentCancellation(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := timeout.Execute(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestTimeout_Defaults(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{})
	if timeout.Config().Timeout != 10*time.Second {
		t.Errorf("default Timeout = %v, want 10s", timeout.Config().Timeout)
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	err := ExecuteWithTimeout(context.Background(), 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("ExecuteWithTimeout() error = %v", err)
	}
}
