package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/tiercache/cache"
)

func waitResponse(t *testing.T, out <-chan Response) Response {
	t.Helper()
	select {
	case resp := <-out:
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tier response")
		return Response{}
	}
}

func TestClient_LookupLocal(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	client := NewClient(store, AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		return nil, errors.New("unused")
	}), nil, Config{})

	if _, ok := client.LookupLocal(ctx, "q:missing"); ok {
		t.Error("hit on empty store")
	}

	rec := cache.Record{Key: "q:k", Payload: json.RawMessage(`1`), Source: cache.SourceAuthoritative, Authoritative: true, ResolvedAt: time.Now()}
	_ = store.Set(ctx, "q:k", rec, time.Minute)

	got, ok := client.LookupLocal(ctx, "q:k")
	if !ok {
		t.Fatal("miss after Set")
	}
	if string(got.Payload) != `1` {
		t.Errorf("payload = %s", got.Payload)
	}
}

func TestClient_LookupLocal_NilStore(t *testing.T) {
	client := NewClient(nil, AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		return nil, nil
	}), nil, Config{})

	if _, ok := client.LookupLocal(context.Background(), "q:k"); ok {
		t.Error("nil store reported a hit")
	}
}

func TestClient_FastApprox_Success(t *testing.T) {
	fast := FastApproxFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"score":0.6}`), nil
	})
	client := NewClient(cache.NewMemoryStore(), nil, fast, Config{})

	out := make(chan Response, 1)
	client.LookupFastApprox(context.Background(), Request{Gen: 7, Key: "q:k", Query: "find"}, out)

	resp := waitResponse(t, out)
	if resp.Err != nil {
		t.Fatalf("Err = %v", resp.Err)
	}
	if resp.Gen != 7 || resp.Tier != cache.SourceFastApprox {
		t.Errorf("Gen = %d, Tier = %v", resp.Gen, resp.Tier)
	}
	if resp.Record.Authoritative {
		t.Error("fast-approx record marked authoritative")
	}
	if string(resp.Record.Payload) != `{"score":0.6}` {
		t.Errorf("payload = %s", resp.Record.Payload)
	}
}

func TestClient_FastApprox_NoEngine(t *testing.T) {
	client := NewClient(cache.NewMemoryStore(), nil, nil, Config{})

	out := make(chan Response, 1)
	client.LookupFastApprox(context.Background(), Request{Gen: 1, Key: "q:k"}, out)

	resp := waitResponse(t, out)
	if !errors.Is(resp.Err, ErrTierUnsupported) {
		t.Errorf("Err = %v, want ErrTierUnsupported", resp.Err)
	}
}

func TestClient_FastApprox_Timeout(t *testing.T) {
	fast := FastApproxFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	client := NewClient(cache.NewMemoryStore(), nil, fast, Config{FastApproxTimeout: 20 * time.Millisecond})

	out := make(chan Response, 1)
	client.LookupFastApprox(context.Background(), Request{Gen: 1, Key: "q:k"}, out)

	resp := waitResponse(t, out)
	if !errors.Is(resp.Err, ErrTierUnavailable) {
		t.Errorf("Err = %v, want ErrTierUnavailable", resp.Err)
	}
}

func TestClient_Authoritative_Success(t *testing.T) {
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		return json.RawMessage(`{"score":0.95}`), nil
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{})

	out := make(chan Response, 1)
	client.LookupAuthoritative(context.Background(), Request{Gen: 3, Key: "q:k", Query: "find"}, out)

	resp := waitResponse(t, out)
	if resp.Err != nil {
		t.Fatalf("Err = %v", resp.Err)
	}
	if !resp.Record.Authoritative {
		t.Error("authoritative record not marked authoritative")
	}
	if resp.Record.Source != cache.SourceAuthoritative {
		t.Errorf("Source = %v", resp.Record.Source)
	}
	if resp.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", resp.Attempts)
	}
}

func TestClient_Authoritative_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("flaky")
		}
		return json.RawMessage(`{}`), nil
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{RetryInitialDelay: time.Millisecond})

	resp := client.ResolveAuthoritative(context.Background(), Request{Gen: 1, Key: "q:k"})
	if resp.Err != nil {
		t.Fatalf("Err = %v", resp.Err)
	}
	if resp.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", resp.Attempts)
	}
}

func TestClient_Authoritative_Exhausted(t *testing.T) {
	var calls atomic.Int32
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		calls.Add(1)
		return nil, errors.New("down")
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{MaxAttempts: 3, RetryInitialDelay: time.Millisecond})

	resp := client.ResolveAuthoritative(context.Background(), Request{Gen: 1, Key: "q:k"})

	var authErr *AuthoritativeError
	if !errors.As(resp.Err, &authErr) {
		t.Fatalf("Err = %v, want *AuthoritativeError", resp.Err)
	}
	if authErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", authErr.Attempts)
	}
	if calls.Load() != 3 {
		t.Errorf("service called %d times, want exactly MaxAttempts", calls.Load())
	}
}

func TestClient_Authoritative_TimeoutTaxonomy(t *testing.T) {
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{
		AuthoritativeTimeout: 10 * time.Millisecond,
		MaxAttempts:          2,
		RetryInitialDelay:    time.Millisecond,
	})

	resp := client.ResolveAuthoritative(context.Background(), Request{Gen: 1, Key: "q:k"})
	if !errors.Is(resp.Err, ErrAuthoritativeTimeout) {
		t.Errorf("Err = %v, want ErrAuthoritativeTimeout", resp.Err)
	}
}

// TestClient_Authoritative_Singleflight verifies concurrent resolutions of
// the same key share one in-flight call.
func TestClient_Authoritative_Singleflight(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		calls.Add(1)
		<-gate
		return json.RawMessage(`{}`), nil
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{})

	out := make(chan Response, 4)
	for i := 0; i < 4; i++ {
		client.LookupAuthoritative(context.Background(), Request{Gen: uint64(i), Key: "q:same"}, out)
	}
	time.Sleep(50 * time.Millisecond)
	close(gate)

	for i := 0; i < 4; i++ {
		resp := waitResponse(t, out)
		if resp.Err != nil {
			t.Fatalf("Err = %v", resp.Err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("service called %d times, want 1 (singleflight)", calls.Load())
	}
}

// TestClient_Authoritative_FlightSurvivesInitiatorCancel verifies that a
// caller joining an in-flight chain gets a result even when the caller
// that started the chain cancels and stops waiting.
func TestClient_Authoritative_FlightSurvivesInitiatorCancel(t *testing.T) {
	var calls atomic.Int32
	gate := make(chan struct{})
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		calls.Add(1)
		select {
		case <-gate:
			return json.RawMessage(`{"score":0.95}`), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{})

	initiatorCtx, cancel := context.WithCancel(context.Background())
	initiatorDone := make(chan Response, 1)
	go func() {
		initiatorDone <- client.ResolveAuthoritative(initiatorCtx, Request{Gen: 1, Key: "q:shared"})
	}()

	// Wait for the chain to start, join it, then cancel the initiator.
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	joinerDone := make(chan Response, 1)
	go func() {
		joinerDone <- client.ResolveAuthoritative(context.Background(), Request{Gen: 2, Key: "q:shared"})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	initiator := waitResponse(t, initiatorDone)
	if !errors.Is(initiator.Err, context.Canceled) {
		t.Errorf("initiator Err = %v, want context.Canceled", initiator.Err)
	}

	close(gate)
	joiner := waitResponse(t, joinerDone)
	if joiner.Err != nil {
		t.Fatalf("joiner Err = %v, want success despite initiator cancel", joiner.Err)
	}
	if string(joiner.Record.Payload) != `{"score":0.95}` {
		t.Errorf("joiner payload = %s", joiner.Record.Payload)
	}
	if calls.Load() != 1 {
		t.Errorf("service called %d times, want 1 (shared chain)", calls.Load())
	}
}

// TestClient_CancelledLookupPostsNothing verifies cancellation silences the
// response entirely.
func TestClient_CancelledLookupPostsNothing(t *testing.T) {
	auth := AuthoritativeFunc(func(ctx context.Context, q string, p map[string]any) (json.RawMessage, error) {
		time.Sleep(30 * time.Millisecond)
		return json.RawMessage(`{}`), nil
	})
	client := NewClient(cache.NewMemoryStore(), auth, nil, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan Response) // unbuffered: post must block, then drop
	client.LookupAuthoritative(ctx, Request{Gen: 1, Key: "q:k"}, out)
	cancel()

	select {
	case resp := <-out:
		t.Errorf("cancelled lookup posted %+v", resp)
	case <-time.After(100 * time.Millisecond):
	}
}
