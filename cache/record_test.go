package cache

import (
	"encoding/json"
	"testing"
	"time"
)

// TestSource_String verifies source names round-trip through ParseSource.
func TestSource_String(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceLocalCache, "local-cache"},
		{SourceFastApprox, "fast-approx"},
		{SourceAuthoritative, "authoritative"},
		{SourceSnapshotFallback, "snapshot-fallback"},
		{Source(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.source.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}

	for _, s := range []Source{SourceLocalCache, SourceFastApprox, SourceAuthoritative, SourceSnapshotFallback} {
		parsed, err := ParseSource(s.String())
		if err != nil {
			t.Errorf("ParseSource(%q) error = %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseSource(%q) = %v, want %v", s.String(), parsed, s)
		}
	}

	if _, err := ParseSource("bogus"); err == nil {
		t.Error("ParseSource(bogus) expected error")
	}
}

// TestRecord_EncodeDecode verifies payload, source and resolvedAt survive
// a persistence round trip.
func TestRecord_EncodeDecode(t *testing.T) {
	resolvedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rec := Record{
		Key:           "q:abcdef0123456789",
		Payload:       json.RawMessage(`{"score":0.95}`),
		Source:        SourceAuthoritative,
		Authoritative: true,
		Stale:         true, // must NOT survive; staleness is derived on read
		ResolvedAt:    resolvedAt,
	}

	data, err := rec.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	got, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord() error = %v", err)
	}

	if got.Key != rec.Key {
		t.Errorf("Key = %q, want %q", got.Key, rec.Key)
	}
	if string(got.Payload) != string(rec.Payload) {
		t.Errorf("Payload = %s, want %s", got.Payload, rec.Payload)
	}
	if got.Source != SourceAuthoritative {
		t.Errorf("Source = %v, want %v", got.Source, SourceAuthoritative)
	}
	if !got.Authoritative {
		t.Error("Authoritative flag lost")
	}
	if !got.ResolvedAt.Equal(resolvedAt) {
		t.Errorf("ResolvedAt = %v, want %v", got.ResolvedAt, resolvedAt)
	}
	if got.Stale {
		t.Error("Stale flag should not be persisted")
	}
}

func TestDecodeRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json"},
		{"unknown source", `{"key":"k","payload":null,"source":"nope","resolvedAt":"2026-01-01T00:00:00Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRecord([]byte(tt.data)); err == nil {
				t.Error("DecodeRecord() expected error")
			}
		})
	}
}

func TestRecord_Age(t *testing.T) {
	now := time.Now()
	rec := Record{ResolvedAt: now.Add(-90 * time.Second)}

	if got := rec.Age(now); got != 90*time.Second {
		t.Errorf("Age() = %v, want 90s", got)
	}
}
