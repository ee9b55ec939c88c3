package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source identifies the resolution tier a record came from.
type Source int

const (
	// SourceLocalCache means the record was served from the local store.
	SourceLocalCache Source = iota
	// SourceFastApprox means the record is a provisional fast-approximate result.
	SourceFastApprox
	// SourceAuthoritative means the record came from the authoritative service.
	SourceAuthoritative
	// SourceSnapshotFallback means the record is a last-known value served
	// because authoritative resolution failed.
	SourceSnapshotFallback
)

// String returns the string representation of the source.
func (s Source) String() string {
	switch s {
	case SourceLocalCache:
		return "local-cache"
	case SourceFastApprox:
		return "fast-approx"
	case SourceAuthoritative:
		return "authoritative"
	case SourceSnapshotFallback:
		return "snapshot-fallback"
	default:
		return "unknown"
	}
}

// ParseSource parses a source name as produced by Source.String.
func ParseSource(s string) (Source, error) {
	switch s {
	case "local-cache":
		return SourceLocalCache, nil
	case "fast-approx":
		return SourceFastApprox, nil
	case "authoritative":
		return SourceAuthoritative, nil
	case "snapshot-fallback":
		return SourceSnapshotFallback, nil
	default:
		return 0, fmt.Errorf("cache: unknown source %q", s)
	}
}

// Record is a resolved query result as held by the local tier.
//
// Records are passed by value across package boundaries so a delivered
// result can never be mutated by a later background upgrade.
type Record struct {
	// Key is the derived query key the record is stored under.
	Key string

	// Payload is the opaque query result.
	Payload json.RawMessage

	// Source is the tier that produced the payload.
	Source Source

	// Authoritative reports whether the payload came from the
	// authoritative tier (directly or via the local store).
	Authoritative bool

	// Stale is set when the record has outlived the staleness threshold.
	Stale bool

	// ResolvedAt is when the payload was produced. Stores use it to
	// discard out-of-order writes.
	ResolvedAt time.Time
}

// Age returns how long ago the record was resolved.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.ResolvedAt)
}

// recordJSON is the wire form stores persist. Source round-trips as its
// string name so persisted entries survive enum reordering.
type recordJSON struct {
	Key           string          `json:"key"`
	Payload       json.RawMessage `json:"payload"`
	Source        string          `json:"source"`
	Authoritative bool            `json:"authoritative"`
	ResolvedAt    time.Time       `json:"resolvedAt"`
}

// Encode serializes the record for persistence. Staleness is derived at
// read time and deliberately not persisted.
func (r Record) Encode() ([]byte, error) {
	return json.Marshal(recordJSON{
		Key:           r.Key,
		Payload:       r.Payload,
		Source:        r.Source.String(),
		Authoritative: r.Authoritative,
		ResolvedAt:    r.ResolvedAt,
	})
}

// DecodeRecord deserializes a record produced by Encode.
func DecodeRecord(data []byte) (Record, error) {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("cache: failed to decode record: %w", err)
	}
	src, err := ParseSource(w.Source)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Key:           w.Key,
		Payload:       w.Payload,
		Source:        src,
		Authoritative: w.Authoritative,
		ResolvedAt:    w.ResolvedAt,
	}, nil
}
