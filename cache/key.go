package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// KeyPrefix is prepended to every derived query key. Stores may use it to
// scope scans and bulk deletes to keys owned by this subsystem.
const KeyPrefix = "q:"

// Keyer derives deterministic cache keys from queries and their parameters.
//
// Contract:
// - Determinism: equal (query, params) pairs must produce the same key
//   regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives a cache key for the query and its parameters.
	Key(query string, params map[string]any) (string, error)
}

// DefaultKeyer derives SHA-256 based query keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key derives a deterministic query key.
// Format: q:<hash> where hash is the first 16 hex characters of
// SHA-256(canonical JSON of {"params": params, "query": query}).
func (k *DefaultKeyer) Key(query string, params map[string]any) (string, error) {
	canonical, err := canonicalize(map[string]any{
		"query":  query,
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize query: %w", err)
	}

	hash := sha256.Sum256(canonical)
	return KeyPrefix + hex.EncodeToString(hash[:8]), nil
}

// canonicalize produces a deterministic JSON representation of the input.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
