// Package fingerprint derives stable keys from JSON-shaped values.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON returns deterministic JSON bytes for hashing and storage.
// Struct values are round-tripped through JSON so map keys come out sorted.
func CanonicalJSON(value any) ([]byte, error) {
	normalized, err := normalize(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(normalized)
}

// Of returns the SHA-256 hex digest of the canonical JSON.
func Of(value any) (string, error) {
	data, err := CanonicalJSON(value)
	if err != nil {
		return "", err
	}
	return Bytes(data), nil
}

// Bytes returns the SHA-256 hex digest of data.
func Bytes(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64, int:
		return v, nil
	case json.RawMessage:
		return decode(v)
	case []byte:
		return decode(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			norm, err := normalize(inner)
			if err != nil {
				return nil, err
			}
			out[k] = norm
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i := range v {
			norm, err := normalize(v[i])
			if err != nil {
				return nil, err
			}
			out[i] = norm
		}
		return out, nil
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("canonical json: %w", err)
		}
		return decode(data)
	}
}

func decode(data []byte) (any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}
	return normalize(decoded)
}
