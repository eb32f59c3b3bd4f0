package events

import (
	"fmt"
	"math"
	"path/filepath"
)

// NormalizePayload walks p and returns a copy whose values are all
// canonicalization-safe: floats are checked for NaN/Inf, nested maps and
// slices are normalized recursively, and any value whose representation
// would not be deterministic is rejected. A normalization failure is a
// programming error, not a data error, per §3.1 — callers that build
// payloads from trusted internal data should never see one in practice.
func NormalizePayload(p Payload) (Payload, error) {
	out := make(Payload, len(p))
	for k, v := range p {
		nv, err := normalizeValue(v, k)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v any, path string) (any, error) {
	switch val := v.(type) {
	case nil, bool, string, int, int64:
		return val, nil
	case float32:
		return normalizeFloat(float64(val), path)
	case float64:
		return normalizeFloat(val, path)
	case Bytes:
		return val, nil
	case []byte:
		return Bytes(val), nil
	case StringSet:
		return uniqueSorted(val), nil
	case Payload:
		return NormalizePayload(val)
	case map[string]any:
		return NormalizePayload(Payload(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := normalizeValue(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot normalize value of type %T at %s: not a canonicalization-safe type", v, path)
	}
}

func normalizeFloat(f float64, path string) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ErrNonFinite{Path: path}
	}
	return f, nil
}

// NormalizePath renders a filesystem path as its canonical, OS-independent
// string form (forward slashes) for deterministic payload hashing across
// platforms. This resolves the spec's open question on path normalization:
// "pick one canonical serialization and stick to it."
func NormalizePath(p string) string {
	return filepath.ToSlash(p)
}
