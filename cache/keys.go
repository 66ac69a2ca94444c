package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultKeyThreshold is the canonical-form length above which keys are
// replaced by a digest. Short keys stay human-readable in the cache for
// operational inspection; long ones are hashed to keep key sizes bounded.
const DefaultKeyThreshold = 150

// KeyDeriver turns a parameter set into a short, deterministic cache key.
// Semantically identical parameter maps always produce the same key: the
// canonical form serializes keys in sorted order. Order-insensitive
// list-valued parameters must be pre-sorted by the caller, otherwise
// equivalent requests will miss each other's entries.
type KeyDeriver struct {
	threshold int
}

// NewKeyDeriver creates a KeyDeriver. A threshold <= 0 selects
// DefaultKeyThreshold.
func NewKeyDeriver(threshold int) *KeyDeriver {
	if threshold <= 0 {
		threshold = DefaultKeyThreshold
	}
	return &KeyDeriver{threshold: threshold}
}

// Derive builds the key for namespace and params. When the canonical
// serialization fits within the threshold the key embeds it verbatim as
// "namespace:canonical"; otherwise the key is "namespace:digest" where
// digest is a fixed-length xxhash of the canonical form. Collision
// resistance at cache-partitioning strength is sufficient here;
// cryptographic strength is not required.
func (d *KeyDeriver) Derive(namespace string, params map[string]any) string {
	canonical := canonicalize(params)
	if len(canonical) <= d.threshold {
		return namespace + ":" + canonical
	}
	digest := xxhash.Sum64String(canonical)
	return namespace + ":" + strconv.FormatUint(digest, 16)
}

// canonicalize renders params as compact JSON with lexicographically sorted
// keys. encoding/json already sorts map keys; values are first normalized so
// non-JSON-native types serialize stably across runs.
func canonicalize(params map[string]any) string {
	normalized := make(map[string]any, len(params))
	for k, v := range params {
		normalized[k] = normalizeValue(v)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		// Map values are normalized to JSON-native types above, so this is
		// unreachable with well-formed input; keep a stable fallback anyway.
		return fmt.Sprintf("%v", normalized)
	}
	return string(data)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return val
	case []int:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	case []string:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = e
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeValue(e)
		}
		return out
	default:
		// Stable stringification fallback for anything exotic.
		return fmt.Sprintf("%v", val)
	}
}
