package events

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// StringSet is a payload value rendered as a sorted, deduplicated sequence
// per the "sets rendered as sorted sequences" canonicalization rule.
type StringSet []string

// Bytes is a payload value rendered as lowercase hex per the "byte strings
// are rendered as lowercase hex" canonicalization rule.
type Bytes []byte

// ErrNonFinite is returned by NormalizePayload when a payload contains a
// NaN or infinite float. Canonicalize does not return it: a non-finite
// float reaching canonicalization panics with a plain message instead,
// per §3.1's "programming error, not a data error" framing.
type ErrNonFinite struct {
	Path string
}

func (e *ErrNonFinite) Error() string {
	return fmt.Sprintf("non-finite float at %s: payload values must be finite", e.Path)
}

// Canonicalize renders e (excluding the Hash field) as JCS-canonical bytes:
// lexicographic key order, no whitespace, minimal number representation,
// UTF-8. It panics on a non-finite float anywhere in the payload — per
// spec, that is a programming error, not a data error, and should never
// reach this function if NormalizePayload was used to build the payload.
func Canonicalize(e *Event) []byte {
	m := map[string]any{
		"id":        e.ID,
		"type":      string(e.Type),
		"timestamp": e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		"run_id":    nullableString(e.RunID),
		"hive_id":   nullableString(e.HiveID),
		"colony_id": nullableString(e.ColonyID),
		"task_id":   nullableString(e.TaskID),
		"worker_id": nullableString(e.WorkerID),
		"actor":     e.Actor,
		"payload":   payloadToAny(e.Payload),
		"prev_hash": nullableString(e.PrevHash),
		"parents":   parentsToAny(e.Parents),
	}
	var buf bytes.Buffer
	canonicalizeValue(&buf, m)
	return buf.Bytes()
}

// Hash computes the event's content hash: hex-encoded SHA-256 over
// Canonicalize(e). hash(e) is a pure function of the canonical form:
// two events with structurally equal canonical forms hash identically.
func Hash(e *Event) string {
	sum := sha256.Sum256(Canonicalize(e))
	return hex.EncodeToString(sum[:])
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parentsToAny(parents []string) any {
	if len(parents) == 0 {
		return []any{}
	}
	out := make([]any, len(parents))
	for i, p := range parents {
		out[i] = p
	}
	return out
}

func payloadToAny(p Payload) any {
	if p == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// canonicalizeValue recursively writes v's JCS-canonical encoding to buf.
func canonicalizeValue(buf *bytes.Buffer, v any) {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeJSONString(buf, val)
	case Bytes:
		writeJSONString(buf, hex.EncodeToString(val))
	case []byte:
		writeJSONString(buf, hex.EncodeToString(val))
	case StringSet:
		sorted := uniqueSorted(val)
		arr := make([]any, len(sorted))
		for i, s := range sorted {
			arr[i] = s
		}
		canonicalizeValue(buf, arr)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		writeCanonicalNumber(buf, val)
	case float32:
		writeCanonicalNumber(buf, float64(val))
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			panic(fmt.Sprintf("non-numeric json.Number %q", string(val)))
		}
		writeCanonicalNumber(buf, f)
	case map[string]any:
		writeObject(buf, val)
	case Payload:
		writeObject(buf, map[string]any(val))
	case []any:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			canonicalizeValue(buf, item)
		}
		buf.WriteByte(']')
	default:
		panic(fmt.Sprintf("unsupported canonicalization value type %T", v))
	}
}

func writeObject(buf *bytes.Buffer, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(buf, k)
		buf.WriteByte(':')
		canonicalizeValue(buf, m[k])
	}
	buf.WriteByte('}')
}

func writeJSONString(buf *bytes.Buffer, s string) {
	// encoding/json's string marshaling is deterministic UTF-8 with
	// standard escaping, satisfying JCS's string requirement.
	b, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("cannot marshal string: %v", err))
	}
	buf.Write(b)
}

// writeCanonicalNumber renders f in minimal form. Whole numbers with a
// magnitude below 1e18 are rendered without a decimal point; everything else uses
// the shortest round-tripping decimal representation. NaN/Inf panic —
// NormalizePayload is expected to have rejected them already.
func writeCanonicalNumber(buf *bytes.Buffer, f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		panic("non-finite float reached canonicalization")
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
