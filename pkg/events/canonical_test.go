package events

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsPureFunctionOfCanonicalForm(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e1 := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, RunID: "R1", Actor: "user", Payload: Payload{"goal": "x"}}
	e2 := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, RunID: "R1", Actor: "user", Payload: Payload{"goal": "x"}}

	assert.Equal(t, Hash(e1), Hash(e2), "structurally equal events must hash identically")
}

func TestHashIgnoresMapKeyOrder(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e1 := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, Actor: "user", Payload: Payload{"a": 1, "b": 2}}
	e2 := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, Actor: "user", Payload: Payload{"b": 2, "a": 1}}

	assert.Equal(t, Hash(e1), Hash(e2))
}

func TestHashExcludesHashField(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, Actor: "user", Payload: Payload{}}
	h1 := Hash(e)
	e.Hash = "some-stale-hash"
	h2 := Hash(e)

	assert.Equal(t, h1, h2, "re-serializing e never changes hash, since hash excludes the hash field itself")
}

func TestWriteCanonicalNumberRendersIntegralFloatsWithoutDecimalPoint(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	e := &Event{ID: "01A", Type: EventRunStarted, Timestamp: ts, Actor: "user", Payload: Payload{"count": 3.0}}
	assert.Contains(t, string(Canonicalize(e)), `"count":3`)
}

func TestNormalizePayloadRejectsNaNAndInf(t *testing.T) {
	_, err := NormalizePayload(Payload{"x": negInf()})
	require.Error(t, err)
	assert.ErrorContains(t, err, "non-finite")

	_, err = NormalizePayload(Payload{"y": math.NaN()})
	require.Error(t, err)
	assert.ErrorContains(t, err, "non-finite")
}

func negInf() float64 {
	var x float64
	return -1 / zero(x)
}

func zero(x float64) float64 { return x }

func TestNormalizePayloadSortsStringSets(t *testing.T) {
	out, err := NormalizePayload(Payload{"tags": StringSet{"b", "a", "a", "c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, out["tags"])
}

func TestParseUnknownTypeFallback(t *testing.T) {
	e := New(EventRunStarted, "user", Payload{"goal": "g"})
	e.RunID = "R1"
	line, err := Marshal(e)
	require.NoError(t, err)

	// Mutate the encoded type to something outside the closed enumeration.
	mutated := replaceJSONField(t, line, "run.started", "future.event_type_v2")

	parsed, err := Parse(mutated)
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, parsed.Type)
	assert.Equal(t, "future.event_type_v2", parsed.Payload[UnknownTypeKey])
}

func replaceJSONField(t *testing.T, line []byte, from, to string) []byte {
	t.Helper()
	s := string(line)
	idx := indexOf(s, `"type":"`+from+`"`)
	require.GreaterOrEqual(t, idx, 0)
	return []byte(s[:idx] + `"type":"` + to + `"` + s[idx+len(`"type":"`+from+`"`):])
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

func TestMarshalParseRoundTrip(t *testing.T) {
	e := NewTaskCreated("R1", "T1", "queen-1", "do the thing", "C1")
	line, err := Marshal(e)
	require.NoError(t, err)

	parsed, err := Parse(line)
	require.NoError(t, err)
	assert.Equal(t, e.ID, parsed.ID)
	assert.Equal(t, e.Type, parsed.Type)
	assert.Equal(t, e.RunID, parsed.RunID)
	assert.Equal(t, e.TaskID, parsed.TaskID)
	assert.Equal(t, "do the thing", parsed.Payload["title"])
}
