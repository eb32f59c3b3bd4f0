package activity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveforge/hiveforge/pkg/ar"
)

func TestSilenceDetectorFiresAfterInactivity(t *testing.T) {
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)

	var mu sync.Mutex
	fired := false
	var firedRunID string

	d := NewSilenceDetector(store, "R1", 20*time.Millisecond, func(runID string, at time.Time) {
		mu.Lock()
		fired = true
		firedRunID = runID
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "R1", firedRunID)
	mu.Unlock()

	evs, err := store.Replay("R1", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, evs, 1)
}

func TestRecordActivitySuppressesFiring(t *testing.T) {
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)

	var mu sync.Mutex
	fired := false
	d := NewSilenceDetector(store, "R1", 20*time.Millisecond, func(string, time.Time) {
		mu.Lock()
		fired = true
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	defer d.Stop()

	stop := time.After(60 * time.Millisecond)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-stop:
			break loop
		case <-ticker.C:
			d.RecordActivity(time.Time{})
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, fired)
}

func TestHeartbeatManagerMultiplexesRuns(t *testing.T) {
	store, err := ar.New(t.TempDir(), nil)
	require.NoError(t, err)

	m := NewHeartbeatManager(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]bool{}
	m.AddSilenceCallback(func(runID string, _ time.Time) {
		mu.Lock()
		seen[runID] = true
		mu.Unlock()
	})

	m.StartMonitoring(ctx, "R1", 15*time.Millisecond)
	m.StartMonitoring(ctx, "R2", 15*time.Millisecond)
	defer m.StopAll()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["R1"] && seen["R2"]
	}, time.Second, 5*time.Millisecond)
}
