package activity

import (
	"context"
	"sync"
	"time"

	"github.com/hiveforge/hiveforge/pkg/ar"
	"github.com/hiveforge/hiveforge/pkg/events"
)

// SilenceCallback is invoked after a silence event has been appended,
// with the run id and the moment silence was detected.
type SilenceCallback func(runID string, detectedAt time.Time)

// SilenceDetector watches a single run for inactivity. record_activity
// resets its clock; a background loop wakes every interval and, if more
// than 2*interval has elapsed since the last recorded activity, appends
// a system.silence_detected event and invokes the callback.
//
// Matching the original detector verbatim (§9 Open Question #2): after
// firing, the detector resets last-activity to the detection time
// itself rather than waiting for genuine new activity. This means a
// second stall immediately following a detected silence will not
// re-fire until more than 2*interval has elapsed from the first alert,
// not from the last real activity. This is a known, accepted
// limitation, not a bug to be fixed here.
type SilenceDetector struct {
	store    *ar.Store
	runID    string
	actor    string
	interval time.Duration
	onSilence SilenceCallback

	mu           sync.Mutex
	lastActivity time.Time
	running      bool
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewSilenceDetector returns a detector for runID that fires at most
// once per 2*interval of true inactivity. store is used to append the
// silence event to the run's stream; onSilence may be nil.
func NewSilenceDetector(store *ar.Store, runID string, interval time.Duration, onSilence SilenceCallback) *SilenceDetector {
	return &SilenceDetector{
		store:     store,
		runID:     runID,
		actor:     "silence-detector",
		interval:  interval,
		onSilence: onSilence,
	}
}

// RecordActivity resets the clock to ts (or now, if ts is zero).
func (d *SilenceDetector) RecordActivity(ts time.Time) {
	if ts.IsZero() {
		ts = time.Now()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = ts
}

// Start begins the background monitor loop. It is a no-op if already
// running.
func (d *SilenceDetector) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.lastActivity = time.Now()
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.monitorLoop(ctx)
}

// Stop cancels the monitor loop and waits for it to exit.
func (d *SilenceDetector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	done := d.done
	d.running = false
	d.mu.Unlock()

	cancel()
	<-done
}

func (d *SilenceDetector) monitorLoop(ctx context.Context) {
	defer close(d.done)
	threshold := 2 * d.interval
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			d.mu.Lock()
			last := d.lastActivity
			d.mu.Unlock()
			if now.Sub(last) > threshold {
				d.handleSilence(now, last)
			}
		}
	}
}

func (d *SilenceDetector) handleSilence(detectedAt, lastActivity time.Time) {
	secondsSince := detectedAt.Sub(lastActivity).Seconds()
	e := events.NewSystemSilenceDetected(d.runID, d.actor, secondsSince)
	if d.store != nil {
		_, _ = d.store.Append(d.runID, e)
	}
	if d.onSilence != nil {
		d.onSilence(d.runID, detectedAt)
	}

	// Self-reset to avoid flapping: see the type doc for the accepted
	// limitation this introduces.
	d.mu.Lock()
	d.lastActivity = detectedAt
	d.mu.Unlock()
}

// HeartbeatManager multiplexes one SilenceDetector per run, so a single
// process-wide instance can watch every active run.
type HeartbeatManager struct {
	store *ar.Store

	mu        sync.Mutex
	detectors map[string]*SilenceDetector
	callbacks []SilenceCallback
}

// NewHeartbeatManager returns a manager that appends silence events via
// store.
func NewHeartbeatManager(store *ar.Store) *HeartbeatManager {
	return &HeartbeatManager{store: store, detectors: make(map[string]*SilenceDetector)}
}

// AddSilenceCallback registers a callback invoked for every run's
// silence detection, in addition to any per-run callback.
func (m *HeartbeatManager) AddSilenceCallback(cb SilenceCallback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// StartMonitoring begins watching runID at the given interval. A
// no-op if runID is already being monitored.
func (m *HeartbeatManager) StartMonitoring(ctx context.Context, runID string, interval time.Duration) {
	m.mu.Lock()
	if _, exists := m.detectors[runID]; exists {
		m.mu.Unlock()
		return
	}
	callbacks := append([]SilenceCallback(nil), m.callbacks...)
	detector := NewSilenceDetector(m.store, runID, interval, func(rid string, at time.Time) {
		for _, cb := range callbacks {
			cb(rid, at)
		}
	})
	m.detectors[runID] = detector
	m.mu.Unlock()

	detector.Start(ctx)
}

// StopMonitoring stops and forgets runID's detector, if any.
func (m *HeartbeatManager) StopMonitoring(runID string) {
	m.mu.Lock()
	detector, ok := m.detectors[runID]
	if ok {
		delete(m.detectors, runID)
	}
	m.mu.Unlock()
	if ok {
		detector.Stop()
	}
}

// RecordHeartbeat records activity for runID if it is being monitored.
func (m *HeartbeatManager) RecordHeartbeat(runID string, ts time.Time) {
	m.mu.Lock()
	detector, ok := m.detectors[runID]
	m.mu.Unlock()
	if ok {
		detector.RecordActivity(ts)
	}
}

// StopAll stops every monitored run's detector.
func (m *HeartbeatManager) StopAll() {
	m.mu.Lock()
	detectors := make([]*SilenceDetector, 0, len(m.detectors))
	for _, d := range m.detectors {
		detectors = append(detectors, d)
	}
	m.detectors = make(map[string]*SilenceDetector)
	m.mu.Unlock()

	for _, d := range detectors {
		d.Stop()
	}
}
