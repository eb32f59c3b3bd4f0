package pipeline

import (
	"math"
	"time"
)

// RetryStrategy selects how a retry manager picks a worker for a retried
// task.
type RetryStrategy string

const (
	RetryNone            RetryStrategy = "none"
	RetrySameWorker       RetryStrategy = "same_worker"
	RetryDifferentWorker  RetryStrategy = "different_worker"
	RetryAnyWorker        RetryStrategy = "any_worker"
)

// RetryPolicy configures a RetryManager.
type RetryPolicy struct {
	Strategy          RetryStrategy
	MaxRetries        int
	BackoffSeconds    float64
	BackoffMultiplier float64
}

// taskRetryState tracks a single task's retry bookkeeping.
type taskRetryState struct {
	attempt       int
	failedWorkers map[string]struct{}
	lastError     string
	lastFailedAt  time.Time
}

// RetryManager tracks per-task retry state under a fixed policy.
type RetryManager struct {
	policy RetryPolicy
	tasks  map[string]*taskRetryState
}

// NewRetryManager returns a manager governed by policy.
func NewRetryManager(policy RetryPolicy) *RetryManager {
	return &RetryManager{policy: policy, tasks: map[string]*taskRetryState{}}
}

func (r *RetryManager) state(taskID string) *taskRetryState {
	s, ok := r.tasks[taskID]
	if !ok {
		s = &taskRetryState{failedWorkers: map[string]struct{}{}}
		r.tasks[taskID] = s
	}
	return s
}

// RecordFailure registers a failed attempt for taskID on workerID.
func (r *RetryManager) RecordFailure(taskID, workerID, errMsg string, at time.Time) {
	s := r.state(taskID)
	s.attempt++
	s.failedWorkers[workerID] = struct{}{}
	s.lastError = errMsg
	s.lastFailedAt = at
}

// ShouldRetry reports whether taskID may be retried under the policy.
func (r *RetryManager) ShouldRetry(taskID string) bool {
	if r.policy.Strategy == RetryNone {
		return false
	}
	return r.state(taskID).attempt < r.policy.MaxRetries
}

// ExcludedWorkers returns the set of workers that must not be reselected
// for taskID, which is the failed-workers set only under the
// different_worker strategy.
func (r *RetryManager) ExcludedWorkers(taskID string) map[string]struct{} {
	if r.policy.Strategy != RetryDifferentWorker {
		return nil
	}
	return r.state(taskID).failedWorkers
}

// BackoffFor returns the delay before attempt n (1-indexed):
// backoff × multiplier^(n-1).
func (r *RetryManager) BackoffFor(attempt int) time.Duration {
	delay := r.policy.BackoffSeconds * math.Pow(r.policy.BackoffMultiplier, float64(attempt-1))
	return time.Duration(delay * float64(time.Second))
}

// Attempt returns the number of recorded failures for taskID.
func (r *RetryManager) Attempt(taskID string) int {
	return r.state(taskID).attempt
}
