package pennywise

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// FlushStatus represents the status of a flush job
type FlushStatus string

const (
	FlushStatusPending    FlushStatus = "pending"
	FlushStatusInProgress FlushStatus = "in_progress"
	FlushStatusCompleted  FlushStatus = "completed"
	FlushStatusFailed     FlushStatus = "failed"
	FlushStatusCancelled  FlushStatus = "cancelled"
	FlushStatusTimeout    FlushStatus = "timeout"
)

// flushJob implements the FlushJob interface with proper status tracking
type flushJob struct {
	store     *Store
	id        string
	startTime time.Time
	endTime   *time.Time

	// Status tracking
	status       atomic.Value // FlushStatus
	lastAttempt  time.Time
	attemptCount int32

	// Cancellation. cancelFunc is written by Wait and read by Cancel,
	// which may run on another goroutine.
	cancelFunc atomic.Value // context.CancelFunc
	cancelled  atomic.Bool

	// Error tracking
	lastError error
	errorLock sync.RWMutex
}

// newFlushJob creates a new flush job with proper initialization
func newFlushJob(store *Store) *flushJob {
	job := &flushJob{
		store:     store,
		id:        fmt.Sprintf("flush-%d", time.Now().UnixNano()),
		startTime: time.Now(),
	}

	job.status.Store(FlushStatusPending)

	return job
}

// ID returns the job ID
func (j *flushJob) ID() string {
	return j.id
}

// Status returns the current status
func (j *flushJob) Status() FlushStatus {
	return j.status.Load().(FlushStatus)
}

// Wait retries the flush until the outbox drains, with timeout and
// proper cancellation
func (j *flushJob) Wait(ctx context.Context, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Store cancel function for potential cancellation
	j.cancelFunc.Store(cancel)

	j.status.Store(FlushStatusInProgress)

	// Retry configuration
	const (
		initialInterval = 1 * time.Second
		maxInterval     = 10 * time.Second
		backoffFactor   = 2.0
	)

	// First attempt happens immediately, before any ticker wait
	if done, err := j.attempt(waitCtx); done {
		return err
	}

	currentInterval := initialInterval
	ticker := time.NewTicker(currentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			// Check if it was cancelled vs timeout
			if j.cancelled.Load() {
				j.status.Store(FlushStatusCancelled)
				return errors.New("flush job was cancelled")
			}

			j.status.Store(FlushStatusTimeout)
			now := time.Now()
			j.endTime = &now
			return ErrFlushTimeout

		case <-ticker.C:
			if done, err := j.attempt(waitCtx); done {
				return err
			}

			// Exponential backoff between attempts
			if currentInterval < maxInterval {
				currentInterval = time.Duration(float64(currentInterval) * backoffFactor)
				if currentInterval > maxInterval {
					currentInterval = maxInterval
				}
				ticker.Reset(currentInterval)
			}
		}
	}
}

// attempt runs a single flush pass. Returns done=true when the job
// reached a terminal state.
func (j *flushJob) attempt(ctx context.Context) (bool, error) {
	j.lastAttempt = time.Now()
	atomic.AddInt32(&j.attemptCount, 1)

	err := j.store.Flush(ctx)
	if err != nil {
		j.setError(err)

		// The mirror rejecting credentials will not heal on retry
		if errors.Is(err, ErrNotAuthenticated) {
			j.status.Store(FlushStatusFailed)
			now := time.Now()
			j.endTime = &now
			return true, err
		}

		return false, nil
	}

	if j.store.Pending() == 0 {
		j.status.Store(FlushStatusCompleted)
		now := time.Now()
		j.endTime = &now
		return true, nil
	}

	// New mutations landed mid-flush, go around again
	return false, nil
}

// Cancel cancels the job
func (j *flushJob) Cancel(ctx context.Context) error {
	j.cancelled.Store(true)

	if fn, ok := j.cancelFunc.Load().(context.CancelFunc); ok {
		fn()
	}

	j.status.Store(FlushStatusCancelled)
	now := time.Now()
	j.endTime = &now

	return nil
}

// Metrics returns job metrics
func (j *flushJob) Metrics() FlushJobMetrics {
	status := j.Status()
	duration := time.Since(j.startTime)
	if j.endTime != nil {
		duration = j.endTime.Sub(j.startTime)
	}

	return FlushJobMetrics{
		ID:           j.id,
		Status:       string(status),
		StartTime:    j.startTime,
		EndTime:      j.endTime,
		Duration:     duration,
		AttemptCount: int(atomic.LoadInt32(&j.attemptCount)),
		LastAttempt:  j.lastAttempt,
		Pending:      j.store.Pending(),
		LastError:    j.getError(),
	}
}

// setError sets the last error
func (j *flushJob) setError(err error) {
	j.errorLock.Lock()
	defer j.errorLock.Unlock()
	j.lastError = err
}

// getError gets the last error
func (j *flushJob) getError() error {
	j.errorLock.RLock()
	defer j.errorLock.RUnlock()
	return j.lastError
}

// FlushJobMetrics contains metrics about a flush job
type FlushJobMetrics struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	Duration     time.Duration `json:"duration"`
	AttemptCount int           `json:"attemptCount"`
	LastAttempt  time.Time     `json:"lastAttempt"`
	Pending      int           `json:"pending"`
	LastError    error         `json:"lastError,omitempty"`
}

// FlushJobManager manages multiple flush jobs
type FlushJobManager struct {
	jobs map[string]*flushJob
	mu   sync.RWMutex
}

// NewFlushJobManager creates a new flush job manager
func NewFlushJobManager() *FlushJobManager {
	return &FlushJobManager{
		jobs: make(map[string]*flushJob),
	}
}

// AddJob adds a job to the manager
func (m *FlushJobManager) AddJob(job *flushJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID()] = job
}

// GetJob retrieves a job by ID
func (m *FlushJobManager) GetJob(id string) (*flushJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, exists := m.jobs[id]
	return job, exists
}

// ListJobs lists all jobs
func (m *FlushJobManager) ListJobs() []*flushJob {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]*flushJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

// CleanupCompleted removes terminal jobs older than the specified duration
func (m *FlushJobManager) CleanupCompleted(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0

	for id, job := range m.jobs {
		status := job.Status()
		if (status == FlushStatusCompleted || status == FlushStatusFailed ||
			status == FlushStatusCancelled || status == FlushStatusTimeout) &&
			job.endTime != nil && now.Sub(*job.endTime) > olderThan {
			delete(m.jobs, id)
			removed++
		}
	}

	return removed
}
