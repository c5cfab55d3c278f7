package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lyrics-downloader-go/config"
	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/stats"
)

var (
	ErrNoTracks = errors.New("no tracks to download")
	ErrNotFound = errors.New("job not found")
)

// Manager owns the live job registry. Jobs run in their own goroutine
// and stay pollable for a retention window after they finish.
type Manager struct {
	fetcher   Fetcher
	newRunner func(Fetcher) *Runner
	retention time.Duration

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewManager(fetcher Fetcher) *Manager {
	conf := config.Get()
	return &Manager{
		fetcher:   fetcher,
		newRunner: NewRunner,
		retention: time.Duration(conf.Configuration.JobRetentionMinutes) * time.Minute,
		jobs:      map[string]*Job{},
	}
}

// Start registers a new job and begins processing it in the
// background. The returned job is immediately pollable. A request
// carrying its own lyrics API base gets a dedicated fetch client.
func (m *Manager) Start(req Request) (*Job, error) {
	if len(req.Tracks) == 0 {
		return nil, ErrNoTracks
	}

	fetcher := m.fetcher
	if req.APIBase != "" {
		fetcher = lyrics.NewClient(req.APIBase)
	}

	job := newJob(uuid.NewString(), req)

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	stats.Get().RecordJobStarted()
	go m.newRunner(fetcher).Run(context.Background(), job)

	return job, nil
}

// Get looks up a job by ID.
func (m *Manager) Get(id string) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job, nil
}

// Cancel stops a running job. Cancelling a finished job is a no-op.
func (m *Manager) Cancel(id string) (*Job, error) {
	job, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if job.Cancel() {
		log.Infof("%s Job %s cancel requested", logcolors.LogJob, id)
	}
	return job, nil
}

// Len reports the number of registered jobs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.jobs)
}

// Sweep drops jobs that finished more than the retention window ago,
// returning how many were removed. Live jobs are never touched.
func (m *Manager) Sweep() int {
	cutoff := time.Now().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		doneAt := job.doneSince()
		if !doneAt.IsZero() && doneAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	if removed > 0 {
		log.Infof("%s Swept %d expired jobs, %d remaining", logcolors.LogJob, removed, len(m.jobs))
	}
	return removed
}
