package batch

import (
	"sync"
	"time"

	"lyrics-downloader-go/archive"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/services/spotify"
)

// TrackStatus is the lifecycle of a single track within a job.
type TrackStatus string

const (
	TrackPending     TrackStatus = "pending"
	TrackLoading     TrackStatus = "loading"
	TrackSuccess     TrackStatus = "success"
	TrackError       TrackStatus = "error"
	TrackUnavailable TrackStatus = "unavailable"
	TrackRateLimited TrackStatus = "rate-limited"
)

// JobState is the lifecycle of a whole download job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobPaused    JobState = "paused"
	JobCompleted JobState = "completed"
	JobCancelled JobState = "cancelled"
)

// TrackProgress is the per-track view reported to pollers.
type TrackProgress struct {
	TrackID   string      `json:"trackId"`
	TrackName string      `json:"trackName"`
	Status    TrackStatus `json:"status"`
	Message   string      `json:"message,omitempty"`
}

// Request describes a download job to start.
type Request struct {
	Tracks         []spotify.Track
	Format         lyrics.Format
	FilenameTokens []string
	Title          string // collection name, used for the archive filename
	APIBase        string // optional lyrics API override for this job
}

// Job tracks the progress of one batch download. All mutable state is
// guarded by mu; workers and pollers share it.
type Job struct {
	ID        string
	Title     string
	Format    lyrics.Format
	Tokens    []string
	CreatedAt time.Time

	source []spotify.Track

	mu          sync.Mutex
	state       JobState
	tracks      []TrackProgress
	success     int
	failed      int
	pauseUntil  time.Time
	pauseReason string
	doneAt      time.Time

	builder *archive.Builder
	zipData []byte

	cancel chan struct{}
}

func newJob(id string, req Request) *Job {
	tracks := make([]TrackProgress, len(req.Tracks))
	for i, t := range req.Tracks {
		tracks[i] = TrackProgress{TrackID: t.ID, TrackName: t.Name, Status: TrackPending}
	}
	tokens := req.FilenameTokens
	if len(tokens) == 0 {
		tokens = lyrics.DefaultFilenameTokens
	}
	return &Job{
		ID:        id,
		Title:     req.Title,
		Format:    req.Format,
		Tokens:    tokens,
		CreatedAt: time.Now(),
		source:    req.Tracks,
		state:     JobRunning,
		tracks:    tracks,
		builder:   archive.NewBuilder(),
		cancel:    make(chan struct{}),
	}
}

// setTrack updates one track's status. Success and terminal failures
// bump the job counters. Ignored once the job is cancelled, so results
// still in flight at that moment cannot move the snapshot.
func (j *Job) setTrack(index int, status TrackStatus, message string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobCancelled {
		return
	}
	j.tracks[index].Status = status
	j.tracks[index].Message = message
	switch status {
	case TrackSuccess:
		j.success++
	case TrackError, TrackUnavailable:
		j.failed++
	}
}

// addFile stores a formatted lyrics file in the job archive. Ignored
// once the job is cancelled.
func (j *Job) addFile(name string, content []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobCancelled {
		return
	}
	j.builder.Add(name, content)
}

// pause suspends all workers until now+wait. An already-later deadline
// from a concurrent limiter hit is kept.
func (j *Job) pause(wait time.Duration, reason string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	until := time.Now().Add(wait)
	if until.After(j.pauseUntil) {
		j.pauseUntil = until
	}
	j.pauseReason = reason
	if j.state == JobRunning {
		j.state = JobPaused
	}
}

// pauseRemaining reports how much longer workers must hold off. Zero
// means not paused; calling it after the deadline resumes the job.
func (j *Job) pauseRemaining() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	remaining := time.Until(j.pauseUntil)
	if remaining <= 0 {
		if j.state == JobPaused {
			j.state = JobRunning
			j.pauseReason = ""
		}
		return 0
	}
	return remaining
}

// Cancel stops the job. Counts and archive entries freeze at their
// current value; fetches still in flight are discarded and the archive
// is never finalized. Safe to call more than once.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobCompleted || j.state == JobCancelled {
		return false
	}
	j.state = JobCancelled
	j.doneAt = time.Now()
	close(j.cancel)
	return true
}

// Cancelled reports whether the job was cancelled.
func (j *Job) Cancelled() bool {
	select {
	case <-j.cancel:
		return true
	default:
		return false
	}
}

// finalize marks the job completed and serializes the archive when at
// least one track succeeded. No-op on cancelled jobs.
func (j *Job) finalize() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobCancelled {
		return nil
	}
	j.state = JobCompleted
	j.doneAt = time.Now()
	if j.success == 0 {
		return nil
	}
	data, err := j.builder.Serialize()
	if err != nil {
		return err
	}
	j.zipData = data
	return nil
}

// Archive returns the finished ZIP, or ok=false while the job is still
// running, was cancelled, or produced nothing.
func (j *Job) Archive() ([]byte, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != JobCompleted || j.zipData == nil {
		return nil, false
	}
	return j.zipData, true
}

// Done reports whether the job reached a terminal state.
func (j *Job) Done() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state == JobCompleted || j.state == JobCancelled
}

// doneSince reports when a terminal job finished (zero for live jobs).
func (j *Job) doneSince() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobCompleted || j.state == JobCancelled {
		return j.doneAt
	}
	return time.Time{}
}

// Snapshot is the point-in-time job view returned to pollers.
type Snapshot struct {
	ID           string          `json:"id"`
	Title        string          `json:"title,omitempty"`
	State        JobState        `json:"state"`
	Total        int             `json:"total"`
	SuccessCount int             `json:"successCount"`
	ErrorCount   int             `json:"errorCount"`
	Tracks       []TrackProgress `json:"tracks"`
	ArchiveReady bool            `json:"archiveReady"`
	PauseReason  string          `json:"pauseReason,omitempty"`
	PausedForMs  int64           `json:"pausedForMs,omitempty"`
}

// Snapshot copies the current progress under the job lock.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	tracks := make([]TrackProgress, len(j.tracks))
	copy(tracks, j.tracks)
	snap := Snapshot{
		ID:           j.ID,
		Title:        j.Title,
		State:        j.state,
		Total:        len(j.tracks),
		SuccessCount: j.success,
		ErrorCount:   j.failed,
		Tracks:       tracks,
		ArchiveReady: j.state == JobCompleted && j.zipData != nil,
	}
	if remaining := time.Until(j.pauseUntil); j.state == JobPaused && remaining > 0 {
		snap.PauseReason = j.pauseReason
		snap.PausedForMs = remaining.Milliseconds()
	}
	return snap
}
