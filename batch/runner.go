package batch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"lyrics-downloader-go/config"
	"lyrics-downloader-go/logcolors"
	"lyrics-downloader-go/services/lyrics"
	"lyrics-downloader-go/stats"
)

// Fetcher fetches lyrics for one track. *lyrics.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, trackID string, format lyrics.Format) (*lyrics.Response, error)
}

var errJobCancelled = errors.New("job cancelled")

// Runner drives a job through its track list: a fixed number of tracks
// in flight at a time, a shared pause when the lyrics upstream rate
// limits, and per-track retry until the limiter relents.
type Runner struct {
	fetcher       Fetcher
	width         int
	rateLimitWait time.Duration
	pollInterval  time.Duration
}

func NewRunner(fetcher Fetcher) *Runner {
	conf := config.Get()
	return &Runner{
		fetcher:       fetcher,
		width:         conf.Configuration.BatchConcurrency,
		rateLimitWait: time.Duration(conf.Configuration.RateLimitWaitSeconds) * time.Second,
		pollInterval:  time.Duration(conf.Configuration.PausePollIntervalMs) * time.Millisecond,
	}
}

// Run processes the job's tracks to completion. It returns when the
// job is completed or cancelled.
func (r *Runner) Run(ctx context.Context, job *Job) {
	total := len(job.source)
	log.Infof("%s Job %s started: %d tracks, format=%s, width=%d",
		logcolors.LogBatch, job.ID, total, job.Format, r.width)

	for start := 0; start < total; start += r.width {
		if job.Cancelled() || ctx.Err() != nil {
			break
		}

		end := start + r.width
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				return r.processTrack(gctx, job, i)
			})
		}
		if err := g.Wait(); err != nil && !errors.Is(err, errJobCancelled) && !errors.Is(err, context.Canceled) {
			log.Errorf("%s Job %s batch %d-%d: %v", logcolors.LogBatch, job.ID, start, end-1, err)
		}
	}

	if job.Cancelled() {
		stats.Get().RecordJobCancelled()
		log.Infof("%s Job %s cancelled", logcolors.LogJob, job.ID)
		return
	}

	err := job.finalize()
	if job.Cancelled() { // cancel can land between the loop and finalize
		stats.Get().RecordJobCancelled()
		log.Infof("%s Job %s cancelled", logcolors.LogJob, job.ID)
		return
	}
	if err != nil {
		log.Errorf("%s Job %s archive serialization failed: %v", logcolors.LogArchive, job.ID, err)
	} else if data, ok := job.Archive(); ok {
		stats.Get().RecordArchive(len(data))
		log.Infof("%s Job %s archive ready: %d files, %s",
			logcolors.LogArchive, job.ID, job.builder.Len(), humanize.Bytes(uint64(len(data))))
	}
	stats.Get().RecordJobCompleted()

	snap := job.Snapshot()
	log.Infof("%s Job %s completed: %d/%d succeeded, %d failed",
		logcolors.LogJob, job.ID, snap.SuccessCount, snap.Total, snap.ErrorCount)
}

// processTrack fetches one track's lyrics, retrying for as long as the
// upstream keeps rate limiting. Every wait is cancel-aware.
func (r *Runner) processTrack(ctx context.Context, job *Job, index int) error {
	track := job.source[index]

	for {
		if err := r.waitWhilePaused(ctx, job); err != nil {
			return err
		}

		job.setTrack(index, TrackLoading, "")

		resp, err := r.fetcher.Fetch(ctx, track.ID, job.Format)
		if job.Cancelled() || ctx.Err() != nil {
			// the fetch was already in flight when the job was
			// cancelled; its result is discarded
			return errJobCancelled
		}
		if err == nil {
			text := lyrics.FormatText(resp, job.Format, track.Name, track.Duration, strings.Join(track.Artists, ", "), track.Album)
			name := lyrics.GenerateFilename(job.Tokens, index+1, track.Name, firstArtist(track.Artists), track.Album, job.Format, track.ID)
			job.addFile(name, []byte(text))
			job.setTrack(index, TrackSuccess, "")
			stats.Get().RecordTrackSuccess()
			return nil
		}

		var lyrErr *lyrics.Error
		if !errors.As(err, &lyrErr) {
			job.setTrack(index, TrackError, err.Error())
			stats.Get().RecordTrackFailure()
			return nil
		}

		switch {
		case lyrErr.RateLimited:
			wait := r.rateLimitWait
			if lyrErr.RetryAfter > wait {
				wait = lyrErr.RetryAfter
			}
			job.setTrack(index, TrackRateLimited, "Rate limited, waiting to retry")
			job.pause(wait, "lyrics API rate limit")
			stats.Get().RecordUpstreamRateLimit()
			stats.Get().RecordRateLimitPause()
			log.Warnf("%s Job %s rate limited on track %s, pausing %s",
				logcolors.LogRateLimit, job.ID, track.ID, wait)
			// loop: same track is retried after the pause lifts

		case lyrErr.NotAvailable:
			job.setTrack(index, TrackUnavailable, lyrErr.Message)
			stats.Get().RecordTrackUnavailable()
			return nil

		default:
			job.setTrack(index, TrackError, lyrErr.Message)
			stats.Get().RecordTrackFailure()
			return nil
		}
	}
}

// waitWhilePaused polls until the shared pause lifts, returning early
// on cancellation.
func (r *Runner) waitWhilePaused(ctx context.Context, job *Job) error {
	for {
		if job.Cancelled() {
			return errJobCancelled
		}
		remaining := job.pauseRemaining()
		if remaining == 0 {
			return nil
		}
		wait := r.pollInterval
		if remaining < wait {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-job.cancel:
			timer.Stop()
			return errJobCancelled
		case <-timer.C:
		}
	}
}

func firstArtist(artists []string) string {
	if len(artists) == 0 {
		return ""
	}
	return artists[0]
}
