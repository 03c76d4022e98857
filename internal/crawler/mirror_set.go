package crawler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"msupdates/internal/logger"
)

// ErrNoMirrors is returned when a MirrorSet has no base URLs.
var ErrNoMirrors = errors.New("no feed base URLs configured")

// MirrorSet holds the primary feed base URL and its backups, and records every
// fetch attempt made against them.
type MirrorSet struct {
	attemptLog map[string][]AttemptResult
	bases      []string
	preferred  int
	mu         sync.Mutex
}

// AttemptResult records the result of a fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// NewMirrorSet creates a mirror set. Blank entries are dropped and trailing
// slashes trimmed.
func NewMirrorSet(bases []string) *MirrorSet {
	ms := &MirrorSet{attemptLog: make(map[string][]AttemptResult)}

	for _, b := range bases {
		b = strings.TrimRight(strings.TrimSpace(b), "/")
		if b != "" {
			ms.bases = append(ms.bases, b)
		}
	}

	return ms
}

// Candidates returns the base URLs in the order they should be tried: the last
// base that succeeded first, then the rest in configured order.
func (ms *MirrorSet) Candidates() []string {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	out := make([]string, 0, len(ms.bases))
	if len(ms.bases) == 0 {
		return out
	}

	out = append(out, ms.bases[ms.preferred])
	for i, b := range ms.bases {
		if i != ms.preferred {
			out = append(out, b)
		}
	}

	return out
}

// RecordAttempt records the outcome of one fetch against base. A success makes
// base the preferred mirror.
func (ms *MirrorSet) RecordAttempt(base, url string, err error, statusCode int, duration time.Duration) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	ms.attemptLog[base] = append(ms.attemptLog[base], AttemptResult{
		URL:        url,
		Success:    err == nil,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})

	if err != nil {
		return
	}

	for i, b := range ms.bases {
		if b == base {
			ms.preferred = i

			break
		}
	}
}

// GetAttemptLog returns the attempts made against base.
func (ms *MirrorSet) GetAttemptLog(base string) []AttemptResult {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return append([]AttemptResult(nil), ms.attemptLog[base]...)
}

// GetAttemptStats returns statistics about fetch attempts.
func (ms *MirrorSet) GetAttemptStats() AttemptStats {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stats := AttemptStats{
		TotalURLs:   len(ms.bases),
		URLAttempts: make(map[string]int),
	}

	for base, results := range ms.attemptLog {
		stats.URLAttempts[base] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogAttemptSummary logs per-mirror fetch results using the provided logger.
func (ms *MirrorSet) LogAttemptSummary(l *logger.Logger) {
	for i, base := range ms.bases {
		results := ms.GetAttemptLog(base)
		if len(results) == 0 {
			l.Info("mirror not attempted", "index", i+1, "base_url", base)

			continue
		}

		var (
			failed    int
			lastError string
			elapsed   time.Duration
		)

		for _, r := range results {
			elapsed += r.Duration

			if !r.Success {
				failed++
				lastError = r.Error
			}
		}

		l.Info("mirror attempts",
			"index", i+1,
			"base_url", base,
			"attempts", len(results),
			"failed", failed,
			"elapsed", elapsed.Round(time.Millisecond),
		)

		if lastError != "" {
			l.Debug("mirror last error", "base_url", base, "error", lastError)
		}
	}

	l.Info("fetch summary", "stats", ms.GetAttemptStats().String())
}
