package crawler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"msupdates/internal/logger"
)

func TestMirrorSet_Candidates(t *testing.T) {
	ms := NewMirrorSet([]string{"https://primary.example/", " ", "https://backup.example"})
	assert.Equal(t, []string{"https://primary.example", "https://backup.example"}, ms.Candidates())

	ms.RecordAttempt("https://primary.example", "https://primary.example/x", errors.New("boom"), 503, time.Millisecond)
	assert.Equal(t, []string{"https://primary.example", "https://backup.example"}, ms.Candidates(), "failure keeps order")

	ms.RecordAttempt("https://backup.example", "https://backup.example/x", nil, 200, time.Millisecond)
	assert.Equal(t, []string{"https://backup.example", "https://primary.example"}, ms.Candidates(), "success promotes")
	assert.Len(t, ms.GetAttemptLog("https://backup.example"), 1)
}

func TestMirrorSet_Empty(t *testing.T) {
	assert.Empty(t, NewMirrorSet(nil).Candidates())
}

func TestMirrorSet_Stats(t *testing.T) {
	ms := NewMirrorSet([]string{"https://a.example", "https://b.example", "https://c.example"})
	ms.RecordAttempt("https://a.example", "https://a.example/1", errors.New("timeout"), 0, time.Second)
	ms.RecordAttempt("https://a.example", "https://a.example/2", nil, 200, time.Second)
	ms.RecordAttempt("https://b.example", "https://b.example/1", errors.New("503"), 503, time.Second)

	stats := ms.GetAttemptStats()
	assert.Equal(t, 3, stats.TotalURLs)
	assert.Equal(t, 1, stats.SuccessfulURLs)
	assert.Equal(t, 1, stats.FailedURLs)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 1, stats.SuccessfulAttempts)
	assert.Equal(t, 2, stats.FailedAttempts)
	assert.Equal(t, 2, stats.URLAttempts["https://a.example"])
	assert.Contains(t, stats.String(), "Attempts: 3 total")

	log := ms.GetAttemptLog("https://a.example")
	if assert.Len(t, log, 2) {
		assert.False(t, log[0].Success)
		assert.Equal(t, "timeout", log[0].Error)
		assert.True(t, log[1].Success)
	}
}

func TestMirrorSet_LogAttemptSummary(t *testing.T) {
	var buf bytes.Buffer

	ms := NewMirrorSet([]string{"https://a.example", "https://b.example"})
	ms.RecordAttempt("https://a.example", "https://a.example/1", nil, 200, time.Millisecond)
	ms.LogAttemptSummary(logger.NewLoggerWithWriter(&buf, "info", logger.FormatText))

	out := buf.String()
	assert.Contains(t, out, "mirror attempts")
	assert.Contains(t, out, "mirror not attempted")
	assert.True(t, strings.Contains(out, "fetch summary"))
}
