package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchTuesday(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  string
	}{
		{2023, time.October, "2023-10-10"},
		{2023, time.November, "2023-11-14"},
		{2024, time.January, "2024-01-09"},
		{2024, time.October, "2024-10-08"},
		{2025, time.December, "2025-12-09"},
	}

	for _, tt := range tests {
		got := PatchTuesday(tt.year, tt.month)
		assert.Equal(t, tt.want, got.Format(time.DateOnly), "%d-%s", tt.year, tt.month)
		assert.Equal(t, time.Tuesday, got.Weekday())
	}
}

func TestMonthLister(t *testing.T) {
	now := time.Date(2023, time.December, 5, 12, 0, 0, 0, time.UTC)
	lister := NewMonthLister(func() time.Time { return now })

	refs, err := lister.ListRecentDocuments(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)

	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}

	// December's release (the 12th) has not happened yet.
	assert.Equal(t, []string{"2023-Sep", "2023-Oct", "2023-Nov"}, ids)
	assert.Equal(t, "October 2023 Security Updates", refs[1].Title)
	assert.Equal(t, PatchTuesday(2023, time.October), refs[1].PublishedAt)
}

func TestMonthLister_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMonthLister(nil).ListRecentDocuments(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
