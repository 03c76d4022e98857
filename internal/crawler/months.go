package crawler

import (
	"context"
	"time"

	"msupdates/internal/models"
)

// monthIDLayout formats monthly release ids, e.g. "2023-Oct".
const monthIDLayout = "2006-Jan"

// MonthLister derives references for the monthly security releases from the
// calendar instead of the listing endpoint.
type MonthLister struct {
	now func() time.Time
}

// NewMonthLister creates a lister using now as the clock. A nil clock means time.Now.
func NewMonthLister(now func() time.Time) *MonthLister {
	if now == nil {
		now = time.Now
	}

	return &MonthLister{now: now}
}

// ListRecentDocuments returns one reference per calendar month overlapping the
// window, oldest first. Months whose release day is still ahead are omitted.
func (m *MonthLister) ListRecentDocuments(ctx context.Context, window time.Duration) ([]models.DocumentReference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := m.now().UTC()
	start := now.Add(-window)

	var refs []models.DocumentReference

	for cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(now); cur = cur.AddDate(0, 1, 0) {
		release := PatchTuesday(cur.Year(), cur.Month())
		if release.After(now) {
			continue
		}

		refs = append(refs, models.DocumentReference{
			ID:          cur.Format(monthIDLayout),
			Title:       cur.Format("January 2006") + " Security Updates",
			PublishedAt: release,
		})
	}

	return refs, nil
}

// PatchTuesday returns the second Tuesday of the month, in UTC.
func PatchTuesday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Tuesday) - int(first.Weekday()) + 7) % 7

	return first.AddDate(0, 0, offset+7)
}
