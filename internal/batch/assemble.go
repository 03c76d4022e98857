// Package batch merges the records of a run into the final output sequence.
package batch

import (
	"sort"

	"msupdates/internal/models"
)

// Assemble drops records whose key was already seen, keeping the first
// occurrence, and orders the rest by date descending. Records with equal dates
// keep their input order. The input slice is not modified.
func Assemble(records []models.Record) []models.Record {
	seen := make(map[models.RecordKey]struct{}, len(records))
	out := make([]models.Record, 0, len(records))

	for _, r := range records {
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, r)
	}

	// ISO dates order lexically.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})

	return out
}
