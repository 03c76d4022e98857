package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"msupdates/internal/extractor"
	"msupdates/internal/models"
	"msupdates/internal/normalizer"
	"msupdates/pkg/utils"
)

// LoadExtraRecords reads hand-maintained JSON record lists. Entries without a
// date or an identifier are dropped, as are entries dated before since. Missing
// fields are filled with the defaults the extractor uses. Records are returned
// in file order, files in argument order.
func LoadExtraRecords(paths []string, since time.Time) ([]models.Record, error) {
	var out []models.Record

	cutoff := since.UTC().Format(time.DateOnly)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read extra records: %w", err)
		}

		var entries []map[string]any
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to parse extra records %s: %w", path, err)
		}

		for _, entry := range entries {
			rec, ok := recordFromEntry(entry)
			if !ok || rec.Date < cutoff {
				continue
			}

			out = append(out, rec)
		}
	}

	return out, nil
}

// field returns the string form of a loosely typed value, so numeric ids and
// dates survive.
func field(entry map[string]any, key string) string {
	return strings.TrimSpace(cast.ToString(entry[key]))
}

func recordFromEntry(entry map[string]any) (models.Record, bool) {
	date, ok := normalizeDate(field(entry, "date"))
	id := field(entry, "kb")

	if !ok || id == "" {
		return models.Record{}, false
	}

	// Canonicalize update ids ("kb 5031354", "5031354"); keep anything else verbatim.
	if canonical, ok := normalizer.CanonicalIdentifier(id); ok {
		id = canonical
	}

	link := field(entry, "link")
	if !utils.IsValidURL(link) {
		link = extractor.CatalogSearchURL(id)
	}

	return models.Record{
		Date:            date,
		Identifier:      id,
		Product:         normalizer.NormalizeProduct(field(entry, "product")),
		Classification:  classify(field(entry, "classification")),
		Summary:         utils.FirstNonEmpty(field(entry, "details"), id),
		RemediationNote: utils.FirstNonEmpty(field(entry, "known_issues"), extractor.RemediationNote),
		Link:            link,
		Severity:        utils.FirstNonEmpty(field(entry, "severity"), extractor.DefaultSeverity),
	}, true
}

// normalizeDate accepts an ISO calendar date or an RFC 3339 timestamp.
func normalizeDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t.Format(time.DateOnly), true
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.DateOnly), true
	}

	return "", false
}

// classify maps labels such as "Security Update (Patch Tuesday)" onto a known
// classification. Unknown labels become GenericUpdate.
func classify(label string) models.Classification {
	if c, err := models.ParseClassification(label); err == nil {
		return c
	}

	if i := strings.Index(label, "("); i > 0 {
		if c, err := models.ParseClassification(label[:i]); err == nil {
			return c
		}
	}

	if label == "" {
		return models.SecurityUpdate
	}

	return models.GenericUpdate
}
