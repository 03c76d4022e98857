// Package extractor turns parsed advisory documents into normalized records.
package extractor

import (
	"net/url"
	"time"

	"msupdates/internal/models"
	"msupdates/internal/normalizer"
	"msupdates/pkg/utils"
)

// Defaults for record fields that are not taken from the document.
const (
	DefaultSummaryWidth = 200
	DefaultSeverity     = "Unrated"
	DocumentSeverity    = "Update"
	DefaultTitle        = "Security update release"
	RemediationNote     = "Review the linked article for known issues before deploying."
	catalogSearchURL    = "https://catalog.update.microsoft.com/Search.aspx?q="
	releaseNoteURL      = "https://msrc.microsoft.com/update-guide/releaseNote/"
)

// Extractor builds records from remediation entries.
type Extractor struct {
	summaryWidth int
}

// NewExtractor creates an extractor with the default summary width.
func NewExtractor() *Extractor {
	return &Extractor{summaryWidth: DefaultSummaryWidth}
}

// NewExtractorWithConfig creates an extractor that truncates summaries at
// summaryWidth display cells.
func NewExtractorWithConfig(summaryWidth int) *Extractor {
	if summaryWidth <= 0 {
		summaryWidth = DefaultSummaryWidth
	}

	return &Extractor{summaryWidth: summaryWidth}
}

// Extract emits one record per (remediation entry, product id) pair, visiting the
// top-level remediations first and then each vulnerability's own list. Entries
// without a description or without an update identifier are skipped.
func (e *Extractor) Extract(ref models.DocumentReference, doc *models.StructuredDocument) []models.Record {
	catalog := doc.Catalog()

	var records []models.Record

	for _, entry := range doc.Remediations {
		records = append(records, e.entryRecords(ref, catalog, entry, nil)...)
	}

	for i := range doc.Vulnerabilities {
		vuln := &doc.Vulnerabilities[i]
		for _, entry := range vuln.Remediations {
			records = append(records, e.entryRecords(ref, catalog, entry, vuln)...)
		}
	}

	return records
}

func (e *Extractor) entryRecords(
	ref models.DocumentReference,
	catalog models.ProductCatalog,
	entry models.RemediationEntry,
	vuln *models.VulnerabilityEntry,
) []models.Record {
	if entry.Description == "" {
		return nil
	}

	id, ok := normalizer.FindIdentifier(entry.Description)
	if !ok {
		return nil
	}

	productIDs := entry.ProductIDs
	if len(productIDs) == 0 {
		// Unscoped: one record against the generic product.
		productIDs = []string{""}
	}

	link := entry.URL
	if !utils.IsValidURL(link) {
		link = CatalogSearchURL(id)
	}

	summary := e.summary(entry.Description)
	records := make([]models.Record, 0, len(productIDs))

	for _, pid := range productIDs {
		name, found := catalog[pid]
		if !found {
			name = normalizer.GenericProduct
		}

		severity := DefaultSeverity
		if vuln != nil {
			severity = utils.FirstNonEmpty(vuln.SeverityFor(pid), DefaultSeverity)
		}

		records = append(records, models.Record{
			Date:            recordDate(ref),
			Identifier:      id,
			Product:         normalizer.NormalizeProduct(name),
			Classification:  models.SecurityUpdate,
			Summary:         summary,
			RemediationNote: RemediationNote,
			Link:            link,
			Severity:        severity,
		})
	}

	return records
}

func (e *Extractor) summary(text string) string {
	return utils.TruncateString(utils.NormalizeWhitespace(text), e.summaryWidth)
}

// CatalogSearchURL returns the update catalog search page for an identifier.
func CatalogSearchURL(id string) string {
	return catalogSearchURL + url.QueryEscape(id)
}

func recordDate(ref models.DocumentReference) string {
	return ref.PublishedAt.UTC().Format(time.DateOnly)
}
