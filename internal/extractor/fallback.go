package extractor

import (
	"fmt"
	"net/url"

	"msupdates/internal/models"
	"msupdates/internal/normalizer"
	"msupdates/internal/parser"
	"msupdates/pkg/utils"
)

// Tier produces records for a document, or nothing to pass control to the next tier.
type Tier func(ref models.DocumentReference, doc models.ParsedDocument) []models.Record

// Chain tries its tiers in order and returns the first non-empty result. The
// last tier of every chain always yields a record.
type Chain struct {
	extractor  *Extractor
	structured []Tier
	raw        []Tier
}

// NewChain creates the fallback chain around e.
func NewChain(e *Extractor) *Chain {
	return &Chain{
		extractor:  e,
		structured: []Tier{e.StructuredTier, e.TextScan, e.DocumentLevel},
		raw:        []Tier{e.MarkupRemediations, e.TextScan, e.DocumentLevel},
	}
}

// Records returns one or more records for doc.
func (c *Chain) Records(ref models.DocumentReference, doc models.ParsedDocument) []models.Record {
	tiers := c.raw
	if _, ok := doc.(*models.StructuredDocument); ok {
		tiers = c.structured
	}

	for _, tier := range tiers {
		if records := tier(ref, doc); len(records) > 0 {
			return records
		}
	}

	return c.extractor.DocumentLevel(ref, doc)
}

// StructuredTier applies Extract to structured documents.
func (e *Extractor) StructuredTier(ref models.DocumentReference, doc models.ParsedDocument) []models.Record {
	sd, ok := doc.(*models.StructuredDocument)
	if !ok {
		return nil
	}

	return e.Extract(ref, sd)
}

// MarkupRemediations decodes CVRF XML bodies and applies Extract to the result.
func (e *Extractor) MarkupRemediations(ref models.DocumentReference, doc models.ParsedDocument) []models.Record {
	raw, ok := doc.(*models.RawDocument)
	if !ok {
		return nil
	}

	sd, err := parser.DecodeMarkup(raw)
	if err != nil {
		return nil
	}

	return e.Extract(ref, sd)
}

// TextScan emits one record per distinct update identifier found anywhere in
// the document text.
func (e *Extractor) TextScan(ref models.DocumentReference, doc models.ParsedDocument) []models.Record {
	ids := normalizer.FindAllIdentifiers(doc.Text())
	if len(ids) == 0 {
		return nil
	}

	source := ref.Title
	if source == "" {
		source = "advisory " + doc.DocumentID()
	}

	records := make([]models.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, models.Record{
			Date:            recordDate(ref),
			Identifier:      id,
			Product:         normalizer.GenericProduct,
			Classification:  models.SecurityUpdate,
			Summary:         e.summary(fmt.Sprintf("%s referenced in %s (found by raw text scan)", id, source)),
			RemediationNote: RemediationNote,
			Link:            CatalogSearchURL(id),
			Severity:        DefaultSeverity,
		})
	}

	return records
}

// DocumentLevel emits exactly one record keyed by the document id.
func (e *Extractor) DocumentLevel(ref models.DocumentReference, doc models.ParsedDocument) []models.Record {
	id := ref.ID
	if doc != nil && id == "" {
		id = doc.DocumentID()
	}

	title := ref.Title
	if sd, ok := doc.(*models.StructuredDocument); ok && title == "" {
		title = sd.Title
	}

	return []models.Record{e.documentRecord(ref, id, utils.FirstNonEmpty(title, DefaultTitle))}
}

// DocumentLevelFailure is the document-level record for a document whose
// processing failed. The error itself is reported by the caller.
func (e *Extractor) DocumentLevelFailure(ref models.DocumentReference) models.Record {
	title := utils.FirstNonEmpty(ref.Title, DefaultTitle)

	return e.documentRecord(ref, ref.ID, title+" (extraction failed)")
}

func (e *Extractor) documentRecord(ref models.DocumentReference, id, summary string) models.Record {
	return models.Record{
		Date:            recordDate(ref),
		Identifier:      id,
		Product:         normalizer.GenericProduct,
		Classification:  models.GenericUpdate,
		Summary:         e.summary(summary),
		RemediationNote: RemediationNote,
		Link:            releaseNoteURL + url.PathEscape(id),
		Severity:        DocumentSeverity,
	}
}
