// Package pipeline drives extraction across every document in the publication
// window. A failure while processing one document never affects another.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"msupdates/internal/batch"
	"msupdates/internal/extractor"
	"msupdates/internal/logger"
	"msupdates/internal/models"
	"msupdates/internal/normalizer"
	"msupdates/internal/parser"
)

// ErrExtractionPanic wraps a panic recovered while processing a document.
var ErrExtractionPanic = errors.New("extraction panicked")

// DocumentLister returns the documents published within a trailing window.
type DocumentLister interface {
	ListRecentDocuments(ctx context.Context, window time.Duration) ([]models.DocumentReference, error)
}

// DocumentFetcher returns the raw body of one document.
type DocumentFetcher interface {
	FetchDocumentBody(ctx context.Context, id string) ([]byte, error)
}

// Result is the outcome of a run.
type Result struct {
	// Err aggregates the per-document failures. Nil when every document was
	// extracted cleanly.
	Err       error
	Records   []models.Record
	Documents int
	Degraded  int
}

// Processor turns document references into records.
type Processor struct {
	lister    DocumentLister
	fetcher   DocumentFetcher
	parser    *parser.Parser
	extractor *extractor.Extractor
	chain     *extractor.Chain
	validator *normalizer.Validator
	log       *logger.Logger
}

// NewProcessor creates a processor. ex may be nil for the default extractor.
func NewProcessor(lister DocumentLister, fetcher DocumentFetcher, ex *extractor.Extractor, log *logger.Logger) *Processor {
	if ex == nil {
		ex = extractor.NewExtractor()
	}

	return &Processor{
		lister:    lister,
		fetcher:   fetcher,
		parser:    parser.NewParser(),
		extractor: ex,
		chain:     extractor.NewChain(ex),
		validator: normalizer.NewValidator(),
		log:       log,
	}
}

// ProcessDocument fetches, parses and extracts one document. It always returns
// at least one record. A non-nil error means the document could not be
// extracted and the single returned record is its degraded placeholder.
func (p *Processor) ProcessDocument(ctx context.Context, ref models.DocumentReference) (records []models.Record, err error) {
	log := p.log.With("document_id", ref.ID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrExtractionPanic, ref.ID, r)
		}

		if err != nil {
			log.Warn("document degraded", "error", err)

			records = []models.Record{p.extractor.DocumentLevelFailure(ref)}
		}
	}()

	doc, err := p.parser.Resolve(ctx, p.fetcher, ref.ID)
	if err != nil {
		return nil, err
	}

	records = p.chain.Records(ref, doc)
	if err := p.validator.ValidateAll(records, ref.ID); err != nil {
		return nil, fmt.Errorf("document %s: %w", ref.ID, err)
	}

	log.Debug("document extracted", "records", len(records), "kind", fmt.Sprintf("%T", doc))

	return records, nil
}

// Process runs ProcessDocument over refs in order and returns the records in
// document order with the per-document errors aggregated.
func (p *Processor) Process(ctx context.Context, refs []models.DocumentReference) ([]models.Record, int, error) {
	var (
		all      []models.Record
		errs     *multierror.Error
		degraded int
	)

	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}

		records, err := p.ProcessDocument(ctx, ref)
		if err != nil {
			errs = multierror.Append(errs, err)
			degraded++
		}

		all = append(all, records...)
	}

	return all, degraded, errs.ErrorOrNil()
}

// Run lists the documents of the window, processes each one and assembles the
// final batch. extra records are merged after the extracted ones, so extracted
// records win duplicate keys. Only a listing failure or cancellation fails the run.
func (p *Processor) Run(ctx context.Context, window time.Duration, extra ...models.Record) (*Result, error) {
	refs, err := p.lister.ListRecentDocuments(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	p.log.Info("processing documents", "count", len(refs), "window", window)

	records, degraded, docErr := p.Process(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted: %w", err)
	}

	records = append(records, extra...)

	result := &Result{
		Records:   batch.Assemble(records),
		Documents: len(refs),
		Degraded:  degraded,
		Err:       docErr,
	}

	p.log.Info("run complete",
		"documents", result.Documents,
		"degraded", result.Degraded,
		"records", len(result.Records),
		"extra", len(extra),
	)

	return result, nil
}
