// Package parser turns raw advisory bodies into structured or raw documents.
package parser

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"msupdates/internal/models"
	"msupdates/pkg/utils"
)

var (
	utf8BOM          = []byte("\xef\xbb\xbf")
	errEmptyDocument = errors.New("empty body")
)

// Fetcher retrieves the raw body of one advisory document.
type Fetcher interface {
	FetchDocumentBody(ctx context.Context, id string) ([]byte, error)
}

// Parser decodes advisory bodies.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse returns a *models.StructuredDocument when body is JSON, a *models.RawDocument
// when it is markup, and a *MalformedDocumentError otherwise.
func (p *Parser) Parse(id string, body []byte) (models.ParsedDocument, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &MalformedDocumentError{ID: id, Cause: errEmptyDocument}
	}

	doc, jsonErr := decodeStructured(id, body)
	if jsonErr == nil {
		return doc, nil
	}

	if trimmed[0] == '<' {
		return &models.RawDocument{ID: id, Body: string(body)}, nil
	}

	return nil, &MalformedDocumentError{
		ID:     id,
		Prefix: utils.Prefix(strings.TrimSpace(string(trimmed)), diagnosticPrefixLen),
		Cause:  jsonErr,
	}
}

// Resolve fetches the body of id and parses it.
func (p *Parser) Resolve(ctx context.Context, fetcher Fetcher, id string) (models.ParsedDocument, error) {
	body, err := fetcher.FetchDocumentBody(ctx, id)
	if err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	return p.Parse(id, body)
}
