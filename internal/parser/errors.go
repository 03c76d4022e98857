package parser

import (
	"errors"
	"fmt"
)

// Parser errors.
var (
	ErrFetchFailure      = errors.New("document fetch failed")
	ErrMalformedDocument = errors.New("malformed document")
)

// diagnosticPrefixLen bounds how much of a bad body is kept in errors.
const diagnosticPrefixLen = 80

// FetchError reports that the body of a document could not be retrieved.
type FetchError struct {
	Err error
	ID  string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch document %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailure, e.Err}
}

// MalformedDocumentError reports a body that is neither JSON nor markup.
type MalformedDocumentError struct {
	Cause  error
	ID     string
	Prefix string
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("document %s is neither JSON nor markup (starts with %q): %v", e.ID, e.Prefix, e.Cause)
}

func (e *MalformedDocumentError) Unwrap() []error {
	return []error{ErrMalformedDocument, e.Cause}
}
