// Package models defines data structures for advisory documents and the records extracted from them.
package models

import (
	"fmt"
	"strings"
)

// Classification is the update category shown for a record.
type Classification string

// Known classifications.
const (
	SecurityUpdate Classification = "Security Update"
	GenericUpdate  Classification = "Update"
	Preview        Classification = "Preview"
	OutOfBand      Classification = "Out-of-band"
)

var classifications = []Classification{SecurityUpdate, GenericUpdate, Preview, OutOfBand}

// ParseClassification maps a label to a Classification, ignoring case and surrounding whitespace.
func ParseClassification(s string) (Classification, error) {
	s = strings.TrimSpace(s)
	for _, c := range classifications {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}

	// "Out of band" and "OOB" show up in hand-edited lists.
	switch strings.ToLower(s) {
	case "out of band", "oob", "outofband":
		return OutOfBand, nil
	case "security", "securityupdate":
		return SecurityUpdate, nil
	}

	return "", fmt.Errorf("unknown classification %q", s)
}

// Record is one normalized update row. Field names in JSON and CSV are a compatibility
// contract with the dashboard that reads updates.json.
type Record struct {
	Date            string         `json:"date" csv:"date"`
	Identifier      string         `json:"kb" csv:"kb"`
	Product         string         `json:"product" csv:"product"`
	Classification  Classification `json:"classification" csv:"classification"`
	Summary         string         `json:"details" csv:"details"`
	RemediationNote string         `json:"known_issues" csv:"known_issues"`
	Link            string         `json:"link" csv:"link"`
	Severity        string         `json:"severity" csv:"severity"`
}

// RecordKey identifies a record within a batch.
type RecordKey struct {
	Date       string
	Identifier string
	Product    string
}

// Key returns the uniqueness key of the record.
func (r Record) Key() RecordKey {
	return RecordKey{Date: r.Date, Identifier: r.Identifier, Product: r.Product}
}
