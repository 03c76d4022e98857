package models

import "time"

// DocumentReference is the listing entry for one advisory document.
type DocumentReference struct {
	PublishedAt time.Time `json:"publishedAt"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
}

// ParsedDocument is either a *StructuredDocument or a *RawDocument.
type ParsedDocument interface {
	DocumentID() string
	// Text returns the document body used by the raw text scan.
	Text() string
	parsedDocument()
}

// StructuredDocument is an advisory decoded from its JSON form.
type StructuredDocument struct {
	ID              string
	Title           string
	Raw             []byte
	Products        []ProductEntry
	Remediations    []RemediationEntry
	Vulnerabilities []VulnerabilityEntry
}

// DocumentID implements ParsedDocument.
func (d *StructuredDocument) DocumentID() string { return d.ID }

// Text implements ParsedDocument.
func (d *StructuredDocument) Text() string { return string(d.Raw) }

func (d *StructuredDocument) parsedDocument() {}

// Catalog builds the product id to name mapping for this document. Entries
// without an id or a name are skipped.
func (d *StructuredDocument) Catalog() ProductCatalog {
	catalog := make(ProductCatalog, len(d.Products))
	for _, p := range d.Products {
		if p.ID == "" || p.Name == "" {
			continue
		}

		catalog[p.ID] = p.Name
	}

	return catalog
}

// RawDocument wraps a body that could not be decoded as JSON but looks like markup.
type RawDocument struct {
	ID   string
	Body string
}

// DocumentID implements ParsedDocument.
func (d *RawDocument) DocumentID() string { return d.ID }

// Text implements ParsedDocument.
func (d *RawDocument) Text() string { return d.Body }

func (d *RawDocument) parsedDocument() {}

// ProductEntry is one product tree leaf.
type ProductEntry struct {
	ID   string
	Name string
}

// ProductCatalog maps product ids to raw product names within a single document.
type ProductCatalog map[string]string

// RemediationEntry is the canonical form of a remediation, regardless of the schema
// variant it was decoded from. An empty ProductIDs means the entry is unscoped.
type RemediationEntry struct {
	Description string
	URL         string
	ProductIDs  []string
}

// VulnerabilityEntry groups the remediations listed under one vulnerability.
// Severities maps product id to the severity label of that product.
type VulnerabilityEntry struct {
	Severities   map[string]string
	CVE          string
	Severity     string
	Remediations []RemediationEntry
}

// SeverityFor returns the severity label for productID, falling back to the
// vulnerability-wide label.
func (v VulnerabilityEntry) SeverityFor(productID string) string {
	if s, ok := v.Severities[productID]; ok && s != "" {
		return s
	}

	return v.Severity
}
