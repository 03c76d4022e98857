package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"msupdates/internal/models"
)

// ErrNoMarkupRemediations is returned when markup parses but carries no CVRF remediations.
var ErrNoMarkupRemediations = errors.New("no remediations in markup")

// byLocalName matches an element regardless of its namespace prefix (prod:, vuln:, ...).
func byLocalName(axis, name string) string {
	return fmt.Sprintf("%s*[local-name()='%s']", axis, name)
}

func childText(n *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(n, byLocalName("./", name))
	if child == nil {
		return ""
	}

	return strings.TrimSpace(child.InnerText())
}

func childTexts(n *xmlquery.Node, name string) []string {
	var out []string

	for _, child := range xmlquery.Find(n, byLocalName("./", name)) {
		if text := strings.TrimSpace(child.InnerText()); text != "" {
			out = append(out, text)
		}
	}

	return out
}

// DecodeMarkup reads a CVRF XML document into the same canonical shape as the
// JSON form, so the structured extraction rules apply to it unchanged.
func DecodeMarkup(raw *models.RawDocument) (*models.StructuredDocument, error) {
	root, err := xmlquery.Parse(strings.NewReader(raw.Body))
	if err != nil {
		return nil, fmt.Errorf("decode markup %s: %w", raw.ID, err)
	}

	doc := &models.StructuredDocument{
		ID:  raw.ID,
		Raw: []byte(raw.Body),
	}
	if t := xmlquery.FindOne(root, byLocalName("//", "DocumentTitle")); t != nil {
		doc.Title = strings.TrimSpace(t.InnerText())
	}

	for _, n := range xmlquery.Find(root, byLocalName("//", "FullProductName")) {
		doc.Products = append(doc.Products, models.ProductEntry{
			ID:   strings.TrimSpace(n.SelectAttr("ProductID")),
			Name: strings.TrimSpace(n.InnerText()),
		})
	}

	remediations := 0

	for _, vn := range xmlquery.Find(root, byLocalName("//", "Vulnerability")) {
		vuln := models.VulnerabilityEntry{
			CVE:        childText(vn, "CVE"),
			Severities: make(map[string]string),
		}

		for _, tn := range xmlquery.Find(vn, byLocalName(".//", "Threat")) {
			label := childText(tn, "Description")
			if !strings.EqualFold(tn.SelectAttr("Type"), "Severity") || label == "" {
				continue
			}

			if vuln.Severity == "" {
				vuln.Severity = label
			}

			for _, pid := range childTexts(tn, "ProductID") {
				if _, ok := vuln.Severities[pid]; !ok {
					vuln.Severities[pid] = label
				}
			}
		}

		for _, rn := range xmlquery.Find(vn, byLocalName(".//", "Remediation")) {
			vuln.Remediations = append(vuln.Remediations, models.RemediationEntry{
				Description: childText(rn, "Description"),
				URL:         childText(rn, "URL"),
				ProductIDs:  childTexts(rn, "ProductID"),
			})
			remediations++
		}

		doc.Vulnerabilities = append(doc.Vulnerabilities, vuln)
	}

	if remediations == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMarkupRemediations, raw.ID)
	}

	return doc, nil
}
