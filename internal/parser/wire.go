package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"msupdates/internal/models"
)

// severityThreatType is the CVRF threat type carrying a severity label.
const severityThreatType = 3

// flexString decodes a JSON string, number, or CVRF {"Value": ...} wrapper.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	text, err := scalarString(v)
	if err != nil {
		return err
	}

	*s = flexString(text)

	return nil
}

// productIDs decodes a single id, a list of ids, or null. Numeric ids are
// rendered without exponent or fraction.
type productIDs []string

func (p *productIDs) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}

	ids := make([]string, 0, len(items))

	for _, item := range items {
		id, err := scalarString(item)
		if err != nil {
			return fmt.Errorf("product id: %w", err)
		}

		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	*p = ids

	return nil
}

func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case map[string]any:
		for k, inner := range t {
			if strings.EqualFold(k, "Value") {
				return scalarString(inner)
			}
		}

		return "", nil
	default:
		return cast.ToStringE(t)
	}
}

type wireDocument struct {
	DocumentTitle   flexString          `json:"DocumentTitle"`
	Title           flexString          `json:"Title"`
	ProductTree     wireProductTree     `json:"ProductTree"`
	Remediations    []wireRemediation   `json:"Remediations"`
	Vulnerability   []wireVulnerability `json:"Vulnerability"`
	Vulnerabilities []wireVulnerability `json:"Vulnerabilities"`
}

type wireProductTree struct {
	FullProductName []wireProduct `json:"FullProductName"`
	Branch          []wireProduct `json:"Branch"`
}

// wireProduct is either a branch (Items set) or a leaf product.
type wireProduct struct {
	ProductID flexString    `json:"ProductID"`
	Value     flexString    `json:"Value"`
	Name      flexString    `json:"Name"`
	Items     []wireProduct `json:"Items"`
}

type wireRemediation struct {
	Description flexString `json:"Description"`
	URL         flexString `json:"URL"`
	ProductID   productIDs `json:"ProductID"`
	ProductIDs  productIDs `json:"ProductIDs"`
}

type wireThreat struct {
	Type        any        `json:"Type"`
	Description flexString `json:"Description"`
	ProductID   productIDs `json:"ProductID"`
}

type wireVulnerability struct {
	CVE          flexString        `json:"CVE"`
	Threats      []wireThreat      `json:"Threats"`
	Remediations []wireRemediation `json:"Remediations"`
}

func (t wireThreat) isSeverity() bool {
	if s, ok := t.Type.(string); ok && strings.EqualFold(strings.TrimSpace(s), "severity") {
		return true
	}

	return cast.ToInt(t.Type) == severityThreatType
}

// decodeStructured decodes body into the canonical document shape.
func decodeStructured(id string, body []byte) (*models.StructuredDocument, error) {
	var w wireDocument
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, err
	}

	doc := &models.StructuredDocument{
		ID:    id,
		Title: strings.TrimSpace(string(w.DocumentTitle)),
		Raw:   body,
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSpace(string(w.Title))
	}

	doc.Products = flattenProducts(append(w.ProductTree.FullProductName, w.ProductTree.Branch...), nil)

	for _, r := range w.Remediations {
		doc.Remediations = append(doc.Remediations, r.canonical())
	}

	for _, v := range append(w.Vulnerability, w.Vulnerabilities...) {
		doc.Vulnerabilities = append(doc.Vulnerabilities, v.canonical())
	}

	return doc, nil
}

func flattenProducts(nodes []wireProduct, out []models.ProductEntry) []models.ProductEntry {
	for _, n := range nodes {
		if len(n.Items) > 0 {
			out = flattenProducts(n.Items, out)

			continue
		}

		name := string(n.Value)
		if strings.TrimSpace(name) == "" {
			name = string(n.Name)
		}

		out = append(out, models.ProductEntry{
			ID:   strings.TrimSpace(string(n.ProductID)),
			Name: strings.TrimSpace(name),
		})
	}

	return out
}

func (r wireRemediation) canonical() models.RemediationEntry {
	ids := make([]string, 0, len(r.ProductID)+len(r.ProductIDs))
	ids = append(ids, r.ProductID...)
	ids = append(ids, r.ProductIDs...)

	return models.RemediationEntry{
		Description: strings.TrimSpace(string(r.Description)),
		URL:         strings.TrimSpace(string(r.URL)),
		ProductIDs:  ids,
	}
}

func (v wireVulnerability) canonical() models.VulnerabilityEntry {
	entry := models.VulnerabilityEntry{
		CVE:        strings.TrimSpace(string(v.CVE)),
		Severities: make(map[string]string),
	}

	for _, t := range v.Threats {
		label := strings.TrimSpace(string(t.Description))
		if !t.isSeverity() || label == "" {
			continue
		}

		if entry.Severity == "" {
			entry.Severity = label
		}

		for _, pid := range t.ProductID {
			if _, ok := entry.Severities[pid]; !ok {
				entry.Severities[pid] = label
			}
		}
	}

	for _, r := range v.Remediations {
		entry.Remediations = append(entry.Remediations, r.canonical())
	}

	return entry
}
