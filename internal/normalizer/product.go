// Package normalizer maps free-text advisory fields onto the canonical values used in records.
package normalizer

import (
	"regexp"
	"strings"
)

// GenericProduct labels records whose product could not be resolved.
const GenericProduct = "Microsoft Products"

// IdentifierPattern matches update identifiers such as KB5031354 or "kb 5031354".
// The first group holds the digits. Only the ASCII letters K and B are accepted.
var IdentifierPattern = regexp.MustCompile(`\b[Kk][Bb]\s*(\d{6,8})\b`)

// CanonicalIdentifierPattern matches an identifier in its canonical KB<digits> form.
var CanonicalIdentifierPattern = regexp.MustCompile(`^KB\d{6,8}$`)

var (
	// bareIdentifierPattern matches descriptions that hold only the numeric part of a KB id.
	bareIdentifierPattern  = regexp.MustCompile(`^\d{6,8}$`)
	exactIdentifierPattern = regexp.MustCompile(`^[Kk][Bb]\s*(\d{6,8})$`)
)

// productRule assigns label when the lower-cased name contains every string in
// all and, if any is set, at least one string in any.
type productRule struct {
	label string
	all   []string
	any   []string
}

func (r productRule) matches(name string) bool {
	for _, s := range r.all {
		if !strings.Contains(name, s) {
			return false
		}
	}

	if len(r.any) == 0 {
		return true
	}

	for _, s := range r.any {
		if strings.Contains(name, s) {
			return true
		}
	}

	return false
}

// productRules is evaluated top to bottom; the first match wins. Feature-update
// waves come before the bare OS name and R2 releases before the bare year.
var productRules = []productRule{
	{label: "Windows 11 24H2", all: []string{"windows 11", "24h2"}},
	{label: "Windows 11 22H2 / 23H2", all: []string{"windows 11"}, any: []string{"22h2", "23h2"}},
	{label: "Windows 11 21H2", all: []string{"windows 11", "21h2"}},
	{label: "Windows 11", all: []string{"windows 11"}},
	{label: "Windows 10", all: []string{"windows 10"}},
	{label: "Windows Server 2025", all: []string{"windows server 2025"}},
	{label: "Windows Server 2022", all: []string{"windows server 2022"}},
	{label: "Windows Server 2019", all: []string{"windows server 2019"}},
	{label: "Windows Server 2016", all: []string{"windows server 2016"}},
	{label: "Windows Server 2012 R2", all: []string{"windows server 2012 r2"}},
	{label: "Windows Server 2012", all: []string{"windows server 2012"}},
	{label: "Windows Server 2008 R2", all: []string{"windows server 2008 r2"}},
	{label: "Windows Server 2008", all: []string{"windows server 2008"}},
}

// NormalizeProduct returns the canonical product family for a raw product name.
// Names that match no rule are returned trimmed; blank names become GenericProduct.
func NormalizeProduct(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if name == "" {
		return GenericProduct
	}

	lower := strings.ToLower(name)
	for _, rule := range productRules {
		if rule.matches(lower) {
			return rule.label
		}
	}

	return name
}

// FindIdentifier returns the first update identifier in text as KB<digits>. A
// text that is nothing but 6 to 8 digits is read as the numeric part of a KB id.
func FindIdentifier(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if bareIdentifierPattern.MatchString(text) {
		return "KB" + text, true
	}

	match := IdentifierPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	return "KB" + match[1], true
}

// CanonicalIdentifier reports whether s, as a whole, is an update identifier
// ("KB5031354", "kb 5031354" or "5031354") and returns it as KB<digits>.
func CanonicalIdentifier(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if bareIdentifierPattern.MatchString(s) {
		return "KB" + s, true
	}

	if m := exactIdentifierPattern.FindStringSubmatch(s); m != nil {
		return "KB" + m[1], true
	}

	return "", false
}

// FindAllIdentifiers returns every distinct identifier in text as KB<digits>, in
// order of first appearance.
func FindAllIdentifiers(text string) []string {
	matches := IdentifierPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))

	var ids []string

	for _, m := range matches {
		id := "KB" + m[1]
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids
}
