package catalog

import (
	"strings"
)

// Mode selects how a classified name is matched against catalog rows.
type Mode int

const (
	// CatalogName matches a substring of the designator within the
	// inferred family's table only.
	CatalogName Mode = iota
	// ExactMatch matches designator, name or info, rejecting hits that are
	// immediately followed by another digit.
	ExactMatch
	// FreeText is a case-insensitive regular expression over designator,
	// name and info of every catalog.
	FreeText
)

func (m Mode) String() string {
	switch m {
	case CatalogName:
		return "catalog_name"
	case ExactMatch:
		return "exact_match"
	case FreeText:
		return "free_text"
	}
	return "unknown"
}

// Classification is the normalized form of a user supplied object name.
type Classification struct {
	Name   string // normalized lookup text
	Family string // catalog family, empty when unknown
	Mode   Mode
}

// rule is one entry of the ordered family inference chain.
type rule struct {
	family string
	mode   Mode
	match  func(up string) bool
	// normalize rewrites the upper-cased, space-free name.
	normalize func(up string) string
}

// rules are evaluated in order; the first match wins. Messier precedes NGC
// which precedes the generic Gum "G<digits>" form.
var rules = []rule{
	{
		family:    "Messier",
		match:     func(up string) bool { return digitPrefix(up, "M") || strings.HasPrefix(up, "MESSIER") },
		normalize: func(up string) string { return spaced("M", strings.TrimPrefix(up, "MESSIER"), "M") },
	},
	{
		family:    "NGC",
		match:     func(up string) bool { return strings.HasPrefix(up, "NGC") },
		normalize: func(up string) string { return spaced("NGC", up, "NGC") },
	},
	{
		family:    "IC",
		match:     func(up string) bool { return strings.HasPrefix(up, "IC") },
		normalize: func(up string) string { return spaced("IC", up, "IC") },
	},
	{
		family:    "RCW",
		match:     func(up string) bool { return strings.HasPrefix(up, "RCW") },
		normalize: func(up string) string { return spaced("RCW", up, "RCW") },
	},
	{
		family:    "Sharpless",
		match:     func(up string) bool { return strings.HasPrefix(up, "SH2") },
		normalize: func(up string) string { return up },
	},
	{
		// Gum nebulae are listed inside the RCW table as "G<n>".
		family: "RCW",
		mode:   ExactMatch,
		match:  func(up string) bool { return digitPrefix(up, "G") || strings.HasPrefix(up, "GUM") },
		normalize: func(up string) string {
			return "G" + strings.TrimPrefix(strings.TrimPrefix(up, "GUM"), "G")
		},
	},
	{
		family:    "Barnard",
		match:     func(up string) bool { return digitPrefix(up, "B") || strings.HasPrefix(up, "BARNARD") },
		normalize: func(up string) string { return spaced("B", strings.TrimPrefix(up, "BARNARD"), "B") },
	},
	{
		family:    "Cederblad",
		match:     func(up string) bool { return digitPrefix(up, "CED") || strings.HasPrefix(up, "CEDERBLAD") },
		normalize: func(up string) string { return spaced("Ced", strings.TrimPrefix(up, "CEDERBLAD"), "CED") },
	},
}

// Classify infers the catalog family and lookup mode of name. Names that
// match no rule are looked up as free text in every catalog.
func Classify(name string) Classification {
	trimmed := strings.Join(strings.Fields(name), " ")
	up := strings.ToUpper(strings.ReplaceAll(trimmed, " ", ""))

	for _, r := range rules {
		if r.match(up) {
			return Classification{Name: r.normalize(up), Family: r.family, Mode: r.mode}
		}
	}
	return Classification{Name: trimmed, Mode: FreeText}
}

// digitPrefix reports whether up starts with prefix followed by a digit.
func digitPrefix(up, prefix string) bool {
	return len(up) > len(prefix) && strings.HasPrefix(up, prefix) && isDigit(up[len(prefix)])
}

// spaced strips stripPrefix from up and joins the remainder to label with a
// single space: ("NGC", "NGC7000", "NGC") -> "NGC 7000".
func spaced(label, up, stripPrefix string) string {
	rest := strings.TrimPrefix(up, stripPrefix)
	if rest == "" {
		return label
	}
	return label + " " + rest
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
