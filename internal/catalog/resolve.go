package catalog

import (
	"regexp"
	"strings"
)

// Resolve searches catalogs in order and returns the first matching entry.
// When the classification names a family, catalogs of other families are
// skipped.
func Resolve(catalogs []Catalog, cl Classification) (Entry, bool) {
	match := matcher(cl)
	for _, c := range catalogs {
		if cl.Family != "" && c.Name != cl.Family {
			continue
		}
		for _, e := range c.Entries {
			if match(e) {
				return e, true
			}
		}
	}
	return nil, false
}

func matcher(cl Classification) func(Entry) bool {
	switch cl.Mode {
	case CatalogName:
		return func(e Entry) bool {
			return strings.Contains(e.Designator(), cl.Name)
		}
	case ExactMatch:
		return func(e Entry) bool {
			return exactMatch(e.Designator(), cl.Name) ||
				exactMatch(e.DisplayName(), cl.Name) ||
				exactMatch(e.Info(), cl.Name)
		}
	default:
		re := freeTextPattern(cl.Name)
		return func(e Entry) bool {
			return re.MatchString(e.Designator()) ||
				re.MatchString(e.DisplayName()) ||
				re.MatchString(e.Info())
		}
	}
}

// exactMatch reports whether n occurs in s and its first occurrence is not
// followed by another digit, so "G1" does not match "G11".
func exactMatch(s, n string) bool {
	i := strings.Index(s, n)
	if i < 0 {
		return false
	}
	next := i + len(n)
	return next >= len(s) || !isDigit(s[next])
}

// freeTextPattern compiles name as a case-insensitive pattern. Text that is
// not a valid expression is matched literally.
func freeTextPattern(name string) *regexp.Regexp {
	re, err := regexp.Compile("(?i)" + name)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(name))
	}
	return re
}
