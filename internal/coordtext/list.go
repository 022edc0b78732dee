package coordtext

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/litescript/ls-skyplan/internal/astro"
)

const markerPrefix = "marker"

// List is a parsed comma separated coordinate list. Items prefixed with
// "marker" are points of interest, the rest are field centers.
type List struct {
	Centers []astro.Equatorial
	Markers []astro.Equatorial
}

// ParseList parses "c1, c2, marker c3, ..." where every item is accepted by
// Parse. The first failing item aborts the whole list.
func ParseList(text string) (List, error) {
	var l List
	for i, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		marker := false
		if rest, ok := strings.CutPrefix(item, markerPrefix); ok {
			marker = true
			item = strings.TrimSpace(rest)
		}

		eq, err := Parse(item)
		if err != nil {
			return List{}, fmt.Errorf("list item %d: %w", i+1, err)
		}
		if marker {
			l.Markers = append(l.Markers, eq)
		} else {
			l.Centers = append(l.Centers, eq)
		}
	}
	if len(l.Centers) == 0 {
		return List{}, &SyntaxError{Input: text, Reason: "list has no field centers"}
	}
	return l, nil
}

// NamedTarget is one entry of a JSON target list.
type NamedTarget struct {
	Name  string           `json:"name"`
	RADec string           `json:"radec"`
	Coord astro.Equatorial `json:"-"`
}

type targetList struct {
	Targets []NamedTarget `json:"targets"`
}

// IsTargetListJSON reports whether text is a JSON target list document.
func IsTargetListJSON(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "{")
}

// ParseTargetList decodes {"targets": [{"name": ..., "radec": ...}]} and
// parses every radec field. At most limit targets are kept when limit > 0.
func ParseTargetList(text string, limit int) ([]NamedTarget, error) {
	var doc targetList
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode target list: %w", err)
	}
	if len(doc.Targets) == 0 {
		return nil, &SyntaxError{Input: text, Reason: "empty target list"}
	}
	if limit > 0 && len(doc.Targets) > limit {
		doc.Targets = doc.Targets[:limit]
	}

	for i := range doc.Targets {
		eq, err := Parse(doc.Targets[i].RADec)
		if err != nil {
			return nil, fmt.Errorf("target %d (%s): %w", i+1, doc.Targets[i].Name, err)
		}
		doc.Targets[i].Coord = eq
		doc.Targets[i].RADec, _ = Canonicalize(doc.Targets[i].RADec)
	}
	return doc.Targets, nil
}
