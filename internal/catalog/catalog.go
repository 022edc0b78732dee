// Package catalog resolves object names against locally supplied catalog
// tables when the remote name resolver is unavailable.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Fixed column contract of a catalog row.
const (
	colDesignator = 0
	colRA         = 1
	colDec        = 2
	colName       = 7
	colInfo       = 8

	minColumns = colInfo + 1
)

// Entry is one catalog row. Only the designator, coordinate, name and info
// columns are interpreted; other columns are carried through untouched.
type Entry []string

func (e Entry) field(i int) string {
	if i < len(e) {
		return e[i]
	}
	return ""
}

// Designator returns the catalog designation, e.g. "M 31".
func (e Entry) Designator() string { return e.field(colDesignator) }

// Coordinates returns "<ra> <dec>" in any form accepted by coordtext.
func (e Entry) Coordinates() string { return e.field(colRA) + " " + e.field(colDec) }

// DisplayName returns the common name, e.g. "Andromeda Galaxy".
func (e Entry) DisplayName() string { return e.field(colName) }

// Info returns the free text description.
func (e Entry) Info() string { return e.field(colInfo) }

// Catalog is a named table of entries. Name doubles as the family used by
// Classify, e.g. "Messier" or "NGC".
type Catalog struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Decode reads a JSON array of catalogs:
//
//	[{"name": "Messier", "entries": [["M 31", "00 42 44", "+41 16 09", ...]]}]
func Decode(r io.Reader) ([]Catalog, error) {
	var cats []Catalog
	if err := json.NewDecoder(r).Decode(&cats); err != nil {
		return nil, fmt.Errorf("decode catalogs: %w", err)
	}
	for i, c := range cats {
		if c.Name == "" {
			return nil, fmt.Errorf("decode catalogs: catalog %d has no name", i)
		}
	}
	return cats, nil
}

// LoadFile reads catalogs from a JSON file.
func LoadFile(path string) ([]Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	defer f.Close()

	cats, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cats, nil
}
