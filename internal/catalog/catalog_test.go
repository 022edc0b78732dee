package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/litescript/ls-skyplan/internal/coordtext"
)

func row(designator, ra, dec, name, info string) Entry {
	e := make(Entry, minColumns)
	e[colDesignator] = designator
	e[colRA] = ra
	e[colDec] = dec
	e[colName] = name
	e[colInfo] = info
	return e
}

func testCatalogs() []Catalog {
	return []Catalog{
		{Name: "Messier", Entries: []Entry{
			row("M 1", "05 34 31.9", "+22 00 52", "Crab Nebula", "supernova remnant"),
			row("M 31", "00 42 44.3", "+41 16 09", "Andromeda Galaxy", "spiral galaxy"),
			row("M 42", "05 35 17.3", "-05 23 28", "Orion Nebula", "diffuse nebula"),
		}},
		{Name: "NGC", Entries: []Entry{
			row("NGC 7000", "20 59 17", "+44 31 44", "North America Nebula", "emission nebula"),
		}},
		{Name: "RCW", Entries: []Entry{
			row("RCW 86", "14 43 04", "-62 28 00", "", "supernova remnant G11"),
			row("RCW 49", "10 24 00", "-57 45 00", "", "HII region G1 complex"),
		}},
		{Name: "Barnard", Entries: []Entry{
			row("B 33", "05 40 59", "-02 27 30", "Horsehead Nebula", "dark nebula"),
		}},
		{Name: "Cederblad", Entries: []Entry{
			row("Ced 201", "22 13 25", "+70 15 00", "", "reflection nebula"),
		}},
		{Name: "Sharpless", Entries: []Entry{
			row("SH2-155", "22 56 48", "+62 37 00", "Cave Nebula", "emission nebula"),
		}},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		family string
		mode   Mode
	}{
		{"M31", "M 31", "Messier", CatalogName},
		{"m 31", "M 31", "Messier", CatalogName},
		{"Messier 31", "M 31", "Messier", CatalogName},
		{"ngc7000", "NGC 7000", "NGC", CatalogName},
		{"NGC 7000", "NGC 7000", "NGC", CatalogName},
		{"IC 434", "IC 434", "IC", CatalogName},
		{"rcw 86", "RCW 86", "RCW", CatalogName},
		{"Sh2-155", "SH2-155", "Sharpless", CatalogName},
		{"G1", "G1", "RCW", ExactMatch},
		{"Gum 12", "G12", "RCW", ExactMatch},
		{"b33", "B 33", "Barnard", CatalogName},
		{"Barnard 33", "B 33", "Barnard", CatalogName},
		{"ced201", "Ced 201", "Cederblad", CatalogName},
		{"Cederblad 201", "Ced 201", "Cederblad", CatalogName},
		{"  Horsehead   Nebula ", "Horsehead Nebula", "", FreeText},
		{"Mira", "Mira", "", FreeText},
		{"Betelgeuse", "Betelgeuse", "", FreeText},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := Classify(tc.in)
			if got.Name != tc.name || got.Family != tc.family || got.Mode != tc.mode {
				t.Errorf("Classify(%q) = {%q %q %v}, want {%q %q %v}",
					tc.in, got.Name, got.Family, got.Mode, tc.name, tc.family, tc.mode)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	cats := testCatalogs()

	tests := []struct {
		in   string
		want string // designator, empty for no match
	}{
		{"M31", "M 31"},
		{"Messier 42", "M 42"},
		{"NGC7000", "NGC 7000"},
		{"B 33", "B 33"},
		{"Ced 201", "Ced 201"},
		{"Sh2-155", "SH2-155"},
		{"G1", "RCW 49"},
		{"G11", "RCW 86"},
		{"horsehead", "B 33"},
		{"andromeda", "M 31"},
		{"crab neb", "M 1"},
		{"M 99", ""},
		{"Zeta Nowhere", ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			e, ok := Resolve(cats, Classify(tc.in))
			if tc.want == "" {
				if ok {
					t.Errorf("Resolve(%q) = %q, want no match", tc.in, e.Designator())
				}
				return
			}
			if !ok {
				t.Fatalf("Resolve(%q) found nothing, want %q", tc.in, tc.want)
			}
			if e.Designator() != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.in, e.Designator(), tc.want)
			}
		})
	}
}

func TestResolve_FamilyRestricts(t *testing.T) {
	// A Messier query never falls through to other families.
	cats := []Catalog{
		{Name: "NGC", Entries: []Entry{row("M 31 companion", "0 0 0", "0 0 0", "", "")}},
	}
	if e, ok := Resolve(cats, Classify("M31")); ok {
		t.Errorf("Resolve found %q in NGC table for a Messier name", e.Designator())
	}
}

func TestResolve_M31Coordinates(t *testing.T) {
	e, ok := Resolve(testCatalogs(), Classify("M31"))
	if !ok {
		t.Fatal("M31 not found")
	}
	if e.DisplayName() != "Andromeda Galaxy" {
		t.Errorf("DisplayName = %q", e.DisplayName())
	}
	got, err := coordtext.Canonicalize(e.Coordinates())
	if err != nil {
		t.Fatalf("Canonicalize(%q): %v", e.Coordinates(), err)
	}
	if want := "00:42:44.30 41:16:09"; got != want {
		t.Errorf("coordinates = %q, want %q", got, want)
	}
}

func TestResolve_InvalidPatternMatchesLiterally(t *testing.T) {
	cats := []Catalog{
		{Name: "Misc", Entries: []Entry{row("X 1", "0 0 0", "0 0 0", "Odd (bracket", "")}},
	}
	e, ok := Resolve(cats, Classification{Name: "odd (bracket", Mode: FreeText})
	if !ok || e.Designator() != "X 1" {
		t.Errorf("Resolve with invalid pattern = %v, %v; want X 1", e, ok)
	}
}

func TestExactMatch(t *testing.T) {
	tests := []struct {
		s, n string
		want bool
	}{
		{"G1", "G1", true},
		{"G11", "G1", false},
		{"G1 complex", "G1", true},
		{"G1a", "G1", true},
		{"", "G1", false},
		{"remnant G11", "G11", true},
	}
	for _, tc := range tests {
		if got := exactMatch(tc.s, tc.n); got != tc.want {
			t.Errorf("exactMatch(%q, %q) = %v, want %v", tc.s, tc.n, got, tc.want)
		}
	}
}

func TestEntry_ShortRow(t *testing.T) {
	e := Entry{"M 1"}
	if e.DisplayName() != "" || e.Info() != "" {
		t.Errorf("short row should yield empty fields, got %q %q", e.DisplayName(), e.Info())
	}
	if e.Coordinates() != " " {
		t.Errorf("Coordinates() = %q", e.Coordinates())
	}
}

func TestBrightStars(t *testing.T) {
	stars := BrightStars()
	if stars.Name != BrightStarsName {
		t.Errorf("Name = %q", stars.Name)
	}
	if len(stars.Entries) < 50 {
		t.Fatalf("only %d bright stars", len(stars.Entries))
	}

	for _, e := range stars.Entries {
		if len(e) < minColumns {
			t.Errorf("%s: %d columns", e.Designator(), len(e))
		}
		if _, err := coordtext.Parse(e.Coordinates()); err != nil {
			t.Errorf("%s: coordinates %q do not parse: %v", e.Designator(), e.Coordinates(), err)
		}
	}

	e, ok := Resolve([]Catalog{stars}, Classify("sirius"))
	if !ok {
		t.Fatal("Sirius not found")
	}
	eq, err := coordtext.Parse(e.Coordinates())
	if err != nil {
		t.Fatal(err)
	}
	if diff := eq.RADeg - 101.287; diff > 0.01 || diff < -0.01 {
		t.Errorf("Sirius RA = %.4f, want ~101.287", eq.RADeg)
	}
	if diff := eq.DecDeg + 16.716; diff > 0.01 || diff < -0.01 {
		t.Errorf("Sirius Dec = %.4f, want ~-16.716", eq.DecDeg)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "catalogs.json")
	data := `[{"name":"Messier","entries":[["M 31","00 42 44","+41 16 09","","","","","Andromeda Galaxy","spiral galaxy"]]}]`
	if err := os.WriteFile(good, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cats, err := LoadFile(good)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cats) != 1 || cats[0].Name != "Messier" || len(cats[0].Entries) != 1 {
		t.Fatalf("unexpected catalogs: %+v", cats)
	}
	if cats[0].Entries[0].DisplayName() != "Andromeda Galaxy" {
		t.Errorf("DisplayName = %q", cats[0].Entries[0].DisplayName())
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}

	if _, err := Decode(strings.NewReader(`[{"entries":[]}]`)); err == nil {
		t.Error("expected error for unnamed catalog")
	}
	if _, err := Decode(strings.NewReader(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
