package coordtext

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/litescript/ls-skyplan/internal/astro"
)

const nearlyEqual = 1e-3

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantRA  float64
		wantDec float64
	}{
		{"colon sexagesimal", "19:53:55 18:47:00", 298.47917, 18.78333},
		{"space sexagesimal", "19 53 55 18 47 00", 298.47917, 18.78333},
		{"slash separated", "19:53:55/18:47:00", 298.47917, 18.78333},
		{"slash with spaces", "19 53 55 / 18 47 00", 298.47917, 18.78333},
		{"compact", "195355 184700", 298.47917, 18.78333},
		{"compact signed", "195355 +184700", 298.47917, 18.78333},
		{"compact negative", "053500 -052300", 83.75, -5.38333},
		{"five fields pads dec seconds", "19 53 55 18 47", 298.47917, 18.78333},
		{"decimal hours", "19.898611 18.783333", 298.47917, 18.78333},
		{"degrees prefix", "d 12.5 -5.25", 12.5, -5.25},
		{"degrees prefix wraps RA", "d -15 10", 345, 10},
		{"messy whitespace", "  19:53:55 \t  18:47:00\n", 298.47917, 18.78333},
		{"negative zero degrees", "05:00:00 -00:30:00", 75, -0.5},
		{"fractional minutes", "12:30.5 45:10", 187.625, 45.16667},
		{"integer decimal pair", "12 -5", 180, -5},
		{"south pole", "00:00:00 -90:00:00", 0, -90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if math.Abs(got.RADeg-tt.wantRA) > nearlyEqual {
				t.Errorf("Parse(%q) RA = %.5f, want %.5f", tt.input, got.RADeg, tt.wantRA)
			}
			if math.Abs(got.DecDeg-tt.wantDec) > nearlyEqual {
				t.Errorf("Parse(%q) Dec = %.5f, want %.5f", tt.input, got.DecDeg, tt.wantDec)
			}
		})
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"19:53:55 18:47:00", "19:53:55 18:47:00"},
		{"1:2:3 -4:5:6.789", "01:02:03 -04:05:06.78"},
		{"d 12.5 -5.25", "00:50:00.00 -05:15:00.00"},
		{"195355 184700", "19:53:55 18:47:00"},
		{"0535 -0523", "05:35:00 -05:23:00"},
		{"19 53 55 18 47", "19:53:55 18:47:00"},
		{"12:30.5 45:10", "12:30:30.00 45:10:00"},
		{"5.5 +10.25", "05:30:00.00 10:15:00.00"},
		{"19:53:55 18", "19:53:55 18:00:00.00"},
		{"19:53:55 18:30", "19:53:55 18:30:00"},
		{"19:53:55.5 18:47:00.", "19:53:55.50 18:47:00.00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if err != nil {
				t.Fatalf("Canonicalize(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	inputs := []string{
		"19:53:55 18:47:00",
		"1:2:3 -4:5:6.789",
		"d 12.5 -5.25",
		"d 359.99 89.5",
		"195355 -184700",
		"19 53 55 18 47",
		"12:30.5 45:10",
		"0.001 -0.001",
		"23.999 10",
		"5:35:17.3/-5:23:28",
	}

	for _, in := range inputs {
		once, err := Canonicalize(in)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error = %v", in, err)
		}
		twice, err := Canonicalize(once)
		if err != nil {
			t.Fatalf("Canonicalize(%q) error = %v", once, err)
		}
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"M31 andromeda",
		"19:53:55",
		"19:53:55 95:00:00",
		"1 2 3 4",
		"19:61:00 10:00:00",
		"19:53:55:12 10:00:00",
		"19:53:55 10:-5:00",
		"19:53:55 abc",
		"d",
		"1 2 3 4 5 6 7",
		"19::55 10:00:00",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", in)
			}
			if !errors.Is(err, ErrCoordinateSyntax) {
				t.Errorf("Parse(%q) error %v does not wrap ErrCoordinateSyntax", in, err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) || se.Input != in {
				t.Errorf("Parse(%q) error %v is not a *SyntaxError for the input", in, err)
			}
		})
	}
}

func TestIsCoordinateText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"19:53:55 18:47:00", true},
		{"-05 10", true},
		{"+05 10", true},
		{"d 12.5 -5.25", true},
		{"dumbbell", false},
		{"M31", false},
		{"NGC 7000", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCoordinateText(tt.in); got != tt.want {
			t.Errorf("IsCoordinateText(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	l, err := ParseList("19:53:55 18:47:00, marker 20:00:00 20:00:00, 5.5 -10")
	if err != nil {
		t.Fatalf("ParseList() error = %v", err)
	}
	if len(l.Centers) != 2 || len(l.Markers) != 1 {
		t.Fatalf("got %d centers, %d markers; want 2, 1", len(l.Centers), len(l.Markers))
	}
	if math.Abs(l.Markers[0].RADeg-300) > nearlyEqual || math.Abs(l.Markers[0].DecDeg-20) > nearlyEqual {
		t.Errorf("marker = %+v", l.Markers[0])
	}
	if math.Abs(l.Centers[1].RADeg-82.5) > nearlyEqual {
		t.Errorf("second center RA = %v, want 82.5", l.Centers[1].RADeg)
	}

	if _, err := ParseList("19:53:55 18:47:00, nonsense"); !errors.Is(err, ErrCoordinateSyntax) {
		t.Errorf("ParseList with bad item error = %v", err)
	}
	if _, err := ParseList("marker 19:53:55 18:47:00"); !errors.Is(err, ErrCoordinateSyntax) {
		t.Errorf("ParseList with only markers error = %v", err)
	}
}

func TestParseTargetList(t *testing.T) {
	doc := `{"targets": [
		{"name": "Crescent", "radec": "20 12 7 38 21 17"},
		{"name": "Veil", "radec": "20:45:38 30:42:30"},
		{"name": "Third", "radec": "d 83.82 -5.39"}
	]}`

	targets, err := ParseTargetList(doc, 2)
	if err != nil {
		t.Fatalf("ParseTargetList() error = %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("len = %d, want 2 (limit)", len(targets))
	}
	if targets[0].Name != "Crescent" || targets[0].RADec != "20:12:07 38:21:17" {
		t.Errorf("first target = %+v", targets[0])
	}
	if math.Abs(targets[1].Coord.DecDeg-30.70833) > nearlyEqual {
		t.Errorf("second target dec = %v", targets[1].Coord.DecDeg)
	}

	if _, err := ParseTargetList(`{"targets": []}`, 0); !errors.Is(err, ErrCoordinateSyntax) {
		t.Errorf("empty list error = %v", err)
	}
	if _, err := ParseTargetList(`{"targets": [`, 0); err == nil {
		t.Error("expected JSON error")
	}
	if !IsTargetListJSON(" {\"targets\": []}") || IsTargetListJSON("M31") {
		t.Error("IsTargetListJSON misclassified input")
	}
}

func TestFormatPanel(t *testing.T) {
	got := FormatPanel(astro.Equatorial{RADeg: 15, DecDeg: -5.5})
	if got != "RA/DEC 1.00000 -5.50000" {
		t.Errorf("FormatPanel() = %q", got)
	}
}

func TestFormatCanonical_RoundTrip(t *testing.T) {
	for _, eq := range []astro.Equatorial{
		{RADeg: 298.47917, DecDeg: 18.78333},
		{RADeg: 10.68458, DecDeg: 41.26917},
		{RADeg: 83.82208, DecDeg: -5.39111},
		{RADeg: 0.5, DecDeg: -0.25},
	} {
		text := FormatCanonical(eq)
		back, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", text, err)
		}
		if math.Abs(back.RADeg-eq.RADeg) > 1e-4 || math.Abs(back.DecDeg-eq.DecDeg) > 1e-4 {
			t.Errorf("%+v -> %q -> %+v", eq, text, back)
		}
	}
}

func TestFormatHMS(t *testing.T) {
	got := FormatHMS(astro.Equatorial{RADeg: 83.82208, DecDeg: -5.39111})
	if strings.TrimSpace(got) == "" {
		t.Error("FormatHMS() returned empty text")
	}
}

func TestArcminToDeg(t *testing.T) {
	if got := ArcminToDeg(33); math.Abs(got-0.55) > 1e-12 {
		t.Errorf("ArcminToDeg(33) = %v, want 0.55", got)
	}
}
