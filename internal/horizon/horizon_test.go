package horizon

import (
	"testing"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		raw      []float64
		wantLen  int
		wantHead []float64
		wantTail float64
	}{
		{"nil seeds flat horizon", nil, TableSize, []float64{0}, 0},
		{"empty seeds flat horizon", []float64{}, TableSize, []float64{0}, 0},
		{"single value", []float64{5}, TableSize, []float64{5, 5}, 5},
		{"partial profile", []float64{10, 20, 30}, TableSize, []float64{10, 20, 30, 30}, 30},
		{"longer input is kept", make([]float64, 80), 80, []float64{0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.raw)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			for i, v := range tt.wantHead {
				if got[i] != v {
					t.Errorf("got[%d] = %v, want %v", i, got[i], v)
				}
			}
			if got[len(got)-1] != tt.wantTail {
				t.Errorf("last = %v, want %v", got[len(got)-1], tt.wantTail)
			}
		})
	}
}

func TestBuild_SingleValueEverywhere(t *testing.T) {
	table := Build([]float64{5})
	for i, v := range table {
		if v != 5 {
			t.Fatalf("table[%d] = %v, want 5", i, v)
		}
	}
}

func TestBuild_DoesNotAliasInput(t *testing.T) {
	raw := []float64{1, 2}
	table := Build(raw)
	table[0] = 99
	if raw[0] != 1 {
		t.Error("Build modified its input")
	}
}

func TestLookup(t *testing.T) {
	raw := make([]float64, TableSize)
	for i := range raw {
		raw[i] = float64(i)
	}
	table := Build(raw)

	tests := []struct {
		az   float64
		want float64
	}{
		{0, 0},
		{2.4, 0},
		{2.5, 1}, // rounds half away from zero
		{7.6, 2},
		{180, 36},
		{350, 70},
		{357.6, 1}, // round(71.52) = 72, 72 mod 71
		{-5, 70},
	}

	for _, tt := range tests {
		if got := table.Lookup(tt.az); got != tt.want {
			t.Errorf("Lookup(%v) = %v, want %v", tt.az, got, tt.want)
		}
	}
}

func TestNewProfile(t *testing.T) {
	t.Run("hard only", func(t *testing.T) {
		p := NewProfile(nil, []float64{10})
		if p.HasSoft() {
			t.Error("soft horizon should be disabled")
		}
		soft, hard := p.Limits(90)
		if soft != 10 || hard != 10 {
			t.Errorf("Limits = (%v, %v), want (10, 10)", soft, hard)
		}
	})

	t.Run("soft only promotes to hard", func(t *testing.T) {
		p := NewProfile([]float64{15}, nil)
		if p.HasSoft() {
			t.Error("soft horizon should be disabled after promotion")
		}
		if got := p.Hard.Lookup(0); got != 15 {
			t.Errorf("hard = %v, want 15", got)
		}
	})

	t.Run("both tiers", func(t *testing.T) {
		p := NewProfile([]float64{25}, []float64{10})
		if !p.HasSoft() {
			t.Fatal("soft horizon should be enabled")
		}
		soft, hard := p.Limits(200)
		if soft != 25 || hard != 10 {
			t.Errorf("Limits = (%v, %v), want (25, 10)", soft, hard)
		}
	})

	t.Run("neither", func(t *testing.T) {
		p := NewProfile(nil, nil)
		if p.HasSoft() || len(p.Hard) != TableSize || p.Hard.Lookup(123) != 0 {
			t.Errorf("unexpected profile %+v", p)
		}
	})
}
