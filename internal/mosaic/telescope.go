package mosaic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/litescript/ls-skyplan/internal/coordtext"
)

// Telescope is a named imaging setup with a fixed field of view.
type Telescope struct {
	Name string `json:"name"`
	FOV  FOV    `json:"fov"`
}

// Built-in remote telescope presets.
var telescopes = map[string]Telescope{
	"T1": {Name: "T1", FOV: FOV{X: coordtext.ArcminToDeg(33), Y: coordtext.ArcminToDeg(33)}},
	"T2": {Name: "T2", FOV: FOV{X: coordtext.ArcminToDeg(43), Y: coordtext.ArcminToDeg(43)}},
	"T3": {Name: "T3", FOV: FOV{X: 1.654, Y: 1.249}},
	"T4": {Name: "T4", FOV: FOV{X: (15*60 + 57) / 3600.0, Y: (12*60 + 3) / 3600.0}},
	"C1": {Name: "C1", FOV: FOV{X: (31*60 + 18) / 3600.0, Y: (20*60 + 51) / 3600.0}},
}

// LookupTelescope returns the preset named name, ignoring case.
func LookupTelescope(name string) (Telescope, error) {
	t, ok := telescopes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Telescope{}, fmt.Errorf("unknown telescope %q (known: %s)", name, strings.Join(TelescopeNames(), ", "))
	}
	return t, nil
}

// TelescopeNames lists the preset names in order.
func TelescopeNames() []string {
	names := make([]string, 0, len(telescopes))
	for n := range telescopes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
