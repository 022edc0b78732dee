// Package mosaic computes camera footprints on the sky: single field of
// view boxes, overlapping panel grids, off-axis guider boxes and boxes for a
// list of centers.
//
// Footprints use a flat small-angle approximation. The RA half width of a
// box edge is divided by the cosine of that edge's own declination, so wide
// fields do not skew into trapezoids. Corner RA values are left
// unnormalized relative to the center so a polygon crossing RA 0 stays
// contiguous.
package mosaic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/coordtext"
)

// ErrInvalidGrid is returned for non-positive sizes or overlap outside [0, 1).
var ErrInvalidGrid = errors.New("invalid mosaic grid")

// maxGridSide bounds grid columns by the number of column letters.
const maxGridSide = 26

// FOV is a field of view in degrees.
type FOV struct {
	X float64 `json:"x_deg"`
	Y float64 `json:"y_deg"`
}

// Panel is one footprint. Corners run NW, NE, SE, SW and repeat the first
// point to close the outline.
type Panel struct {
	Name    string              `json:"name,omitempty"`
	Center  astro.Equatorial    `json:"center"`
	Corners [5]astro.Equatorial `json:"corners"`
	Text    string              `json:"text"`
}

// Side selects where an offset box sits relative to the primary.
type Side int

const (
	Top Side = iota
	Bottom
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Top:
		return "T"
	case Bottom:
		return "B"
	case Left:
		return "L"
	case Right:
		return "R"
	}
	return "?"
}

// ParseSide accepts T, B, L or R (or the full word, any case).
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(s) {
	case "T", "TOP":
		return Top, nil
	case "B", "BOTTOM":
		return Bottom, nil
	case "L", "LEFT":
		return Left, nil
	case "R", "RIGHT":
		return Right, nil
	}
	return Top, fmt.Errorf("unknown side %q", s)
}

// secant returns 1/cos(|dec|), bounded so a box touching a pole stays finite.
func secant(decDeg float64) float64 {
	c := math.Cos(math.Abs(decDeg) * math.Pi / 180)
	return 1 / math.Max(c, 1e-6)
}

// SingleFOVBox returns the footprint of one field of view centered on
// center.
func SingleFOVBox(center astro.Equatorial, fovX, fovY float64) Panel {
	return box(center, center.RADeg, center.RADeg, fovX, fovY)
}

// box builds a footprint whose north edge is centered at raNorth and south
// edge at raSouth.
func box(center astro.Equatorial, raNorth, raSouth, fovX, fovY float64) Panel {
	decN := center.DecDeg + fovY/2
	decS := center.DecDeg - fovY/2
	halfN := fovX / 2 * secant(decN)
	halfS := fovX / 2 * secant(decS)

	c := astro.Equatorial{RADeg: normalizeRA(center.RADeg), DecDeg: center.DecDeg}
	p := Panel{
		Center: c,
		Corners: [5]astro.Equatorial{
			{RADeg: raNorth - halfN, DecDeg: decN},
			{RADeg: raNorth + halfN, DecDeg: decN},
			{RADeg: raSouth + halfS, DecDeg: decS},
			{RADeg: raSouth - halfS, DecDeg: decS},
			{RADeg: raNorth - halfN, DecDeg: decN},
		},
	}
	p.Text = coordtext.FormatPanel(c)
	return p
}

// Grid tiles cols×rows panels around center. Rows run north to south and
// columns east to west; adjacent panels are stepped by (1-overlap)·fov.
// Panels are named by column letter and row number: A1 is the north-east
// corner, B1 its western neighbour and A2 the panel south of it.
func Grid(center astro.Equatorial, fovX, fovY float64, cols, rows int, overlap float64) ([][]Panel, error) {
	if cols < 1 || rows < 1 || cols > maxGridSide {
		return nil, fmt.Errorf("%w: %dx%d panels", ErrInvalidGrid, cols, rows)
	}
	if overlap < 0 || overlap >= 1 || math.IsNaN(overlap) {
		return nil, fmt.Errorf("%w: overlap %.2f outside [0, 1)", ErrInvalidGrid, overlap)
	}
	if fovX <= 0 || fovY <= 0 {
		return nil, fmt.Errorf("%w: field of view %.4fx%.4f", ErrInvalidGrid, fovX, fovY)
	}

	stepX := (1 - overlap) * fovX
	stepY := (1 - overlap) * fovY
	sizeX := float64(cols)/2 - 0.5
	sizeY := float64(rows)/2 - 0.5

	grid := make([][]Panel, rows)
	for y := 0; y < rows; y++ {
		row := sizeY - float64(y)
		rowDec := center.DecDeg + row*stepY
		grid[y] = make([]Panel, cols)
		for x := 0; x < cols; x++ {
			col := sizeX - float64(x)
			// Each edge is offset from the grid center with its own
			// declination's secant.
			raAt := func(dec float64) float64 {
				return center.RADeg + col*stepX*secant(dec)
			}
			c := astro.Equatorial{RADeg: raAt(rowDec), DecDeg: rowDec}
			p := box(c, raAt(rowDec+fovY/2), raAt(rowDec-fovY/2), fovX, fovY)
			p.Name = PanelName(y, x)
			grid[y][x] = p
		}
	}
	return grid, nil
}

// PanelName returns the label of the panel at row y, column x: column
// letter then row number, so row 2, column 1 is "B3".
func PanelName(y, x int) string {
	return fmt.Sprintf("%c%d", 'A'+rune(x), y+1)
}

// OffsetBox returns a box of size offset placed on side of a primary box of
// size primary centered at center, separated by gap degrees.
func OffsetBox(center astro.Equatorial, primary, offset FOV, side Side, gap float64) Panel {
	c := center
	switch side {
	case Top:
		c.DecDeg += primary.Y/2 + gap + offset.Y/2
	case Bottom:
		c.DecDeg -= primary.Y/2 + gap + offset.Y/2
	case Left:
		c.RADeg += (primary.X/2 + gap + offset.X/2) * secant(center.DecDeg)
	case Right:
		c.RADeg -= (primary.X/2 + gap + offset.X/2) * secant(center.DecDeg)
	}
	p := SingleFOVBox(c, offset.X, offset.Y)
	p.Name = "offaxis-" + side.String()
	return p
}

// FromCoordinateList returns one box per center, all sized by fov.
func FromCoordinateList(centers []astro.Equatorial, fov FOV) []Panel {
	panels := make([]Panel, len(centers))
	for i, c := range centers {
		panels[i] = SingleFOVBox(c, fov.X, fov.Y)
		panels[i].Name = fmt.Sprintf("%d", i+1)
	}
	return panels
}

func normalizeRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	return ra
}
