// Package layout computes the deterministic 2-D placement of every seat in
// the hall.  The geometry is fixed: round tables seat six people in a ring,
// long tables have opposed rows of three or four chairs, and any seats
// beyond the defined furniture fall back to a plain grid.  The placement
// function is pure, so the server-side adjacency check and any client-side
// rendering derived from it can never disagree.
package layout

import "math"

// AdjacencyThreshold is the maximum Euclidean distance, in canvas units,
// between two seats that still count as neighbours for pair booking.  It is
// a tuned constant matched to the furniture spacing, not derived geometry.
const AdjacencyThreshold = 130

// Placement is the position of a single seat on the hall canvas.  Rotate is
// the chair's facing in degrees; it only matters for rendering.
type Placement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Rotate float64 `json:"rotate"`
}

// Placements returns the placement of every seat for a hall of the given
// size, in seat-number order (seat n is at index n-1).  The defined
// furniture covers 62 seats; larger halls tile the remainder into a grid,
// smaller halls simply truncate.
func Placements(total int) []Placement {
	n := total
	if n <= 0 {
		n = 60
	}
	p := make([]Placement, 0, n)
	p = appendRing(p, 160, 120, 90, 6)
	p = appendRing(p, 620, 630, 80, 6)
	p = appendRing(p, 1040, 120, 90, 6)
	p = appendOpposedRows(p, 320, 400, 400, 90, 4, 4)
	p = appendOpposedRows(p, 320, 840, 420, 90, 3, 4)
	p = appendOpposedRows(p, 900, 400, 400, 90, 4, 4)
	p = appendOpposedRows(p, 900, 840, 420, 90, 3, 4)
	p = appendRing(p, 300, 1100, 85, 6)
	p = appendRing(p, 980, 1100, 85, 6)
	if len(p) > n {
		return p[:n]
	}
	// Grid fallback for seats beyond the defined furniture.
	const (
		gridStartX = 600
		gridStartY = 1240
		gridDX     = 90
		gridDY     = 70
		gridCols   = 4
	)
	for i := len(p); i < n; i++ {
		j := i - len(p)
		p = append(p, Placement{
			X: gridStartX + gridDX*float64(j%gridCols),
			Y: gridStartY + gridDY*float64(j/gridCols),
		})
	}
	return p
}

// Place returns the placement of a single 1-based seat number, and false
// when the number is outside the hall.
func Place(number, total int) (Placement, bool) {
	if number < 1 {
		return Placement{}, false
	}
	all := Placements(total)
	if number > len(all) {
		return Placement{}, false
	}
	return all[number-1], true
}

// Adjacent reports whether two seats are close enough for a pair booking.
// The relation is symmetric; unknown seat numbers are never adjacent.
func Adjacent(a, b, total int) bool {
	pa, okA := Place(a, total)
	pb, okB := Place(b, total)
	if !okA || !okB {
		return false
	}
	dx := pa.X - pb.X
	dy := pa.Y - pb.Y
	return math.Hypot(dx, dy) <= AdjacencyThreshold
}

// appendRing places n seats evenly around a circle of radius r centred at
// (cx, cy), starting at the top and rotating each chair to face outward.
func appendRing(p []Placement, cx, cy, r float64, n int) []Placement {
	for i := 0; i < n; i++ {
		deg := -90 + (360/float64(n))*float64(i)
		rad := deg * math.Pi / 180
		p = append(p, Placement{
			X:      cx + r*math.Cos(rad),
			Y:      cy + r*math.Sin(rad),
			Rotate: deg + 90,
		})
	}
	return p
}

// appendOpposedRows places two facing rows of chairs along a rectangular
// table centred at (cx, cy).  The top row faces down (180°), the bottom row
// faces up (0°).  Margin and gap match the reference furniture.
func appendOpposedRows(p []Placement, cx, cy, width, height float64, topCount, bottomCount int) []Placement {
	const (
		marginX = 28
		rowGap  = 36
	)
	x1 := cx - width/2 + marginX
	x2 := cx + width/2 - marginX
	p = appendRow(p, x1, cy-height/2-rowGap, x2, topCount, 180)
	p = appendRow(p, x1, cy+height/2+rowGap, x2, bottomCount, 0)
	return p
}

// appendRow distributes n chairs evenly between x1 and x2 at height y.  A
// single chair sits at the midpoint.
func appendRow(p []Placement, x1, y, x2 float64, n int, rotate float64) []Placement {
	for i := 0; i < n; i++ {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p = append(p, Placement{X: x1 + (x2-x1)*t, Y: y, Rotate: rotate})
	}
	return p
}
