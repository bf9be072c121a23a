package layout

import (
	"math"
	"testing"
)

func TestPlacementsDeterministic(t *testing.T) {
	a := Placements(60)
	b := Placements(60)
	if len(a) != 60 || len(b) != 60 {
		t.Fatalf("expected 60 placements, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("placement %d differs between calls: %+v vs %+v", i+1, a[i], b[i])
		}
	}
}

func TestPlacementsCount(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{60, 60},
		{10, 10},   // truncation of defined furniture
		{100, 100}, // grid fallback fills past the 62 furniture seats
		{0, 60},    // zero falls back to the default hall size
		{-5, 60},
	}
	for _, tc := range cases {
		if got := len(Placements(tc.total)); got != tc.want {
			t.Errorf("Placements(%d): got %d placements, want %d", tc.total, got, tc.want)
		}
	}
}

func TestGridFallbackPositions(t *testing.T) {
	// Furniture defines 62 seats; seat 63 is the first grid seat.
	p := Placements(70)
	first := p[62]
	if first.X != 600 || first.Y != 1240 {
		t.Fatalf("first grid seat at (%v,%v), want (600,1240)", first.X, first.Y)
	}
	// Grid rows wrap after four seats.
	fifth := p[66]
	if fifth.X != 600 || fifth.Y != 1310 {
		t.Fatalf("fifth grid seat at (%v,%v), want (600,1310)", fifth.X, fifth.Y)
	}
}

func TestPlaceRange(t *testing.T) {
	if _, ok := Place(0, 60); ok {
		t.Error("seat 0 should not have a placement")
	}
	if _, ok := Place(61, 60); ok {
		t.Error("seat beyond the hall should not have a placement")
	}
	if _, ok := Place(1, 60); !ok {
		t.Error("seat 1 should have a placement")
	}
}

func TestAdjacencySymmetric(t *testing.T) {
	const total = 60
	for a := 1; a <= total; a++ {
		for b := a + 1; b <= total; b++ {
			if Adjacent(a, b, total) != Adjacent(b, a, total) {
				t.Fatalf("adjacency not symmetric for %d/%d", a, b)
			}
		}
	}
}

func TestAdjacentNeighbours(t *testing.T) {
	// Seats 5 and 6 sit on the same six-seat ring; 1 and 30 are across
	// the hall from each other.
	if !Adjacent(5, 6, 60) {
		t.Error("seats 5 and 6 should be adjacent")
	}
	if Adjacent(1, 30, 60) {
		t.Error("seats 1 and 30 should not be adjacent")
	}
	if Adjacent(1, 99, 60) {
		t.Error("unknown seat can never be adjacent")
	}
}

func TestRingGeometry(t *testing.T) {
	// Every seat of the first ring is exactly its radius from the table
	// centre.
	p := Placements(60)
	for i := 0; i < 6; i++ {
		dx := p[i].X - 160
		dy := p[i].Y - 120
		if r := math.Hypot(dx, dy); math.Abs(r-90) > 1e-9 {
			t.Errorf("ring seat %d at radius %v, want 90", i+1, r)
		}
	}
}
