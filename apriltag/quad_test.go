package apriltag

import (
	"math"
	"testing"
)

func TestSlopeProxyMonotonic(t *testing.T) {
	// Sample angles all the way around the circle and check the proxy is
	// strictly increasing, since downstream sorting relies on that.
	const n = 64
	var prev float64 = -1
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		v := slopeProxy(math.Cos(theta), math.Sin(theta))
		if v < prev {
			t.Fatalf("slopeProxy not monotonic at i=%d: %v < %v", i, v, prev)
		}
		prev = v
	}
}

func TestBorderOrientationDetectsReversal(t *testing.T) {
	// A ring of points whose gradients all point outward, away from the
	// centroid at the origin: a normal (non-reversed) black-on-white
	// border.
	var normal, reversed []edgePoint
	for i := 0; i < 8; i++ {
		theta := 2 * math.Pi * float64(i) / 8
		x, y := 50+10*math.Cos(theta), 50+10*math.Sin(theta)
		gx, gy := int16(100*math.Cos(theta)), int16(100*math.Sin(theta))
		normal = append(normal, edgePoint{X: uint16(2 * x), Y: uint16(2 * y), GX: gx, GY: gy})
		reversed = append(reversed, edgePoint{X: uint16(2 * x), Y: uint16(2 * y), GX: -gx, GY: -gy})
	}
	if borderOrientation(normal) {
		t.Error("outward-pointing gradients should not be reported as reversed")
	}
	if !borderOrientation(reversed) {
		t.Error("inward-pointing gradients should be reported as reversed")
	}
}

func TestIsConvexCCWSquare(t *testing.T) {
	square := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	if !IsConvexCCW(square) {
		t.Error("square should be convex")
	}
}

func TestIsConvexCCWRejectsSelfIntersecting(t *testing.T) {
	bowtie := [4][2]float64{{0, 0}, {1, 1}, {1, 0}, {0, 1}}
	if IsConvexCCW(bowtie) {
		t.Error("self-intersecting quad should not be convex")
	}
}

func TestQuadAreaSquare(t *testing.T) {
	square := [4][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	if got := quadArea(square); math.Abs(got-100) > 1e-9 {
		t.Errorf("quadArea = %v, want 100", got)
	}
}

func TestIntersectLinesPerpendicular(t *testing.T) {
	horiz := [4]float64{0, 0, 0, 1} // point (0,0), normal (0,1): line y=0
	vert := [4]float64{5, 0, 1, 0}  // point (5,0), normal (1,0): line x=5
	corner, ok := intersectLines(horiz, vert)
	if !ok {
		t.Fatal("expected an intersection")
	}
	if math.Abs(corner[0]-5) > 1e-9 || math.Abs(corner[1]-0) > 1e-9 {
		t.Errorf("intersection = %v, want (5, 0)", corner)
	}
}

func TestIntersectLinesParallel(t *testing.T) {
	l1 := [4]float64{0, 0, 0, 1}
	l2 := [4]float64{0, 1, 0, 1}
	if _, ok := intersectLines(l1, l2); ok {
		t.Error("parallel lines should not intersect")
	}
}

func TestLineFitMomentsWrapAround(t *testing.T) {
	pts := []float64pt{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {4, 0}}
	weights := []float64{1, 1, 1, 1, 1}
	m := buildLineFitMoments(pts, weights)
	// Range starting at index 3, wrapping around to index 1 (count 3):
	// covers points at indices 3, 4, 0.
	sum := m.rangeSum(m.mx, 3, 3)
	want := pts[3].X + pts[4].X + pts[0].X
	if math.Abs(sum-want) > 1e-9 {
		t.Errorf("wrapped range sum = %v, want %v", sum, want)
	}
}
