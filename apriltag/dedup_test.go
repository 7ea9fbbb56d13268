package apriltag

import "testing"

func square(cx, cy, half float64) [4][2]float64 {
	return [4][2]float64{
		{cx - half, cy - half}, {cx + half, cy - half},
		{cx + half, cy + half}, {cx - half, cy + half},
	}
}

func TestPolygonsOverlapTrue(t *testing.T) {
	a := square(0, 0, 5)
	b := square(3, 0, 5)
	if !polygonsOverlap(a, b) {
		t.Error("overlapping squares should be detected as overlapping")
	}
}

func TestPolygonsOverlapFalse(t *testing.T) {
	a := square(0, 0, 5)
	b := square(100, 100, 5)
	if polygonsOverlap(a, b) {
		t.Error("far-apart squares should not overlap")
	}
}

func TestIsBetterDetectionLowerHammingWins(t *testing.T) {
	a := Detection{Hamming: 0, DecisionMargin: 1}
	b := Detection{Hamming: 2, DecisionMargin: 100}
	if !isBetterDetection(a, b) {
		t.Error("lower Hamming distance should win regardless of margin")
	}
}

func TestIsBetterDetectionMarginTiebreak(t *testing.T) {
	a := Detection{Hamming: 1, DecisionMargin: 50}
	b := Detection{Hamming: 1, DecisionMargin: 10}
	if !isBetterDetection(a, b) {
		t.Error("larger decision margin should win when Hamming distances tie")
	}
}

func TestDeduplicateDetectionsKeepsBest(t *testing.T) {
	dets := []Detection{
		{ID: 1, Hamming: 2, DecisionMargin: 5, Corners: square(0, 0, 5)},
		{ID: 1, Hamming: 0, DecisionMargin: 5, Corners: square(1, 0, 5)},
		{ID: 2, Hamming: 0, DecisionMargin: 5, Corners: square(100, 100, 5)},
	}
	out := deduplicateDetections(dets)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	var sawHamming0, sawFar bool
	for _, d := range out {
		if d.ID == 1 && d.Hamming == 0 {
			sawHamming0 = true
		}
		if d.ID == 2 {
			sawFar = true
		}
	}
	if !sawHamming0 || !sawFar {
		t.Errorf("unexpected dedup result: %+v", out)
	}
}

func TestDeduplicateDetectionsDoesNotMergeDifferentIDs(t *testing.T) {
	dets := []Detection{
		{Family: "tag36h11", ID: 1, Hamming: 0, DecisionMargin: 5, Corners: square(0, 0, 5)},
		{Family: "tag36h11", ID: 2, Hamming: 0, DecisionMargin: 5, Corners: square(1, 0, 5)},
	}
	out := deduplicateDetections(dets)
	if len(out) != 2 {
		t.Fatalf("overlapping quads with different IDs should both survive, got %d: %+v", len(out), out)
	}
}

func TestIsBetterDetectionCornerTiebreak(t *testing.T) {
	a := Detection{Hamming: 1, DecisionMargin: 50, Corners: square(0, 0, 5)}
	b := Detection{Hamming: 1, DecisionMargin: 50, Corners: square(1, 0, 5)}
	if !isBetterDetection(a, b) {
		t.Error("smaller corner coordinates should win when Hamming and margin tie")
	}
	if isBetterDetection(b, a) {
		t.Error("tiebreak should not be symmetric")
	}
}
