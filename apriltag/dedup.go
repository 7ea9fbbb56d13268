package apriltag

// dedupKey identifies detections as the same logical tag for deduplication
// purposes: two overlapping quads only compete with each other if they
// decoded to the same family and ID. Two different tags whose quads happen
// to overlap in a scene are both kept.
type dedupKey struct {
	family string
	id     int
}

// deduplicateDetections removes detections whose quads overlap, keeping the
// better-scoring detection of each overlapping pair, grouped by (family,
// ID) so that two distinct tags are never merged into one just because
// their quads happen to intersect. Overlap uses the separating axis theorem
// over both quads' four edge normals (eight axes total), so it is exact for
// any pair of convex quads, not just axis-aligned ones.
func deduplicateDetections(dets []Detection) []Detection {
	var order []dedupKey
	groups := make(map[dedupKey][]Detection)
	for _, d := range dets {
		k := dedupKey{d.Family, d.ID}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], d)
	}

	out := make([]Detection, 0, len(dets))
	for _, k := range order {
		out = append(out, dedupeGroup(groups[k])...)
	}
	return out
}

// dedupeGroup runs the pairwise overlap merge within a single (family, ID)
// group.
func dedupeGroup(dets []Detection) []Detection {
	out := make([]Detection, 0, len(dets))
	out = append(out, dets...)

	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if !polygonsOverlap(out[i].Corners, out[j].Corners) {
				continue
			}
			if isBetterDetection(out[j], out[i]) {
				out[i] = out[j]
			}
			out = append(out[:j], out[j+1:]...)
			j--
		}
	}
	return out
}

// isBetterDetection breaks ties between two detections of overlapping
// quads: a lower Hamming distance wins outright; among equal Hamming
// distances, the larger decision margin wins; among equal margins, the
// detection with lexicographically smaller corner coordinates wins, giving
// a deterministic result instead of depending on input order.
func isBetterDetection(a, b Detection) bool {
	if a.Hamming != b.Hamming {
		return a.Hamming < b.Hamming
	}
	if a.DecisionMargin != b.DecisionMargin {
		return a.DecisionMargin > b.DecisionMargin
	}
	return cornersLess(a.Corners, b.Corners)
}

// cornersLess lexicographically compares two corner arrays, corner by
// corner and x before y.
func cornersLess(a, b [4][2]float64) bool {
	for i := 0; i < 4; i++ {
		if a[i][0] != b[i][0] {
			return a[i][0] < b[i][0]
		}
		if a[i][1] != b[i][1] {
			return a[i][1] < b[i][1]
		}
	}
	return false
}

// polygonsOverlap reports whether two convex quads intersect, via the
// separating axis theorem over each quad's four edge normals.
func polygonsOverlap(a, b [4][2]float64) bool {
	if hasSeparatingAxis(a, b) || hasSeparatingAxis(b, a) {
		return false
	}
	return true
}

func hasSeparatingAxis(poly, other [4][2]float64) bool {
	for i := 0; i < 4; i++ {
		p0 := poly[i]
		p1 := poly[(i+1)%4]
		axisX, axisY := -(p1[1] - p0[1]), p1[0]-p0[0]

		minP, maxP := projectPolygon(poly, axisX, axisY)
		minO, maxO := projectPolygon(other, axisX, axisY)
		if maxP < minO || maxO < minP {
			return true
		}
	}
	return false
}

func projectPolygon(poly [4][2]float64, axisX, axisY float64) (min, max float64) {
	min = poly[0][0]*axisX + poly[0][1]*axisY
	max = min
	for i := 1; i < 4; i++ {
		v := poly[i][0]*axisX + poly[i][1]*axisY
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}
