package apriltag

import (
	"math"
	"sort"
)

// Quad is a candidate tag boundary: four corners in image pixel
// coordinates, ordered counter-clockwise starting from an arbitrary corner.
// ReversedBorder reports whether the cluster's edge gradients point inward
// rather than outward, i.e. whether the physical border ring is
// white-on-black instead of the usual black-on-white.
type Quad struct {
	Corners        [4][2]float64
	ReversedBorder bool
}

// quadCandidateConfig bounds how aggressively quadFromCluster searches a
// cluster for four dominant corners.
type quadCandidateConfig struct {
	minClusterPoints int
	minTagWidth      float64 // shortest admissible side, in pixels
	maxLineFitError  float64
	cosCriticalRad   float64 // 0 disables the adjacent-side/interior-angle checks
	maxNMaxima       int     // <=0 means unbounded
}

// borderOrientation computes the sign of the cluster's net radial gradient
// flux: for a normal black-on-white border, every edge point's gradient
// points away from the cluster's centroid (white is outside, black
// inside), giving a positive sum; a reversed (white-on-black) border flips
// every gradient's sign, giving a negative sum.
func borderOrientation(points []edgePoint) bool {
	var cx, cy float64
	for _, p := range points {
		cx += float64(p.X) / 2
		cy += float64(p.Y) / 2
	}
	n := float64(len(points))
	cx /= n
	cy /= n

	var s float64
	for _, p := range points {
		x, y := float64(p.X)/2, float64(p.Y)/2
		s += (x-cx)*float64(p.GX) + (y-cy)*float64(p.GY)
	}
	return s < 0
}

// slopeProxy returns a monotonic proxy for the angle of (dx, dy) around the
// full circle, built from octant plus a ratio, avoiding atan2 entirely.
// It increases strictly with true angle and is cheap to compute.
func slopeProxy(dx, dy float64) float64 {
	switch {
	case dx > 0 && dy >= 0:
		return 0 + ratio(dy, dx)
	case dx <= 0 && dy > 0:
		return 2 + ratio(-dx, dy)
	case dx < 0 && dy <= 0:
		return 4 + ratio(-dy, -dx)
	default:
		return 6 + ratio(dx, -dy)
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 1
	}
	if num <= den {
		return num / den
	}
	return 2 - den/num
}

// perturbedCentroid offsets the true centroid of points by a small fixed
// amount. Sorting by angle around the exact centroid leaves points exactly
// opposite the centroid ambiguous between the first and last angular slot;
// an arbitrary small perturbation breaks the tie deterministically without
// biasing the sort for any real tag geometry.
func perturbedCentroid(points []edgePoint) (cx, cy float64) {
	var sx, sy float64
	for _, p := range points {
		sx += float64(p.X)
		sy += float64(p.Y)
	}
	n := float64(len(points))
	return sx/n/2 + 0.05118, sy/n/2 - 0.028581
}

// sortPointsByAngle sorts edge points counter-clockwise around their
// perturbed centroid, returning the points converted to actual pixel
// coordinates alongside each point's line-fit weight (gradient magnitude
// plus one), carried through the same permutation.
func sortPointsByAngle(points []edgePoint) ([]float64pt, []float64) {
	cx, cy := perturbedCentroid(points)
	pts := make([]float64pt, len(points))
	weights := make([]float64, len(points))
	keys := make([]float64, len(points))
	for i, p := range points {
		x, y := float64(p.X)/2, float64(p.Y)/2
		pts[i] = float64pt{x, y}
		weights[i] = math.Hypot(float64(p.GX), float64(p.GY)) + 1
		keys[i] = slopeProxy(x-cx, y-cy)
	}
	// Simple insertion sort: clusters are small (tens to low hundreds of
	// points), and the result needs to be a stable, deterministic ordering.
	for i := 1; i < len(pts); i++ {
		j := i
		for j > 0 && keys[j-1] > keys[j] {
			keys[j-1], keys[j] = keys[j], keys[j-1]
			pts[j-1], pts[j] = pts[j], pts[j-1]
			weights[j-1], weights[j] = weights[j], weights[j-1]
			j--
		}
	}
	return pts, weights
}

type float64pt struct{ X, Y float64 }

// lineFitMoments holds cumulative weighted sums over a cyclic point
// sequence, so the moments of any contiguous (possibly wrapping) range can
// be recovered in O(1) by subtracting two prefix entries. Each point
// contributes to every sum scaled by its weight (edge gradient strength),
// so the resulting fits favor strong, well-contrasted edge samples over
// weak ones.
type lineFitMoments struct {
	n             int
	w             []float64
	mx, my        []float64
	mxx, myy, mxy []float64
}

func buildLineFitMoments(pts []float64pt, weights []float64) *lineFitMoments {
	n := len(pts)
	m := &lineFitMoments{
		n: n,
		w: make([]float64, n+1),
		mx: make([]float64, n+1), my: make([]float64, n+1),
		mxx: make([]float64, n+1), myy: make([]float64, n+1), mxy: make([]float64, n+1),
	}
	for i, p := range pts {
		wt := weights[i]
		m.w[i+1] = m.w[i] + wt
		m.mx[i+1] = m.mx[i] + wt*p.X
		m.my[i+1] = m.my[i] + wt*p.Y
		m.mxx[i+1] = m.mxx[i] + wt*p.X*p.X
		m.myy[i+1] = m.myy[i] + wt*p.Y*p.Y
		m.mxy[i+1] = m.mxy[i] + wt*p.X*p.Y
	}
	return m
}

// rangeSum returns the sum of a prefix-sum array over the contiguous,
// possibly-wrapping range [start, start+count).
func (m *lineFitMoments) rangeSum(sums []float64, start, count int) float64 {
	end := start + count
	if end <= m.n {
		return sums[end] - sums[start]
	}
	return (sums[m.n] - sums[start]) + sums[end-m.n]
}

// fitLine fits a weighted line through count points starting at index
// start (mod n), returning the weighted centroid, unit normal, and the
// smaller eigenvalue of the weighted scatter matrix divided by the total
// weight as a fit-quality error (an MSE-like quantity; 0 is a perfect
// line).
func (m *lineFitMoments) fitLine(start, count int) (cx, cy, nx, ny, errQuality float64) {
	w := m.rangeSum(m.w, start, count)
	sx := m.rangeSum(m.mx, start, count)
	sy := m.rangeSum(m.my, start, count)
	sxx := m.rangeSum(m.mxx, start, count)
	syy := m.rangeSum(m.myy, start, count)
	sxy := m.rangeSum(m.mxy, start, count)

	cx, cy = sx/w, sy/w
	cxx := sxx/w - cx*cx
	cyy := syy/w - cy*cy
	cxy := sxy/w - cx*cy

	lambdaMax, lambdaMin, ux, uy := eigenSym2x2(cxx, cxy, cyy)
	_ = lambdaMax
	return cx, cy, ux, uy, lambdaMin / w
}

// quadFromCluster sorts a cluster's edge points by angle around their
// centroid and searches them for the four corners that best split it into four straight sides.
// It first scores every point by the local line-fit error of a short
// window centered on it, keeps only the local maxima (true corners produce
// sharp local error peaks; mid-edge points don't), then exhaustively tries
// every combination of four candidates as the quad's corners.
func quadFromCluster(points []edgePoint, cfg quadCandidateConfig) (Quad, bool) {
	if len(points) < cfg.minClusterPoints {
		return Quad{}, false
	}
	reversedBorder := borderOrientation(points)

	pts, weights := sortPointsByAngle(points)
	moments := buildLineFitMoments(pts, weights)
	n := len(pts)

	k := n / 12
	if k > 20 {
		k = 20
	}
	if k < 1 {
		k = 1
	}
	if 2*k+1 > n {
		k = (n - 1) / 2
		if k < 1 {
			k = 1
		}
	}
	count := 2*k + 1
	if count > n {
		count = n
	}

	errs := make([]float64, n)
	for i := 0; i < n; i++ {
		start := ((i-k)%n + n) % n
		_, _, _, _, e := moments.fitLine(start, count)
		errs[i] = e
	}
	errs = smoothCircularGaussian(errs, 1.0)

	candidates := localMaximaIndices(errs, cfg.maxNMaxima)
	if len(candidates) < 4 {
		return Quad{}, false
	}

	best := -1.0
	var bestQuad Quad
	found := false

	forEachQuadCombination(candidates, func(a, b, c, d int) {
		q, err, ok := evaluateQuadCombination(pts, moments, a, b, c, d, cfg)
		if !ok {
			return
		}
		if !found || err < best {
			best = err
			bestQuad = q
			found = true
		}
	})

	if !found {
		return Quad{}, false
	}
	bestQuad.ReversedBorder = reversedBorder
	if !validateQuad(&bestQuad, cfg.minTagWidth, cfg.cosCriticalRad) {
		return Quad{}, false
	}
	return bestQuad, true
}

// smoothCircularGaussian convolves errs, treated as a cyclic sequence,
// with a Gaussian kernel of the given sigma. The kernel radius grows until
// its weight drops below 0.05, rather than using a fixed-size window.
func smoothCircularGaussian(errs []float64, sigma float64) []float64 {
	weights := []float64{1}
	for r := 1; ; r++ {
		wv := math.Exp(-float64(r*r) / (2 * sigma * sigma))
		if wv < 0.05 {
			break
		}
		weights = append(weights, wv)
	}
	norm := weights[0]
	for _, wv := range weights[1:] {
		norm += 2 * wv
	}

	n := len(errs)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := weights[0] * errs[i]
		for r := 1; r < len(weights); r++ {
			v += weights[r] * (errs[((i-r)%n+n)%n] + errs[(i+r)%n])
		}
		out[i] = v / norm
	}
	return out
}

// localMaximaIndices returns every index whose value is strictly greater
// than both cyclic neighbors, capped to the maxN strongest maxima (by
// value) if there are more than that; maxN<=0 means unbounded. The
// surviving indices are returned in ascending order.
func localMaximaIndices(errs []float64, maxN int) []int {
	n := len(errs)
	var out []int
	for i := 0; i < n; i++ {
		prev := errs[(i-1+n)%n]
		next := errs[(i+1)%n]
		if errs[i] > prev && errs[i] > next {
			out = append(out, i)
		}
	}
	if maxN > 0 && len(out) > maxN {
		sort.Slice(out, func(a, b int) bool { return errs[out[a]] > errs[out[b]] })
		out = out[:maxN]
		sort.Ints(out)
	}
	return out
}

// forEachQuadCombination calls fn once for every combination of four
// distinct, cyclically-ordered indices from candidates.
func forEachQuadCombination(candidates []int, fn func(a, b, c, d int)) {
	n := len(candidates)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					fn(candidates[i], candidates[j], candidates[k], candidates[l])
				}
			}
		}
	}
}

// evaluateQuadCombination fits the four sides implied by corner indices
// a<b<c<d on the angularly-sorted point ring, intersects consecutive sides
// to recover the actual corners, and returns the summed line-fit error.
func evaluateQuadCombination(pts []float64pt, moments *lineFitMoments, a, b, c, d int, cfg quadCandidateConfig) (Quad, float64, bool) {
	n := len(pts)
	segs := [4][2]int{{a, b}, {b, c}, {c, d}, {d, a}}

	var lines [4][4]float64 // cx, cy, nx, ny
	var total float64
	for i, seg := range segs {
		start := seg[0]
		count := seg[1] - seg[0]
		if count <= 0 {
			count += n
		}
		if count < 2 {
			return Quad{}, 0, false
		}
		cx, cy, nx, ny, e := moments.fitLine(start, count)
		lines[i] = [4]float64{cx, cy, nx, ny}
		total += e
		if e > cfg.maxLineFitError && cfg.maxLineFitError > 0 {
			return Quad{}, 0, false
		}
	}

	if cfg.cosCriticalRad > 0 {
		for i := 0; i < 4; i++ {
			n1 := lines[i]
			n2 := lines[(i+1)%4]
			dot := n1[2]*n2[2] + n1[3]*n2[3]
			if math.Abs(dot) > cfg.cosCriticalRad {
				return Quad{}, 0, false
			}
		}
	}

	var q Quad
	for i := 0; i < 4; i++ {
		prev := lines[(i+3)%4]
		cur := lines[i]
		corner, ok := intersectLines(prev, cur)
		if !ok {
			return Quad{}, 0, false
		}
		q.Corners[i] = corner
	}
	return q, total, true
}

// intersectLines intersects two lines, each given as (point, unit normal),
// by converting to the implicit form nx*x+ny*y=d and solving the 2x2
// system. Returns false if the lines are parallel.
func intersectLines(l1, l2 [4]float64) ([2]float64, bool) {
	// Direction is perpendicular to the normal.
	a1, b1 := l1[2], l1[3]
	a2, b2 := l2[2], l2[3]
	d1 := a1*l1[0] + b1*l1[1]
	d2 := a2*l2[0] + b2*l2[1]

	det := a1*b2 - a2*b1
	if math.Abs(det) < 1e-3 {
		return [2]float64{}, false
	}
	x := (d1*b2 - d2*b1) / det
	y := (a1*d2 - a2*d1) / det
	return [2]float64{x, y}, true
}

// validateQuad rejects self-intersecting or non-convex quads, those whose
// enclosed area falls short of the minimum plausible tag footprint, and
// those with an interior angle too close to 0 or 180 degrees. If the
// corners are wound clockwise, they are reversed in place so every quad
// that survives validation is counter-clockwise.
func validateQuad(q *Quad, minTagWidth, cosCriticalRad float64) bool {
	area := shoelaceSigned(q.Corners)
	if area < 0 {
		q.Corners[1], q.Corners[3] = q.Corners[3], q.Corners[1]
		area = -area
	}

	minArea := 0.95 * minTagWidth * minTagWidth
	if area < minArea {
		return false
	}
	if !IsConvexCCW(q.Corners) {
		return false
	}
	if cosCriticalRad > 0 {
		c := q.Corners
		for i := 0; i < 4; i++ {
			prev, cur, next := c[(i+3)%4], c[i], c[(i+1)%4]
			e1x, e1y := cur[0]-prev[0], cur[1]-prev[1]
			e2x, e2y := next[0]-cur[0], next[1]-cur[1]
			n1, n2 := math.Hypot(e1x, e1y), math.Hypot(e2x, e2y)
			if n1 < 1e-9 || n2 < 1e-9 {
				return false
			}
			cosAngle := (e1x*e2x + e1y*e2y) / (n1 * n2)
			if math.Abs(cosAngle) > cosCriticalRad {
				return false
			}
		}
	}
	return true
}

// shoelaceSigned returns the signed polygon area of c (positive for
// counter-clockwise winding, negative for clockwise).
func shoelaceSigned(c [4][2]float64) float64 {
	var sum float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		sum += c[i][0]*c[j][1] - c[j][0]*c[i][1]
	}
	return sum / 2
}

func quadArea(c [4][2]float64) float64 {
	return math.Abs(shoelaceSigned(c))
}

// IsConvexCCW reports whether the four corners form a convex polygon,
// regardless of winding direction.
func IsConvexCCW(c [4][2]float64) bool {
	var sign int
	for i := 0; i < 4; i++ {
		a, b, d := c[i], c[(i+1)%4], c[(i+2)%4]
		cross := (b[0]-a[0])*(d[1]-b[1]) - (b[1]-a[1])*(d[0]-b[0])
		if cross == 0 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if sign != s {
			return false
		}
	}
	return sign != 0
}
