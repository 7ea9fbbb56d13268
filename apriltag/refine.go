package apriltag

import "math"

// refineEdges nudges each quad corner's adjoining sides toward the true
// sub-pixel edge by marching a short distance along the side's normal at
// several points along its length, locating the steepest intensity
// gradient at each, and re-fitting the side through the located points.
// Corners are then recomputed by re-intersecting the refined sides.
// decimFactor is the QuadDecimate factor the quad's source image was
// decimated by before the quad was found; it widens the search range to
// cover the sub-pixel uncertainty that decimation introduces.
func refineEdges(img *Image, q Quad, decimFactor int) Quad {
	searchRadius := float64(decimFactor + 1)

	var lines [4][4]float64 // cx, cy, nx, ny, per side i..i+1
	for i := 0; i < 4; i++ {
		p0 := q.Corners[i]
		p1 := q.Corners[(i+1)%4]
		lines[i] = refineSide(img, p0, p1, searchRadius)
	}

	var out Quad
	for i := 0; i < 4; i++ {
		prev := lines[(i+3)%4]
		cur := lines[i]
		if corner, ok := intersectLines(prev, cur); ok {
			out.Corners[i] = corner
		} else {
			out.Corners[i] = q.Corners[i]
		}
	}
	out.ReversedBorder = q.ReversedBorder
	return out
}

// refineSide samples points along p0->p1, searches each for the strongest
// gradient along the side's outward normal, and fits a line through the
// located sub-pixel edge points. Falls back to the original side if too few
// samples find a usable gradient. The sample count scales with the side's
// length so long sides get proportionally more samples, with a floor of 16.
func refineSide(img *Image, p0, p1 [2]float64, radius float64) [4]float64 {
	dx := p1[0] - p0[0]
	dy := p1[1] - p0[1]
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		return [4]float64{p0[0], p0[1], 1, 0}
	}
	tx, ty := dx/length, dy/length
	nx, ny := -ty, tx

	samples := int(length / 8)
	if samples < 16 {
		samples = 16
	}

	var pts []float64pt
	for s := 0; s < samples; s++ {
		t := (float64(s) + 0.5) / float64(samples)
		bx := p0[0] + t*dx
		by := p0[1] + t*dy
		if ex, ey, ok := searchGradientPeak(img, bx, by, nx, ny, radius); ok {
			pts = append(pts, float64pt{ex, ey})
		}
	}
	if len(pts) < 2 {
		cx, cy := (p0[0]+p1[0])/2, (p0[1]+p1[1])/2
		return [4]float64{cx, cy, nx, ny}
	}

	weights := make([]float64, len(pts))
	for i := range weights {
		weights[i] = 1
	}
	moments := buildLineFitMoments(pts, weights)
	cx, cy, fx, fy, _ := moments.fitLine(0, len(pts))
	return [4]float64{cx, cy, fx, fy}
}

// searchGradientPeak walks outward from (bx, by) along ±(nx, ny) in
// quarter-pixel steps out to radius, and returns the location of the
// largest-magnitude centered difference of image intensity (the value
// ahead of a point minus the value behind it) — the steepest local edge.
func searchGradientPeak(img *Image, bx, by, nx, ny, radius float64) (float64, float64, bool) {
	const step = 0.25
	steps := int(radius / step)

	bestGrad := 0.0
	bestT := 0.0
	found := false

	for s := -steps + 1; s < steps; s++ {
		t := float64(s) * step
		g1 := img.Interpolate(bx+(t+step)*nx, by+(t+step)*ny)
		g2 := img.Interpolate(bx+(t-step)*nx, by+(t-step)*ny)
		grad := g1 - g2
		if grad < 0 {
			grad = -grad
		}
		if grad > bestGrad {
			bestGrad = grad
			bestT = t
			found = true
		}
	}
	if !found {
		return 0, 0, false
	}
	return bx + bestT*nx, by + bestT*ny, true
}
