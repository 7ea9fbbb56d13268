package apriltag

import "math"

// Detection is one successfully decoded tag.
type Detection struct {
	Family         string
	ID             int
	Hamming        int
	DecisionMargin float64
	Homography     Homography
	Center         [2]float64
	Corners        [4][2]float64
}

// grayModel fits an affine illumination surface f(x,y) = a*x + b*y + c
// through sampled border intensities, by accumulating the 3x3 normal
// equations incrementally and solving them once at the end. This
// compensates for lighting gradients across the tag before thresholding
// each bit.
type grayModel struct {
	sxx, sxy, sx, syy, sy, s1 float64
	svx, svy, sv              float64
	n                         int
}

func (g *grayModel) add(x, y, v float64) {
	g.sxx += x * x
	g.sxy += x * y
	g.sx += x
	g.syy += y * y
	g.sy += y
	g.s1++
	g.svx += v * x
	g.svy += v * y
	g.sv += v
	g.n++
}

func (g *grayModel) solve() (a, b, c float64, ok bool) {
	m := [3][3]float64{
		{g.sxx, g.sxy, g.sx},
		{g.sxy, g.syy, g.sy},
		{g.sx, g.sy, g.s1},
	}
	rhs := [3]float64{g.svx, g.svy, g.sv}
	sol, ok := solveLinear3x3(m, rhs)
	return sol[0], sol[1], sol[2], ok
}

func (g *grayModel) predict(a, b, c, x, y float64) float64 {
	return a*x + b*y + c
}

// solveLinear3x3 solves m*x = rhs by Cramer's rule.
func solveLinear3x3(m [3][3]float64, rhs [3]float64) ([3]float64, bool) {
	det := det3x3(m)
	if math.Abs(det) < 1e-10 {
		return [3]float64{}, false
	}
	var sol [3]float64
	for col := 0; col < 3; col++ {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = rhs[row]
		}
		sol[col] = det3x3(mc) / det
	}
	return sol, true
}

// gridToNormalized maps a grid coordinate g in [0, widthAtBorder) to
// normalized tag-space coordinates in [-1, 1], where ±1 lines up with the
// quad corners (the outer edge of the black border). Coordinates outside
// [0, widthAtBorder), such as g=-1 for the quiet zone just outside the
// border, extend the same mapping linearly.
func gridToNormalized(g, widthAtBorder int) float64 {
	return -1 + 2*(float64(g)+0.5)/float64(widthAtBorder)
}

// laplacianBits sharpens each sampled bit's value with a 4-neighbor
// Laplacian kernel over the tag's (bitX, bitY) grid coordinate space. Only
// neighbor cells that are themselves sampled data bits contribute; a cell
// on the edge of the data region, or adjacent to a border/quiet-zone cell,
// simply omits that term rather than rescaling the kernel weight to
// compensate, so edge bits are sharpened less aggressively than interior
// bits.
func laplacianBits(values []float64, bitX, bitY []int) []float64 {
	type cell struct{ x, y int }
	at := make(map[cell]int, len(values))
	for i := range values {
		at[cell{bitX[i], bitY[i]}] = i
	}

	lap := make([]float64, len(values))
	for i, v := range values {
		var l float64
		for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if j, ok := at[cell{bitX[i] + d[0], bitY[i] + d[1]}]; ok {
				l += v - values[j]
			}
		}
		lap[i] = l
	}
	return lap
}

// sharpenBitsLaplacian adds coeff times each bit's local Laplacian back
// into its value, increasing contrast between a bit and cells that
// disagree with it before the bit is thresholded.
func sharpenBitsLaplacian(values []float64, bitX, bitY []int, coeff float64) []float64 {
	lap := laplacianBits(values, bitX, bitY)
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + coeff*lap[i]
	}
	return out
}

// sampleRingForGrayModel samples a ring of points around the tag's
// perimeter at the given grid offset from the border: ringOffset=0 walks
// the border ring itself, ringOffset=-1 walks one cell further out, into
// the quiet zone just outside the border.
func sampleRingForGrayModel(img *Image, hom Homography, widthAtBorder, ringOffset int) grayModel {
	var gm grayModel
	lo := ringOffset
	hi := widthAtBorder - 1 - ringOffset
	for i := 0; i < widthAtBorder; i++ {
		for _, g := range [][2]int{{i, lo}, {i, hi}, {lo, i}, {hi, i}} {
			nx := gridToNormalized(g[0], widthAtBorder)
			ny := gridToNormalized(g[1], widthAtBorder)
			px, py := hom.Project(nx, ny)
			gm.add(px, py, img.Interpolate(px, py))
		}
	}
	return gm
}

// decodeQuad samples every data bit of f at the grid locations implied by
// hom, fits independent white and black illumination models from the
// quiet zone and border rings, thresholds each bit against the local
// black/white midpoint, and looks the resulting codeword up in qd.
func decodeQuad(img *Image, q Quad, hom Homography, f Family, qd *QuickDecode, maxHamming int, sharpenCoeff float64) (Detection, bool) {
	borderGM := sampleRingForGrayModel(img, hom, f.WidthAtBorder, 0)
	quietGM := sampleRingForGrayModel(img, hom, f.WidthAtBorder, -1)

	var blackGM, whiteGM grayModel
	if !f.ReversedBorder {
		blackGM, whiteGM = borderGM, quietGM
	} else {
		blackGM, whiteGM = quietGM, borderGM
	}

	ba, bb, bc, ok := blackGM.solve()
	if !ok {
		return Detection{}, false
	}
	wa, wb, wc, ok := whiteGM.solve()
	if !ok {
		return Detection{}, false
	}

	cpx, cpy := hom.Project(0, 0)
	blackAt0 := blackGM.predict(ba, bb, bc, cpx, cpy)
	whiteAt0 := whiteGM.predict(wa, wb, wc, cpx, cpy)
	if whiteAt0 <= blackAt0 {
		return Detection{}, false
	}

	raw := make([]float64, f.bitCount())
	for i := range f.BitX {
		nx := gridToNormalized(f.BitX[i], f.WidthAtBorder)
		ny := gridToNormalized(f.BitY[i], f.WidthAtBorder)
		px, py := hom.Project(nx, ny)
		blackP := blackGM.predict(ba, bb, bc, px, py)
		whiteP := whiteGM.predict(wa, wb, wc, px, py)
		raw[i] = img.Interpolate(px, py) - (whiteP+blackP)/2
	}
	values := sharpenBitsLaplacian(raw, f.BitX, f.BitY, sharpenCoeff)

	var code uint64
	var whiteScore, blackScore float64
	whiteCount, blackCount := 1, 1 // Laplace smoothing
	for _, v := range values {
		bit := uint64(0)
		if v > 0 {
			bit = 1
			whiteScore += v
			whiteCount++
		} else {
			blackScore += -v
			blackCount++
		}
		code = code<<1 | bit
	}
	margin := 100 * math.Min(whiteScore/float64(whiteCount), blackScore/float64(blackCount))
	if margin <= 0 {
		return Detection{}, false
	}

	id, rotation, distance, found := qd.decode(code)
	if !found || distance > maxHamming {
		return Detection{}, false
	}

	corners := q.Corners
	for r := 0; r < rotation; r++ {
		corners = [4][2]float64{corners[1], corners[2], corners[3], corners[0]}
	}

	var cx, cy float64
	for _, c := range corners {
		cx += c[0]
		cy += c[1]
	}

	return Detection{
		Family:         f.Name,
		ID:             id,
		Hamming:        distance,
		DecisionMargin: margin,
		Homography:     hom,
		Center:         [2]float64{cx / 4, cy / 4},
		Corners:        corners,
	}, true
}
