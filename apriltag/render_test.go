package apriltag

import "math"

// renderTagImage synthesizes a grayscale image containing a single
// rendered tag from family f with the given codeword, centered at
// (centerX, centerY) with the given full side length in pixels and an
// optional in-plane rotation (radians). The background is drawn as a
// uniform light-gray (200) quiet field around the tag so adaptive thresholding has
// real contrast to key off.
func renderTagImage(width, height int, f Family, code uint64, centerX, centerY, sizePx, rotation float64) *Image {
	img, _ := NewImage(width, height)
	for i := range img.Pix {
		img.Pix[i] = 200
	}

	half := sizePx / 2
	cosT, sinT := math.Cos(rotation), math.Sin(rotation)

	toImage := func(nx, ny float64) (float64, float64) {
		x := nx * half
		y := ny * half
		return centerX + x*cosT - y*sinT, centerY + x*sinT + y*cosT
	}

	// Quiet zone + border ring: paint the border ring black across the
	// whole widthAtBorder grid, then overwrite interior data bits below.
	cell := sizePx / float64(f.WidthAtBorder)
	for gy := 0; gy < f.WidthAtBorder; gy++ {
		for gx := 0; gx < f.WidthAtBorder; gx++ {
			isBorder := gx == 0 || gy == 0 || gx == f.WidthAtBorder-1 || gy == f.WidthAtBorder-1
			var v uint8
			switch {
			case isBorder && !f.ReversedBorder:
				v = 0
			case isBorder && f.ReversedBorder:
				v = 255
			default:
				v = 128 // filled in below if this cell carries a data bit
			}
			fillCell(img, toImage, gx, gy, f.WidthAtBorder, cell, v)
		}
	}

	bitsHigh := make(map[int]bool, len(f.BitX))
	for i := range f.BitX {
		bit := (code >> uint(len(f.BitX)-1-i)) & 1
		bitsHigh[f.BitY[i]*f.WidthAtBorder+f.BitX[i]] = bit == 1
	}
	for i := range f.BitX {
		v := uint8(0)
		if bitsHigh[f.BitY[i]*f.WidthAtBorder+f.BitX[i]] {
			v = 255
		}
		fillCell(img, toImage, f.BitX[i], f.BitY[i], f.WidthAtBorder, cell, v)
	}

	return img
}

// fillCell rasterizes one grid cell (gx, gy) of a widthAtBorder x
// widthAtBorder tag grid as a filled quad in image space, via the
// supplied tag-to-image mapping.
func fillCell(img *Image, toImage func(nx, ny float64) (float64, float64), gx, gy, widthAtBorder int, cell float64, v uint8) {
	n0x := -1 + 2*float64(gx)/float64(widthAtBorder)
	n0y := -1 + 2*float64(gy)/float64(widthAtBorder)
	n1x := -1 + 2*float64(gx+1)/float64(widthAtBorder)
	n1y := -1 + 2*float64(gy+1)/float64(widthAtBorder)

	corners := [4][2]float64{}
	corners[0][0], corners[0][1] = toImage(n0x, n0y)
	corners[1][0], corners[1][1] = toImage(n1x, n0y)
	corners[2][0], corners[2][1] = toImage(n1x, n1y)
	corners[3][0], corners[3][1] = toImage(n0x, n1y)

	minX, maxX := corners[0][0], corners[0][0]
	minY, maxY := corners[0][1], corners[0][1]
	for _, c := range corners {
		minX, maxX = math.Min(minX, c[0]), math.Max(maxX, c[0])
		minY, maxY = math.Min(minY, c[1]), math.Max(maxY, c[1])
	}

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		for x := int(math.Floor(minX)); x <= int(math.Ceil(maxX)); x++ {
			if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
				continue
			}
			if pointInQuad(float64(x)+0.5, float64(y)+0.5, corners) {
				img.Set(x, y, v)
			}
		}
	}
}

func pointInQuad(px, py float64, c [4][2]float64) bool {
	inside := false
	for i, j := 0, 3; i < 4; j, i = i, i+1 {
		xi, yi := c[i][0], c[i][1]
		xj, yj := c[j][0], c[j][1]
		if (yi > py) != (yj > py) {
			slope := (xj - xi) * (py - yi) / (yj - yi)
			if px < xi+slope {
				inside = !inside
			}
		}
	}
	return inside
}
