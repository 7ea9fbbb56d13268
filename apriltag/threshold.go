package apriltag

const tileSize = 4

// thresholdScratch holds adaptiveThreshold's per-tile and morphology
// buffers, reused across calls on equally-sized images instead of being
// reallocated every frame.
type thresholdScratch struct {
	tileMin, tileMax      []uint8
	dilatedMax, erodedMin []uint8
	morphA, morphB        *Image
}

// ensureLen returns s resliced/grown to length n, reusing the backing array
// when it already has enough capacity.
func ensureLen(s []uint8, n int) []uint8 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]uint8, n)
}

// adaptiveThreshold produces a ternary image: 0 (black), 255 (white), or 127
// (unknown, insufficient local contrast). Tiles along the right and bottom
// edges may be partial; their min/max are computed only from the pixels they
// actually cover.
func adaptiveThreshold(img *Image, minWhiteBlackDiff int, deglitch bool) *Image {
	return adaptiveThresholdInto(nil, &thresholdScratch{}, img, minWhiteBlackDiff, deglitch)
}

// adaptiveThresholdInto is adaptiveThreshold, reusing dst and the buffers
// held by scratch across calls.
func adaptiveThresholdInto(dst *Image, scratch *thresholdScratch, img *Image, minWhiteBlackDiff int, deglitch bool) *Image {
	w, h := img.Width, img.Height
	tw := ceilDiv(w, tileSize)
	th := ceilDiv(h, tileSize)
	nt := tw * th

	scratch.tileMin = ensureLen(scratch.tileMin, nt)
	scratch.tileMax = ensureLen(scratch.tileMax, nt)
	tileMin, tileMax := scratch.tileMin, scratch.tileMax
	for i := range tileMin {
		tileMin[i] = 255
		tileMax[i] = 0
	}

	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			x0, y0 := tx*tileSize, ty*tileSize
			x1, y1 := minInt(x0+tileSize, w), minInt(y0+tileSize, h)
			lo, hi := uint8(255), uint8(0)
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					v := img.At(x, y)
					if v < lo {
						lo = v
					}
					if v > hi {
						hi = v
					}
				}
			}
			tileMin[ty*tw+tx] = lo
			tileMax[ty*tw+tx] = hi
		}
	}

	scratch.dilatedMax = ensureLen(scratch.dilatedMax, nt)
	scratch.erodedMin = ensureLen(scratch.erodedMin, nt)
	dilatedMax, erodedMin := scratch.dilatedMax, scratch.erodedMin
	for ty := 0; ty < th; ty++ {
		for tx := 0; tx < tw; tx++ {
			hi, lo := uint8(0), uint8(255)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := tx+dx, ty+dy
					if nx < 0 || nx >= tw || ny < 0 || ny >= th {
						continue
					}
					idx := ny*tw + nx
					if tileMax[idx] > hi {
						hi = tileMax[idx]
					}
					if tileMin[idx] < lo {
						lo = tileMin[idx]
					}
				}
			}
			dilatedMax[ty*tw+tx] = hi
			erodedMin[ty*tw+tx] = lo
		}
	}

	out := resizeImage(dst, w, h)
	for y := 0; y < h; y++ {
		ty := y / tileSize
		for x := 0; x < w; x++ {
			tx := x / tileSize
			idx := ty*tw + tx
			lo, hi := int(erodedMin[idx]), int(dilatedMax[idx])

			var v uint8
			if hi-lo < minWhiteBlackDiff {
				v = 127
			} else {
				thresh := lo + (hi-lo)/2
				if int(img.At(x, y)) > thresh {
					v = 255
				} else {
					v = 0
				}
			}
			out.Set(x, y, v)
		}
	}

	if deglitch {
		deglitchImageInto(scratch, out)
	}
	return out
}

// deglitchImage applies a morphological close (dilate then erode) to the
// black/white regions of a ternary image, leaving unknown (127) pixels alone.
func deglitchImage(img *Image) {
	deglitchImageInto(&thresholdScratch{}, img)
}

// deglitchImageInto is deglitchImage, reusing scratch's morphA/morphB
// buffers for the dilate and erode passes.
func deglitchImageInto(scratch *thresholdScratch, img *Image) {
	scratch.morphA = ternaryMorphOpInto(scratch.morphA, img, true)
	scratch.morphB = ternaryMorphOpInto(scratch.morphB, scratch.morphA, false)
	copy(img.Pix, scratch.morphB.Pix)
}

// ternaryMorphOp dilates or erodes the {0,255} pixels of a ternary image,
// ignoring 127 neighbors and leaving 127 pixels themselves unchanged.
func ternaryMorphOp(img *Image, dilate bool) *Image {
	return ternaryMorphOpInto(nil, img, dilate)
}

// ternaryMorphOpInto is ternaryMorphOp, reusing dst across calls.
func ternaryMorphOpInto(dst *Image, img *Image, dilate bool) *Image {
	out := resizeImage(dst, img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			self := img.At(x, y)
			if self == 127 {
				out.Set(x, y, 127)
				continue
			}
			best := self
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= img.Width || ny < 0 || ny >= img.Height {
						continue
					}
					v := img.At(nx, ny)
					if v == 127 {
						continue
					}
					if dilate && v > best {
						best = v
					} else if !dilate && v < best {
						best = v
					}
				}
			}
			out.Set(x, y, best)
		}
	}
	return out
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
