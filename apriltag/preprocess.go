package apriltag

import "math"

// decimate shrinks img by an integer factor f, replacing each f×f block
// with its integer mean. f==1 returns an unmodified copy.
func decimate(img *Image, f int) *Image {
	return decimateInto(nil, img, f)
}

// decimateInto is decimate, reusing dst's backing array across calls when
// it is already sized for the output (so a fixed decimation factor applied
// to equally-sized frames allocates nothing after the first call).
func decimateInto(dst *Image, img *Image, f int) *Image {
	if f <= 1 {
		dst = resizeImage(dst, img.Width, img.Height)
		copy(dst.Pix, img.Pix)
		return dst
	}

	outW := img.Width / f
	outH := img.Height / f
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	out := resizeImage(dst, outW, outH)

	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			sum, n := 0, 0
			for dy := 0; dy < f && oy*f+dy < img.Height; dy++ {
				for dx := 0; dx < f && ox*f+dx < img.Width; dx++ {
					sum += int(img.At(ox*f+dx, oy*f+dy))
					n++
				}
			}
			out.Set(ox, oy, uint8(sum/n))
		}
	}
	return out
}

// gaussianKernel1D builds a normalized 1-D Gaussian kernel of size ksz (odd)
// for the given sigma.
func gaussianKernel1D(sigma float64, ksz int) []float64 {
	half := ksz / 2
	kernel := make([]float64, ksz)
	var sum float64
	for i := 0; i < ksz; i++ {
		x := float64(i - half)
		v := math.Exp(-x * x / (2 * sigma * sigma))
		kernel[i] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// separableGaussianBlur applies a separable Gaussian blur with the given
// kernel over both axes, clamping at the image edges.
func separableGaussianBlur(img *Image, kernel []float64) *Image {
	out, _ := separableGaussianBlurInto(nil, nil, img, kernel)
	return out
}

// separableGaussianBlurInto is separableGaussianBlur, reusing dst for the
// output and tmp as the horizontal-pass scratch buffer. Both dst and tmp
// may be nil or undersized, in which case they are (re)allocated; the
// (possibly new) tmp buffer is returned alongside the output so a caller
// reusing scratch buffers across calls can carry it forward instead of
// passing nil again next time.
func separableGaussianBlurInto(dst, tmp *Image, img *Image, kernel []float64) (out, newTmp *Image) {
	half := len(kernel) / 2
	tmp = resizeImage(tmp, img.Width, img.Height)

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var sum float64
			for k, kv := range kernel {
				sx := clampInt(x+k-half, 0, img.Width-1)
				sum += float64(img.At(sx, y)) * kv
			}
			tmp.Set(x, y, uint8(math.Round(sum)))
		}
	}

	out = resizeImage(dst, img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			var sum float64
			for k, kv := range kernel {
				sy := clampInt(y+k-half, 0, img.Height-1)
				sum += float64(tmp.At(x, sy)) * kv
			}
			out.Set(x, y, uint8(math.Round(sum)))
		}
	}
	return out, tmp
}

// applySigma applies Gaussian blur (sigma>0), unsharp-mask sharpening
// (sigma<0), or nothing (sigma==0), per quad_sigma's sign convention.
func applySigma(img *Image, quadSigma float64) *Image {
	out, _, _ := applySigmaInto(nil, nil, nil, img, quadSigma)
	return out
}

// applySigmaInto is applySigma, reusing dst for the output and blurBuf/
// blurTmp as scratch for the underlying Gaussian blur pass. It returns the
// (possibly newly allocated) blurBuf and blurTmp alongside the output so a
// caller holding onto scratch buffers across calls can keep them current.
func applySigmaInto(dst, blurBuf, blurTmp *Image, img *Image, quadSigma float64) (out, newBlurBuf, newBlurTmp *Image) {
	if quadSigma == 0 {
		out = resizeImage(dst, img.Width, img.Height)
		copy(out.Pix, img.Pix)
		return out, blurBuf, blurTmp
	}

	sigma := math.Abs(quadSigma)
	ksz := int(math.Ceil(4 * sigma))
	if ksz%2 == 0 {
		ksz++
	}
	if ksz < 3 {
		ksz = 3
	}

	kernel := gaussianKernel1D(sigma, ksz)
	blurred, newTmp := separableGaussianBlurInto(blurBuf, blurTmp, img, kernel)

	if quadSigma > 0 {
		if dst == nil {
			return blurred, blurred, newTmp
		}
		out = resizeImage(dst, img.Width, img.Height)
		copy(out.Pix, blurred.Pix)
		return out, blurred, newTmp
	}

	out = resizeImage(dst, img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := 2*int(img.At(x, y)) - int(blurred.At(x, y))
			out.Set(x, y, uint8(clampInt(v, 0, 255)))
		}
	}
	return out, blurred, newTmp
}
