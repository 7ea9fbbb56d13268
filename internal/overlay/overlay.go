// Package overlay renders detected tag outlines onto a copy of the
// source image, for visual debugging of the detection pipeline.
package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/benlenarts/apriltag-go/apriltag"
	"github.com/benlenarts/apriltag-go/pkg/colorutil"
)

// Draw copies src into a new RGBA image and draws each detection's quad
// outline (in Cyan) and its center (a small Magenta cross). No ID label is
// drawn. Non-convex corner sets (which should never occur for a valid
// detection, but are cheap to guard against when drawing) are skipped.
func Draw(src *apriltag.Image, detections []apriltag.Detection) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, src.Width, src.Height))
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			v := src.At(x, y)
			out.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	for _, d := range detections {
		if !apriltag.IsConvexCCW(d.Corners) {
			continue
		}

		for i := 0; i < 4; i++ {
			drawLine(out, d.Corners[i], d.Corners[(i+1)%4], colorutil.Cyan)
		}

		drawCross(out, centroid(d.Corners), colorutil.Magenta)
	}
	return out
}

// centroid returns the unweighted average of a quad's four corners.
func centroid(c [4][2]float64) [2]float64 {
	var cx, cy float64
	for _, p := range c {
		cx += p[0]
		cy += p[1]
	}
	return [2]float64{cx / 4, cy / 4}
}

func drawLine(img draw.Image, a, b [2]float64, c color.Color) {
	dx, dy := b[0]-a[0], b[1]-a[1]
	steps := int(math.Hypot(dx, dy)) + 1
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		px := a[0] + dx*t
		py := a[1] + dy*t
		setSafe(img, int(px), int(py), c)
	}
}

func drawCross(img draw.Image, p [2]float64, c color.Color) {
	const r = 4
	px, py := int(p[0]), int(p[1])
	for i := -r; i <= r; i++ {
		setSafe(img, px+i, py, c)
		setSafe(img, px, py+i, c)
	}
}

func setSafe(img draw.Image, x, y int, c color.Color) {
	b := img.Bounds()
	if x < b.Min.X || x >= b.Max.X || y < b.Min.Y || y >= b.Max.Y {
		return
	}
	img.Set(x, y, c)
}
