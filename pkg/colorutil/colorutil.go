// Package colorutil provides shared color constants used when rendering
// detection overlays.
package colorutil

import "image/color"

// Overlay colors used when drawing detection outlines.
var (
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)
