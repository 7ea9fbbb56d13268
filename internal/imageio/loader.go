// Package imageio loads image files from disk into apriltag.Image buffers.
// It is a thin shell around the Go standard image package (plus TIFF
// support and an optional OpenCV path) and is kept separate from the
// detector core: none of its decode logic participates in the actual
// pixel algorithms, which only ever see an already-decoded Image.
package imageio

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/tiff"
	"gocv.io/x/gocv"

	"github.com/benlenarts/apriltag-go/apriltag"
)

func init() {
	image.RegisterFormat("tiff", "II*\x00", tiff.Decode, tiff.DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00*", tiff.Decode, tiff.DecodeConfig)
}

// Load decodes the image file at path into a grayscale apriltag.Image,
// using the standard library's format registry (PNG, JPEG, GIF, TIFF).
// Color images are converted to grayscale by luma weighting.
func Load(path string) (*apriltag.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode %s: %w", path, err)
	}
	return fromImage(src)
}

// LoadGoCV decodes the image file at path via OpenCV's image codecs
// (IMRead) instead of the standard library, which covers a handful of
// camera and industrial formats the standard decoders don't — notably
// multi-page TIFF stacks and raw Bayer dumps with an OpenCV-side codec.
func LoadGoCV(path string) (*apriltag.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	if mat.Empty() {
		return nil, fmt.Errorf("imageio: gocv could not read %s", path)
	}
	defer mat.Close()

	w, h := mat.Cols(), mat.Rows()
	img, err := apriltag.NewImage(w, h)
	if err != nil {
		return nil, err
	}
	buf, err := mat.DataPtrUint8()
	if err != nil {
		return nil, fmt.Errorf("imageio: reading gocv buffer: %w", err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, buf[y*w+x])
		}
	}
	return img, nil
}

// fromImage converts a decoded standard-library image to grayscale and
// copies it into a fresh apriltag.Image.
func fromImage(src image.Image) (*apriltag.Image, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	img, err := apriltag.NewImage(w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// ITU-R BT.601 luma weights, applied to 16-bit RGBA channels.
			gray := (299*r + 587*g + 114*b) / 1000
			img.Set(x, y, uint8(gray>>8))
		}
	}
	return img, nil
}
