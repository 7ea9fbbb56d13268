package apriltag

import "errors"

// Programmer errors: reported immediately, no detection attempted.
var (
	// ErrInvalidImage is returned when an image's dimensions exceed the
	// fixed-point coordinate range or its stride is smaller than its width.
	ErrInvalidImage = errors.New("apriltag: invalid image dimensions")

	// ErrEmptyFamilyList is returned when a Detector is constructed with no
	// tag families.
	ErrEmptyFamilyList = errors.New("apriltag: detector requires at least one tag family")

	// ErrMismatchedBuffer is returned when a caller-supplied pixel buffer
	// does not have the length implied by its stride and height.
	ErrMismatchedBuffer = errors.New("apriltag: pixel buffer length does not match stride*height")
)

// maxImageDimension is the largest width or height an Image may have.
// Edge-point coordinates are packed as 2x the pixel coordinate into a
// 16-bit unsigned integer, so pixel coordinates must fit in 15 bits.
const maxImageDimension = 32767
