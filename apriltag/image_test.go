package apriltag

import "testing"

func TestNewImageStride(t *testing.T) {
	img, err := NewImage(100, 50)
	if err != nil {
		t.Fatalf("NewImage: %v", err)
	}
	if img.Stride%64 != 0 {
		t.Errorf("stride %d not a multiple of 64", img.Stride)
	}
	if img.Stride < img.Width {
		t.Errorf("stride %d < width %d", img.Stride, img.Width)
	}
}

func TestNewImageInvalidDimensions(t *testing.T) {
	if _, err := NewImage(0, 10); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := NewImage(10, -1); err == nil {
		t.Error("expected error for negative height")
	}
	if _, err := NewImage(maxImageDimension+1, 10); err == nil {
		t.Error("expected error for oversized width")
	}
}

func TestNewImageFromBufferMismatch(t *testing.T) {
	buf := make([]uint8, 10)
	if _, err := NewImageFromBuffer(10, 10, 10, buf); err == nil {
		t.Error("expected error for undersized buffer")
	}
}

func TestImageSetAt(t *testing.T) {
	img, _ := NewImage(10, 10)
	img.Set(3, 4, 200)
	if got := img.At(3, 4); got != 200 {
		t.Errorf("At(3,4) = %d, want 200", got)
	}
}

func TestInterpolateExactPixel(t *testing.T) {
	img, _ := NewImage(4, 4)
	img.Set(1, 1, 100)
	if got := img.Interpolate(1, 1); got != 100 {
		t.Errorf("Interpolate(1,1) = %v, want 100", got)
	}
}

func TestInterpolateMidpoint(t *testing.T) {
	img, _ := NewImage(4, 4)
	img.Set(0, 0, 0)
	img.Set(1, 0, 100)
	img.Set(0, 1, 0)
	img.Set(1, 1, 100)
	got := img.Interpolate(0.5, 0)
	if got < 49 || got > 51 {
		t.Errorf("Interpolate(0.5,0) = %v, want ~50", got)
	}
}

func TestInterpolateClampsOutOfBounds(t *testing.T) {
	img, _ := NewImage(4, 4)
	img.Set(0, 0, 77)
	got := img.Interpolate(-5, -5)
	if got != 77 {
		t.Errorf("Interpolate(-5,-5) = %v, want 77 (clamped)", got)
	}
}

func TestCloneIndependence(t *testing.T) {
	img, _ := NewImage(4, 4)
	img.Set(0, 0, 1)
	clone := img.clone()
	clone.Set(0, 0, 99)
	if img.At(0, 0) != 1 {
		t.Error("mutating clone affected original")
	}
}
