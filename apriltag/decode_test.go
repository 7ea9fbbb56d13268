package apriltag

import (
	"math"
	"testing"
)

func TestGrayModelFitsPlane(t *testing.T) {
	var gm grayModel
	// f(x,y) = 2x + 3y + 10, sampled exactly.
	for x := 0.0; x < 5; x++ {
		for y := 0.0; y < 5; y++ {
			gm.add(x, y, 2*x+3*y+10)
		}
	}
	a, b, c, ok := gm.solve()
	if !ok {
		t.Fatal("expected a well-posed fit")
	}
	if math.Abs(a-2) > 1e-6 || math.Abs(b-3) > 1e-6 || math.Abs(c-10) > 1e-6 {
		t.Errorf("fit = (%v, %v, %v), want (2, 3, 10)", a, b, c)
	}
}

func TestGrayModelRejectsDegenerate(t *testing.T) {
	var gm grayModel
	gm.add(0, 0, 100) // a single point can't determine a plane
	if _, _, _, ok := gm.solve(); ok {
		t.Error("expected degenerate single-point fit to be rejected")
	}
}

func TestGridToNormalizedRange(t *testing.T) {
	if got := gridToNormalized(0, 6); math.Abs(got-(-1+1.0/6)) > 1e-9 {
		t.Errorf("gridToNormalized(0,6) = %v", got)
	}
	if got := gridToNormalized(5, 6); math.Abs(got-(1-1.0/6)) > 1e-9 {
		t.Errorf("gridToNormalized(5,6) = %v", got)
	}
}

func TestSharpenBitsLaplacianPreservesFlatRegion(t *testing.T) {
	bitX := []int{1, 2, 1, 2}
	bitY := []int{1, 1, 2, 2}
	values := []float64{100, 100, 100, 100}
	out := sharpenBitsLaplacian(values, bitX, bitY, 4)
	for i, v := range out {
		if math.Abs(v-100) > 1e-9 {
			t.Errorf("sharpen of flat region changed value at %d: %v", i, v)
		}
	}
}
