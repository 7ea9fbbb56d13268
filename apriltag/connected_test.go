package apriltag

import "testing"

func TestConnectedComponentsMergesBlock(t *testing.T) {
	img, _ := NewImage(6, 6)
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			img.Set(x, y, 0)
		}
	}
	uf := connectedComponents(img)
	w := img.Width
	if uf.find(uint32(1*w+1)) != uf.find(uint32(3*w+3)) {
		t.Error("opposite corners of a solid black block should share a component")
	}
	if uf.find(uint32(0*w+0)) == uf.find(uint32(1*w+1)) {
		t.Error("white background and black block should not share a component")
	}
}

func TestConnectedComponentsIgnoresUnknown(t *testing.T) {
	img, _ := NewImage(4, 4)
	for i := range img.Pix {
		img.Pix[i] = 127
	}
	uf := connectedComponents(img)
	w := img.Width
	if uf.find(uint32(0)) != 0 {
		t.Error("unknown pixels should remain singleton components")
	}
	_ = w
}

func TestConnectedComponentsDiagonalWhiteOnly(t *testing.T) {
	// Two white pixels touching only diagonally should merge; two black
	// pixels touching only diagonally should not (asymmetric connectivity).
	img, _ := NewImage(2, 2)
	img.Set(0, 0, 255)
	img.Set(1, 1, 255)
	img.Set(1, 0, 0)
	img.Set(0, 1, 0)
	uf := connectedComponents(img)
	w := img.Width
	if uf.find(uint32(0)) != uf.find(uint32(1*w+1)) {
		t.Error("diagonally touching white pixels should merge")
	}
	if uf.find(uint32(1)) == uf.find(uint32(1*w+0)) {
		t.Error("diagonally touching black pixels should not merge")
	}
}
