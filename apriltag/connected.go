package apriltag

// connectedComponents scans a ternary threshold image and merges same-valued
// pixels into connected sets. Black (0) and white (255) pixels use
// 4-connectivity (left, up); white pixels additionally connect diagonally
// (upper-left, upper-right), since white background regions are expected to
// wrap around thin black features without being cut by them. Unknown (127)
// pixels never participate and are left as untouched singletons.
func connectedComponents(img *Image) *unionFind {
	return connectedComponentsInto(newUnionFind(0), img)
}

// connectedComponentsInto is connectedComponents, reusing uf's backing
// arrays across calls on equally-sized images.
func connectedComponentsInto(uf *unionFind, img *Image) *unionFind {
	w, h := img.Width, img.Height
	uf.reset(w * h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := img.At(x, y)
			if v == 127 {
				continue
			}
			id := uint32(y*w + x)

			hasLeft := x > 0 && img.At(x-1, y) == v
			if hasLeft {
				uf.union(id, id-1)
			}

			if y == 0 {
				continue
			}

			hasUpperLeft := v == 255 && x > 0 && img.At(x-1, y-1) == v
			if hasUpperLeft {
				uf.union(id, id-uint32(w)-1)
			}

			if img.At(x, y-1) == v {
				// If left and upper-left are both already the same color and
				// connected to each other, the up-union can't change the
				// component id's root belongs to; skip the redundant find/union.
				if !(hasLeft && hasUpperLeft && uf.find(id-1) == uf.find(id-uint32(w)-1)) {
					uf.union(id, id-uint32(w))
				}
			}

			if v == 255 && x < w-1 && img.At(x+1, y-1) == v {
				uf.union(id, id-uint32(w)+1)
			}
		}
	}

	return uf
}
