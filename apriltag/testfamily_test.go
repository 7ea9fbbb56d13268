package apriltag

// testFamily is a small synthetic fixture family used only by this
// package's tests. It is not tag16h5, tag36h11, or any other published
// family — just enough geometry and a handful of codewords to exercise
// the decoder end to end. Grid layout: a 6x6 cell tag, one cell wide
// black border ring, and a 4x4 block of data bits in the interior. The
// data bits are listed in four groups of four, each group the previous one
// turned a quarter turn about the grid center, which is the bit order
// rotate90's cyclic shift of four equal groups assumes.
func newTestFamily() Family {
	bitX := []int{1, 2, 3, 2, 4, 4, 4, 3, 4, 3, 2, 3, 1, 1, 1, 2}
	bitY := []int{1, 1, 1, 2, 1, 2, 3, 2, 4, 4, 4, 3, 4, 3, 2, 3}

	return Family{
		Name:               "testfamily16",
		WidthAtBorder:      6,
		TotalWidth:         8,
		ReversedBorder:     false,
		MinHammingDistance: 5,
		BitX:               bitX,
		BitY:               bitY,
		Codes: []uint64{
			0x0001,
			0x1F08,
			0x3C73,
			0xA5A5,
		},
	}
}
