package apriltag

// Family describes one tag family's geometry and codebook. Callers supply
// their own Family values; no family's codeword table ships with this
// package, since the codebooks are generated artifacts maintained by the
// family designers, not detection logic.
type Family struct {
	// Name identifies the family in Detection results, e.g. "tag36h11".
	Name string

	// WidthAtBorder is the number of grid cells spanning one side of the
	// tag, border included.
	WidthAtBorder int

	// TotalWidth is WidthAtBorder plus twice the number of quiet-zone cells
	// outside the black border.
	TotalWidth int

	// ReversedBorder reports whether the outer border ring is white-on-
	// black instead of the usual black-on-white.
	ReversedBorder bool

	// MinHammingDistance is the minimum pairwise Hamming distance between
	// codewords in Codes. It is informational only: decoding does not read
	// it, and matching is bounded by DetectorConfig.MaxHammingDistance.
	MinHammingDistance int

	// BitX, BitY give the grid coordinates (0 at the border ring) of each
	// data bit, in the order codewords are packed. len(BitX) == len(BitY)
	// is the codeword bit width.
	BitX, BitY []int

	// Codes holds every valid codeword, each packed with the bit at BitX[0],
	// BitY[0] as the most significant bit.
	Codes []uint64
}

// bitCount returns the number of data bits encoded per tag.
func (f Family) bitCount() int {
	return len(f.BitX)
}
