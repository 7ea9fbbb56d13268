package apriltag

// edgePoint is a boundary sample between a black and white pixel, stored at
// half-pixel resolution (the true coordinate is X/2, Y/2). GX, GY are the
// signed gradient components of the transition (direction-of-travel scaled
// by the intensity step, v1-v0), which later stages use both to weight
// line fits by edge strength and to recover the border's orientation
// without needing the source image again.
type edgePoint struct {
	X, Y   uint16
	GX, GY int16
}

// cluster is the set of edge points lying between one particular pair of
// connected black/white components — a candidate tag-quad boundary. points
// always aliases a fixed-capacity range of its owning clusterMap's single
// backing array; it is never grown past that range.
type cluster struct {
	points []edgePoint
}

// clusterKnuthMul64 is the 64-bit golden-ratio constant used for Knuth
// multiplicative hashing: key*c mod 2^64, keeping the high bits, which mix
// far better than the low bits for sequential or clustered keys.
const clusterKnuthMul64 = 0x9E3779B97F4A7C15

// clusterEntry is one slot of the flat open-addressed table. used
// distinguishes an empty slot from a zero-valued key occupying slot 0.
// count is the slot's pass-one point count; start is its prefix-summed
// offset into the map's shared points array, fixed once finalizeOffsets
// has run.
type clusterEntry struct {
	key   uint64
	used  bool
	count int32
	start int32
	c     cluster
}

// clusterMap is a flat, open-addressed hash map from packed component-pair
// keys to clusters. Every cluster's points live in one contiguous array
// owned by the map itself, carved into per-cluster ranges by a two-pass
// counting/prefix-sum construction, rather than behind per-cluster
// growable slices.
type clusterMap struct {
	entries []clusterEntry
	points  []edgePoint
	count   int
}

func newClusterMap(capacityHint int) *clusterMap {
	size := 16
	for size < capacityHint*2 {
		size <<= 1
	}
	return &clusterMap{entries: make([]clusterEntry, size)}
}

// reset clears every entry and the shared points array so the table can be
// reused for the next frame without reallocating its entry array or the
// points backing array.
func (m *clusterMap) reset() {
	for i := range m.entries {
		e := &m.entries[i]
		if !e.used {
			continue
		}
		e.used = false
		e.key = 0
		e.count = 0
		e.start = 0
		e.c.points = nil
	}
	m.count = 0
	m.points = m.points[:0]
}

func (m *clusterMap) slot(key uint64) int {
	h := key * clusterKnuthMul64
	return int(h >> (64 - bitsLen(len(m.entries)-1)))
}

func bitsLen(v int) uint {
	var n uint
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}

// countPoint registers one point against key's cluster in the pass-one
// counting table, growing and rehashing the table first if it has crossed
// a 70% load factor. It records counts only; no point storage happens
// until finalizeOffsets carves out each cluster's range.
func (m *clusterMap) countPoint(key uint64) {
	if (m.count+1)*10 >= len(m.entries)*7 {
		m.grow()
	}
	mask := len(m.entries) - 1
	i := m.slot(key) & mask
	for {
		e := &m.entries[i]
		if !e.used {
			e.used = true
			e.key = key
			e.count = 1
			m.count++
			return
		}
		if e.key == key {
			e.count++
			return
		}
		i = (i + 1) & mask
	}
}

func (m *clusterMap) grow() {
	old := m.entries
	m.entries = make([]clusterEntry, len(old)*2)
	m.count = 0
	mask := len(m.entries) - 1
	for _, e := range old {
		if !e.used {
			continue
		}
		i := m.slot(e.key) & mask
		for m.entries[i].used {
			i = (i + 1) & mask
		}
		m.entries[i] = clusterEntry{key: e.key, used: true, count: e.count}
		m.count++
	}
}

// findSlot locates key's slot by probing only: it never creates or grows,
// since the table is frozen by the time a second pass looks keys up. Every
// key a second pass probes for was counted in the first, so probing always
// terminates at a matching used slot.
func (m *clusterMap) findSlot(key uint64) int {
	mask := len(m.entries) - 1
	i := m.slot(key) & mask
	for {
		e := &m.entries[i]
		if e.used && e.key == key {
			return i
		}
		i = (i + 1) & mask
	}
}

// finalizeOffsets prefix-sums each slot's pass-one count, in slot-index
// order, into a start offset within one contiguous points array sized to
// the total point count across every cluster. Each entry's c.points is set
// to a zero-length slice with capacity exactly equal to its count, carved
// out of that shared array: the write pass below then grows each one with
// plain append calls that never reallocate, since their capacity is
// already reserved.
func (m *clusterMap) finalizeOffsets() {
	var cursor int32
	for i := range m.entries {
		e := &m.entries[i]
		if !e.used {
			continue
		}
		e.start = cursor
		cursor += e.count
	}

	total := int(cursor)
	if cap(m.points) >= total {
		m.points = m.points[:total]
	} else {
		m.points = make([]edgePoint, total)
	}

	for i := range m.entries {
		e := &m.entries[i]
		if !e.used {
			continue
		}
		e.c.points = m.points[e.start:e.start : e.start+e.count]
	}
}

// packComponentKey canonicalizes an unordered pair of union-find roots into
// a single 64-bit key.
func packComponentKey(a, b uint32) uint64 {
	if a > b {
		a, b = b, a
	}
	return uint64(a)<<32 | uint64(b)
}

// minCenterComponentPixels is the minimum size a pixel's own connected
// component must have before any of its boundary transitions are extracted
// as edge points: a component this small can't plausibly be (part of) a
// real tag border, only noise.
const minCenterComponentPixels = 25

// clusterNeighborOffsets are the four pixel offsets inspected for a
// black/white transition at every pixel: right, down, and the two
// diagonals needed to catch boundary segments that run along a diagonal
// rather than axis-aligned direction.
var clusterNeighborOffsets = [4][2]int{{1, 0}, {0, 1}, {-1, 1}, {1, 1}}

// scanEdges walks every pixel's four forward neighbor offsets in a ternary
// threshold image and calls visit for each black/white transition whose
// two components are both large enough to plausibly be part of a tag
// boundary. Both passes of the cluster map's construction drive this same
// scan, so a point counted in pass one is always found again, in the same
// order, in pass two.
func scanEdges(img *Image, uf *unionFind, minNeighborPixels int, visit func(id0, id1 uint32, x, y, ox, oy int, v0, v1 uint8)) {
	w, h := img.Width, img.Height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v0 := img.At(x, y)
			if v0 == 127 {
				continue
			}
			id0 := uint32(y*w + x)
			if uf.setSize(id0) < minCenterComponentPixels {
				continue
			}

			for _, off := range clusterNeighborOffsets {
				nx, ny := x+off[0], y+off[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				v1 := img.At(nx, ny)
				if v1 == 127 || v1 == v0 {
					continue
				}
				id1 := uint32(ny*w + nx)
				if uf.setSize(id1) < uint32(minNeighborPixels) {
					continue
				}
				visit(id0, id1, x, y, off[0], off[1], v0, v1)
			}
		}
	}
}

// buildClusters walks every pixel's four forward neighbor offsets in a
// ternary threshold image, and for each black/white transition whose two
// components are both large enough to plausibly be part of a tag boundary,
// records a half-pixel edge point keyed by the pair of connected components
// on either side of it. Clusters with fewer than minPoints samples are
// dropped; they are too small to support a reliable line fit.
func buildClusters(img *Image, uf *unionFind, minPoints int) []cluster {
	m := newClusterMap(img.Width * img.Height / 64)
	buildClustersInto(m, img, uf, minPoints)

	clusters := make([]cluster, 0, m.count)
	for _, e := range m.entries {
		if e.used && len(e.c.points) >= minPoints {
			clusters = append(clusters, e.c)
		}
	}
	return clusters
}

// buildClustersInto is buildClusters' extraction pass against an
// already-allocated, reset clusterMap, used by Detector's workspace to
// avoid reallocating the map or its points array every frame. It runs the
// edge scan twice: once to count each cluster's points and size their
// ranges within the shared backing array, once to write them, visiting
// clusters afterward in deterministic (slot_index, insertion_index)
// order by walking m.entries in array order.
func buildClustersInto(m *clusterMap, img *Image, uf *unionFind, minNeighborPixels int) {
	scanEdges(img, uf, minNeighborPixels, func(id0, id1 uint32, x, y, ox, oy int, v0, v1 uint8) {
		m.countPoint(packComponentKey(uf.find(id0), uf.find(id1)))
	})

	m.finalizeOffsets()

	scanEdges(img, uf, minNeighborPixels, func(id0, id1 uint32, x, y, ox, oy int, v0, v1 uint8) {
		addEdgePoint(m, uf, id0, id1, x, y, ox, oy, v0, v1)
	})
}

func addEdgePoint(m *clusterMap, uf *unionFind, id0, id1 uint32, x, y, ox, oy int, v0, v1 uint8) {
	key := packComponentKey(uf.find(id0), uf.find(id1))
	i := m.findSlot(key)
	step := int16(v1) - int16(v0)
	e := &m.entries[i]
	e.c.points = append(e.c.points, edgePoint{
		X:  uint16(2*x + ox),
		Y:  uint16(2*y + oy),
		GX: int16(ox) * step,
		GY: int16(oy) * step,
	})
}
