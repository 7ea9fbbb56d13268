package apriltag

import "fmt"

// DetectorConfig controls every tunable stage of the detection pipeline.
// Zero-valued fields are not valid; use DefaultDetectorConfig as a base.
type DetectorConfig struct {
	// QuadDecimate shrinks the input image by this integer factor before
	// quad detection, trading accuracy on small tags for speed. 1 disables
	// decimation.
	QuadDecimate int

	// QuadSigma blurs (positive) or sharpens (negative) the decimated
	// image before thresholding. 0 disables it.
	QuadSigma float64

	// MinWhiteBlackDiff is the minimum local intensity range a tile must
	// have for its pixels to be classified black or white rather than
	// unknown.
	MinWhiteBlackDiff int

	// RefineEdges re-localizes quad sides against the full-resolution
	// image's gradient before homography fitting.
	RefineEdges bool

	// Deglitch removes small threshold-image noise via a morphological
	// close before connected-component labeling. Mainly useful on noisy
	// sensors; costs one extra full-image pass.
	Deglitch bool

	// MinClusterPixels discards edge clusters too small to plausibly
	// contain a full tag boundary.
	MinClusterPixels int

	// MaxLineFitError bounds the per-side line-fit quality a candidate
	// quad side may have and still be accepted. 0 disables the bound.
	MaxLineFitError float64

	// MaxNMaxima caps the number of per-cluster corner candidates kept
	// after local-maxima extraction, retaining the strongest. <=0 means
	// unbounded.
	MaxNMaxima int

	// CosCriticalRad bounds how close to parallel two adjacent quad sides,
	// or how close to 0 or 180 degrees an interior angle, may be before the
	// candidate is rejected. 0 disables both checks.
	CosCriticalRad float64

	// DecodeSharpening is the coefficient applied to each sampled data
	// bit's local Laplacian before thresholding.
	DecodeSharpening float64

	// MaxHammingDistance bounds how many bit errors a sampled codeword may
	// have and still match a family codeword.
	MaxHammingDistance int
}

// DefaultDetectorConfig returns reasonable defaults for a single full-
// resolution frame with typical camera noise.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		QuadDecimate:       2,
		QuadSigma:          0,
		MinWhiteBlackDiff:  5,
		RefineEdges:        true,
		Deglitch:           false,
		MinClusterPixels:   24,
		MaxLineFitError:    10.0,
		MaxNMaxima:         10,
		CosCriticalRad:     0.9848, // cos(10 degrees)
		DecodeSharpening:   0.25,
		MaxHammingDistance: 2,
	}
}

// Workspace holds every buffer the detection pipeline writes into, owned by
// a Detector and reused across calls to Detect. As long as successive
// frames have equal dimensions, no pipeline stage allocates a new image,
// union-find, or cluster table; each stage's ...Into variant reuses the
// prior call's backing storage instead.
type Workspace struct {
	decimated      *Image
	sigmaOut       *Image
	sigmaBlur      *Image
	sigmaTmp       *Image
	thresholded    *Image
	thresholdTemps thresholdScratch
	uf             *unionFind
	clusters       *clusterMap
	detections     []Detection
}

// newWorkspace returns an empty Workspace; every buffer is allocated lazily
// on first use and then kept for reuse.
func newWorkspace() *Workspace {
	return &Workspace{
		uf:       newUnionFind(0),
		clusters: newClusterMap(64),
	}
}

// Detector runs the full pipeline against one or more tag families.
type Detector struct {
	cfg         DetectorConfig
	families    []Family
	quickDecs   []*QuickDecode
	minTagWidth float64
	ws          *Workspace
}

// NewDetector builds a Detector for the given families, pre-building each
// family's QuickDecode index.
func NewDetector(cfg DetectorConfig, families ...Family) (*Detector, error) {
	if len(families) == 0 {
		return nil, ErrEmptyFamilyList
	}
	d := &Detector{
		cfg:         cfg,
		families:    families,
		minTagWidth: computeMinTagWidth(families, cfg.QuadDecimate),
		ws:          newWorkspace(),
	}
	for _, f := range families {
		d.quickDecs = append(d.quickDecs, buildQuickDecode(f, cfg.MaxHammingDistance))
	}
	return d, nil
}

// computeMinTagWidth derives the shortest admissible quad side, in
// decimated-image pixels, from the smallest registered family's overall
// width (border plus quiet zone). A tag any family could produce can never
// project to fewer than 3 pixels across and still be decodable.
func computeMinTagWidth(families []Family, decimFactor int) float64 {
	smallest := families[0].TotalWidth
	for _, f := range families[1:] {
		if f.TotalWidth < smallest {
			smallest = f.TotalWidth
		}
	}
	if decimFactor < 1 {
		decimFactor = 1
	}
	w := float64(smallest) / float64(decimFactor)
	if w < 3 {
		w = 3
	}
	return w
}

// Detect runs every pipeline stage against img and returns all decoded,
// deduplicated detections, with corner coordinates expressed in img's
// original (pre-decimation) pixel space.
func (d *Detector) Detect(img *Image) ([]Detection, error) {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, fmt.Errorf("%w: nil or empty image", ErrInvalidImage)
	}
	ws := d.ws

	working := img
	decimFactor := d.cfg.QuadDecimate
	if decimFactor > 1 {
		ws.decimated = decimateInto(ws.decimated, working, decimFactor)
		working = ws.decimated
	}
	ws.sigmaOut, ws.sigmaBlur, ws.sigmaTmp = applySigmaInto(ws.sigmaOut, ws.sigmaBlur, ws.sigmaTmp, working, d.cfg.QuadSigma)
	working = ws.sigmaOut

	ws.thresholded = adaptiveThresholdInto(ws.thresholded, &ws.thresholdTemps, working, d.cfg.MinWhiteBlackDiff, d.cfg.Deglitch)
	ws.uf = connectedComponentsInto(ws.uf, ws.thresholded)

	ws.clusters.reset()
	buildClustersInto(ws.clusters, ws.thresholded, ws.uf, d.cfg.MinClusterPixels)

	quadCfg := quadCandidateConfig{
		minClusterPoints: d.cfg.MinClusterPixels,
		minTagWidth:      d.minTagWidth,
		maxLineFitError:  d.cfg.MaxLineFitError,
		cosCriticalRad:   d.cfg.CosCriticalRad,
		maxNMaxima:       d.cfg.MaxNMaxima,
	}

	ws.detections = ws.detections[:0]
	for _, e := range ws.clusters.entries {
		if !e.used || len(e.c.points) < d.cfg.MinClusterPixels {
			continue
		}
		q, ok := quadFromCluster(e.c.points, quadCfg)
		if !ok {
			continue
		}

		fullResQuad := q
		if decimFactor > 1 {
			fullResQuad = scaleQuad(q, float64(decimFactor))
		}
		if d.cfg.RefineEdges {
			fullResQuad = refineEdges(img, fullResQuad, decimFactor)
		}

		hom, err := computeHomography(fullResQuad)
		if err != nil {
			continue
		}

		for i, f := range d.families {
			if f.ReversedBorder != fullResQuad.ReversedBorder {
				continue
			}
			det, ok := decodeQuad(img, fullResQuad, hom, f, d.quickDecs[i], d.cfg.MaxHammingDistance, d.cfg.DecodeSharpening)
			if ok {
				ws.detections = append(ws.detections, det)
				break
			}
		}
	}

	return deduplicateDetections(ws.detections), nil
}

// scaleQuad rescales a quad's corners by factor, used to map a quad found
// on a decimated image back to full-resolution pixel coordinates before
// edge refinement.
func scaleQuad(q Quad, factor float64) Quad {
	var out Quad
	out.ReversedBorder = q.ReversedBorder
	for i, c := range q.Corners {
		out.Corners[i] = [2]float64{c[0] * factor, c[1] * factor}
	}
	return out
}
