// Command apriltag detects AprilTag fiducial markers in an image file and
// prints the detections as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"

	"github.com/benlenarts/apriltag-go/apriltag"
	"github.com/benlenarts/apriltag-go/internal/imageio"
	"github.com/benlenarts/apriltag-go/internal/overlay"
	"github.com/benlenarts/apriltag-go/internal/version"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		decimate   = flag.Int("decimate", 2, "quad decimation factor")
		sigma      = flag.Float64("sigma", 0, "blur (positive) or sharpen (negative) sigma before thresholding")
		refine     = flag.Bool("refine-edges", true, "refine quad edges against the full-resolution image")
		deglitch   = flag.Bool("deglitch", false, "morphologically close the threshold image before labeling")
		maxHamming = flag.Int("max-hamming", 2, "maximum bit errors tolerated when matching a codeword")
		fx         = flag.Float64("fx", 0, "camera focal length in pixels, x axis (0 disables pose estimation)")
		fy         = flag.Float64("fy", 0, "camera focal length in pixels, y axis")
		cx         = flag.Float64("cx", 0, "camera principal point x")
		cy         = flag.Float64("cy", 0, "camera principal point y")
		tagSize    = flag.Float64("tag-size", 1.0, "physical tag side length, for pose estimation")
		useGoCV    = flag.Bool("gocv", false, "decode the input image via OpenCV instead of the standard library")
		annotate   = flag.String("annotate", "", "write a PNG with detected quad outlines drawn to this path")
		showVer    = flag.Bool("version", false, "print version information and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("%s %s (commit %s, built %s)\n", version.ModuleName, version.Version, version.GitCommit, version.BuildTime)
		return
	}

	if flag.NArg() != 1 {
		log.Fatalf("usage: apriltag [flags] <image-path>")
	}
	path := flag.Arg(0)

	var img *apriltag.Image
	var err error
	if *useGoCV {
		img, err = imageio.LoadGoCV(path)
	} else {
		img, err = imageio.Load(path)
	}
	if err != nil {
		log.Fatalf("loading %s: %v", path, err)
	}

	cfg := apriltag.DefaultDetectorConfig()
	cfg.QuadDecimate = *decimate
	cfg.QuadSigma = *sigma
	cfg.RefineEdges = *refine
	cfg.Deglitch = *deglitch
	cfg.MaxHammingDistance = *maxHamming

	det, err := apriltag.NewDetector(cfg, exampleFamily())
	if err != nil {
		log.Fatalf("building detector: %v", err)
	}

	detections, err := det.Detect(img)
	if err != nil {
		log.Fatalf("detect: %v", err)
	}

	if *annotate != "" {
		if err := writeAnnotated(*annotate, img, detections); err != nil {
			log.Fatalf("writing annotated image: %v", err)
		}
	}

	out := make([]detectionJSON, len(detections))
	for i, d := range detections {
		dj := detectionJSON{
			Family:         d.Family,
			ID:             d.ID,
			Hamming:        d.Hamming,
			DecisionMargin: d.DecisionMargin,
			Center:         d.Center,
			Corners:        d.Corners,
		}
		if *fx > 0 && *fy > 0 {
			cam := apriltag.CameraParams{Fx: *fx, Fy: *fy, Cx: *cx, Cy: *cy}
			pose, _ := apriltag.EstimatePose(d.Homography, *tagSize, cam, d.Corners)
			dj.Pose = &pose
		}
		out[i] = dj
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}

func writeAnnotated(path string, img *apriltag.Image, detections []apriltag.Detection) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, overlay.Draw(img, detections))
}

type detectionJSON struct {
	Family         string         `json:"family"`
	ID             int            `json:"id"`
	Hamming        int            `json:"hamming"`
	DecisionMargin float64        `json:"decision_margin"`
	Center         [2]float64     `json:"center"`
	Corners        [4][2]float64  `json:"corners"`
	Pose           *apriltag.Pose `json:"pose,omitempty"`
}

// exampleFamily is a placeholder codebook used until the caller supplies
// their own Family; this package ships no production family data. Its 16
// data bits are listed in four groups of four, each group the previous one
// turned a quarter turn about the grid center, as the decoder's rotation of
// codewords assumes.
func exampleFamily() apriltag.Family {
	bitX := []int{1, 2, 3, 2, 4, 4, 4, 3, 4, 3, 2, 3, 1, 1, 1, 2}
	bitY := []int{1, 1, 1, 2, 1, 2, 3, 2, 4, 4, 4, 3, 4, 3, 2, 3}
	return apriltag.Family{
		Name:               "example16",
		WidthAtBorder:      6,
		TotalWidth:         8,
		MinHammingDistance: 5,
		BitX:               bitX,
		BitY:               bitY,
		Codes:              []uint64{0x0001, 0x1F08, 0x3C73, 0xA5A5},
	}
}
