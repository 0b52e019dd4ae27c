package similarity

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// Algorithm names a similarity scorer.
type Algorithm string

const (
	AlgorithmHistogram Algorithm = "histogram"
	AlgorithmSSIM      Algorithm = "ssim"
	AlgorithmFrameDiff Algorithm = "frame_diff"
)

// ParseAlgorithm converts a config string into a known Algorithm.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(value))) {
	case AlgorithmHistogram:
		return AlgorithmHistogram, nil
	case AlgorithmSSIM:
		return AlgorithmSSIM, nil
	case AlgorithmFrameDiff:
		return AlgorithmFrameDiff, nil
	default:
		return "", fmt.Errorf("similarity: unknown algorithm %q", value)
	}
}

// Scorer compares two equally sized frames and returns similarity in [0, 1].
type Scorer interface {
	Score(a, b image.Image) (float64, error)
}

// NewScorer returns the scorer for the given algorithm.
func NewScorer(algorithm Algorithm) (Scorer, error) {
	switch algorithm {
	case AlgorithmHistogram:
		return histogramScorer{}, nil
	case AlgorithmSSIM:
		return ssimScorer{}, nil
	case AlgorithmFrameDiff:
		return frameDiffScorer{}, nil
	default:
		return nil, fmt.Errorf("similarity: unknown algorithm %q", algorithm)
	}
}

// grayPlane flattens an image into 8-bit grayscale values.
func grayPlane(img image.Image) []float64 {
	bounds := img.Bounds()
	plane := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels scaled back to 8-bit.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			plane = append(plane, luma)
		}
	}
	return plane
}

func planes(a, b image.Image) ([]float64, []float64, error) {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return nil, nil, fmt.Errorf("similarity: frame sizes differ: %v vs %v", a.Bounds().Size(), b.Bounds().Size())
	}
	return grayPlane(a), grayPlane(b), nil
}

type histogramScorer struct{}

// Score builds 256-bin grayscale histograms and returns their Bhattacharyya
// coefficient.
func (histogramScorer) Score(a, b image.Image) (float64, error) {
	pa, pb, err := planes(a, b)
	if err != nil {
		return 0, err
	}

	var ha, hb [256]float64
	for _, v := range pa {
		ha[clampBin(v)]++
	}
	for _, v := range pb {
		hb[clampBin(v)]++
	}

	na := float64(len(pa))
	nb := float64(len(pb))
	coefficient := 0.0
	for i := 0; i < 256; i++ {
		coefficient += math.Sqrt((ha[i] / na) * (hb[i] / nb))
	}
	if coefficient > 1 {
		coefficient = 1
	}
	return coefficient, nil
}

func clampBin(v float64) int {
	bin := int(v)
	if bin < 0 {
		return 0
	}
	if bin > 255 {
		return 255
	}
	return bin
}

type frameDiffScorer struct{}

// Score returns one minus the mean absolute pixel difference, normalized to
// [0, 1].
func (frameDiffScorer) Score(a, b image.Image) (float64, error) {
	pa, pb, err := planes(a, b)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for i := range pa {
		total += math.Abs(pa[i] - pb[i])
	}
	meanDiff := total / float64(len(pa)) / 255.0
	return 1 - meanDiff, nil
}

type ssimScorer struct{}

// Score computes a single global SSIM over the full frame and maps the
// [-1, 1] result into [0, 1].
func (ssimScorer) Score(a, b image.Image) (float64, error) {
	pa, pb, err := planes(a, b)
	if err != nil {
		return 0, err
	}

	n := float64(len(pa))
	var meanA, meanB float64
	for i := range pa {
		meanA += pa[i]
		meanB += pb[i]
	}
	meanA /= n
	meanB /= n

	var varA, varB, covar float64
	for i := range pa {
		da := pa[i] - meanA
		db := pb[i] - meanB
		varA += da * da
		varB += db * db
		covar += da * db
	}
	varA /= n
	varB /= n
	covar /= n

	const (
		c1 = (0.01 * 255) * (0.01 * 255)
		c2 = (0.03 * 255) * (0.03 * 255)
	)
	ssim := ((2*meanA*meanB + c1) * (2*covar + c2)) /
		((meanA*meanA + meanB*meanB + c1) * (varA + varB + c2))

	return (ssim + 1) / 2, nil
}
