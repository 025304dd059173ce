package analyzer

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"go-camera-inspector/pkg/models"
)

// SharpnessAnalyzer runs four independent focus estimators. All four
// share sharpness_threshold.min as their pass bound, even though their
// value scales differ.
type SharpnessAnalyzer struct {
	thresholds Thresholds
}

func NewSharpnessAnalyzer(t Thresholds) *SharpnessAnalyzer {
	return &SharpnessAnalyzer{thresholds: t}
}

func (a *SharpnessAnalyzer) Category() string { return CategorySharpness }

func (a *SharpnessAnalyzer) Analyze(px *PixelBuffer) *models.CategoryResult {
	gray := px.Gray()
	w, h := px.W, px.H
	res := models.NewCategoryResult()

	lap := laplacianPlane(gray, w, h)
	res.Add("laplacian", a.metric(
		stat.PopVariance(lap, nil),
		"variance",
		"Laplacian variance - higher means sharper",
	))

	gx, gy := sobelGradients(gray, w, h)
	var magSum, energySum float64
	for i := range gx {
		magSum += math.Hypot(gx[i], gy[i])
		energySum += gx[i]*gx[i] + gy[i]*gy[i]
	}
	n := float64(len(gx))
	res.Add("sobel", a.metric(
		magSum/n,
		"mean gradient",
		"Sobel gradient - edge sharpness",
	))
	res.Add("tenengrad", a.metric(
		energySum/n,
		"score",
		"Tenengrad - gradient-based focus score",
	))

	res.Add("fft_focus", a.metric(
		fftFocusScore(gray, w, h),
		"spectral ratio",
		"FFT focus - central-disk share of log spectral energy",
	))

	return res
}

func (a *SharpnessAnalyzer) metric(value float64, unit, desc string) models.MetricResult {
	return models.MetricResult{
		Value:       value,
		Unit:        unit,
		Description: desc,
		Pass:        models.PassBool(value >= a.thresholds.SharpnessMin),
	}
}

// fftFocusScore measures the share of log-magnitude spectral energy
// inside a centered disk of radius min(w,h)/4 on the shifted spectrum,
// scaled by 1000. The disk sits at DC, so this is a low-frequency
// energy ratio.
func fftFocusScore(gray []float64, w, h int) float64 {
	spec := fft2(gray, w, h)

	cy, cx := h/2, w/2
	r := min(h, w) / 4
	r2 := r * r

	var inner, total float64
	for y := 0; y < h; y++ {
		sy := (y + h/2) % h
		for x := 0; x < w; x++ {
			sx := (x + w/2) % w
			m := 20 * math.Log(cmplx.Abs(spec[y*w+x])+1)
			total += m
			dy, dx := sy-cy, sx-cx
			if dy*dy+dx*dx <= r2 {
				inner += m
			}
		}
	}
	return inner / (total + 1e-10) * 1000
}

// fft2 computes the 2-D DFT as row transforms followed by column
// transforms.
func fft2(src []float64, w, h int) []complex128 {
	data := make([]complex128, w*h)
	for i, v := range src {
		data[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		rowFFT.Coefficients(data[y*w:(y+1)*w], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Coefficients(out, col)
		for y := 0; y < h; y++ {
			data[y*w+x] = out[y]
		}
	}
	return data
}

// BlurRegions is the block-wise blur map produced by
// DetectBlurRegions.
type BlurRegions struct {
	BlurMap      [][]float64
	BlurryBlocks int
	TotalBlocks  int
	BlurryRatio  float64
	Pass         bool
}

// DetectBlurRegions tiles the grayscale image into blockSize squares,
// scores each tile by Laplacian variance and flags tiles below the
// sharpness threshold. Edge tiles smaller than blockSize are skipped.
func (a *SharpnessAnalyzer) DetectBlurRegions(px *PixelBuffer, blockSize int) BlurRegions {
	if blockSize <= 0 {
		blockSize = 64
	}
	gray := px.Gray()
	w, h := px.W, px.H

	rows, cols := h/blockSize, w/blockSize
	blurMap := make([][]float64, rows)
	for i := range blurMap {
		blurMap[i] = make([]float64, cols)
	}

	block := make([]float64, blockSize*blockSize)
	for by := 0; by < rows; by++ {
		for bx := 0; bx < cols; bx++ {
			for y := 0; y < blockSize; y++ {
				copy(block[y*blockSize:(y+1)*blockSize],
					gray[(by*blockSize+y)*w+bx*blockSize:])
			}
			lap := laplacianPlane(block, blockSize, blockSize)
			blurMap[by][bx] = stat.PopVariance(lap, nil)
		}
	}

	total := rows * cols
	blurry := 0
	for _, row := range blurMap {
		for _, v := range row {
			if v < a.thresholds.SharpnessMin {
				blurry++
			}
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(blurry) / float64(total)
	}
	return BlurRegions{
		BlurMap:      blurMap,
		BlurryBlocks: blurry,
		TotalBlocks:  total,
		BlurryRatio:  ratio,
		Pass:         ratio < 0.3,
	}
}
