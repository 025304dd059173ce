package analyzer

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"go-camera-inspector/pkg/models"
)

// SSIM stabilizing constants for 8-bit data.
var (
	ssimC1 = math.Pow(0.01*255, 2)
	ssimC2 = math.Pow(0.03*255, 2)
)

// NoiseAnalyzer estimates noise from local-mean residuals and scores
// PSNR/SSIM against a self-blurred reference plus a flat-region SNR.
type NoiseAnalyzer struct {
	thresholds Thresholds
}

func NewNoiseAnalyzer(t Thresholds) *NoiseAnalyzer {
	return &NoiseAnalyzer{thresholds: t}
}

func (a *NoiseAnalyzer) Category() string { return CategoryNoise }

func (a *NoiseAnalyzer) Analyze(px *PixelBuffer) *models.CategoryResult {
	gray := px.Gray()
	w, h := px.W, px.H
	res := models.NewCategoryResult()

	noise := estimateNoiseLevel(gray, w, h)
	res.Add("noise_level", models.MetricResult{
		Value:       noise,
		Unit:        "standard deviation",
		Description: "estimated noise level",
		Pass:        models.PassBool(noise <= a.thresholds.NoiseMax),
	})

	blurred := gaussianBlur(gray, w, h, 5, 0)

	psnr := calculatePSNR(gray, blurred)
	res.Add("psnr", models.MetricResult{
		Value:       psnr,
		Unit:        "dB",
		Description: "peak signal-to-noise ratio - higher is better",
		Pass:        models.PassBool(psnr >= 30),
	})

	// SSIM carries no threshold; informational only.
	res.Add("ssim", models.MetricResult{
		Value:       calculateSSIM(gray, blurred, w, h),
		Unit:        "0-1 range",
		Description: "structural similarity - higher is better",
	})

	snr := calculateSNR(gray, w, h)
	res.Add("snr", models.MetricResult{
		Value:       snr,
		Unit:        "ratio",
		Description: "flat-region signal-to-noise ratio - higher is better",
		Pass:        models.PassBool(snr >= 10),
	})

	return res
}

// estimateNoiseLevel builds a residual map |pixel - 3x3 local mean|
// over interior pixels (the 1-pixel border stays zero) and returns its
// standard deviation.
func estimateNoiseLevel(gray []float64, w, h int) float64 {
	if w < 2 || h < 2 {
		return 0
	}
	noiseMap := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var sum float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sum += gray[(y+dy)*w+x+dx]
				}
			}
			noiseMap[y*w+x] = math.Abs(gray[y*w+x] - sum/9)
		}
	}
	return stat.PopStdDev(noiseMap, nil)
}

// calculatePSNR compares the image to its blurred self; a zero MSE
// yields +Inf rather than an error.
func calculatePSNR(gray, blurred []float64) float64 {
	var mse float64
	for i := range gray {
		d := gray[i] - blurred[i]
		mse += d * d
	}
	mse /= float64(len(gray))
	if mse == 0 {
		return math.Inf(1)
	}
	return 20 * math.Log10(255/math.Sqrt(mse))
}

// calculateSSIM computes the mean structural similarity between two
// planes using 11x11 Gaussian windows with sigma 1.5.
func calculateSSIM(img1, img2 []float64, w, h int) float64 {
	mu1 := gaussianBlur(img1, w, h, 11, 1.5)
	mu2 := gaussianBlur(img2, w, h, 11, 1.5)

	sq1 := make([]float64, len(img1))
	sq2 := make([]float64, len(img1))
	prod := make([]float64, len(img1))
	for i := range img1 {
		sq1[i] = img1[i] * img1[i]
		sq2[i] = img2[i] * img2[i]
		prod[i] = img1[i] * img2[i]
	}
	e1 := gaussianBlur(sq1, w, h, 11, 1.5)
	e2 := gaussianBlur(sq2, w, h, 11, 1.5)
	e12 := gaussianBlur(prod, w, h, 11, 1.5)

	var sum float64
	for i := range mu1 {
		mu1sq := mu1[i] * mu1[i]
		mu2sq := mu2[i] * mu2[i]
		mu12 := mu1[i] * mu2[i]
		sigma1 := e1[i] - mu1sq
		sigma2 := e2[i] - mu2sq
		sigma12 := e12[i] - mu12

		sum += ((2*mu12 + ssimC1) * (2*sigma12 + ssimC2)) /
			((mu1sq + mu2sq + ssimC1) * (sigma1 + sigma2 + ssimC2))
	}
	return sum / float64(len(mu1))
}

// calculateSNR restricts the mean/std ratio to non-edge pixels. When
// edges cover more than 90% of the frame the whole image is used.
func calculateSNR(gray []float64, w, h int) float64 {
	edges := cannyEdges(gray, w, h, 50, 150)

	flat := make([]float64, 0, len(gray))
	for i, v := range gray {
		if !edges[i] {
			flat = append(flat, v)
		}
	}
	if len(flat) < len(gray)/10 {
		flat = gray
	}

	signal := stat.Mean(flat, nil)
	noise := stat.PopStdDev(flat, nil)
	return signal / (noise + 1e-6)
}
