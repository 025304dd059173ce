package analyzer

import (
	"image/color"
	"math"
	"testing"
)

func TestNoiseAnalyzer_UniformImage(t *testing.T) {
	a := NewNoiseAnalyzer(DefaultThresholds())
	px := NewPixelBuffer(createTestImage(64, 64, color.RGBA{128, 128, 128, 255}))

	res := a.Analyze(px)

	noise, ok := res.Get("noise_level")
	if !ok {
		t.Fatal("missing noise_level metric")
	}
	if noise.Value > 0.01 {
		t.Errorf("Expected ~0 noise for uniform image, got %f", noise.Value)
	}
	if !noise.Passed() {
		t.Error("Expected zero noise to pass")
	}

	// Blurring a uniform image changes nothing, so MSE is zero.
	psnr, _ := res.Get("psnr")
	if !math.IsInf(psnr.Value, 1) {
		t.Errorf("Expected +Inf PSNR for uniform image, got %f", psnr.Value)
	}
	if !psnr.Passed() {
		t.Error("Expected infinite PSNR to pass")
	}

	ssim, _ := res.Get("ssim")
	if ssim.HasVerdict() {
		t.Error("ssim must not carry a verdict")
	}
	if math.Abs(ssim.Value-1) > 0.001 {
		t.Errorf("Expected SSIM ~1 against identical blur, got %f", ssim.Value)
	}

	snr, _ := res.Get("snr")
	if !snr.Passed() {
		t.Errorf("Expected flat image SNR %f to pass", snr.Value)
	}
}

func TestNoiseAnalyzer_NoisyImageFails(t *testing.T) {
	a := NewNoiseAnalyzer(DefaultThresholds())

	clean := a.Analyze(NewPixelBuffer(createTestImage(64, 64, color.RGBA{128, 128, 128, 255})))
	noisy := a.Analyze(NewPixelBuffer(createNoisyImage(64, 64, 100, 1)))

	cleanLevel, _ := clean.Get("noise_level")
	noisyLevel, _ := noisy.Get("noise_level")
	if noisyLevel.Value <= cleanLevel.Value {
		t.Errorf("Expected noisy level %f > clean level %f", noisyLevel.Value, cleanLevel.Value)
	}
	if noisyLevel.Passed() {
		t.Errorf("Expected noise level %f to fail the max of 20", noisyLevel.Value)
	}

	noisyPSNR, _ := noisy.Get("psnr")
	if math.IsInf(noisyPSNR.Value, 1) {
		t.Error("Expected finite PSNR for noisy image")
	}

	noisySSIM, _ := noisy.Get("ssim")
	if noisySSIM.Value >= 1 {
		t.Errorf("Expected SSIM < 1 for noisy image, got %f", noisySSIM.Value)
	}
}

func TestEstimateNoiseLevel_MonotonicInAmplitude(t *testing.T) {
	low := NewPixelBuffer(createNoisyImage(64, 64, 5, 7))
	high := NewPixelBuffer(createNoisyImage(64, 64, 40, 7))

	lowLevel := estimateNoiseLevel(low.Gray(), 64, 64)
	highLevel := estimateNoiseLevel(high.Gray(), 64, 64)

	if highLevel <= lowLevel {
		t.Errorf("Expected noise estimate to grow with amplitude: %f vs %f", lowLevel, highLevel)
	}
}

func TestCalculatePSNR_NonIncreasingWithNoise(t *testing.T) {
	a := NewNoiseAnalyzer(DefaultThresholds())

	var prev = math.Inf(1)
	for _, amplitude := range []int{0, 10, 40, 100} {
		px := NewPixelBuffer(createNoisyImage(64, 64, amplitude, 11))
		res := a.Analyze(px)
		psnr, _ := res.Get("psnr")
		if psnr.Value > prev {
			t.Errorf("PSNR rose from %f to %f at amplitude %d", prev, psnr.Value, amplitude)
		}
		prev = psnr.Value
	}
}

func TestCalculateSSIM_SelfIsOne(t *testing.T) {
	gray := NewPixelBuffer(createCheckerImage(64, 64)).Gray()
	if got := calculateSSIM(gray, gray, 64, 64); math.Abs(got-1) > 1e-9 {
		t.Errorf("SSIM of an image with itself = %f, want 1", got)
	}
}

func TestCalculateSSIM_Symmetry(t *testing.T) {
	a := NewPixelBuffer(createCheckerImage(64, 64)).Gray()
	b := NewPixelBuffer(createNoisyImage(64, 64, 20, 3)).Gray()

	ab := calculateSSIM(a, b, 64, 64)
	ba := calculateSSIM(b, a, 64, 64)

	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("Expected symmetric SSIM, got %f vs %f", ab, ba)
	}
	if ab >= 1 || ab <= -1 {
		t.Errorf("SSIM out of range: %f", ab)
	}
}

func TestCalculateSNR_EdgePixelsExcluded(t *testing.T) {
	// The black/white halves are flat; only the boundary column carries
	// edges, so the flat-region mask keeps most pixels.
	px := NewPixelBuffer(createEdgeImage(64, 64))
	snr := calculateSNR(px.Gray(), 64, 64)

	if snr <= 0 {
		t.Errorf("Expected positive SNR, got %f", snr)
	}
}
