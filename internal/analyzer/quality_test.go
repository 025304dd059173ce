package analyzer

import (
	"image/color"
	"math"
	"testing"
)

func TestQualityAnalyzer_UniformGray(t *testing.T) {
	a := NewQualityAnalyzer(DefaultThresholds())
	px := NewPixelBuffer(createTestImage(100, 100, color.RGBA{128, 128, 128, 255}))

	res := a.Analyze(px)

	brightness, ok := res.Get("brightness")
	if !ok {
		t.Fatal("missing brightness metric")
	}
	if math.Abs(brightness.Value-128) > 1 {
		t.Errorf("Expected brightness ~128, got %f", brightness.Value)
	}
	if !brightness.Passed() {
		t.Error("Expected brightness 128 to pass the 50-200 window")
	}

	contrast, _ := res.Get("contrast")
	if contrast.Value > 0.01 {
		t.Errorf("Expected ~0 contrast for uniform image, got %f", contrast.Value)
	}
	if contrast.Passed() {
		t.Error("Expected zero contrast to fail the 30-150 window")
	}

	saturation, _ := res.Get("saturation")
	if saturation.Value > 0.01 {
		t.Errorf("Expected ~0 saturation for gray image, got %f", saturation.Value)
	}
	if saturation.Passed() {
		t.Error("Expected gray image saturation to fail")
	}

	tone, _ := res.Get("tone_analysis")
	if !tone.Passed() {
		t.Error("Expected mid-gray image to have no tone issues")
	}
}

func TestQualityAnalyzer_SolidBlack(t *testing.T) {
	a := NewQualityAnalyzer(DefaultThresholds())
	px := NewPixelBuffer(createTestImage(50, 50, color.RGBA{0, 0, 0, 255}))

	res := a.Analyze(px)

	brightness, _ := res.Get("brightness")
	if brightness.Value != 0 {
		t.Errorf("Expected brightness 0, got %f", brightness.Value)
	}
	if brightness.Passed() {
		t.Error("Expected black image brightness to fail")
	}

	// Every pixel sits in the shadow tail.
	tone, _ := res.Get("tone_analysis")
	if tone.Passed() {
		t.Error("Expected black image to be flagged underexposed")
	}
	issues := tone.Extra["issues"].([]string)
	if len(issues) != 1 || issues[0] != IssueUnderexposed {
		t.Errorf("Expected [%s], got %v", IssueUnderexposed, issues)
	}
}

func TestQualityAnalyzer_SaturatedRed(t *testing.T) {
	a := NewQualityAnalyzer(DefaultThresholds())
	px := NewPixelBuffer(createTestImage(50, 50, color.RGBA{255, 0, 0, 255}))

	res := a.Analyze(px)

	saturation, _ := res.Get("saturation")
	if math.Abs(saturation.Value-255) > 1 {
		t.Errorf("Expected saturation ~255 for pure red, got %f", saturation.Value)
	}
	if !saturation.Passed() {
		t.Error("Expected pure red saturation to pass")
	}
}

func TestQualityAnalyzer_Histogram(t *testing.T) {
	a := NewQualityAnalyzer(DefaultThresholds())
	px := NewPixelBuffer(createTestImage(10, 10, color.RGBA{128, 128, 128, 255}))

	res := a.Analyze(px)

	hist, ok := res.Get("histogram")
	if !ok {
		t.Fatal("missing histogram metric")
	}
	if hist.HasVerdict() {
		t.Error("histogram must not carry a verdict")
	}

	values := hist.Extra["values"].([]float64)
	if len(values) != 256 {
		t.Fatalf("Expected 256 bins, got %d", len(values))
	}
	var total float64
	for _, v := range values {
		total += v
	}
	if total != 100 {
		t.Errorf("Expected histogram to count 100 pixels, got %f", total)
	}
	if values[128] != 100 {
		t.Errorf("Expected all pixels in bin 128, got %f", values[128])
	}
}

func TestQualityAnalyzer_Overexposed(t *testing.T) {
	a := NewQualityAnalyzer(DefaultThresholds())

	// 20% of rows fully white, the rest mid-gray.
	img := createTestImage(100, 100, color.RGBA{128, 128, 128, 255})
	for y := 0; y < 20; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	res := a.Analyze(NewPixelBuffer(img))
	tone, _ := res.Get("tone_analysis")
	if tone.Passed() {
		t.Error("Expected overexposure flag for 20% white pixels")
	}
	highlightRatio := tone.Extra["highlight_ratio"].(float64)
	if math.Abs(highlightRatio-0.2) > 0.001 {
		t.Errorf("Expected highlight ratio 0.2, got %f", highlightRatio)
	}
	issues := tone.Extra["issues"].([]string)
	if len(issues) != 1 || issues[0] != IssueOverexposed {
		t.Errorf("Expected [%s], got %v", IssueOverexposed, issues)
	}
}
