package aggregator

import (
	"testing"

	"go-camera-inspector/internal/analyzer"
	"go-camera-inspector/pkg/models"
)

func metric(value float64, pass bool) models.MetricResult {
	return models.MetricResult{Value: value, Pass: models.PassBool(pass)}
}

func TestAggregate_CountsOnlyVerdictMetrics(t *testing.T) {
	agg := New()

	res := models.NewCategoryResult()
	res.Add("brightness", metric(128, true))
	res.Add("contrast", metric(10, false))
	res.Add("histogram", models.MetricResult{Description: "informational"})
	agg.SetCategory(analyzer.CategoryQuality, res)

	if got := agg.TotalCount(analyzer.CategoryQuality); got != 2 {
		t.Errorf("TotalCount = %d, want 2 (histogram has no verdict)", got)
	}
	if got := agg.PassCount(analyzer.CategoryQuality); got != 1 {
		t.Errorf("PassCount = %d, want 1", got)
	}
	if got := agg.PassRate(analyzer.CategoryQuality); got != 50 {
		t.Errorf("PassRate = %f, want 50", got)
	}
}

func TestAggregate_EmptyCategory(t *testing.T) {
	agg := New()

	if agg.HasResults() {
		t.Error("Expected empty aggregate to have no results")
	}
	if got := agg.PassRate(analyzer.CategoryNoise); got != 0 {
		t.Errorf("PassRate on missing category = %f, want 0", got)
	}
	if got := agg.OverallRate(); got != 0 {
		t.Errorf("OverallRate with no metrics = %f, want 0", got)
	}
}

func TestAggregate_FirstWriteWins(t *testing.T) {
	agg := New()

	first := models.NewCategoryResult()
	first.Add("brightness", metric(100, true))
	agg.SetCategory(analyzer.CategoryQuality, first)

	second := models.NewCategoryResult()
	second.Add("brightness", metric(250, false))
	agg.SetCategory(analyzer.CategoryQuality, second)

	m, _ := agg.Category(analyzer.CategoryQuality).Get("brightness")
	if m.Value != 100 {
		t.Errorf("Expected the first image's metrics to be retained, got value %f", m.Value)
	}
}

func TestAggregate_OverallCounts(t *testing.T) {
	agg := New()

	quality := models.NewCategoryResult()
	quality.Add("brightness", metric(128, true))
	quality.Add("contrast", metric(50, true))
	agg.SetCategory(analyzer.CategoryQuality, quality)

	noise := models.NewCategoryResult()
	noise.Add("noise_level", metric(30, false))
	agg.SetCategory(analyzer.CategoryNoise, noise)

	passed, total := agg.OverallCounts()
	if passed != 2 || total != 3 {
		t.Errorf("OverallCounts = (%d, %d), want (2, 3)", passed, total)
	}
	want := 2.0 / 3.0 * 100
	if got := agg.OverallRate(); got < want-0.001 || got > want+0.001 {
		t.Errorf("OverallRate = %f, want %f", got, want)
	}
}

func TestRecommendations_RuleOrder(t *testing.T) {
	agg := New()

	quality := models.NewCategoryResult()
	quality.Add("brightness", metric(30, false))
	quality.Add("tone_analysis", models.MetricResult{
		Pass:  models.PassBool(false),
		Extra: map[string]any{"issues": []string{"likely underexposed"}},
	})
	agg.SetCategory(analyzer.CategoryQuality, quality)

	sharpness := models.NewCategoryResult()
	sharpness.Add("laplacian", metric(10, false))
	agg.SetCategory(analyzer.CategorySharpness, sharpness)

	noise := models.NewCategoryResult()
	noise.Add("noise_level", metric(45, false))
	agg.SetCategory(analyzer.CategoryNoise, noise)

	color := models.NewCategoryResult()
	color.Add("color_cast", models.MetricResult{
		Pass:  models.PassBool(false),
		Extra: map[string]any{"has_cast": true, "cast_type": "blue cast"},
	})
	agg.SetCategory(analyzer.CategoryColor, color)

	recs := agg.Recommendations()
	want := []string{
		"image is dark, consider increasing exposure compensation",
		"likely underexposed",
		"noise level is high, use better lighting or a lower ISO",
		"sharpness is insufficient, make sure the focus is accurate",
		"detected blue cast, check the white balance setting",
	}
	if len(recs) != len(want) {
		t.Fatalf("got %d recommendations %v, want %d", len(recs), recs, len(want))
	}
	for i := range want {
		if recs[i] != want[i] {
			t.Errorf("recommendation[%d] = %q, want %q", i, recs[i], want[i])
		}
	}
}

func TestRecommendations_CleanRun(t *testing.T) {
	agg := New()

	quality := models.NewCategoryResult()
	quality.Add("brightness", metric(128, true))
	quality.Add("tone_analysis", models.MetricResult{
		Pass:  models.PassBool(true),
		Extra: map[string]any{"issues": []string{}},
	})
	agg.SetCategory(analyzer.CategoryQuality, quality)

	if recs := agg.Recommendations(); len(recs) != 0 {
		t.Errorf("Expected no recommendations, got %v", recs)
	}
}
