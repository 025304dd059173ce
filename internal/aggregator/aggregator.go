// Package aggregator merges the per-category analyzer outputs of the
// representative image into run totals and recommendations. Only the
// first successfully analyzed image of a run populates the aggregate;
// later images are recorded but their metrics are not retained.
package aggregator

import (
	"fmt"

	"go-camera-inspector/internal/analyzer"
	"go-camera-inspector/pkg/models"
)

// CategoryOrder is the fixed report order of the analyzer categories.
var CategoryOrder = []string{
	analyzer.CategoryQuality,
	analyzer.CategorySharpness,
	analyzer.CategoryNoise,
	analyzer.CategoryColor,
}

// Aggregate holds the representative image's category results. The
// orchestrator is the single writer; analyzers never touch it.
type Aggregate struct {
	categories map[string]*models.CategoryResult
}

// New returns an empty aggregate.
func New() *Aggregate {
	return &Aggregate{categories: make(map[string]*models.CategoryResult)}
}

// SetCategory stores a category result. The first write wins so the
// representative image's metrics are never displaced.
func (a *Aggregate) SetCategory(name string, res *models.CategoryResult) {
	if _, ok := a.categories[name]; ok {
		return
	}
	a.categories[name] = res
}

// Category returns the stored result for name, or nil.
func (a *Aggregate) Category(name string) *models.CategoryResult {
	return a.categories[name]
}

// HasResults reports whether any category has been populated.
func (a *Aggregate) HasResults() bool {
	return len(a.categories) > 0
}

// PassCount counts the passing metrics of a category. Metrics without
// a verdict are excluded.
func (a *Aggregate) PassCount(name string) int {
	res := a.categories[name]
	if res == nil {
		return 0
	}
	count := 0
	for _, metric := range res.Names() {
		if m, ok := res.Get(metric); ok && m.Passed() {
			count++
		}
	}
	return count
}

// TotalCount counts the metrics of a category that carry a verdict.
func (a *Aggregate) TotalCount(name string) int {
	res := a.categories[name]
	if res == nil {
		return 0
	}
	count := 0
	for _, metric := range res.Names() {
		if m, ok := res.Get(metric); ok && m.HasVerdict() {
			count++
		}
	}
	return count
}

// PassRate is the percentage of passing metrics; 0 when the category
// has no scoreable metrics.
func (a *Aggregate) PassRate(name string) float64 {
	total := a.TotalCount(name)
	if total == 0 {
		return 0
	}
	return float64(a.PassCount(name)) / float64(total) * 100
}

// OverallCounts sums pass and total counts across all categories.
func (a *Aggregate) OverallCounts() (passed, total int) {
	for _, name := range CategoryOrder {
		passed += a.PassCount(name)
		total += a.TotalCount(name)
	}
	return passed, total
}

// OverallRate is the percentage of passing metrics across categories.
func (a *Aggregate) OverallRate() float64 {
	passed, total := a.OverallCounts()
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

// Recommendations derives operator advice from the representative
// image's metrics, evaluating a fixed rule list in order.
func (a *Aggregate) Recommendations() []string {
	var recs []string

	if quality := a.categories[analyzer.CategoryQuality]; quality != nil {
		if brightness, ok := quality.Get("brightness"); ok && brightness.HasVerdict() && !brightness.Passed() {
			if brightness.Value < 50 {
				recs = append(recs, "image is dark, consider increasing exposure compensation")
			} else if brightness.Value > 200 {
				recs = append(recs, "image is bright, consider decreasing exposure compensation")
			}
		}
		if tone, ok := quality.Get("tone_analysis"); ok {
			if issues, _ := tone.Extra["issues"].([]string); len(issues) > 0 {
				msg := issues[0]
				for _, issue := range issues[1:] {
					msg += ", " + issue
				}
				recs = append(recs, msg)
			}
		}
	}

	if noise := a.categories[analyzer.CategoryNoise]; noise != nil {
		if level, ok := noise.Get("noise_level"); ok && level.HasVerdict() && !level.Passed() {
			recs = append(recs, "noise level is high, use better lighting or a lower ISO")
		}
	}

	if sharpness := a.categories[analyzer.CategorySharpness]; sharpness != nil {
		if lap, ok := sharpness.Get("laplacian"); ok && lap.HasVerdict() && !lap.Passed() {
			recs = append(recs, "sharpness is insufficient, make sure the focus is accurate")
		}
	}

	if color := a.categories[analyzer.CategoryColor]; color != nil {
		if cast, ok := color.Get("color_cast"); ok {
			if hasCast, _ := cast.Extra["has_cast"].(bool); hasCast {
				castType, _ := cast.Extra["cast_type"].(string)
				recs = append(recs, fmt.Sprintf("detected %s, check the white balance setting", castType))
			}
		}
	}

	return recs
}
