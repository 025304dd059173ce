// Package report shapes aggregated results into the report payload and
// renders the HTML document alongside the staged images.
package report

import (
	"fmt"
	"strings"
	"time"

	"go-camera-inspector/internal/aggregator"
	"go-camera-inspector/internal/analyzer"
	"go-camera-inspector/pkg/models"
)

// Display names for the metric keys.
var metricNames = map[string]string{
	"brightness":     "Brightness",
	"contrast":       "Contrast",
	"saturation":     "Saturation",
	"tone_analysis":  "Tone Analysis",
	"laplacian":      "Laplacian Variance",
	"sobel":          "Sobel Gradient",
	"tenengrad":      "Tenengrad Score",
	"fft_focus":      "FFT Focus",
	"noise_level":    "Noise Level",
	"psnr":           "Peak Signal-to-Noise Ratio",
	"ssim":           "Structural Similarity",
	"snr":            "Signal-to-Noise Ratio",
	"white_balance":  "White Balance",
	"color_cast":     "Color Cast",
	"color_accuracy": "Color Accuracy",
}

// BuildPayload assembles the immutable report payload from the run
// metadata and the representative image's aggregate.
func BuildPayload(runID string, startedAt time.Time, device models.DeviceInfo,
	images []models.ImageRecord, agg *aggregator.Aggregate,
	blur *analyzer.BlurRegions) *models.ReportPayload {

	payload := &models.ReportPayload{
		RunID:     runID,
		Timestamp: startedAt.Format("2006-01-02 15:04:05"),
		Device:    device,
		Images:    images,
		Quality:   categorySummary(agg, analyzer.CategoryQuality),
		Sharpness: categorySummary(agg, analyzer.CategorySharpness),
		Noise:     categorySummary(agg, analyzer.CategoryNoise),
		Color:     categorySummary(agg, analyzer.CategoryColor),
	}

	payload.PassedTests, payload.TotalTests = agg.OverallCounts()
	payload.PassRate = agg.OverallRate()
	payload.Recommendations = agg.Recommendations()

	if blur != nil {
		payload.BlurRegions = &models.BlurRegionSummary{
			BlurryBlocks: blur.BlurryBlocks,
			TotalBlocks:  blur.TotalBlocks,
			BlurryRatio:  blur.BlurryRatio,
			Pass:         blur.Pass,
			BlurMap:      blur.BlurMap,
		}
	}
	return payload
}

func categorySummary(agg *aggregator.Aggregate, category string) models.CategorySummary {
	return models.CategorySummary{
		Tests:     formatTests(agg.Category(category)),
		PassCount: agg.PassCount(category),
		Total:     agg.TotalCount(category),
		PassRate:  agg.PassRate(category),
	}
}

// formatTests turns verdict-carrying metrics into display items.
// Informational metrics (histograms, temperature buckets, palettes)
// stay out of the test list, matching how they stay out of the counts.
func formatTests(res *models.CategoryResult) []models.TestItem {
	if res == nil {
		return nil
	}
	var items []models.TestItem
	for _, key := range res.Names() {
		m, ok := res.Get(key)
		if !ok || !m.HasVerdict() {
			continue
		}
		name := metricNames[key]
		if name == "" {
			name = key
		}
		items = append(items, models.TestItem{
			Name:        name,
			Pass:        m.Passed(),
			Description: m.Description,
			Details:     metricDetails(key, m),
		})
	}
	return items
}

func metricDetails(key string, m models.MetricResult) []models.TestDetail {
	switch key {
	case "tone_analysis":
		details := []models.TestDetail{
			{Label: "Highlight ratio", Value: formatPercent(m.Extra["highlight_ratio"])},
			{Label: "Shadow ratio", Value: formatPercent(m.Extra["shadow_ratio"])},
		}
		if issues, _ := m.Extra["issues"].([]string); len(issues) > 0 {
			details = append(details, models.TestDetail{
				Label: "Issues",
				Value: strings.Join(issues, ", "),
			})
		}
		return details
	case "color_cast":
		castType, _ := m.Extra["cast_type"].(string)
		hasCast, _ := m.Extra["has_cast"].(bool)
		present := "no"
		if hasCast {
			present = "yes"
		}
		return []models.TestDetail{
			{Label: "Cast type", Value: castType},
			{Label: "Present", Value: present},
		}
	default:
		return []models.TestDetail{
			{Label: "Value", Value: fmt.Sprintf("%.2f", m.Value)},
			{Label: "Unit", Value: m.Unit},
		}
	}
}

func formatPercent(v any) string {
	f, _ := v.(float64)
	return fmt.Sprintf("%.2f%%", f*100)
}
