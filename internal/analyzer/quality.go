package analyzer

import (
	"gonum.org/v1/gonum/stat"

	"go-camera-inspector/pkg/models"
)

// Tone ratios above this flag an exposure issue.
const toneIssueRatio = 0.15

// Exposure issue labels echoed into tone details and recommendations.
const (
	IssueOverexposed  = "likely overexposed"
	IssueUnderexposed = "likely underexposed"
)

// QualityAnalyzer measures brightness, contrast, saturation, the gray
// histogram and highlight/shadow tone balance.
type QualityAnalyzer struct {
	thresholds Thresholds
}

func NewQualityAnalyzer(t Thresholds) *QualityAnalyzer {
	return &QualityAnalyzer{thresholds: t}
}

func (a *QualityAnalyzer) Category() string { return CategoryQuality }

func (a *QualityAnalyzer) Analyze(px *PixelBuffer) *models.CategoryResult {
	gray := px.Gray()
	res := models.NewCategoryResult()

	mean := stat.Mean(gray, nil)
	std := stat.PopStdDev(gray, nil)
	res.Add("brightness", models.MetricResult{
		Value:       mean,
		Unit:        "0-255 range",
		Description: "mean image brightness",
		Pass:        models.PassBool(a.thresholds.Brightness.Contains(mean)),
		Extra:       map[string]any{"std": std},
	})

	res.Add("contrast", models.MetricResult{
		Value:       std,
		Unit:        "standard deviation",
		Description: "image contrast level",
		Pass:        models.PassBool(a.thresholds.Contrast.Contains(std)),
	})

	_, sat, _ := px.HSV()
	meanSat := stat.Mean(sat, nil)
	res.Add("saturation", models.MetricResult{
		Value:       meanSat,
		Unit:        "0-255 range",
		Description: "mean image saturation",
		Pass:        models.PassBool(meanSat > 50),
	})

	hist := grayHistogram(gray)
	res.Add("histogram", models.MetricResult{
		Description: "gray-level histogram distribution",
		Extra:       map[string]any{"values": hist, "bins": 256},
	})

	res.Add("tone_analysis", a.analyzeTone(hist, len(gray)))
	return res
}

// analyzeTone flags exposure issues from the histogram tails:
// highlights are intensities >= 230, shadows are intensities < 25.
func (a *QualityAnalyzer) analyzeTone(hist []float64, total int) models.MetricResult {
	var highlights, shadows float64
	for i := 230; i < 256; i++ {
		highlights += hist[i]
	}
	for i := 0; i < 25; i++ {
		shadows += hist[i]
	}
	highlightRatio := highlights / float64(total)
	shadowRatio := shadows / float64(total)

	var issues []string
	if highlightRatio > toneIssueRatio {
		issues = append(issues, IssueOverexposed)
	}
	if shadowRatio > toneIssueRatio {
		issues = append(issues, IssueUnderexposed)
	}

	return models.MetricResult{
		Value:       highlightRatio,
		Description: "tone balance analysis",
		Pass:        models.PassBool(len(issues) == 0),
		Extra: map[string]any{
			"highlight_ratio": highlightRatio,
			"shadow_ratio":    shadowRatio,
			"issues":          issues,
		},
	}
}

// grayHistogram bins whole intensities into 256 buckets.
func grayHistogram(gray []float64) []float64 {
	hist := make([]float64, 256)
	for _, v := range gray {
		i := int(v)
		if i < 0 {
			i = 0
		} else if i > 255 {
			i = 255
		}
		hist[i]++
	}
	return hist
}
