package analyzer

import (
	"math"
	"sort"

	"github.com/cenkalti/dominantcolor"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"

	"go-camera-inspector/pkg/models"
)

const (
	dominantColorCount = 5
	castThreshold      = 5.0
	// Sampling cap keeps k-means tractable on full-resolution photos.
	kmeansMaxSamples = 12000
)

// ColorAnalyzer measures white balance, HSV distribution, estimated
// color temperature, channel casts and dominant colors.
type ColorAnalyzer struct {
	thresholds Thresholds
}

func NewColorAnalyzer(t Thresholds) *ColorAnalyzer {
	return &ColorAnalyzer{thresholds: t}
}

func (a *ColorAnalyzer) Category() string { return CategoryColor }

func (a *ColorAnalyzer) Analyze(px *PixelBuffer) *models.CategoryResult {
	res := models.NewCategoryResult()
	res.Add("white_balance", analyzeWhiteBalance(px))
	res.Add("color_distribution", analyzeColorDistribution(px))
	res.Add("color_temperature", estimateColorTemperature(px))
	res.Add("color_cast", detectColorCast(px))
	res.Add("dominant_colors", findDominantColors(px, dominantColorCount))
	return res
}

// centerCropMeans averages the channels over the central 50%x50% crop.
func centerCropMeans(px *PixelBuffer) (meanR, meanG, meanB float64) {
	var sumR, sumG, sumB float64
	count := 0
	for y := px.H / 4; y < 3*px.H/4; y++ {
		for x := px.W / 4; x < 3*px.W/4; x++ {
			r, g, b := px.RGBAt(x, y)
			sumR += r
			sumG += g
			sumB += b
			count++
		}
	}
	if count == 0 {
		return 0, 0, 0
	}
	n := float64(count)
	return sumR / n, sumG / n, sumB / n
}

func analyzeWhiteBalance(px *PixelBuffer) models.MetricResult {
	meanR, meanG, meanB := centerCropMeans(px)

	maxc := math.Max(meanR, math.Max(meanG, meanB))
	minc := math.Min(meanR, math.Min(meanG, meanB))
	ratio := 0.0
	if maxc > 0 {
		ratio = minc / maxc
	}

	return models.MetricResult{
		Value:       ratio,
		Unit:        "ratio",
		Description: "white balance - balanced channels are good",
		Pass:        models.PassBool(ratio > 0.85),
		Extra: map[string]any{
			"mean_r":        meanR,
			"mean_g":        meanG,
			"mean_b":        meanB,
			"balance_ratio": ratio,
		},
	}
}

func analyzeColorDistribution(px *PixelBuffer) models.MetricResult {
	hue, sat, val := px.HSV()

	hueHist := make([]float64, 180)
	satHist := make([]float64, 256)
	valHist := make([]float64, 256)
	for i := range hue {
		hueHist[clampBin(hue[i], 180)]++
		satHist[clampBin(sat[i], 256)]++
		valHist[clampBin(val[i], 256)]++
	}

	dominantHue := 0
	for i, v := range hueHist {
		if v > hueHist[dominantHue] {
			dominantHue = i
		}
	}

	return models.MetricResult{
		Description: "HSV color space distribution",
		Extra: map[string]any{
			"hue_histogram":        hueHist,
			"saturation_histogram": satHist,
			"value_histogram":      valHist,
			"dominant_hue":         dominantHue,
			"mean_saturation":      stat.Mean(sat, nil),
			"mean_value":           stat.Mean(val, nil),
		},
	}
}

func clampBin(v float64, n int) int {
	i := int(v)
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// estimateColorTemperature maps the central R/B ratio to a fixed
// Kelvin bucket.
func estimateColorTemperature(px *PixelBuffer) models.MetricResult {
	meanR, _, meanB := centerCropMeans(px)

	temperature := 6500
	if meanR+meanB != 0 {
		ratio := meanR / (meanB + 1e-10)
		switch {
		case ratio > 1.5:
			temperature = 3000
		case ratio > 1.2:
			temperature = 4000
		case ratio > 1.0:
			temperature = 5000
		case ratio > 0.8:
			temperature = 6500
		case ratio > 0.6:
			temperature = 8000
		default:
			temperature = 10000
		}
	}

	return models.MetricResult{
		Value:       float64(temperature),
		Unit:        "Kelvin",
		Description: "estimated color temperature",
		Extra: map[string]any{
			"temperature": temperature,
			"category":    temperatureCategory(temperature),
		},
	}
}

func temperatureCategory(temp int) string {
	switch {
	case temp < 4000:
		return "warm (yellow/orange)"
	case temp < 5000:
		return "neutral warm"
	case temp < 6500:
		return "neutral"
	case temp < 8000:
		return "neutral cool"
	default:
		return "cool (blue)"
	}
}

// detectColorCast flags a systematic channel tint: the largest mean
// deviation from grayscale must exceed 5.0 and lead the smallest
// deviation by more than 5.0.
func detectColorCast(px *PixelBuffer) models.MetricResult {
	gray := px.Gray()

	var sumR, sumG, sumB float64
	for i, gv := range gray {
		r := float64(px.pix[i*3])
		g := float64(px.pix[i*3+1])
		b := float64(px.pix[i*3+2])
		sumR += math.Abs(gv - r)
		sumG += math.Abs(gv - g)
		sumB += math.Abs(gv - b)
	}
	n := float64(len(gray))
	diffR, diffG, diffB := sumR/n, sumG/n, sumB/n

	maxDiff := math.Max(diffR, math.Max(diffG, diffB))
	minDiff := math.Min(diffR, math.Min(diffG, diffB))
	hasCast := maxDiff > castThreshold && maxDiff-minDiff > castThreshold

	castType := "none"
	if hasCast {
		switch maxDiff {
		case diffR:
			castType = "red cast"
		case diffG:
			castType = "green cast"
		default:
			castType = "blue cast"
		}
	}

	return models.MetricResult{
		Value:       maxDiff,
		Unit:        "mean deviation",
		Description: "color cast detection",
		Pass:        models.PassBool(!hasCast),
		Extra: map[string]any{
			"has_cast":   hasCast,
			"cast_type":  castType,
			"red_diff":   diffR,
			"green_diff": diffG,
			"blue_diff":  diffB,
		},
	}
}

// DominantColor is one k-means cluster center with its share of the
// sampled pixels.
type DominantColor struct {
	RGB        [3]uint8 `json:"rgb"`
	Percentage float64  `json:"percentage"`
}

// findDominantColors clusters the pixels into k groups. When k-means
// cannot produce a partition the dominantcolor palette is used as a
// fallback, the same way layer extraction tools degrade.
func findDominantColors(px *PixelBuffer, k int) models.MetricResult {
	colors := kmeansColors(px, k)
	if len(colors) == 0 {
		colors = fallbackColors(px, k)
	}
	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Percentage > colors[j].Percentage
	})

	return models.MetricResult{
		Value:       float64(len(colors)),
		Unit:        "clusters",
		Description: "dominant color palette",
		Extra: map[string]any{
			"colors": colors,
			"k":      len(colors),
		},
	}
}

func kmeansColors(px *PixelBuffer, k int) []DominantColor {
	// Subsample large frames; percentages stay shares of the sample.
	step := 1
	if px.W*px.H > kmeansMaxSamples {
		step = int(math.Sqrt(float64(px.W*px.H)/float64(kmeansMaxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, kmeansMaxSamples)
	for y := 0; y < px.H; y += step {
		for x := 0; x < px.W; x += step {
			r, g, b := px.RGBAt(x, y)
			dataset = append(dataset, clusters.Coordinates{r / 255, g / 255, b / 255})
		}
	}
	if len(dataset) < k {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, k)
	if err != nil || len(cc) == 0 {
		return nil
	}

	total := float64(len(dataset))
	out := make([]DominantColor, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		out = append(out, DominantColor{
			RGB: [3]uint8{
				clampByte(c.Center[0] * 255),
				clampByte(c.Center[1] * 255),
				clampByte(c.Center[2] * 255),
			},
			Percentage: float64(len(c.Observations)) / total * 100,
		})
	}
	return out
}

func fallbackColors(px *PixelBuffer, k int) []DominantColor {
	cands := dominantcolor.FindWeight(px.Source(), k)
	if len(cands) == 0 {
		return []DominantColor{{RGB: [3]uint8{128, 128, 128}, Percentage: 100}}
	}
	var totalWeight float64
	for _, c := range cands {
		totalWeight += math.Max(c.Weight, 1e-6)
	}
	out := make([]DominantColor, 0, len(cands))
	for _, c := range cands {
		out = append(out, DominantColor{
			RGB:        [3]uint8{c.RGBA.R, c.RGBA.G, c.RGBA.B},
			Percentage: math.Max(c.Weight, 1e-6) / totalWeight * 100,
		})
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// ReferencePatch is one expected color at a normalized image position.
type ReferencePatch struct {
	X      float64
	Y      float64
	Radius int
	RGB    [3]float64
}

// PatchAccuracy is the measured color difference for one patch.
type PatchAccuracy struct {
	Reference [3]float64 `json:"reference_color"`
	Measured  [3]float64 `json:"measured_color"`
	DeltaE    float64    `json:"delta_e"`
	Pass      bool       `json:"pass"`
}

// ColorAccuracy aggregates the per-patch delta-E results.
type ColorAccuracy struct {
	Patches       []PatchAccuracy `json:"colors"`
	AverageDeltaE float64         `json:"average_delta_e"`
	Pass          bool            `json:"pass"`
}

// CalculateColorAccuracy measures the mean color in a circular mask
// around each reference patch and scores the CIE Lab delta-E against
// the expected color. Each patch and the aggregate pass below 10.
func (a *ColorAnalyzer) CalculateColorAccuracy(px *PixelBuffer, refs []ReferencePatch) ColorAccuracy {
	acc := ColorAccuracy{Pass: true}
	var sum float64
	for _, ref := range refs {
		cx := int(ref.X * float64(px.W))
		cy := int(ref.Y * float64(px.H))
		radius := ref.Radius
		if radius <= 0 {
			radius = 10
		}

		measured := circularMean(px, cx, cy, radius)
		dE := deltaE(measured, ref.RGB)
		pass := dE < 10

		acc.Patches = append(acc.Patches, PatchAccuracy{
			Reference: ref.RGB,
			Measured:  measured,
			DeltaE:    dE,
			Pass:      pass,
		})
		sum += dE
		acc.Pass = acc.Pass && pass
	}
	if len(acc.Patches) > 0 {
		acc.AverageDeltaE = sum / float64(len(acc.Patches))
	}
	return acc
}

func circularMean(px *PixelBuffer, cx, cy, radius int) [3]float64 {
	var sumR, sumG, sumB float64
	count := 0
	for y := cy - radius; y <= cy+radius; y++ {
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= px.W || y < 0 || y >= px.H {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			r, g, b := px.RGBAt(x, y)
			sumR += r
			sumG += g
			sumB += b
			count++
		}
	}
	if count == 0 {
		return [3]float64{}
	}
	n := float64(count)
	return [3]float64{sumR / n, sumG / n, sumB / n}
}

// deltaE is the CIE76 color difference. go-colorful scales Lab down by
// 100, so the distance scales back up to the conventional range.
func deltaE(c1, c2 [3]float64) float64 {
	a := colorful.Color{R: c1[0] / 255, G: c1[1] / 255, B: c1[2] / 255}
	b := colorful.Color{R: c2[0] / 255, G: c2[1] / 255, B: c2[2] / 255}
	return a.DistanceLab(b) * 100
}
