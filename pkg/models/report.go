package models

// DeviceInfo is the property set read from the device under test.
type DeviceInfo struct {
	Model        string `json:"model"`
	Manufacturer string `json:"manufacturer"`
	OSVersion    string `json:"os_version"`
}

// ImageRecord describes one captured image in a run. Size is the pixel
// dimensions formatted as "WxH", or "Unknown" when the image could not
// be decoded. Records are appended in capture order and never mutated.
type ImageRecord struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Size  string `json:"size"`
	Thumb string `json:"thumb,omitempty"`
}

// TestDetail is one label/value pair shown under a test item.
type TestDetail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TestItem is one metric formatted for display.
type TestItem struct {
	Name        string       `json:"name"`
	Pass        bool         `json:"pass"`
	Description string       `json:"description"`
	Details     []TestDetail `json:"details"`
}

// CategorySummary carries the per-category totals.
type CategorySummary struct {
	Tests     []TestItem `json:"tests"`
	PassCount int        `json:"pass_count"`
	Total     int        `json:"total_count"`
	PassRate  float64    `json:"pass_rate"`
}

// BlurRegionSummary reports the block-wise blur map of the
// representative image.
type BlurRegionSummary struct {
	BlurryBlocks int       `json:"blurry_blocks"`
	TotalBlocks  int       `json:"total_blocks"`
	BlurryRatio  float64   `json:"blurry_ratio"`
	Pass         bool      `json:"pass"`
	BlurMap      [][]float64 `json:"blur_map,omitempty"`
}

// ReportPayload is the fully assembled report handed to the renderer.
// Built once per run and immutable afterward.
type ReportPayload struct {
	RunID     string     `json:"run_id"`
	Timestamp string     `json:"timestamp"`
	Device    DeviceInfo `json:"device"`

	Images []ImageRecord `json:"images"`

	Quality   CategorySummary `json:"quality"`
	Sharpness CategorySummary `json:"sharpness"`
	Noise     CategorySummary `json:"noise"`
	Color     CategorySummary `json:"color"`

	BlurRegions *BlurRegionSummary `json:"blur_regions,omitempty"`

	TotalTests  int     `json:"total_tests"`
	PassedTests int     `json:"passed_tests"`
	PassRate    float64 `json:"pass_rate"`

	Recommendations []string `json:"recommendations"`
}
