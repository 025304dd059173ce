package models

// MetricResult holds one named measurement together with its verdict.
// Pass is nil for informational metrics (raw histograms, temperature
// buckets) that carry no threshold comparison; such metrics are
// excluded from pass-count totals.
type MetricResult struct {
	Value       float64        `json:"value"`
	Unit        string         `json:"unit,omitempty"`
	Description string         `json:"description,omitempty"`
	Pass        *bool          `json:"pass,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// Passed reports whether the metric carries a verdict and it is true.
func (m MetricResult) Passed() bool {
	return m.Pass != nil && *m.Pass
}

// HasVerdict reports whether the metric carries a pass/fail verdict.
func (m MetricResult) HasVerdict() bool {
	return m.Pass != nil
}

// PassBool returns a pointer suitable for MetricResult.Pass.
func PassBool(b bool) *bool {
	return &b
}

// CategoryResult is an ordered mapping from metric name to result for
// one analyzer category. Insertion order is preserved so reports list
// metrics the way the analyzer produced them.
type CategoryResult struct {
	names   []string
	metrics map[string]MetricResult
}

// NewCategoryResult returns an empty category result.
func NewCategoryResult() *CategoryResult {
	return &CategoryResult{metrics: make(map[string]MetricResult)}
}

// Add inserts or replaces a named metric, keeping first-seen order.
func (c *CategoryResult) Add(name string, m MetricResult) {
	if _, ok := c.metrics[name]; !ok {
		c.names = append(c.names, name)
	}
	c.metrics[name] = m
}

// Get returns the metric stored under name.
func (c *CategoryResult) Get(name string) (MetricResult, bool) {
	m, ok := c.metrics[name]
	return m, ok
}

// Names returns metric names in insertion order.
func (c *CategoryResult) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of metrics in the category.
func (c *CategoryResult) Len() int {
	return len(c.names)
}
