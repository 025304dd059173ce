package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	apperrors "go-camera-inspector/internal/errors"
	"go-camera-inspector/pkg/models"
)

// Renderer produces the report document from a fully built payload.
type Renderer interface {
	Render(payload *models.ReportPayload) (string, error)
}

// HTMLRenderer writes a standalone HTML document into the reports
// directory, named test_report_<timestamp>.html.
type HTMLRenderer struct {
	reportsDir string
	tmpl       *template.Template
}

func NewHTMLRenderer(reportsDir string) (*HTMLRenderer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, apperrors.NewProcessingError("cannot parse report template", err)
	}
	return &HTMLRenderer{reportsDir: reportsDir, tmpl: tmpl}, nil
}

// Render writes the document and returns its path.
func (r *HTMLRenderer) Render(payload *models.ReportPayload) (string, error) {
	if err := os.MkdirAll(r.reportsDir, 0o755); err != nil {
		return "", apperrors.NewProcessingError("cannot create reports directory", err)
	}

	name := fmt.Sprintf("test_report_%s.html", time.Now().Format("20060102_150405"))
	path := filepath.Join(r.reportsDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", apperrors.NewProcessingError("cannot create report file", err)
	}
	defer f.Close()

	type section struct {
		Title string
		models.CategorySummary
	}
	data := struct {
		*models.ReportPayload
		Sections []section
	}{
		ReportPayload: payload,
		Sections: []section{
			{"Image Quality", payload.Quality},
			{"Sharpness", payload.Sharpness},
			{"Noise", payload.Noise},
			{"Color", payload.Color},
		},
	}

	if err := r.tmpl.Execute(f, data); err != nil {
		return "", apperrors.NewProcessingError("cannot render report", err)
	}
	return path, nil
}

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Camera Quality Test Report</title>
<style>
body { font-family: 'Segoe UI', Tahoma, sans-serif; background: #f0f2f5; margin: 0; padding: 20px; color: #333; }
.container { max-width: 1200px; margin: 0 auto; background: #fff; border-radius: 10px; box-shadow: 0 6px 24px rgba(0,0,0,.12); overflow: hidden; }
.header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: #fff; padding: 32px; text-align: center; }
.header h1 { margin: 0 0 8px; }
.device { opacity: .9; font-size: .95em; }
.summary { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 16px; padding: 24px; background: #f8f9fa; }
.card { background: #fff; border-radius: 8px; padding: 18px; text-align: center; box-shadow: 0 2px 8px rgba(0,0,0,.06); }
.card h3 { margin: 0 0 8px; color: #667eea; font-size: .85em; text-transform: uppercase; }
.card .num { font-size: 1.6em; font-weight: 600; }
.section { padding: 16px 24px; }
.section h2 { border-bottom: 2px solid #667eea; padding-bottom: 6px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th, td { text-align: left; padding: 8px 10px; border-bottom: 1px solid #eee; }
.pass { color: #2e7d32; font-weight: 600; }
.fail { color: #c62828; font-weight: 600; }
.images { display: flex; flex-wrap: wrap; gap: 12px; padding: 0 24px 16px; }
.images figure { margin: 0; text-align: center; font-size: .85em; }
.images img { max-width: 220px; border-radius: 6px; box-shadow: 0 2px 8px rgba(0,0,0,.15); }
.recs { background: #fff8e1; border-left: 4px solid #f9a825; margin: 16px 24px 24px; padding: 12px 16px; border-radius: 4px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Camera Quality Test Report</h1>
    <div>{{.Timestamp}} &middot; run {{.RunID}}</div>
    <div class="device">{{.Device.Manufacturer}} {{.Device.Model}} &middot; OS {{.Device.OSVersion}}</div>
  </div>
  <div class="summary">
    <div class="card"><h3>Total Tests</h3><div class="num">{{.TotalTests}}</div></div>
    <div class="card"><h3>Passed</h3><div class="num">{{.PassedTests}}</div></div>
    <div class="card"><h3>Pass Rate</h3><div class="num">{{printf "%.1f" .PassRate}}%</div></div>
  </div>
  <div class="images">
    {{range .Images}}
    <figure>
      {{if .Thumb}}<img src="{{.Thumb}}" alt="{{.Name}}">{{else}}<img src="{{.Path}}" alt="{{.Name}}">{{end}}
      <figcaption>{{.Name}} ({{.Size}})</figcaption>
    </figure>
    {{end}}
  </div>
  {{range .Sections}}
  <div class="section">
    <h2>{{.Title}} &mdash; {{.PassCount}}/{{.Total}} ({{printf "%.1f" .PassRate}}%)</h2>
    <table>
      <tr><th>Test</th><th>Result</th><th>Description</th><th>Details</th></tr>
      {{range .Tests}}
      <tr>
        <td>{{.Name}}</td>
        <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
        <td>{{.Description}}</td>
        <td>{{range .Details}}{{.Label}}: {{.Value}}<br>{{end}}</td>
      </tr>
      {{end}}
    </table>
  </div>
  {{end}}
  {{if .BlurRegions}}
  <div class="section">
    <h2>Blur Regions</h2>
    <p>{{.BlurRegions.BlurryBlocks}}/{{.BlurRegions.TotalBlocks}} blocks below threshold
    ({{printf "%.1f" .BlurRegions.BlurryRatio}} ratio) &mdash;
    {{if .BlurRegions.Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</p>
  </div>
  {{end}}
  {{if .Recommendations}}
  <div class="recs">
    <strong>Recommendations</strong>
    <ul>{{range .Recommendations}}<li>{{.}}</li>{{end}}</ul>
  </div>
  {{end}}
</div>
</body>
</html>
`
