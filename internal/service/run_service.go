package service

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go-camera-inspector/internal/aggregator"
	"go-camera-inspector/internal/analyzer"
	"go-camera-inspector/internal/config"
	"go-camera-inspector/internal/device"
	apperrors "go-camera-inspector/internal/errors"
	"go-camera-inspector/internal/logger"
	"go-camera-inspector/internal/observer"
	"go-camera-inspector/internal/report"
	"go-camera-inspector/internal/storage"
	"go-camera-inspector/pkg/models"
)

const blurBlockSize = 64

// RunResult is the outcome of one completed test run.
type RunResult struct {
	Payload    *models.ReportPayload
	ReportPath string
}

// RunService orchestrates a camera test run: pull images off the
// device, analyze them, aggregate the representative image's results
// and render the report. Only the service mutates run-scoped state;
// analyzers stay stateless.
type RunService struct {
	cfg       *config.Config
	bridge    device.Bridge
	loader    storage.ImageLoader
	sharpness *analyzer.SharpnessAnalyzer
	color     *analyzer.ColorAnalyzer
	analyzers []analyzer.Analyzer
	renderer  report.Renderer
	publisher observer.Subject

	mu     sync.RWMutex
	latest *models.ReportPayload
}

func NewRunService(cfg *config.Config, bridge device.Bridge, loader storage.ImageLoader,
	renderer report.Renderer, publisher observer.Subject) *RunService {

	t := analyzer.Thresholds{
		Brightness:   analyzer.Window{Min: cfg.Analysis.BrightnessThreshold.Min, Max: cfg.Analysis.BrightnessThreshold.Max},
		Contrast:     analyzer.Window{Min: cfg.Analysis.ContrastThreshold.Min, Max: cfg.Analysis.ContrastThreshold.Max},
		SharpnessMin: cfg.Analysis.SharpnessThreshold.Min,
		NoiseMax:     cfg.Analysis.NoiseThreshold.Max,
	}
	sharp := analyzer.NewSharpnessAnalyzer(t)
	col := analyzer.NewColorAnalyzer(t)

	return &RunService{
		cfg:       cfg,
		bridge:    bridge,
		loader:    loader,
		sharpness: sharp,
		color:     col,
		analyzers: []analyzer.Analyzer{
			analyzer.NewQualityAnalyzer(t),
			sharp,
			analyzer.NewNoiseAnalyzer(t),
			col,
		},
		renderer:  renderer,
		publisher: publisher,
	}
}

// Latest returns the most recently completed payload, or nil before
// the first run finishes.
func (s *RunService) Latest() *models.ReportPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Run executes one full test run over the newest count images on the
// device. Device failures abort the run only while no image has been
// pulled yet; undecodable images are skipped.
func (s *RunService) Run(ctx context.Context, count int) (*RunResult, error) {
	if count < 1 {
		return nil, apperrors.NewConfigError(
			fmt.Sprintf("image count must be at least 1, got %d", count), nil)
	}

	runID := uuid.New().String()
	startedAt := time.Now()

	s.notify(ctx, observer.RunEvent{
		EventType: observer.RunStarted,
		Timestamp: startedAt,
		Success:   true,
		Metadata:  map[string]interface{}{"run_id": runID, "count": count},
	})

	if err := s.bridge.Connect(ctx); err != nil {
		s.failRun(ctx, err)
		return nil, err
	}

	info, err := s.bridge.Properties(ctx)
	if err != nil {
		logger.WithError(err).Warn("cannot read device properties")
	}

	local, err := s.pullImages(ctx, count, startedAt)
	if err != nil {
		s.failRun(ctx, err)
		return nil, err
	}

	agg := aggregator.New()
	decoded := make(map[string]image.Image, len(local))
	records := make([]models.ImageRecord, 0, len(local))
	var blur *analyzer.BlurRegions

	for _, path := range local {
		rec := models.ImageRecord{Path: path, Name: filepath.Base(path), Size: "Unknown"}

		img, err := s.loader.Load(path)
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
				s.failRun(ctx, err)
				return nil, err
			}
			s.notify(ctx, observer.RunEvent{
				EventType:    observer.ImageSkipped,
				Timestamp:    time.Now(),
				ImagePath:    path,
				ErrorMessage: err.Error(),
			})
			records = append(records, rec)
			continue
		}
		decoded[path] = img

		px := analyzer.NewPixelBuffer(img)
		rec.Size = px.SizeString()
		records = append(records, rec)

		analysisStart := time.Now()
		results := s.analyzeImage(px)
		s.addColorAccuracy(px, results[analyzer.CategoryColor])

		// First successfully analyzed image wins each category slot.
		firstWin := !agg.HasResults()
		for category, res := range results {
			agg.SetCategory(category, res)
		}
		if firstWin {
			b := s.sharpness.DetectBlurRegions(px, blurBlockSize)
			blur = &b
		}

		s.notify(ctx, observer.RunEvent{
			EventType:      observer.ImageAnalyzed,
			Timestamp:      time.Now(),
			ImagePath:      path,
			ProcessingTime: time.Since(analysisStart),
			Success:        true,
			Metadata:       map[string]interface{}{"size": rec.Size},
		})
	}

	staged := report.StageImages(records, decoded, s.cfg.Output.ReportsDir)
	payload := report.BuildPayload(runID, startedAt, info, staged, agg, blur)

	reportPath, err := s.renderer.Render(payload)
	if err != nil {
		s.failRun(ctx, err)
		return nil, err
	}

	s.notify(ctx, observer.RunEvent{
		EventType:      observer.ReportGenerated,
		Timestamp:      time.Now(),
		ProcessingTime: time.Since(startedAt),
		Success:        true,
		Metadata: map[string]interface{}{
			"run_id":      runID,
			"report_path": reportPath,
			"pass_rate":   payload.PassRate,
		},
	})

	s.mu.Lock()
	s.latest = payload
	s.mu.Unlock()

	return &RunResult{Payload: payload, ReportPath: reportPath}, nil
}

// pullImages copies up to count of the newest device images into the
// local images directory. Individual pull failures skip that image; a
// run with zero obtained images is a device error.
func (s *RunService) pullImages(ctx context.Context, count int, startedAt time.Time) ([]string, error) {
	if err := os.MkdirAll(s.cfg.Output.ImagesDir, 0o755); err != nil {
		return nil, apperrors.NewProcessingError("cannot create images directory", err)
	}

	remote, err := s.bridge.ListRecentImages(ctx, s.cfg.ADB.CameraDir)
	if err != nil {
		return nil, err
	}
	if len(remote) == 0 {
		return nil, apperrors.NewDeviceError(fmt.Sprintf("no images found in %s", s.cfg.ADB.CameraDir), nil)
	}
	if len(remote) > count {
		remote = remote[:count]
	}

	stamp := startedAt.Format("20060102_150405")
	local := make([]string, 0, len(remote))
	for i, img := range remote {
		ext := strings.ToLower(filepath.Ext(img.Name))
		if ext == "" {
			ext = ".jpg"
		}
		dst := filepath.Join(s.cfg.Output.ImagesDir, fmt.Sprintf("photo_%s_%d%s", stamp, i+1, ext))

		if err := s.bridge.Pull(ctx, img.Path, dst); err != nil {
			s.notify(ctx, observer.RunEvent{
				EventType:    observer.ImagePullFailed,
				Timestamp:    time.Now(),
				ImagePath:    img.Path,
				ErrorMessage: err.Error(),
			})
			continue
		}
		local = append(local, dst)
		s.notify(ctx, observer.RunEvent{
			EventType: observer.ImagePulled,
			Timestamp: time.Now(),
			ImagePath: img.Path,
			Success:   true,
			Metadata:  map[string]interface{}{"local_path": dst},
		})
	}

	if len(local) == 0 {
		return nil, apperrors.NewDeviceError("no images could be pulled from the device", nil)
	}
	return local, nil
}

// analyzeImage runs the four analyzers concurrently over one pixel
// buffer. Each analyzer writes only its own slot, so the slice needs
// no locking; the buffer itself is read-only to analyzers.
func (s *RunService) analyzeImage(px *analyzer.PixelBuffer) map[string]*models.CategoryResult {
	type slot struct {
		category string
		result   *models.CategoryResult
	}
	slots := make([]slot, len(s.analyzers))

	var g errgroup.Group
	for i, a := range s.analyzers {
		i, a := i, a
		g.Go(func() error {
			slots[i] = slot{category: a.Category(), result: a.Analyze(px)}
			return nil
		})
	}
	_ = g.Wait()

	results := make(map[string]*models.CategoryResult, len(slots))
	for _, sl := range slots {
		results[sl.category] = sl.result
	}
	return results
}

// addColorAccuracy appends the reference-patch delta-E metric to the
// color category when patches are configured.
func (s *RunService) addColorAccuracy(px *analyzer.PixelBuffer, res *models.CategoryResult) {
	if res == nil || len(s.cfg.Analysis.ReferenceColors) == 0 {
		return
	}

	refs := make([]analyzer.ReferencePatch, len(s.cfg.Analysis.ReferenceColors))
	for i, rc := range s.cfg.Analysis.ReferenceColors {
		refs[i] = analyzer.ReferencePatch{
			X:      rc.X,
			Y:      rc.Y,
			Radius: rc.Radius,
			RGB:    [3]float64{float64(rc.RGB[0]), float64(rc.RGB[1]), float64(rc.RGB[2])},
		}
	}

	acc := s.color.CalculateColorAccuracy(px, refs)
	res.Add("color_accuracy", models.MetricResult{
		Value:       acc.AverageDeltaE,
		Unit:        "delta-E",
		Description: "Average CIE Lab difference against the reference patches",
		Pass:        models.PassBool(acc.Pass),
		Extra:       map[string]any{"colors": acc.Patches},
	})
}

func (s *RunService) failRun(ctx context.Context, err error) {
	logger.WithFields(logrus.Fields{"fatal": apperrors.IsFatal(err)}).WithError(err).Error("camera test run failed")
	s.notify(ctx, observer.RunEvent{
		EventType:    observer.RunFailed,
		Timestamp:    time.Now(),
		ErrorMessage: err.Error(),
	})
}

func (s *RunService) notify(ctx context.Context, event observer.RunEvent) {
	if s.publisher != nil {
		s.publisher.NotifyObservers(ctx, event)
	}
}
