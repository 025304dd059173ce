package service

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go-camera-inspector/internal/config"
	"go-camera-inspector/internal/device"
	apperrors "go-camera-inspector/internal/errors"
	"go-camera-inspector/internal/report"
	"go-camera-inspector/internal/storage"
	"go-camera-inspector/pkg/models"
)

// fakeBridge serves images from a local directory instead of a device.
type fakeBridge struct {
	remoteDir string
	images    []device.RemoteImage
	failPulls map[string]bool
}

func (f *fakeBridge) Connect(ctx context.Context) error { return nil }

func (f *fakeBridge) ListRecentImages(ctx context.Context, dir string) ([]device.RemoteImage, error) {
	return f.images, nil
}

func (f *fakeBridge) Pull(ctx context.Context, remotePath, localPath string) error {
	if f.failPulls[remotePath] {
		return apperrors.NewDeviceError("pull refused", nil)
	}
	data, err := os.ReadFile(filepath.Join(f.remoteDir, filepath.Base(remotePath)))
	if err != nil {
		return apperrors.NewDeviceError("remote file missing", err)
	}
	return os.WriteFile(localPath, data, 0o644)
}

func (f *fakeBridge) Properties(ctx context.Context) (models.DeviceInfo, error) {
	return models.DeviceInfo{Model: "Pixel 8", Manufacturer: "Google", OSVersion: "14"}, nil
}

func (f *fakeBridge) Screenshot(ctx context.Context, localPath string) error { return nil }

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	base := t.TempDir()
	cfg.Output.ImagesDir = filepath.Join(base, "images")
	cfg.Output.ReportsDir = filepath.Join(base, "reports")
	return cfg
}

func newTestService(t *testing.T, cfg *config.Config, bridge device.Bridge) *RunService {
	t.Helper()
	renderer, err := report.NewHTMLRenderer(cfg.Output.ReportsDir)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunService(cfg, bridge, storage.NewFileLoader(), renderer, nil)
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	remoteDir := t.TempDir()

	writePNG(t, filepath.Join(remoteDir, "good.png"), color.RGBA{128, 128, 128, 255})
	// Zero-byte file imitates a truncated pull target.
	if err := os.WriteFile(filepath.Join(remoteDir, "broken.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	bridge := &fakeBridge{
		remoteDir: remoteDir,
		images: []device.RemoteImage{
			{Path: "/sdcard/DCIM/Camera/good.png", Name: "good.png", Timestamp: "2025-08-11 10:02"},
			{Path: "/sdcard/DCIM/Camera/broken.png", Name: "broken.png", Timestamp: "2025-08-11 10:01"},
		},
	}

	svc := newTestService(t, cfg, bridge)
	result, err := svc.Run(context.Background(), 3)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	payload := result.Payload
	if len(payload.Images) != 2 {
		t.Fatalf("got %d image records, want 2", len(payload.Images))
	}
	if payload.Images[0].Size != "64x64" {
		t.Errorf("decoded image size = %q, want 64x64", payload.Images[0].Size)
	}
	if payload.Images[1].Size != "Unknown" {
		t.Errorf("undecodable image size = %q, want Unknown", payload.Images[1].Size)
	}

	if payload.Device.Model != "Pixel 8" {
		t.Errorf("device = %+v", payload.Device)
	}
	if payload.TotalTests == 0 {
		t.Error("expected scored metrics from the representative image")
	}
	if payload.BlurRegions == nil {
		t.Error("expected a blur map for the representative image")
	}

	if _, err := os.Stat(result.ReportPath); err != nil {
		t.Errorf("report file missing: %v", err)
	}
	if !strings.HasSuffix(result.ReportPath, ".html") {
		t.Errorf("report path = %q", result.ReportPath)
	}

	if svc.Latest() != payload {
		t.Error("Latest() should return the run's payload")
	}
}

func TestRun_RepresentativeIsFirstDecodable(t *testing.T) {
	cfg := testConfig(t)
	remoteDir := t.TempDir()

	// The first listed image is undecodable, so the second becomes the
	// representative. Dark image fails brightness; bright one passes.
	if err := os.WriteFile(filepath.Join(remoteDir, "broken.png"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(remoteDir, "dark.png"), color.RGBA{10, 10, 10, 255})

	bridge := &fakeBridge{
		remoteDir: remoteDir,
		images: []device.RemoteImage{
			{Path: "/r/broken.png", Name: "broken.png"},
			{Path: "/r/dark.png", Name: "dark.png"},
		},
	}

	svc := newTestService(t, cfg, bridge)
	result, err := svc.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var brightness *models.TestItem
	for i := range result.Payload.Quality.Tests {
		if result.Payload.Quality.Tests[i].Name == "Brightness" {
			brightness = &result.Payload.Quality.Tests[i]
		}
	}
	if brightness == nil {
		t.Fatal("missing brightness test")
	}
	if brightness.Pass {
		t.Error("expected the dark representative image to fail brightness")
	}
}

func TestRun_RejectsNonPositiveCount(t *testing.T) {
	cfg := testConfig(t)
	remoteDir := t.TempDir()
	writePNG(t, filepath.Join(remoteDir, "good.png"), color.RGBA{128, 128, 128, 255})

	bridge := &fakeBridge{
		remoteDir: remoteDir,
		images:    []device.RemoteImage{{Path: "/r/good.png", Name: "good.png"}},
	}
	svc := newTestService(t, cfg, bridge)

	for _, count := range []int{0, -1} {
		_, err := svc.Run(context.Background(), count)
		if err == nil {
			t.Fatalf("count %d: expected an error", count)
		}
		if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
			t.Errorf("count %d: expected a config error, got %v", count, err)
		}
	}
}

func TestRun_AllPullsFailAborts(t *testing.T) {
	cfg := testConfig(t)

	bridge := &fakeBridge{
		remoteDir: t.TempDir(),
		images: []device.RemoteImage{
			{Path: "/r/a.jpg", Name: "a.jpg"},
			{Path: "/r/b.jpg", Name: "b.jpg"},
		},
		failPulls: map[string]bool{"/r/a.jpg": true, "/r/b.jpg": true},
	}

	svc := newTestService(t, cfg, bridge)
	_, err := svc.Run(context.Background(), 2)
	if err == nil {
		t.Fatal("expected a device error when nothing could be pulled")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeDevice) {
		t.Errorf("expected a device error, got %v", err)
	}
}

func TestRun_PartialPullFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	remoteDir := t.TempDir()
	writePNG(t, filepath.Join(remoteDir, "good.png"), color.RGBA{128, 128, 128, 255})

	bridge := &fakeBridge{
		remoteDir: remoteDir,
		images: []device.RemoteImage{
			{Path: "/r/missing.jpg", Name: "missing.jpg"},
			{Path: "/r/good.png", Name: "good.png"},
		},
		failPulls: map[string]bool{"/r/missing.jpg": true},
	}

	svc := newTestService(t, cfg, bridge)
	result, err := svc.Run(context.Background(), 2)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(result.Payload.Images) != 1 {
		t.Errorf("got %d image records, want 1", len(result.Payload.Images))
	}
}

func TestRun_EmptyDeviceDirectory(t *testing.T) {
	cfg := testConfig(t)
	bridge := &fakeBridge{remoteDir: t.TempDir()}

	svc := newTestService(t, cfg, bridge)
	_, err := svc.Run(context.Background(), 3)
	if err == nil {
		t.Fatal("expected an error for an empty camera directory")
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Type != apperrors.ErrorTypeDevice {
		t.Errorf("expected a device error, got %v", err)
	}
}

func TestRun_ColorAccuracyFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.ReferenceColors = []config.ReferenceColor{
		{X: 0.5, Y: 0.5, Radius: 8, RGB: [3]int{128, 128, 128}},
	}

	remoteDir := t.TempDir()
	writePNG(t, filepath.Join(remoteDir, "gray.png"), color.RGBA{128, 128, 128, 255})

	bridge := &fakeBridge{
		remoteDir: remoteDir,
		images:    []device.RemoteImage{{Path: "/r/gray.png", Name: "gray.png"}},
	}

	svc := newTestService(t, cfg, bridge)
	result, err := svc.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	found := false
	for _, test := range result.Payload.Color.Tests {
		if test.Name == "Color Accuracy" {
			found = true
			if !test.Pass {
				t.Error("expected the matching reference patch to pass")
			}
		}
	}
	if !found {
		t.Error("expected a color accuracy test when reference colors are configured")
	}
}
