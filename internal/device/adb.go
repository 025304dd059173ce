package device

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"go-camera-inspector/internal/config"
	apperrors "go-camera-inspector/internal/errors"
	"go-camera-inspector/internal/logger"
	"go-camera-inspector/pkg/models"
)

// RemoteImage is one image file found on the device.
type RemoteImage struct {
	Path      string
	Name      string
	Timestamp string
}

// Bridge abstracts the device transport so the run service can be
// tested without hardware attached.
type Bridge interface {
	Connect(ctx context.Context) error
	ListRecentImages(ctx context.Context, dir string) ([]RemoteImage, error)
	Pull(ctx context.Context, remotePath, localPath string) error
	Properties(ctx context.Context) (models.DeviceInfo, error)
	Screenshot(ctx context.Context, localPath string) error
}

// ADB drives a device through the adb binary.
type ADB struct {
	path     string
	deviceID string
	timeout  time.Duration
}

// NewADB builds the bridge and probes the adb binary. A missing or
// broken binary is reported immediately rather than on first use.
func NewADB(cfg config.ADBConfig) (*ADB, error) {
	a := &ADB{
		path:     cfg.Path,
		deviceID: cfg.DeviceID,
		timeout:  time.Duration(cfg.TimeoutSec) * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := a.run(ctx, "version"); err != nil {
		return nil, apperrors.NewDeviceError("adb is not installed or not in PATH", err)
	}
	return a, nil
}

func (a *ADB) binary() string {
	if a.path != "" {
		if _, err := os.Stat(a.path); err == nil {
			return a.path
		}
	}
	return "adb"
}

// run executes one adb command, scoping it to the configured device
// when one is set. Combined output is returned so device-side error
// text survives into the AppError cause.
func (a *ADB) run(ctx context.Context, args ...string) (string, error) {
	full := args
	if a.deviceID != "" {
		full = append([]string{"-s", a.deviceID}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, a.binary(), full...).CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// Connect resolves the target device. When no device ID is configured
// it auto-selects a single attached device and fails with the
// candidate list otherwise.
func (a *ADB) Connect(ctx context.Context) error {
	if a.deviceID == "" {
		out, err := a.run(ctx, "devices")
		if err != nil {
			return apperrors.NewDeviceError("cannot list devices", err)
		}
		devices := ParseDeviceList(out)
		switch len(devices) {
		case 0:
			return apperrors.NewDeviceError("no devices found", nil)
		case 1:
			a.deviceID = devices[0]
		default:
			return apperrors.NewDeviceError(
				fmt.Sprintf("multiple devices found: %s, set device_id in the config", strings.Join(devices, ", ")), nil)
		}
	}

	out, err := a.run(ctx, "get-state")
	if err != nil || !strings.Contains(out, "device") {
		return apperrors.NewDeviceError(fmt.Sprintf("cannot connect to device %s", a.deviceID), err)
	}
	logger.WithField("device_id", a.deviceID).Info("connected to device")
	return nil
}

// ListRecentImages lists the image files in dir, newest first. A
// listing failure is a device error; an empty directory is not.
func (a *ADB) ListRecentImages(ctx context.Context, dir string) ([]RemoteImage, error) {
	out, err := a.run(ctx, "shell", "ls", "-l", dir)
	if err != nil {
		return nil, apperrors.NewDeviceError(fmt.Sprintf("cannot list %s", dir), err)
	}

	images := ParseFileListing(dir, out)
	logger.WithFields(logrus.Fields{"dir": dir, "count": len(images)}).Debug("listed device images")
	return images, nil
}

// Pull copies one remote file to the local path.
func (a *ADB) Pull(ctx context.Context, remotePath, localPath string) error {
	if _, err := a.run(ctx, "pull", remotePath, localPath); err != nil {
		return apperrors.NewDeviceError(fmt.Sprintf("cannot pull %s", remotePath), err)
	}
	return nil
}

// Properties reads the identifying build properties. Individual
// getprop failures leave the field empty rather than failing the run.
func (a *ADB) Properties(ctx context.Context) (models.DeviceInfo, error) {
	var info models.DeviceInfo
	props := []struct {
		key  string
		dest *string
	}{
		{"ro.product.model", &info.Model},
		{"ro.product.manufacturer", &info.Manufacturer},
		{"ro.build.version.release", &info.OSVersion},
	}
	for _, p := range props {
		out, err := a.run(ctx, "shell", "getprop", p.key)
		if err != nil {
			logger.WithError(err).WithField("prop", p.key).Warn("cannot read device property")
			continue
		}
		*p.dest = strings.TrimSpace(out)
	}
	return info, nil
}

// Screenshot captures the current screen to a device-side temp file
// and pulls it to localPath.
func (a *ADB) Screenshot(ctx context.Context, localPath string) error {
	const remote = "/sdcard/screenshot.png"
	if _, err := a.run(ctx, "shell", "screencap", "-p", remote); err != nil {
		return apperrors.NewDeviceError("cannot capture screen", err)
	}
	if err := a.Pull(ctx, remote, localPath); err != nil {
		return err
	}
	_, _ = a.run(ctx, "shell", "rm", remote)
	return nil
}

// ParseDeviceList extracts ready device IDs from `adb devices` output.
func ParseDeviceList(output string) []string {
	var devices []string
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i, line := range lines {
		if i == 0 && strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) == 2 && fields[1] == "device" {
			devices = append(devices, fields[0])
		}
	}
	return devices
}

// ParseFileListing extracts image entries from `ls -l` output, newest
// first. Only jpg/jpeg/png files count; hidden files, the total line
// and anything unparseable are skipped.
func ParseFileListing(dir, output string) []RemoteImage {
	var images []RemoteImage
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "total") || strings.HasPrefix(line, ".") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name := parts[len(parts)-1]

		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") && !strings.HasSuffix(lower, ".png") {
			continue
		}

		// toybox ls -l: perms links owner group size date time name
		timestamp := "Unknown"
		if len(parts) >= 8 {
			timestamp = parts[5] + " " + parts[6]
		}

		images = append(images, RemoteImage{
			Path:      path.Join(dir, name),
			Name:      name,
			Timestamp: timestamp,
		})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].Timestamp > images[j].Timestamp
	})
	return images
}
