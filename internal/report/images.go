package report

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"go-camera-inspector/internal/logger"
	"go-camera-inspector/pkg/models"
)

const thumbMaxEdge = 320

// StageImages copies the analyzed images next to the report so the
// document stays viewable after the working directory is cleaned, and
// renders a thumbnail for each decoded image. Failures are logged and
// the record keeps its original path; staging never fails a run.
func StageImages(records []models.ImageRecord, decoded map[string]image.Image, reportsDir string) []models.ImageRecord {
	assetsDir := filepath.Join(reportsDir, "images")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		logger.WithError(err).Warn("cannot create report images directory, keeping original paths")
		return records
	}

	staged := make([]models.ImageRecord, len(records))
	for i, rec := range records {
		staged[i] = rec

		dst := filepath.Join(assetsDir, rec.Name)
		if err := copyFile(rec.Path, dst); err != nil {
			logger.WithError(err).WithField("image", rec.Name).Warn("cannot copy image into report directory")
		} else {
			staged[i].Path = filepath.Join("images", rec.Name)
		}

		img, ok := decoded[rec.Path]
		if !ok {
			continue
		}
		thumbName := fmt.Sprintf("thumb_%s.jpg", trimExt(rec.Name))
		thumbPath := filepath.Join(assetsDir, thumbName)
		if err := writeThumbnail(img, thumbPath); err != nil {
			logger.WithError(err).WithField("image", rec.Name).Warn("cannot write thumbnail")
			continue
		}
		staged[i].Thumb = filepath.Join("images", thumbName)
	}
	return staged
}

func writeThumbnail(img image.Image, path string) error {
	thumb := resize.Thumbnail(thumbMaxEdge, thumbMaxEdge, img, resize.Lanczos3)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, thumb, &jpeg.Options{Quality: 85})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
