package storage

import (
	"fmt"
	"image"
	"os"

	// Register the decoders for the formats pulled off devices.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	apperrors "go-camera-inspector/internal/errors"
	"go-camera-inspector/internal/logger"
)

// ImageLoader reads a local image file into memory.
type ImageLoader interface {
	Load(path string) (image.Image, error)
}

// FileLoader loads images from the local filesystem. Unreadable,
// empty or undecodable files produce a decode error so callers can
// skip the image and keep the run going.
type FileLoader struct{}

func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

func (l *FileLoader) Load(path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("cannot stat %s", path), err)
	}
	if info.Size() == 0 {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("%s is empty", path), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("cannot decode %s", path), err)
	}

	logger.WithField("format", format).Debug("decoded image")
	return img, nil
}
