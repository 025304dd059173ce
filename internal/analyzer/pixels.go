package analyzer

import (
	"fmt"
	"image"
	"math"
	"sync"
)

// PixelBuffer is an immutable view of a decoded image: interleaved
// 8-bit RGB plus derived grayscale and HSV planes. Analyzers only read
// from it; every intermediate map they build is a fresh buffer.
//
// The grayscale plane uses the 0.299/0.587/0.114 luma weights rounded
// to whole intensities, and HSV uses the 8-bit convention with hue in
// [0,180) and saturation/value in [0,255].
type PixelBuffer struct {
	W, H int

	src image.Image
	pix []uint8 // interleaved RGB, len W*H*3

	grayOnce sync.Once
	gray     []float64

	hsvOnce sync.Once
	hsvH    []float64
	hsvS    []float64
	hsvV    []float64
}

// NewPixelBuffer extracts the pixel data of img.
func NewPixelBuffer(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pix := make([]uint8, w*h*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pix[i] = uint8(r >> 8)
			pix[i+1] = uint8(g >> 8)
			pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}

	return &PixelBuffer{W: w, H: h, src: img, pix: pix}
}

// Source returns the decoded image the buffer was built from.
func (p *PixelBuffer) Source() image.Image {
	return p.src
}

// SizeString formats the pixel dimensions as "WxH".
func (p *PixelBuffer) SizeString() string {
	return fmt.Sprintf("%dx%d", p.W, p.H)
}

// RGBAt returns the 8-bit channel values at (x, y).
func (p *PixelBuffer) RGBAt(x, y int) (r, g, b float64) {
	i := (y*p.W + x) * 3
	return float64(p.pix[i]), float64(p.pix[i+1]), float64(p.pix[i+2])
}

// Gray returns the shared grayscale plane. Callers must not modify it.
func (p *PixelBuffer) Gray() []float64 {
	p.grayOnce.Do(func() {
		p.gray = make([]float64, p.W*p.H)
		for i := range p.gray {
			r := float64(p.pix[i*3])
			g := float64(p.pix[i*3+1])
			b := float64(p.pix[i*3+2])
			p.gray[i] = math.Round(0.299*r + 0.587*g + 0.114*b)
		}
	})
	return p.gray
}

// HSV returns the shared hue, saturation and value planes. Callers
// must not modify them.
func (p *PixelBuffer) HSV() (hue, sat, val []float64) {
	p.hsvOnce.Do(func() {
		n := p.W * p.H
		p.hsvH = make([]float64, n)
		p.hsvS = make([]float64, n)
		p.hsvV = make([]float64, n)
		for i := 0; i < n; i++ {
			r := float64(p.pix[i*3])
			g := float64(p.pix[i*3+1])
			b := float64(p.pix[i*3+2])

			maxc := math.Max(r, math.Max(g, b))
			minc := math.Min(r, math.Min(g, b))
			delta := maxc - minc

			p.hsvV[i] = maxc
			if maxc > 0 {
				p.hsvS[i] = math.Round(255 * delta / maxc)
			}
			if delta > 0 {
				var h float64
				switch maxc {
				case r:
					h = 60 * (g - b) / delta
				case g:
					h = 120 + 60*(b-r)/delta
				default:
					h = 240 + 60*(r-g)/delta
				}
				if h < 0 {
					h += 360
				}
				p.hsvH[i] = h / 2 // 8-bit hue convention
			}
		}
	})
	return p.hsvH, p.hsvS, p.hsvV
}
