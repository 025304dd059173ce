package analyzer

import "math"

// Border handling mirrors interior pixels without repeating the edge
// sample (OpenCV's BORDER_REFLECT_101).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// gaussianKernel builds a normalized 1-D Gaussian kernel. A sigma of
// zero derives the width from the kernel size the way OpenCV does.
func gaussianKernel(ksize int, sigma float64) []float64 {
	if sigma <= 0 {
		sigma = 0.3*(float64(ksize-1)*0.5-1) + 0.8
	}
	k := make([]float64, ksize)
	mid := float64(ksize-1) / 2
	sum := 0.0
	for i := range k {
		d := float64(i) - mid
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// sepConvolve applies the 1-D kernel horizontally then vertically.
func sepConvolve(src []float64, w, h int, k []float64) []float64 {
	half := len(k) / 2
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				acc += kv * src[row+reflect101(x+i-half, w)]
			}
			tmp[row+x] = acc
		}
	}
	dst := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				acc += kv * tmp[reflect101(y+i-half, h)*w+x]
			}
			dst[y*w+x] = acc
		}
	}
	return dst
}

// gaussianBlur smooths src with a ksize×ksize Gaussian.
func gaussianBlur(src []float64, w, h, ksize int, sigma float64) []float64 {
	return sepConvolve(src, w, h, gaussianKernel(ksize, sigma))
}

// sobelGradients computes the 3×3 Sobel responses over the full plane.
func sobelGradients(src []float64, w, h int) (gx, gy []float64) {
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)
	at := func(x, y int) float64 {
		return src[reflect101(y, h)*w+reflect101(x, w)]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, tc, tr := at(x-1, y-1), at(x, y-1), at(x+1, y-1)
			ml, mr := at(x-1, y), at(x+1, y)
			bl, bc, br := at(x-1, y+1), at(x, y+1), at(x+1, y+1)

			i := y*w + x
			gx[i] = (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy[i] = (bl + 2*bc + br) - (tl + 2*tc + tr)
		}
	}
	return gx, gy
}

// laplacianPlane applies the 4-neighbor Laplacian over the full plane.
func laplacianPlane(src []float64, w, h int) []float64 {
	dst := make([]float64, w*h)
	at := func(x, y int) float64 {
		return src[reflect101(y, h)*w+reflect101(x, w)]
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst[y*w+x] = at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*at(x, y)
		}
	}
	return dst
}
