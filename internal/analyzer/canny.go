package analyzer

import "math"

// cannyEdges runs a Canny edge detection pass and returns the boolean
// edge mask. Gradient magnitude uses the L1 norm; hysteresis links
// weak responses (>= low) that touch a strong response (>= high).
func cannyEdges(gray []float64, w, h int, low, high float64) []bool {
	gx, gy := sobelGradients(gray, w, h)

	mag := make([]float64, w*h)
	for i := range mag {
		mag[i] = math.Abs(gx[i]) + math.Abs(gy[i])
	}

	// Non-maximum suppression along the quantized gradient direction.
	thin := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if mag[i] == 0 {
				continue
			}
			angle := math.Atan2(gy[i], gx[i]) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			var dx, dy int
			switch {
			case angle < 22.5 || angle >= 157.5:
				dx, dy = 1, 0
			case angle < 67.5:
				dx, dy = 1, 1
			case angle < 112.5:
				dx, dy = 0, 1
			default:
				dx, dy = 1, -1
			}
			n1 := mag[reflect101(y+dy, h)*w+reflect101(x+dx, w)]
			n2 := mag[reflect101(y-dy, h)*w+reflect101(x-dx, w)]
			if mag[i] >= n1 && mag[i] >= n2 {
				thin[i] = mag[i]
			}
		}
	}

	// Double threshold plus hysteresis from the strong seeds.
	edges := make([]bool, w*h)
	stack := make([]int, 0, w*h/8)
	for i := range thin {
		if thin[i] >= high {
			edges[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if !edges[j] && thin[j] >= low {
					edges[j] = true
					stack = append(stack, j)
				}
			}
		}
	}
	return edges
}
