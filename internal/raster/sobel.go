package raster

import "math"

// Sobel kernels
var (
	sobelX = [3][3]float32{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float32{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// Gradient returns the Sobel gradient magnitude of p. Input is expected in
// [0,1]; the magnitude is scaled to the 8-bit range so thresholds match the
// conventional Canny values.
func Gradient(p *Plane) *Plane {
	mag := NewPlane(p.Width, p.Height)

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var sumX, sumY float32

			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := p.At(x+kx, y+ky) * 255
					sumX += v * sobelX[ky+1][kx+1]
					sumY += v * sobelY[ky+1][kx+1]
				}
			}

			mag.Set(x, y, float32(math.Sqrt(float64(sumX*sumX+sumY*sumY))))
		}
	}

	return mag
}

// Hysteresis marks samples at or above high as edges, plus every sample at or
// above low that is 8-connected to one. The result is binary (0 or 1).
func Hysteresis(mag *Plane, low, high float32) *Plane {
	if low > high {
		low, high = high, low
	}
	edges := NewPlane(mag.Width, mag.Height)

	for y := 0; y < mag.Height; y++ {
		for x := 0; x < mag.Width; x++ {
			if mag.V[y*mag.Width+x] >= high && edges.V[y*mag.Width+x] == 0 {
				floodFill(mag, edges, x, y, low)
			}
		}
	}

	return edges
}

// floodFill grows an edge from a strong seed through weak samples.
func floodFill(mag, edges *Plane, startX, startY int, low float32) {
	type point struct{ x, y int }
	stack := []point{{startX, startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.x < 0 || p.x >= mag.Width || p.y < 0 || p.y >= mag.Height {
			continue
		}
		i := p.y*mag.Width + p.x
		if edges.V[i] != 0 || mag.V[i] < low {
			continue
		}
		edges.V[i] = 1

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					stack = append(stack, point{p.x + dx, p.y + dy})
				}
			}
		}
	}
}
