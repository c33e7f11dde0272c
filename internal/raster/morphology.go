package raster

// Dilate replaces every sample with the maximum of its (2*half+1)² neighborhood,
// repeated iterations times.
func Dilate(p *Plane, half, iterations int) *Plane {
	return morph(p, half, iterations, func(a, b float32) bool { return b > a })
}

// Erode replaces every sample with the minimum of its neighborhood.
func Erode(p *Plane, half, iterations int) *Plane {
	return morph(p, half, iterations, func(a, b float32) bool { return b < a })
}

// Open is erosion followed by dilation with a 3x3 element. Removes speckle.
func Open(p *Plane) *Plane {
	return Dilate(Erode(p, 1, 1), 1, 1)
}

// Close is dilation followed by erosion with a 3x3 element. Fills pinholes.
func Close(p *Plane) *Plane {
	return Erode(Dilate(p, 1, 1), 1, 1)
}

func morph(p *Plane, half, iterations int, better func(cur, cand float32) bool) *Plane {
	result := p.Clone()

	for iter := 0; iter < iterations; iter++ {
		temp := NewPlane(p.Width, p.Height)

		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				v := result.At(x, y)

				// Edge samples are replicated, so borders neither grow nor erode
				// from outside the plane.
				for ky := -half; ky <= half; ky++ {
					for kx := -half; kx <= half; kx++ {
						if c := result.At(x+kx, y+ky); better(v, c) {
							v = c
						}
					}
				}

				temp.Set(x, y, v)
			}
		}

		result = temp
	}

	return result
}
