package raster

import "image"

// Components returns the bounding boxes of the 4-connected regions of p
// whose samples exceed threshold, in scan order of their first sample.
func Components(p *Plane, threshold float32) []image.Rectangle {
	visited := make([]bool, len(p.V))
	var boxes []image.Rectangle

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			i := y*p.Width + x
			if p.V[i] > threshold && !visited[i] {
				boxes = append(boxes, component(p, visited, x, y, threshold))
			}
		}
	}
	return boxes
}

func component(p *Plane, visited []bool, startX, startY int, threshold float32) image.Rectangle {
	box := image.Rect(startX, startY, startX+1, startY+1)
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pt.X < 0 || pt.X >= p.Width || pt.Y < 0 || pt.Y >= p.Height {
			continue
		}
		i := pt.Y*p.Width + pt.X
		if visited[i] || p.V[i] <= threshold {
			continue
		}
		visited[i] = true
		box = box.Union(image.Rect(pt.X, pt.Y, pt.X+1, pt.Y+1))

		stack = append(stack,
			image.Point{X: pt.X + 1, Y: pt.Y},
			image.Point{X: pt.X - 1, Y: pt.Y},
			image.Point{X: pt.X, Y: pt.Y + 1},
			image.Point{X: pt.X, Y: pt.Y - 1},
		)
	}
	return box
}
