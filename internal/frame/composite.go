package frame

// Over composites a straight-alpha layer onto a premultiplied canvas of the
// same size with the over operator:
//
//	out = src*srcA + dst*(1-srcA)
//	outA = srcA + dstA*(1-srcA)
func Over(canvas, layer *Frame) {
	OverAt(canvas, layer, 0, 0)
}

// OverAt composites layer with its top-left corner at (dx, dy). Pixels that
// fall outside the canvas are clipped.
func OverAt(canvas, layer *Frame, dx, dy int) {
	for y := 0; y < layer.Height; y++ {
		cy := y + dy
		if cy < 0 || cy >= canvas.Height {
			continue
		}
		for x := 0; x < layer.Width; x++ {
			cx := x + dx
			if cx < 0 || cx >= canvas.Width {
				continue
			}
			s := layer.Offset(x, y)
			a := layer.Pix[s+3]
			if a <= 0 {
				continue
			}
			d := canvas.Offset(cx, cy)
			inv := 1 - a
			canvas.Pix[d] = layer.Pix[s]*a + canvas.Pix[d]*inv
			canvas.Pix[d+1] = layer.Pix[s+1]*a + canvas.Pix[d+1]*inv
			canvas.Pix[d+2] = layer.Pix[s+2]*a + canvas.Pix[d+2]*inv
			canvas.Pix[d+3] = a + canvas.Pix[d+3]*inv
		}
	}
}

// OverStraight composites src onto dst where both carry straight alpha, and
// returns a new straight-alpha frame. Used by transitions that stack two
// layers before they reach the canvas.
func OverStraight(dst, src *Frame) *Frame {
	out := New(dst.Width, dst.Height)
	for i := 0; i < len(out.Pix); i += 4 {
		sa := src.Pix[i+3]
		da := dst.Pix[i+3]
		oa := sa + da*(1-sa)
		if oa <= 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = (src.Pix[i+c]*sa + dst.Pix[i+c]*da*(1-sa)) / oa
		}
		out.Pix[i+3] = oa
	}
	return out
}

// Lerp blends two same-sized frames channel by channel: a*(1-t) + b*t.
func Lerp(a, b *Frame, t float32) *Frame {
	out := New(a.Width, a.Height)
	wa := 1 - t
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i]*wa + b.Pix[i]*t
	}
	return out
}
