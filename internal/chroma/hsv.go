package chroma

import "math"

// hsv holds hue in degrees [0, 360) and saturation and value in [0, 1].
type hsv struct {
	h, s, v float32
}

func toHSV(r, g, b float32) hsv {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	d := maxC - minC

	out := hsv{v: maxC}
	if maxC > 0 {
		out.s = d / maxC
	}
	if d == 0 {
		return out
	}

	switch maxC {
	case r:
		out.h = 60 * (g - b) / d
	case g:
		out.h = 60*(b-r)/d + 120
	default:
		out.h = 60*(r-g)/d + 240
	}
	if out.h < 0 {
		out.h += 360
	}
	return out
}

func fromHSV(c hsv) (r, g, b float32) {
	if c.s == 0 {
		return c.v, c.v, c.v
	}
	h := c.h / 60
	i := int(math.Floor(float64(h))) % 6
	f := h - float32(math.Floor(float64(h)))
	p := c.v * (1 - c.s)
	q := c.v * (1 - c.s*f)
	t := c.v * (1 - c.s*(1-f))

	switch i {
	case 0:
		return c.v, t, p
	case 1:
		return q, c.v, p
	case 2:
		return p, c.v, t
	case 3:
		return p, q, c.v
	case 4:
		return t, p, c.v
	default:
		return c.v, p, q
	}
}

// hueDistance is the circular distance between two hues in degrees.
func hueDistance(a, b float32) float32 {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}
