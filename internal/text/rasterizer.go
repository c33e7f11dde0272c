package text

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/framecomp/internal/frame"
)

// Rasterizer draws overlay text into a tightly sized straight-alpha frame.
type Rasterizer interface {
	RenderText(text string, style Style, state State) (*frame.Frame, error)
}

type faceKey struct {
	family string
	size   float64
}

// faceCacheSize bounds the faces kept across animated sizes.
const faceCacheSize = 64

// FontRasterizer renders with the Go font family. Fonts are parsed once;
// faces are built per quarter-point size and the most recent ones kept.
type FontRasterizer struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font
	faces *lru.Cache[faceKey, font.Face]
}

// NewFontRasterizer parses the embedded Go fonts.
func NewFontRasterizer() (*FontRasterizer, error) {
	faces, err := lru.New[faceKey, font.Face](faceCacheSize)
	if err != nil {
		return nil, err
	}
	r := &FontRasterizer{
		fonts: make(map[string]*opentype.Font, 3),
		faces: faces,
	}
	for name, ttf := range map[string][]byte{
		"regular": goregular.TTF,
		"bold":    gobold.TTF,
		"mono":    gomono.TTF,
	} {
		f, err := opentype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse %s font: %w", name, err)
		}
		r.fonts[name] = f
	}
	return r, nil
}

func (r *FontRasterizer) face(family string, bold bool, size float64) (font.Face, error) {
	if family == "" {
		family = "regular"
	}
	if bold && family == "regular" {
		family = "bold"
	}
	size = math.Round(size*4) / 4
	key := faceKey{family, size}

	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces.Get(key); ok {
		return f, nil
	}
	src, ok := r.fonts[family]
	if !ok {
		return nil, fmt.Errorf("unknown font family %q", family)
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	r.faces.Add(key, f)
	return f, nil
}

// RenderText draws text with stroke, shadow and background, applying the
// typewriter character count, the scale and the opacity from state.
func (r *FontRasterizer) RenderText(text string, style Style, state State) (*frame.Frame, error) {
	if state.Chars >= 0 {
		runes := []rune(text)
		if state.Chars < len(runes) {
			text = string(runes[:state.Chars])
		}
	}
	size := style.Size * state.Scale
	if strings.TrimSpace(text) == "" || size < 1 || state.Opacity <= 0 {
		return frame.New(0, 0), nil
	}

	face, err := r.face(style.FontFamily, style.Bold, size)
	if err != nil {
		return nil, err
	}

	// font.Face is not safe for concurrent use.
	r.mu.Lock()
	img := paint(face, text, style)
	r.mu.Unlock()

	f := frame.FromImage(img)
	f.ScaleAlpha(float32(state.Opacity))
	return f, nil
}

// paint lays out the lines and draws shadow, stroke and fill in that order.
func paint(face font.Face, text string, style Style) *image.NRGBA {
	lines := strings.Split(text, "\n")
	m := face.Metrics()
	spacing := style.LineSpacing
	if spacing <= 0 {
		spacing = 1.2
	}
	lineHeight := int(math.Ceil(float64(m.Height.Ceil()) * spacing))
	ascent := m.Ascent.Ceil()

	widths := make([]int, len(lines))
	blockW := 0
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line).Ceil()
		blockW = max(blockW, widths[i])
	}

	pad := style.StrokeWidth
	shX, shY := 0, 0
	if style.ShadowColor[3] > 0 {
		shX, shY = abs(style.ShadowOffset[0]), abs(style.ShadowOffset[1])
	}
	w := blockW + 2*pad + shX
	h := lineHeight*(len(lines)-1) + ascent + m.Descent.Ceil() + 2*pad + shY

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if style.Background[3] > 0 {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(nrgba(style.Background)), image.Point{}, draw.Src)
	}

	originX := pad
	originY := pad
	if style.ShadowOffset[0] < 0 {
		originX += shX
	}
	if style.ShadowOffset[1] < 0 {
		originY += shY
	}

	drawLines := func(c Color, dx, dy int) {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(nrgba(c)), Face: face}
		for i, line := range lines {
			x := originX + dx
			switch style.Align {
			case AlignCenter, "":
				x += (blockW - widths[i]) / 2
			case AlignRight:
				x += blockW - widths[i]
			}
			d.Dot = fixed.P(x, originY+dy+ascent+i*lineHeight)
			d.DrawString(line)
		}
	}

	if style.ShadowColor[3] > 0 {
		drawLines(style.ShadowColor, style.ShadowOffset[0], style.ShadowOffset[1])
	}
	if style.StrokeWidth > 0 && style.StrokeColor[3] > 0 {
		sw := style.StrokeWidth
		for dy := -sw; dy <= sw; dy++ {
			for dx := -sw; dx <= sw; dx++ {
				if dx*dx+dy*dy <= sw*sw && (dx != 0 || dy != 0) {
					drawLines(style.StrokeColor, dx, dy)
				}
			}
		}
	}
	drawLines(style.Color, 0, 0)
	return dst
}

func nrgba(c Color) color.NRGBA {
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
