package renderer

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/frame"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
)

// stampOverlay draws o onto the premultiplied canvas. The overlay anchor is
// its Position in canvas fractions (the center when unset), moved by the
// position keyframes in pixels and by the slide animation. Keyframed scale is uniform and uses
// the x component.
func (r *Renderer) stampOverlay(canvas *frame.Frame, o *timeline.Overlay, t float64, log logrus.FieldLogger) {
	local := t - o.Start
	st := text.Animate(o.Animation, local, o.Duration, len([]rune(o.Text)))
	st.Opacity *= o.Eval(keyframe.Opacity, t)[0]
	st.Scale *= o.Eval(keyframe.Scale, t)[0]

	img, err := r.text.RenderText(o.Text, o.Style, st)
	if err != nil {
		log.WithFields(logrus.Fields{"overlay": o.ID, "error": err}).Warn("text rendering failed")
		return
	}
	if img.Width == 0 || img.Height == 0 {
		return
	}

	w, h := float64(canvas.Width), float64(canvas.Height)
	anchor := o.Anchor()
	pos := o.Eval(keyframe.Position, t)
	cx := anchor[0]*w + pos[0] + st.OffsetX*w
	cy := anchor[1]*h + pos[1] + st.OffsetY*h

	dx := int(math.Round(cx - float64(img.Width)/2))
	dy := int(math.Round(cy - float64(img.Height)/2))
	frame.OverAt(canvas, img, dx, dy)
}
