// Package project persists timelines as YAML documents and builds slideshow
// projects from page or image sequences.
package project

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ivlev/framecomp/internal/chroma"
	"github.com/ivlev/framecomp/internal/effects"
	"github.com/ivlev/framecomp/internal/errdefs"
	"github.com/ivlev/framecomp/internal/keyframe"
	"github.com/ivlev/framecomp/internal/text"
	"github.com/ivlev/framecomp/internal/timeline"
	"github.com/ivlev/framecomp/internal/transition"
)

// FormatVersion is written into every document.
const FormatVersion = "1"

// Canvas is the output geometry of a project.
type Canvas struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

// Validate reports a canvas that cannot be rendered.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", errdefs.ErrValidation, c.Width, c.Height)
	}
	if !(c.FPS > 0) {
		return fmt.Errorf("%w: canvas fps %v", errdefs.ErrValidation, c.FPS)
	}
	return nil
}

// Document is the serialized form of a project.
type Document struct {
	Version     string          `yaml:"version"`
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name,omitempty"`
	Canvas      Canvas          `yaml:"canvas"`
	Tracks      []TrackDoc      `yaml:"tracks,omitempty"`
	Clips       []ClipDoc       `yaml:"clips"`
	Overlays    []OverlayDoc    `yaml:"overlays,omitempty"`
	Transitions []TransitionDoc `yaml:"transitions,omitempty"`
}

type TrackDoc struct {
	Index  int    `yaml:"index"`
	Name   string `yaml:"name,omitempty"`
	Locked bool   `yaml:"locked,omitempty"`
	Hidden bool   `yaml:"hidden,omitempty"`
}

// ClipDoc identifies clips by a document-local ID; the timeline assigns
// fresh IDs on load.
type ClipDoc struct {
	ID        uint64                                    `yaml:"id"`
	Track     int                                       `yaml:"track"`
	Start     float64                                   `yaml:"start"`
	Duration  float64                                   `yaml:"duration"`
	TrimIn    float64                                   `yaml:"trim_in,omitempty"`
	Source    string                                    `yaml:"source"`
	Effects   []effects.Instance                        `yaml:"effects,omitempty"`
	Chroma    *chroma.Params                            `yaml:"chroma,omitempty"`
	Keyframes map[keyframe.Property][]keyframe.Keyframe `yaml:"keyframes,omitempty"`
}

type OverlayDoc struct {
	Text      string                                    `yaml:"text"`
	Start     float64                                   `yaml:"start"`
	Duration  float64                                   `yaml:"duration"`
	Style     text.Style                                `yaml:"style"`
	Animation text.Animation                            `yaml:"animation"`
	Position  *[2]float64                               `yaml:"position,omitempty"`
	Keyframes map[keyframe.Property][]keyframe.Keyframe `yaml:"keyframes,omitempty"`
}

type TransitionDoc struct {
	From     uint64          `yaml:"from"`
	To       uint64          `yaml:"to"`
	Kind     transition.Kind `yaml:"kind"`
	Duration float64         `yaml:"duration"`
}

// Project is a timeline together with its identity and output canvas.
type Project struct {
	ID       uuid.UUID
	Name     string
	Canvas   Canvas
	Timeline *timeline.Timeline
}

// New returns an empty project.
func New(name string, canvas Canvas, opts ...timeline.Option) (*Project, error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	return &Project{
		ID:       uuid.New(),
		Name:     name,
		Canvas:   canvas,
		Timeline: timeline.New(opts...),
	}, nil
}

// Document captures the current timeline state.
func (p *Project) Document() *Document {
	st := p.Timeline.State()
	doc := &Document{
		Version: FormatVersion,
		ID:      p.ID.String(),
		Name:    p.Name,
		Canvas:  p.Canvas,
	}
	for _, tr := range st.Tracks {
		doc.Tracks = append(doc.Tracks, TrackDoc{Index: tr.Index, Name: tr.Name, Locked: tr.Locked, Hidden: tr.Hidden})
	}
	for _, c := range st.Clips {
		doc.Clips = append(doc.Clips, ClipDoc{
			ID:        uint64(c.ID),
			Track:     c.Track,
			Start:     c.Start,
			Duration:  c.Duration,
			TrimIn:    c.TrimIn,
			Source:    c.Source,
			Effects:   []effects.Instance(c.Effects),
			Chroma:    c.Chroma,
			Keyframes: keyframesDoc(c.Keyframes),
		})
	}
	for _, o := range st.Overlays {
		doc.Overlays = append(doc.Overlays, OverlayDoc{
			Text:      o.Text,
			Start:     o.Start,
			Duration:  o.Duration,
			Style:     o.Style,
			Animation: o.Animation,
			Position:  o.Position,
			Keyframes: keyframesDoc(o.Keyframes),
		})
	}
	for _, tr := range st.Transitions {
		doc.Transitions = append(doc.Transitions, TransitionDoc{
			From:     uint64(tr.From),
			To:       uint64(tr.To),
			Kind:     tr.Kind,
			Duration: tr.Duration,
		})
	}
	return doc
}

func keyframesDoc(m map[keyframe.Property]*keyframe.Track) map[keyframe.Property][]keyframe.Keyframe {
	if len(m) == 0 {
		return nil
	}
	out := make(map[keyframe.Property][]keyframe.Keyframe, len(m))
	for p, tr := range m {
		if tr.Len() > 0 {
			out[p] = tr.Keyframes()
		}
	}
	return out
}

// Build replays doc onto a fresh timeline through the public edit
// operations, so every placement invariant is checked again. Transitions are
// restored as saved, inert ones included. Track flags are applied last
// because locked tracks refuse placements.
func Build(doc *Document, opts ...timeline.Option) (*Project, error) {
	if err := doc.Canvas.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	if doc.ID != "" {
		parsed, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: project id %q: %v", errdefs.ErrValidation, doc.ID, err)
		}
		id = parsed
	}

	tl := timeline.New(opts...)
	ids := make(map[uint64]timeline.ClipID, len(doc.Clips))
	for _, cd := range doc.Clips {
		if _, dup := ids[cd.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate clip id %d", errdefs.ErrValidation, cd.ID)
		}
		cid, err := tl.PlaceClip(cd.Track, cd.Source, cd.Start, cd.Duration, cd.TrimIn)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", cd.ID, err)
		}
		ids[cd.ID] = cid
		if err := decorate(tl, cid, cd); err != nil {
			return nil, fmt.Errorf("clip %d: %w", cd.ID, err)
		}
	}

	for _, td := range doc.Transitions {
		from, ok := ids[td.From]
		if !ok {
			return nil, fmt.Errorf("%w: transition from unknown clip %d", errdefs.ErrNotFound, td.From)
		}
		to, ok := ids[td.To]
		if !ok {
			return nil, fmt.Errorf("%w: transition to unknown clip %d", errdefs.ErrNotFound, td.To)
		}
		if err := tl.RestoreTransition(from, to, td.Kind, td.Duration); err != nil {
			return nil, fmt.Errorf("transition %d->%d: %w", td.From, td.To, err)
		}
	}

	for i, od := range doc.Overlays {
		o := timeline.Overlay{
			Text:      od.Text,
			Start:     od.Start,
			Duration:  od.Duration,
			Style:     od.Style,
			Animation: od.Animation,
			Position:  od.Position,
		}
		oid, err := tl.AddOverlay(o)
		if err != nil {
			return nil, fmt.Errorf("overlay %d: %w", i, err)
		}
		for _, p := range sortedProperties(od.Keyframes) {
			for _, k := range od.Keyframes[p] {
				if err := tl.SetOverlayKeyframe(oid, p, k.Time, k.Value); err != nil {
					return nil, fmt.Errorf("overlay %d: %w", i, err)
				}
			}
		}
	}

	for _, td := range doc.Tracks {
		if td.Name != "" {
			if err := tl.SetTrackName(td.Index, td.Name); err != nil {
				return nil, err
			}
		}
		if td.Hidden {
			if err := tl.SetTrackHidden(td.Index, true); err != nil {
				return nil, err
			}
		}
		if td.Locked {
			if err := tl.LockTrack(td.Index); err != nil {
				return nil, err
			}
		}
	}

	return &Project{ID: id, Name: doc.Name, Canvas: doc.Canvas, Timeline: tl}, nil
}

func decorate(tl *timeline.Timeline, id timeline.ClipID, cd ClipDoc) error {
	for _, e := range cd.Effects {
		if _, err := tl.AddEffect(id, e.Kind, e.Params); err != nil {
			return err
		}
	}
	if cd.Chroma != nil {
		if err := tl.SetChromaKey(id, cd.Chroma); err != nil {
			return err
		}
	}
	for _, p := range sortedProperties(cd.Keyframes) {
		for _, k := range cd.Keyframes[p] {
			if err := tl.SetKeyframe(id, p, k.Time, k.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedProperties(m map[keyframe.Property][]keyframe.Keyframe) []keyframe.Property {
	props := make([]keyframe.Property, 0, len(m))
	for p := range m {
		props = append(props, p)
	}
	sort.Slice(props, func(i, j int) bool { return props[i] < props[j] })
	return props
}
