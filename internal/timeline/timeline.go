// Package timeline owns tracks, clips, overlays and transitions and enforces
// placement invariants.
//
// Clips live in an arena addressed by ClipID; each track keeps the IDs of
// its clips sorted by start. Clips on one track never overlap on
// [start, start+duration). Every successful mutation bumps a monotonic
// version used by the renderer cache. Mutations are exclusive; reads share
// the lock and return deep copies.
package timeline

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/framecomp/internal/errdefs"
)

// MaxTracks bounds track indices.
const MaxTracks = 1024

// Bounder reports the usable time range of a source reference.
// source.Accessor satisfies it.
type Bounder interface {
	Bounds(ref string) (min, max float64, err error)
}

type track struct {
	name   string
	locked bool
	hidden bool
	clips  []ClipID // sorted by start
}

// TrackInfo is a read-only view of a track.
type TrackInfo struct {
	Index  int
	Name   string
	Locked bool
	Hidden bool
	Clips  []ClipID
}

// Option configures a Timeline.
type Option func(*Timeline)

// WithBounds validates trims against source bounds reported by b.
func WithBounds(b Bounder) Option {
	return func(tl *Timeline) { tl.bounds = b }
}

// WithLogger sets the logger used for edit diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(tl *Timeline) { tl.log = l }
}

// Timeline is safe for concurrent use.
type Timeline struct {
	mu sync.RWMutex

	clips       map[ClipID]*Clip
	tracks      map[int]*track
	overlays    map[OverlayID]*Overlay
	transitions map[ClipID]*Transition // keyed by outgoing clip

	nextClip    ClipID
	nextOverlay OverlayID
	version     uint64

	bounds Bounder
	log    logrus.FieldLogger
}

// New returns an empty timeline.
func New(opts ...Option) *Timeline {
	tl := &Timeline{
		clips:       make(map[ClipID]*Clip),
		tracks:      make(map[int]*track),
		overlays:    make(map[OverlayID]*Overlay),
		transitions: make(map[ClipID]*Transition),
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// bump records a successful mutation. Callers hold the write lock.
func (tl *Timeline) bump() { tl.version++ }

// Version returns the mutation counter.
func (tl *Timeline) Version() uint64 {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.version
}

// Duration is the latest end over all clips and overlays, 0 when empty.
func (tl *Timeline) Duration() float64 {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.duration()
}

func (tl *Timeline) duration() float64 {
	var d float64
	for _, c := range tl.clips {
		d = math.Max(d, c.End())
	}
	for _, o := range tl.overlays {
		d = math.Max(d, o.End())
	}
	return d
}

// Clip returns a snapshot of one clip.
func (tl *Timeline) Clip(id ClipID) (*Clip, error) {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	c, err := tl.clip(id)
	if err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

func (tl *Timeline) clip(id ClipID) (*Clip, error) {
	c, ok := tl.clips[id]
	if !ok {
		return nil, fmt.Errorf("%w: clip %d", errdefs.ErrNotFound, id)
	}
	return c, nil
}

// trackIndices returns the populated track indices in ascending z-order.
func (tl *Timeline) trackIndices() []int {
	idx := make([]int, 0, len(tl.tracks))
	for i := range tl.tracks {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Tracks describes every track that has been used or configured.
func (tl *Timeline) Tracks() []TrackInfo {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.trackInfos()
}

func (tl *Timeline) trackInfos() []TrackInfo {
	out := make([]TrackInfo, 0, len(tl.tracks))
	for _, i := range tl.trackIndices() {
		tr := tl.tracks[i]
		out = append(out, TrackInfo{
			Index:  i,
			Name:   tr.name,
			Locked: tr.locked,
			Hidden: tr.hidden,
			Clips:  append([]ClipID(nil), tr.clips...),
		})
	}
	return out
}

// activeOn returns the clip of tr containing t, if any. Binary search over
// start-sorted clips: the only candidate is the last clip starting at or
// before t.
func (tl *Timeline) activeOn(tr *track, t float64) *Clip {
	i := sort.Search(len(tr.clips), func(i int) bool {
		return tl.clips[tr.clips[i]].Start > t
	})
	if i == 0 {
		return nil
	}
	if c := tl.clips[tr.clips[i-1]]; c.Contains(t) {
		return c
	}
	return nil
}

// ActiveClipsAt returns snapshots of the clips containing t in ascending
// track order. Hidden tracks are skipped. Each track contributes at most one
// clip.
func (tl *Timeline) ActiveClipsAt(t float64) []*Clip {
	tl.mu.RLock()
	defer tl.mu.RUnlock()
	return tl.activeClipsAt(t)
}

func (tl *Timeline) activeClipsAt(t float64) []*Clip {
	var out []*Clip
	for _, i := range tl.trackIndices() {
		tr := tl.tracks[i]
		if tr.hidden {
			continue
		}
		if c := tl.activeOn(tr, t); c != nil {
			out = append(out, c.Clone())
		}
	}
	return out
}

// ClipsInRange returns snapshots of clips intersecting [from, to), ordered by
// track then start.
func (tl *Timeline) ClipsInRange(from, to float64) []*Clip {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	var out []*Clip
	for _, i := range tl.trackIndices() {
		for _, id := range tl.tracks[i].clips {
			c := tl.clips[id]
			if overlaps(c.Start, c.End(), from, to) {
				out = append(out, c.Clone())
			}
		}
	}
	return out
}

// Gap is an empty interval on a track.
type Gap struct {
	Start, End float64
}

// FindGaps lists the empty intervals between clips of a track, from 0 to the
// end of its last clip.
func (tl *Timeline) FindGaps(trackIndex int) []Gap {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	tr, ok := tl.tracks[trackIndex]
	if !ok {
		return nil
	}
	var gaps []Gap
	cursor := 0.0
	for _, id := range tr.clips {
		c := tl.clips[id]
		if c.Start > cursor {
			gaps = append(gaps, Gap{Start: cursor, End: c.Start})
		}
		cursor = math.Max(cursor, c.End())
	}
	return gaps
}

// Scene is a consistent view of everything needed to render time t.
type Scene struct {
	Version     uint64
	Duration    float64
	Clips       []*Clip
	Transitions []ActiveTransition
	Overlays    []*Overlay
}

// Snapshot captures the scene at t under a single read lock.
func (tl *Timeline) Snapshot(t float64) Scene {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	return Scene{
		Version:     tl.version,
		Duration:    tl.duration(),
		Clips:       tl.activeClipsAt(t),
		Transitions: tl.transitionsAt(t),
		Overlays:    tl.overlaysWhere(func(o *Overlay) bool { return o.Contains(t) }),
	}
}

func (tl *Timeline) overlaysWhere(keep func(*Overlay) bool) []*Overlay {
	ids := make([]OverlayID, 0, len(tl.overlays))
	for id, o := range tl.overlays {
		if keep(o) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*Overlay, len(ids))
	for i, id := range ids {
		out[i] = tl.overlays[id].Clone()
	}
	return out
}

// State is a complete copy of the timeline contents.
type State struct {
	Version     uint64
	Tracks      []TrackInfo
	Clips       []*Clip // by track, then start
	Overlays    []*Overlay
	Transitions []Transition
}

// State copies everything under one read lock, for persistence and
// inspection.
func (tl *Timeline) State() State {
	tl.mu.RLock()
	defer tl.mu.RUnlock()

	st := State{
		Version:     tl.version,
		Tracks:      tl.trackInfos(),
		Overlays:    tl.overlaysWhere(func(*Overlay) bool { return true }),
		Transitions: tl.transitionList(),
	}
	for _, i := range tl.trackIndices() {
		for _, id := range tl.tracks[i].clips {
			st.Clips = append(st.Clips, tl.clips[id].Clone())
		}
	}
	return st
}
