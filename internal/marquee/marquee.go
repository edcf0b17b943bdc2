// Package marquee implements the horizontally scrolling strip of status
// segments. It works in terminal cells and knows nothing about drawing; the
// caller renders Visible() and drives Tick() from its own loop.
package marquee

import (
	"math"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/status-ticker/internal/mailbox"
	"github.com/marcin-skalski/status-ticker/internal/status"
)

type Kind int

const (
	KindSegment Kind = iota
	KindSeparator
)

type State int

const (
	StateEmpty State = iota
	StateScrolling
)

func (s State) String() string {
	if s == StateEmpty {
		return "empty"
	}
	return "scrolling"
}

// Item is a laid-out piece of the strip. Segment items keep the segment they
// were built from so a repeat pass never has to infer it from presentation.
type Item struct {
	Kind    Kind
	Segment status.Segment
	Text    string
	X       int
	Width   int
}

// Right is the last column the item occupies.
func (i Item) Right() int {
	return i.X + i.Width - 1
}

type Options struct {
	Separator string
	Speed     int
	Gap       int
}

type Marquee struct {
	pending   *mailbox.Slot[[]status.Segment]
	separator string
	speed     int
	gap       int

	width int
	items []Item
	shown []status.Segment
}

func New(pending *mailbox.Slot[[]status.Segment], opts Options) *Marquee {
	if opts.Speed < 1 {
		opts.Speed = 1
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	}
	return &Marquee{
		pending:   pending,
		separator: opts.Separator,
		speed:     opts.Speed,
		gap:       opts.Gap,
		width:     1,
	}
}

// Resize sets the visible width in cells. Items already on screen keep their
// positions.
func (m *Marquee) Resize(width int) {
	m.width = max(width, 1)
}

func (m *Marquee) Width() int {
	return m.width
}

func (m *Marquee) State() State {
	if len(m.items) == 0 {
		return StateEmpty
	}
	return StateScrolling
}

func (m *Marquee) Items() []Item {
	return m.items
}

// Segments returns the sequence currently on screen.
func (m *Marquee) Segments() []status.Segment {
	return m.shown
}

// Layout replaces everything on screen with segs, placed left to right just
// past the right edge with a separator between consecutive segments.
func (m *Marquee) Layout(segs []status.Segment) {
	m.items = make([]Item, 0, 2*len(segs))
	m.shown = segs

	x := m.width
	sepWidth := runewidth.StringWidth(m.separator)
	for i, seg := range segs {
		if i > 0 && sepWidth > 0 {
			m.items = append(m.items, Item{Kind: KindSeparator, Text: m.separator, X: x, Width: sepWidth})
			x += sepWidth + m.gap
		}
		w := runewidth.StringWidth(seg.Text)
		m.items = append(m.items, Item{Kind: KindSegment, Segment: seg, Text: seg.Text, X: x, Width: w})
		x += w + m.gap
	}
}

// ApplyIfEmpty lays out a pending sequence when nothing is on screen. It is
// the bootstrap path so the bar is not left blank until a loop boundary.
func (m *Marquee) ApplyIfEmpty() bool {
	if len(m.items) > 0 {
		return false
	}
	segs, ok := m.pending.Take()
	if !ok {
		return false
	}
	m.Layout(segs)
	return true
}

// Tick advances every item left by the configured speed. When the whole
// strip has left the screen it swaps in the pending sequence, or repeats the
// current one, and reports true.
func (m *Marquee) Tick() bool {
	if len(m.items) == 0 {
		m.ApplyIfEmpty()
		return false
	}

	rightmost := math.MinInt
	for i := range m.items {
		m.items[i].X -= m.speed
		rightmost = max(rightmost, m.items[i].Right())
	}
	if rightmost >= 0 {
		return false
	}

	if segs, ok := m.pending.Take(); ok {
		m.Layout(segs)
	} else {
		m.Layout(m.shown)
	}
	return true
}

// ItemAt returns the item covering column col.
func (m *Marquee) ItemAt(col int) (Item, bool) {
	i := m.ItemIndexAt(col)
	if i < 0 {
		return Item{}, false
	}
	return m.items[i], true
}

// ItemIndexAt is ItemAt returning the index into Items, or -1.
func (m *Marquee) ItemIndexAt(col int) int {
	for i, it := range m.items {
		if col >= it.X && col <= it.Right() {
			return i
		}
	}
	return -1
}
