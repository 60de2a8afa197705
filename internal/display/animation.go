package display

import (
	"math"
	"time"
)

// Animation timings of a page flip.
const (
	DefaultFlipDuration = 1200 * time.Millisecond

	// Peak opacity of the shadow cast by the turning page.
	ShadowPeak = 0.5
)

// The shadow starts fading at 0.7s of a 1.2s flip and takes 0.5s; both are
// scaled with the flip duration.
const (
	shadowFadeStart = 0.7 / 1.2
	shadowFadeLen   = 0.5 / 1.2
)

type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "prev"
	}
	return "next"
}

// Hinge is the page edge the turning page rotates around.
type Hinge int

const (
	HingeLeft Hinge = iota
	HingeRight
)

func (h Hinge) String() string {
	if h == HingeRight {
		return "right center"
	}
	return "left center"
}

// Flip describes one page turn from page From to page To.
type Flip struct {
	From      int
	To        int
	Direction Direction
	Duration  time.Duration
	// Seq identifies the flip; pass it back to Controller.AnimationDone.
	Seq uint64
}

// Frame is the visual state of a flip at one instant. Rotations are in
// degrees around the vertical axis.
type Frame struct {
	Outgoing       float64
	Incoming       float64
	ShadowOpacity  float64
	ShadowRotation float64
	Done           bool
}

// Hinge is left when advancing and right when going back.
func (f Flip) Hinge() Hinge {
	if f.Direction == Backward {
		return HingeRight
	}
	return HingeLeft
}

// Frame returns the animation state elapsed into the flip. The outgoing page
// turns 0→-180° (forward) or 0→180° (backward) while the incoming page turns
// from the opposite side to 0°, both with cubic in-out easing. The shadow
// rises towards ShadowPeak, then fades out over the last part of the turn.
func (f Flip) Frame(elapsed time.Duration) Frame {
	p := 1.0
	if f.Duration > 0 {
		p = clamp01(float64(elapsed) / float64(f.Duration))
	}
	e := EaseInOutCubic(p)

	sign := -1.0
	if f.Direction == Backward {
		sign = 1.0
	}

	fr := Frame{
		Outgoing:       sign * 180 * e,
		Incoming:       -sign * 180 * (1 - e),
		ShadowRotation: sign * 90 * e,
		Done:           p >= 1,
	}

	if p < shadowFadeStart {
		fr.ShadowOpacity = ShadowPeak * e
	} else {
		from := ShadowPeak * EaseInOutCubic(shadowFadeStart)
		u := clamp01((p - shadowFadeStart) / shadowFadeLen)
		fr.ShadowOpacity = from * (1 - EaseOutQuad(u))
	}

	return fr
}

// EaseInOutCubic accelerates through the first half and decelerates
// through the second.
func EaseInOutCubic(p float64) float64 {
	if p < 0.5 {
		return 4 * p * p * p
	}
	return 1 - math.Pow(-2*p+2, 3)/2
}

func EaseOutQuad(p float64) float64 {
	return 1 - (1-p)*(1-p)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
