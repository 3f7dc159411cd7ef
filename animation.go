package drift

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// easeOutCubic maps t in [0, 1] through an ease-out cubic.
func easeOutCubic(t float64) float64 {
	return float64(ease.OutCubic(float32(t), 0, 1, 1))
}

// easeInCubic maps t in [0, 1] through an ease-in cubic.
func easeInCubic(t float64) float64 {
	return float64(ease.InCubic(float32(t), 0, 1, 1))
}

// Fade animates an opacity toward a target at a constant rate in units per
// second. Retargeting mid-flight starts a new tween from the current value.
//
// There is no global animation manager; owners call Update themselves.
type Fade struct {
	value  float64
	target float64
	speed  float64
	tween  *gween.Tween
}

// NewFade returns a Fade resting at initial.
func NewFade(initial, speed float64) *Fade {
	return &Fade{value: initial, target: initial, speed: speed}
}

// To retargets the fade. A no-op when already heading to target.
func (f *Fade) To(target float64) {
	if target == f.target && (f.tween != nil || f.value == target) {
		return
	}
	f.target = target
	dist := math.Abs(target - f.value)
	if dist == 0 || f.speed <= 0 {
		f.value = target
		f.tween = nil
		return
	}
	f.tween = gween.New(float32(f.value), float32(target), float32(dist/f.speed), ease.Linear)
}

// Update advances the fade by dt seconds and reports whether the value changed.
func (f *Fade) Update(dt float64) bool {
	if f.tween == nil {
		return false
	}
	val, finished := f.tween.Update(float32(dt))
	prev := f.value
	f.value = float64(val)
	if finished {
		f.value = f.target
		f.tween = nil
	}
	return f.value != prev
}

// Value returns the current opacity.
func (f *Fade) Value() float64 { return f.value }

// Target returns the opacity being faded toward.
func (f *Fade) Target() float64 { return f.target }

// Done reports whether the fade has reached its target.
func (f *Fade) Done() bool { return f.tween == nil }
