// Package wheel maps spin outcomes to wheel geometry. It is pure: callers
// own the frame loop and ask Rotation for the angle at each tick.
package wheel

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultTurns is the number of full rotations before landing.
	DefaultTurns = 5
	// DefaultDuration is the spin animation length.
	DefaultDuration = 4 * time.Second
	// pointerAngle is where the pointer sits, measured clockwise from 3 o'clock.
	pointerAngle = 270.0
)

// SegmentArc is the angular width of one of n equal segments, in degrees.
func SegmentArc(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 360 / float64(n)
}

// LandingAngle is the rotation in [0,360) that puts the middle of segment
// index under the pointer.
func LandingAngle(index, n int) float64 {
	arc := SegmentArc(n)
	center := float64(index)*arc + arc/2
	return math.Mod(pointerAngle-center+360, 360)
}

// TargetRotation is the total rotation for a spin: full turns plus the landing angle.
func TargetRotation(index, n, turns int) float64 {
	if turns < 0 {
		turns = 0
	}
	return 360*float64(turns) + LandingAngle(index, n)
}

// Rotation returns the wheel angle after elapsed, easing out cubically
// towards total over duration. It is clamped at total once elapsed >= duration.
func Rotation(elapsed, duration time.Duration, total float64) float64 {
	return Ease(Progress(elapsed, duration)) * total
}

// Progress is elapsed/duration clamped to [0,1].
func Progress(elapsed, duration time.Duration) float64 {
	if duration <= 0 || elapsed >= duration {
		return 1
	}
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(duration)
}

// Ease is the ease-out cubic curve.
func Ease(p float64) float64 {
	return 1 - math.Pow(1-p, 3)
}

// Done reports whether the spin animation has finished.
func Done(elapsed, duration time.Duration) bool {
	return Progress(elapsed, duration) >= 1
}

// JackpotLabel renders the jackpot segment text with the live pool.
func JackpotLabel(amount int64) string {
	return fmt.Sprintf("Jackpot: %d XD", amount)
}
