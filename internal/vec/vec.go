// Package vec provides the 2D vector arithmetic used by the simulation.
package vec

import "math"

// Vec2 is a point or direction in world units.
type Vec2 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

func New(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Len returns the magnitude of v.
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalize returns v scaled to unit length. The zero vector stays zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return Vec2{v.X / l, v.Y / l}
}

// Dist returns the euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 { return v.Sub(o).Len() }

// MoveToward steps v toward target by at most step units along the straight
// line. It does not stop at the target; callers own the arrival threshold.
func (v Vec2) MoveToward(target Vec2, step float64) Vec2 {
	return v.Add(target.Sub(v).Normalize().Scale(step))
}
