// Package sim is a synthetic effects host: it spawns effect instances around
// moving viewers, simulates their particle emitters and reacts to scalability
// verdicts the way a game runtime would.
package sim

import "github.com/chewxy/math32"

// Vec3 is a world-space position.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v+o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v-o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v*s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Len returns Euclidean length.
func (v Vec3) Len() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns distance between two points.
func Distance(a, b Vec3) float32 {
	return a.Sub(b).Len()
}
