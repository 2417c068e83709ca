package sim

import "github.com/chewxy/math32"

// Viewer is a camera the effects are rendered for.
type Viewer struct {
	Pos      Vec3
	Vel      Vec3    // units per second
	ViewDist float32 // effects farther away are not rendered
}

// Scene holds the viewers of the simulated world.
type Scene struct {
	Viewers []Viewer
	Radius  float32 // viewers bounce inside this radius around the origin
}

// NearestDistance returns distance from p to the closest viewer.
// With no viewers every effect is infinitely far.
func (s *Scene) NearestDistance(p Vec3) float32 {
	best := math32.Inf(1)
	for i := range s.Viewers {
		if d := Distance(s.Viewers[i].Pos, p); d < best {
			best = d
		}
	}
	return best
}

// Visible reports whether any viewer renders point p.
func (s *Scene) Visible(p Vec3) bool {
	for i := range s.Viewers {
		if Distance(s.Viewers[i].Pos, p) <= s.Viewers[i].ViewDist {
			return true
		}
	}
	return false
}

// Move advances viewers and reflects them off the scene boundary.
func (s *Scene) Move(dt float32) {
	for i := range s.Viewers {
		v := &s.Viewers[i]
		v.Pos = v.Pos.Add(v.Vel.Scale(dt))
		if s.Radius > 0 && v.Pos.Len() > s.Radius {
			v.Vel = v.Vel.Scale(-1)
			v.Pos = v.Pos.Scale(s.Radius / v.Pos.Len())
		}
	}
}
