package sim

import (
	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/scalability"
)

// EffectState is the lifecycle state of a simulated effect.
type EffectState int32

const (
	// EffectActive - emitters spawn particles
	EffectActive EffectState = iota
	// EffectCulled - stopped by scalability, may resume
	EffectCulled
	// EffectCompleting - lifetime over, live particles finish
	EffectCompleting
	// EffectDead - nothing left to simulate, owner must unregister
	EffectDead
)

// String returns human-readable state name
func (s EffectState) String() string {
	switch s {
	case EffectActive:
		return "ACTIVE"
	case EffectCulled:
		return "CULLED"
	case EffectCompleting:
		return "COMPLETING"
	case EffectDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Effect is one simulated effect instance. Implements model.EffectInstance.
type Effect struct {
	effectType string
	system     string
	pos        Vec3
	scene      *Scene
	emitters   []*Emitter

	lifetime      float32
	age           float32
	sinceRendered float32
	noScale       bool

	state      EffectState
	resumable  bool // last cull reaction allows Resume
	handle     scalability.Handle
	registered bool
}

// NewEffect creates active effect of a system at pos.
func NewEffect(effectType, system string, pos Vec3, scene *Scene, lifetime float32, emitters []*Emitter) *Effect {
	return &Effect{
		effectType: effectType,
		system:     system,
		pos:        pos,
		scene:      scene,
		emitters:   emitters,
		lifetime:   lifetime,
	}
}

func (e *Effect) EffectTypeName() string { return e.effectType }
func (e *Effect) SystemKey() string      { return e.system }
func (e *Effect) AllowScalability() bool { return !e.noScale }

// DistanceToViewer returns distance to the nearest viewer of the scene.
func (e *Effect) DistanceToViewer() float32 { return e.scene.NearestDistance(e.pos) }

// Age returns seconds since the effect was spawned.
func (e *Effect) Age() float32 { return e.age }

// TimeSinceRendered returns seconds since a viewer last saw a live particle.
func (e *Effect) TimeSinceRendered() float32 { return e.sinceRendered }

// ApplyCullReaction stops spawning; immediate reactions also kill live particles.
// A non-resumable cull ends the effect once its particles are gone.
func (e *Effect) ApplyCullReaction(r model.OverflowReaction) {
	if e.state == EffectDead {
		return
	}
	e.state = EffectCulled
	e.resumable = r.Resumable()
	if r.Immediate() {
		for _, em := range e.emitters {
			em.Clear()
		}
	}
}

// Resume restarts spawning after a resumable cull.
func (e *Effect) Resume() {
	if e.state == EffectCulled && e.resumable {
		e.state = EffectActive
	}
}

// SetAllowScalability opts the effect in or out of culling. Takes effect on
// the next registration.
func (e *Effect) SetAllowScalability(allow bool) { e.noScale = !allow }

// State returns the lifecycle state.
func (e *Effect) State() EffectState { return e.state }

// Pos returns the effect position.
func (e *Effect) Pos() Vec3 { return e.pos }

// Handle returns the scalability handle, if registered.
func (e *Effect) Handle() (scalability.Handle, bool) { return e.handle, e.registered }

// Emitters returns the emitters of the effect.
func (e *Effect) Emitters() []*Emitter { return e.emitters }

// Particles returns number of live particles over all emitters.
func (e *Effect) Particles() int {
	n := 0
	for _, em := range e.emitters {
		n += em.Particles()
	}
	return n
}

// Tick advances the effect by dt seconds.
func (e *Effect) Tick(dt float32) {
	if e.state == EffectDead {
		return
	}
	e.age += dt

	if e.state == EffectActive && e.expired() {
		e.state = EffectCompleting
	}

	spawning := e.state == EffectActive
	for _, em := range e.emitters {
		em.Tick(dt, spawning)
	}

	if e.Particles() > 0 && e.scene.Visible(e.pos) {
		e.sinceRendered = 0
	} else {
		e.sinceRendered += dt
	}

	switch {
	case e.state == EffectCompleting && e.Particles() == 0:
		e.state = EffectDead
	case e.state == EffectCulled && e.Particles() == 0 && (!e.resumable || e.expired()):
		e.state = EffectDead
	}
}

func (e *Effect) expired() bool {
	return e.lifetime > 0 && e.age >= e.lifetime
}
