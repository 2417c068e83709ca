package sim

import (
	"github.com/chewxy/math32"

	"github.com/udisondev/fxscale/internal/config"
)

// Emitter spawns particles at a rate scaled by the resolved emitter settings.
type Emitter struct {
	cfg        config.EmitterConfig
	spawnScale float32
	accum      float32   // fractional particles carried between ticks
	particles  []float32 // remaining lifetime per live particle
}

func newEmitter(cfg config.EmitterConfig, spawnScale float32) *Emitter {
	return &Emitter{cfg: cfg, spawnScale: spawnScale}
}

// Name returns the emitter name.
func (e *Emitter) Name() string { return e.cfg.Name }

// Particles returns number of live particles.
func (e *Emitter) Particles() int { return len(e.particles) }

// SpawnScale returns the multiplier applied to the spawn rate.
func (e *Emitter) SpawnScale() float32 { return e.spawnScale }

// Tick ages live particles and, when spawning, emits new ones.
func (e *Emitter) Tick(dt float32, spawning bool) {
	alive := e.particles[:0]
	for _, life := range e.particles {
		if life -= dt; life > 0 {
			alive = append(alive, life)
		}
	}
	e.particles = alive

	if !spawning || e.cfg.Lifetime <= 0 {
		e.accum = 0
		return
	}

	e.accum += e.cfg.SpawnRate * e.spawnScale * dt
	n := int(math32.Floor(e.accum))
	e.accum -= float32(n)
	for range n {
		e.particles = append(e.particles, e.cfg.Lifetime)
	}
}

// Clear kills every live particle.
func (e *Emitter) Clear() {
	e.particles = e.particles[:0]
	e.accum = 0
}
