package sim

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/chewxy/math32"

	"github.com/udisondev/fxscale/internal/budget"
	"github.com/udisondev/fxscale/internal/config"
	"github.com/udisondev/fxscale/internal/model"
	"github.com/udisondev/fxscale/internal/platform"
	"github.com/udisondev/fxscale/internal/scalability"
)

// ParticleRenderCost is the render thread time charged per live particle per frame.
const ParticleRenderCost = 150 * time.Nanosecond

// Registrar is the part of scalability.World the population needs.
type Registrar interface {
	RegisterOrPreCull(inst model.EffectInstance) (scalability.Handle, bool, error)
	Unregister(inst model.EffectInstance, h scalability.Handle) bool
}

// StepStats summarizes one Step.
type StepStats struct {
	Spawned   int
	PreCulled int
	Finished  int
	Alive     int
	Culled    int
	Particles int
}

// Population spawns effects from the catalog systems, simulates them and
// keeps their scalability registration in sync with their lifecycle.
// Not safe for concurrent use; Step runs on the tick goroutine.
type Population struct {
	world    Registrar
	eval     *platform.Evaluator
	tracker  *budget.Tracker
	scene    *Scene
	rng      *rand.Rand
	cfg      config.SimulationConfig
	catalog  config.Catalog
	types    map[string]*model.EffectType
	weights  float32
	effects  []*Effect
	scaleVer uint64 // evaluator version the emitter scales were resolved at
}

// NewPopulation creates population over a catalog. tracker may be nil.
func NewPopulation(world Registrar, catalog config.Catalog, eval *platform.Evaluator, tracker *budget.Tracker, cfg config.SimulationConfig) *Population {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	scene := &Scene{Radius: cfg.WorldRadius}
	for range max(cfg.Viewers, 0) {
		scene.Viewers = append(scene.Viewers, Viewer{
			Pos:      randomPoint(rng, cfg.WorldRadius/2),
			Vel:      randomPoint(rng, 300),
			ViewDist: cfg.WorldRadius / 2,
		})
	}

	p := &Population{
		world:   world,
		eval:    eval,
		tracker: tracker,
		scene:   scene,
		rng:     rng,
		cfg:     cfg,
	}
	p.SetCatalog(catalog)
	return p
}

// SetCatalog replaces the catalog used for new spawns. Live effects keep
// the emitters they were spawned with.
func (p *Population) SetCatalog(catalog config.Catalog) {
	p.catalog = catalog
	p.types = make(map[string]*model.EffectType, len(catalog.EffectTypes))
	for _, et := range catalog.EffectTypePointers() {
		p.types[et.Name] = et
	}
	p.weights = 0
	for _, s := range catalog.Systems {
		p.weights += systemWeight(s)
	}
}

// Scene returns the simulated scene.
func (p *Population) Scene() *Scene { return p.scene }

// Effects returns live effects. The slice is reused by the next Step.
func (p *Population) Effects() []*Effect { return p.effects }

// Step spawns new effects, advances every effect by dt seconds and drops
// finished ones. Spawns happen after the simulation so the following newOnly
// pass gives them a verdict before their first frame.
func (p *Population) Step(dt float32) StepStats {
	var stats StepStats

	if p.tracker != nil {
		defer p.tracker.Scope(budget.TrackGameThread)()
	}

	p.refreshSpawnScales()
	p.scene.Move(dt)

	alive := p.effects[:0]
	for _, e := range p.effects {
		e.Tick(dt)
		if e.State() == EffectDead {
			p.release(e)
			stats.Finished++
			continue
		}
		alive = append(alive, e)
	}
	clear(p.effects[len(alive):])
	p.effects = alive

	for range p.cfg.SpawnPerTick {
		if len(p.effects) >= p.cfg.MaxAlive {
			break
		}
		e, ok := p.spawn()
		if !ok {
			break
		}
		if !e.registered && e.AllowScalability() {
			stats.PreCulled++
			continue
		}
		p.effects = append(p.effects, e)
		stats.Spawned++
	}

	for _, e := range p.effects {
		stats.Particles += e.Particles()
		if e.State() == EffectCulled {
			stats.Culled++
		}
	}
	stats.Alive = len(p.effects)

	if p.tracker != nil {
		p.tracker.Add(budget.TrackRenderThread, time.Duration(stats.Particles)*ParticleRenderCost)
	}
	return stats
}

// EndFrame closes the budget frame. Call once per tick after Step.
func (p *Population) EndFrame() {
	if p.tracker != nil {
		p.tracker.EndFrame()
	}
}

// Clear unregisters every live effect.
func (p *Population) Clear() {
	for _, e := range p.effects {
		p.release(e)
	}
	clear(p.effects)
	p.effects = p.effects[:0]
}

// spawn creates one effect of a weighted random system and registers it.
// The effect is returned unregistered when it was pre-culled or opted out.
// Returns false when nothing can be spawned.
func (p *Population) spawn() (*Effect, bool) {
	sys, ok := p.pickSystem()
	if !ok {
		return nil, false
	}
	et, ok := p.types[sys.EffectType]
	if !ok {
		return nil, false
	}

	emitters := make([]*Emitter, 0, len(sys.Emitters))
	for _, ec := range sys.Emitters {
		emitters = append(emitters, newEmitter(ec, p.spawnScale(et, ec)))
	}

	e := NewEffect(et.Name, sys.Name, randomPoint(p.rng, p.cfg.WorldRadius), p.scene, p.cfg.Lifetime, emitters)
	h, preCulled, err := p.world.RegisterOrPreCull(e)
	if err != nil {
		if errors.Is(err, scalability.ErrUnknownEffectType) {
			slog.Warn("spawned effect has no scalability manager", "system", sys.Name, "effect_type", et.Name)
		} else {
			slog.Error("registering effect", "system", sys.Name, "error", err)
		}
		return nil, false
	}
	if preCulled {
		return e, true
	}
	e.handle = h
	e.registered = h.Valid()
	return e, true
}

// release is the genuine deactivation path: the effect leaves the manager.
func (p *Population) release(e *Effect) {
	if !e.registered {
		return
	}
	p.world.Unregister(e, e.handle)
	e.registered = false
}

func (p *Population) pickSystem() (config.SystemConfig, bool) {
	if len(p.catalog.Systems) == 0 || p.weights <= 0 {
		return config.SystemConfig{}, false
	}
	r := p.rng.Float32() * p.weights
	for _, s := range p.catalog.Systems {
		w := systemWeight(s)
		if r < w {
			return s, true
		}
		r -= w
	}
	return p.catalog.Systems[len(p.catalog.Systems)-1], true
}

func (p *Population) spawnScale(et *model.EffectType, ec config.EmitterConfig) float32 {
	if p.eval == nil {
		return 1
	}
	return p.eval.ResolveEmitterSettings(et, ec.Overrides).SpawnScale()
}

// refreshSpawnScales re-resolves emitter settings of live effects after the
// platform context changed.
func (p *Population) refreshSpawnScales() {
	if p.eval == nil {
		return
	}
	v := p.eval.Version()
	if v == p.scaleVer {
		return
	}
	p.scaleVer = v

	for _, e := range p.effects {
		et, ok := p.types[e.EffectTypeName()]
		if !ok {
			continue
		}
		for _, em := range e.emitters {
			em.spawnScale = p.spawnScale(et, em.cfg)
		}
	}
	slog.Debug("emitter spawn scales refreshed", "version", v, "effects", len(p.effects))
}

// systemWeight treats a missing weight as 1.
func systemWeight(s config.SystemConfig) float32 {
	if s.Weight <= 0 {
		return 1
	}
	return s.Weight
}

// randomPoint returns a uniform point in the horizontal disc of radius r.
func randomPoint(rng *rand.Rand, r float32) Vec3 {
	angle := rng.Float32() * 2 * math32.Pi
	dist := r * math32.Sqrt(rng.Float32())
	return Vec3{X: dist * math32.Cos(angle), Y: dist * math32.Sin(angle)}
}
