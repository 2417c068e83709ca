package model

// ScalabilityState is the per-instance record a scalability manager mutates.
// Lives in an array parallel to the manager's tracked instances.
type ScalabilityState struct {
	Significance       float32 // higher = more important, 0 when culled
	Culled             bool
	Dirty              bool   // Culled differs from the last applied verdict
	LastEvaluatedFrame uint64 // manager frame of the last threshold evaluation
}

// EffectInstance is the view of a live effect instance the scalability core needs.
// Implemented by the host that owns instance lifecycle.
type EffectInstance interface {
	// EffectTypeName selects the manager the instance belongs to.
	EffectTypeName() string
	// SystemKey identifies the effect asset (kind) for per-system instance caps.
	SystemKey() string
	// AllowScalability returns false for instances that opted out of culling.
	AllowScalability() bool

	// DistanceToViewer returns distance to the nearest viewer in world units.
	DistanceToViewer() float32
	// Age returns seconds since the instance was activated.
	Age() float32
	// TimeSinceRendered returns seconds since the instance was last rendered.
	TimeSinceRendered() float32

	// ApplyCullReaction stops simulation according to reaction.
	// Called only when the instance transitions to culled.
	ApplyCullReaction(reaction OverflowReaction)
	// Resume restarts simulation after a resumable cull.
	Resume()
}
