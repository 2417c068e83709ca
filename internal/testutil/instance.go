package testutil

import "github.com/udisondev/fxscale/internal/model"

// FakeInstance - управляемая реализация model.EffectInstance для unit тестов.
// Поля меняются напрямую из теста между вызовами Update.
type FakeInstance struct {
	Type     string
	System   string
	NoScale  bool
	Distance float32
	AgeSec   float32
	Unseen   float32 // seconds since rendered

	Reactions []model.OverflowReaction // every ApplyCullReaction call, in order
	Resumes   int
	Cleared   int // forced clears (immediate reactions)
	Active    bool

	// OnReaction runs inside ApplyCullReaction, used to test reentrancy.
	OnReaction func(r model.OverflowReaction)
}

// NewFakeInstance создаёт активный экземпляр на заданной дистанции.
func NewFakeInstance(effectType, system string, distance float32) *FakeInstance {
	return &FakeInstance{
		Type:     effectType,
		System:   system,
		Distance: distance,
		AgeSec:   1,
		Active:   true,
	}
}

func (f *FakeInstance) EffectTypeName() string     { return f.Type }
func (f *FakeInstance) SystemKey() string          { return f.System }
func (f *FakeInstance) AllowScalability() bool     { return !f.NoScale }
func (f *FakeInstance) DistanceToViewer() float32  { return f.Distance }
func (f *FakeInstance) Age() float32               { return f.AgeSec }
func (f *FakeInstance) TimeSinceRendered() float32 { return f.Unseen }

// ApplyCullReaction записывает реакцию и имитирует остановку симуляции.
func (f *FakeInstance) ApplyCullReaction(r model.OverflowReaction) {
	f.Reactions = append(f.Reactions, r)
	f.Active = false
	if r.Immediate() {
		f.Cleared++
	}
	if f.OnReaction != nil {
		f.OnReaction(r)
	}
}

// Resume возобновляет симуляцию.
func (f *FakeInstance) Resume() {
	f.Resumes++
	f.Active = true
}

// LastReaction возвращает последнюю реакцию или false если её не было.
func (f *FakeInstance) LastReaction() (model.OverflowReaction, bool) {
	if len(f.Reactions) == 0 {
		return 0, false
	}
	return f.Reactions[len(f.Reactions)-1], true
}
