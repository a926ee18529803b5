package main

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/plus3/fission/ecs"
	"github.com/plus3/fission/internal/config"
)

const (
	gridWidth  = 80
	gridHeight = 24
)

type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Glyph struct {
	Rune rune
}

// Lifetime counts down in seconds; the entity is removed at zero.
type Lifetime struct {
	Remaining float64
}

type Clock struct {
	Ticks   int64
	Elapsed float64
}

type componentTypes struct {
	position, velocity, glyph, lifetime, clock ecs.ComponentType
}

type MovementSystem struct {
	ecs.Query[struct {
		*Position
		*Velocity
	}]
}

func (s *MovementSystem) Update(frame *ecs.UpdateFrame) error {
	dt := float32(frame.DeltaTime)
	for item := range s.Values() {
		item.Position.X = wrap(item.Position.X+item.Velocity.DX*dt, gridWidth)
		item.Position.Y = wrap(item.Position.Y+item.Velocity.DY*dt, gridHeight)
	}
	return nil
}

func wrap(v, size float32) float32 {
	for v < 0 {
		v += size
	}
	for v >= size {
		v -= size
	}
	return v
}

type AgingSystem struct {
	ecs.Base
	lifetime ecs.ComponentType
	Expired  int64
}

func (s *AgingSystem) Update(frame *ecs.UpdateFrame) error {
	for id, c := range s.Components() {
		life := ecs.Get[Lifetime](c, s.lifetime)
		life.Remaining -= frame.DeltaTime
		if life.Remaining <= 0 {
			frame.Commands.Remove(id)
			s.Expired++
		}
	}
	return nil
}

// CensusSystem requires nothing, so it tracks every live entity.
type CensusSystem struct {
	ecs.Base
	Peak int
}

func (s *CensusSystem) Update(frame *ecs.UpdateFrame) error {
	s.Peak = max(s.Peak, s.Len())
	return nil
}

type ClockSystem struct {
	ecs.Base
	clock *ecs.Singleton[Clock]
}

func (s *ClockSystem) Init(manager *ecs.SystemManager) error {
	clock, err := ecs.NewSingleton[Clock](manager.Storage())
	if err != nil {
		return err
	}
	s.clock = clock
	return nil
}

func (s *ClockSystem) Update(frame *ecs.UpdateFrame) error {
	clock := s.clock.Get()
	clock.Ticks++
	clock.Elapsed += frame.DeltaTime
	return nil
}

type world struct {
	cfg     config.StressConfig
	logger  *zap.Logger
	rng     *rand.Rand
	storage *ecs.Storage
	manager *ecs.SystemManager
	types   componentTypes

	movement *MovementSystem
	aging    *AgingSystem
	census   *CensusSystem
	clock    *ClockSystem

	highest ecs.EntityId
	created int64
	mutated int64
}

func newWorld(cfg config.StressConfig, logger *zap.Logger) (*world, error) {
	registry := ecs.NewComponentRegistry()
	types := componentTypes{
		position: ecs.RegisterComponent[Position](registry),
		velocity: ecs.RegisterComponent[Velocity](registry),
		glyph:    ecs.RegisterComponent[Glyph](registry),
		lifetime: ecs.RegisterComponent[Lifetime](registry),
		clock:    ecs.RegisterComponent[Clock](registry),
	}

	ecsLogger := ecs.WithLogger(logger.Named("ecs"))
	dispatcher := ecs.NewDispatcher(ecsLogger)
	storage := ecs.NewStorage(registry, dispatcher, ecsLogger)

	w := &world{
		cfg:      cfg,
		logger:   logger,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		storage:  storage,
		manager:  ecs.NewSystemManager(storage, dispatcher, ecsLogger),
		types:    types,
		movement: &MovementSystem{},
		aging:    &AgingSystem{Base: ecs.NewBase(types.lifetime), lifetime: types.lifetime},
		census:   &CensusSystem{},
		clock:    &ClockSystem{Base: ecs.NewBase(types.clock)},
	}

	for _, system := range []ecs.System{w.clock, w.movement, w.aging, w.census} {
		if err := w.manager.AddSystem(system); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// spawn creates n entities with a random mix of components. Every entity
// gets a Position; the rest is left to chance.
func (w *world) spawn(n int) error {
	for range n {
		id, err := w.storage.CreateEntity()
		if err != nil {
			return err
		}
		w.highest = max(w.highest, id)
		w.created++

		components := []any{Position{
			X: w.rng.Float32() * gridWidth,
			Y: w.rng.Float32() * gridHeight,
		}}
		if w.rng.IntN(10) < 7 {
			components = append(components, Velocity{DX: w.rng.Float32()*8 - 4, DY: w.rng.Float32()*4 - 2})
		}
		if w.rng.IntN(2) == 0 {
			components = append(components, Glyph{Rune: rune('a' + w.rng.IntN(26))})
		}
		if w.rng.IntN(10) < 8 {
			components = append(components, Lifetime{Remaining: w.rng.Float64() * w.cfg.MaxLifetime})
		}

		for _, c := range components {
			if err := w.storage.AddComponent(id, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// mutate toggles Velocity or Glyph on up to n random live entities.
func (w *world) mutate(n int) error {
	for range n {
		id := ecs.EntityId(w.rng.Uint32N(uint32(w.highest) + 1))
		if !w.storage.IsAlive(id) || id == w.clock.clock.Entity() {
			continue
		}

		ct, value := w.types.velocity, any(Velocity{DX: 1})
		if w.rng.IntN(2) == 0 {
			ct, value = w.types.glyph, any(Glyph{Rune: '#'})
		}

		var err error
		if w.storage.HasComponent(id, ct) {
			err = w.storage.RemoveComponent(id, ct)
		} else {
			err = w.storage.AddComponent(id, value)
		}
		if err != nil {
			return err
		}
		w.mutated++
	}
	return nil
}

// verify compares every system cache against a full join over the store.
func (w *world) verify() error {
	for _, system := range w.manager.Systems() {
		lister, ok := system.(interface{ Entities() []ecs.EntityId })
		if !ok {
			continue
		}

		want := w.storage.EntitiesWithTypes(system.Required()...)
		got := lister.Entities()
		if !slices.Equal(want, got) {
			return fmt.Errorf("%T cache holds %d entities, join holds %d", system, len(got), len(want))
		}
	}
	return nil
}
