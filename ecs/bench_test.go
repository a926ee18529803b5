package ecs_test

import (
	"testing"

	"github.com/plus3/fission/ecs"
)

func newBenchWorld(b *testing.B) (*ecs.Storage, *ecs.SystemManager, testTypes) {
	b.Helper()
	return newTestWorld()
}

func BenchmarkCreateEntity(b *testing.B) {
	storage, _, _ := newBenchWorld(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustCreate(b, storage, Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}
}

func BenchmarkCreateEntityWithMultipleComponents(b *testing.B) {
	storage, _, _ := newBenchWorld(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustCreate(b, storage,
			Position{X: 1.0, Y: 2.0},
			Velocity{DX: 0.5, DY: 0.5},
			Health{Current: 100, Max: 100},
			Name{Value: "Entity"},
		)
	}
}

func BenchmarkRemoveEntity(b *testing.B) {
	storage, _, _ := newBenchWorld(b)

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = mustCreate(b, storage, Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.RemoveEntity(ids[i])
	}
}

func BenchmarkGetComponent(b *testing.B) {
	storage, _, _ := newBenchWorld(b)
	id := mustCreate(b, storage, Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ecs.ReadComponent[Position](storage, id)
	}
}

func BenchmarkAddComponent(b *testing.B) {
	storage, _, _ := newBenchWorld(b)

	ids := make([]ecs.EntityId, b.N)
	for i := 0; i < b.N; i++ {
		ids[i] = mustCreate(b, storage, Position{X: 1.0, Y: 2.0})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.AddComponent(ids[i], Velocity{DX: 0.5, DY: 0.5})
	}
}

// With systems registered every add and remove also refreshes the caches of
// the systems requiring the touched type.
func BenchmarkAddRemoveComponentWithSystems(b *testing.B) {
	storage, manager, types := newBenchWorld(b)
	_ = manager.AddSystem(newMovementSystem(types))
	_ = manager.AddSystem(newRenderSystem(types))
	_ = manager.AddSystem(newHealthSystem(types))

	for i := 0; i < 1000; i++ {
		mustCreate(b, storage, Position{X: float32(i)}, Glyph{Rune: "."})
	}
	id := mustCreate(b, storage, Position{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.AddComponent(id, Velocity{DX: 0.5, DY: 0.5})
		_ = storage.RemoveComponent(id, types.Velocity)
	}
}

func BenchmarkEntitiesWithTypes(b *testing.B) {
	storage, _, types := newBenchWorld(b)

	for i := 0; i < 10000; i++ {
		if i%10 == 0 {
			mustCreate(b, storage, Position{}, Velocity{})
		} else {
			mustCreate(b, storage, Position{})
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = storage.EntitiesWithTypes(types.Position, types.Velocity)
	}
}

func BenchmarkDispatcherSend(b *testing.B) {
	dispatcher := ecs.NewDispatcher()
	for i := 0; i < 4; i++ {
		dispatcher.Subscribe(testMessage, func(msg ecs.Message) error { return nil })
	}
	msg := ecs.Message{Type: testMessage, Entity: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = dispatcher.Send(msg)
	}
}

func BenchmarkEntityRef(b *testing.B) {
	storage, _, _ := newBenchWorld(b)
	id := mustCreate(b, storage, Position{X: 1.0, Y: 2.0})
	ref := storage.CreateEntityRef(id)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = storage.ResolveEntityRef(ref)
	}
}

func BenchmarkViewFill(b *testing.B) {
	storage, _, _ := newBenchWorld(b)

	type PosVel struct {
		*Position
		*Velocity
	}

	view := ecs.NewView[PosVel](storage)
	id := mustCreate(b, storage, Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var pv PosVel
		view.Fill(id, &pv)
	}
}

func BenchmarkViewIter(b *testing.B) {
	storage, _, types := newBenchWorld(b)

	type PosVel struct {
		*Position
		*Velocity
	}

	for i := 0; i < 1000; i++ {
		mustCreate(b, storage, Position{X: float32(i), Y: float32(i)}, Velocity{DX: 0.5, DY: 0.5})
	}

	view := ecs.NewView[PosVel](storage)
	ids := storage.EntitiesWithTypes(types.Position, types.Velocity)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, pv := range view.Iter(ids) {
			_ = pv
		}
	}
}

func BenchmarkMixedOperations(b *testing.B) {
	storage, manager, types := newBenchWorld(b)
	_ = manager.AddSystem(newMovementSystem(types))

	type PosVel struct {
		*Position
		*Velocity
	}

	view := ecs.NewView[PosVel](storage)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := mustCreate(b, storage, Position{X: 1.0, Y: 2.0}, Velocity{DX: 0.5, DY: 0.5})
		_ = ecs.ReadComponent[Position](storage, id)
		_ = storage.AddComponent(id, Health{Current: 100, Max: 100})
		_ = view.Get(id)
		_ = storage.RemoveEntity(id)
	}
}

func BenchmarkManagerUpdate(b *testing.B) {
	storage, manager, types := newBenchWorld(b)

	for i := 0; i < 1000; i++ {
		mustCreate(b, storage, Position{X: float32(i), Y: float32(i)}, Velocity{DX: 0.5, DY: 0.5})
	}
	_ = manager.AddSystem(newMovementSystem(types))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = manager.Update(0.016)
	}
}

func BenchmarkManagerMultipleSystems(b *testing.B) {
	storage, manager, types := newBenchWorld(b)

	for i := 0; i < 1000; i++ {
		mustCreate(b, storage, Position{X: float32(i), Y: float32(i)}, Velocity{DX: 0.5, DY: 0.5}, Health{Current: 50, Max: 100})
	}
	_ = manager.AddSystem(newMovementSystem(types))
	_ = manager.AddSystem(newHealthSystem(types))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = manager.Update(0.016)
	}
}
