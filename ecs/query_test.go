package ecs_test

import (
	"testing"

	"github.com/plus3/fission/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryMovementSystem struct {
	ecs.Query[struct {
		Id ecs.EntityId
		*Position
		*Velocity
		Glyph *Glyph `ecs:"optional"`
	}]
	moved []ecs.EntityId
}

func (s *queryMovementSystem) Update(frame *ecs.UpdateFrame) error {
	s.moved = s.moved[:0]
	for id, item := range s.Iter() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
		s.moved = append(s.moved, id)
	}
	return nil
}

func TestQuery(t *testing.T) {
	storage, manager, types := newTestWorld()

	a := mustCreate(t, storage, Position{}, Velocity{DX: 1, DY: 2})
	mustCreate(t, storage, Position{})
	c := mustCreate(t, storage, Position{X: 5}, Velocity{DX: -1}, Glyph{Rune: "c"})

	system := &queryMovementSystem{}
	assert.Nil(t, system.View())

	require.NoError(t, manager.AddSystem(system))
	assert.Equal(t, []ecs.ComponentType{types.Position, types.Velocity}, system.Required())
	assert.Equal(t, []ecs.EntityId{a, c}, system.Entities())

	require.NoError(t, manager.Update(1))
	assert.Equal(t, []ecs.EntityId{a, c}, system.moved)
	assert.Equal(t, &Position{X: 1, Y: 2}, ecs.ReadComponent[Position](storage, a))
	assert.Equal(t, &Position{X: 4}, ecs.ReadComponent[Position](storage, c))

	t.Run("cache follows the store", func(t *testing.T) {
		require.NoError(t, storage.RemoveComponent(a, types.Velocity))
		d := mustCreate(t, storage, Velocity{}, Position{})

		require.NoError(t, manager.Update(1))
		assert.Equal(t, []ecs.EntityId{c, d}, system.moved)
	})

	t.Run("optional fields and ids", func(t *testing.T) {
		labelled := 0
		for id, item := range system.Iter() {
			assert.Equal(t, id, item.Id)
			if item.Glyph != nil {
				labelled++
			}
		}
		assert.Equal(t, 1, labelled)
	})

	t.Run("values", func(t *testing.T) {
		count := 0
		for item := range system.Values() {
			assert.NotNil(t, item.Position)
			count++
		}
		assert.Equal(t, system.Len(), count)
	})

	t.Run("registered once", func(t *testing.T) {
		_, other, _ := newTestWorld()
		assert.ErrorIs(t, other.AddSystem(system), ecs.ErrSystemAlreadyRegistered)
	})

	t.Run("removed and added again", func(t *testing.T) {
		require.True(t, manager.RemoveSystem(system))
		assert.Zero(t, system.Len())

		require.NoError(t, manager.AddSystem(system))
		assert.Equal(t, storage.EntitiesWithTypes(types.Position, types.Velocity), system.Entities())
	})
}

func TestQueryRemovalDuringIteration(t *testing.T) {
	storage, manager, _ := newTestWorld()

	for i := 0; i < 4; i++ {
		mustCreate(t, storage, Position{}, Velocity{})
	}

	system := &queryMovementSystem{}
	require.NoError(t, manager.AddSystem(system))

	var seen []ecs.EntityId
	for id := range system.Iter() {
		seen = append(seen, id)
		if id == 1 {
			require.NoError(t, storage.RemoveEntity(3))
		}
	}
	assert.Equal(t, []ecs.EntityId{0, 1, 2}, seen)
}

func TestQueryUnregisteredIsEmpty(t *testing.T) {
	system := &queryMovementSystem{}

	count := 0
	for range system.Iter() {
		count++
	}
	assert.Zero(t, count)
}
