package ecs

import "fmt"

// Singleton gives direct access to a component type that exactly one entity
// holds, such as a world clock or global settings. The holder is an ordinary
// entity, so systems requiring T see it like any other.
type Singleton[T any] struct {
	storage *Storage
	ct      ComponentType
	holder  EntityId
	ref     *EntityRef
}

// NewSingleton returns an accessor for T. If no entity holds T yet, one is
// created holding the initializer value, or the zero value without one.
// T must be registered with the store's registry.
func NewSingleton[T any](storage *Storage, initializer ...T) (*Singleton[T], error) {
	ct := ComponentTypeOf[T](storage.Registry())
	s := &Singleton[T]{storage: storage, ct: ct}

	if holders := storage.EntitiesWithType(ct); len(holders) > 0 {
		if len(holders) > 1 {
			return nil, fmt.Errorf("singleton %s: held by %d entities", storage.Registry().Name(ct), len(holders))
		}
		s.bind(holders[0])
		return s, nil
	}

	var value T
	if len(initializer) > 0 {
		value = initializer[0]
	}

	id, err := storage.CreateEntity()
	if err != nil {
		return nil, fmt.Errorf("singleton %s: %w", storage.Registry().Name(ct), err)
	}
	if err := storage.AddComponent(id, &value); err != nil {
		return nil, fmt.Errorf("singleton %s: %w", storage.Registry().Name(ct), err)
	}
	s.bind(id)
	return s, nil
}

func (s *Singleton[T]) bind(id EntityId) {
	s.holder = id
	s.ref = s.storage.CreateEntityRef(id)
}

// Get returns the singleton component, or nil once its holder lost it.
func (s *Singleton[T]) Get() *T {
	id, ok := s.storage.ResolveEntityRef(s.ref)
	if !ok {
		return nil
	}
	component, _ := s.storage.GetComponent(id, s.ct).(*T)
	return component
}

// Entity returns the id of the holding entity.
func (s *Singleton[T]) Entity() EntityId {
	return s.holder
}

// Exists reports whether the holder is still live and holds T.
func (s *Singleton[T]) Exists() bool {
	return s.Get() != nil
}
