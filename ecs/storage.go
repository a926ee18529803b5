package ecs

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"weak"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Storage owns every entity id and every component instance. All mutations
// go through it, and each mutation that changes entity or component existence
// announces exactly one message on the dispatcher before returning, so caches
// built from those messages never drift from the stored state.
//
// A Storage is not safe for concurrent use.
type Storage struct {
	registry   *ComponentRegistry
	dispatcher *Dispatcher
	logger     *zap.Logger

	// a component type is present only while at least one entity holds it
	components map[ComponentType]*intmap.Map[EntityId, any]
	entities   *intmap.Set[EntityId]
	removing   *intmap.Set[EntityId]
	recycled   []EntityId
	nextId     EntityId
	refs       *intmap.Map[EntityId, weak.Pointer[EntityRef]]
}

// NewStorage creates a store that announces its mutations on dispatcher.
func NewStorage(registry *ComponentRegistry, dispatcher *Dispatcher, opts ...Option) *Storage {
	o := buildOptions(opts)
	return &Storage{
		registry:   registry,
		dispatcher: dispatcher,
		logger:     o.logger,
		components: make(map[ComponentType]*intmap.Map[EntityId, any]),
		entities:   intmap.NewSet[EntityId](256),
		removing:   intmap.NewSet[EntityId](8),
		refs:       intmap.New[EntityId, weak.Pointer[EntityRef]](64),
	}
}

// Registry returns the component registry the store resolves types with.
func (s *Storage) Registry() *ComponentRegistry {
	return s.registry
}

// Dispatcher returns the dispatcher the store announces mutations on.
func (s *Storage) Dispatcher() *Dispatcher {
	return s.dispatcher
}

// CreateEntity returns a new live entity id, preferring the most recently
// removed id, and announces EntityCreated.
func (s *Storage) CreateEntity() (EntityId, error) {
	var id EntityId
	if n := len(s.recycled); n > 0 {
		id = s.recycled[n-1]
		s.recycled = s.recycled[:n-1]
	} else {
		id = s.nextId
		s.nextId++
	}

	s.entities.Add(id)
	return id, s.dispatcher.Send(Message{Type: EntityCreated, Entity: id})
}

// RemoveEntity removes every component the entity holds, one ComponentRemoved
// message at a time in ascending tag order, then retires the id and announces
// EntityRemoved. Removing a non-live id returns ErrEntityNotAlive.
//
// While the components are being stripped the entity accepts no new
// components, and a nested RemoveEntity for the same id from a handler
// returns nil and leaves the work to the outer call.
func (s *Storage) RemoveEntity(id EntityId) error {
	if !s.entities.Has(id) {
		return fmt.Errorf("remove entity %d: %w", id, ErrEntityNotAlive)
	}
	if s.removing.Has(id) {
		return nil
	}

	s.removing.Add(id)
	err := s.stripComponents(id)
	s.removing.Del(id)
	if err != nil {
		return err
	}

	s.entities.Del(id)
	s.invalidateRef(id)
	s.recycled = append(s.recycled, id)

	return s.dispatcher.Send(Message{Type: EntityRemoved, Entity: id})
}

func (s *Storage) stripComponents(id EntityId) error {
	for _, ct := range s.componentTypesOf(id) {
		if err := s.RemoveComponent(id, ct); err != nil {
			return err
		}
	}
	return nil
}

// AddComponent stores component under id, replacing any component of the
// same type, and announces ComponentAdded. A value is copied into the store;
// a pointer is kept, so the caller can keep mutating the stored record.
// An entity that is being removed counts as not alive.
func (s *Storage) AddComponent(id EntityId, component any) error {
	if !s.entities.Has(id) || s.removing.Has(id) {
		return fmt.Errorf("add component to entity %d: %w", id, ErrEntityNotAlive)
	}

	ct, value, err := s.registry.box(component)
	if err != nil {
		return fmt.Errorf("add component to entity %d: %w", id, err)
	}

	bucket, ok := s.components[ct]
	if !ok {
		bucket = intmap.New[EntityId, any](64)
		s.components[ct] = bucket
	}
	bucket.Put(id, value)

	return s.dispatcher.Send(Message{Type: ComponentAdded, Entity: id, Component: ct})
}

// RemoveComponent removes the component of type ct from id and announces
// ComponentRemoved. Removing an absent component does nothing.
func (s *Storage) RemoveComponent(id EntityId, ct ComponentType) error {
	bucket, ok := s.components[ct]
	if !ok || !bucket.Del(id) {
		return nil
	}
	if bucket.Len() == 0 {
		delete(s.components, ct)
	}

	return s.dispatcher.Send(Message{Type: ComponentRemoved, Entity: id, Component: ct})
}

// HasComponent checks if an entity has a specific component type
func (s *Storage) HasComponent(id EntityId, ct ComponentType) bool {
	bucket, ok := s.components[ct]
	return ok && bucket.Has(id)
}

// GetComponent returns the stored *T for the entity, or nil when absent.
func (s *Storage) GetComponent(id EntityId, ct ComponentType) any {
	bucket, ok := s.components[ct]
	if !ok {
		return nil
	}
	component, _ := bucket.Get(id)
	return component
}

// IsAlive reports whether id is currently live.
func (s *Storage) IsAlive(id EntityId) bool {
	return s.entities.Has(id)
}

// Entities returns the live entity ids in ascending order.
func (s *Storage) Entities() []EntityId {
	ids := make([]EntityId, 0, s.entities.Len())
	for id := range s.entities.All() {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// EntitiesWithType returns the ids holding a component of type ct, in
// ascending order. The result is empty, not nil, when nobody holds it.
func (s *Storage) EntitiesWithType(ct ComponentType) []EntityId {
	bucket, ok := s.components[ct]
	if !ok {
		return []EntityId{}
	}

	ids := make([]EntityId, 0, bucket.Len())
	for id := range bucket.Keys() {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// EntitiesWithTypes returns the live ids holding one component of every
// given type, in ascending order. Without types it returns every live id.
func (s *Storage) EntitiesWithTypes(types ...ComponentType) []EntityId {
	if len(types) == 0 {
		return s.Entities()
	}

	buckets := make([]*intmap.Map[EntityId, any], 0, len(types))
	for _, ct := range types {
		bucket, ok := s.components[ct]
		if !ok {
			return []EntityId{}
		}
		buckets = append(buckets, bucket)
	}

	// walk the smallest bucket, probe the others
	slices.SortFunc(buckets, func(a, b *intmap.Map[EntityId, any]) int {
		return a.Len() - b.Len()
	})

	ids := make([]EntityId, 0, buckets[0].Len())
	for id := range buckets[0].Keys() {
		if !s.entities.Has(id) {
			continue
		}
		if !holdsAll(id, buckets[1:]) {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func holdsAll(id EntityId, buckets []*intmap.Map[EntityId, any]) bool {
	for _, bucket := range buckets {
		if !bucket.Has(id) {
			return false
		}
	}
	return true
}

// ComponentsOf returns every component the entity holds, keyed by type.
func (s *Storage) ComponentsOf(id EntityId) map[ComponentType]any {
	components := make(map[ComponentType]any)
	for ct, bucket := range s.components {
		if component, ok := bucket.Get(id); ok {
			components[ct] = component
		}
	}
	return components
}

// ComponentsOfType iterates over every holder of ct and its component.
// The store must not be mutated while the iteration is running.
func (s *Storage) ComponentsOfType(ct ComponentType) iter.Seq2[EntityId, any] {
	return func(yield func(EntityId, any) bool) {
		bucket, ok := s.components[ct]
		if !ok {
			return
		}
		for id, component := range bucket.All() {
			if !yield(id, component) {
				return
			}
		}
	}
}

// componentTypesOf returns the types the entity holds in ascending order.
func (s *Storage) componentTypesOf(id EntityId) []ComponentType {
	types := make([]ComponentType, 0, 8)
	for ct, bucket := range s.components {
		if bucket.Has(id) {
			types = append(types, ct)
		}
	}
	slices.Sort(types)
	return types
}

// ComponentReader is anything components can be read from by tag.
type ComponentReader interface {
	Registry() *ComponentRegistry
	GetComponent(EntityId, ComponentType) any
}

// ReadComponent returns the entity's component of type T, or nil when the
// entity does not hold one or T was never registered.
func ReadComponent[T any](reader ComponentReader, id EntityId) *T {
	ct, ok := reader.Registry().Lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	component, _ := reader.GetComponent(id, ct).(*T)
	return component
}
