package ecs

import (
	"iter"
	"slices"

	"github.com/kamstrup/intmap"
)

// System represents a behavior that runs once per frame over the entities
// holding every one of its required component types.
//
// User-defined systems embed Base, which implements everything except
// Update, and construct it with NewBase.
type System interface {
	// Required returns the component types an entity must hold to be tracked.
	Required() []ComponentType
	// Register binds the system to its manager. It is called once by AddSystem.
	Register(manager *SystemManager) error
	// Unregister releases the binding and clears the cache. It is called by RemoveSystem.
	Unregister()
	// RefreshEntity recomputes whether id belongs in the cache.
	RefreshEntity(id EntityId)
	// RefreshAllEntities rebuilds the cache from the store.
	RefreshAllEntities()
	// Tracks reports whether id is currently cached.
	Tracks(id EntityId) bool
	// Update runs the per-frame behavior.
	Update(frame *UpdateFrame) error
}

// Initializer is implemented by systems that need one-time setup, such as
// opening an output surface, once they are bound to a manager and before
// their cache is first populated.
type Initializer interface {
	Init(manager *SystemManager) error
}

// ComponentMap holds one entity's instance of each required component type.
type ComponentMap map[ComponentType]any

// Get returns the component of type ct as *T, or nil.
func Get[T any](components ComponentMap, ct ComponentType) *T {
	component, _ := components[ct].(*T)
	return component
}

// Base tracks the entities matching a fixed set of component types. Embed it
// in a system struct to get every System method except Update.
type Base struct {
	required   []ComponentType
	manager    *SystemManager
	storage    *Storage
	dispatcher *Dispatcher
	cache      *intmap.Set[EntityId]
}

// NewBase creates a Base requiring the given component types. Order does not
// matter; listing a type twice panics.
func NewBase(types ...ComponentType) Base {
	required := slices.Clone(types)
	slices.Sort(required)
	if len(slices.Compact(slices.Clone(required))) != len(required) {
		panic("ecs: duplicate required component type")
	}

	return Base{
		required: required,
		cache:    intmap.NewSet[EntityId](64),
	}
}

// Required returns the component types an entity must hold, sorted.
func (b *Base) Required() []ComponentType {
	return slices.Clone(b.required)
}

// Register binds the system to manager and its store and dispatcher.
func (b *Base) Register(manager *SystemManager) error {
	if b.manager != nil {
		return ErrSystemAlreadyRegistered
	}

	b.manager = manager
	b.storage = manager.Storage()
	b.dispatcher = manager.Dispatcher()
	if b.cache == nil {
		b.cache = intmap.NewSet[EntityId](64)
	}
	return nil
}

// Unregister drops the manager binding and empties the cache.
func (b *Base) Unregister() {
	b.manager = nil
	b.storage = nil
	b.dispatcher = nil
	if b.cache != nil {
		b.cache.Clear()
	}
}

// Manager returns the manager the system is registered with, or nil.
func (b *Base) Manager() *SystemManager {
	return b.manager
}

// Storage returns the store of the owning manager, or nil.
func (b *Base) Storage() *Storage {
	return b.storage
}

// Dispatcher returns the dispatcher of the owning manager, or nil.
func (b *Base) Dispatcher() *Dispatcher {
	return b.dispatcher
}

// RefreshEntity adds id to the cache if it is live and holds every required
// type, and removes it otherwise.
func (b *Base) RefreshEntity(id EntityId) {
	if b.storage == nil {
		return
	}

	if b.matches(id) {
		b.cache.Add(id)
	} else {
		b.cache.Del(id)
	}
}

// RefreshAllEntities rebuilds the cache from a full join over the store.
func (b *Base) RefreshAllEntities() {
	if b.storage == nil {
		return
	}

	b.cache.Clear()
	for _, id := range b.storage.EntitiesWithTypes(b.required...) {
		b.cache.Add(id)
	}
}

// Tracks reports whether id is in the cache.
func (b *Base) Tracks(id EntityId) bool {
	return b.cache != nil && b.cache.Has(id)
}

// Len returns the number of cached entities.
func (b *Base) Len() int {
	if b.cache == nil {
		return 0
	}
	return b.cache.Len()
}

// Entities returns a sorted snapshot of the cached entity ids.
func (b *Base) Entities() []EntityId {
	if b.cache == nil {
		return []EntityId{}
	}

	ids := make([]EntityId, 0, b.cache.Len())
	for id := range b.cache.All() {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Components iterates over the cached entities and their required
// components. The cache is snapshotted when iteration starts, so the store
// may be mutated from the loop body; entities that leave the cache before
// they are reached are skipped.
func (b *Base) Components() iter.Seq2[EntityId, ComponentMap] {
	return func(yield func(EntityId, ComponentMap) bool) {
		for _, id := range b.Entities() {
			if !b.cache.Has(id) {
				continue
			}

			components := make(ComponentMap, len(b.required))
			for _, ct := range b.required {
				components[ct] = b.storage.GetComponent(id, ct)
			}

			if !yield(id, components) {
				return
			}
		}
	}
}

func (b *Base) matches(id EntityId) bool {
	if !b.storage.IsAlive(id) {
		return false
	}
	for _, ct := range b.required {
		if !b.storage.HasComponent(id, ct) {
			return false
		}
	}
	return true
}
