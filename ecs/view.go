package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// View gives typed access to an entity's components.
// The type T should be a struct with embedded or named pointer fields, one
// per component type. An EntityId field, if present, receives the entity id.
// Named fields can be marked as optional using the `ecs:"optional"` struct tag
type View[T any] struct {
	storage     *Storage
	types       []ComponentType
	optional    []bool
	fieldOffset []uintptr

	entityOffset uintptr
	hasEntity    bool
}

// NewView creates a new view for the given struct type. Every component
// field type must already be registered with the store's registry.
func NewView[T any](storage *Storage) *View[T] {
	structType := reflect.TypeFor[T]()
	if structType.Kind() != reflect.Struct {
		panic("ecs: View type parameter must be a struct")
	}

	v := &View[T]{
		storage:     storage,
		types:       make([]ComponentType, 0, structType.NumField()),
		optional:    make([]bool, 0, structType.NumField()),
		fieldOffset: make([]uintptr, 0, structType.NumField()),
	}

	entityType := reflect.TypeFor[EntityId]()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == entityType {
			v.entityOffset = field.Offset
			v.hasEntity = true
			continue
		}

		if field.Type.Kind() != reflect.Ptr {
			panic("ecs: View struct fields must be pointer types")
		}

		ct, ok := storage.Registry().Lookup(field.Type.Elem())
		if !ok {
			panic("ecs: component type " + field.Type.Elem().String() + " not registered")
		}

		// Embedded fields are always required
		isOptional := false
		if !field.Anonymous {
			tag := field.Tag.Get("ecs")
			if tag != "" {
				if tag == "optional" {
					isOptional = true
				} else {
					panic("ecs: invalid ecs tag value: \"" + tag + "\" (only \"optional\" is supported)")
				}
			}
		}

		v.types = append(v.types, ct)
		v.optional = append(v.optional, isOptional)
		v.fieldOffset = append(v.fieldOffset, field.Offset)
	}

	return v
}

// Types returns the required (non-optional) component types of the view.
// It is suitable for NewBase.
func (v *View[T]) Types() []ComponentType {
	required := make([]ComponentType, 0, len(v.types))
	for i, ct := range v.types {
		if !v.optional[i] {
			required = append(required, ct)
		}
	}
	return required
}

// Fill populates the provided struct pointer with component data for the given entity
// Returns false if the entity is not live or is missing any required components
// Optional components are set to nil if not present
func (v *View[T]) Fill(id EntityId, ptr *T) bool {
	if !v.storage.IsAlive(id) {
		return false
	}

	// Use unsafe.Pointer to directly access the struct's memory
	// This avoids reflection overhead in the hot path
	structPtr := unsafe.Pointer(ptr)

	for i, ct := range v.types {
		component := v.storage.GetComponent(id, ct)
		fieldPtr := unsafe.Add(structPtr, v.fieldOffset[i])

		if component == nil {
			if !v.optional[i] {
				return false
			}
			*(*unsafe.Pointer)(fieldPtr) = nil
			continue
		}

		// the store keeps *T values, so the interface data word is the pointer
		*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&component)).data
	}

	if v.hasEntity {
		*(*EntityId)(unsafe.Add(structPtr, v.entityOffset)) = id
	}
	return true
}

// Get returns a populated view struct for the given entity, or nil if the entity
// doesn't have all the required components
func (v *View[T]) Get(id EntityId) *T {
	var result T
	if !v.Fill(id, &result) {
		return nil
	}
	return &result
}

// GetRef returns a populated view struct for the given entity ref, or nil if invalid
func (v *View[T]) GetRef(ref *EntityRef) *T {
	id, ok := v.storage.ResolveEntityRef(ref)
	if !ok {
		return nil
	}
	return v.Get(id)
}

// Iter yields a populated view struct for each of the given entities that
// holds the required components, skipping the others.
func (v *View[T]) Iter(ids []EntityId) iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		var result T
		for _, id := range ids {
			if !v.Fill(id, &result) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}
