package ecs

import (
	"fmt"
	"math"
	"reflect"
)

// ComponentType is the tag identifying a kind of component. Tags are handed
// out densely, starting at zero, by a ComponentRegistry.
type ComponentType uint16

type componentInfo struct {
	goType reflect.Type
	box    func(item any) (any, bool)
}

// ComponentRegistry assigns a ComponentType to every Go type used as a
// component. Each Storage owns exactly one registry, so several independent
// worlds can coexist without sharing tags.
type ComponentRegistry struct {
	types map[reflect.Type]ComponentType
	infos []componentInfo
}

// NewComponentRegistry creates an empty component registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		types: make(map[reflect.Type]ComponentType),
	}
}

// RegisterComponent registers T as a component type and returns its tag.
// Registering the same type again returns the existing tag.
func RegisterComponent[T any](r *ComponentRegistry) ComponentType {
	t := reflect.TypeFor[T]()
	if ct, ok := r.types[t]; ok {
		return ct
	}

	// Components can be structs or primitives (int, string, etc.)
	// but not pointers, maps, channels, or functions
	switch t.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		panic("ecs: components cannot be pointers, maps, channels, functions or interfaces: " + t.String())
	}

	if len(r.infos) > math.MaxUint16 {
		panic("ecs: too many component types")
	}

	ct := ComponentType(len(r.infos))
	r.types[t] = ct
	r.infos = append(r.infos, componentInfo{
		goType: t,
		box: func(item any) (any, bool) {
			if ptr, ok := item.(*T); ok {
				return ptr, ptr != nil
			}
			if val, ok := item.(T); ok {
				return &val, true
			}
			return nil, false
		},
	})
	return ct
}

// ComponentTypeOf returns the tag registered for T. It panics if T was never
// registered, which is a wiring mistake rather than a runtime condition.
func ComponentTypeOf[T any](r *ComponentRegistry) ComponentType {
	ct, ok := r.Lookup(reflect.TypeFor[T]())
	if !ok {
		panic("ecs: component type " + reflect.TypeFor[T]().String() + " not registered")
	}
	return ct
}

// Lookup returns the tag registered for the given Go type.
func (r *ComponentRegistry) Lookup(t reflect.Type) (ComponentType, bool) {
	ct, ok := r.types[t]
	return ct, ok
}

// Name returns a human readable name for the tag.
func (r *ComponentRegistry) Name(ct ComponentType) string {
	if int(ct) >= len(r.infos) {
		return fmt.Sprintf("unknown(%d)", ct)
	}
	return r.infos[ct].goType.String()
}

// Type returns the Go type registered under the tag, or nil.
func (r *ComponentRegistry) Type(ct ComponentType) reflect.Type {
	if int(ct) >= len(r.infos) {
		return nil
	}
	return r.infos[ct].goType
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return len(r.infos)
}

// box resolves the tag of a component value and returns the pointer the
// store keeps for it. Values are copied, pointers are kept as given.
func (r *ComponentRegistry) box(component any) (ComponentType, any, error) {
	t := reflect.TypeOf(component)
	if t == nil {
		return 0, nil, fmt.Errorf("%w: nil component", ErrComponentNotRegistered)
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	ct, ok := r.types[t]
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", ErrComponentNotRegistered, t)
	}

	value, ok := r.infos[ct].box(component)
	if !ok {
		return 0, nil, fmt.Errorf("ecs: nil %s component", t)
	}
	return ct, value, nil
}
