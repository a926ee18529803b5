package ecs

import "errors"

var (
	// ErrEntityNotAlive is returned when an operation targets an id that is
	// not currently live (never created, or already removed).
	ErrEntityNotAlive = errors.New("ecs: entity is not alive")

	// ErrComponentNotRegistered is returned when a component's Go type was
	// never passed to RegisterComponent.
	ErrComponentNotRegistered = errors.New("ecs: component type not registered")

	// ErrDuplicateSystem is returned by AddSystem when a system of the same
	// concrete type is already managed.
	ErrDuplicateSystem = errors.New("ecs: system of this kind already added")

	// ErrSystemAlreadyRegistered is returned when a system is bound to a
	// manager twice.
	ErrSystemAlreadyRegistered = errors.New("ecs: system already registered")
)
