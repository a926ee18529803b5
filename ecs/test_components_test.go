package ecs_test

import (
	"testing"

	"github.com/plus3/fission/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Glyph struct {
	Rune string
}

type Health struct {
	Current int
	Max     int
}

type Name struct {
	Value string
}

// Custom primitive type for testing non-struct components
type Score int32

type testTypes struct {
	Position ecs.ComponentType
	Velocity ecs.ComponentType
	Glyph    ecs.ComponentType
	Health   ecs.ComponentType
	Name     ecs.ComponentType
	Score    ecs.ComponentType
}

func newTestRegistry() (*ecs.ComponentRegistry, testTypes) {
	registry := ecs.NewComponentRegistry()
	types := testTypes{
		Position: ecs.RegisterComponent[Position](registry),
		Velocity: ecs.RegisterComponent[Velocity](registry),
		Glyph:    ecs.RegisterComponent[Glyph](registry),
		Health:   ecs.RegisterComponent[Health](registry),
		Name:     ecs.RegisterComponent[Name](registry),
		Score:    ecs.RegisterComponent[Score](registry),
	}
	return registry, types
}

// newTestWorld wires a dispatcher, a store and a system manager together.
func newTestWorld() (*ecs.Storage, *ecs.SystemManager, testTypes) {
	registry, types := newTestRegistry()
	dispatcher := ecs.NewDispatcher()
	storage := ecs.NewStorage(registry, dispatcher)
	manager := ecs.NewSystemManager(storage, dispatcher)
	return storage, manager, types
}

// messageLog records every store message in delivery order.
type messageLog struct {
	messages []ecs.Message
}

func recordMessages(dispatcher *ecs.Dispatcher) *messageLog {
	log := &messageLog{}
	record := func(msg ecs.Message) error {
		log.messages = append(log.messages, msg)
		return nil
	}
	dispatcher.Subscribe(ecs.EntityCreated, record)
	dispatcher.Subscribe(ecs.EntityRemoved, record)
	dispatcher.Subscribe(ecs.ComponentAdded, record)
	dispatcher.Subscribe(ecs.ComponentRemoved, record)
	return log
}

func (l *messageLog) reset() {
	l.messages = nil
}

func (l *messageLog) types() []ecs.MessageType {
	types := make([]ecs.MessageType, len(l.messages))
	for i, msg := range l.messages {
		types[i] = msg.Type
	}
	return types
}

func mustCreate(t testing.TB, storage *ecs.Storage, components ...any) ecs.EntityId {
	t.Helper()
	id, err := storage.CreateEntity()
	if err != nil {
		t.Fatalf("create entity: %v", err)
	}
	for _, component := range components {
		if err := storage.AddComponent(id, component); err != nil {
			t.Fatalf("add component %T: %v", component, err)
		}
	}
	return id
}
