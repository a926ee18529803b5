package ecs_test

import (
	"fmt"

	"github.com/plus3/fission/ecs"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

// ExampleStorage demonstrates the basic API for managing entities and components.
// Storage is the core container for all entities and their component data, and
// it announces every change on its dispatcher.
func ExampleStorage() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	storage := ecs.NewStorage(registry, ecs.NewDispatcher())

	player, err := storage.CreateEntity()
	check(err)
	check(storage.AddComponent(player, Position{X: 10, Y: 20}))
	check(storage.AddComponent(player, Velocity{DX: 1, DY: 0}))
	check(storage.AddComponent(player, Health{Current: 100, Max: 100}))

	pos := ecs.ReadComponent[Position](storage, player)
	fmt.Printf("Player created at (%.0f, %.0f)\n", pos.X, pos.Y)

	pos.X = 15
	pos.Y = 25
	fmt.Printf("Player moved to (%.0f, %.0f)\n", pos.X, pos.Y)

	check(storage.RemoveEntity(player))
	fmt.Println("Player removed, alive:", storage.IsAlive(player))

	// Output:
	// Player created at (10, 20)
	// Player moved to (15, 25)
	// Player removed, alive: false
}

// ExampleStorage_recycling shows that removed ids are handed out again, most
// recently removed first.
func ExampleStorage_recycling() {
	registry := ecs.NewComponentRegistry()
	storage := ecs.NewStorage(registry, ecs.NewDispatcher())

	for range 3 {
		_, err := storage.CreateEntity()
		check(err)
	}
	check(storage.RemoveEntity(0))
	check(storage.RemoveEntity(2))

	first, _ := storage.CreateEntity()
	second, _ := storage.CreateEntity()
	third, _ := storage.CreateEntity()
	fmt.Println(first, second, third)

	// Output:
	// 2 0 3
}

// ExampleStorage_EntitiesWithTypes shows the join over component types that
// system caches are kept equal to.
func ExampleStorage_EntitiesWithTypes() {
	registry := ecs.NewComponentRegistry()
	position := ecs.RegisterComponent[Position](registry)
	glyph := ecs.RegisterComponent[Glyph](registry)
	storage := ecs.NewStorage(registry, ecs.NewDispatcher())

	for _, components := range [][]any{
		{Position{X: 1}, Glyph{Rune: "@"}},
		{Position{X: 2}},
		{Glyph{Rune: "#"}},
		{Glyph{Rune: "$"}, Position{X: 4}},
	} {
		id, err := storage.CreateEntity()
		check(err)
		for _, c := range components {
			check(storage.AddComponent(id, c))
		}
	}

	fmt.Println("with position:", storage.EntitiesWithType(position))
	fmt.Println("with position and glyph:", storage.EntitiesWithTypes(position, glyph))

	for id, c := range storage.ComponentsOfType(glyph) {
		if id == 3 {
			fmt.Println("entity 3 glyph:", c.(*Glyph).Rune)
		}
	}

	// Output:
	// with position: [0 1 3]
	// with position and glyph: [0 3]
	// entity 3 glyph: $
}
