package ecs

import "errors"

// Commands provides a buffer for deferred store operations that are executed
// at the end of a frame. Systems use it to change entities without touching
// the store while other systems are iterating over it.
type Commands struct {
	creates          []createCommand
	removes          []EntityId
	adds             []addComponentCommand
	componentRemoves []removeComponentCommand
	defers           []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type createCommand struct {
	components []any
}

type addComponentCommand struct {
	entity    EntityId
	component any
}

type removeComponentCommand struct {
	entity   EntityId
	compType ComponentType
}

// Defer queues a function to run after every other command.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Create queues the creation of an entity holding the given components.
func (c *Commands) Create(components ...any) {
	c.creates = append(c.creates, createCommand{components: components})
}

// Remove queues an entity removal.
func (c *Commands) Remove(entity EntityId) {
	c.removes = append(c.removes, entity)
}

// AddComponent queues a component addition.
func (c *Commands) AddComponent(entity EntityId, component any) {
	c.adds = append(c.adds, addComponentCommand{
		entity:    entity,
		component: component,
	})
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(entity EntityId, compType ComponentType) {
	c.componentRemoves = append(c.componentRemoves, removeComponentCommand{
		entity:   entity,
		compType: compType,
	})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.creates) + len(c.removes) + len(c.adds) + len(c.componentRemoves) + len(c.defers)
}

// Flush applies the queued commands to storage and resets the buffer.
// Entity removals run first, then component removals, component additions,
// creations and deferred functions. Component commands for entities removed
// in the same pass are dropped. Commands queued while flushing, by a deferred
// function or a message handler, run in a further pass before Flush returns.
// Every failing command is reported in the joined error; the remaining
// commands still run.
func (c *Commands) Flush(storage *Storage) error {
	var errs []error
	for c.Len() > 0 {
		pass := *c
		*c = Commands{}
		errs = append(errs, pass.apply(storage)...)
	}
	return errors.Join(errs...)
}

func (c *Commands) apply(storage *Storage) []error {
	var errs []error
	removed := make(map[EntityId]bool)

	for _, id := range c.removes {
		if removed[id] {
			continue
		}
		removed[id] = true
		if err := storage.RemoveEntity(id); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range c.componentRemoves {
		if removed[cmd.entity] {
			continue
		}
		if err := storage.RemoveComponent(cmd.entity, cmd.compType); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range c.adds {
		if removed[cmd.entity] {
			continue
		}
		if err := storage.AddComponent(cmd.entity, cmd.component); err != nil {
			errs = append(errs, err)
		}
	}

	for _, cmd := range c.creates {
		id, err := storage.CreateEntity()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, component := range cmd.components {
			if err := storage.AddComponent(id, component); err != nil {
				errs = append(errs, err)
			}
		}
	}

	for _, fn := range c.defers {
		fn()
	}
	return errs
}
