package debugui

import (
	"slices"

	"github.com/plus3/fission/ecs"
)

type TypeOption struct {
	Type     ecs.ComponentType
	Name     string
	Selected bool
}

// QueryDebugger runs ad-hoc joins over a chosen set of component types.
type QueryDebugger struct {
	storage  *ecs.Storage
	selected map[ecs.ComponentType]bool
}

func NewQueryDebugger(storage *ecs.Storage) *QueryDebugger {
	return &QueryDebugger{
		storage:  storage,
		selected: make(map[ecs.ComponentType]bool),
	}
}

// Options lists every registered component type in tag order.
func (qd *QueryDebugger) Options() []TypeOption {
	registry := qd.storage.Registry()
	options := make([]TypeOption, registry.Len())
	for i := range options {
		ct := ecs.ComponentType(i)
		options[i] = TypeOption{Type: ct, Name: registry.Name(ct), Selected: qd.selected[ct]}
	}
	return options
}

func (qd *QueryDebugger) SetSelected(ct ecs.ComponentType, selected bool) {
	if selected {
		qd.selected[ct] = true
	} else {
		delete(qd.selected, ct)
	}
}

func (qd *QueryDebugger) Clear() {
	clear(qd.selected)
}

func (qd *QueryDebugger) Selected() []ecs.ComponentType {
	types := make([]ecs.ComponentType, 0, len(qd.selected))
	for ct := range qd.selected {
		types = append(types, ct)
	}
	slices.Sort(types)
	return types
}

// Results returns the entities holding every selected type. With nothing
// selected there is no query and the result is empty.
func (qd *QueryDebugger) Results() []ecs.EntityId {
	if len(qd.selected) == 0 {
		return []ecs.EntityId{}
	}
	return qd.storage.EntitiesWithTypes(qd.Selected()...)
}

// MatchingSystems names the systems whose required types are exactly the
// selection, so their caches should equal Results.
func (qd *QueryDebugger) MatchingSystems(manager *ecs.SystemManager) []ecs.System {
	selected := qd.Selected()
	var systems []ecs.System
	for _, system := range manager.Systems() {
		required := slices.Clone(system.Required())
		slices.Sort(required)
		if slices.Equal(slices.Compact(required), selected) {
			systems = append(systems, system)
		}
	}
	return systems
}
