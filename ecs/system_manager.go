package ecs

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about system execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	EntityCount    int
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func (s *systemStatsInternal) record(duration time.Duration) {
	s.executionCount++
	s.lastDuration = duration
	s.totalDuration += duration

	if duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
}

type registration struct {
	system System
	kind   reflect.Type
	name   string
	stats  systemStatsInternal
}

// SystemManager owns the active systems and keeps each system's entity cache
// equal to the set of live entities holding its required component types.
// It listens to the store's messages and refreshes only the systems an event
// can affect, so a mutation costs work proportional to the systems requiring
// the touched type rather than a rescan of every entity.
//
// Systems run in the order they were added. A SystemManager is not safe for
// concurrent use.
type SystemManager struct {
	storage    *Storage
	dispatcher *Dispatcher
	logger     *zap.Logger

	// slices below are replaced, never modified in place, so handlers that
	// add or remove systems cannot disturb an iteration in progress
	systems     []*registration
	byKind      map[reflect.Type]*registration
	byComponent map[ComponentType][]*registration
	// systems without required types track every live entity
	unconstrained []*registration

	subscriptions []Subscription
}

// NewSystemManager creates a manager over storage and subscribes it to the
// store's messages on dispatcher, which must be the store's own dispatcher.
func NewSystemManager(storage *Storage, dispatcher *Dispatcher, opts ...Option) *SystemManager {
	if storage.Dispatcher() != dispatcher {
		panic("ecs: storage and system manager must share a dispatcher")
	}

	o := buildOptions(opts)
	m := &SystemManager{
		storage:     storage,
		dispatcher:  dispatcher,
		logger:      o.logger,
		byKind:      make(map[reflect.Type]*registration),
		byComponent: make(map[ComponentType][]*registration),
	}

	m.subscriptions = []Subscription{
		dispatcher.Subscribe(EntityCreated, m.onEntityCreated),
		dispatcher.Subscribe(EntityRemoved, m.onEntityRemoved),
		dispatcher.Subscribe(ComponentAdded, m.onComponentChanged),
		dispatcher.Subscribe(ComponentRemoved, m.onComponentChanged),
	}
	return m
}

// Storage returns the managed store.
func (m *SystemManager) Storage() *Storage {
	return m.storage
}

// Dispatcher returns the shared dispatcher.
func (m *SystemManager) Dispatcher() *Dispatcher {
	return m.dispatcher
}

// AddSystem registers the system, runs its Init hook if it has one, fills its
// cache and schedules it after the systems already added. Only one system of
// each concrete type may be added; a second one is rejected with
// ErrDuplicateSystem and the first keeps its cache.
func (m *SystemManager) AddSystem(system System) error {
	kind := reflect.TypeOf(system)
	name := systemName(kind)

	if _, exists := m.byKind[kind]; exists {
		m.logger.Warn("system already added", zap.String("system", name))
		return fmt.Errorf("add system %s: %w", name, ErrDuplicateSystem)
	}

	if err := system.Register(m); err != nil {
		return fmt.Errorf("add system %s: %w", name, err)
	}

	if initializer, ok := system.(Initializer); ok {
		if err := initializer.Init(m); err != nil {
			system.Unregister()
			return fmt.Errorf("init system %s: %w", name, err)
		}
	}

	system.RefreshAllEntities()

	reg := &registration{
		system: system,
		kind:   kind,
		name:   name,
		stats: systemStatsInternal{
			minDuration: time.Duration(1<<63 - 1),
		},
	}

	m.systems = append(slices.Clip(m.systems), reg)
	m.byKind[kind] = reg

	required := system.Required()
	if len(required) == 0 {
		m.unconstrained = append(slices.Clip(m.unconstrained), reg)
	}
	for _, ct := range required {
		m.byComponent[ct] = append(slices.Clip(m.byComponent[ct]), reg)
	}

	m.logger.Debug("system added",
		zap.String("system", name),
		zap.Int("required", len(required)))
	return nil
}

// RemoveSystem unregisters the system and reports whether it was managed.
func (m *SystemManager) RemoveSystem(system System) bool {
	kind := reflect.TypeOf(system)
	reg, ok := m.byKind[kind]
	if !ok || reg.system != system {
		return false
	}

	delete(m.byKind, kind)
	m.systems = without(m.systems, reg)
	m.unconstrained = without(m.unconstrained, reg)
	for _, ct := range system.Required() {
		if regs := without(m.byComponent[ct], reg); len(regs) > 0 {
			m.byComponent[ct] = regs
		} else {
			delete(m.byComponent, ct)
		}
	}

	system.Unregister()
	m.logger.Debug("system removed", zap.String("system", reg.name))
	return true
}

// Systems returns the managed systems in execution order.
func (m *SystemManager) Systems() []System {
	systems := make([]System, len(m.systems))
	for i, reg := range m.systems {
		systems[i] = reg.system
	}
	return systems
}

// Update runs every system once with the given delta time, then applies the
// commands they queued. The first failing system aborts the tick.
func (m *SystemManager) Update(dt float64) error {
	frame := newUpdateFrame(dt, m.storage)

	for _, reg := range m.systems {
		start := time.Now()
		err := reg.system.Update(frame)
		reg.stats.record(time.Since(start))

		if err != nil {
			return fmt.Errorf("update system %s: %w", reg.name, err)
		}
	}

	if err := frame.Commands.Flush(m.storage); err != nil {
		return fmt.Errorf("flush commands: %w", err)
	}
	return nil
}

// Run updates all systems repeatedly at the given interval until the context
// is cancelled, which returns nil, or a tick fails, which returns its error.
func (m *SystemManager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			if err := m.Update(dt); err != nil {
				return err
			}
		}
	}
}

// Stats returns statistics about system execution.
func (m *SystemManager) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(m.systems),
		Systems:     make([]SystemStats, len(m.systems)),
	}

	var totalExecs int64
	for i, reg := range m.systems {
		internal := reg.stats

		avgDuration := time.Duration(0)
		minDuration := internal.minDuration
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
		} else {
			minDuration = 0
		}

		entityCount := 0
		if counter, ok := reg.system.(interface{ Len() int }); ok {
			entityCount = counter.Len()
		}

		stats.Systems[i] = SystemStats{
			Name:           reg.name,
			EntityCount:    entityCount,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}

// Close unsubscribes the manager from the dispatcher. Caches stop being
// maintained afterwards.
func (m *SystemManager) Close() {
	for _, sub := range m.subscriptions {
		m.dispatcher.Unsubscribe(sub)
	}
	m.subscriptions = nil
}

func (m *SystemManager) onEntityCreated(msg Message) error {
	for _, reg := range m.unconstrained {
		reg.system.RefreshEntity(msg.Entity)
	}
	return nil
}

// The store strips every component before announcing the removal, so a
// refresh evicts the id from every cache still holding it.
func (m *SystemManager) onEntityRemoved(msg Message) error {
	for _, reg := range m.systems {
		if reg.system.Tracks(msg.Entity) {
			reg.system.RefreshEntity(msg.Entity)
		}
	}
	return nil
}

func (m *SystemManager) onComponentChanged(msg Message) error {
	for _, reg := range m.byComponent[msg.Component] {
		reg.system.RefreshEntity(msg.Entity)
	}
	return nil
}

func without(regs []*registration, reg *registration) []*registration {
	idx := slices.Index(regs, reg)
	if idx < 0 {
		return regs
	}

	next := make([]*registration, 0, len(regs)-1)
	next = append(next, regs[:idx]...)
	return append(next, regs[idx+1:]...)
}

func systemName(kind reflect.Type) string {
	if kind == nil {
		return "<nil>"
	}
	if kind.Kind() == reflect.Ptr {
		kind = kind.Elem()
	}
	return kind.Name()
}
