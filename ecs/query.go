package ecs

import "iter"

// Query is a system base whose required component types are the required
// fields of T, declared the way a View declares them. Embed it instead of
// Base to iterate the cached entities as populated T values:
//
//	type MovementSystem struct {
//		ecs.Query[struct {
//			*Position
//			*Velocity
//		}]
//	}
//
// The view is built when the system is added to a manager.
type Query[T any] struct {
	Base
	view *View[T]
}

// Register builds the view against the manager's store and binds the query.
func (q *Query[T]) Register(manager *SystemManager) error {
	if q.manager != nil {
		return ErrSystemAlreadyRegistered
	}

	view := NewView[T](manager.Storage())
	q.Base = NewBase(view.Types()...)
	q.view = view
	return q.Base.Register(manager)
}

// View returns the query's view, or nil before registration.
func (q *Query[T]) View() *View[T] {
	return q.view
}

// Iter yields each cached entity with its populated view struct. The cache
// is snapshotted when iteration starts; entities that stop matching before
// they are reached are skipped.
func (q *Query[T]) Iter() iter.Seq2[EntityId, T] {
	return func(yield func(EntityId, T) bool) {
		if q.view == nil {
			return
		}

		var result T
		for _, id := range q.Entities() {
			if !q.Tracks(id) || !q.view.Fill(id, &result) {
				continue
			}
			if !yield(id, result) {
				return
			}
		}
	}
}

// Values yields the populated view structs only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}
