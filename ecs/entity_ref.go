package ecs

import "weak"

// EntityRef is a stable reference to an entity. Entity ids are recycled, so
// holding a bare id across frames can silently point at a different entity;
// a ref stops resolving as soon as the entity it was made for is removed.
type EntityRef struct {
	Id    EntityId
	valid bool
}

// CreateEntityRef returns the ref for a live entity, or nil for a non-live
// id. Repeated calls return the same ref while it is still referenced.
func (s *Storage) CreateEntityRef(id EntityId) *EntityRef {
	if !s.entities.Has(id) {
		return nil
	}

	// Check if we already have a ref for this entity
	if weakPtr, ok := s.refs.Get(id); ok {
		if ref := weakPtr.Value(); ref != nil {
			return ref
		}
		// Weak pointer is dead, remove it
		s.refs.Del(id)
	}

	ref := &EntityRef{Id: id, valid: true}
	s.refs.Put(id, weak.Make(ref))
	return ref
}

// ResolveEntityRef returns the id the ref points to, or false once the
// entity has been removed or the ref invalidated.
func (s *Storage) ResolveEntityRef(ref *EntityRef) (EntityId, bool) {
	if ref == nil || !ref.valid {
		return 0, false
	}
	return ref.Id, true
}

// InvalidateEntityRef detaches the ref from its entity without removing the
// entity. It reports false if the ref was already invalid.
func (s *Storage) InvalidateEntityRef(ref *EntityRef) bool {
	if ref == nil || !ref.valid {
		return false
	}

	if weakPtr, ok := s.refs.Get(ref.Id); ok && weakPtr.Value() == ref {
		s.refs.Del(ref.Id)
	}
	ref.valid = false
	return true
}

func (s *Storage) invalidateRef(id EntityId) {
	weakPtr, ok := s.refs.Get(id)
	if !ok {
		return
	}
	if ref := weakPtr.Value(); ref != nil {
		ref.valid = false
	}
	s.refs.Del(id)
}
