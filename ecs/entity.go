package ecs

// EntityId is an opaque entity identifier. An id is live from CreateEntity
// until RemoveEntity, after which it may be handed out again.
type EntityId uint32
