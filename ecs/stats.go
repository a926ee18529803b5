package ecs

import "slices"

// StorageStats is a point-in-time summary of a Storage.
type StorageStats struct {
	EntityCount        int
	RecycledCount      int
	NextId             EntityId
	ComponentTypeCount int
	ComponentBreakdown []ComponentStats
}

// ComponentStats reports how many entities hold one component type.
type ComponentStats struct {
	Type        ComponentType
	Name        string
	EntityCount int
}

// CollectStats summarizes the store. Only component types currently held by
// at least one entity appear in the breakdown.
func (s *Storage) CollectStats() *StorageStats {
	stats := &StorageStats{
		EntityCount:        s.entities.Len(),
		RecycledCount:      len(s.recycled),
		NextId:             s.nextId,
		ComponentTypeCount: len(s.components),
		ComponentBreakdown: make([]ComponentStats, 0, len(s.components)),
	}

	for ct, bucket := range s.components {
		stats.ComponentBreakdown = append(stats.ComponentBreakdown, ComponentStats{
			Type:        ct,
			Name:        s.registry.Name(ct),
			EntityCount: bucket.Len(),
		})
	}
	slices.SortFunc(stats.ComponentBreakdown, func(a, b ComponentStats) int {
		return int(a.Type) - int(b.Type)
	})

	return stats
}
