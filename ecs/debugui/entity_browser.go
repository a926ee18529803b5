package debugui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plus3/fission/ecs"
)

// Browser columns accepted by SortBy.
const (
	ColumnID = iota
	ColumnComponents
	ColumnCount
)

type EntityRow struct {
	ID         ecs.EntityId
	Components []string
}

// EntityBrowser lists live entities with the names of their components. The
// list is rebuilt lazily: any store message marks it stale and the next
// Refresh rebuilds it.
type EntityBrowser struct {
	storage       *ecs.Storage
	subscriptions []ecs.Subscription

	rows          []EntityRow
	stale         bool
	sortColumn    int
	sortAscending bool

	Filter   string
	PageSize int
	page     int

	selected    ecs.EntityId
	hasSelected bool
}

func NewEntityBrowser(storage *ecs.Storage, pageSize int) *EntityBrowser {
	b := &EntityBrowser{
		storage:       storage,
		stale:         true,
		sortAscending: true,
		PageSize:      max(pageSize, 1),
	}

	markStale := func(ecs.Message) error {
		b.stale = true
		return nil
	}
	for _, mt := range []ecs.MessageType{ecs.EntityCreated, ecs.EntityRemoved, ecs.ComponentAdded, ecs.ComponentRemoved} {
		b.subscriptions = append(b.subscriptions, storage.Dispatcher().Subscribe(mt, markStale))
	}
	return b
}

// Close stops listening to the store.
func (b *EntityBrowser) Close() {
	for _, sub := range b.subscriptions {
		b.storage.Dispatcher().Unsubscribe(sub)
	}
	b.subscriptions = nil
}

// Stale reports whether the store changed since the last Refresh.
func (b *EntityBrowser) Stale() bool {
	return b.stale
}

func (b *EntityBrowser) Refresh() {
	if !b.stale {
		return
	}

	registry := b.storage.Registry()
	ids := b.storage.Entities()
	b.rows = b.rows[:0]
	for _, id := range ids {
		components := b.storage.ComponentsOf(id)
		types := make([]ecs.ComponentType, 0, len(components))
		for ct := range components {
			types = append(types, ct)
		}
		slices.Sort(types)

		names := make([]string, len(types))
		for i, ct := range types {
			names[i] = registry.Name(ct)
		}
		b.rows = append(b.rows, EntityRow{ID: id, Components: names})
	}

	b.stale = false
	b.sort()
}

func (b *EntityBrowser) SortBy(column int, ascending bool) {
	b.sortColumn = column
	b.sortAscending = ascending
	b.sort()
}

func (b *EntityBrowser) sort() {
	slices.SortStableFunc(b.rows, func(x, y EntityRow) int {
		var c int
		switch b.sortColumn {
		case ColumnComponents:
			c = strings.Compare(strings.Join(x.Components, ","), strings.Join(y.Components, ","))
		case ColumnCount:
			c = len(x.Components) - len(y.Components)
		}
		if c == 0 {
			c = int(x.ID) - int(y.ID)
		}
		if !b.sortAscending {
			return -c
		}
		return c
	})
}

// Rows returns the rows matching Filter, in display order. The filter
// matches the entity id or, case-insensitively, any component name.
func (b *EntityBrowser) Rows() []EntityRow {
	if b.Filter == "" {
		return b.rows
	}

	needle := strings.ToLower(b.Filter)
	rows := make([]EntityRow, 0, len(b.rows))
	for _, row := range b.rows {
		if strings.Contains(fmt.Sprint(row.ID), needle) ||
			strings.Contains(strings.ToLower(strings.Join(row.Components, " ")), needle) {
			rows = append(rows, row)
		}
	}
	return rows
}

func (b *EntityBrowser) PageCount() int {
	return max(1, (len(b.Rows())+b.PageSize-1)/b.PageSize)
}

// Page returns the current page index, clamped to the rows that are left.
func (b *EntityBrowser) Page() int {
	b.page = min(b.page, b.PageCount()-1)
	return b.page
}

func (b *EntityBrowser) NextPage() {
	b.page = min(b.Page()+1, b.PageCount()-1)
}

func (b *EntityBrowser) PrevPage() {
	b.page = max(b.Page()-1, 0)
}

// PageRows returns the filtered rows on the current page.
func (b *EntityBrowser) PageRows() []EntityRow {
	rows := b.Rows()
	start := b.Page() * b.PageSize
	end := min(start+b.PageSize, len(rows))
	return rows[start:end]
}

func (b *EntityBrowser) Select(id ecs.EntityId) {
	b.selected = id
	b.hasSelected = true
}

// Selected returns the selected entity. The selection is dropped once the
// entity is removed.
func (b *EntityBrowser) Selected() (ecs.EntityId, bool) {
	if b.hasSelected && !b.storage.IsAlive(b.selected) {
		b.hasSelected = false
	}
	return b.selected, b.hasSelected
}
