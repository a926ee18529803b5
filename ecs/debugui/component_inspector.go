package debugui

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/plus3/fission/ecs"
)

type FieldInfo struct {
	Name      string
	Index     int
	Type      reflect.Type
	IsPointer bool
}

var fieldCache sync.Map // reflect.Type -> []FieldInfo

// fieldsOf lists the exported fields of a struct type. Pointer fields
// report their element type.
func fieldsOf(t reflect.Type) []FieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]FieldInfo)
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := range t.NumField() {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			info := FieldInfo{Name: sf.Name, Index: i, Type: sf.Type}
			if sf.Type.Kind() == reflect.Pointer {
				info.Type = sf.Type.Elem()
				info.IsPointer = true
			}
			fields = append(fields, info)
		}
	}

	cached, _ := fieldCache.LoadOrStore(t, fields)
	return cached.([]FieldInfo)
}

// Field is one editable value inside a component. Value aliases the stored
// component, so writes through Set land in the store directly.
type Field struct {
	FieldInfo
	Value reflect.Value
}

// IsNil reports a nil pointer field.
func (f Field) IsNil() bool {
	return !f.Value.IsValid()
}

// Fields lists the nested fields of a struct-valued field.
func (f Field) Fields() []Field {
	if f.IsNil() || f.Value.Kind() != reflect.Struct {
		return nil
	}
	return fieldValues(f.Value)
}

// Set assigns v to the field, converting between numeric kinds.
func (f Field) Set(v any) error {
	if f.IsNil() || !f.Value.CanSet() {
		return fmt.Errorf("field %s is not settable", f.Name)
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Type().ConvertibleTo(f.Value.Type()) {
		return fmt.Errorf("field %s: cannot assign %T to %s", f.Name, v, f.Value.Type())
	}
	f.Value.Set(rv.Convert(f.Value.Type()))
	return nil
}

func fieldValues(v reflect.Value) []Field {
	infos := fieldsOf(v.Type())
	fields := make([]Field, 0, len(infos))
	for _, info := range infos {
		fv := v.Field(info.Index)
		if info.IsPointer {
			if fv.IsNil() {
				fv = reflect.Value{}
			} else {
				fv = fv.Elem()
			}
		}
		fields = append(fields, Field{FieldInfo: info, Value: fv})
	}
	return fields
}

// InspectedComponent is one component held by the inspected entity.
type InspectedComponent struct {
	Type   ecs.ComponentType
	Name   string
	Value  reflect.Value
	Fields []Field
}

type ComponentInspector struct {
	storage *ecs.Storage
}

func NewComponentInspector(storage *ecs.Storage) *ComponentInspector {
	return &ComponentInspector{storage: storage}
}

// Inspect returns the entity's components in type tag order. Dead entities
// have none.
func (ci *ComponentInspector) Inspect(id ecs.EntityId) []InspectedComponent {
	components := ci.storage.ComponentsOf(id)
	inspected := make([]InspectedComponent, 0, len(components))
	for ct, component := range components {
		value := reflect.ValueOf(component).Elem()
		entry := InspectedComponent{
			Type:  ct,
			Name:  ci.storage.Registry().Name(ct),
			Value: value,
		}
		if value.Kind() == reflect.Struct {
			entry.Fields = fieldValues(value)
		}
		inspected = append(inspected, entry)
	}

	slices.SortFunc(inspected, func(a, b InspectedComponent) int {
		return int(a.Type) - int(b.Type)
	})
	return inspected
}
