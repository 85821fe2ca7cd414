package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// InsertModel builds an INSERT from the db-tagged exported fields of model.
// Embedded structs are flattened. A field tagged `db:"col,omitempty"` is left
// out when it holds its zero value, so column defaults apply.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

type modelField struct {
	index     []int
	column    string
	omitempty bool
}

var modelPlans sync.Map // reflect.Type -> []modelField

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	fields := planFor(value.Type())
	cols := make([]string, 0, len(fields))
	vals := make([]any, 0, len(fields))
	for _, field := range fields {
		fv := value.FieldByIndex(field.index)
		if field.omitempty && fv.IsZero() {
			continue
		}
		cols = append(cols, field.column)
		vals = append(vals, fv.Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

func planFor(typ reflect.Type) []modelField {
	if cached, ok := modelPlans.Load(typ); ok {
		return cached.([]modelField)
	}
	fields := collectFields(typ, nil)
	modelPlans.Store(typ, fields)
	return fields
}

func collectFields(typ reflect.Type, parent []int) []modelField {
	var out []modelField
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		index := append(append([]int(nil), parent...), i)
		tag := strings.TrimSpace(field.Tag.Get("db"))

		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(field.Type, index)...)
			continue
		}
		if field.PkgPath != "" || tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		if col == "" || col == "-" {
			continue
		}
		item := modelField{index: index, column: col}
		for _, opt := range parts[1:] {
			if strings.TrimSpace(opt) == "omitempty" {
				item.omitempty = true
			}
		}
		out = append(out, item)
	}
	return out
}
