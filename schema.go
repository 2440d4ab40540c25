package rankdex

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "rankdex"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ reflect.Type // struct type for reconstruction
	ptr bool         // T is a pointer to the struct

	// Field index in the struct for each role.
	idIdx       int
	documentIdx int // -1 if not present
	vectorIdx   int // -1 if not present

	// Mapping from struct field index → record field name.
	tagFields     []fieldMapping
	numericFields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts rankdex struct tag metadata.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	ptr := t != nil && t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("rankdex: type %v is not a struct", t)
	}

	meta := &schemaMeta{
		typ: t, ptr: ptr, idIdx: -1, documentIdx: -1, vectorIdx: -1,
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	return validateSchema(meta, t)
}

// applyTag processes a single struct field's rankdex tag.
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	parts := strings.SplitN(tag, ",", 2)
	name := parts[0]
	modifier := ""
	if len(parts) == 2 {
		modifier = parts[1]
	}

	switch modifier {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("rankdex: duplicate id tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("rankdex: id field %s must be a string", f.Name)
		}
		meta.idIdx = idx
	case "document":
		if meta.documentIdx != -1 {
			return fmt.Errorf("rankdex: duplicate document tag on field %s", f.Name)
		}
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("rankdex: document field %s must be a string", f.Name)
		}
		meta.documentIdx = idx
	case "vector":
		if meta.vectorIdx != -1 {
			return fmt.Errorf("rankdex: duplicate vector tag on field %s", f.Name)
		}
		if f.Type != reflect.TypeOf([]float32(nil)) {
			return fmt.Errorf("rankdex: vector field %s must be []float32", f.Name)
		}
		meta.vectorIdx = idx
	case "tag":
		meta.tagFields = append(meta.tagFields, fieldMapping{structIdx: idx, name: name})
	case "numeric":
		meta.numericFields = append(meta.numericFields, fieldMapping{structIdx: idx, name: name})
	default:
		return fmt.Errorf("rankdex: unknown modifier %q on field %s", modifier, f.Name)
	}
	return nil
}

func validateSchema(meta *schemaMeta, t reflect.Type) (*schemaMeta, error) {
	if meta.idIdx == -1 {
		return nil, fmt.Errorf("rankdex: no field with `rankdex:\"...,id\"` tag in %s", t)
	}
	for _, fm := range append(meta.tagFields, meta.numericFields...) {
		if fm.name == "" {
			return nil, fmt.Errorf("rankdex: empty field name on %s.%s", t, t.Field(fm.structIdx).Name)
		}
	}
	return meta, nil
}

// toRecord converts a typed struct to Record using schema metadata.
func (m *schemaMeta) toRecord(item any) Record {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	rec := Record{ID: fmt.Sprint(v.Field(m.idIdx).Interface())}
	if m.documentIdx != -1 {
		rec.Document = v.Field(m.documentIdx).String()
	}
	if m.vectorIdx != -1 {
		rec.Vector, _ = v.Field(m.vectorIdx).Interface().([]float32)
	}

	if len(m.tagFields) > 0 {
		rec.Tags = make(map[string]string, len(m.tagFields))
		for _, tf := range m.tagFields {
			rec.Tags[tf.name] = fmt.Sprint(v.Field(tf.structIdx).Interface())
		}
	}
	if len(m.numericFields) > 0 {
		rec.Numerics = make(map[string]float64, len(m.numericFields))
		for _, nf := range m.numericFields {
			rec.Numerics[nf.name] = toFloat64(v.Field(nf.structIdx))
		}
	}
	return rec
}

// fromRecord converts a Record back to a typed struct using schema metadata.
func (m *schemaMeta) fromRecord(rec Record) any {
	v := reflect.New(m.typ).Elem()

	v.Field(m.idIdx).SetString(rec.ID)
	if m.documentIdx != -1 {
		v.Field(m.documentIdx).SetString(rec.Document)
	}
	if m.vectorIdx != -1 && rec.Vector != nil {
		v.Field(m.vectorIdx).Set(reflect.ValueOf(rec.Vector))
	}
	for _, tf := range m.tagFields {
		if val, ok := rec.Tags[tf.name]; ok {
			v.Field(tf.structIdx).SetString(val)
		}
	}
	for _, nf := range m.numericFields {
		if val, ok := rec.Numerics[nf.name]; ok {
			setFloat(v.Field(nf.structIdx), val)
		}
	}
	if m.ptr {
		return v.Addr().Interface()
	}
	return v.Interface()
}

func toFloat64(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return 0
	}
}

func setFloat(v reflect.Value, f float64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(f))
	}
}
