package utils

import (
	"reflect"
	"strings"
)

// Fields tagged `normalize:"-"` are left untouched (e.g. quantities with more than two decimals).
const normalizeTag = "normalize"

// NormalizePtrDTO trims *string fields and rounds *float64 fields on a pointer-to-struct DTO.
// Only non-nil pointer fields are touched; nils stay nil so GORM won't update them.
func NormalizePtrDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if skipField(t.Field(i)) || f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		normalizeValue(f.Elem())
	}
}

// NormalizeDTO trims string fields and rounds float64 fields on a pointer-to-struct DTO.
// Nested structs, pointers to structs and slices of structs are walked as well, so an invoice
// request normalises its items.
func NormalizeDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	normalizeStruct(s)
}

func normalizeStruct(s reflect.Value) {
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		if skipField(t.Field(i)) {
			continue
		}
		normalizeValue(s.Field(i))
	}
}

func normalizeValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.String:
		if v.CanSet() {
			v.SetString(strings.TrimSpace(v.String()))
		}
	case reflect.Float64:
		if v.CanSet() {
			v.SetFloat(Round2(v.Float()))
		}
	case reflect.Struct:
		normalizeStruct(v)
	case reflect.Ptr:
		if !v.IsNil() {
			normalizeValue(v.Elem())
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if e := v.Index(i); e.Kind() == reflect.Struct || e.Kind() == reflect.Ptr {
				normalizeValue(e)
			}
		}
	}
}

func structOf(dto any) (reflect.Value, bool) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, false
	}
	s := v.Elem()
	return s, s.Kind() == reflect.Struct
}

func skipField(sf reflect.StructField) bool {
	return !sf.IsExported() || sf.Tag.Get(normalizeTag) == "-"
}
