// Package tlv implements the two-digit ID / two-digit length data object format
// used by EMV merchant-presented QR payloads, and maps decoded objects into Go
// structures using struct tags.
package tlv

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own field mapping logic.
type Unmarshaler interface {
	UnmarshalTLV(f Field) error
}

// Unmarshal decodes a raw stream and maps it into a target Go struct.
func Unmarshal(data string, target interface{}) error {
	fields, err := DecodeStrict(data)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return UnmarshalFields(fields, target)
}

// UnmarshalFields maps pre-decoded fields to a target struct.
//
// Struct tags select the data object:
//
//	Name     string            `tlv:"59"`
//	Accounts []MerchantAccount `tlv:"26-50"`
//	Unknown  []bertlv.TLV      `tlv:",unknown"`
//
// A range matches every tag inside it; a slice field collects every match.
func UnmarshalFields(fields []Field, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}
	t := v.Type()

	consumed := make(map[int]bool)

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		tagConfig := fieldType.Tag.Get("tlv")

		if tagConfig == "" || tagConfig == ",unknown" || fieldType.Name == "Unknown" {
			continue
		}

		match, err := tagMatcher(strings.Split(tagConfig, ",")[0])
		if err != nil {
			return fmt.Errorf("field %s: %w", fieldType.Name, err)
		}

		for idx, f := range fields {
			if !match(f.Tag) {
				continue
			}
			if err := mapFieldToValue(f, field); err != nil {
				return fmt.Errorf("tag %s: %w", f.Tag, err)
			}
			consumed[idx] = true
		}
	}

	return handleUnknownFields(v, t, fields, consumed)
}

// tagMatcher understands a single tag ("59") or an inclusive range ("26-50").
func tagMatcher(spec string) (func(string) bool, error) {
	lo, hi, isRange := strings.Cut(spec, "-")
	if !isRange {
		tag, err := NormalizeTag(spec)
		if err != nil {
			return nil, err
		}
		return func(s string) bool { return s == tag }, nil
	}

	from, err := strconv.Atoi(lo)
	if err != nil {
		return nil, fmt.Errorf("%w: range %q", ErrInvalidTag, spec)
	}
	to, err := strconv.Atoi(hi)
	if err != nil || to < from {
		return nil, fmt.Errorf("%w: range %q", ErrInvalidTag, spec)
	}

	return func(s string) bool {
		if len(s) != TagSize || !isDigits(s) {
			return false
		}
		n, _ := strconv.Atoi(s)
		return n >= from && n <= to
	}, nil
}

// mapFieldToValue dispatches the field to the appropriate reflection logic.
func mapFieldToValue(f Field, target reflect.Value) error {
	// Slices of anything but bertlv nodes grow by one element per match
	if target.Kind() == reflect.Slice && target.Type() != reflect.TypeOf([]bertlv.TLV{}) {
		newElem := reflect.New(target.Type().Elem()).Elem()
		if err := decodeToValue(f, newElem); err != nil {
			return err
		}
		target.Set(reflect.Append(target, newElem))
		return nil
	}

	return decodeToValue(f, target)
}

// decodeToValue handles the leaf-node decoding logic (Custom Unmarshaler, string, struct).
func decodeToValue(f Field, target reflect.Value) error {
	// 1. Custom Unmarshaler
	if target.CanAddr() {
		if u, ok := target.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(f)
		}
	}
	if target.Kind() == reflect.Ptr && target.Type().Implements(reflect.TypeOf((*Unmarshaler)(nil)).Elem()) {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		return target.Interface().(Unmarshaler).UnmarshalTLV(f)
	}

	// 2. Strings keep the raw value
	if target.Kind() == reflect.String {
		target.SetString(f.Value)
		return nil
	}

	// 3. Nested templates
	if isStructOrPtrToStruct(target) {
		targetField := getTargetField(target)
		if f.IsTemplate() {
			return UnmarshalFields(f.Children, targetField.Interface())
		}
		return Unmarshal(f.Value, targetField.Interface())
	}

	return nil
}

func handleUnknownFields(v reflect.Value, t reflect.Type, fields []Field, consumed map[int]bool) error {
	unknownField, found := findUnknownField(v, t)
	if !found {
		return nil
	}

	var leftovers []Field
	for idx, f := range fields {
		if !consumed[idx] {
			leftovers = append(leftovers, f)
		}
	}

	if len(leftovers) > 0 && unknownField.CanSet() {
		unknownField.Set(reflect.ValueOf(ToBERTLV(leftovers)))
	}
	return nil
}

func findUnknownField(v reflect.Value, t reflect.Type) (reflect.Value, bool) {
	for i := 0; i < v.NumField(); i++ {
		tag := t.Field(i).Tag.Get("tlv")
		if tag == ",unknown" || t.Field(i).Name == "Unknown" {
			if v.Field(i).Type() == reflect.TypeOf([]bertlv.TLV{}) {
				return v.Field(i), true
			}
		}
	}
	return reflect.Value{}, false
}

// GetValue scans a stream for a specific tag and returns its value.
func GetValue(data string, tag string) (string, error) {
	target, err := NormalizeTag(tag)
	if err != nil {
		return "", err
	}

	if f, ok := Find(Decode(data), target); ok {
		return f.Value, nil
	}
	return "", fmt.Errorf("tag %s not found", target)
}

func isStructOrPtrToStruct(v reflect.Value) bool {
	if v.Kind() == reflect.Struct {
		return true
	}
	if v.Kind() == reflect.Ptr && v.Type().Elem().Kind() == reflect.Struct {
		return true
	}
	return false
}

func getTargetField(field reflect.Value) reflect.Value {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return field
	}
	return field.Addr()
}
