package tlv

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DATA OBJECT FORMAT (EMV QRCPS Merchant-Presented Mode):
// Every data object is a flat character sequence:
//
//	ID (2 decimal digits) | Length (2 decimal digits) | Value (Length characters)
//
// Example: "5912HUGGS-M WALK" is ID "59", length 12, value "HUGGS-M WALK".
// Lengths count characters, not bytes, so localized values stay consistent.

const (
	TagSize        = 2
	LengthSize     = 2
	HeaderSize     = TagSize + LengthSize
	MaxValueLength = 99
)

// NormalizeTag left-pads a one or two digit tag to exactly two digits.
func NormalizeTag(tag string) (string, error) {
	if len(tag) == 0 || len(tag) > TagSize || !isDigits(tag) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	return strings.Repeat("0", TagSize-len(tag)) + tag, nil
}

// FormatTag renders a numeric tag as two digits.
func FormatTag(n int) (string, error) {
	if n < 0 || n > 99 {
		return "", fmt.Errorf("%w: %d", ErrInvalidTag, n)
	}
	return fmt.Sprintf("%02d", n), nil
}

// FormatLength renders the two-digit length of value.
func FormatLength(value string) (string, error) {
	n := utf8.RuneCountInString(value)
	if n > MaxValueLength {
		return "", fmt.Errorf("%w (got %d)", ErrLengthOverflow, n)
	}
	return fmt.Sprintf("%02d", n), nil
}

// Encode builds a single data object from a tag and its value.
func Encode(tag, value string) (string, error) {
	t, err := NormalizeTag(tag)
	if err != nil {
		return "", err
	}

	length, err := FormatLength(value)
	if err != nil {
		return "", fmt.Errorf("tag %s: %w", t, err)
	}

	return t + length + value, nil
}

// EncodeFields re-encodes a decoded field tree. Fields with children have
// their value rebuilt from the children.
func EncodeFields(fields []Field) (string, error) {
	var sb strings.Builder
	for _, f := range fields {
		value := f.Value
		if f.IsTemplate() {
			inner, err := EncodeFields(f.Children)
			if err != nil {
				return "", fmt.Errorf("tag %s: %w", f.Tag, err)
			}
			value = inner
		}

		enc, err := Encode(f.Tag, value)
		if err != nil {
			return "", err
		}
		sb.WriteString(enc)
	}
	return sb.String(), nil
}

// Decode splits a stream into flat data objects.
// A truncated or unreadable trailer ends the scan silently; use DecodeStrict
// to learn about it. Unknown tags are returned as they are.
func Decode(stream string) []Field {
	fields, _ := DecodeStrict(stream)
	return fields
}

// DecodeStrict behaves like Decode but also reports a malformed trailer.
// The fields decoded before the malformed point are always returned.
func DecodeStrict(stream string) ([]Field, error) {
	runes := []rune(stream)
	var fields []Field

	offset := 0
	for offset < len(runes) {
		if offset+HeaderSize > len(runes) {
			return fields, &MalformedError{Offset: offset, Reason: "truncated header"}
		}

		tag := string(runes[offset : offset+TagSize])
		lengthStr := string(runes[offset+TagSize : offset+HeaderSize])
		if !isDigits(lengthStr) {
			return fields, &MalformedError{Offset: offset, Reason: fmt.Sprintf("invalid length %q", lengthStr)}
		}
		length, _ := strconv.Atoi(lengthStr)

		start := offset + HeaderSize
		end := start + length
		if end > len(runes) {
			return fields, &MalformedError{
				Offset: offset,
				Reason: fmt.Sprintf("tag %s declares %d characters, %d available", tag, length, len(runes)-start),
			}
		}

		fields = append(fields, Field{
			Tag:    tag,
			Length: lengthStr,
			Value:  string(runes[start:end]),
		})
		offset = end
	}

	return fields, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
