package sgqr

import "github.com/gregLibert/sgqr/pkg/tlv"

// IsNested reports whether a data object's value is itself a sequence of data objects.
// Only top-level templates nest; every object below them is a leaf.
func IsNested(tag, parent string) bool {
	if parent != "" {
		return false
	}
	switch tag {
	case TagIdentifier, TagAdditionalData, TagLanguageTemplate:
		return true
	}
	return isPaymentSystemTag(tag)
}

// Resolver turns decoded data objects into an annotated tree.
// A nil Names leaves fields unnamed.
type Resolver struct {
	Names Namer
}

// Resolve builds the field for (tag, value) found under parent, decoding
// children when the tag is a template in that context.
// A value longer than 99 characters cannot be a data object: its Length is
// left empty and re-encoding the field reports tlv.ErrLengthOverflow.
func (r Resolver) Resolve(tag, value, parent string) tlv.Field {
	length, _ := tlv.FormatLength(value)
	return r.resolve(tlv.Field{
		Tag:    tag,
		Length: length,
		Value:  value,
	}, parent)
}

// Parse decodes a payload into its annotated field tree.
func (r Resolver) Parse(payload string) []tlv.Field {
	return r.resolveAll(tlv.Decode(payload), "")
}

func (r Resolver) resolveAll(fields []tlv.Field, parent string) []tlv.Field {
	if len(fields) == 0 {
		return nil
	}

	out := make([]tlv.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, r.resolve(f, parent))
	}
	return out
}

func (r Resolver) resolve(f tlv.Field, parent string) tlv.Field {
	if r.Names != nil {
		f.Name = r.Names.Name(f.Tag, parent)
		if c, ok := r.Names.(Commenter); ok {
			f.Comment = c.Comment(f.Tag, parent)
		}
	}

	if IsNested(f.Tag, parent) {
		f.Children = r.resolveAll(tlv.Decode(f.Value), f.Tag)
	}
	return f
}

var defaultResolver = Resolver{Names: DefaultRegistry}

// Resolve uses the built-in registry.
func Resolve(tag, value, parent string) tlv.Field {
	return defaultResolver.Resolve(tag, value, parent)
}

// Parse decodes a payload with names and comments from the built-in registry.
// Parsing never fails: a truncated trailer simply ends the field list.
func Parse(payload string) []tlv.Field {
	return defaultResolver.Parse(payload)
}
