package tlv

import "github.com/moov-io/bertlv"

// Field is one decoded data object. Children is only populated for
// templates whose value is itself a sequence of data objects.
type Field struct {
	Tag      string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Length   string  `json:"length"`
	Value    string  `json:"value"`
	Comment  string  `json:"comment,omitempty"`
	Children []Field `json:"dataObjects,omitempty"`
}

// IsTemplate reports whether the field carries nested data objects.
func (f Field) IsTemplate() bool {
	return len(f.Children) > 0
}

// Find returns the first field with the given tag.
func Find(fields []Field, tag string) (Field, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f, true
		}
	}
	return Field{}, false
}

// ToBERTLV converts a field tree into bertlv nodes. Tags are kept as their
// two-digit decimal text and values as raw ASCII bytes.
func ToBERTLV(fields []Field) []bertlv.TLV {
	if len(fields) == 0 {
		return nil
	}

	out := make([]bertlv.TLV, 0, len(fields))
	for _, f := range fields {
		out = append(out, bertlv.TLV{
			Tag:   f.Tag,
			Value: []byte(f.Value),
			TLVs:  ToBERTLV(f.Children),
		})
	}
	return out
}
