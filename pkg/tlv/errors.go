package tlv

import (
	"errors"
	"fmt"
)

var (
	ErrLengthOverflow  = errors.New("value length exceeds 99 characters")
	ErrInvalidTag      = errors.New("invalid tag")
	ErrMalformedStream = errors.New("malformed TLV stream")
)

// MalformedError reports where a stream stopped being decodable.
type MalformedError struct {
	Offset int
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v at offset %d: %s", ErrMalformedStream, e.Offset, e.Reason)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedStream
}
