package sgqr

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrTagRangeExhausted     = errors.New("no merchant account tag left in range 26-50")
	ErrDuplicateTag          = errors.New("duplicate tag")
	ErrMissingChecksum       = errors.New("payload does not end with a CRC data object")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrMissingMandatoryField = errors.New("mandatory data object missing")
	ErrInvalidStructure      = errors.New("invalid payload structure")
	ErrNonASCII              = errors.New("value contains non-ASCII characters")
)

// FieldError reports which data object a build failed on.
// Path uses dotted notation for nested objects, e.g. "51.03".
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
