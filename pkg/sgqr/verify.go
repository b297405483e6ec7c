package sgqr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gregLibert/sgqr/pkg/crc"
	"github.com/gregLibert/sgqr/pkg/tlv"
)

// Verify checks that a payload is fully decodable, ends with a CRC data object
// and that the CRC matches the bytes preceding its value.
func Verify(payload string) error {
	fields, err := tlv.DecodeStrict(payload)
	if err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}

	if len(fields) == 0 {
		return ErrMissingChecksum
	}
	last := fields[len(fields)-1]
	if last.Tag != TagCRC || last.Length != "04" {
		return ErrMissingChecksum
	}

	body := payload[:len(payload)-len(last.Value)]
	want := crc.Checksum([]byte(body))
	if !strings.EqualFold(last.Value, want) {
		return fmt.Errorf("%w: payload carries %s, computed %s", ErrChecksumMismatch, last.Value, want)
	}
	return nil
}

var mandatoryTags = []string{
	TagPayloadFormatIndicator,
	TagIdentifier,
	TagMerchantCategoryCode,
	TagTransactionCurrency,
	TagCountryCode,
	TagMerchantName,
	TagMerchantCity,
	TagCRC,
}

var identifierSubTags = []string{"00", "01", "02", "03", "04", "05", "06", "07"}

// Validate checks the structure of a parsed payload: mandatory data objects are
// present, 00 comes first, 63 comes last, no top-level tag repeats and the SGQR
// ID template is complete. Every problem found is reported.
func Validate(fields []tlv.Field) error {
	var errs []error

	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.Tag] {
			errs = append(errs, fmt.Errorf("%w: tag %s appears more than once", ErrDuplicateTag, f.Tag))
		}
		seen[f.Tag] = true
	}

	for _, tag := range mandatoryTags {
		if !seen[tag] {
			errs = append(errs, &FieldError{Path: tag, Err: ErrMissingMandatoryField})
		}
	}

	if len(fields) > 0 {
		if fields[0].Tag != TagPayloadFormatIndicator {
			errs = append(errs, fmt.Errorf("%w: first data object is %s, want %s", ErrInvalidStructure, fields[0].Tag, TagPayloadFormatIndicator))
		}
		if last := fields[len(fields)-1].Tag; last != TagCRC {
			errs = append(errs, fmt.Errorf("%w: last data object is %s, want %s", ErrInvalidStructure, last, TagCRC))
		}
	}

	if id, ok := tlv.Find(fields, TagIdentifier); ok {
		children := id.Children
		if !id.IsTemplate() {
			children = tlv.Decode(id.Value)
		}
		for _, sub := range identifierSubTags {
			if _, ok := tlv.Find(children, sub); !ok {
				errs = append(errs, &FieldError{Path: TagIdentifier + "." + sub, Err: ErrMissingMandatoryField})
			}
		}
	}

	return errors.Join(errs...)
}
