package sgqr

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gregLibert/sgqr/pkg/crc"
	"github.com/gregLibert/sgqr/pkg/tlv"
)

// BuildOption customises a single Build call.
type BuildOption func(*buildOptions)

type buildOptions struct {
	now func() time.Time
}

// WithClock sets the clock used for the default SGQR revision date.
func WithClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) {
		o.now = now
	}
}

// Build assembles a complete payload, CRC included.
// On error the returned payload is always empty.
func Build(cfg PayloadConfig, opts ...BuildOption) (string, error) {
	o := buildOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	w := &payloadWriter{}

	w.field(TagPayloadFormatIndicator, PayloadFormatIndicator)
	w.field(TagPointOfInitiation, orDefault(cfg.InitiationMethod, DefaultInitiationMethod))

	if err := w.paymentSystems(cfg.PaymentSystems); err != nil {
		return "", err
	}

	w.template(TagIdentifier, identifierFields(cfg.Identifier, o.now))

	w.field(TagMerchantCategoryCode, orDefault(cfg.MerchantCategoryCode, DefaultMerchantCategoryCode))
	w.field(TagTransactionCurrency, orDefault(cfg.Currency, DefaultCurrency))
	w.optional(TagTransactionAmount, cfg.Amount)
	w.field(TagCountryCode, orDefault(cfg.CountryCode, DefaultCountryCode))

	merchantName := orDefault(cfg.MerchantName, DefaultMerchantName)
	w.field(TagMerchantName, merchantName)
	w.field(TagMerchantCity, orDefault(cfg.MerchantCity, DefaultMerchantCity))
	w.optional(TagPostalCode, cfg.MerchantPostalCode)

	if extra := filterAdditionalData(cfg.AdditionalData); len(extra) > 0 {
		w.template(TagAdditionalData, extra)
	}

	if cfg.Language != nil {
		w.template(TagLanguageTemplate, languageFields(*cfg.Language, merchantName))
	}

	if w.err != nil {
		return "", w.err
	}

	body := w.sb.String()
	checksum, err := tlv.Encode(TagCRC, crc.PayloadChecksum(body))
	if err != nil {
		return "", &FieldError{Path: TagCRC, Err: err}
	}
	return body + checksum, nil
}

// payloadWriter accumulates encoded data objects and latches the first error.
type payloadWriter struct {
	sb  strings.Builder
	err error
}

func (w *payloadWriter) field(tag, value string) {
	if w.err != nil {
		return
	}
	enc, err := tlv.Encode(tag, value)
	if err != nil {
		w.err = &FieldError{Path: tag, Err: err}
		return
	}
	if tag != TagLanguageTemplate && !isASCII(value) {
		w.err = &FieldError{Path: tag, Err: ErrNonASCII}
		return
	}
	w.sb.WriteString(enc)
}

// optional skips empty values entirely.
func (w *payloadWriter) optional(tag, value string) {
	if value == "" {
		return
	}
	w.field(tag, value)
}

func (w *payloadWriter) template(tag string, subs []SubField) {
	if w.err != nil {
		return
	}
	value, err := encodeTemplate(tag, subs)
	if err != nil {
		w.err = err
		return
	}
	w.field(tag, value)
}

// paymentSystems emits one Merchant Account Information template per entry.
// Entries without a preferred ID take the next free sequential tag from 26; a
// preferred ID does not advance the sequence but is never handed out again.
func (w *payloadWriter) paymentSystems(systems []PaymentSystem) error {
	next := PaymentSystemBase
	used := make(map[string]int, len(systems))

	for i, ps := range systems {
		var tag string
		if ps.PreferredID != "" {
			t, err := preferredTag(string(ps.PreferredID))
			if err != nil {
				return fmt.Errorf("payment system %d: %w", i, err)
			}
			if prev, dup := used[t]; dup {
				return &FieldError{Path: t, Err: fmt.Errorf("%w: already assigned to payment system %d", ErrDuplicateTag, prev)}
			}
			tag = t
		} else {
			t, err := nextFreeTag(&next, used)
			if err != nil {
				return fmt.Errorf("payment system %d: %w", i, err)
			}
			tag = t
		}
		used[tag] = i

		if ps.GlobalIdentifier == "" {
			return &FieldError{Path: tag + ".00", Err: fmt.Errorf("%w: global identifier of payment system %d", ErrMissingRequiredField, i)}
		}

		subs := make([]SubField, 0, len(ps.Fields)+1)
		subs = append(subs, SubField{ID: "00", Value: ps.GlobalIdentifier})
		subs = append(subs, ps.Fields...)

		w.template(tag, subs)
		if w.err != nil {
			return w.err
		}
	}
	return nil
}

// nextFreeTag advances the sequence past tags already taken by preferred IDs.
func nextFreeTag(next *int, used map[string]int) (string, error) {
	for ; *next <= PaymentSystemLast; *next++ {
		tag, err := tlv.FormatTag(*next)
		if err != nil {
			return "", err
		}
		if _, taken := used[tag]; !taken {
			*next++
			return tag, nil
		}
	}
	return "", ErrTagRangeExhausted
}

func preferredTag(id string) (string, error) {
	tag, err := tlv.NormalizeTag(id)
	if err != nil {
		return "", err
	}
	if !isPaymentSystemTag(tag) {
		return "", &FieldError{Path: tag, Err: fmt.Errorf("%w: preferred ID outside %d-%d", tlv.ErrInvalidTag, PaymentSystemBase, PaymentSystemLast)}
	}
	return tag, nil
}

func encodeTemplate(parent string, subs []SubField) (string, error) {
	var sb strings.Builder
	for _, s := range subs {
		enc, err := tlv.Encode(s.ID, s.Value)
		if err != nil {
			return "", &FieldError{Path: parent + "." + s.ID, Err: err}
		}
		if parent != TagLanguageTemplate && !isASCII(s.Value) {
			return "", &FieldError{Path: parent + "." + s.ID, Err: ErrNonASCII}
		}
		sb.WriteString(enc)
	}
	return sb.String(), nil
}

// isASCII reports whether s is plain ASCII. Only the language template
// (64) may carry other characters.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func identifierFields(id IdentifierBlock, now func() time.Time) []SubField {
	revision := id.RevisionDate
	if revision == "" {
		revision = now().UTC().Format("20060102")
	}

	return []SubField{
		{ID: "00", Value: orDefault(id.Scheme, DefaultScheme)},
		{ID: "01", Value: orDefault(id.Number, DefaultNumber)},
		{ID: "02", Value: orDefault(id.Version, DefaultVersion)},
		{ID: "03", Value: orDefault(id.PostalCode, DefaultPostalCode)},
		{ID: "04", Value: orDefault(id.Level, DefaultLevel)},
		{ID: "05", Value: orDefault(id.Unit, DefaultUnit)},
		{ID: "06", Value: orDefault(id.Misc, DefaultMisc)},
		{ID: "07", Value: revision},
	}
}

// filterAdditionalData keeps sub-fields with an ID in 01-09 and a non-empty value.
func filterAdditionalData(data AdditionalData) []SubField {
	var out []SubField
	for _, s := range data {
		if s.Value == "" {
			continue
		}
		id, err := tlv.NormalizeTag(s.ID)
		if err != nil {
			continue
		}
		n, _ := strconv.Atoi(id)
		if n < AdditionalDataFirst || n > AdditionalDataLast {
			continue
		}
		out = append(out, SubField{ID: id, Value: s.Value})
	}
	return out
}

func languageFields(lang LanguageTemplate, merchantName string) []SubField {
	subs := []SubField{
		{ID: "00", Value: orDefault(lang.Preference, DefaultLanguage)},
		{ID: "01", Value: orDefault(lang.Name, merchantName)},
	}
	if lang.City != "" {
		subs = append(subs, SubField{ID: "02", Value: lang.City})
	}
	return subs
}
