package sgqr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/gregLibert/sgqr/pkg/tlv"
	"gopkg.in/yaml.v3"
)

// SubField is a single (ID, value) pair inside a template.
type SubField struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

// PaymentSystem describes one Merchant Account Information template.
type PaymentSystem struct {
	// GlobalIdentifier is emitted as sub-tag 00 and is mandatory.
	GlobalIdentifier string `json:"global_identifier" yaml:"global_identifier"`
	// Fields follow the identifier in the given order.
	Fields []SubField `json:"fields,omitempty" yaml:"fields,omitempty"`
	// PreferredID pins the template to a tag in 26-50 instead of the next sequential one.
	PreferredID TagID `json:"preferred_id,omitempty" yaml:"preferred_id,omitempty"`
}

// TagID is a data object ID that may be written as a string ("26") or a number (26).
type TagID string

func (id *TagID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TagID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("tag id: expected string or number: %w", err)
	}
	*id = TagID(n.String())
	return nil
}

func (id *TagID) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("tag id: expected scalar, got %s", value.Tag)
	}
	if value.Tag == "!!null" {
		*id = ""
		return nil
	}
	*id = TagID(value.Value)
	return nil
}

// IdentifierBlock is the SGQR ID template (tag 51). Empty members take their default.
type IdentifierBlock struct {
	Scheme       string `json:"scheme,omitempty" yaml:"scheme,omitempty" tlv:"00"`
	Number       string `json:"sgqr_number,omitempty" yaml:"sgqr_number,omitempty" tlv:"01"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty" tlv:"02"`
	PostalCode   string `json:"postal_code,omitempty" yaml:"postal_code,omitempty" tlv:"03"`
	Level        string `json:"level,omitempty" yaml:"level,omitempty" tlv:"04"`
	Unit         string `json:"unit,omitempty" yaml:"unit,omitempty" tlv:"05"`
	Misc         string `json:"misc,omitempty" yaml:"misc,omitempty" tlv:"06"`
	RevisionDate string `json:"revision_date,omitempty" yaml:"revision_date,omitempty" tlv:"07"`
}

// Identifier block defaults. The revision date defaults to the build date.
const (
	DefaultScheme     = "SG.SGQR"
	DefaultNumber     = "250626348124"
	DefaultVersion    = "01.0001"
	DefaultPostalCode = "000000"
	DefaultLevel      = "01"
	DefaultUnit       = "001"
	DefaultMisc       = "0000"
)

// LanguageTemplate is the Merchant Information - Language template (tag 64).
type LanguageTemplate struct {
	Preference string `json:"language_preference,omitempty" yaml:"language_preference,omitempty" tlv:"00"`
	Name       string `json:"merchant_name,omitempty" yaml:"merchant_name,omitempty" tlv:"01"`
	City       string `json:"merchant_city,omitempty" yaml:"merchant_city,omitempty" tlv:"02"`
}

// DefaultLanguage is used when a language template is configured without a preference.
const DefaultLanguage = "EN"

// AdditionalData holds the sub-fields of the Additional Data Field template (tag 62).
// In JSON and YAML it may be written either as a list of {id, value} objects or
// as a mapping from ID to value; mappings are ordered by ID.
type AdditionalData []SubField

// AdditionalDataFromMap converts a keyed mapping into sub-fields sorted by ID.
func AdditionalDataFromMap(m map[string]string) AdditionalData {
	out := make(AdditionalData, 0, len(m))
	for id, value := range m {
		if norm, err := tlv.NormalizeTag(id); err == nil {
			id = norm
		}
		out = append(out, SubField{ID: id, Value: value})
	}
	slices.SortFunc(out, func(a, b SubField) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func (d *AdditionalData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*d = nil
		return nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var m map[string]string
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return fmt.Errorf("additional_data mapping: %w", err)
		}
		*d = AdditionalDataFromMap(m)
		return nil
	default:
		var list []SubField
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("additional_data list: %w", err)
		}
		*d = list
		return nil
	}
}

func (d *AdditionalData) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*d = nil
		return nil
	}

	switch value.Kind {
	case yaml.MappingNode:
		var m map[string]string
		if err := value.Decode(&m); err != nil {
			return fmt.Errorf("additional_data mapping: %w", err)
		}
		*d = AdditionalDataFromMap(m)
		return nil
	case yaml.SequenceNode:
		var list []SubField
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("additional_data list: %w", err)
		}
		*d = list
		return nil
	default:
		return fmt.Errorf("additional_data: expected mapping or sequence, got %s", value.Tag)
	}
}

// PayloadConfig is everything needed to build one payload.
// Empty optional members are omitted from the payload; empty mandatory members take defaults.
//
// OutputFile names the image a QR renderer would write. Build ignores it.
type PayloadConfig struct {
	InitiationMethod     string            `json:"initiation_method,omitempty" yaml:"initiation_method,omitempty"`
	PaymentSystems       []PaymentSystem   `json:"payment_systems,omitempty" yaml:"payment_systems,omitempty"`
	Identifier           IdentifierBlock   `json:"sgqr_id" yaml:"sgqr_id"`
	MerchantCategoryCode string            `json:"merchant_category_code,omitempty" yaml:"merchant_category_code,omitempty"`
	Currency             string            `json:"currency,omitempty" yaml:"currency,omitempty"`
	Amount               string            `json:"amount,omitempty" yaml:"amount,omitempty"`
	CountryCode          string            `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	MerchantName         string            `json:"merchant_name,omitempty" yaml:"merchant_name,omitempty"`
	MerchantCity         string            `json:"merchant_city,omitempty" yaml:"merchant_city,omitempty"`
	MerchantPostalCode   string            `json:"merchant_postal_code,omitempty" yaml:"merchant_postal_code,omitempty"`
	AdditionalData       AdditionalData    `json:"additional_data,omitempty" yaml:"additional_data,omitempty"`
	Language             *LanguageTemplate `json:"language_template,omitempty" yaml:"language_template,omitempty"`
	OutputFile           string            `json:"output_file,omitempty" yaml:"output_file,omitempty"`
}

// Top-level defaults.
const (
	DefaultInitiationMethod     = "11"
	DefaultMerchantCategoryCode = "0000"
	DefaultCurrency             = "702"
	DefaultCountryCode          = "SG"
	DefaultMerchantName         = "MERCHANT"
	DefaultMerchantCity         = "Singapore"
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
