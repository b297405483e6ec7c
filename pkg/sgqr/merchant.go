package sgqr

import (
	"fmt"
	"strings"

	"github.com/gregLibert/sgqr/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// Merchant is a typed view of a decoded payload.
type Merchant struct {
	PayloadFormatIndicator string                  `tlv:"00"`
	PointOfInitiation      string                  `tlv:"01"`
	Accounts               []MerchantAccount       `tlv:"26-50"`
	Identifier             IdentifierBlock         `tlv:"51"`
	MerchantCategoryCode   string                  `tlv:"52"`
	TransactionCurrency    string                  `tlv:"53"`
	TransactionAmount      string                  `tlv:"54"`
	CountryCode            string                  `tlv:"58"`
	MerchantName           string                  `tlv:"59"`
	MerchantCity           string                  `tlv:"60"`
	PostalCode             string                  `tlv:"61"`
	AdditionalData         *AdditionalDataTemplate `tlv:"62"`
	Language               *LanguageTemplate       `tlv:"64"`
	CRC                    string                  `tlv:"63"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// MerchantAccount is one Merchant Account Information template (26-50).
// Payment-network specific sub-fields are kept in Unknown.
type MerchantAccount struct {
	Tag              string
	GlobalIdentifier string `tlv:"00"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

func (a *MerchantAccount) UnmarshalTLV(f tlv.Field) error {
	a.Tag = f.Tag

	children := f.Children
	if !f.IsTemplate() {
		children = tlv.Decode(f.Value)
	}
	return tlv.UnmarshalFields(children, a)
}

// AdditionalDataTemplate is the Additional Data Field template (62).
type AdditionalDataTemplate struct {
	BillNumber                    string `tlv:"01"`
	MobileNumber                  string `tlv:"02"`
	StoreLabel                    string `tlv:"03"`
	LoyaltyNumber                 string `tlv:"04"`
	ReferenceLabel                string `tlv:"05"`
	CustomerLabel                 string `tlv:"06"`
	TerminalLabel                 string `tlv:"07"`
	PurposeOfTransaction          string `tlv:"08"`
	AdditionalConsumerDataRequest string `tlv:"09"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseMerchant interprets a payload as a typed Merchant structure.
func ParseMerchant(payload string) (*Merchant, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty payload cannot be parsed")
	}

	if _, err := tlv.DecodeStrict(payload); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	m := &Merchant{}
	if err := tlv.UnmarshalFields(Parse(payload), m); err != nil {
		return nil, fmt.Errorf("failed to map structure: %w", err)
	}

	return m, nil
}

// Describe generates a detailed, standardized report of the payload content.
func (m *Merchant) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== SGQR PAYLOAD ===")

	tlv.WriteStructFields(&sb, "Payload", m)

	for _, acc := range m.Accounts {
		tlv.WriteStructFields(&sb, fmt.Sprintf("Account[%s]", acc.Tag), acc)
	}

	tlv.WriteStructFields(&sb, "SGQRID", m.Identifier)

	if m.AdditionalData != nil {
		tlv.WriteStructFields(&sb, "AdditionalData", m.AdditionalData)
	}

	if m.Language != nil {
		tlv.WriteStructFields(&sb, "Language", m.Language)
	}

	return strings.TrimRight(sb.String(), "\n")
}
