package sgqr

import "strconv"

// TAG NAMES:
// The same two digits mean different things depending on where they appear.
// "00" is the Payload Format Indicator at the top level, the Unique Identifier
// under the SGQR ID template (51) and the Globally Unique Identifier under a
// Merchant Account Information template (26-50). Lookups are therefore keyed
// by (context, tag), where the context is derived from the parent tag.

// Namer resolves a display name for a tag given its parent tag ("" at the top level).
type Namer interface {
	Name(tag, parent string) string
}

// Commenter optionally attaches an explanatory note to a data object.
type Commenter interface {
	Comment(tag, parent string) string
}

type nameContext int

const (
	ctxRoot nameContext = iota
	ctxMerchantAccount
	ctxIdentifier
	ctxAdditionalData
	ctxLanguage
	ctxOther
)

type nameKey struct {
	ctx nameContext
	tag string
}

var tagNames = map[nameKey]string{
	{ctxRoot, "00"}: "Payload Format Indicator",
	{ctxRoot, "01"}: "Point of Initiation Method",
	{ctxRoot, "02"}: "Visa",
	{ctxRoot, "03"}: "Visa",
	{ctxRoot, "04"}: "Mastercard",
	{ctxRoot, "05"}: "Mastercard",
	{ctxRoot, "11"}: "American Express ID 11",
	{ctxRoot, "12"}: "American Express ID 12",
	{ctxRoot, "15"}: "UnionPay",
	{ctxRoot, "16"}: "UnionPay",
	{ctxRoot, "51"}: "SGQR ID",
	{ctxRoot, "52"}: "Merchant Category Code",
	{ctxRoot, "53"}: "Transaction Currency",
	{ctxRoot, "54"}: "Transaction Amount",
	{ctxRoot, "55"}: "Tip or Convenience Indicator",
	{ctxRoot, "56"}: "Value of Convenience Fee Fixed",
	{ctxRoot, "57"}: "Value of Convenience Fee Percentage",
	{ctxRoot, "58"}: "Country Code",
	{ctxRoot, "59"}: "Merchant Name",
	{ctxRoot, "60"}: "Merchant City",
	{ctxRoot, "61"}: "Postal Code",
	{ctxRoot, "62"}: "Additional Data Field Template",
	{ctxRoot, "63"}: "CRC",
	{ctxRoot, "64"}: "Merchant Information - Language Template",

	{ctxMerchantAccount, "00"}: "Globally Unique Identifier",

	{ctxIdentifier, "00"}: "Unique Identifier",
	{ctxIdentifier, "01"}: "SGQR ID Number",
	{ctxIdentifier, "02"}: "Version",
	{ctxIdentifier, "03"}: "Postal Code",
	{ctxIdentifier, "04"}: "Level Number",
	{ctxIdentifier, "05"}: "Unit Number",
	{ctxIdentifier, "06"}: "Miscellaneous",
	{ctxIdentifier, "07"}: "New Version Date",

	{ctxAdditionalData, "01"}: "Bill Number",
	{ctxAdditionalData, "02"}: "Mobile Number",
	{ctxAdditionalData, "03"}: "Store Label",
	{ctxAdditionalData, "04"}: "Loyalty Number",
	{ctxAdditionalData, "05"}: "Reference Label",
	{ctxAdditionalData, "06"}: "Customer Label",
	{ctxAdditionalData, "07"}: "Terminal Label",
	{ctxAdditionalData, "08"}: "Purpose of Transaction",
	{ctxAdditionalData, "09"}: "Additional Consumer Data Request",

	{ctxLanguage, "00"}: "Language Preference",
	{ctxLanguage, "01"}: "Merchant Name - Alternate Language",
	{ctxLanguage, "02"}: "Merchant City - Alternate Language",
}

var fallbackNames = map[nameContext]string{
	ctxRoot:            "Unknown Field",
	ctxMerchantAccount: "Payment network specific",
	ctxIdentifier:      "Payment network specific",
	ctxAdditionalData:  "Payment System Specific",
	ctxLanguage:        "RFU for EMVCo",
	ctxOther:           "Unknown Field",
}

var tagComments = map[string]string{
	TagPayloadFormatIndicator: "Shall be the 1st data object in QR code. Shall contain value of 01.",
	TagPointOfInitiation:      "Value of 11 used when same QR code used for more than 1 transaction. Value of 12 used when a new QR code is shown for each transaction.",
	TagIdentifier:             "Identifies each SGQR label. Generated and modified only by the SGQR Centralised Repository.",
	TagMerchantCategoryCode:   "As defined by ISO 18245.",
	TagTransactionCurrency:    "3-digit numeric representation of currency according to ISO 4217. USD is 840, SGD is 702.",
	TagCountryCode:            "As defined by ISO 3166-1 alpha 2.",
	TagCRC:                    "Shall be the last data object in QR code. Checksum calculated according to ISO/IEC 13239 using polynomial 1021 (hex) and initial value FFFF (hex).",
}

const merchantAccountComment = "Templates reserved for additional payment networks."

// Registry is the built-in SGQR tag vocabulary. It is immutable and safe for concurrent use.
type Registry struct{}

// DefaultRegistry is used by Parse.
var DefaultRegistry = Registry{}

func (Registry) Name(tag, parent string) string {
	if parent == "" && isPaymentSystemTag(tag) {
		return "Merchant Account Information"
	}

	ctx := contextOf(parent)
	if name, ok := tagNames[nameKey{ctx, tag}]; ok {
		return name
	}
	return fallbackNames[ctx]
}

func (Registry) Comment(tag, parent string) string {
	if parent != "" {
		return ""
	}
	if isPaymentSystemTag(tag) {
		return merchantAccountComment
	}
	return tagComments[tag]
}

func contextOf(parent string) nameContext {
	switch {
	case parent == "":
		return ctxRoot
	case parent == TagIdentifier:
		return ctxIdentifier
	case parent == TagAdditionalData:
		return ctxAdditionalData
	case parent == TagLanguageTemplate:
		return ctxLanguage
	case isPaymentSystemTag(parent):
		return ctxMerchantAccount
	default:
		return ctxOther
	}
}

func isPaymentSystemTag(tag string) bool {
	if len(tag) != 2 {
		return false
	}
	n, err := strconv.Atoi(tag)
	if err != nil {
		return false
	}
	return n >= PaymentSystemBase && n <= PaymentSystemLast
}
