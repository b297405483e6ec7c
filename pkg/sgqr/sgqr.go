/*
Package sgqr builds and parses SGQR payloads: EMV merchant-presented QR data
with the Singapore-specific identifier template.

# Payload Layout

A payload is a flat sequence of data objects (see package tlv), always in this order:

	00 Payload Format Indicator   "01"
	01 Point of Initiation Method "11" static, "12" dynamic
	26-50 Merchant Account Information templates, one per payment system
	51 SGQR ID template
	52 Merchant Category Code
	53 Transaction Currency
	54 Transaction Amount (optional)
	58 Country Code
	59 Merchant Name
	60 Merchant City
	61 Postal Code (optional)
	62 Additional Data Field template (optional)
	64 Merchant Information - Language template (optional)
	63 CRC, always last

# Templates

Only top-level objects can be templates: 26-50, 51, 62 and 64 carry nested data
objects. The same sub-tag means different things under different parents, so
names are always resolved with the parent tag as context.

# Usage Example

	payload, err := sgqr.Build(sgqr.PayloadConfig{
	    MerchantName: "HUGGS-M WALK",
	    PaymentSystems: []sgqr.PaymentSystem{
	        {GlobalIdentifier: "SG.COM.NETS", Fields: []sgqr.SubField{{ID: "01", Value: "123"}}},
	    },
	})
	if err != nil {
	    log.Fatal(err)
	}

	for _, f := range sgqr.Parse(payload) {
	    fmt.Printf("%s %s: %s\n", f.Tag, f.Name, f.Value)
	}
*/
package sgqr

// Top-level data object IDs.
const (
	TagPayloadFormatIndicator = "00"
	TagPointOfInitiation      = "01"
	TagIdentifier             = "51"
	TagMerchantCategoryCode   = "52"
	TagTransactionCurrency    = "53"
	TagTransactionAmount      = "54"
	TagCountryCode            = "58"
	TagMerchantName           = "59"
	TagMerchantCity           = "60"
	TagPostalCode             = "61"
	TagAdditionalData         = "62"
	TagCRC                    = "63"
	TagLanguageTemplate       = "64"
)

// Merchant Account Information templates occupy IDs 26 to 50.
const (
	PaymentSystemBase = 26
	PaymentSystemLast = 50
)

// Additional Data Field sub-IDs recognised by the assembler.
const (
	AdditionalDataFirst = 1
	AdditionalDataLast  = 9
)

// PayloadFormatIndicator is the only defined value of data object 00.
const PayloadFormatIndicator = "01"
