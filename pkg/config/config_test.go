package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sgqr/pkg/sgqr"
)

const jsonDoc = `{
  "merchant_name": "HUGGS-M WALK",
  "merchant_category_code": "5814",
  "amount": "4.50",
  "sgqr_id": {"sgqr_number": "180727C4E1A7", "revision_date": "20180801"},
  "payment_systems": [
    {"global_identifier": "SG.COM.NETS", "fields": [{"id": "01", "value": "123"}]},
    {"global_identifier": "SG.PAYNOW", "preferred_id": "33"}
  ],
  "additional_data": {"01": "INV-1", "7": "T1"},
  "language_template": {"language_preference": "ZH"}
}`

const yamlDoc = `
merchant_name: HUGGS-M WALK
merchant_category_code: "5814"
amount: "4.50"
sgqr_id:
  sgqr_number: 180727C4E1A7
  revision_date: "20180801"
payment_systems:
  - global_identifier: SG.COM.NETS
    fields:
      - id: "01"
        value: "123"
  - global_identifier: SG.PAYNOW
    preferred_id: "33"
additional_data:
  - id: "01"
    value: INV-1
  - id: "07"
    value: T1
language_template:
  language_preference: ZH
`

func expectedConfig() sgqr.PayloadConfig {
	return sgqr.PayloadConfig{
		MerchantName:         "HUGGS-M WALK",
		MerchantCategoryCode: "5814",
		Amount:               "4.50",
		Identifier:           sgqr.IdentifierBlock{Number: "180727C4E1A7", RevisionDate: "20180801"},
		PaymentSystems: []sgqr.PaymentSystem{
			{GlobalIdentifier: "SG.COM.NETS", Fields: []sgqr.SubField{{ID: "01", Value: "123"}}},
			{GlobalIdentifier: "SG.PAYNOW", PreferredID: "33"},
		},
		AdditionalData: sgqr.AdditionalData{{ID: "01", Value: "INV-1"}, {ID: "07", Value: "T1"}},
		Language:       &sgqr.LanguageTemplate{Preference: "ZH"},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"JSON", "merchant.json", jsonDoc},
		{"YAML", "merchant.yaml", yamlDoc},
		{"YML Upper Case", "MERCHANT.YML", yamlDoc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if diff := cmp.Diff(expectedConfig(), cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_BothFormatsBuildIdentically(t *testing.T) {
	fromJSON, err := Load(writeFile(t, "a.json", jsonDoc))
	if err != nil {
		t.Fatalf("Load(json) error: %v", err)
	}
	fromYAML, err := Load(writeFile(t, "a.yaml", yamlDoc))
	if err != nil {
		t.Fatalf("Load(yaml) error: %v", err)
	}

	a, err := sgqr.Build(fromJSON)
	if err != nil {
		t.Fatalf("Build(json) error: %v", err)
	}
	b, err := sgqr.Build(fromYAML)
	if err != nil {
		t.Fatalf("Build(yaml) error: %v", err)
	}
	if a != b {
		t.Errorf("payloads differ:\n%s\n%s", a, b)
	}
	if err := sgqr.Verify(a); err != nil {
		t.Errorf("Verify() error: %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(writeFile(t, "merchant.toml", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.toml) error = %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want os.ErrNotExist", err)
	}

	if _, err := Load(writeFile(t, "bad.json", `{"merchant_name": `)); err == nil {
		t.Error("Load(truncated json) expected error")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		want    sgqr.PayloadConfig
		wantErr bool
	}{
		{name: "Empty JSON", format: FormatJSON, input: ""},
		{name: "Empty YAML", format: FormatYAML, input: ""},
		{
			name:   "YAML Mapping Additional Data",
			format: FormatYAML,
			input:  "additional_data:\n  \"05\": REF\n  \"01\": BILL\n",
			want: sgqr.PayloadConfig{
				AdditionalData: sgqr.AdditionalData{{ID: "01", Value: "BILL"}, {ID: "05", Value: "REF"}},
			},
		},
		{name: "Unknown JSON Key", format: FormatJSON, input: `{"merchant": "x"}`, wantErr: true},
		{name: "Unknown YAML Key", format: FormatYAML, input: "merchant: x\n", wantErr: true},
		{name: "Unknown Format", format: Format("toml"), input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input), tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_OutputFileAccepted(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"JSON", "sgqr_config.json", `{"merchant_name": "TEST", "output_file": "sgqr.png"}`},
		{"YAML", "sgqr_config.yaml", "merchant_name: TEST\noutput_file: sgqr.png\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}

			want := sgqr.PayloadConfig{MerchantName: "TEST", OutputFile: "sgqr.png"}
			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}

			clock := sgqr.WithClock(func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) })
			withFile, err := sgqr.Build(cfg, clock)
			if err != nil {
				t.Fatalf("Build() error: %v", err)
			}
			cfg.OutputFile = ""
			without, _ := sgqr.Build(cfg, clock)
			if withFile != without {
				t.Errorf("output_file changed the payload:\n%s\n%s", withFile, without)
			}
		})
	}
}
