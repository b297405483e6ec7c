package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sgqr/pkg/tlv"
)

const goldenPayload = "00020101021126230008com.test0107TEST12351800007SG.SGQR0112250102123456020701.000103061234560402010502010604TEST0708202501025204581453037025802SG5913TEST MERCHANT6009Singapore63047056"

const goldenYAML = `merchant_name: TEST MERCHANT
merchant_city: Singapore
merchant_category_code: "5814"
sgqr_id:
  sgqr_number: "250102123456"
  version: "01.0001"
  postal_code: "123456"
  level: "01"
  unit: "01"
  misc: TEST
  revision_date: "20250102"
payment_systems:
  - global_identifier: com.test
    fields:
      - id: "01"
        value: TEST123
`

func TestRunBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merchant.yaml")
	if err := os.WriteFile(path, []byte(goldenYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := runBuild([]string{"-config", path}, &out); err != nil {
		t.Fatalf("runBuild() error: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != goldenPayload {
		t.Errorf("runBuild() = %s, want %s", got, goldenPayload)
	}

	out.Reset()
	if err := runBuild([]string{"-config", path, "-describe"}, &out); err != nil {
		t.Fatalf("runBuild(-describe) error: %v", err)
	}
	if !strings.Contains(out.String(), "=== SGQR PAYLOAD ===") {
		t.Errorf("describe report missing:\n%s", out.String())
	}

	if err := runBuild(nil, &out); err == nil {
		t.Error("runBuild() without -config expected error")
	}
}

func TestRunParse(t *testing.T) {
	var out bytes.Buffer
	if err := runParse([]string{"-json"}, strings.NewReader(goldenPayload+"\n"), &out); err != nil {
		t.Fatalf("runParse() error: %v", err)
	}

	var fields []tlv.Field
	if err := json.Unmarshal(out.Bytes(), &fields); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got := fields[len(fields)-1]; got.Tag != "63" || got.Value != "7056" {
		t.Errorf("last field = %+v", got)
	}

	out.Reset()
	if err := runParse([]string{"-payload", "5912HUGGS-M WALK"}, nil, &out); err != nil {
		t.Fatalf("runParse() error: %v", err)
	}
	if diff := cmp.Diff("[59] Merchant Name (12): HUGGS-M WALK\n", out.String()); diff != "" {
		t.Errorf("text output mismatch (-want +got):\n%s", diff)
	}
}

func TestRunVerify(t *testing.T) {
	var out bytes.Buffer
	if err := runVerify([]string{"-payload", goldenPayload}, nil, &out); err != nil {
		t.Fatalf("runVerify() error: %v", err)
	}

	bad := strings.Replace(goldenPayload, "Singapore", "Singapura", 1)
	if err := runVerify([]string{"-payload", bad}, nil, &out); err == nil {
		t.Error("runVerify() accepted a tampered payload")
	}

	if err := runVerify(nil, strings.NewReader(""), &out); err == nil {
		t.Error("runVerify() accepted an empty payload")
	}
}
