package sgqr

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gregLibert/sgqr/pkg/tlv"
)

const goldenPayload = "00020101021126230008com.test0107TEST12351800007SG.SGQR0112250102123456020701.000103061234560402010502010604TEST0708202501025204581453037025802SG5913TEST MERCHANT6009Singapore63047056"

func TestVerify(t *testing.T) {
	defaults := "00020101021151810007SG.SGQR0112250626348124020701.000103060000000402010503001060400000708202403155204000053037025802SG5908MERCHANT6009Singapore63041C63"

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "Valid", payload: goldenPayload},
		{name: "Valid With Letters In CRC", payload: defaults},
		{name: "Lower Case CRC Accepted", payload: strings.TrimSuffix(defaults, "1C63") + "1c63"},
		{
			name:    "Tampered Value",
			payload: strings.Replace(goldenPayload, "TEST MERCHANT", "TEST MERCHANX", 1),
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "Wrong CRC",
			payload: strings.TrimSuffix(goldenPayload, "7056") + "7057",
			wantErr: ErrChecksumMismatch,
		},
		{
			name:    "No CRC",
			payload: strings.TrimSuffix(goldenPayload, "63047056"),
			wantErr: ErrMissingChecksum,
		},
		{
			name:    "CRC Not Last",
			payload: strings.TrimSuffix(goldenPayload, "63047056") + "630470565802SG",
			wantErr: ErrMissingChecksum,
		},
		{
			name:    "Truncated",
			payload: goldenPayload[:len(goldenPayload)-2],
			wantErr: tlv.ErrMalformedStream,
		},
		{name: "Empty", payload: "", wantErr: ErrMissingChecksum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.payload)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Verify() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// missingPaths flattens a joined error into the paths of its FieldErrors.
func missingPaths(err error) []string {
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return nil
	}
	var paths []string
	for _, e := range joined.Unwrap() {
		var fe *FieldError
		if errors.As(e, &fe) && errors.Is(fe, ErrMissingMandatoryField) {
			paths = append(paths, fe.Path)
		}
	}
	return paths
}

func TestValidate(t *testing.T) {
	if err := Validate(Parse(goldenPayload)); err != nil {
		t.Fatalf("Validate() on built payload: %v", err)
	}

	t.Run("Missing Mandatory Objects", func(t *testing.T) {
		payload := "000201" + "5303702" + "5802SG" + "6304ABCD"
		err := Validate(Parse(payload))
		if !errors.Is(err, ErrMissingMandatoryField) {
			t.Fatalf("Validate() error = %v, want ErrMissingMandatoryField", err)
		}

		want := []string{"51", "52", "59", "60"}
		if diff := cmp.Diff(want, missingPaths(err)); diff != "" {
			t.Errorf("missing paths mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Incomplete SGQR ID", func(t *testing.T) {
		fields := Parse(goldenPayload)
		for i, f := range fields {
			if f.Tag == TagIdentifier {
				fields[i].Children = f.Children[:6]
			}
		}

		want := []string{"51.06", "51.07"}
		if diff := cmp.Diff(want, missingPaths(Validate(fields))); diff != "" {
			t.Errorf("missing paths mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Order And Duplicates", func(t *testing.T) {
		fields := Parse(goldenPayload)
		fields[0], fields[1] = fields[1], fields[0]
		fields = append(fields, tlv.Field{Tag: "59", Value: "AGAIN"})

		err := Validate(fields)
		if !errors.Is(err, ErrInvalidStructure) {
			t.Errorf("Validate() error = %v, want ErrInvalidStructure", err)
		}
		if !errors.Is(err, ErrDuplicateTag) {
			t.Errorf("Validate() error = %v, want ErrDuplicateTag", err)
		}
		if got := strings.Count(err.Error(), ErrInvalidStructure.Error()); got != 2 {
			t.Errorf("expected both first and last position errors, got %d in %q", got, err)
		}
	})
}
