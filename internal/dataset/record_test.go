package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssemble(t *testing.T) {
	base := Row{
		MeasureObject:     "Ankle plantarflexion",
		PrimaryDoF:        "Ankle plantar(-)/dorsi(+)flexion",
		SecondaryDoF:      "Knee extension(-)/flexion(+)",
		AnyBodyMuscleType: "Simple",
	}
	rec := func(primary, value, second, pSign, sSign float64) Record {
		r := Record{Row: base, MeasurePrimaryDoFSign: pSign, MeasureSecondDoFSign: sSign}
		r.MeasurePrimaryDoF = primary
		r.MeasureValue = value
		r.MeasureSecondDoF = second
		return r
	}
	row := func(primary, value, second float64) Row {
		r := base
		r.MeasurePrimaryDoF = primary
		r.MeasureValue = value
		r.MeasureSecondDoF = second
		return r
	}

	tests := []struct {
		name string
		in   []Record
		want []Row
	}{
		{
			name: "negative secondary sign",
			in:   []Record{rec(10, 55, 30, 1, -1)},
			want: []Row{row(10, 55, -30)},
		},
		{
			name: "both signs negative",
			in:   []Record{rec(10, 55, 30, -1, -1)},
			want: []Row{row(-10, 55, -30)},
		},
		{
			name: "order and duplicates kept",
			in:   []Record{rec(2, 1, 0, 1, 1), rec(1, 1, 0, 1, 1), rec(2, 1, 0, 1, 1)},
			want: []Row{row(2, 1, 0), row(1, 1, 0), row(2, 1, 0)},
		},
		{
			name: "empty",
			in:   nil,
			want: []Row{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.in)
			if diff := cmp.Diff(tt.want, got.Rows); diff != "" {
				t.Errorf("Assemble() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDatasetLenNil(t *testing.T) {
	var ds *Dataset
	if ds.Len() != 0 {
		t.Errorf("nil dataset Len = %d", ds.Len())
	}
}
