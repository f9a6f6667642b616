// Package dataset assembles simulation results into the persisted
// joint-strength table and manages the batch files on disk: writing one file
// per batch, merging batch files into a single dataset and removing them.
package dataset

// Row is one persisted result row. Field order matches the column order of
// Schema.
type Row struct {
	MeasurePrimaryDoF float64
	MeasureValue      float64
	MeasureSecondDoF  float64
	MeasureObject     string
	PrimaryDoF        string
	SecondaryDoF      string
	AnyBodyMuscleType string
	AMMRGitBranch     string
	AMMRGitHash       string
	AnyBodyVersion    string
}

// Record is a raw result row as produced by a simulation task. The sign
// fields carry the DOF sign conventions and never reach disk.
type Record struct {
	Row
	MeasurePrimaryDoFSign float64
	MeasureSecondDoFSign  float64
}

// Dataset is an ordered set of sign-corrected rows.
type Dataset struct {
	Rows []Row
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Assemble applies the sign conventions to raw records: the secondary and
// primary DOF values are multiplied by their signs and the sign fields are
// dropped. Row order is preserved and no rows are merged or removed.
func Assemble(records []Record) *Dataset {
	ds := &Dataset{Rows: make([]Row, 0, len(records))}
	for _, r := range records {
		row := r.Row
		row.MeasureSecondDoF = r.MeasureSecondDoF * r.MeasureSecondDoFSign
		row.MeasurePrimaryDoF = r.MeasurePrimaryDoF * r.MeasurePrimaryDoFSign
		ds.Rows = append(ds.Rows, row)
	}
	return ds
}
