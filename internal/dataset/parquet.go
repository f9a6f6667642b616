package dataset

import (
	"bytes"
	"context"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/banshee-data/joint-strength/internal/failures"
)

// Column names of the persisted table.
const (
	ColMeasurePrimaryDoF = "measurePrimaryDoF"
	ColMeasureValue      = "measureValue"
	ColMeasureSecondDoF  = "measureSecondDoF"
	ColMeasureObject     = "measureObject"
	ColPrimaryDoF        = "primaryDoF"
	ColSecondaryDoF      = "secondaryDoF"
	ColAnyBodyMuscleType = "AnyBodyMuscleType"
	ColAMMRGitBranch     = "ammr_git_branch"
	ColAMMRGitHash       = "ammr_git_hash"
	ColAnyBodyVersion    = "anybody_version"
)

// Schema is the fixed column schema of every batch and merged file.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: ColMeasurePrimaryDoF, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColMeasureValue, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColMeasureSecondDoF, Type: arrow.PrimitiveTypes.Float64},
	{Name: ColMeasureObject, Type: arrow.BinaryTypes.String},
	{Name: ColPrimaryDoF, Type: arrow.BinaryTypes.String},
	{Name: ColSecondaryDoF, Type: arrow.BinaryTypes.String},
	{Name: ColAnyBodyMuscleType, Type: arrow.BinaryTypes.String},
	{Name: ColAMMRGitBranch, Type: arrow.BinaryTypes.String},
	{Name: ColAMMRGitHash, Type: arrow.BinaryTypes.String},
	{Name: ColAnyBodyVersion, Type: arrow.BinaryTypes.String},
}, nil)

func writerProps() *parquet.WriterProperties {
	return parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
}

// Encode serialises ds as a snappy-compressed Parquet file.
func Encode(ds *Dataset) ([]byte, error) {
	mem := memory.DefaultAllocator
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	n := ds.Len()
	b.Reserve(n)
	for _, r := range rowsOf(ds) {
		b.Field(0).(*array.Float64Builder).Append(r.MeasurePrimaryDoF)
		b.Field(1).(*array.Float64Builder).Append(r.MeasureValue)
		b.Field(2).(*array.Float64Builder).Append(r.MeasureSecondDoF)
		b.Field(3).(*array.StringBuilder).Append(r.MeasureObject)
		b.Field(4).(*array.StringBuilder).Append(r.PrimaryDoF)
		b.Field(5).(*array.StringBuilder).Append(r.SecondaryDoF)
		b.Field(6).(*array.StringBuilder).Append(r.AnyBodyMuscleType)
		b.Field(7).(*array.StringBuilder).Append(r.AMMRGitBranch)
		b.Field(8).(*array.StringBuilder).Append(r.AMMRGitHash)
		b.Field(9).(*array.StringBuilder).Append(r.AnyBodyVersion)
	}
	rec := b.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(Schema, &buf, writerProps(), pqarrow.DefaultWriterProps())
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	if err := w.Write(rec); err != nil {
		w.Close()
		return nil, fmt.Errorf("write parquet record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func rowsOf(ds *Dataset) []Row {
	if ds == nil {
		return nil
	}
	return ds.Rows
}

// readTable decodes a Parquet file into an Arrow table. The caller releases
// the table.
func readTable(ctx context.Context, data []byte) (arrow.Table, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("read parquet: %w", err)
	}
	return tbl, nil
}

// Decode parses a Parquet file written with Schema. Files whose columns do
// not match Schema fail with a SchemaMismatch naming name.
func Decode(ctx context.Context, name string, data []byte) (*Dataset, error) {
	tbl, err := readTable(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer tbl.Release()

	if err := compareSchema(name, Schema, tbl.Schema()); err != nil {
		return nil, err
	}

	n := int(tbl.NumRows())
	ds := &Dataset{Rows: make([]Row, n)}
	for ci := 0; ci < int(tbl.NumCols()); ci++ {
		row := 0
		for _, chunk := range tbl.Column(ci).Data().Chunks() {
			switch arr := chunk.(type) {
			case *array.Float64:
				for j := 0; j < arr.Len(); j++ {
					setFloat(&ds.Rows[row], ci, arr.Value(j))
					row++
				}
			case *array.String:
				for j := 0; j < arr.Len(); j++ {
					setString(&ds.Rows[row], ci, arr.Value(j))
					row++
				}
			default:
				return nil, &failures.SchemaMismatch{
					File:  name,
					Field: tbl.Schema().Field(ci).Name,
					Want:  Schema.Field(ci).Type.String(),
					Got:   chunk.DataType().String(),
				}
			}
		}
	}
	return ds, nil
}

func setFloat(r *Row, col int, v float64) {
	switch col {
	case 0:
		r.MeasurePrimaryDoF = v
	case 1:
		r.MeasureValue = v
	case 2:
		r.MeasureSecondDoF = v
	}
}

func setString(r *Row, col int, v string) {
	switch col {
	case 3:
		r.MeasureObject = v
	case 4:
		r.PrimaryDoF = v
	case 5:
		r.SecondaryDoF = v
	case 6:
		r.AnyBodyMuscleType = v
	case 7:
		r.AMMRGitBranch = v
	case 8:
		r.AMMRGitHash = v
	case 9:
		r.AnyBodyVersion = v
	}
}

// compareSchema reports the first column where got differs from want by
// name, position, type or nullability.
func compareSchema(file string, want, got *arrow.Schema) error {
	for i, wf := range want.Fields() {
		if i >= got.NumFields() {
			return &failures.SchemaMismatch{File: file, Field: wf.Name, Want: wf.Type.String(), Got: "missing"}
		}
		gf := got.Field(i)
		if gf.Name != wf.Name {
			return &failures.SchemaMismatch{File: file, Field: wf.Name, Want: wf.Name, Got: gf.Name}
		}
		if !arrow.TypeEqual(wf.Type, gf.Type) {
			return &failures.SchemaMismatch{File: file, Field: wf.Name, Want: wf.Type.String(), Got: gf.Type.String()}
		}
		if gf.Nullable != wf.Nullable {
			return &failures.SchemaMismatch{File: file, Field: wf.Name, Want: nullability(wf), Got: nullability(gf)}
		}
	}
	if got.NumFields() > want.NumFields() {
		extra := got.Field(want.NumFields())
		return &failures.SchemaMismatch{File: file, Field: extra.Name, Want: "absent", Got: extra.Type.String()}
	}
	return nil
}

func nullability(f arrow.Field) string {
	if f.Nullable {
		return "nullable"
	}
	return "non-null"
}
