package table

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// ArrowSchema returns the Arrow schema of the table with the run embedded as
// schema metadata. run may be nil.
func (t *Table) ArrowSchema(run *Run) *arrow.Schema {
	cols := t.Columns()
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		typ := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if c.Kind == KindInt {
			typ = arrow.PrimitiveTypes.Int64
		}
		fields[i] = arrow.Field{Name: c.Name, Type: typ}
	}

	if run == nil {
		return arrow.NewSchema(fields, nil)
	}
	md := arrow.NewMetadata(run.Metadata())
	return arrow.NewSchema(fields, &md)
}

// Record builds an Arrow record holding the table. The caller must Release it.
func (t *Table) Record(mem memory.Allocator, run *Run) arrow.Record {
	schema := t.ArrowSchema(run)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	cols := t.Columns()
	for ci, c := range cols {
		switch c.Kind {
		case KindInt:
			fb := b.Field(ci).(*array.Int64Builder)
			fb.Reserve(len(t.Rows))
			for ri := range t.Rows {
				fb.Append(t.IntValue(&t.Rows[ri], ci))
			}
		case KindFloat:
			fb := b.Field(ci).(*array.Float64Builder)
			fb.Reserve(len(t.Rows))
			for ri := range t.Rows {
				fb.Append(t.FloatValue(&t.Rows[ri], ci))
			}
		}
	}

	return b.NewRecord()
}

// WriteArrow writes the table as an Arrow IPC file (Feather v2), readable
// with pyarrow.feather.read_table or pandas.read_feather. The footer is
// written by seeking back, so w must be seekable (a file).
func WriteArrow(w io.WriteSeeker, t *Table, run *Run) error {
	mem := memory.NewGoAllocator()
	rec := t.Record(mem, run)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}

// ReadArrow reads a table written by WriteArrow. The returned run is nil
// when the file carries no run metadata.
func ReadArrow(r ipc.ReadAtSeeker) (*Table, *Run, error) {
	mem := memory.NewGoAllocator()
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer fr.Close()

	schema := fr.Schema()
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	projections, err := projectionsFromColumns(names)
	if err != nil {
		return nil, nil, fmt.Errorf("arrow schema: %w", err)
	}

	t := New(projections)
	cols := t.Columns()
	for i, c := range cols {
		want := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if c.Kind == KindInt {
			want = arrow.PrimitiveTypes.Int64
		}
		if !arrow.TypeEqual(schema.Field(i).Type, want) {
			return nil, nil, fmt.Errorf("arrow column %s has type %s, want %s", c.Name, schema.Field(i).Type, want)
		}
	}

	for ri := 0; ri < fr.NumRecords(); ri++ {
		rec, err := fr.Record(ri)
		if err != nil {
			return nil, nil, fmt.Errorf("reading arrow record %d: %w", ri, err)
		}

		n := int(rec.NumRows())
		start := len(t.Rows)
		for i := 0; i < n; i++ {
			t.Rows = append(t.Rows, t.newRow())
		}

		for ci, c := range cols {
			col := rec.Column(ci)
			if col.NullN() > 0 {
				return nil, nil, fmt.Errorf("arrow column %s has null values", c.Name)
			}
			switch c.Kind {
			case KindInt:
				vals := col.(*array.Int64)
				for i := 0; i < n; i++ {
					t.setInt(&t.Rows[start+i], ci, vals.Value(i))
				}
			case KindFloat:
				vals := col.(*array.Float64)
				for i := 0; i < n; i++ {
					t.setFloat(&t.Rows[start+i], ci, vals.Value(i))
				}
			}
		}
	}

	md := schema.Metadata()
	run, err := RunFromMetadata(func(key string) (string, bool) {
		if i := md.FindKey(key); i >= 0 {
			return md.Values()[i], true
		}
		return "", false
	})
	if err != nil {
		return nil, nil, err
	}

	return t, run, nil
}
