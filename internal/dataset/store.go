package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/banshee-data/joint-strength/internal/config"
	"github.com/banshee-data/joint-strength/internal/failures"
	"github.com/banshee-data/joint-strength/internal/fsutil"
	"github.com/banshee-data/joint-strength/internal/monitoring"
)

// partialSuffix marks a file that is still being written. It never matches
// a "*.<ext>" pattern.
const partialSuffix = ".partial"

// mergeChunkSize is the row group size used when merging batch files.
const mergeChunkSize = 64 * 1024

// Store reads and writes dataset files below one output directory.
type Store struct {
	fs          fsutil.FileSystem
	dir         string
	datasetName string
	mergedName  string
	ext         string
}

// NewStore creates a store for the given output settings. A nil fsys uses
// the OS filesystem.
func NewStore(fsys fsutil.FileSystem, out config.OutputConfig) *Store {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	s := &Store{
		fs:          fsys,
		dir:         out.Dir,
		datasetName: out.DatasetName,
		mergedName:  out.MergedName,
		ext:         out.Extension,
	}
	if s.dir == "" {
		s.dir = "."
	}
	if s.datasetName == "" {
		s.datasetName = "joint_strength_results"
	}
	if s.mergedName == "" {
		s.mergedName = "joint_strength"
	}
	if s.ext == "" {
		s.ext = "parquet"
	}
	return s
}

// BatchPath is the file a batch with the given label is written to. An
// unbatched run has an empty label.
func (s *Store) BatchPath(label string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", s.datasetName, label, s.ext))
}

// DefaultPattern matches every batch file of the merged dataset.
func (s *Store) DefaultPattern() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_*.%s", s.mergedName, s.ext))
}

// DefaultOutput is the merged dataset file.
func (s *Store) DefaultOutput() string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s", s.mergedName, s.ext))
}

// WriteBatch persists ds as the batch file for label and returns its path.
// The file is written under a temporary name and renamed into place.
func (s *Store) WriteBatch(ds *Dataset, label string) (string, error) {
	data, err := Encode(ds)
	if err != nil {
		return "", err
	}
	path := s.BatchPath(label)
	if err := s.writeAtomic(path, data); err != nil {
		return "", err
	}
	monitoring.Logger().Info("wrote batch file", "path", path, "rows", ds.Len())
	return path, nil
}

func (s *Store) writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	tmp := path + partialSuffix
	w, err := s.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		s.fs.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := w.Close(); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// ReadFile decodes one dataset file.
func (s *Store) ReadFile(ctx context.Context, path string) (*Dataset, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(ctx, path, data)
}

// MergeResult describes a completed merge.
type MergeResult struct {
	Output string
	Files  []string
	Rows   int64
}

// MergeAll concatenates every file matching pattern, in lexical order, into
// output. All inputs must share the column schema of the first match. The
// output file itself is never treated as an input. No output is written
// when an input is unreadable or mismatched.
func (s *Store) MergeAll(ctx context.Context, pattern, output string) (MergeResult, error) {
	if pattern == "" {
		pattern = s.DefaultPattern()
	}
	if output == "" {
		output = s.DefaultOutput()
	}

	files, err := s.match(pattern, output)
	if err != nil {
		return MergeResult{}, err
	}
	if len(files) == 0 {
		return MergeResult{}, failures.Configf(failures.CodeEmptyMatch, "no files match %q", pattern)
	}

	tables := make([]arrow.Table, 0, len(files))
	defer func() {
		for _, t := range tables {
			t.Release()
		}
	}()

	var rows int64
	for _, f := range files {
		data, err := s.fs.ReadFile(f)
		if err != nil {
			return MergeResult{}, fmt.Errorf("read %s: %w", f, err)
		}
		tbl, err := readTable(ctx, data)
		if err != nil {
			return MergeResult{}, fmt.Errorf("%s: %w", f, err)
		}
		tables = append(tables, tbl)
		if err := compareSchema(f, tables[0].Schema(), tbl.Schema()); err != nil {
			return MergeResult{}, err
		}
		rows += tbl.NumRows()
	}

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(tables[0].Schema(), &buf, writerProps(), pqarrow.DefaultWriterProps())
	if err != nil {
		return MergeResult{}, fmt.Errorf("create parquet writer: %w", err)
	}
	for i, tbl := range tables {
		if tbl.NumRows() == 0 {
			continue
		}
		if err := w.WriteTable(tbl, mergeChunkSize); err != nil {
			w.Close()
			return MergeResult{}, fmt.Errorf("append %s: %w", files[i], err)
		}
	}
	if err := w.Close(); err != nil {
		return MergeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	if err := s.writeAtomic(output, buf.Bytes()); err != nil {
		return MergeResult{}, err
	}
	monitoring.Logger().Info("merged dataset files", "output", output, "files", len(files), "rows", rows)
	return MergeResult{Output: output, Files: files, Rows: rows}, nil
}

// Cleanup removes every file matching pattern and returns the removed
// paths. No match is not an error, so repeated calls are harmless.
func (s *Store) Cleanup(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = s.DefaultPattern()
	}
	files, err := s.match(pattern, "")
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(files))
	for _, f := range files {
		if err := s.fs.Remove(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", f, err)
		}
		removed = append(removed, f)
	}
	monitoring.Logger().Info("removed batch files", "pattern", pattern, "count", len(removed))
	return removed, nil
}

func (s *Store) match(pattern, exclude string) ([]string, error) {
	files, err := s.fs.Glob(pattern)
	if err != nil {
		return nil, &failures.ConfigurationError{
			Code:    failures.CodeEmptyMatch,
			Message: fmt.Sprintf("invalid file pattern %q", pattern),
			Cause:   err,
		}
	}
	if exclude == "" {
		return files, nil
	}
	exclude = filepath.Clean(exclude)
	out := files[:0]
	for _, f := range files {
		if filepath.Clean(f) != exclude {
			out = append(out, f)
		}
	}
	return out, nil
}
