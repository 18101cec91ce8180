// Package manifest reads the sample manifest: one "name,read1,read2" record per
// line, or a structured YAML/JSON document listing the same fields.
//
// Malformed lines and samples with missing read files are reported as warnings
// and skipped; only an unreadable manifest is an error.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mtbatch/internal/logging"
)

// FieldCount is the number of comma-separated fields in a delimited record.
const FieldCount = 3

// ErrManifestNotFound is returned when the manifest path does not exist.
var ErrManifestNotFound = errors.New("sample file not found")

// Sample is one unit of work: a name and its paired read files.
type Sample struct {
	Name  string `json:"name" yaml:"name"`
	Read1 string `json:"read1" yaml:"read1"`
	Read2 string `json:"read2" yaml:"read2"`
}

// Reader parses manifests and writes skip warnings to Out.
type Reader struct {
	Out    io.Writer
	logger *slog.Logger
}

// NewReader returns a Reader printing warnings to out (os.Stdout when nil).
func NewReader(out io.Writer) *Reader {
	if out == nil {
		out = os.Stdout
	}
	return &Reader{Out: out, logger: logging.New("manifest")}
}

// Read parses path with a Reader that warns on stdout.
func Read(path string) ([]Sample, error) {
	return NewReader(nil).Read(path)
}

// Read returns the accepted samples of path in input order.
func (r *Reader) Read(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, path)
		}
		return nil, fmt.Errorf("open sample file %s: %w", path, err)
	}
	defer f.Close()

	var cands []candidate
	switch structuredExt(path) {
	case ".yaml", ".json":
		cands, err = decodeStructured(f, structuredExt(path))
	default:
		cands, err = r.scanDelimited(f)
	}
	if err != nil {
		return nil, fmt.Errorf("read sample file %s: %w", path, err)
	}

	samples := make([]Sample, 0, len(cands))
	seen := make(map[string]bool, len(cands))
	for _, c := range cands {
		if ok := r.accept(c, seen); ok {
			samples = append(samples, c.Sample)
			seen[c.Name] = true
		}
	}
	r.logger.Debug("manifest loaded", "path", path, "accepted", len(samples), "candidates", len(cands))
	return samples, nil
}

// candidate is a record that has the right shape but is not yet validated.
type candidate struct {
	Sample
	where string
}

// scanDelimited splits every line on commas, dropping lines without exactly
// FieldCount fields.
func (r *Reader) scanDelimited(src io.Reader) ([]candidate, error) {
	var out []candidate
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		fields := splitFields(sc.Text())
		if len(fields) != FieldCount {
			r.warnf("Skipping line %d - expected %d columns, got %d", lineNum, FieldCount, len(fields))
			continue
		}
		out = append(out, candidate{
			Sample: Sample{Name: fields[0], Read1: fields[1], Read2: fields[2]},
			where:  fmt.Sprintf("line %d", lineNum),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitFields returns the trimmed comma-separated fields of line.
// A blank line has no fields.
func splitFields(line string) []string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// accept validates c and warns about every reason it is rejected.
func (r *Reader) accept(c candidate, seen map[string]bool) bool {
	if c.Name == "" {
		r.warnf("Skipping %s - empty sample name", c.where)
		return false
	}
	if seen[c.Name] {
		r.warnf("Skipping %s - duplicate sample name %s", c.where, c.Name)
		return false
	}
	ok := true
	if !isRegularFile(c.Read1) {
		r.warnf("Read1 file not found for %s: %s", c.Name, c.Read1)
		ok = false
	}
	if !isRegularFile(c.Read2) {
		r.warnf("Read2 file not found for %s: %s", c.Name, c.Read2)
		ok = false
	}
	return ok
}

func (r *Reader) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(r.Out, "Warning: %s\n", msg)
	r.logger.Debug("sample skipped", "reason", msg)
}

func isRegularFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// structuredExt normalizes the extensions that select a structured manifest.
func structuredExt(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		return ".yaml"
	case ".json":
		return ".json"
	default:
		return ext
	}
}
