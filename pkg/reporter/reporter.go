package reporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reporter owns the run directory and creates the CSV tables in it.
// With Debug set, every emitted row is echoed to stdout as produced.
type Reporter struct {
	Dir   string
	Debug bool
}

// New creates the timestamped run directory under baseDir.
func New(baseDir string, debug bool) (*Reporter, error) {
	timestamp := time.Now().Format("20060102_150405")
	dir := filepath.Join(baseDir, "resource-gather_"+timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Reporter{Dir: dir, Debug: debug}, nil
}

// Table is one open CSV report file. Rows are flushed on Close.
type Table struct {
	file     *os.File
	w        *csv.Writer
	debug    bool
	RowCount int
}

// NewTable creates a report file in the run directory. A nil header
// opens the table without a leading header row (the nodes table
// writes its own per-block headers).
func (r *Reporter) NewTable(filename string, header []string) (*Table, error) {
	f, err := os.Create(filepath.Join(r.Dir, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filename, err)
	}

	t := &Table{file: f, w: csv.NewWriter(f), debug: r.Debug}
	if header != nil {
		if err := t.Header(header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return t, nil
}

// Header writes a header row without counting it as data.
func (t *Table) Header(header []string) error {
	if err := t.w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	t.echo(header)
	return nil
}

// Row writes one data row.
func (t *Table) Row(row []string) error {
	if err := t.w.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	t.RowCount++
	t.echo(row)
	return nil
}

// Comment writes a single-cell marker line ("# --- ... ---").
func (t *Table) Comment(text string) error {
	if err := t.w.Write([]string{"# --- " + text + " ---"}); err != nil {
		return fmt.Errorf("failed to write CSV marker: %w", err)
	}
	t.echo([]string{"# --- " + text + " ---"})
	return nil
}

// Blank writes an empty padding row.
func (t *Table) Blank() error {
	if err := t.w.Write([]string{}); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	if t.debug {
		fmt.Println()
	}
	return nil
}

func (t *Table) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}

func (t *Table) echo(row []string) {
	if t.debug {
		fmt.Println(strings.Join(row, ","))
	}
}
