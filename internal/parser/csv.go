package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
	"github.com/KaramelBytes/mdpl-cli/internal/utils"
)

type csvCodec struct{}

func (csvCodec) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvCodec) Read(path string, opt Options) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.Comma = delimiterFor(path, opt)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: no columns to parse from file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		if len(rec) == 1 && rec[0] == "" && len(header) > 1 {
			continue
		}
		rows = append(rows, rec)
	}
	return table.FromRecords(header, rows)
}

// Write renders the table with a header row and no index column, then swaps the file
// into place atomically.
func (csvCodec) Write(path string, t *table.Table, opt Options) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiterFor(path, opt)
	header, rows := t.Records()
	if err := writeRecord(w, &buf, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range rows {
		if err := writeRecord(w, &buf, rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// writeRecord quotes a record made of one empty field, which csv.Writer would emit as a
// blank line that readers skip.
func writeRecord(w *csv.Writer, buf *bytes.Buffer, rec []string) error {
	if len(rec) != 1 || rec[0] != "" {
		return w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	buf.WriteString("\"\"\n")
	return nil
}

func delimiterFor(path string, opt Options) rune {
	if opt.Delimiter != 0 {
		return opt.Delimiter
	}
	return sniffDelimiter(path)
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
