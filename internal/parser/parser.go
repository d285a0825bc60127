package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/mdpl-cli/internal/table"
)

// Options tunes how tables are read and written.
type Options struct {
	// Delimiter for CSV. If 0, ',' is used except for .tsv files, which use tab.
	Delimiter rune
	// SheetName selects the XLSX sheet; empty means SheetIndex.
	SheetName string
	// SheetIndex is 1-based; values <= 0 select the first sheet.
	SheetIndex int
}

// Codec reads and writes tables for one family of file formats.
type Codec interface {
	CanParse(filename string) bool
	Read(path string, opt Options) (*table.Table, error)
	Write(path string, t *table.Table, opt Options) error
}

var registry []Codec

// Register adds a codec to the registry. Later registrations win ties.
func Register(c Codec) {
	registry = append([]Codec{c}, registry...)
}

// ErrUnsupported indicates no codec handles the file extension.
var ErrUnsupported = errors.New("unsupported table format")

// ForPath picks the codec for a path by extension. Paths with no or unknown extensions
// fall back to CSV.
func ForPath(path string) (Codec, error) {
	for _, c := range registry {
		if c.CanParse(path) {
			return c, nil
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xls", ".ods", ".parquet", ".json":
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	return csvCodec{}, nil
}

// ReadFile loads a table from path with the matching codec.
func ReadFile(path string, opt Options) (*table.Table, error) {
	c, err := ForPath(path)
	if err != nil {
		return nil, err
	}
	return c.Read(path, opt)
}

// WriteFile stores t at path with the matching codec.
func WriteFile(path string, t *table.Table, opt Options) error {
	c, err := ForPath(path)
	if err != nil {
		return err
	}
	return c.Write(path, t, opt)
}

func init() {
	Register(csvCodec{})
	Register(xlsxCodec{})
}
