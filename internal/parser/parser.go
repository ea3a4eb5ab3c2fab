package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/candidash/internal/dataset"
)

// Parser converts a document format into CSV text.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte) (string, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// binaryFormats are spreadsheet and document formats with no converter.
var binaryFormats = map[string]bool{
	".xls": true, ".xlsb": true, ".ods": true, ".numbers": true,
	".doc": true, ".docx": true, ".pdf": true, ".zip": true,
}

// ToCSV selects a parser by file name and returns CSV text. Known binary
// formats fail with ErrUnsupported; other unknown extensions are treated as
// plain CSV.
func ToCSV(name string, content []byte) (string, error) {
	for _, p := range registry {
		if p.CanParse(name) {
			return p.Parse(content)
		}
	}
	if binaryFormats[strings.ToLower(filepath.Ext(name))] {
		return "", fmt.Errorf("convert %s: %w", filepath.Base(name), ErrUnsupported)
	}
	return string(content), nil
}

// ParseFile reads a csv, txt or xlsx file and parses it into a table.
func ParseFile(path string) (*dataset.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	text, err := ToCSV(path, data)
	if err != nil {
		return nil, err
	}
	t, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return t.WithSource(filepath.Base(path)), nil
}

func init() {
	Register(csvParser{})
	Register(txtParser{})
	Register(xlsxParser{})
}
