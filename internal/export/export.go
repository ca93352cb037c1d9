// Package export writes sampled courses to spreadsheet files.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

// Supported output formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ErrUnknownFormat is returned for formats other than xlsx and csv.
var ErrUnknownFormat = errors.New("unknown export format")

// Header is the first row of every export, in column order.
var Header = []string{"Title", "Language", "Start Date", "Number of Weeks", "Average Rating", "Link"}

// ResolveFormat picks the output format: an explicit format wins, otherwise
// a ".csv" extension selects CSV and anything else XLSX.
func ResolveFormat(path, explicit string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, explicit)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV, nil
	}
	return FormatXLSX, nil
}

// New returns the exporter for format.
func New(format string) (catalog.Exporter, error) {
	switch format {
	case FormatXLSX:
		return NewXLSX(), nil
	case FormatCSV:
		return NewCSV(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ForPath resolves the format for path and returns its exporter.
func ForPath(path, explicit string) (catalog.Exporter, string, error) {
	format, err := ResolveFormat(path, explicit)
	if err != nil {
		return nil, "", err
	}
	exporter, err := New(format)
	if err != nil {
		return nil, "", err
	}
	return exporter, format, nil
}

// Row renders a course as cell values in Header order. Absent optional
// fields are nil so spreadsheet cells stay empty.
func Row(course catalog.Course) []any {
	row := []any{course.Title, course.Language, nil, nil, nil, course.URL}
	if course.StartDate != nil {
		row[2] = *course.StartDate
	}
	if course.Weeks != nil {
		row[3] = *course.Weeks
	}
	if course.Rating != nil {
		row[4] = *course.Rating
	}
	return row
}

// Strings renders a course as text cells in Header order.
func Strings(course catalog.Course) []string {
	record := make([]string, 0, len(Header))
	for _, cell := range Row(course) {
		switch v := cell.(type) {
		case nil:
			record = append(record, "")
		case string:
			record = append(record, v)
		case int:
			record = append(record, strconv.Itoa(v))
		case float64:
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		default:
			record = append(record, fmt.Sprint(v))
		}
	}
	return record
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}
