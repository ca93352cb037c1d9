package export

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

// SheetName is the worksheet the XLSX exporter writes.
const SheetName = "Courses"

// XLSX writes an Excel workbook with a single sheet.
type XLSX struct{}

// NewXLSX returns an XLSX exporter.
func NewXLSX() *XLSX {
	return &XLSX{}
}

// Export writes the header and one row per course, in order, then saves the
// workbook to path.
func (XLSX) Export(ctx context.Context, path string, courses []catalog.Course) (err error) {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is required")
	}
	book := excelize.NewFile()
	defer func() {
		if cerr := book.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, name := range Header {
		header[i] = name
	}
	if err := book.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, course := range courses {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("export canceled: %w", err)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("cell for row %d: %w", i+2, err)
		}
		row := Row(course)
		if err := book.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return writeWorkbook(book, path)
}

// writeWorkbook streams the workbook into path. SaveAs is avoided because it
// rejects paths without a spreadsheet extension.
func writeWorkbook(book *excelize.File, path string) (err error) {
	if err := ensureParent(path); err != nil {
		return err
	}
	// #nosec G304 -- the operator chooses the output path.
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := book.Write(f); err != nil {
		return fmt.Errorf("write workbook %s: %w", path, err)
	}
	return nil
}
