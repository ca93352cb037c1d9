package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

// utf8BOM lets spreadsheet applications detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

// CSV writes a comma-separated file.
type CSV struct{}

// NewCSV returns a CSV exporter.
func NewCSV() *CSV {
	return &CSV{}
}

// Export writes the header and one record per course, in order, to path.
func (CSV) Export(ctx context.Context, path string, courses []catalog.Course) (err error) {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is required")
	}
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

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("export canceled: %w", err)
		}
		if err := w.Write(Strings(course)); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
