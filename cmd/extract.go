package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/course-sampler/internal/catalog"
	"github.com/JakeFAU/course-sampler/internal/extract"
)

// newExtractCmd runs the field extractors against saved HTML, which helps
// when the catalog markup changes.
func newExtractCmd() *cobra.Command {
	var link string
	cmd := &cobra.Command{
		Use:   "extract <file.html>...",
		Short: "Extract course fields from saved pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courses := make([]catalog.Course, 0, len(args))
			var notes []string
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				url := link
				if url == "" {
					url = filepath.Base(path)
				}
				course, err := extract.Course(data, url)
				if err != nil {
					return fmt.Errorf("extract %s: %w", path, err)
				}
				courses = append(courses, course)
				if missing := extract.Missing(course); len(missing) > 0 {
					notes = append(notes, fmt.Sprintf("%s: missing %s", path, strings.Join(missing, ", ")))
				}
			}

			out := cmd.OutOrStdout()
			courseTable(out, courses).Render()
			for _, note := range notes {
				fmt.Fprintln(out, note)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&link, "link", "", "value for the Link column (default: file name)")
	return cmd
}
