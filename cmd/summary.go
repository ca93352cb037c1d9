package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JakeFAU/course-sampler/internal/catalog"
	"github.com/JakeFAU/course-sampler/internal/export"
	"github.com/JakeFAU/course-sampler/internal/pipeline"
)

func courseTable(w io.Writer, courses []catalog.Course) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(export.Header))
	for _, name := range export.Header {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for _, course := range courses {
		cells := export.Strings(course)
		row := make(table.Row, 0, len(cells))
		for _, cell := range cells {
			row = append(row, cell)
		}
		t.AppendRow(row)
	}
	return t
}

func printSummary(w io.Writer, res pipeline.Result) {
	t := courseTable(w, res.Courses)
	t.AppendFooter(table.Row{"", "", "", "", "Rows", len(res.Courses)})
	t.Render()

	fmt.Fprintf(w, "File saved! %s (%s, %s)\n", res.OutputPath, res.Format, res.Duration.Round(time.Millisecond))
	if missing := formatMissing(res.Missing); missing != "" {
		fmt.Fprintf(w, "Missing fields: %s\n", missing)
	}
	if res.Rendered > 0 {
		fmt.Fprintf(w, "Rendered in browser: %d\n", res.Rendered)
	}
}

func formatMissing(counts map[string]int) string {
	fields := make([]string, 0, len(counts))
	for field := range counts {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s=%d", field, counts[field]))
	}
	return strings.Join(parts, ", ")
}
