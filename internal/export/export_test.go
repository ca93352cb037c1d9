package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JakeFAU/course-sampler/internal/catalog"
)

func sampleCourses() []catalog.Course {
	start := "2024-01-08"
	weeks := 4
	rating := 4.8
	return []catalog.Course{
		{
			Title:     "Machine Learning",
			Language:  "English",
			StartDate: &start,
			Weeks:     &weeks,
			Rating:    &rating,
			URL:       "https://www.example.org/learn/machine-learning",
		},
		{
			Title:    "Intro to Go",
			Language: "Spanish",
			URL:      "https://www.example.org/learn/go",
		},
		{
			Title:    "Machine Learning, Again",
			Language: "English",
			URL:      "https://www.example.org/learn/machine-learning",
		},
	}
}

func TestHeaderMatchesColumns(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]string{"Title", "Language", "Start Date", "Number of Weeks", "Average Rating", "Link"},
		Header)
}

func TestResolveFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, explicit, want string
		wantErr              bool
	}{
		{path: "courses.xlsx", want: FormatXLSX},
		{path: "courses.CSV", want: FormatCSV},
		{path: "courses", want: FormatXLSX},
		{path: "courses.csv", explicit: "xlsx", want: FormatXLSX},
		{path: "courses.xlsx", explicit: " CSV ", want: FormatCSV},
		{path: "courses.ods", explicit: "ods", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ResolveFormat(tt.path, tt.explicit)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrUnknownFormat)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "path=%s explicit=%s", tt.path, tt.explicit)
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	exporter, format, err := ForPath("out.csv", "")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)
	assert.IsType(t, &CSV{}, exporter)

	exporter, format, err = ForPath("out.xlsx", "")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, format)
	assert.IsType(t, &XLSX{}, exporter)

	_, err = New("pdf")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestStringsRendersAbsentAsEmpty(t *testing.T) {
	t.Parallel()

	courses := sampleCourses()
	assert.Equal(t,
		[]string{"Machine Learning", "English", "2024-01-08", "4", "4.8", "https://www.example.org/learn/machine-learning"},
		Strings(courses[0]))
	assert.Equal(t,
		[]string{"Intro to Go", "Spanish", "", "", "", "https://www.example.org/learn/go"},
		Strings(courses[1]))
}

func TestXLSXExport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "courses.xlsx")
	require.NoError(t, NewXLSX().Export(context.Background(), path, sampleCourses()))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	rows, err := book.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, "Machine Learning", rows[1][0])
	assert.Equal(t, "Intro to Go", rows[2][0])
	assert.Equal(t, "Machine Learning, Again", rows[3][0])
	assert.Equal(t, "https://www.example.org/learn/go", rows[2][5])

	weeks, err := book.GetCellValue(SheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "4", weeks)
	rating, err := book.GetCellValue(SheetName, "E2")
	require.NoError(t, err)
	assert.Equal(t, "4.8", rating)

	for _, cell := range []string{"C3", "D3", "E3"} {
		value, err := book.GetCellValue(SheetName, cell)
		require.NoError(t, err)
		assert.Empty(t, value, "cell %s should be empty", cell)
	}
}

func TestXLSXExportHeaderOnly(t *testing.T) {
	t.Parallel()

	// No extension: the workbook is still written as xlsx.
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, NewXLSX().Export(context.Background(), path, nil))

	book, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = book.Close() })

	rows, err := book.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{Header}, rows)
}

func TestCSVExport(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "courses.csv")
	require.NoError(t, NewCSV().Export(context.Background(), path, sampleCourses()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(raw), utf8BOM))

	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), utf8BOM))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, Header, records[0])
	assert.Equal(t, "Machine Learning, Again", records[3][0])
	assert.Equal(t, []string{"Intro to Go", "Spanish", "", "", "", "https://www.example.org/learn/go"}, records[2])
}

func TestExportErrors(t *testing.T) {
	t.Parallel()

	for _, exporter := range []catalog.Exporter{NewXLSX(), NewCSV()} {
		require.Error(t, exporter.Export(context.Background(), " ", nil))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := exporter.Export(ctx, filepath.Join(t.TempDir(), "canceled"), sampleCourses())
		require.ErrorIs(t, err, context.Canceled)
	}

	// A directory cannot be overwritten with a file.
	dir := t.TempDir()
	require.Error(t, NewXLSX().Export(context.Background(), dir, sampleCourses()))
	require.Error(t, NewCSV().Export(context.Background(), dir, sampleCourses()))
}
