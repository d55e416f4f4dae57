package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"hnscrape/pkg/scrape"
)

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Columns is the exported column order, identical for every format.
var Columns = []string{
	"id", "rank", "title", "url", "points", "author",
	"comment_count", "age_text", "comments_url", "first_seen", "scraped_at",
}

// Error is an export failure. The target file is left exactly as it was.
type Error struct {
	Format Format
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export %s to %s: %v", e.Format, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exporter writes a full snapshot of the store to one file format.
type Exporter interface {
	Format() Format
	Path() string
	Export(stories []scrape.Story) error
}

// New creates an exporter for the given format writing to path.
func New(format Format, path string) (Exporter, error) {
	switch format {
	case FormatCSV:
		return &CSV{path: path}, nil
	case FormatXLSX:
		return &XLSX{path: path}, nil
	}
	return nil, fmt.Errorf("unknown export format %q", format)
}

// CSV writes stories as a CSV file with a header row.
type CSV struct {
	path string
}

func (e *CSV) Format() Format { return FormatCSV }
func (e *CSV) Path() string   { return e.path }

func (e *CSV) Export(stories []scrape.Story) error {
	err := writeAtomic(e.path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}
		w := csv.NewWriter(f)
		if err := w.Write(Columns); err != nil {
			f.Close()
			return err
		}
		for _, st := range stories {
			if err := w.Write(row(st)); err != nil {
				f.Close()
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		return &Error{Format: FormatCSV, Path: e.path, Err: err}
	}
	return nil
}

// SheetName is the single worksheet in XLSX exports.
const SheetName = "stories"

// XLSX writes stories as a single-sheet spreadsheet.
type XLSX struct {
	path string
}

func (e *XLSX) Format() Format { return FormatXLSX }
func (e *XLSX) Path() string   { return e.path }

func (e *XLSX) Export(stories []scrape.Story) error {
	err := writeAtomic(e.path, func(tmp string) error {
		f := excelize.NewFile()
		defer f.Close()

		if err := f.SetSheetName("Sheet1", SheetName); err != nil {
			return err
		}

		header := make([]any, len(Columns))
		for i, c := range Columns {
			header[i] = c
		}
		if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
			return err
		}

		for i, st := range stories {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			vals := row(st)
			out := make([]any, len(vals))
			for j, v := range vals {
				out[j] = v
			}
			// Numeric columns stay numeric in the sheet.
			out[0] = st.ID
			out[1] = st.Rank
			out[4] = st.Points
			out[6] = st.CommentCount
			if err := f.SetSheetRow(SheetName, cell, &out); err != nil {
				return err
			}
		}
		return f.SaveAs(tmp)
	})
	if err != nil {
		return &Error{Format: FormatXLSX, Path: e.path, Err: err}
	}
	return nil
}

func row(st scrape.Story) []string {
	return []string{
		strconv.FormatInt(st.ID, 10),
		strconv.Itoa(st.Rank),
		st.Title,
		st.URL,
		strconv.Itoa(st.Points),
		st.Author,
		strconv.Itoa(st.CommentCount),
		st.AgeText,
		st.CommentsURL,
		st.FirstSeen.UTC().Format(time.RFC3339),
		st.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

// writeAtomic writes through a temp file in the destination directory
// and renames it over path, so a failed export never leaves a truncated
// file and never disturbs a prior one.
func writeAtomic(path string, write func(tmp string) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	tmp.Close()

	if err := write(name); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
