package export

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hnscrape/pkg/scrape"
)

func fixtures() []scrape.Story {
	t0 := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	return []scrape.Story{
		{
			ID: 1, Rank: 1, Title: "First, with comma", URL: "https://example.com/a",
			Points: 10, Author: "alice", CommentCount: 2,
			AgeText: "2 hours ago", CommentsURL: "https://news.ycombinator.com/item?id=1",
			FirstSeen: t0, ScrapedAt: t0,
		},
		{
			ID: 2, Rank: 2, Title: "Second", URL: "",
			Points: 5, Author: "", CommentCount: 0,
			FirstSeen: t0, ScrapedAt: t0.Add(time.Hour),
		},
	}
}

func TestCSVExportFidelity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	stories := fixtures()

	ex, err := New(FormatCSV, path)
	require.NoError(t, err)
	require.NoError(t, ex.Export(stories))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(stories)+1)
	require.Equal(t, Columns, records[0])
	for i, st := range stories {
		require.Equal(t, row(st), records[i+1])
	}
}

func TestCSVExportOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	ex, err := New(FormatCSV, path)
	require.NoError(t, err)

	require.NoError(t, ex.Export(fixtures()))
	require.NoError(t, ex.Export(fixtures()[:1]))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2, "re-export replaces the file, it does not append")
}

func TestXLSXExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	stories := fixtures()

	ex, err := New(FormatXLSX, path)
	require.NoError(t, err)
	require.NoError(t, ex.Export(stories))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, len(stories)+1)
	require.Equal(t, Columns, rows[0])
	require.Equal(t, "1", rows[1][0])
	require.Equal(t, "First, with comma", rows[1][2])
	require.Equal(t, "10", rows[1][4])
	require.Equal(t, "alice", rows[1][5])
}

func TestExportErrorOnUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	ex, err := New(FormatCSV, path)
	require.NoError(t, err)
	err = ex.Export(fixtures())

	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	require.Equal(t, FormatCSV, xerr.Format)
	require.Equal(t, path, xerr.Path)
}

func TestWriteAtomicKeepsPriorFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(path, []byte("prior export"), 0o644))

	err := writeAtomic(path, func(tmp string) error {
		require.NoError(t, os.WriteFile(tmp, []byte("partial garbage"), 0o644))
		return errors.New("boom")
	})
	require.Error(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "prior export", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp file litter after a failed export")
}

func TestNewUnknownFormat(t *testing.T) {
	_, err := New(Format("pdf"), "out.pdf")
	require.Error(t, err)
}
