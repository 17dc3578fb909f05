package fnu

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/model"
)

const header = "Date,Open,High,Low,Close,Adj Close,Volume"

const sampleCSV = header + `
2020-03-05,3075.70,3083.04,2999.83,3023.94,3023.94,5575550000
2020-03-06,2954.20,2985.93,2901.54,2972.37,2972.37,6552140000
2020-03-09,2863.89,2863.89,2734.43,null,null,null
`

func TestColumnIndex(t *testing.T) {
	tests := []struct {
		col  model.ValueColumn
		want int
	}{
		{model.Open, 1},
		{model.High, 2},
		{model.Low, 3},
		{model.Close, 4},
		{model.AdjustedClose, 5},
		{model.Volume, 6},
	}
	for _, tt := range tests {
		got, err := ColumnIndex(header, tt.col)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.col.Label(), err)
		}
		if got != tt.want {
			t.Errorf("%s: expected index %d, got %d", tt.col.Label(), tt.want, got)
		}
	}

	if _, err := ColumnIndex("Date,Open,High,Low,Volume", model.Close); apperr.KindOf(err) != apperr.KindMissingColumn {
		t.Errorf("expected missing column, got %v", err)
	}
}

func TestWrite_Close(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(&buf, sampleCSV, "spy", model.Close)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
	want := "SPY\nSPY\n" +
		"03/05/2020,3023.94,0\n" +
		"03/06/2020,2972.37,0\n" +
		"03/09/2020,null,0\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_ValueIsOpaque(t *testing.T) {
	csv := header + "\n2020-03-05,1,2,3,123.45,5,6\n"
	var buf bytes.Buffer
	if _, err := Write(&buf, csv, "X", model.Close); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "X\nX\n03/05/2020,123.45,0\n" {
		t.Errorf("unexpected output %q", got)
	}

	csv = header + "\n2020-03-05,1,2,3,4,5,0001.500\n"
	buf.Reset()
	if _, err := Write(&buf, csv, "X", model.Volume); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "X\nX Volume\n03/05/2020,0001.500,0\n" {
		t.Errorf("value text must pass through untouched, got %q", got)
	}
}

func TestWrite_CRLFAndOrder(t *testing.T) {
	csv := header + "\r\n2021-12-31,1,2,3,4,5,6\r\n2021-01-01,1,2,3,7,5,6\r\n"
	var buf bytes.Buffer
	if _, err := Write(&buf, csv, "AAPL", model.AdjustedClose); err != nil {
		t.Fatal(err)
	}
	want := "AAPL\nAAPL Adjusted Close\n12/31/2021,5,0\n01/01/2021,5,0\n"
	if buf.String() != want {
		t.Errorf("expected rows in input order, got %q", buf.String())
	}
}

func TestWrite_MissingColumn(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, "Date,Open\n2020-03-05,1\n", "X", model.Close)
	if apperr.KindOf(err) != apperr.KindMissingColumn {
		t.Fatalf("expected missing column, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written on failure")
	}

	if _, err := Write(&buf, "", "X", model.Close); apperr.KindOf(err) != apperr.KindMissingColumn {
		t.Errorf("expected missing column for empty data, got %v", err)
	}
}

func TestWrite_MalformedRow(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"too few fields", header + "\n2020-03-05,1,2,3,4\n2020-03-06,1,2,3\n"},
		{"short row first", header + "\n2020-03-05,1,2\n2020-03-06,1,2,3,4,5,6\n"},
		{"bad date", header + "\n5/3/2020,1,2,3,4,5,6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			_, err := Write(&buf, tt.csv, "X", model.Close)
			if apperr.KindOf(err) != apperr.KindMalformedRow {
				t.Fatalf("expected malformed row, got %v", err)
			}
			if buf.Len() != 0 {
				t.Errorf("expected no output, got %q", buf.String())
			}
		})
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWrite_WriterError(t *testing.T) {
	_, err := Write(failingWriter{}, sampleCSV, "X", model.Close)
	if apperr.KindOf(err) != apperr.KindIo {
		t.Errorf("expected io error, got %v", err)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath("spy"))
	if filepath.Base(path) != "SPY.fnu" {
		t.Errorf("unexpected default path %q", path)
	}

	n, err := WriteFile(path, sampleCSV, "spy", model.Close)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
	data, _ := os.ReadFile(path)
	if !bytes.HasPrefix(data, []byte("SPY\nSPY\n03/05/2020,3023.94,0\n")) {
		t.Errorf("unexpected file contents %q", data)
	}

	// A failing render keeps the previous file.
	if _, err := WriteFile(path, header+"\nbroken\n", "spy", model.Close); err == nil {
		t.Fatal("expected error")
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(after, data) {
		t.Error("previous output must survive a failed run")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected no temp files left, got %d entries", len(entries))
	}
}
