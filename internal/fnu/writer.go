// Package fnu converts provider history CSV into the FNU flat file.
//
// An FNU file has the symbol on line 1, a display name on line 2 and one
// "mm/dd/yyyy,<value>,0" line per trading day.
package fnu

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"Yahoo2FNU/internal/apperr"
	"Yahoo2FNU/internal/model"
)

// DefaultPath is the output file used when none is given.
func DefaultPath(symbol string) string {
	return strings.ToUpper(symbol) + ".fnu"
}

// DisplayName is the second header line. Close is the default series and
// keeps the bare symbol; other columns carry their label.
func DisplayName(symbol string, col model.ValueColumn) string {
	symbol = strings.ToUpper(symbol)
	if col == model.Close {
		return symbol
	}
	return symbol + " " + col.Label()
}

// ColumnIndex returns the position of col's header in the CSV header row.
func ColumnIndex(header string, col model.ValueColumn) (int, error) {
	for i, name := range strings.Split(header, ",") {
		if name == col.Header() {
			return i, nil
		}
	}
	return -1, apperr.New(apperr.KindMissingColumn, "expected %q column in header %q", col.Header(), header)
}

// ParseRows converts every data line of csv into HistoryRows using col.
func ParseRows(csv string, col model.ValueColumn) ([]model.HistoryRow, error) {
	lines := strings.Split(csv, "\n")
	header := strings.TrimSuffix(lines[0], "\r")
	if strings.TrimSpace(header) == "" {
		return nil, apperr.New(apperr.KindMissingColumn, "empty data: no header row")
	}
	idx, err := ColumnIndex(header, col)
	if err != nil {
		return nil, err
	}

	rows := make([]model.HistoryRow, 0, len(lines)-1)
	for n, line := range lines[1:] {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		row, err := parseRow(line, idx)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindMalformedRow, err, "line %d", n+2)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRow(line string, idx int) (model.HistoryRow, error) {
	fields := strings.Split(line, ",")
	if len(fields) <= idx {
		return model.HistoryRow{}, apperr.New(apperr.KindMalformedRow, "not enough columns: have %d, need %d", len(fields), idx+1)
	}
	date, err := reformatDate(fields[0])
	if err != nil {
		return model.HistoryRow{}, err
	}
	return model.HistoryRow{Date: date, Value: fields[idx]}, nil
}

// reformatDate turns a fixed-width yyyy-mm-dd into mm/dd/yyyy by slicing.
func reformatDate(iso string) (string, error) {
	if len(iso) != 10 || iso[4] != '-' || iso[7] != '-' {
		return "", apperr.New(apperr.KindMalformedRow, "invalid date %q (expected yyyy-mm-dd)", iso)
	}
	return iso[5:7] + "/" + iso[8:10] + "/" + iso[0:4], nil
}

// Render produces the complete FNU document. Nothing is returned unless every
// row converts.
func Render(csv, symbol string, col model.ValueColumn) ([]byte, int, error) {
	rows, err := ParseRows(csv, col)
	if err != nil {
		return nil, 0, err
	}

	var b bytes.Buffer
	b.WriteString(strings.ToUpper(symbol))
	b.WriteByte('\n')
	b.WriteString(DisplayName(symbol, col))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(r.Date)
		b.WriteByte(',')
		b.WriteString(r.Value)
		b.WriteString(",0\n")
	}
	return b.Bytes(), len(rows), nil
}

// Write renders the document and writes it to w in one call.
func Write(w io.Writer, csv, symbol string, col model.ValueColumn) (int, error) {
	data, n, err := Render(csv, symbol, col)
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(data); err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "write FNU")
	}
	return n, nil
}

// WriteFile renders the document and replaces path with it atomically, so a
// failed run leaves any previous file untouched.
func WriteFile(path, csv, symbol string, col model.ValueColumn) (int, error) {
	data, n, err := Render(csv, symbol, col)
	if err != nil {
		return 0, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, apperr.Wrap(apperr.KindIo, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "close %s", path)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return 0, apperr.Wrap(apperr.KindIo, err, "rename to %s", path)
	}
	return n, nil
}
