package adapter

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// headerAliases maps known alternate spellings to the canonical column name.
var headerAliases = map[string]string{
	"avg price": "avg_price",
}

// Table is a parsed spreadsheet with case/whitespace-normalized column names.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(names ...string) bool {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}
	for _, n := range names {
		if !present[n] {
			return false
		}
	}
	return true
}

// ParseTable reads the first sheet of an xlsx workbook into a Table. The
// first row is treated as the header; header names are trimmed, lower-cased
// and mapped through the known aliases. Data rows shorter than the header
// are padded with empty cells.
func ParseTable(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Table{}, nil
	}

	columns := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		columns[i] = normalizeHeader(h)
	}

	table := &Table{Columns: columns}
	for _, row := range rows[1:] {
		record := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(row) {
				record[col] = row[i]
			} else {
				record[col] = ""
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

func normalizeHeader(h string) string {
	name := strings.ToLower(strings.TrimSpace(h))
	if canonical, ok := headerAliases[name]; ok {
		return canonical
	}
	return name
}
