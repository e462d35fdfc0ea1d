// Package export renders report records as CSV.
package export

import (
	"bufio"
	"io"
	"strings"
)

// Record is a uniformly shaped report row.
type Record interface {
	Header() []string
	Values() []string
}

// WriteCSV writes a header row followed by one row per record. Every field
// is double-quoted and embedded quotes are doubled. Empty input writes nothing.
func WriteCSV[T Record](w io.Writer, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	writeRow(bw, rows[0].Header())
	for _, r := range rows {
		writeRow(bw, r.Values())
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}
