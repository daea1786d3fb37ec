package report

import (
	"encoding/csv"
	"io"
)

// writeRecords writes a header and every record produced by fill.
func writeRecords(w io.Writer, header []string, fill func(emit func(...string))) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	var werr error
	fill(func(rec ...string) {
		if werr == nil {
			werr = cw.Write(rec)
		}
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}
