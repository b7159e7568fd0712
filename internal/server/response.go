package server

import (
	"bufio"
	"fmt"
	"strings"

	"bsql/internal/engine"
)

// writeResult renders one SqlResult per the wire shapes of spec.md §4.8:
// content lines followed by one empty terminator line, except the bare
// AUTH_SUCCESS/AUTH_FAILED handshake lines (written separately) which
// carry no terminator.
func writeResult(w *bufio.Writer, res engine.SqlResult) error {
	switch res.Kind {
	case engine.ResultRows:
		if _, err := fmt.Fprintf(w, "Columns: %s\n", strings.Join(res.Columns, ",")); err != nil {
			return err
		}
		for _, row := range res.Rows {
			fields := make([]string, len(row))
			for i, v := range row {
				fields[i] = v.String()
			}
			if _, err := fmt.Fprintf(w, "%s\n", strings.Join(fields, ",")); err != nil {
				return err
			}
		}
	case engine.ResultMutation:
		if _, err := fmt.Fprintf(w, "OK %d row(s)\n", res.RowsAffected); err != nil {
			return err
		}
		if res.GeneratedID != nil {
			if _, err := fmt.Fprintf(w, "Generated: %s=%s\n", res.GeneratedColumn, res.GeneratedID.String()); err != nil {
				return err
			}
		}
	case engine.ResultNames:
		if _, err := fmt.Fprintf(w, "%s: %s\n", res.NamesLabel, strings.Join(res.Names, ",")); err != nil {
			return err
		}
	case engine.ResultUse:
		if _, err := w.WriteString("OK\n"); err != nil {
			return err
		}
	case engine.ResultError:
		if _, err := fmt.Fprintf(w, "ERROR: %s\n", res.Err); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}
