package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// out writes formatted output, ignoring write errors (terminal output).
func out(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}

// outln writes a line of output, ignoring write errors.
func outln(w io.Writer, args ...interface{}) {
	_, _ = fmt.Fprintln(w, args...)
}

// writeJSON encodes the value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
