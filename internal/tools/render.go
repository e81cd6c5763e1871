package tools

import (
	"fmt"
	"io"
	"strings"
)

// Render writes a plain text listing of the catalog, one source per line.
func Render(w io.Writer, c Catalog) error {
	if len(c.Sources) == 0 {
		_, err := fmt.Fprintln(w, "No tool sources configured.")
		return err
	}
	for _, s := range c.Sources {
		var line string
		switch {
		case s.Error != "":
			line = fmt.Sprintf("%s (%s %s): unavailable: %s", s.Name, s.Transport, s.Target, s.Error)
		case len(s.Tools) == 0:
			line = fmt.Sprintf("%s (%s %s): no tools", s.Name, s.Transport, s.Target)
		default:
			line = fmt.Sprintf("%s (%s %s): %s", s.Name, s.Transport, s.Target, strings.Join(s.Tools, ", "))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
