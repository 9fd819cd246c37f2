package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"locmerge/internal/encoding"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Output formats accepted by WriteFile.
const (
	FormatText = "text"
	FormatTSV  = "tsv"
	FormatJSON = "json"
)

// WriteText writes one `<source> -> <target>` line per entry.
func WriteText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s -> %s\n", e.Source, e.Target); err != nil {
			return err
		}
	}
	return nil
}

// WriteTSV writes entries with provenance as tab-separated values.
func WriteTSV(w io.Writer, entries []Entry) error {
	if _, err := fmt.Fprintln(w, "source\ttarget\tfile\tsection\tkey"); err != nil {
		return err
	}
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			escapeTSV(e.Source),
			escapeTSV(e.Target),
			e.File,
			escapeTSV(e.Section),
			escapeTSV(e.Key),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// WriteFile renders entries in format and atomically replaces path.
func WriteFile(fs afero.Fs, path, format string, entries []Entry) error {
	var buf bytes.Buffer
	var err error
	switch format {
	case FormatText, "":
		err = WriteText(&buf, entries)
	case FormatTSV:
		err = WriteTSV(&buf, entries)
	case FormatJSON:
		err = WriteJSON(&buf, entries)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := encoding.WriteFileAtomic(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Info().Str("path", path).Str("format", format).Int("entries", len(entries)).Msg("Wrote translation table")
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
