// Package parser reads `[Section]` / `Key = "Value"` localization documents.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"locmerge/internal/encoding"

	"github.com/spf13/afero"
)

var (
	sectionRE = regexp.MustCompile(`^\[.*\]$`)
	// Value group is greedy: it runs to the last quote on the line.
	keyValueRE = regexp.MustCompile(`^(.+?)\s*=\s*"(.*)"$`)
)

// Parse builds a Document from decoded text. Malformed lines are ignored,
// so Parse never fails.
func Parse(content string) *Document {
	doc := newDocument()
	var current *Section

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if sectionRE.MatchString(line) {
			current = doc.section(line[1 : len(line)-1])
			continue
		}

		m := keyValueRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if current == nil {
			current = doc.section(DefaultSection)
		}
		current.set(m[1], m[2])
	}

	return doc
}

// ParseFile reads and decodes path, then parses it. Files without a BOM are
// decoded with the fallback encoding.
func ParseFile(fs afero.Fs, path, fallback string) (*Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read localization file: %w", err)
	}

	text, err := encoding.Decode(data, fallback)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return Parse(text), nil
}
