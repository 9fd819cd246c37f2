package parser

import "strings"

// DefaultSection receives key-value lines that appear before any header.
const DefaultSection = "DEFAULT"

// Section is one `[Name]` block of a localization document.
type Section struct {
	// Name is the header text without brackets.
	Name   string
	keys   []string
	values map[string]string
}

func newSection(name string) *Section {
	return &Section{Name: name, values: make(map[string]string)}
}

func (s *Section) set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Keys returns the section's keys in first-appearance order.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Get returns the value stored under key.
func (s *Section) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Section) Len() int { return len(s.keys) }

// Document is an ordered section -> key -> value mapping parsed from one
// localization file. It is not modified after Parse returns.
type Document struct {
	order    []string
	sections map[string]*Section
}

func newDocument() *Document {
	return &Document{sections: make(map[string]*Section)}
}

func (d *Document) section(name string) *Section {
	s, ok := d.sections[name]
	if !ok {
		s = newSection(name)
		d.sections[name] = s
		d.order = append(d.order, name)
	}
	return s
}

// Sections returns the document's sections in first-appearance order.
func (d *Document) Sections() []*Section {
	out := make([]*Section, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.sections[name])
	}
	return out
}

// Section looks up a section by name.
func (d *Document) Section(name string) (*Section, bool) {
	s, ok := d.sections[name]
	return s, ok
}

// Lookup returns the value of key in section, or "" when either is absent.
func (d *Document) Lookup(section, key string) string {
	s, ok := d.sections[section]
	if !ok {
		return ""
	}
	return s.values[key]
}

// Len counts key-value entries across all sections.
func (d *Document) Len() int {
	n := 0
	for _, s := range d.sections {
		n += s.Len()
	}
	return n
}

// Map flattens the document into nested maps.
func (d *Document) Map() map[string]map[string]string {
	out := make(map[string]map[string]string, len(d.sections))
	for name, s := range d.sections {
		kv := make(map[string]string, len(s.values))
		for k, v := range s.values {
			kv[k] = v
		}
		out[name] = kv
	}
	return out
}

// String renders the canonical serialization. Parsing the result yields the
// same mapping.
func (d *Document) String() string {
	var b strings.Builder
	for i, s := range d.Sections() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + s.Name + "]\n")
		for _, k := range s.keys {
			b.WriteString(k + " = \"" + s.values[k] + "\"\n")
		}
	}
	return b.String()
}
