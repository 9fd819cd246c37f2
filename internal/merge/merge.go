// Package merge cross-references source and target language documents into a
// deduplicated translation table.
package merge

import (
	"locmerge/internal/parser"
	"locmerge/internal/textutil"
)

// Entry is one source -> target translation with the location it came from.
type Entry struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	File    string `json:"file"`
	Section string `json:"section"`
	Key     string `json:"key"`
}

// Predicate decides whether a target value is genuinely translated.
type Predicate func(target string) bool

// DefaultPredicate accepts targets containing at least one Han ideograph.
var DefaultPredicate Predicate = textutil.ContainsChinese

// Merge emits an Entry for every section/key of src whose source value and
// target value are both non-empty and whose target value passes valid.
// Entries follow src's section and key order.
func Merge(file string, src, tgt *parser.Document, valid Predicate) []Entry {
	if valid == nil {
		valid = DefaultPredicate
	}

	var out []Entry
	for _, section := range src.Sections() {
		for _, key := range section.Keys() {
			srcVal, _ := section.Get(key)
			tgtVal := tgt.Lookup(section.Name, key)
			if srcVal == "" || tgtVal == "" || !valid(tgtVal) {
				continue
			}
			out = append(out, Entry{
				Source:  srcVal,
				Target:  tgtVal,
				File:    file,
				Section: section.Name,
				Key:     key,
			})
		}
	}
	return out
}
