package encoding

import (
	"bytes"
	"sort"
	"unicode/utf8"

	"github.com/saintfish/chardet"
)

// Candidate is one guess about a file's encoding. Cost runs from 0 (certain)
// to 1 (noise).
type Candidate struct {
	Encoding string
	Cost     float64
}

// Detector ranks candidate encodings for raw file content, cheapest first.
type Detector interface {
	Detect(data []byte) []Candidate
}

// ChardetDetector sniffs byte order marks and UTF-16/UTF-8 structure before
// falling back to the statistical recognizers of chardet.
type ChardetDetector struct {
	text *chardet.Detector
}

func NewChardetDetector() *ChardetDetector {
	return &ChardetDetector{text: chardet.NewTextDetector()}
}

func (d *ChardetDetector) Detect(data []byte) []Candidate {
	if c, ok := sniffBOM(data); ok {
		return []Candidate{c}
	}
	if looksUTF16LE(data) {
		return []Candidate{{Encoding: UTF16LE, Cost: 0.1}}
	}
	if wellFormedUTF16LE(data) {
		return []Candidate{{Encoding: UTF16LE, Cost: 0.2}}
	}
	if utf8.Valid(data) {
		if isASCII(data) {
			return []Candidate{{Encoding: ASCII, Cost: 0}}
		}
		return []Candidate{{Encoding: UTF8, Cost: 0}}
	}

	results, err := d.text.DetectAll(data)
	if err != nil {
		return nil
	}

	candidates := make([]Candidate, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		name := CanonicalName(r.Charset)
		if seen[name] {
			continue
		}
		seen[name] = true
		candidates = append(candidates, Candidate{
			Encoding: name,
			Cost:     1 - float64(r.Confidence)/100,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Cost < candidates[j].Cost
	})
	return candidates
}

// Best returns the cheapest candidate, if any.
func Best(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Cost < best.Cost {
			best = c
		}
	}
	return best, true
}

func sniffBOM(data []byte) (Candidate, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return Candidate{Encoding: UTF8, Cost: 0}, true
	case bytes.HasPrefix(data, bomUTF16LE):
		return Candidate{Encoding: UTF16LE, Cost: 0}, true
	case bytes.HasPrefix(data, bomUTF16BE):
		return Candidate{Encoding: UTF16BE, Cost: 0}, true
	}
	return Candidate{}, false
}

// looksUTF16LE recognizes BOM-less UTF-16LE by the zero high bytes that
// Latin text leaves in odd positions.
func looksUTF16LE(data []byte) bool {
	if len(data) < 4 || len(data)%2 != 0 {
		return false
	}
	units := len(data) / 2
	var oddZeros, evenZeros int
	for i := 0; i < len(data); i += 2 {
		if data[i] == 0 {
			evenZeros++
		}
		if data[i+1] == 0 {
			oddZeros++
		}
	}
	return oddZeros*10 >= units*3 && evenZeros*10 < units
}

// wellFormedUTF16LE recognizes BOM-less UTF-16LE whose text is mostly
// outside Latin-1, where looksUTF16LE finds too few zero bytes. The content
// must hold at least one LF code unit, no other control units besides TAB
// and CR, and only properly paired surrogates.
func wellFormedUTF16LE(data []byte) bool {
	if len(data) < 2 || len(data)%2 != 0 {
		return false
	}
	newline := false
	for i := 0; i < len(data); i += 2 {
		u := uint16(data[i]) | uint16(data[i+1])<<8
		switch {
		case u == '\n':
			newline = true
		case u == '\r' || u == '\t':
		case u < 0x20:
			return false
		case u >= 0xD800 && u <= 0xDBFF:
			if i+3 >= len(data) {
				return false
			}
			next := uint16(data[i+2]) | uint16(data[i+3])<<8
			if next < 0xDC00 || next > 0xDFFF {
				return false
			}
			i += 2
		case u >= 0xDC00 && u <= 0xDFFF:
			return false
		}
	}
	return newline
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
