// Package encoding detects the text encoding of localization files and
// rewrites them into canonical UTF-16LE.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Canonical encoding names used across the package.
const (
	UTF16LE = "utf-16le"
	UTF16BE = "utf-16be"
	UTF8    = "utf-8"
	ASCII   = "ascii"
	GB18030 = "gb18030"
)

// CanonicalEncoding is the on-disk encoding every localization document is normalized to.
const CanonicalEncoding = UTF16LE

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// CanonicalName folds detector and user supplied names onto the package constants.
func CanonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "utf-16le", "utf16le", "utf_16_le", "utf-16-le", "utf_16", "utf-16":
		return UTF16LE
	case "utf-16be", "utf16be", "utf_16_be", "utf-16-be":
		return UTF16BE
	case "utf-8", "utf8", "utf_8", "utf-8-sig":
		return UTF8
	case "ascii", "us-ascii":
		return ASCII
	case "gb-18030", "gb18030", "gb_18030":
		return GB18030
	}
	return n
}

func lookup(name string) (xenc.Encoding, error) {
	switch CanonicalName(name) {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF8, ASCII:
		return unicode.UTF8, nil
	case GB18030:
		return simplifiedchinese.GB18030, nil
	}
	return nil, fmt.Errorf("no codec for encoding %q", name)
}

// Decode returns data as UTF-8 text. A leading BOM selects UTF-8, UTF-16LE or
// UTF-16BE; without one the fallback encoding is used.
func Decode(data []byte, fallback string) (string, error) {
	enc, err := lookup(fallback)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", fallback, err)
	}
	return string(out), nil
}

// decodeStrict decodes data from a detected encoding, rejecting input that is
// not valid for it.
func decodeStrict(data []byte, name string) (string, error) {
	switch CanonicalName(name) {
	case UTF8, ASCII:
		data = bytes.TrimPrefix(data, bomUTF8)
		if !utf8.Valid(data) {
			return "", fmt.Errorf("invalid %s byte sequence", name)
		}
		return string(data), nil
	}

	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}

	// x/text decoders substitute U+FFFD for invalid input instead of failing,
	// so a lossless decode must re-encode to the original bytes.
	back, _, err := transform.Bytes(enc.NewEncoder(), out)
	if err != nil || !bytes.Equal(back, data) {
		return "", fmt.Errorf("invalid %s byte sequence", name)
	}
	return string(out), nil
}

// Encode renders text in canonical UTF-16LE with a byte order mark.
func Encode(text string) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	out, _, err := transform.Bytes(enc, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", CanonicalEncoding, err)
	}
	return out, nil
}
