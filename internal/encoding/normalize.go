package encoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Outcome classifies what happened to a single file.
type Outcome int

const (
	Canonical Outcome = iota
	Converted
	Remediable
	UnknownEncoding
	UnsupportedEncoding
	ConversionFailed
	ReadFailed
)

func (o Outcome) String() string {
	switch o {
	case Canonical:
		return "canonical"
	case Converted:
		return "converted"
	case Remediable:
		return "remediable"
	case UnknownEncoding:
		return "unknown_encoding"
	case UnsupportedEncoding:
		return "unsupported_encoding"
	case ConversionFailed:
		return "conversion_failed"
	case ReadFailed:
		return "read_failed"
	default:
		return "invalid"
	}
}

var ErrUnknownEncoding = errors.New("unknown encoding")

// UnsupportedEncodingError reports a detected encoding outside the canonical
// encoding and the remediable set.
type UnsupportedEncodingError struct {
	Path     string
	Detected string
	Cost     float64
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("%s: unsupported encoding %s (cost %.3f)", e.Path, e.Detected, e.Cost)
}

// ConversionError wraps a decode, encode or write failure during remediation.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: conversion failed: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// remediable lists encodings that are rewritten into the canonical encoding.
var remediable = map[string]bool{
	UTF8:    true,
	ASCII:   true,
	GB18030: true,
}

// Result is the per-file outcome of Inspect or Normalize.
type Result struct {
	Path     string
	Outcome  Outcome
	Detected string
	Cost     float64
	Err      error
}

// Report aggregates results over a run.
type Report struct {
	Results []Result
	Counts  map[Outcome]int
}

func newReport() *Report {
	return &Report{Counts: make(map[Outcome]int)}
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	r.Counts[res.Outcome]++
}

// Failed lists results that ended in an error.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Normalizer rewrites localization files into the canonical encoding.
type Normalizer struct {
	fs       afero.Fs
	detector Detector
}

func NewNormalizer(fs afero.Fs, detector Detector) *Normalizer {
	return &Normalizer{fs: fs, detector: detector}
}

// Inspect detects a file's encoding and classifies it without writing.
func (n *Normalizer) Inspect(path string) Result {
	res, _ := n.classify(path)
	return res
}

// Normalize detects a file's encoding and, when it is remediable, rewrites
// the file in canonical UTF-16LE. Files already canonical are left alone.
func (n *Normalizer) Normalize(path string) Result {
	res, data := n.classify(path)
	if res.Outcome != Remediable {
		return res
	}

	text, err := decodeStrict(data, res.Detected)
	if err != nil {
		return n.failed(res, err)
	}
	out, err := Encode(text)
	if err != nil {
		return n.failed(res, err)
	}

	info, err := n.fs.Stat(path)
	if err != nil {
		return n.failed(res, err)
	}
	if err := WriteFileAtomic(n.fs, path, out, info.Mode().Perm()); err != nil {
		return n.failed(res, err)
	}

	res.Outcome = Converted
	return res
}

// NormalizeAll runs Normalize (or Inspect when dryRun is set) over paths in
// order. Per-file failures are recorded, never returned.
func (n *Normalizer) NormalizeAll(ctx context.Context, paths []string, dryRun bool) (*Report, error) {
	report := newReport()
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var res Result
		if dryRun {
			res = n.Inspect(p)
		} else {
			res = n.Normalize(p)
		}
		logResult(res)
		report.add(res)
	}

	log.Info().
		Int("files", len(report.Results)).
		Int("canonical", report.Counts[Canonical]).
		Int("converted", report.Counts[Converted]).
		Int("remediable", report.Counts[Remediable]).
		Int("unknown", report.Counts[UnknownEncoding]).
		Int("unsupported", report.Counts[UnsupportedEncoding]).
		Int("failed", report.Counts[ConversionFailed]+report.Counts[ReadFailed]).
		Msg("Encoding pass complete")

	return report, nil
}

func (n *Normalizer) classify(path string) (Result, []byte) {
	res := Result{Path: path}

	data, err := afero.ReadFile(n.fs, path)
	if err != nil {
		res.Outcome = ReadFailed
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return res, nil
	}

	best, ok := Best(n.detector.Detect(data))
	if !ok {
		res.Outcome = UnknownEncoding
		res.Err = fmt.Errorf("%s: %w", path, ErrUnknownEncoding)
		return res, data
	}
	res.Detected = CanonicalName(best.Encoding)
	res.Cost = best.Cost

	switch {
	case res.Detected == CanonicalEncoding:
		res.Outcome = Canonical
	case remediable[res.Detected]:
		res.Outcome = Remediable
	default:
		res.Outcome = UnsupportedEncoding
		res.Err = &UnsupportedEncodingError{Path: path, Detected: res.Detected, Cost: res.Cost}
	}
	return res, data
}

func (n *Normalizer) failed(res Result, err error) Result {
	res.Outcome = ConversionFailed
	res.Err = &ConversionError{Path: res.Path, Err: err}
	return res
}

func logResult(res Result) {
	switch res.Outcome {
	case Canonical:
		log.Debug().Str("path", res.Path).Msg("Already canonical")
	case Converted:
		log.Info().Str("path", res.Path).Str("from", res.Detected).Msg("Converted to UTF-16LE")
	case Remediable:
		log.Info().Str("path", res.Path).Str("encoding", res.Detected).Float64("cost", res.Cost).Msg("Needs conversion")
	case UnsupportedEncoding:
		log.Warn().Str("path", res.Path).Str("encoding", res.Detected).Float64("cost", res.Cost).Msg("Unsupported encoding, left untouched")
	default:
		log.Warn().Err(res.Err).Str("path", res.Path).Msg("Skipped file")
	}
}
