// Package audit checks that target-language files of every mod folder are
// canonical and actually translated.
package audit

import (
	"context"
	"fmt"
	"path/filepath"

	"locmerge/internal/encoding"
	"locmerge/internal/filewalker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// FileAudit is the verdict for one target-language file.
type FileAudit struct {
	Folder          string
	Path            string
	Encoding        string
	Canonical       bool
	HasTargetScript bool
	Err             error
}

// Report lists per-file verdicts and the folders that look untranslated.
type Report struct {
	Files []FileAudit
	// Untranslated names folders whose target files all lack target-script text.
	Untranslated []string
}

// Errors returns the files that could not be audited.
func (r *Report) Errors() []FileAudit {
	var out []FileAudit
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// NonCanonical returns files not stored in the canonical encoding.
func (r *Report) NonCanonical() []FileAudit {
	var out []FileAudit
	for _, f := range r.Files {
		if f.Err == nil && !f.Canonical {
			out = append(out, f)
		}
	}
	return out
}

// Auditor inspects target-language files without modifying them.
type Auditor struct {
	fs        afero.Fs
	detector  encoding.Detector
	targetExt string
	fallback  string
	valid     func(string) bool
}

func NewAuditor(fs afero.Fs, detector encoding.Detector, targetExt, fallback string, valid func(string) bool) *Auditor {
	return &Auditor{
		fs:        fs,
		detector:  detector,
		targetExt: targetExt,
		fallback:  fallback,
		valid:     valid,
	}
}

// Audit checks every target file below each immediate subfolder of root.
func (a *Auditor) Audit(ctx context.Context, root string) (*Report, error) {
	infos, err := afero.ReadDir(a.fs, root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", root, err)
	}

	walker := filewalker.NewWalker(a.fs)
	report := &Report{}

	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		folder := info.Name()
		files, err := walker.Find(filepath.Join(root, folder), a.targetExt)
		if err != nil {
			report.Files = append(report.Files, FileAudit{Folder: folder, Path: filepath.Join(root, folder), Err: err})
			continue
		}
		if len(files) == 0 {
			continue
		}

		translated, failed := false, false
		for _, path := range files {
			fa := a.auditFile(folder, path)
			report.Files = append(report.Files, fa)
			switch {
			case fa.Err != nil:
				failed = true
				log.Warn().Err(fa.Err).Str("path", path).Msg("Audit failed")
			case fa.HasTargetScript:
				translated = true
			default:
				log.Info().Str("path", path).Msg("No target-script text")
			}
			if fa.Err == nil && !fa.Canonical {
				log.Warn().Str("path", path).Str("encoding", fa.Encoding).Msg("Not in canonical encoding")
			}
		}

		if !translated && !failed {
			report.Untranslated = append(report.Untranslated, folder)
		}
	}

	log.Info().
		Int("files", len(report.Files)).
		Int("non_canonical", len(report.NonCanonical())).
		Int("untranslated_folders", len(report.Untranslated)).
		Int("errors", len(report.Errors())).
		Msg("Audit complete")

	return report, nil
}

func (a *Auditor) auditFile(folder, path string) FileAudit {
	fa := FileAudit{Folder: folder, Path: path}

	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		fa.Err = fmt.Errorf("read %s: %w", path, err)
		return fa
	}

	decodeAs := a.fallback
	if best, ok := encoding.Best(a.detector.Detect(data)); ok {
		fa.Encoding = encoding.CanonicalName(best.Encoding)
		fa.Canonical = fa.Encoding == encoding.CanonicalEncoding
		decodeAs = fa.Encoding
	}

	text, err := encoding.Decode(data, decodeAs)
	if err != nil {
		text, err = encoding.Decode(data, a.fallback)
		if err != nil {
			fa.Err = err
			return fa
		}
	}

	fa.HasTargetScript = a.valid(text)
	return fa
}
