// Package folders enforces the one-Localization-directory-per-mod layout of a
// translation corpus.
package folders

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Outcome classifies what happened to one mod folder.
type Outcome int

const (
	AlreadyCorrect Outcome = iota
	DeletedEmpty
	FixedOtherContent
	FixedNoLocalization
	Failed
)

func (o Outcome) String() string {
	switch o {
	case AlreadyCorrect:
		return "already_correct"
	case DeletedEmpty:
		return "deleted_empty"
	case FixedOtherContent:
		return "fixed_other_content"
	case FixedNoLocalization:
		return "fixed_no_localization"
	default:
		return "failed"
	}
}

// FolderResult is the outcome for one immediate subdirectory.
type FolderResult struct {
	Name    string
	Outcome Outcome
	// Original lists the folder's entries before it was fixed.
	Original []string
	Err      error
}

// Report collects results for every subdirectory of the root.
type Report struct {
	Results []FolderResult
}

// With returns the results that ended in outcome o.
func (r *Report) With(o Outcome) []FolderResult {
	var out []FolderResult
	for _, res := range r.Results {
		if res.Outcome == o {
			out = append(out, res)
		}
	}
	return out
}

// Counts tallies results by outcome.
func (r *Report) Counts() map[Outcome]int {
	m := make(map[Outcome]int)
	for _, res := range r.Results {
		m[res.Outcome]++
	}
	return m
}

// Normalizer makes each mod folder contain exactly one localization directory.
type Normalizer struct {
	fs      afero.Fs
	dirName string
}

func NewNormalizer(fs afero.Fs, dirName string) *Normalizer {
	if dirName == "" {
		dirName = "Localization"
	}
	return &Normalizer{fs: fs, dirName: dirName}
}

// Normalize visits every immediate subdirectory of root. Empty folders are
// removed, extra content beside the localization directory is deleted, and
// folders without one get their content moved into a new one. Failures are
// recorded per folder; only an unreadable root is returned as an error.
func (n *Normalizer) Normalize(ctx context.Context, root string) (*Report, error) {
	infos, err := afero.ReadDir(n.fs, root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", root, err)
	}

	report := &Report{}
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := n.normalizeFolder(filepath.Join(root, info.Name()))
		res.Name = info.Name()
		logResult(res)
		report.Results = append(report.Results, res)
	}

	counts := report.Counts()
	log.Info().
		Int("folders", len(report.Results)).
		Int("already_correct", counts[AlreadyCorrect]).
		Int("fixed_other_content", counts[FixedOtherContent]).
		Int("fixed_no_localization", counts[FixedNoLocalization]).
		Int("deleted_empty", counts[DeletedEmpty]).
		Int("errors", counts[Failed]).
		Msg("Folder normalization complete")

	return report, nil
}

func (n *Normalizer) normalizeFolder(path string) FolderResult {
	infos, err := afero.ReadDir(n.fs, path)
	if err != nil {
		return FolderResult{Outcome: Failed, Err: fmt.Errorf("read folder: %w", err)}
	}

	if len(infos) == 0 {
		if err := n.fs.Remove(path); err != nil {
			return FolderResult{Outcome: Failed, Err: fmt.Errorf("remove empty folder: %w", err)}
		}
		return FolderResult{Outcome: DeletedEmpty}
	}

	names := make([]string, 0, len(infos))
	hasLocalization := false
	for _, info := range infos {
		names = append(names, info.Name())
		if info.Name() != n.dirName {
			continue
		}
		if !info.IsDir() {
			return FolderResult{
				Outcome:  Failed,
				Original: names,
				Err:      fmt.Errorf("%s exists but is not a directory", n.dirName),
			}
		}
		hasLocalization = true
	}

	switch {
	case hasLocalization && len(infos) == 1:
		return FolderResult{Outcome: AlreadyCorrect}

	case hasLocalization:
		for _, name := range names {
			if name == n.dirName {
				continue
			}
			if err := n.fs.RemoveAll(filepath.Join(path, name)); err != nil {
				return FolderResult{Outcome: Failed, Original: names, Err: fmt.Errorf("remove %s: %w", name, err)}
			}
		}
		return FolderResult{Outcome: FixedOtherContent, Original: names}

	default:
		locPath := filepath.Join(path, n.dirName)
		if err := n.fs.MkdirAll(locPath, 0o755); err != nil {
			return FolderResult{Outcome: Failed, Original: names, Err: fmt.Errorf("create %s: %w", n.dirName, err)}
		}
		for _, name := range names {
			if err := n.fs.Rename(filepath.Join(path, name), filepath.Join(locPath, name)); err != nil {
				return FolderResult{Outcome: Failed, Original: names, Err: fmt.Errorf("move %s: %w", name, err)}
			}
		}
		return FolderResult{Outcome: FixedNoLocalization, Original: names}
	}
}

func logResult(res FolderResult) {
	switch res.Outcome {
	case AlreadyCorrect:
		log.Debug().Str("folder", res.Name).Msg("Folder already correct")
	case Failed:
		log.Error().Err(res.Err).Str("folder", res.Name).Msg("Folder normalization failed")
	default:
		log.Info().Str("folder", res.Name).Str("outcome", res.Outcome.String()).Strs("original", res.Original).Msg("Folder fixed")
	}
}
