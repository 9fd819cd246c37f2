package filewalker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Walker discovers localization files under a directory tree.
type Walker struct {
	fs afero.Fs
}

// NewWalker creates a Walker over the given filesystem.
func NewWalker(fs afero.Fs) *Walker {
	return &Walker{fs: fs}
}

// Pair is a source-language file and the target-language file sharing its
// relative path and basename.
type Pair struct {
	// Key is the slash-separated relative path without extension.
	Key    string
	Source string
	Target string
}

// PairStats counts files that found no partner.
type PairStats struct {
	UnmatchedSource int
	UnmatchedTarget int
}

// Find returns every file under root whose extension is one of exts
// (case-insensitive), sorted by path.
func (w *Walker) Find(root string, exts ...string) ([]string, error) {
	byKey, err := w.index(root, exts)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, m := range byKey {
		for _, p := range m {
			files = append(files, p)
		}
	}
	sort.Strings(files)

	log.Debug().Int("count", len(files)).Str("root", root).Msg("Discovered files")
	return files, nil
}

// Pairs matches sourceExt files under sourceRoot with targetExt files under
// targetRoot by relative path minus extension. The roots may be the same.
func (w *Walker) Pairs(sourceRoot, targetRoot, sourceExt, targetExt string) ([]Pair, PairStats, error) {
	var stats PairStats

	sources, err := w.index(sourceRoot, []string{sourceExt})
	if err != nil {
		return nil, stats, err
	}
	targets, err := w.index(targetRoot, []string{targetExt})
	if err != nil {
		return nil, stats, err
	}
	srcByKey := sources[strings.ToLower(sourceExt)]
	tgtByKey := targets[strings.ToLower(targetExt)]

	var pairs []Pair
	for key, src := range srcByKey {
		tgt, ok := tgtByKey[key]
		if !ok {
			stats.UnmatchedSource++
			continue
		}
		pairs = append(pairs, Pair{Key: key, Source: src, Target: tgt})
	}
	for key := range tgtByKey {
		if _, ok := srcByKey[key]; !ok {
			stats.UnmatchedTarget++
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })

	log.Info().
		Int("pairs", len(pairs)).
		Int("unmatched_source", stats.UnmatchedSource).
		Int("unmatched_target", stats.UnmatchedTarget).
		Msg("Matched localization files")
	return pairs, stats, nil
}

// index maps lowercased extension -> pairing key -> path.
func (w *Walker) index(root string, exts []string) (map[string]map[string]string, error) {
	info, err := w.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	wanted := make(map[string]map[string]string, len(exts))
	for _, e := range exts {
		wanted[strings.ToLower(e)] = make(map[string]string)
	}

	err = afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		m, ok := wanted[strings.ToLower(ext)]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(strings.TrimSuffix(rel, ext))
		if prev, dup := m[key]; dup {
			log.Warn().Str("kept", prev).Str("ignored", path).Msg("Duplicate localization file")
			return nil
		}
		m[key] = path
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return wanted, nil
}
