package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"locmerge/internal/filewalker"
	"locmerge/internal/parser"
	"locmerge/internal/textutil"

	"github.com/rs/zerolog/log"
)

// Policy decides which target survives when a source value repeats with a
// different target.
type Policy int

const (
	FirstSeen Policy = iota
	LastWrite
)

func (p Policy) String() string {
	if p == LastWrite {
		return "last"
	}
	return "first"
}

// ParsePolicy accepts "first" or "last".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first", "first-seen":
		return FirstSeen, nil
	case "last", "last-write":
		return LastWrite, nil
	}
	return FirstSeen, fmt.Errorf("unknown dedup policy %q (want first or last)", s)
}

// Table accumulates entries keyed by source value.
type Table struct {
	policy     Policy
	entries    map[string]Entry
	conflicts  int
	duplicates int
}

func NewTable(policy Policy) *Table {
	return &Table{policy: policy, entries: make(map[string]Entry)}
}

// Add folds entries into the table under its policy.
func (t *Table) Add(entries ...Entry) {
	for _, e := range entries {
		prev, ok := t.entries[e.Source]
		if !ok {
			t.entries[e.Source] = e
			continue
		}
		if prev.Target == e.Target {
			t.duplicates++
			continue
		}

		t.conflicts++
		log.Debug().
			Str("source", textutil.Truncate(e.Source, 40)).
			Str("kept", textutil.Truncate(t.kept(prev, e).Target, 40)).
			Str("file", e.File).
			Msg("Conflicting translation")
		t.entries[e.Source] = t.kept(prev, e)
	}
}

func (t *Table) kept(prev, next Entry) Entry {
	if t.policy == LastWrite {
		return next
	}
	return prev
}

// Len is the number of distinct source values.
func (t *Table) Len() int { return len(t.entries) }

// Conflicts counts repeats of a source value with a different target.
func (t *Table) Conflicts() int { return t.conflicts }

// Duplicates counts exact repeats of a source/target pair.
func (t *Table) Duplicates() int { return t.duplicates }

// Lookup returns the surviving target for a source value.
func (t *Table) Lookup(source string) (string, bool) {
	e, ok := t.entries[source]
	return e.Target, ok
}

// Entries returns the table sorted lexicographically by source value.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// Loader reads one localization document.
type Loader func(path string) (*parser.Document, error)

// PairError records a pair that could not be loaded.
type PairError struct {
	Pair filewalker.Pair
	Err  error
}

// Result is the outcome of folding a corpus of pairs.
type Result struct {
	Table  *Table
	Pairs  int
	Failed []PairError
}

// Fold merges every pair into one table, in pair order. A pair whose files
// fail to load is recorded and skipped.
func Fold(ctx context.Context, pairs []filewalker.Pair, load Loader, valid Predicate, policy Policy) (*Result, error) {
	res := &Result{Table: NewTable(policy)}

	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		src, err := load(p.Source)
		if err != nil {
			log.Warn().Err(err).Str("file", p.Source).Msg("Skipping pair")
			res.Failed = append(res.Failed, PairError{Pair: p, Err: err})
			continue
		}
		tgt, err := load(p.Target)
		if err != nil {
			log.Warn().Err(err).Str("file", p.Target).Msg("Skipping pair")
			res.Failed = append(res.Failed, PairError{Pair: p, Err: err})
			continue
		}

		entries := Merge(p.Key, src, tgt, valid)
		res.Table.Add(entries...)
		res.Pairs++
		log.Debug().Str("pair", p.Key).Int("entries", len(entries)).Msg("Merged pair")
	}

	log.Info().
		Int("pairs", res.Pairs).
		Int("failed", len(res.Failed)).
		Int("entries", res.Table.Len()).
		Int("conflicts", res.Table.Conflicts()).
		Int("duplicates", res.Table.Duplicates()).
		Str("policy", policy.String()).
		Msg("Merge complete")

	return res, nil
}
