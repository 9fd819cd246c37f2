package merge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"locmerge/internal/encoding"
	"locmerge/internal/filewalker"
	"locmerge/internal/parser"
	"locmerge/internal/textutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeBasic(t *testing.T) {
	src := parser.Parse("[UI]\nHello = \"Hi there\"\n")
	tgt := parser.Parse("[UI]\nHello = \"你好\"\n")

	entries := Merge("ui", src, tgt, nil)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Source: "Hi there", Target: "你好", File: "ui", Section: "UI", Key: "Hello"}, entries[0])

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, entries))
	assert.Equal(t, "Hi there -> 你好\n", buf.String())
}

func TestMergeFilters(t *testing.T) {
	src := parser.Parse(`Lead = "Top"
[UI]
Hello = "Hi"
Empty = "Nothing"
Latin = "Untranslated"
Missing = "Gone"
NoSource = ""
[Only]
X = "y"
`)
	tgt := parser.Parse(`Lead = "顶部"
[UI]
Hello = "你好"
Empty = ""
Latin = "Untranslated"
NoSource = "空"
`)

	entries := Merge("f", src, tgt, DefaultPredicate)
	require.Len(t, entries, 2)
	assert.Equal(t, "Top", entries[0].Source)
	assert.Equal(t, parser.DefaultSection, entries[0].Section)
	assert.Equal(t, "Hi", entries[1].Source)

	anyScript := Merge("f", src, tgt, textutil.NonEmpty)
	assert.Len(t, anyScript, 3)
}

func TestMergeKeysAreSectionScoped(t *testing.T) {
	src := parser.Parse("[A]\nName = \"Alpha\"\n")
	tgt := parser.Parse("[B]\nName = \"阿尔法\"\n")
	assert.Empty(t, Merge("f", src, tgt, nil))
}

func TestTablePolicies(t *testing.T) {
	entries := []Entry{
		{Source: "Soldier", Target: "士兵", File: "a"},
		{Source: "Soldier", Target: "士兵", File: "b"},
		{Source: "Soldier", Target: "战士", File: "c"},
		{Source: "Alien", Target: "外星人", File: "a"},
	}

	first := NewTable(FirstSeen)
	first.Add(entries...)
	got, ok := first.Lookup("Soldier")
	require.True(t, ok)
	assert.Equal(t, "士兵", got)
	assert.Equal(t, 1, first.Conflicts())
	assert.Equal(t, 1, first.Duplicates())
	assert.Equal(t, 2, first.Len())

	last := NewTable(LastWrite)
	last.Add(entries...)
	got, _ = last.Lookup("Soldier")
	assert.Equal(t, "战士", got)
	assert.Equal(t, 1, last.Conflicts())
}

func TestTableEntriesSorted(t *testing.T) {
	table := NewTable(FirstSeen)
	table.Add(
		Entry{Source: "b", Target: "乙"},
		Entry{Source: "B", Target: "丙"},
		Entry{Source: "a", Target: "甲"},
	)

	var sources []string
	for _, e := range table.Entries() {
		sources = append(sources, e.Source)
	}
	assert.Equal(t, []string{"B", "a", "b"}, sources)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("LAST")
	require.NoError(t, err)
	assert.Equal(t, LastWrite, p)

	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, FirstSeen, p)

	_, err = ParsePolicy("random")
	assert.Error(t, err)
}

func TestFoldAcrossPairs(t *testing.T) {
	docs := map[string]string{
		"/int/a.int": "[UI]\nOk = \"OK\"\nCancel = \"Cancel\"\n",
		"/chn/a.chn": "[UI]\nOk = \"确定\"\nCancel = \"取消\"\n",
		"/int/b.int": "[Menu]\nOk = \"OK\"\nQuit = \"Quit\"\n",
		"/chn/b.chn": "[Menu]\nOk = \"好的\"\nQuit = \"退出\"\n",
		"/int/c.int": "[X]\nY = \"Z\"\n",
	}
	load := func(path string) (*parser.Document, error) {
		s, ok := docs[path]
		if !ok {
			return nil, errors.New("not found")
		}
		return parser.Parse(s), nil
	}
	pairs := []filewalker.Pair{
		{Key: "a", Source: "/int/a.int", Target: "/chn/a.chn"},
		{Key: "b", Source: "/int/b.int", Target: "/chn/b.chn"},
		{Key: "c", Source: "/int/c.int", Target: "/chn/c.chn"},
	}

	res, err := Fold(context.Background(), pairs, load, nil, FirstSeen)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pairs)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "c", res.Failed[0].Pair.Key)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, res.Table.Entries()))
	assert.Equal(t, "Cancel -> 取消\nOK -> 确定\nQuit -> 退出\n", buf.String())
	assert.Equal(t, 1, res.Table.Conflicts())

	res, err = Fold(context.Background(), pairs, load, nil, LastWrite)
	require.NoError(t, err)
	got, _ := res.Table.Lookup("OK")
	assert.Equal(t, "好的", got)
}

func TestFoldHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fold(ctx, []filewalker.Pair{{Key: "a"}}, nil, nil, FirstSeen)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteTSVAndJSON(t *testing.T) {
	entries := []Entry{{Source: "a\tb", Target: "甲\n乙", File: "f", Section: "S", Key: "K"}}

	var tsv bytes.Buffer
	require.NoError(t, WriteTSV(&tsv, entries))
	assert.Equal(t, "source\ttarget\tfile\tsection\tkey\na\\tb\t甲\\n乙\tf\tS\tK\n", tsv.String())

	var js bytes.Buffer
	require.NoError(t, WriteJSON(&js, entries))
	var decoded []Entry
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, entries, decoded)

	js.Reset()
	require.NoError(t, WriteJSON(&js, nil))
	assert.Equal(t, "[]\n", js.String())
}

func TestWriteFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	entries := []Entry{{Source: "Hi", Target: "你好"}}

	require.NoError(t, WriteFile(fs, "/out/MERGED/mapping.txt", FormatText, entries))
	data, err := afero.ReadFile(fs, "/out/MERGED/mapping.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hi -> 你好\n", string(data))

	assert.Error(t, WriteFile(fs, "/out/x", "xml", entries))
}

func TestFoldWithParseFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	src, err := encoding.Encode("[UI]\nHello = \"Hi there\"\n")
	require.NoError(t, err)
	tgt, err := encoding.Encode("[UI]\nHello = \"你好\"\n")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "/mods/1/Localization/ui.int", src, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/mods/1/Localization/ui.chn", tgt, 0o644))

	pairs, _, err := filewalker.NewWalker(fs).Pairs("/mods", "/mods", ".int", ".chn")
	require.NoError(t, err)

	load := func(path string) (*parser.Document, error) {
		return parser.ParseFile(fs, path, encoding.UTF16LE)
	}
	res, err := Fold(context.Background(), pairs, load, DefaultPredicate, FirstSeen)
	require.NoError(t, err)
	got, ok := res.Table.Lookup("Hi there")
	require.True(t, ok)
	assert.Equal(t, "你好", got)
}
