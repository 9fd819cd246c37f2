package filewalker

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}
}

func TestFind(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs,
		"/corpus/b/Localization/ui.chn",
		"/corpus/a/Localization/ui.CHN",
		"/corpus/a/Localization/ui.int",
		"/corpus/a/readme.txt",
	)

	files, err := NewWalker(fs).Find("/corpus", ".chn")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/corpus/a/Localization/ui.CHN",
		"/corpus/b/Localization/ui.chn",
	}, files)

	files, err = NewWalker(fs).Find("/corpus", ".chn", ".int")
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestFindRejectsBadRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs, "/file.chn")

	_, err := NewWalker(fs).Find("/missing", ".chn")
	assert.Error(t, err)

	_, err = NewWalker(fs).Find("/file.chn", ".chn")
	assert.Error(t, err)
}

func TestPairsSeparateTrees(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs,
		"/INT/XComGame.int",
		"/INT/Extra.int",
		"/INT/sub/Mod.int",
		"/CHN/XComGame.chn",
		"/CHN/sub/Mod.chn",
		"/CHN/Orphan.chn",
	)

	pairs, stats, err := NewWalker(fs).Pairs("/INT", "/CHN", ".int", ".chn")
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Key: "XComGame", Source: "/INT/XComGame.int", Target: "/CHN/XComGame.chn"},
		{Key: "sub/Mod", Source: "/INT/sub/Mod.int", Target: "/CHN/sub/Mod.chn"},
	}, pairs)
	assert.Equal(t, PairStats{UnmatchedSource: 1, UnmatchedTarget: 1}, stats)
}

func TestPairsSameTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed(t, fs,
		"/mods/1/Localization/A.int",
		"/mods/1/Localization/A.chn",
		"/mods/2/Localization/A.int",
		"/mods/2/Localization/A.chn",
	)

	pairs, stats, err := NewWalker(fs).Pairs("/mods", "/mods", ".int", ".chn")
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, "1/Localization/A", pairs[0].Key)
	assert.Equal(t, "2/Localization/A", pairs[1].Key)
	assert.Equal(t, PairStats{}, stats)
}
