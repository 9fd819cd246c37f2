package audit

import (
	"context"
	"testing"

	"locmerge/internal/encoding"
	"locmerge/internal/textutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, fs afero.Fs, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
}

func canonical(t *testing.T, s string) []byte {
	t.Helper()
	out, err := encoding.Encode(s)
	require.NoError(t, err)
	return out
}

func TestAudit(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/cn/1/Localization/a.chn", canonical(t, "[UI]\nHello = \"你好\"\n"))
	write(t, fs, "/cn/1/Localization/b.chn", canonical(t, "[UI]\nBye = \"Bye\"\n"))
	write(t, fs, "/cn/2/Localization/a.chn", canonical(t, "[UI]\nHello = \"Hello\"\n"))
	write(t, fs, "/cn/3/Localization/a.chn", []byte("[UI]\nHello = \"你好\"\n"))
	write(t, fs, "/cn/4/Localization/a.int", canonical(t, "[UI]\nHello = \"Hello\"\n"))
	write(t, fs, "/cn/notes.txt", []byte("ignored"))

	a := NewAuditor(fs, encoding.NewChardetDetector(), ".chn", encoding.UTF16LE, textutil.ContainsChinese)
	report, err := a.Audit(context.Background(), "/cn")
	require.NoError(t, err)

	require.Len(t, report.Files, 4)
	assert.Equal(t, []string{"2"}, report.Untranslated)
	assert.Empty(t, report.Errors())

	nonCanonical := report.NonCanonical()
	require.Len(t, nonCanonical, 1)
	assert.Equal(t, "3", nonCanonical[0].Folder)
	assert.Equal(t, encoding.UTF8, nonCanonical[0].Encoding)
	assert.True(t, nonCanonical[0].HasTargetScript)
}

func TestAuditMissingRoot(t *testing.T) {
	a := NewAuditor(afero.NewMemMapFs(), encoding.NewChardetDetector(), ".chn", encoding.UTF16LE, textutil.ContainsChinese)
	_, err := a.Audit(context.Background(), "/nope")
	assert.Error(t, err)
}
