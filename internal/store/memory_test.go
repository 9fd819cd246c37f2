package store

import (
	"context"
	"errors"
	"testing"

	"locmerge/internal/merge"
	"locmerge/internal/textutil"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS translation_memory").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, NewTranslationMemory(mock, 10).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatches(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	entries := []merge.Entry{
		{Source: "Cancel", Target: "取消", File: "a", Section: "UI", Key: "Cancel"},
		{Source: "OK", Target: "确定", File: "a", Section: "UI", Key: "Ok"},
		{Source: "Quit", Target: "退出", File: "b", Section: "Menu", Key: "Quit"},
	}

	mock.ExpectBegin()
	for _, e := range entries[:2] {
		mock.ExpectExec("INSERT INTO translation_memory").
			WithArgs(textutil.Hash(e.Source), e.Source, e.Target, e.File, e.Section, e.Key).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO translation_memory").
		WithArgs(textutil.Hash("Quit"), "Quit", "退出", "b", "Menu", "Quit").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := NewTranslationMemory(mock, 2).Publish(context.Background(), entries)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishRollsBackFailedBatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO translation_memory").
		WithArgs(textutil.Hash("OK"), "OK", "确定", "", "", "").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := NewTranslationMemory(mock, 10).Publish(context.Background(), []merge.Entry{{Source: "OK", Target: "确定"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1}, {2}}, chunk([]int{1, 2}, 0))
}
