package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir(), "http://localhost:8080/exports/")
	require.NoError(t, err)
	return l
}

func save(t *testing.T, l *Local, name, content string) Artifact {
	t.Helper()
	art, err := l.Save(name, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
	require.NoError(t, err)
	return art
}

func TestSaveWritesFileAndBuildsURL(t *testing.T) {
	l := newLocal(t)

	art := save(t, l, "export_abc.xlsx", "workbook")

	assert.Equal(t, "export_abc.xlsx", art.Name)
	assert.Equal(t, "http://localhost:8080/exports/export_abc.xlsx", art.PublicURL)

	data, err := os.ReadFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, "workbook", string(data))
}

func TestSaveNeverOverwrites(t *testing.T) {
	l := newLocal(t)

	first := save(t, l, "chart.png", "one")
	second := save(t, l, "chart.png", "two")
	third := save(t, l, "chart.png", "three")

	assert.Equal(t, "chart.png", first.Name)
	assert.Equal(t, "chart_1.png", second.Name)
	assert.Equal(t, "chart_2.png", third.Name)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	l := newLocal(t)

	art := save(t, l, "../../etc/passwd", "x")

	assert.Equal(t, "passwd", art.Name)
	assert.Equal(t, l.dir, filepath.Dir(art.Path))
}

func TestSaveRemovesPartialFileOnWriteError(t *testing.T) {
	l := newLocal(t)

	_, err := l.Save("broken.png", func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("render failed")
	})
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(l.dir, "broken.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDeleteIsIdempotent(t *testing.T) {
	l := newLocal(t)
	art := save(t, l, "old.xlsx", "x")

	require.NoError(t, l.Delete(art.Name))
	_, statErr := os.Stat(art.Path)
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, l.Delete(art.Name))
}

func TestCleanupOlderThanRemovesOnlyStaleFiles(t *testing.T) {
	l := newLocal(t)
	stale := save(t, l, "stale.png", "x")
	fresh := save(t, l, "fresh.png", "y")

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale.Path, old, old))

	removed, err := l.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, statErr := os.Stat(stale.Path)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(fresh.Path)
	assert.NoError(t, statErr)
}
