package report

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	assert.Equal(t, "AdvancedMC_TC1.1_2025-03-14T09-26-53-589Z.md", FileName("AdvancedMC_TC1.1", ts))
}

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	s := NewStore(dir, nil)

	r := Generate("q", nil, "AdvancedMC", "")
	path, err := s.Save("MicroTCA_TC1.1", r, time.Date(2025, 1, 2, 3, 4, 5, 6_000_000, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "MicroTCA_TC1.1_2025-01-02T03-04-05-006Z.md"), path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown(r), string(b))
}

func writeAged(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	mt := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mt, mt))
}

func TestStore_PruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 105; i++ {
		ext := ".md"
		if i%2 == 0 {
			ext = ".json"
		}
		// report-000 is the newest, report-104 the oldest
		writeAged(t, dir, fmt.Sprintf("report-%03d%s", i, ext), time.Duration(i)*time.Minute)
	}
	writeAged(t, dir, "notes.txt", 10*24*time.Hour)

	deleted, err := NewStore(dir, nil).Prune(100)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"report-100.json", "report-101.md", "report-102.json", "report-103.md", "report-104.json",
	}, deleted)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 101, "100 reports plus the unrelated txt file")

	_, err = os.Stat(filepath.Join(dir, "report-099.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestStore_PruneUnderCap(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, dir, "a.md", time.Minute)

	deleted, err := NewStore(dir, nil).Prune(10)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestStore_PruneCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	_, err := NewStore(dir, nil).Prune(DefaultRetention)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStore_PruneNegative(t *testing.T) {
	_, err := NewStore(t.TempDir(), nil).Prune(-1)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	root := t.TempDir()
	reports := filepath.Join(root, "reports")
	artifacts := filepath.Join(root, "artifacts")
	require.NoError(t, os.MkdirAll(filepath.Join(artifacts, "run-1"), 0o755))
	require.NoError(t, os.MkdirAll(reports, 0o755))
	writeAged(t, reports, "a.md", 0)
	writeAged(t, filepath.Join(artifacts, "run-1"), "video.webm", 0)

	require.NoError(t, Clear(nil, reports, artifacts, filepath.Join(root, "missing")))

	for _, dir := range []string{reports, artifacts} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, dir)
	}
}
