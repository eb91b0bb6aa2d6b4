package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physics-archive/formulaudit/internal/extract"
)

func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestFindCorpusFiles_SortedRelativePaths(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"z.md":           "$z = 1$\n",
		"a.md":           "$a = 1$\n",
		"nested/deep.md": "$d = 1$\n",
		"notes.txt":      "plain\n",
		"page.html":      "<h1>T</h1>\n",
		"README.MD":      "$r = 1$\n",
		"skipped.pdf":    "binary\n",
	})

	files, err := FindCorpusFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.MD", "a.md", "nested/deep.md", "notes.txt", "page.html", "z.md"}, files)
}

func TestFindCorpusFiles_MissingDirectory(t *testing.T) {
	_, err := FindCorpusFiles(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestFindCorpusFiles_EmptyDirectory(t *testing.T) {
	_, err := FindCorpusFiles(t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNoFiles, loadErr.Code)
}

// TestScanCorpus_DocumentOrder tests that merged occurrences follow
// sorted document order regardless of goroutine completion order.
func TestScanCorpus_DocumentOrder(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"b.md": "$b = 2$\n",
		"a.md": "$a = 1$ and $a' = 1$\n",
		"c.md": "$c = 3$\n",
	})

	res, err := ScanCorpus(dir)
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 4)

	assert.Equal(t, "a.md", res.Occurrences[0].Document)
	assert.Equal(t, "a.md", res.Occurrences[1].Document)
	assert.Equal(t, "b.md", res.Occurrences[2].Document)
	assert.Equal(t, "c.md", res.Occurrences[3].Document)

	// Per-document indices restart at zero.
	assert.Equal(t, 0, res.Occurrences[0].Index)
	assert.Equal(t, 1, res.Occurrences[1].Index)
	assert.Equal(t, 0, res.Occurrences[2].Index)
}

// TestScanCorpus_Deterministic tests that repeated concurrent scans of
// the same corpus produce identical results.
func TestScanCorpus_Deterministic(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a.md", "b.md", "c.md", "d.md", "e.md", "f.md", "g.md", "h.md"} {
		files[name] = "# Section\n\n$$x_{" + name + "} = 1$$\n\nand $y = 2$ inline\n"
	}
	dir := writeCorpus(t, files)

	first, err := ScanCorpus(dir)
	require.NoError(t, err)
	second, err := ScanCorpus(dir)
	require.NoError(t, err)

	assert.Equal(t, first.Occurrences, second.Occurrences)
	assert.Equal(t, first.Warnings, second.Warnings)
}

// TestScanCorpus_MatchesSerialScan tests that the concurrent scan is
// indistinguishable from scanning each document in order.
func TestScanCorpus_MatchesSerialScan(t *testing.T) {
	files := map[string]string{
		"a.md": "# One\n\n$a = 1$\n",
		"b.md": "$$b = 2$$\n",
		"c.md": "unterminated $c\n",
	}
	dir := writeCorpus(t, files)

	serial := &extract.Result{}
	for _, name := range []string{"a.md", "b.md", "c.md"} {
		res := extract.Scan(name, files[name])
		serial.Occurrences = append(serial.Occurrences, res.Occurrences...)
		serial.Warnings = append(serial.Warnings, res.Warnings...)
	}

	parallel, err := ScanCorpus(dir)
	require.NoError(t, err)
	assert.Equal(t, serial.Occurrences, parallel.Occurrences)
	assert.Equal(t, serial.Warnings, parallel.Warnings)
}

func TestScanCorpus_CollectsWarnings(t *testing.T) {
	dir := writeCorpus(t, map[string]string{
		"bad.md":  "$$E = mc^2\n",
		"good.md": "$F = ma$\n",
	})

	res, err := ScanCorpus(dir)
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 1)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "bad.md", res.Warnings[0].Document)
	assert.Equal(t, extract.Kind("INLINE"), res.Occurrences[0].Kind)
}
