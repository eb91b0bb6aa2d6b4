package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/physics-archive/formulaudit/internal/extract"
)

// corpusExtensions lists the document types scanned for equations.
// Keys are lowercase; lookups fold case so README.MD is not skipped.
var corpusExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
}

// FindCorpusFiles walks the corpus directory and returns every document
// path, sorted so the scan order is independent of filesystem order.
// Document names are slash-separated paths relative to the corpus root.
func FindCorpusFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("corpus directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing corpus directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning corpus directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no documents found in %s", dir)}
	}

	sort.Strings(files)
	return files, nil
}

// ScanCorpus extracts equations from every document under dir. Documents
// are scanned concurrently, one goroutine per document bounded by CPU
// count, with each result landing in its document's slot so the merged
// output follows sorted document order no matter which goroutine
// finishes first.
func ScanCorpus(dir string) (*extract.Result, error) {
	files, err := FindCorpusFiles(dir)
	if err != nil {
		return nil, err
	}

	results := make([]extract.Result, len(files))
	readErrs := make([]error, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for i, name := range files {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
			if err != nil {
				readErrs[i] = fmt.Errorf("reading %s: %w", name, err)
				return
			}
			results[i] = extract.Scan(name, string(data))
		}(i, name)
	}
	wg.Wait()

	for _, err := range readErrs {
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: err.Error()}
		}
	}

	merged := &extract.Result{}
	for _, res := range results {
		merged.Occurrences = append(merged.Occurrences, res.Occurrences...)
		merged.Warnings = append(merged.Warnings, res.Warnings...)
	}
	return merged, nil
}
