package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cueSnapshot = `formula: {
	"newton-second-law": {
		category: "ESTABLISHED"
		display: ["F = ma"]
	}
	"momentum-rate": {
		category: "DERIVED"
		display: ["$$F = \\frac{dp}{dt}$$"]
		parents: ["newton-second-law"]
		steps: ["differentiate p = mv with constant m"]
	}
}
`

const yamlSnapshot = `formulas:
  - id: newton-second-law
    category: ESTABLISHED
    display_variants:
      - F = ma
  - id: momentum-rate
    category: DERIVED
    display_variants:
      - '$$F = \frac{dp}{dt}$$'
    parent_formula_ids:
      - newton-second-law
    derivation_steps:
      - differentiate p = mv with constant m
`

func writeSnapshot(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadSnapshot_CUEAndYAMLEquivalent tests that the same database
// expressed in either format loads into an identical store.
func TestLoadSnapshot_CUEAndYAMLEquivalent(t *testing.T) {
	fromCUE, err := LoadSnapshot(writeSnapshot(t, "db.cue", cueSnapshot))
	require.NoError(t, err)
	fromYAML, err := LoadSnapshot(writeSnapshot(t, "db.yaml", yamlSnapshot))
	require.NoError(t, err)

	assert.True(t, fromCUE.Registration.Clean())
	assert.True(t, fromYAML.Registration.Clean())
	assert.Equal(t, 2, fromCUE.RecordCount)
	assert.Equal(t, 2, fromYAML.RecordCount)

	assert.Equal(t, fromCUE.Store.AllIDs(), fromYAML.Store.AllIDs())
	assert.Equal(t, fromCUE.Store.DisplayIndex(), fromYAML.Store.DisplayIndex())

	// The fingerprint covers the raw bytes, so the two files differ.
	assert.NotEqual(t, fromCUE.Hash, fromYAML.Hash)
}

func TestLoadSnapshot_HashStable(t *testing.T) {
	first, err := LoadSnapshot(writeSnapshot(t, "db.yaml", yamlSnapshot))
	require.NoError(t, err)
	second, err := LoadSnapshot(writeSnapshot(t, "db.yaml", yamlSnapshot))
	require.NoError(t, err)
	assert.Equal(t, first.Hash, second.Hash)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadSnapshot_UnsupportedExtension(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, "db.toml", "x = 1\n"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeUnsupported, loadErr.Code)
}

func TestLoadSnapshot_MalformedYAML(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, "db.yaml", "formulas: [\n"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
}

func TestLoadSnapshot_UnknownYAMLFieldRejected(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, "db.yaml", `formulas:
  - id: a
    category: ESTABLISHED
    display_variants: ["a = 1"]
    categry: typo
`))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
}

// TestLoadSnapshot_CollectsFindings tests the collect-all contract: every
// rejected record lands in the registration and the good records still
// load.
func TestLoadSnapshot_CollectsFindings(t *testing.T) {
	res, err := LoadSnapshot(writeSnapshot(t, "db.yaml", `formulas:
  - id: axiom
    category: ESTABLISHED
    display_variants: ["a = 1"]
  - id: bad-axiom
    category: ESTABLISHED
    display_variants: ["b = 2"]
    parent_formula_ids: ["axiom"]
  - id: floating
    category: THEORY
    display_variants: ["c = 3"]
  - id: copycat
    category: THEORY
    display_variants: ["a = 1"]
    parent_formula_ids: ["axiom"]
`))
	require.NoError(t, err)

	assert.Equal(t, 1, res.RecordCount)
	assert.Equal(t, []string{"axiom"}, res.Store.AllIDs())

	require.Len(t, res.Registration.InvariantViolations, 2)
	require.Len(t, res.Registration.DisplayConflicts, 1)
	assert.Equal(t, "axiom", res.Registration.DisplayConflicts[0].ExistingID)
	assert.Equal(t, "copycat", res.Registration.DisplayConflicts[0].NewID)
	assert.False(t, res.Registration.Clean())
}

// TestLoadSnapshot_CUECompileErrorsCollected tests that a malformed CUE
// entry becomes a registration finding rather than aborting the load.
func TestLoadSnapshot_CUECompileErrorsCollected(t *testing.T) {
	res, err := LoadSnapshot(writeSnapshot(t, "db.cue", `formula: {
	"good": {
		category: "ESTABLISHED"
		display: ["g = 1"]
	}
	"missing-category": {
		display: ["m = 2"]
	}
}
`))
	require.NoError(t, err)

	assert.Equal(t, 1, res.RecordCount)
	require.Len(t, res.Registration.CompileErrors, 1)
	assert.Contains(t, res.Registration.CompileErrors[0], "missing-category.category")
}

func TestLoadSnapshot_CUESyntaxErrorFatal(t *testing.T) {
	_, err := LoadSnapshot(writeSnapshot(t, "db.cue", "formula: {{{\n"))
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
}
