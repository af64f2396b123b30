package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalogDefault(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, 13, c.Size())
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	content := "questions:\n  - \"Where are you based?\"\n  - \"What brings you here?\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Equal(t, 2, c.Size())

	q, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "What brings you here?", q.Prompt)
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading catalog file")
}

func TestParseCatalogErrors(t *testing.T) {
	_, err := ParseCatalog([]byte("questions: [unterminated"))
	assert.ErrorContains(t, err, "error parsing YAML")

	_, err = ParseCatalog([]byte("questions: []"))
	assert.ErrorContains(t, err, "invalid catalog file")
}
