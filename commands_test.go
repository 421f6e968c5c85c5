package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"library-desk/library"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSchemaCommand(t *testing.T) {
	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"next_borrower_id"`)
	assert.Contains(t, out, `"library_cards"`)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "library_data.json")
	cat := library.NewCatalog(library.NewFileStorage(dataFile))
	_, err := cat.AddBook("Dune", "Herbert", "SciFi", 2)
	require.NoError(t, err)

	dbPath := filepath.Join(dir, "snapshot.db")
	yamlPath := filepath.Join(dir, "library.yaml")
	out, err := execute(t, "export", "--data-file", dataFile, "--sqlite", dbPath, "--yaml", yamlPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 1 books, 0 cards, 0 borrowers")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	raw, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "title: Dune")
}

func TestExportCommandNeedsTarget(t *testing.T) {
	_, err := execute(t, "export", "--data-file", filepath.Join(t.TempDir(), "x.json"))
	assert.ErrorContains(t, err, "nothing to do")
}

func TestUnknownLogLevel(t *testing.T) {
	_, err := execute(t, "schema", "--log-level", "loud")
	assert.ErrorContains(t, err, "unknown log level")
}
