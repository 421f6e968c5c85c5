package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"library-desk/library"
)

func TestImportBooks(t *testing.T) {
	m, err := parseManifest([]byte(`
books:
  - title: Dune
    author: Frank Herbert
    genre: SciFi
    copies: 2
  - title: ""
    author: Nobody
    copies: 1
  - title: Emma
    author: Jane Austen
    genre: Classic
  - title: Negative
    author: Someone
    copies: -4
  - title: The Two Towers
    author: J.R.R. Tolkien
    genre: Fantasy
    copies: 0
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	path := filepath.Join(t.TempDir(), "library_data.json")
	cat := library.NewCatalog(library.NewFileStorage(path))
	var out bytes.Buffer
	res := importBooks(&out, cat, m)

	if len(res.Imported) != 2 || res.Errors != 3 {
		t.Fatalf("imported %d, errors %d\n%s", len(res.Imported), res.Errors, out.String())
	}
	if res.Imported[0].ID != 1 || res.Imported[1].ID != 2 {
		t.Fatalf("unexpected ids: %d, %d", res.Imported[0].ID, res.Imported[1].ID)
	}
	if !strings.Contains(out.String(), "Importing: Dune by Frank Herbert... SUCCESS (ID: 1)") {
		t.Fatalf("missing progress line:\n%s", out.String())
	}

	reloaded := library.NewFileStorage(path)
	if got := len(reloaded.Data().Books); got != 2 {
		t.Fatalf("want 2 persisted books, got %d", got)
	}
}

func TestParseManifestRejectsGarbage(t *testing.T) {
	if _, err := parseManifest([]byte("books: [unterminated")); err == nil {
		t.Fatalf("expected parse error")
	}
}
