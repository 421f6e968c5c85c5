// Command import_books adds the books listed in a YAML manifest to a
// library data file.
//
// Manifest format:
//
//	books:
//	  - title: Dune
//	    author: Frank Herbert
//	    genre: SciFi
//	    copies: 2
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"library-desk/library"

	"gopkg.in/yaml.v3"
)

// manifest is the YAML document read by this tool.
type manifest struct {
	Books []manifestBook `yaml:"books"`
}

type manifestBook struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
	Copies *int   `yaml:"copies"`
}

// result counts one import run.
type result struct {
	Imported []*library.Book
	Errors   int
}

func main() {
	manifestPath := flag.String("manifest", "books.yaml", "YAML manifest of books to import")
	dataFile := flag.String("data-file", "library_data.json", "Library data file to add the books to")
	flag.Parse()

	if len(flag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "unknown arguments: %v\n", flag.Args())
		os.Exit(2)
	}

	m, err := readManifest(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading manifest: %v\n", err)
		os.Exit(1)
	}

	cat := library.NewCatalog(library.NewFileStorage(*dataFile))
	fmt.Printf("Importing %d book(s) from %s into %s...\n", len(m.Books), *manifestPath, *dataFile)
	res := importBooks(os.Stdout, cat, m)

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", len(res.Imported))
	fmt.Printf("Errors: %d\n", res.Errors)

	if len(res.Imported) > 0 {
		fmt.Println("\nImported books:")
		library.WriteBooks(os.Stdout, res.Imported, library.TableWidth)
	}
	if res.Errors > 0 {
		os.Exit(1)
	}
}

func readManifest(path string) (*manifest, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return parseManifest(raw)
}

func parseManifest(raw []byte) (*manifest, error) {
	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// importBooks adds every manifest entry, reporting progress to w. Entries
// without a title or with a missing or negative copy count are skipped.
func importBooks(w io.Writer, cat *library.Catalog, m *manifest) result {
	var res result
	for i, mb := range m.Books {
		title := strings.TrimSpace(mb.Title)
		if title == "" {
			fmt.Fprintf(w, "Warning: entry %d has no title, skipping\n", i+1)
			res.Errors++
			continue
		}
		fmt.Fprintf(w, "Importing: %s by %s... ", title, mb.Author)
		if mb.Copies == nil {
			fmt.Fprintf(w, "ERROR - copies missing\n")
			res.Errors++
			continue
		}
		b, err := cat.AddBook(title, mb.Author, mb.Genre, *mb.Copies)
		if err != nil {
			fmt.Fprintf(w, "ERROR - %v\n", err)
			res.Errors++
			continue
		}
		fmt.Fprintf(w, "SUCCESS (ID: %d)\n", b.ID)
		res.Imported = append(res.Imported, b)
	}
	return res
}
