package library

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempStore(t *testing.T) *FileStorage {
	t.Helper()
	return NewFileStorage(filepath.Join(t.TempDir(), "library_data.json"))
}

func assertDefault(t *testing.T, d *Data) {
	t.Helper()
	if len(d.Books) != 0 || len(d.LibraryCards) != 0 || len(d.Borrowers) != 0 {
		t.Fatalf("expected empty collections, got %d/%d/%d", len(d.Books), len(d.LibraryCards), len(d.Borrowers))
	}
	if d.NextBookID != 1 || d.NextCardNo != 1 || d.NextBorrowerID != 1 {
		t.Fatalf("expected counters at 1, got %d/%d/%d", d.NextBookID, d.NextCardNo, d.NextBorrowerID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := tempStore(t)
	assertDefault(t, s.Data())
	if s.LastWritten() != nil {
		t.Fatalf("nothing written yet")
	}
}

func TestLoadCorruptFileResets(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"truncated", `{"books": [{"book_id": 1, "title": "Du`},
		{"garbage", "not json at all"},
		{"wrong shape", `[1, 2, 3]`},
		{"wrong field type", `{"books": "Dune"}`},
		{"bad date", `{"library_cards": [{"card_no": 1, "issue_date": "yesterday"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "library_data.json")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			s := NewFileStorage(path)
			assertDefault(t, s.Data())
		})
	}
}

func TestLoadPartialDocumentKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	content := `{"books": [{"book_id": 4, "title": "Dune", "author": "Herbert", "genre": "SciFi", "copies": 2}, null], "next_book_id": 5, "borrowers": null}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewFileStorage(path)
	d := s.Data()
	if len(d.Books) != 1 || d.Books[0].Title != "Dune" {
		t.Fatalf("unexpected books: %+v", d.Books)
	}
	if d.Borrowers == nil || len(d.Borrowers) != 0 {
		t.Fatalf("borrowers should be an empty slice")
	}
	if d.NextBookID != 5 || d.NextCardNo != 1 || d.NextBorrowerID != 1 {
		t.Fatalf("unexpected counters %d/%d/%d", d.NextBookID, d.NextCardNo, d.NextBorrowerID)
	}
}

func TestLoadAcceptsWholeNumberFloats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	content := `{"books": [{"book_id": 1.0, "title": "Dune", "author": "Herbert", "genre": "SciFi", "copies": 2.0}], "next_book_id": 2.0}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d := NewFileStorage(path).Data()
	if len(d.Books) != 1 || d.Books[0].ID != 1 || d.Books[0].Copies != 2 {
		t.Fatalf("unexpected books: %+v", d.Books)
	}
	if d.NextBookID != 2 {
		t.Fatalf("next_book_id = %d", d.NextBookID)
	}
}

func TestLoadFractionalCountResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_data.json")
	content := `{"books": [{"book_id": 1, "title": "Dune", "copies": 2.5}], "next_book_id": 2}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	assertDefault(t, NewFileStorage(path).Data())
}

func TestSaveAndReload(t *testing.T) {
	s := tempStore(t)
	d := s.Data()
	id, _ := s.NextID(CounterBook)
	d.Books = append(d.Books, &Book{ID: id, Title: "Dune", Author: "Herbert", Genre: "SciFi", Copies: 2})
	no, _ := s.NextID(CounterCard)
	issued, _ := ParseDate("2024-01-31")
	d.LibraryCards = append(d.LibraryCards, &LibraryCard{CardNo: no, Name: "Alice", Branch: "Main", Subscription: 6, IssueDate: issued})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := NewFileStorage(s.Path())
	if len(r.Data().Books) != 1 || r.Data().Books[0].Title != "Dune" {
		t.Fatalf("books not reloaded: %+v", r.Data().Books)
	}
	if got := r.Data().LibraryCards[0].IssueDate.String(); got != "2024-01-31" {
		t.Fatalf("issue date = %s", got)
	}
	if r.Data().NextBookID != 2 || r.Data().NextCardNo != 2 || r.Data().NextBorrowerID != 1 {
		t.Fatalf("counters not persisted: %+v", r.Data())
	}
	if string(r.LastWritten()) != string(s.LastWritten()) {
		t.Fatalf("reloaded bytes differ from saved bytes")
	}
}

func TestSaveFileFormat(t *testing.T) {
	s := tempStore(t)
	issued, _ := ParseDate("2024-03-01")
	s.Data().Borrowers = append(s.Data().Borrowers, &Borrower{
		BorrowerID: 1, CardNo: 1, Name: "Alice", BookID: 1, BookTitle: "Dune",
		IssuedDate: issued, ReturnDate: issued.AddDays(LoanDays),
	})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("saved file is not JSON: %v", err)
	}
	for _, key := range []string{"books", "library_cards", "borrowers", "next_book_id", "next_card_no", "next_borrower_id"} {
		if _, ok := generic[key]; !ok {
			t.Fatalf("missing key %q", key)
		}
	}
	br := generic["borrowers"].([]any)[0].(map[string]any)
	for _, key := range []string{"borrower_id", "card_no", "name", "address", "phone", "book_id", "book_title", "issued_date", "return_date"} {
		if _, ok := br[key]; !ok {
			t.Fatalf("borrower missing key %q", key)
		}
	}
	if br["return_date"] != "2024-03-15" {
		t.Fatalf("return_date = %v", br["return_date"])
	}
	if !strings.Contains(string(raw), "\n    \"books\"") {
		t.Fatalf("expected four-space indentation:\n%s", raw)
	}
}

func TestSaveFailure(t *testing.T) {
	dir := t.TempDir()
	// A directory in place of the data file makes the rename fail.
	path := filepath.Join(dir, "library_data.json")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	s := NewFileStorage(path)
	err := s.Save()
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("want ErrPersistence, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp file left behind: %v", entries)
	}
}

func TestNextID(t *testing.T) {
	s := tempStore(t)
	for want := 1; want <= 5; want++ {
		got, err := s.NextID(CounterBorrower)
		if err != nil {
			t.Fatalf("next id: %v", err)
		}
		if got != want {
			t.Fatalf("want %d, got %d", want, got)
		}
	}
	// Counters are independent.
	if got, _ := s.NextID(CounterBook); got != 1 {
		t.Fatalf("book counter = %d", got)
	}
	if _, err := s.NextID("next_member_id"); !errors.Is(err, ErrUnknownCounter) {
		t.Fatalf("want ErrUnknownCounter, got %v", err)
	}
}
