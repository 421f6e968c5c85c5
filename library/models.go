package library

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the on-disk layout of every calendar date in the data file.
const DateFormat = "2006-01-02"

// Date is a calendar day serialized as "YYYY-MM-DD".
type Date time.Time

// NewDate truncates t to its calendar day in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date(t), nil
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date(time.Time(d).AddDate(0, 0, n))
}

func (d Date) String() string {
	return time.Time(d).Format(DateFormat)
}

// MarshalJSON writes a quoted string in DateFormat.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON parses the quoted DateFormat string.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML keeps YAML exports in the same layout as the JSON file.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

// Book is a catalog entry. Copies is the number currently on the shelf.
type Book struct {
	ID     int    `json:"book_id" yaml:"book_id"`
	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	Genre  string `json:"genre" yaml:"genre"`
	Copies int    `json:"copies" yaml:"copies" jsonschema:"minimum=0"`
}

// Available reports whether at least one copy can be issued.
func (b *Book) Available() bool { return b.Copies > 0 }

// LibraryCard is a membership card. Subscription is a length in months and
// is not enforced.
type LibraryCard struct {
	CardNo       int    `json:"card_no" yaml:"card_no"`
	Name         string `json:"name" yaml:"name"`
	Branch       string `json:"branch" yaml:"branch"`
	Subscription int    `json:"subscription" yaml:"subscription"`
	IssueDate    Date   `json:"issue_date" yaml:"issue_date"`
}

// Borrower is an outstanding loan. It is deleted when the book comes back.
type Borrower struct {
	BorrowerID int    `json:"borrower_id" yaml:"borrower_id"`
	CardNo     int    `json:"card_no" yaml:"card_no"`
	Name       string `json:"name" yaml:"name"`
	Address    string `json:"address" yaml:"address"`
	Phone      string `json:"phone" yaml:"phone"`
	BookID     int    `json:"book_id" yaml:"book_id"`
	BookTitle  string `json:"book_title" yaml:"book_title"`
	IssuedDate Date   `json:"issued_date" yaml:"issued_date"`
	ReturnDate Date   `json:"return_date" yaml:"return_date"`
}

// Data represents the complete library state for persistence.
type Data struct {
	Books          []*Book        `json:"books" yaml:"books"`
	LibraryCards   []*LibraryCard `json:"library_cards" yaml:"library_cards"`
	Borrowers      []*Borrower    `json:"borrowers" yaml:"borrowers"`
	NextBookID     int            `json:"next_book_id" yaml:"next_book_id" jsonschema:"minimum=1"`
	NextCardNo     int            `json:"next_card_no" yaml:"next_card_no" jsonschema:"minimum=1"`
	NextBorrowerID int            `json:"next_borrower_id" yaml:"next_borrower_id" jsonschema:"minimum=1"`
}

// DefaultData returns the empty document used for a fresh or unreadable file.
func DefaultData() *Data {
	return &Data{
		Books:          []*Book{},
		LibraryCards:   []*LibraryCard{},
		Borrowers:      []*Borrower{},
		NextBookID:     1,
		NextCardNo:     1,
		NextBorrowerID: 1,
	}
}

// Stats holds the aggregates shown by the statistics screen.
type Stats struct {
	TotalBooks      int `json:"total_books"`
	TotalCopies     int `json:"total_copies"`
	AvailableBooks  int `json:"available_books"`
	ActiveBorrowers int `json:"active_borrowers"`
	TotalMembers    int `json:"total_members"`
}
