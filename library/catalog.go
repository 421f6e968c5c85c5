package library

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoanDays is the number of calendar days between issue and return-due dates.
const LoanDays = 14

// Catalog implements the library operations on top of a FileStorage. Every
// mutating call saves the document before reporting success.
type Catalog struct {
	store *FileStorage
	now   func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock overrides the time source used for issue and due dates.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// NewCatalog wraps store.
func NewCatalog(store *FileStorage, opts ...Option) *Catalog {
	c := &Catalog{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Storage returns the underlying store.
func (c *Catalog) Storage() *FileStorage { return c.store }

func (c *Catalog) today() Date { return NewDate(c.now()) }

// ParseNumber converts console text to an int, rejecting anything that is
// not a base-10 integer.
func ParseNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, s)
	}
	return n, nil
}

// ParseCount is ParseNumber restricted to values >= 0.
func ParseCount(s string) (int, error) {
	n, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidInput, n)
	}
	return n, nil
}

// ------------------ Books ------------------

// AddBook allocates a book id and appends the book.
func (c *Catalog) AddBook(title, author, genre string, copies int) (*Book, error) {
	if copies < 0 {
		return nil, fmt.Errorf("%w: copies must be a non-negative number, got %d", ErrInvalidInput, copies)
	}
	id, err := c.store.NextID(CounterBook)
	if err != nil {
		return nil, err
	}
	b := &Book{
		ID:     id,
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		Genre:  strings.TrimSpace(genre),
		Copies: copies,
	}
	d := c.store.Data()
	d.Books = append(d.Books, b)
	if err := c.store.Save(); err != nil {
		return b, err
	}
	return b, nil
}

// ListBooks returns every book in insertion order.
func (c *Catalog) ListBooks() []*Book {
	return c.store.Data().Books
}

// FindBook looks a book up by id.
func (c *Catalog) FindBook(id int) (*Book, bool) {
	for _, b := range c.store.Data().Books {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// UpdateCopies adds delta to the book's copies, never going below zero.
// It reports whether the book exists.
func (c *Catalog) UpdateCopies(id, delta int) (bool, error) {
	b, ok := c.FindBook(id)
	if !ok {
		return false, nil
	}
	adjustCopies(b, delta)
	return true, c.store.Save()
}

func adjustCopies(b *Book, delta int) {
	b.Copies += delta
	if b.Copies < 0 {
		b.Copies = 0
	}
}

// SearchBooks returns the books whose title, author or genre contains
// keyword, ignoring case.
func (c *Catalog) SearchBooks(keyword string) []*Book {
	q := strings.ToLower(strings.TrimSpace(keyword))
	results := []*Book{}
	for _, b := range c.store.Data().Books {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Genre), q) {
			results = append(results, b)
		}
	}
	return results
}

// ------------------ Cards ------------------

// IssueCard allocates a card number dated today.
func (c *Catalog) IssueCard(name, branch string, months int) (*LibraryCard, error) {
	no, err := c.store.NextID(CounterCard)
	if err != nil {
		return nil, err
	}
	card := &LibraryCard{
		CardNo:       no,
		Name:         strings.TrimSpace(name),
		Branch:       strings.TrimSpace(branch),
		Subscription: months,
		IssueDate:    c.today(),
	}
	d := c.store.Data()
	d.LibraryCards = append(d.LibraryCards, card)
	if err := c.store.Save(); err != nil {
		return card, err
	}
	return card, nil
}

// FindCard looks a card up by number.
func (c *Catalog) FindCard(cardNo int) (*LibraryCard, bool) {
	for _, card := range c.store.Data().LibraryCards {
		if card.CardNo == cardNo {
			return card, true
		}
	}
	return nil, false
}

// CheckCard returns the card or ErrCardNotFound. The console uses it to stop
// before asking for borrower details.
func (c *Catalog) CheckCard(cardNo int) (*LibraryCard, error) {
	card, ok := c.FindCard(cardNo)
	if !ok {
		return nil, fmt.Errorf("%w: card %d", ErrCardNotFound, cardNo)
	}
	return card, nil
}

// ------------------ Circulation ------------------

// IssueRequest carries the details collected when lending a book.
type IssueRequest struct {
	CardNo  int
	Name    string
	Address string
	Phone   string
	BookID  int
}

// IssueBook lends one copy of a book against a card. Checks run in order:
// card, book, copies.
func (c *Catalog) IssueBook(req IssueRequest) (*Borrower, error) {
	if _, err := c.CheckCard(req.CardNo); err != nil {
		return nil, err
	}
	book, ok := c.FindBook(req.BookID)
	if !ok {
		return nil, fmt.Errorf("%w: book %d", ErrBookNotFound, req.BookID)
	}
	if !book.Available() {
		return nil, fmt.Errorf("%w: %q", ErrNoCopiesAvailable, book.Title)
	}

	id, err := c.store.NextID(CounterBorrower)
	if err != nil {
		return nil, err
	}
	issued := c.today()
	br := &Borrower{
		BorrowerID: id,
		CardNo:     req.CardNo,
		Name:       strings.TrimSpace(req.Name),
		Address:    strings.TrimSpace(req.Address),
		Phone:      strings.TrimSpace(req.Phone),
		BookID:     book.ID,
		BookTitle:  book.Title,
		IssuedDate: issued,
		ReturnDate: issued.AddDays(LoanDays),
	}
	d := c.store.Data()
	d.Borrowers = append(d.Borrowers, br)
	adjustCopies(book, -1)
	if err := c.store.Save(); err != nil {
		return br, err
	}
	return br, nil
}

// ReturnBook puts the copy back on the shelf and deletes the borrower record.
// The removed record is returned.
func (c *Catalog) ReturnBook(borrowerID int) (*Borrower, error) {
	d := c.store.Data()
	idx := -1
	for i, br := range d.Borrowers {
		if br.BorrowerID == borrowerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: borrower %d", ErrBorrowerNotFound, borrowerID)
	}
	br := d.Borrowers[idx]

	// The book may have vanished from a hand-edited file; the loan still closes.
	if book, ok := c.FindBook(br.BookID); ok {
		adjustCopies(book, 1)
	}
	d.Borrowers = append(d.Borrowers[:idx:idx], d.Borrowers[idx+1:]...)
	if err := c.store.Save(); err != nil {
		return br, err
	}
	return br, nil
}

// FindBorrower looks an outstanding loan up by borrower id.
func (c *Catalog) FindBorrower(borrowerID int) (*Borrower, bool) {
	for _, br := range c.store.Data().Borrowers {
		if br.BorrowerID == borrowerID {
			return br, true
		}
	}
	return nil, false
}

// ListBorrowers returns every outstanding loan in insertion order.
func (c *Catalog) ListBorrowers() []*Borrower {
	return c.store.Data().Borrowers
}

// ------------------ Statistics ------------------

// Statistics computes the library aggregates.
func (c *Catalog) Statistics() Stats {
	d := c.store.Data()
	s := Stats{
		TotalBooks:      len(d.Books),
		ActiveBorrowers: len(d.Borrowers),
		TotalMembers:    len(d.LibraryCards),
	}
	for _, b := range d.Books {
		s.TotalCopies += b.Copies
		if b.Available() {
			s.AvailableBooks++
		}
	}
	return s
}
