package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"

	"library-desk/library"
)

// errQuit ends the menu loop: stdin closed or the context was cancelled.
var errQuit = errors.New("quit")

// inputError is an ErrInvalidInput with the hint shown to the user.
type inputError struct {
	hint string
	err  error
}

func (e *inputError) Error() string { return e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

func invalid(hint string, err error) error {
	return &inputError{hint: hint, err: err}
}

// console runs the numbered menu over a line-oriented reader.
type console struct {
	ctx   context.Context
	lines <-chan string
	out   io.Writer
	width int
	cat   *library.Catalog

	// readErr is set before lines is closed when input fails for a reason
	// other than end of file.
	readErr error
}

func newConsole(ctx context.Context, cat *library.Catalog, in io.Reader, out io.Writer, width int) *console {
	lines := make(chan string)
	c := &console{ctx: ctx, lines: lines, out: out, width: width, cat: cat}
	go func() {
		defer close(lines)
		// No line length limit.
		r := bufio.NewReader(in)
		for {
			line, err := r.ReadString('\n')
			if line != "" {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					c.readErr = err
				}
				return
			}
		}
	}()
	return c
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// ask prints prompt and returns the next trimmed line.
func (c *console) ask(prompt string) (string, error) {
	c.printf("%s", prompt)
	select {
	case <-c.ctx.Done():
		return "", errQuit
	case line, ok := <-c.lines:
		if !ok {
			return "", errQuit
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *console) askNumber(prompt, hint string) (int, error) {
	s, err := c.ask(prompt)
	if err != nil {
		return 0, err
	}
	n, err := library.ParseNumber(s)
	if err != nil {
		return 0, invalid(hint, err)
	}
	return n, nil
}

const menu = `
--- MAIN MENU ---
1. Add Book
2. List All Books
3. Search Books
4. Issue Library Card
5. Issue Book
6. Return Book
7. View Active Borrowers
8. Library Statistics
9. Exit
--------------------
`

// run loops until choice 9, end of input or cancellation.
func (c *console) run() {
	c.printf("%s\n      📚 LIBRARY MANAGEMENT SYSTEM 📚\n%s\n", strings.Repeat("=", 50), strings.Repeat("=", 50))
	for {
		c.printf("%s", menu)
		choice, err := c.ask("Enter your choice (1-9): ")
		if err != nil {
			c.stop()
			return
		}
		if choice == "9" {
			c.printf("\nThank you for using Library Management System! 👋\n")
			return
		}
		if err := c.dispatch(choice); errors.Is(err, errQuit) {
			c.stop()
			return
		}
	}
}

// stop reports why the loop ended when it was not choice 9.
func (c *console) stop() {
	switch {
	case c.ctx.Err() != nil:
		c.printf("\n\nProgram interrupted. Goodbye! 👋\n")
	case c.readErr != nil:
		slog.Error("Cannot read input", "err", c.readErr)
		c.printf("\n❌ Cannot read input: %v\n", c.readErr)
	}
}

// dispatch runs one menu entry. Errors are reported here and never leave the
// iteration; a panic is logged and reported generically.
func (c *console) dispatch(choice string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Menu handler panicked", "choice", choice, "panic", r, "stack", string(debug.Stack()))
			c.printf("❌ An error occurred: %v\n", r)
			err = nil
		}
	}()

	var h func() error
	switch choice {
	case "1":
		h = c.handleAddBook
	case "2":
		h = c.handleListBooks
	case "3":
		h = c.handleSearchBooks
	case "4":
		h = c.handleIssueCard
	case "5":
		h = c.handleIssueBook
	case "6":
		h = c.handleReturnBook
	case "7":
		h = c.handleListBorrowers
	case "8":
		h = c.handleStatistics
	default:
		c.printf("❌ Invalid choice. Please enter a number between 1-9.\n")
		return nil
	}
	if err := h(); err != nil {
		if errors.Is(err, errQuit) {
			return err
		}
		c.printf("❌ %s\n", describe(err))
	}
	return nil
}

// describe turns a catalog error into the message shown to the user.
func describe(err error) string {
	var ie *inputError
	switch {
	case errors.As(err, &ie):
		return "Invalid input. " + ie.hint
	case errors.Is(err, library.ErrCardNotFound):
		return "Library card not found. Please issue a card first."
	case errors.Is(err, library.ErrBookNotFound):
		return "Book not found."
	case errors.Is(err, library.ErrNoCopiesAvailable):
		return "No copies available."
	case errors.Is(err, library.ErrBorrowerNotFound):
		return "Borrower record not found."
	case errors.Is(err, library.ErrPersistence):
		return fmt.Sprintf("Changes kept in memory but not written to disk: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func (c *console) handleAddBook() error {
	c.printf("\n--- ADD NEW BOOK ---\n")
	title, err := c.ask("Enter Book Title: ")
	if err != nil {
		return err
	}
	author, err := c.ask("Enter Author Name: ")
	if err != nil {
		return err
	}
	genre, err := c.ask("Enter Genre: ")
	if err != nil {
		return err
	}
	s, err := c.ask("Enter Number of Copies: ")
	if err != nil {
		return err
	}
	const hint = "Copies must be a non-negative number."
	copies, err := library.ParseCount(s)
	if err != nil {
		return invalid(hint, err)
	}

	b, err := c.cat.AddBook(title, author, genre, copies)
	if err != nil {
		if errors.Is(err, library.ErrInvalidInput) {
			return invalid(hint, err)
		}
		return err
	}
	c.printf("\n✅ Book added successfully!\nBook ID: %d\n", b.ID)
	return nil
}

func (c *console) handleListBooks() error {
	books := c.cat.ListBooks()
	if len(books) == 0 {
		c.printf("\n❌ No books found in the library.\n")
		return nil
	}
	c.printf("\n--- ALL BOOKS ---\n")
	library.WriteBooks(c.out, books, c.width)
	return nil
}

func (c *console) handleSearchBooks() error {
	c.printf("\n--- SEARCH BOOKS ---\n")
	keyword, err := c.ask("Enter title, author or genre to search: ")
	if err != nil {
		return err
	}
	results := c.cat.SearchBooks(keyword)
	if len(results) == 0 {
		c.printf("❌ No books found matching your search.\n")
		return nil
	}
	c.printf("\n📚 Found %d book(s):\n", len(results))
	library.WriteSearchResults(c.out, results)
	return nil
}

func (c *console) handleIssueCard() error {
	c.printf("\n--- ISSUE LIBRARY CARD ---\n")
	name, err := c.ask("Enter Reader's Name: ")
	if err != nil {
		return err
	}
	branch, err := c.ask("Enter Branch Address: ")
	if err != nil {
		return err
	}
	months, err := c.askNumber("Subscription (months): ", "Subscription must be a number.")
	if err != nil {
		return err
	}

	card, err := c.cat.IssueCard(name, branch, months)
	if err != nil {
		return err
	}
	c.printf("\n✅ Library Card issued successfully!\nCard Number: %d\n", card.CardNo)
	return nil
}

func (c *console) handleIssueBook() error {
	const hint = "Card Number and Book ID must be numbers."
	c.printf("\n--- ISSUE BOOK ---\n")
	cardNo, err := c.askNumber("Card Number: ", hint)
	if err != nil {
		return err
	}
	// Stop before asking for borrower details.
	if _, err := c.cat.CheckCard(cardNo); err != nil {
		return err
	}

	req := library.IssueRequest{CardNo: cardNo}
	if req.Name, err = c.ask("Borrower's Name: "); err != nil {
		return err
	}
	if req.Address, err = c.ask("Address: "); err != nil {
		return err
	}
	if req.Phone, err = c.ask("Phone: "); err != nil {
		return err
	}
	if req.BookID, err = c.askNumber("Book ID: ", hint); err != nil {
		return err
	}

	br, err := c.cat.IssueBook(req)
	if err != nil {
		return err
	}
	c.printf("\n✅ Book issued successfully!\nBorrower ID: %d\nBook: %s\nReturn Date: %s\n", br.BorrowerID, br.BookTitle, br.ReturnDate)
	return nil
}

func (c *console) handleReturnBook() error {
	c.printf("\n--- RETURN BOOK ---\n")
	id, err := c.askNumber("Enter Borrower ID to return book: ", "Borrower ID must be a number.")
	if err != nil {
		return err
	}
	br, err := c.cat.ReturnBook(id)
	if err != nil {
		return err
	}
	c.printf("\n✅ Book returned successfully!\nBook: %s\n", br.BookTitle)
	return nil
}

func (c *console) handleListBorrowers() error {
	borrowers := c.cat.ListBorrowers()
	if len(borrowers) == 0 {
		c.printf("\n❌ No active borrowers found.\n")
		return nil
	}
	c.printf("\n--- ACTIVE BORROWERS ---\n")
	library.WriteBorrowers(c.out, borrowers, c.width)
	return nil
}

func (c *console) handleStatistics() error {
	c.printf("\n--- LIBRARY STATISTICS ---\n")
	library.WriteStats(c.out, c.cat.Statistics())
	return nil
}
