package library

import (
	"fmt"
	"io"
	"strings"
)

// TableWidth is the default width of the book and borrower tables.
const TableWidth = 70

// Truncate shortens s to at most maxLen runes.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// titleWidth grows the title column with the available width.
func titleWidth(width int) int {
	if w := 20 + (width - TableWidth); w > 20 {
		return min(w, 60)
	}
	return 20
}

// PrettyBook formats a book as one table row.
func PrettyBook(b *Book, width int) string {
	tw := titleWidth(width)
	return fmt.Sprintf("%3d | %-*s | %-15s | %-12s | %6d", b.ID, tw, Truncate(b.Title, tw), Truncate(b.Author, 15), Truncate(b.Genre, 12), b.Copies)
}

// WriteBooks renders the book table.
func WriteBooks(w io.Writer, books []*Book, width int) {
	tw := titleWidth(width)
	fmt.Fprintf(w, "ID  | %-*s | %-15s | %-12s | Copies\n", tw, "Title", "Author", "Genre")
	fmt.Fprintln(w, strings.Repeat("-", TableWidth+tw-20))
	for _, b := range books {
		fmt.Fprintln(w, PrettyBook(b, width))
	}
}

// WriteSearchResults renders the short search listing.
func WriteSearchResults(w io.Writer, books []*Book) {
	for _, b := range books {
		status := "Available"
		if !b.Available() {
			status = "Not Available"
		}
		fmt.Fprintf(w, "ID: %d | %s by %s | %s\n", b.ID, b.Title, b.Author, status)
	}
}

// WriteBorrowers renders the active borrower table.
func WriteBorrowers(w io.Writer, borrowers []*Borrower, width int) {
	tw := titleWidth(width)
	fmt.Fprintf(w, "ID   | %-18s | %-11s | %-*s | Issued Date | Return Date\n", "Name", "Phone", tw-1, "Book Title")
	fmt.Fprintln(w, strings.Repeat("-", 90+tw-20))
	for _, br := range borrowers {
		fmt.Fprintf(w, "%4d | %-18s | %-11s | %-*s | %s  | %s\n",
			br.BorrowerID,
			Truncate(br.Name, 18),
			Truncate(br.Phone, 11),
			tw-1, Truncate(br.BookTitle, tw-1),
			br.IssuedDate, br.ReturnDate)
	}
}

// WriteStats renders the statistics screen.
func WriteStats(w io.Writer, s Stats) {
	fmt.Fprintf(w, "📊 Total Books: %d\n", s.TotalBooks)
	fmt.Fprintf(w, "📚 Total Copies: %d\n", s.TotalCopies)
	fmt.Fprintf(w, "✅ Available Books: %d\n", s.AvailableBooks)
	fmt.Fprintf(w, "👥 Active Borrowers: %d\n", s.ActiveBorrowers)
	fmt.Fprintf(w, "🎫 Total Members: %d\n", s.TotalMembers)
}
