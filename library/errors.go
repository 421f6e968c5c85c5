package library

import "errors"

// Sentinel errors returned by FileStorage and Catalog operations.
var (
	// ErrInvalidInput is returned when a number was required but not given.
	ErrInvalidInput = errors.New("invalid input")

	ErrCardNotFound     = errors.New("library card not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrBorrowerNotFound = errors.New("borrower record not found")

	// ErrNoCopiesAvailable is returned when issuing a book whose copies are exhausted.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrPersistence wraps any failure to write the data file.
	ErrPersistence = errors.New("error saving data")

	// ErrUnknownCounter is returned by NextID for a name that is not a counter.
	ErrUnknownCounter = errors.New("unknown counter")
)
