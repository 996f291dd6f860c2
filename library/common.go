package library

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the root of the invalid-input error taxonomy.
// All input validation failures wrap it, so callers can match the whole
// class with errors.Is(err, library.ErrInvalidInput).
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrEmptyISBN  = fmt.Errorf("%w: isbn must not be empty", ErrInvalidInput)
	ErrEmptyTitle = fmt.Errorf("%w: title must not be empty", ErrInvalidInput)
	ErrEmptyEmail = fmt.Errorf("%w: email must not be empty", ErrInvalidInput)
	ErrEmptyName  = fmt.Errorf("%w: name must not be empty", ErrInvalidInput)

	// ErrNegativeRating is returned when a rating update would store a negative rating.
	ErrNegativeRating = fmt.Errorf("%w: rating must not be negative", ErrInvalidInput)
)

// ErrUserNotFound is returned when an operation requires a registered user
// and the referenced email is absent from the user store.
var ErrUserNotFound = errors.New("user not found")

// ErrBookNotFound is returned when an operation requires a cataloged book
// and the referenced ISBN is absent from the catalog store.
var ErrBookNotFound = errors.New("book not found")

// ErrDuplicateOutstandingBorrow is returned by RecordBorrow when duplicate
// outstanding borrows are disallowed by policy and the user already holds
// an unreturned copy of the book.
var ErrDuplicateOutstandingBorrow = errors.New("user already holds an outstanding borrow for this book")

// ErrNoOutstandingBorrow is returned by ReturnBook in strict mode when no
// outstanding borrow record matches the given user and ISBN.
var ErrNoOutstandingBorrow = errors.New("no outstanding borrow record matches")

// ErrStoreUnavailable marks failures of the underlying store itself
// (unreachable, erroring, deadline exceeded). Engine implementations join
// it with the driver error, so errors.Is(err, library.ErrStoreUnavailable)
// distinguishes a store failure from a record that is legitimately absent.
var ErrStoreUnavailable = errors.New("store unavailable")

var (
	// ErrBuildingQueryFailed is returned when a store query could not be built.
	ErrBuildingQueryFailed = errors.New("building store query failed")

	// ErrScanningRowFailed is returned when a store result row could not be scanned.
	ErrScanningRowFailed = errors.New("scanning store row failed")

	// ErrGettingRowsAffectedFailed is returned when the affected-rows count
	// could not be read after a store write.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrNilStore = errors.New("store must not be nil")
var ErrNilClock = errors.New("clock must not be nil")

// ISBNString is a type alias for string, representing a Book's ISBN.
type ISBNString = string

// EmailString is a type alias for string, representing a User's email address.
type EmailString = string

// GenreString is a type alias for string, representing a Book's free-form genre label.
type GenreString = string
