package library

import (
	"context"
	"time"
)

// CatalogStore is the contract for the book catalog.
//
// FindByISBN treats absence as data, not as an error: the second return
// value reports whether the book exists. Store failures are reported as
// errors wrapping ErrStoreUnavailable.
type CatalogStore interface {
	// InsertBook adds a book to the catalog.
	InsertBook(ctx context.Context, book Book) error

	// FindByISBN performs a point lookup by ISBN.
	FindByISBN(ctx context.Context, isbn ISBNString) (Book, bool, error)

	// UpdateRating sets the rating of the book with the given ISBN.
	// The returned flag reports whether a book was matched.
	UpdateRating(ctx context.Context, isbn ISBNString, rating int) (bool, error)

	// FindTopByRating returns the books matching the filter, ordered by
	// rating descending with ISBN ascending as the deterministic
	// tie-break, truncated to limit.
	FindTopByRating(ctx context.Context, filter BookFilter, limit int) (Books, error)
}

// UserStore is the contract for registered users.
type UserStore interface {
	// InsertUser registers a user.
	InsertUser(ctx context.Context, user User) error

	// FindByEmail performs a point lookup by email. Absence is data,
	// reported through the second return value.
	FindByEmail(ctx context.Context, email EmailString) (User, bool, error)
}

// LedgerStore is the contract for the persisted borrow ledger: append,
// conditional update, and filtered scan over BorrowRecord.
type LedgerStore interface {
	// AppendBorrow appends a new borrow record to the ledger.
	AppendBorrow(ctx context.Context, record BorrowRecord) error

	// MarkReturned sets the return timestamp on the FIRST outstanding
	// record matching the given user and ISBN. The update is a
	// compare-and-set on ReturnedAt still being unset, so concurrent
	// returns are at-most-once-effective. The returned flag reports
	// whether a record was matched; an unmatched return is not an error.
	MarkReturned(ctx context.Context, userEmail EmailString, isbn ISBNString, returnedAt time.Time) (bool, error)

	// FindRecords returns the user's borrow records, restricted to
	// outstanding loans when onlyOutstanding is set, ordered by borrow
	// timestamp ascending with record ID as the tie-break.
	FindRecords(ctx context.Context, userEmail EmailString, onlyOutstanding bool) (BorrowRecords, error)
}

// ProfileStore is the contract for persisted preference profiles.
type ProfileStore interface {
	// SaveProfile inserts or replaces the profile for its user.
	SaveProfile(ctx context.Context, profile PreferenceProfile) error

	// LoadProfile performs a point lookup by email. Absence is data,
	// reported through the second return value.
	LoadProfile(ctx context.Context, email EmailString) (PreferenceProfile, bool, error)

	// DeleteProfile removes the profile for the given email, if any.
	DeleteProfile(ctx context.Context, email EmailString) error
}
