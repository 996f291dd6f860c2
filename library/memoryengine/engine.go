// Package memoryengine implements all library store interfaces with plain
// in-memory maps guarded by a mutex.
//
// It mirrors the ordering and compare-and-set semantics of the Postgres
// engine, so services behave identically against either. Intended for
// tests and demos; nothing is persisted.
package memoryengine

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/caxton-systems/library-catalog-go/library"
)

// Engine is an in-memory implementation of CatalogStore, UserStore,
// LedgerStore and ProfileStore. The zero value is not usable; construct
// it with NewEngine. Safe for concurrent use.
type Engine struct {
	mu       sync.RWMutex
	books    map[library.ISBNString]library.Book
	users    map[library.EmailString]library.User
	records  []library.BorrowRecord
	profiles map[library.EmailString]library.PreferenceProfile
}

// Interface guards.
var (
	_ library.CatalogStore = (*Engine)(nil)
	_ library.UserStore    = (*Engine)(nil)
	_ library.LedgerStore  = (*Engine)(nil)
	_ library.ProfileStore = (*Engine)(nil)
)

// NewEngine creates an empty in-memory engine.
func NewEngine() *Engine {
	return &Engine{
		books:    make(map[library.ISBNString]library.Book),
		users:    make(map[library.EmailString]library.User),
		records:  make([]library.BorrowRecord, 0),
		profiles: make(map[library.EmailString]library.PreferenceProfile),
	}
}

/***** CatalogStore *****/

// InsertBook adds a book to the catalog, replacing any book with the same ISBN.
func (e *Engine) InsertBook(_ context.Context, book library.Book) error {
	if book.ISBN == "" {
		return library.ErrEmptyISBN
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.books[book.ISBN] = book

	return nil
}

// FindByISBN performs a point lookup by ISBN.
func (e *Engine) FindByISBN(_ context.Context, isbn library.ISBNString) (library.Book, bool, error) {
	if isbn == "" {
		return library.Book{}, false, library.ErrEmptyISBN
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	book, found := e.books[isbn]

	return book, found, nil
}

// UpdateRating sets the rating of the book with the given ISBN.
// The returned flag reports whether a book was matched.
func (e *Engine) UpdateRating(_ context.Context, isbn library.ISBNString, rating int) (bool, error) {
	if isbn == "" {
		return false, library.ErrEmptyISBN
	}

	if rating < 0 {
		return false, library.ErrNegativeRating
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	book, found := e.books[isbn]
	if !found {
		return false, nil
	}

	book.Rating = rating
	e.books[isbn] = book

	return true, nil
}

// FindTopByRating returns the books matching the filter, ordered by rating
// descending with ISBN ascending as the deterministic tie-break, truncated
// to limit. A nonpositive limit yields an empty result.
func (e *Engine) FindTopByRating(_ context.Context, filter library.BookFilter, limit int) (library.Books, error) {
	if limit <= 0 {
		return library.Books{}, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	matches := make(library.Books, 0)

	for _, book := range e.books {
		if bookMatchesFilter(book, filter) {
			matches = append(matches, book)
		}
	}

	slices.SortFunc(matches, func(a, b library.Book) int {
		if a.Rating != b.Rating {
			return b.Rating - a.Rating
		}

		return strings.Compare(a.ISBN, b.ISBN)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func bookMatchesFilter(book library.Book, filter library.BookFilter) bool {
	if genres := filter.Genres(); len(genres) > 0 && !slices.Contains(genres, book.Genre) {
		return false
	}

	if substring := filter.TitleContains(); substring != "" {
		if !strings.Contains(strings.ToLower(book.Title), strings.ToLower(substring)) {
			return false
		}
	}

	if minRating, hasMinRating := filter.MinRating(); hasMinRating && book.Rating < minRating {
		return false
	}

	return true
}

/***** UserStore *****/

// InsertUser registers a user, replacing any user with the same email.
func (e *Engine) InsertUser(_ context.Context, user library.User) error {
	if user.Email == "" {
		return library.ErrEmptyEmail
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.users[user.Email] = user

	return nil
}

// FindByEmail performs a point lookup by email.
func (e *Engine) FindByEmail(_ context.Context, email library.EmailString) (library.User, bool, error) {
	if email == "" {
		return library.User{}, false, library.ErrEmptyEmail
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	user, found := e.users[email]

	return user, found, nil
}

/***** LedgerStore *****/

// AppendBorrow appends a new borrow record to the ledger.
func (e *Engine) AppendBorrow(_ context.Context, record library.BorrowRecord) error {
	if record.UserEmail == "" {
		return library.ErrEmptyEmail
	}

	if record.ISBN == "" {
		return library.ErrEmptyISBN
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.records = append(e.records, cloneRecord(record))

	return nil
}

// MarkReturned sets the return timestamp on the FIRST outstanding record
// matching the given user and ISBN, where "first" means the oldest borrow
// timestamp with record ID as the tie-break. The check and the update
// happen under one lock, so concurrent returns settle in exactly one
// matched update.
func (e *Engine) MarkReturned(
	_ context.Context,
	userEmail library.EmailString,
	isbn library.ISBNString,
	returnedAt time.Time,
) (bool, error) {

	if userEmail == "" {
		return false, library.ErrEmptyEmail
	}

	if isbn == "" {
		return false, library.ErrEmptyISBN
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	targetIdx := -1

	for idx, record := range e.records {
		if record.UserEmail != userEmail || record.ISBN != isbn || !record.Outstanding() {
			continue
		}

		if targetIdx == -1 || borrowOrderLess(record, e.records[targetIdx]) {
			targetIdx = idx
		}
	}

	if targetIdx == -1 {
		return false, nil
	}

	ts := returnedAt.UTC()
	e.records[targetIdx].ReturnedAt = &ts

	return true, nil
}

// FindRecords returns the user's borrow records ordered by borrow
// timestamp ascending with record ID as the tie-break, restricted to
// outstanding loans when onlyOutstanding is set.
func (e *Engine) FindRecords(
	_ context.Context,
	userEmail library.EmailString,
	onlyOutstanding bool,
) (library.BorrowRecords, error) {

	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	matches := make(library.BorrowRecords, 0)

	for _, record := range e.records {
		if record.UserEmail != userEmail {
			continue
		}

		if onlyOutstanding && !record.Outstanding() {
			continue
		}

		matches = append(matches, cloneRecord(record))
	}

	slices.SortFunc(matches, func(a, b library.BorrowRecord) int {
		if !a.BorrowedAt.Equal(b.BorrowedAt) {
			return a.BorrowedAt.Compare(b.BorrowedAt)
		}

		return strings.Compare(a.RecordID, b.RecordID)
	})

	return matches, nil
}

func borrowOrderLess(a, b library.BorrowRecord) bool {
	if !a.BorrowedAt.Equal(b.BorrowedAt) {
		return a.BorrowedAt.Before(b.BorrowedAt)
	}

	return a.RecordID < b.RecordID
}

func cloneRecord(record library.BorrowRecord) library.BorrowRecord {
	if record.ReturnedAt != nil {
		ts := *record.ReturnedAt
		record.ReturnedAt = &ts
	}

	return record
}

/***** ProfileStore *****/

// SaveProfile inserts or replaces the profile for its user.
func (e *Engine) SaveProfile(_ context.Context, profile library.PreferenceProfile) error {
	if validateErr := profile.Validate(); validateErr != nil {
		return validateErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	profile.TallyJSON = slices.Clone(profile.TallyJSON)
	e.profiles[profile.UserEmail] = profile

	return nil
}

// LoadProfile performs a point lookup by email.
func (e *Engine) LoadProfile(_ context.Context, email library.EmailString) (library.PreferenceProfile, bool, error) {
	if email == "" {
		return library.PreferenceProfile{}, false, library.ErrEmptyEmail
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	profile, found := e.profiles[email]
	if found {
		profile.TallyJSON = slices.Clone(profile.TallyJSON)
	}

	return profile, found, nil
}

// DeleteProfile removes the profile for the given email, if any.
func (e *Engine) DeleteProfile(_ context.Context, email library.EmailString) error {
	if email == "" {
		return library.ErrEmptyEmail
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.profiles, email)

	return nil
}
