// Package lending implements the borrow ledger service: recording loans,
// settling returns, and listing a user's outstanding and historical
// borrow records.
//
// The service is store-agnostic. It is wired with a library.UserStore and
// a library.LedgerStore at construction time and never touches the book
// catalog: a loan may reference a book the catalog no longer knows about.
package lending

import (
	"context"
	"time"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	logMsgBorrowRecorded = "borrow recorded"
	logMsgReturnSettled  = "return settled"

	logAttrEmail    = "email"
	logAttrISBN     = "isbn"
	logAttrRecordID = "record_id"
	logAttrMatched  = "matched"
)

// Clock supplies the current time. The default is time.Now; tests inject
// a fixed clock for deterministic timestamps.
type Clock func() time.Time

// Ledger is the borrow ledger service.
// It should be created with NewLedger and is safe for concurrent use as
// long as its stores are.
type Ledger struct {
	users  library.UserStore
	store  library.LedgerStore
	clock  Clock
	logger library.Logger

	disallowDuplicateOutstanding bool
	strictReturns                bool
}

// Option is a functional option for NewLedger.
type Option func(*Ledger) error

// WithClock overrides the time source used for borrow and return timestamps.
func WithClock(clock Clock) Option {
	return func(l *Ledger) error {
		if clock == nil {
			return library.ErrNilClock
		}

		l.clock = clock

		return nil
	}
}

// WithLogger configures operational logging.
func WithLogger(logger library.Logger) Option {
	return func(l *Ledger) error {
		l.logger = logger

		return nil
	}
}

// WithDisallowedDuplicateOutstandingBorrows makes RecordBorrow fail with
// ErrDuplicateOutstandingBorrow when the user already holds an outstanding
// loan for the same ISBN. The default permits duplicates, so the same
// (user, isbn) pair can accumulate multiple simultaneous loans.
func WithDisallowedDuplicateOutstandingBorrows() Option {
	return func(l *Ledger) error {
		l.disallowDuplicateOutstanding = true

		return nil
	}
}

// WithStrictReturns makes ReturnBook fail with ErrNoOutstandingBorrow when
// no outstanding loan matches. The default treats an unmatched return as a
// silent no-op, observable through the matched flag.
func WithStrictReturns() Option {
	return func(l *Ledger) error {
		l.strictReturns = true

		return nil
	}
}

// NewLedger wires the borrow ledger service with its stores.
func NewLedger(users library.UserStore, store library.LedgerStore, options ...Option) (*Ledger, error) {
	if users == nil || store == nil {
		return nil, library.ErrNilStore
	}

	ledger := &Ledger{
		users: users,
		store: store,
		clock: time.Now,
	}

	for _, option := range options {
		if err := option(ledger); err != nil {
			return nil, err
		}
	}

	return ledger, nil
}

// RecordBorrow appends a new outstanding borrow record for the given user
// and ISBN, timestamped with the service clock in UTC.
//
// The user must exist (library.ErrUserNotFound otherwise). The book is NOT
// checked against the catalog, and by default the same (user, isbn) pair
// may hold multiple outstanding loans; see
// WithDisallowedDuplicateOutstandingBorrows.
func (l *Ledger) RecordBorrow(
	ctx context.Context,
	userEmail library.EmailString,
	isbn library.ISBNString,
) (library.BorrowRecord, error) {

	var empty library.BorrowRecord

	if userEmail == "" {
		return empty, library.ErrEmptyEmail
	}

	if isbn == "" {
		return empty, library.ErrEmptyISBN
	}

	_, found, findErr := l.users.FindByEmail(ctx, userEmail)
	if findErr != nil {
		return empty, findErr
	}

	if !found {
		return empty, library.ErrUserNotFound
	}

	if l.disallowDuplicateOutstanding {
		outstanding, listErr := l.store.FindRecords(ctx, userEmail, true)
		if listErr != nil {
			return empty, listErr
		}

		for _, record := range outstanding {
			if record.ISBN == isbn {
				return empty, library.ErrDuplicateOutstandingBorrow
			}
		}
	}

	record, buildErr := library.BuildBorrowRecord(userEmail, isbn, l.clock())
	if buildErr != nil {
		return empty, buildErr
	}

	if appendErr := l.store.AppendBorrow(ctx, record); appendErr != nil {
		return empty, appendErr
	}

	l.log(logMsgBorrowRecorded,
		logAttrEmail, record.UserEmail,
		logAttrISBN, record.ISBN,
		logAttrRecordID, record.RecordID,
	)

	return record, nil
}

// ReturnBook settles the user's oldest outstanding loan of the given ISBN,
// stamping it with the service clock in UTC. The matched flag reports
// whether a loan was settled.
//
// The underlying store update is conditional on the loan still being
// outstanding, so the call is idempotent: a second return of the same loan
// matches nothing, creates nothing, and by default succeeds silently.
// With WithStrictReturns an unmatched return fails with
// library.ErrNoOutstandingBorrow instead.
func (l *Ledger) ReturnBook(
	ctx context.Context,
	userEmail library.EmailString,
	isbn library.ISBNString,
) (bool, error) {

	if userEmail == "" {
		return false, library.ErrEmptyEmail
	}

	if isbn == "" {
		return false, library.ErrEmptyISBN
	}

	matched, markErr := l.store.MarkReturned(ctx, userEmail, isbn, l.clock())
	if markErr != nil {
		return false, markErr
	}

	l.log(logMsgReturnSettled,
		logAttrEmail, userEmail,
		logAttrISBN, isbn,
		logAttrMatched, matched,
	)

	if !matched && l.strictReturns {
		return false, library.ErrNoOutstandingBorrow
	}

	return matched, nil
}

// ListOutstanding returns the user's outstanding borrow records, ordered
// by borrow timestamp ascending.
func (l *Ledger) ListOutstanding(ctx context.Context, userEmail library.EmailString) (library.BorrowRecords, error) {
	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	return l.store.FindRecords(ctx, userEmail, true)
}

// ListHistory returns all of the user's borrow records regardless of
// return status, ordered by borrow timestamp ascending.
func (l *Ledger) ListHistory(ctx context.Context, userEmail library.EmailString) (library.BorrowRecords, error) {
	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	return l.store.FindRecords(ctx, userEmail, false)
}

func (l *Ledger) log(msg string, args ...any) {
	if l.logger == nil {
		return
	}

	l.logger.Info(msg, args...)
}
