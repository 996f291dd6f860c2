package library

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrBuildingRecordIDFailed = errors.New("building borrow record id failed")

// BorrowRecords is an alias type for a slice of BorrowRecord.
type BorrowRecords = []BorrowRecord

// BorrowRecord is one entry in the borrow ledger.
//
// A record is appended when a user borrows a book and mutated exactly once
// when the book comes back: ReturnedAt is nil while the loan is
// outstanding and carries the return timestamp afterward. Records are
// never deleted; they reference, but do not own, the Book and User rows,
// so a record may outlive the book it points at.
//
// While its properties are exported, it should only be constructed with
// BuildBorrowRecord.
type BorrowRecord struct {
	RecordID   string
	UserEmail  EmailString
	ISBN       ISBNString
	BorrowedAt time.Time
	ReturnedAt *time.Time
}

// BuildBorrowRecord is a factory method for BorrowRecord.
//
// It allocates a time-ordered (v7) UUID as the record ID, normalizes the
// borrow timestamp to UTC, and leaves ReturnedAt nil (outstanding).
// Returns an error if the email or ISBN is empty.
func BuildBorrowRecord(userEmail EmailString, isbn ISBNString, borrowedAt time.Time) (BorrowRecord, error) {
	if userEmail == "" {
		return BorrowRecord{}, ErrEmptyEmail
	}

	if isbn == "" {
		return BorrowRecord{}, ErrEmptyISBN
	}

	recordID, uuidErr := uuid.NewV7()
	if uuidErr != nil {
		return BorrowRecord{}, errors.Join(ErrBuildingRecordIDFailed, uuidErr)
	}

	return BorrowRecord{
		RecordID:   recordID.String(),
		UserEmail:  userEmail,
		ISBN:       isbn,
		BorrowedAt: borrowedAt.UTC(),
		ReturnedAt: nil,
	}, nil
}

// Outstanding reports whether the loan has not been returned yet.
func (r BorrowRecord) Outstanding() bool {
	return r.ReturnedAt == nil
}
