package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	opAppendBorrow = "append_borrow"
	opMarkReturned = "mark_returned"
	opFindRecords  = "find_records"

	logAttrRecordID    = "record_id"
	logAttrRecordCount = "record_count"
)

// AppendBorrow appends a new borrow record to the ledger.
func (e *Engine) AppendBorrow(ctx context.Context, record library.BorrowRecord) error {
	if record.UserEmail == "" {
		return library.ErrEmptyEmail
	}

	if record.ISBN == "" {
		return library.ErrEmptyISBN
	}

	ctx, span := e.startSpan(ctx, opAppendBorrow, e.ledgerTableName)

	// returned_at is omitted: a freshly appended record is always
	// outstanding and the column defaults to NULL.
	insertStmt := e.builder().
		Insert(e.ledgerTableName).
		Rows(goqu.Record{
			colRecordID:   record.RecordID,
			colUserEmail:  record.UserEmail,
			colISBN:       record.ISBN,
			colBorrowedAt: record.BorrowedAt,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return err
	}

	_, execErr := e.executeExec(ctx, sqlQuery, opAppendBorrow)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return execErr
	}

	e.logOperation(ctx, opAppendBorrow, logAttrRecordID, record.RecordID, logAttrISBN, record.ISBN)

	return nil
}

// MarkReturned sets the return timestamp on the FIRST outstanding record
// matching the given user and ISBN, where "first" means the oldest borrow
// timestamp with record ID as the tie-break.
//
// The statement targets the record by ID through a subselect and re-checks
// returned_at IS NULL in the outer WHERE, so two concurrent returns for the
// same loan settle in exactly one matched update; the loser reports
// matched == false.
func (e *Engine) MarkReturned(
	ctx context.Context,
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

	ctx, span := e.startSpan(ctx, opMarkReturned, e.ledgerTableName)

	firstOutstanding := e.builder().
		From(e.ledgerTableName).
		Select(colRecordID).
		Where(goqu.Ex{
			colUserEmail:  userEmail,
			colISBN:       isbn,
			colReturnedAt: nil,
		}).
		Order(goqu.I(colBorrowedAt).Asc(), goqu.I(colRecordID).Asc()).
		Limit(1)

	updateStmt := e.builder().
		Update(e.ledgerTableName).
		Set(goqu.Record{colReturnedAt: returnedAt.UTC()}).
		Where(
			goqu.C(colRecordID).Eq(firstOutstanding),
			goqu.C(colReturnedAt).IsNull(),
		)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return false, err
	}

	rowsAffected, execErr := e.executeExec(ctx, sqlQuery, opMarkReturned)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return false, execErr
	}

	matched := rowsAffected > 0
	e.logOperation(ctx, opMarkReturned, logAttrEmail, userEmail, logAttrISBN, isbn, logAttrMatched, matched)

	return matched, nil
}

// FindRecords returns the user's borrow records ordered by borrow timestamp
// ascending with record ID as the tie-break, restricted to outstanding
// loans when onlyOutstanding is set.
func (e *Engine) FindRecords(
	ctx context.Context,
	userEmail library.EmailString,
	onlyOutstanding bool,
) (library.BorrowRecords, error) {

	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	ctx, span := e.startSpan(ctx, opFindRecords, e.ledgerTableName)

	selectStmt := e.builder().
		From(e.ledgerTableName).
		Select(colRecordID, colUserEmail, colISBN, colBorrowedAt, colReturnedAt).
		Where(goqu.Ex{colUserEmail: userEmail}).
		Order(goqu.I(colBorrowedAt).Asc(), goqu.I(colRecordID).Asc())

	if onlyOutstanding {
		selectStmt = selectStmt.Where(goqu.C(colReturnedAt).IsNull())
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return nil, err
	}

	rows, queryErr := e.executeQuery(ctx, sqlQuery, opFindRecords)
	e.finishSpan(span, queryErr)
	if queryErr != nil {
		return nil, queryErr
	}
	defer e.closeRows(ctx, rows)

	records := make(library.BorrowRecords, 0)

	for rows.Next() {
		var (
			record     library.BorrowRecord
			returnedAt sql.NullTime
		)

		scanErr := rows.Scan(
			&record.RecordID,
			&record.UserEmail,
			&record.ISBN,
			&record.BorrowedAt,
			&returnedAt,
		)
		if scanErr != nil {
			e.logError(ctx, library.ErrScanningRowFailed.Error(), scanErr)
			return nil, errors.Join(library.ErrScanningRowFailed, scanErr)
		}

		if returnedAt.Valid {
			ts := returnedAt.Time.UTC()
			record.ReturnedAt = &ts
		}

		records = append(records, record)
	}

	e.logOperation(ctx, opFindRecords, logAttrEmail, userEmail, logAttrRecordCount, len(records))

	return records, nil
}
