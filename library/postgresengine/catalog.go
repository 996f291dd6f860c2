package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	opInsertBook      = "insert_book"
	opFindByISBN      = "find_by_isbn"
	opUpdateRating    = "update_rating"
	opFindTopByRating = "find_top_by_rating"

	logAttrISBN      = "isbn"
	logAttrBookCount = "book_count"
	logAttrMatched   = "matched"
)

// InsertBook adds a book to the catalog.
func (e *Engine) InsertBook(ctx context.Context, book library.Book) error {
	if book.ISBN == "" {
		return library.ErrEmptyISBN
	}

	ctx, span := e.startSpan(ctx, opInsertBook, e.booksTableName)

	insertStmt := e.builder().
		Insert(e.booksTableName).
		Rows(goqu.Record{
			colISBN:   book.ISBN,
			colTitle:  book.Title,
			colAuthor: book.Author,
			colGenre:  book.Genre,
			colRating: book.Rating,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return err
	}

	_, execErr := e.executeExec(ctx, sqlQuery, opInsertBook)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return execErr
	}

	e.logOperation(ctx, opInsertBook, logAttrISBN, book.ISBN)

	return nil
}

// FindByISBN performs a point lookup by ISBN. An absent book is reported
// through the found flag, not as an error.
func (e *Engine) FindByISBN(ctx context.Context, isbn library.ISBNString) (library.Book, bool, error) {
	var empty library.Book

	if isbn == "" {
		return empty, false, library.ErrEmptyISBN
	}

	ctx, span := e.startSpan(ctx, opFindByISBN, e.booksTableName)

	selectStmt := e.builder().
		From(e.booksTableName).
		Select(colISBN, colTitle, colAuthor, colGenre, colRating).
		Where(goqu.Ex{colISBN: isbn}).
		Limit(1)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return empty, false, err
	}

	books, queryErr := e.queryBooks(ctx, sqlQuery, opFindByISBN)
	e.finishSpan(span, queryErr)
	if queryErr != nil {
		return empty, false, queryErr
	}

	if len(books) == 0 {
		return empty, false, nil
	}

	return books[0], true, nil
}

// UpdateRating sets the rating of the book with the given ISBN.
// The returned flag reports whether a book was matched; an unknown ISBN
// is not an error, mirroring the catalog's lax update semantics.
func (e *Engine) UpdateRating(ctx context.Context, isbn library.ISBNString, rating int) (bool, error) {
	if isbn == "" {
		return false, library.ErrEmptyISBN
	}

	if rating < 0 {
		return false, library.ErrNegativeRating
	}

	ctx, span := e.startSpan(ctx, opUpdateRating, e.booksTableName)

	updateStmt := e.builder().
		Update(e.booksTableName).
		Set(goqu.Record{colRating: rating}).
		Where(goqu.Ex{colISBN: isbn})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return false, err
	}

	rowsAffected, execErr := e.executeExec(ctx, sqlQuery, opUpdateRating)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return false, execErr
	}

	matched := rowsAffected > 0
	e.logOperation(ctx, opUpdateRating, logAttrISBN, isbn, logAttrMatched, matched)

	return matched, nil
}

// FindTopByRating returns the books matching the filter, ordered by rating
// descending with ISBN ascending as the deterministic tie-break, truncated
// to limit. A nonpositive limit yields an empty result.
func (e *Engine) FindTopByRating(ctx context.Context, filter library.BookFilter, limit int) (library.Books, error) {
	if limit <= 0 {
		return library.Books{}, nil
	}

	ctx, span := e.startSpan(ctx, opFindTopByRating, e.booksTableName)

	selectStmt := e.builder().
		From(e.booksTableName).
		Select(colISBN, colTitle, colAuthor, colGenre, colRating).
		Order(goqu.I(colRating).Desc(), goqu.I(colISBN).Asc()).
		Limit(uint(limit))

	selectStmt = addBookFilterWhereClause(filter, selectStmt)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return nil, err
	}

	books, queryErr := e.queryBooks(ctx, sqlQuery, opFindTopByRating)
	e.finishSpan(span, queryErr)
	if queryErr != nil {
		return nil, queryErr
	}

	e.logOperation(ctx, opFindTopByRating, logAttrBookCount, len(books))

	return books, nil
}

// addBookFilterWhereClause translates a library.BookFilter into goqu
// WHERE expressions; an empty filter adds no clause at all.
func addBookFilterWhereClause(filter library.BookFilter, selectStmt *goqu.SelectDataset) *goqu.SelectDataset {
	expressions := make([]goqu.Expression, 0)

	if genres := filter.Genres(); len(genres) > 0 {
		expressions = append(expressions, goqu.C(colGenre).In(genres))
	}

	if substring := filter.TitleContains(); substring != "" {
		expressions = append(expressions, goqu.C(colTitle).ILike("%"+substring+"%"))
	}

	if minRating, hasMinRating := filter.MinRating(); hasMinRating {
		expressions = append(expressions, goqu.C(colRating).Gte(minRating))
	}

	if len(expressions) == 0 {
		return selectStmt
	}

	return selectStmt.Where(goqu.And(expressions...))
}

// queryBooks runs a book select and scans the result rows.
func (e *Engine) queryBooks(ctx context.Context, sqlQuery sqlQueryString, operation string) (library.Books, error) {
	rows, queryErr := e.executeQuery(ctx, sqlQuery, operation)
	if queryErr != nil {
		return nil, queryErr
	}
	defer e.closeRows(ctx, rows)

	books := make(library.Books, 0)

	for rows.Next() {
		var book library.Book

		if scanErr := rows.Scan(&book.ISBN, &book.Title, &book.Author, &book.Genre, &book.Rating); scanErr != nil {
			e.logError(ctx, library.ErrScanningRowFailed.Error(), scanErr)
			return nil, errors.Join(library.ErrScanningRowFailed, scanErr)
		}

		books = append(books, book)
	}

	return books, nil
}
