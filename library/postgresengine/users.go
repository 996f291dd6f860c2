package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	opInsertUser  = "insert_user"
	opFindByEmail = "find_by_email"

	logAttrEmail = "email"
)

// InsertUser registers a library member.
func (e *Engine) InsertUser(ctx context.Context, user library.User) error {
	if user.Email == "" {
		return library.ErrEmptyEmail
	}

	ctx, span := e.startSpan(ctx, opInsertUser, e.usersTableName)

	insertStmt := e.builder().
		Insert(e.usersTableName).
		Rows(goqu.Record{
			colEmail: user.Email,
			colName:  user.Name,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return err
	}

	_, execErr := e.executeExec(ctx, sqlQuery, opInsertUser)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return execErr
	}

	e.logOperation(ctx, opInsertUser, logAttrEmail, user.Email)

	return nil
}

// FindByEmail performs a point lookup by email address. An unknown member
// is reported through the found flag, not as an error.
func (e *Engine) FindByEmail(ctx context.Context, email library.EmailString) (library.User, bool, error) {
	var empty library.User

	if email == "" {
		return empty, false, library.ErrEmptyEmail
	}

	ctx, span := e.startSpan(ctx, opFindByEmail, e.usersTableName)

	selectStmt := e.builder().
		From(e.usersTableName).
		Select(colEmail, colName).
		Where(goqu.Ex{colEmail: email}).
		Limit(1)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return empty, false, err
	}

	rows, queryErr := e.executeQuery(ctx, sqlQuery, opFindByEmail)
	e.finishSpan(span, queryErr)
	if queryErr != nil {
		return empty, false, queryErr
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return empty, false, nil
	}

	var user library.User
	if scanErr := rows.Scan(&user.Email, &user.Name); scanErr != nil {
		e.logError(ctx, library.ErrScanningRowFailed.Error(), scanErr)
		return empty, false, errors.Join(library.ErrScanningRowFailed, scanErr)
	}

	return user, true, nil
}
