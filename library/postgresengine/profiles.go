package postgresengine

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/doug-martin/goqu/v9"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	opSaveProfile   = "save_profile"
	opLoadProfile   = "load_profile"
	opDeleteProfile = "delete_profile"

	logAttrDominantGenre = "dominant_genre"
)

// SaveProfile inserts or replaces the preference profile for its user,
// keyed on the user's email.
func (e *Engine) SaveProfile(ctx context.Context, profile library.PreferenceProfile) error {
	if validateErr := profile.Validate(); validateErr != nil {
		return validateErr
	}

	ctx, span := e.startSpan(ctx, opSaveProfile, e.profilesTableName)

	insertStmt := e.builder().
		Insert(e.profilesTableName).
		Rows(goqu.Record{
			colUserEmail:     profile.UserEmail,
			colDominantGenre: profile.DominantGenre,
			colTally:         goqu.L(castJsonb, string(profile.TallyJSON)),
			colTakenAt:       profile.TakenAt,
		}).
		OnConflict(goqu.DoUpdate(
			colUserEmail,
			goqu.Record{
				colDominantGenre: profile.DominantGenre,
				colTally:         goqu.L(castJsonb, string(profile.TallyJSON)),
				colTakenAt:       profile.TakenAt,
			},
		))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return err
	}

	_, execErr := e.executeExec(ctx, sqlQuery, opSaveProfile)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return errors.Join(library.ErrSavingProfileFailed, execErr)
	}

	e.logOperation(ctx, opSaveProfile, logAttrEmail, profile.UserEmail, logAttrDominantGenre, profile.DominantGenre)

	return nil
}

// LoadProfile performs a point lookup by email. An absent profile is
// reported through the found flag, not as an error.
func (e *Engine) LoadProfile(ctx context.Context, email library.EmailString) (library.PreferenceProfile, bool, error) {
	var empty library.PreferenceProfile

	if email == "" {
		return empty, false, library.ErrEmptyEmail
	}

	ctx, span := e.startSpan(ctx, opLoadProfile, e.profilesTableName)

	selectStmt := e.builder().
		From(e.profilesTableName).
		Select(colUserEmail, colDominantGenre, colTally, colTakenAt).
		Where(goqu.Ex{colUserEmail: email}).
		Limit(1)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return empty, false, err
	}

	rows, queryErr := e.executeQuery(ctx, sqlQuery, opLoadProfile)
	e.finishSpan(span, queryErr)
	if queryErr != nil {
		return empty, false, errors.Join(library.ErrLoadingProfileFailed, queryErr)
	}
	defer e.closeRows(ctx, rows)

	if !rows.Next() {
		return empty, false, nil
	}

	var (
		profile   library.PreferenceProfile
		tallyJSON []byte
	)

	scanErr := rows.Scan(&profile.UserEmail, &profile.DominantGenre, &tallyJSON, &profile.TakenAt)
	if scanErr != nil {
		e.logError(ctx, library.ErrScanningRowFailed.Error(), scanErr)
		return empty, false, errors.Join(library.ErrScanningRowFailed, scanErr)
	}

	profile.TallyJSON = json.RawMessage(tallyJSON)

	return profile, true, nil
}

// DeleteProfile removes the profile for the given email. Deleting an
// absent profile is a no-op.
func (e *Engine) DeleteProfile(ctx context.Context, email library.EmailString) error {
	if email == "" {
		return library.ErrEmptyEmail
	}

	ctx, span := e.startSpan(ctx, opDeleteProfile, e.profilesTableName)

	deleteStmt := e.builder().
		Delete(e.profilesTableName).
		Where(goqu.Ex{colUserEmail: email})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		err := errors.Join(library.ErrBuildingQueryFailed, toSQLErr)
		e.logError(ctx, library.ErrBuildingQueryFailed.Error(), toSQLErr)
		e.finishSpan(span, err)

		return err
	}

	_, execErr := e.executeExec(ctx, sqlQuery, opDeleteProfile)
	e.finishSpan(span, execErr)
	if execErr != nil {
		return errors.Join(library.ErrDeletingProfileFailed, execErr)
	}

	e.logOperation(ctx, opDeleteProfile, logAttrEmail, email)

	return nil
}
