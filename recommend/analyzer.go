// Package recommend computes reading preferences from a user's borrow
// history and turns them into book recommendations.
//
// Preferences are always recomputed from the ledger at call time; nothing
// is cached between calls. The optional preference profile snapshots are a
// write-only diagnostics channel and are never read back by this package.
package recommend

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/caxton-systems/library-catalog-go/library"
)

const (
	logMsgPreferenceComputed = "preference computed"
	logMsgSnapshotSaved      = "preference snapshot saved"

	logAttrEmail         = "email"
	logAttrDominantGenre = "dominant_genre"
	logAttrTallySize     = "tally_size"
)

var marshaler = jsoniter.ConfigFastest

// BorrowHistory supplies a user's full borrow history. *lending.Ledger
// satisfies it.
type BorrowHistory interface {
	ListHistory(ctx context.Context, userEmail library.EmailString) (library.BorrowRecords, error)
}

// GenreCount is one entry of a user's genre tally.
type GenreCount struct {
	Genre library.GenreString `json:"genre"`
	Count int                 `json:"count"`
}

// Analyzer derives a user's preferred genre from their borrow history.
// It should be created with NewAnalyzer.
type Analyzer struct {
	history  BorrowHistory
	catalog  library.CatalogStore
	profiles library.ProfileStore
	clock    func() time.Time
	logger   library.Logger
}

// AnalyzerOption is a functional option for NewAnalyzer.
type AnalyzerOption func(*Analyzer) error

// WithAnalyzerLogger configures operational logging.
func WithAnalyzerLogger(logger library.Logger) AnalyzerOption {
	return func(a *Analyzer) error {
		a.logger = logger

		return nil
	}
}

// WithAnalyzerClock overrides the time source used to stamp preference
// snapshots.
func WithAnalyzerClock(clock func() time.Time) AnalyzerOption {
	return func(a *Analyzer) error {
		if clock == nil {
			return library.ErrNilClock
		}

		a.clock = clock

		return nil
	}
}

// WithProfileStore enables SnapshotPreferences by wiring the store the
// snapshots are written to. Without it, analysis works but snapshots fail
// with library.ErrNilStore.
func WithProfileStore(profiles library.ProfileStore) AnalyzerOption {
	return func(a *Analyzer) error {
		if profiles == nil {
			return library.ErrNilStore
		}

		a.profiles = profiles

		return nil
	}
}

// NewAnalyzer wires the preference analyzer with its history source and
// the book catalog.
func NewAnalyzer(history BorrowHistory, catalog library.CatalogStore, options ...AnalyzerOption) (*Analyzer, error) {
	if history == nil || catalog == nil {
		return nil, library.ErrNilStore
	}

	analyzer := &Analyzer{
		history: history,
		catalog: catalog,
		clock:   time.Now,
	}

	for _, option := range options {
		if err := option(analyzer); err != nil {
			return nil, err
		}
	}

	return analyzer, nil
}

// PreferredGenre computes the user's dominant genre from their full borrow
// history, returned books included. The found flag is false when the user
// has no borrow history or none of the borrowed books resolve in the
// catalog.
//
// Records whose ISBN no longer resolves are skipped, so a loan of a since
// deleted book never contributes to the tally. A store failure during
// history retrieval or any book lookup propagates as an error; it is never
// reported as "no preference".
//
// Ties break deterministically: the first genre to reach the winning count,
// in the order genres were first encountered in the history.
func (a *Analyzer) PreferredGenre(ctx context.Context, userEmail library.EmailString) (library.GenreString, bool, error) {
	tally, err := a.tallyGenres(ctx, userEmail)
	if err != nil {
		return "", false, err
	}

	genre, found := dominantGenre(tally)

	a.log(logMsgPreferenceComputed,
		logAttrEmail, userEmail,
		logAttrDominantGenre, genre,
		logAttrTallySize, len(tally),
	)

	return genre, found, nil
}

// GenreTally computes the user's genre tally in first-seen order. Exposed
// for diagnostics; Recommend only needs the dominant genre.
func (a *Analyzer) GenreTally(ctx context.Context, userEmail library.EmailString) ([]GenreCount, error) {
	return a.tallyGenres(ctx, userEmail)
}

// SnapshotPreferences computes the user's current genre tally and persists
// it as a library.PreferenceProfile for diagnostics and offline analysis.
// A user with no tally still produces a snapshot, with an empty dominant
// genre. Requires WithProfileStore.
func (a *Analyzer) SnapshotPreferences(ctx context.Context, userEmail library.EmailString) (library.PreferenceProfile, error) {
	var empty library.PreferenceProfile

	if a.profiles == nil {
		return empty, library.ErrNilStore
	}

	tally, tallyErr := a.tallyGenres(ctx, userEmail)
	if tallyErr != nil {
		return empty, tallyErr
	}

	genre, _ := dominantGenre(tally)

	tallyJSON, marshalErr := marshaler.Marshal(tally)
	if marshalErr != nil {
		return empty, library.ErrInvalidTallyJSON
	}

	profile, buildErr := library.BuildPreferenceProfile(userEmail, genre, tallyJSON, a.clock())
	if buildErr != nil {
		return empty, buildErr
	}

	if saveErr := a.profiles.SaveProfile(ctx, profile); saveErr != nil {
		return empty, saveErr
	}

	a.log(logMsgSnapshotSaved,
		logAttrEmail, userEmail,
		logAttrDominantGenre, genre,
		logAttrTallySize, len(tally),
	)

	return profile, nil
}

func (a *Analyzer) tallyGenres(ctx context.Context, userEmail library.EmailString) ([]GenreCount, error) {
	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	records, historyErr := a.history.ListHistory(ctx, userEmail)
	if historyErr != nil {
		return nil, historyErr
	}

	tally := make([]GenreCount, 0)
	indexByGenre := make(map[library.GenreString]int)

	for _, record := range records {
		book, found, findErr := a.catalog.FindByISBN(ctx, record.ISBN)
		if findErr != nil {
			return nil, findErr
		}

		if !found {
			continue
		}

		idx, seen := indexByGenre[book.Genre]
		if !seen {
			indexByGenre[book.Genre] = len(tally)
			tally = append(tally, GenreCount{Genre: book.Genre, Count: 1})

			continue
		}

		tally[idx].Count++
	}

	return tally, nil
}

// dominantGenre picks the highest count; on a tie the genre seen first wins.
func dominantGenre(tally []GenreCount) (library.GenreString, bool) {
	winner := ""
	winnerCount := 0

	for _, entry := range tally {
		if entry.Count > winnerCount {
			winner = entry.Genre
			winnerCount = entry.Count
		}
	}

	return winner, winnerCount > 0
}

func (a *Analyzer) log(msg string, args ...any) {
	if a.logger == nil {
		return
	}

	a.logger.Debug(msg, args...)
}
