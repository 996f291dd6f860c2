package recommend_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caxton-systems/library-catalog-go/lending"
	"github.com/caxton-systems/library-catalog-go/library"
	"github.com/caxton-systems/library-catalog-go/library/memoryengine"
	"github.com/caxton-systems/library-catalog-go/recommend"
)

const readerEmail = "reader@example.com"

func Test_PreferredGenre_ReturnsMostBorrowedGenre(t *testing.T) {
	fixture := givenFixture(t)
	ctx := t.Context()

	fixture.addBook(t, "isbn-1", "Dune", "Sci-Fi", 5)
	fixture.addBook(t, "isbn-2", "Hyperion", "Sci-Fi", 4)
	fixture.addBook(t, "isbn-3", "Hamlet", "Drama", 5)

	fixture.borrow(t, "isbn-1")
	fixture.borrow(t, "isbn-2")
	fixture.borrow(t, "isbn-3")

	genre, found, err := fixture.analyzer.PreferredGenre(ctx, readerEmail)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, "Sci-Fi", genre)
}

func Test_PreferredGenre_CountsReturnedBorrowsToo(t *testing.T) {
	fixture := givenFixture(t)
	ctx := t.Context()

	fixture.addBook(t, "isbn-1", "Dune", "Sci-Fi", 5)
	fixture.addBook(t, "isbn-2", "Hamlet", "Drama", 5)

	fixture.borrow(t, "isbn-1")
	fixture.borrow(t, "isbn-1")

	matched, err := fixture.ledger.ReturnBook(ctx, readerEmail, "isbn-1")
	require.NoError(t, err)
	require.True(t, matched)

	fixture.borrow(t, "isbn-2")

	genre, found, err := fixture.analyzer.PreferredGenre(ctx, readerEmail)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, "Sci-Fi", genre)
}

func Test_PreferredGenre_NoHistory_ReportsNoPreference(t *testing.T) {
	fixture := givenFixture(t)

	genre, found, err := fixture.analyzer.PreferredGenre(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.False(t, found)
	assert.Empty(t, genre)
}

func Test_PreferredGenre_TieBreaksOnFirstSeenGenre(t *testing.T) {
	fixture := givenFixture(t)

	fixture.addBook(t, "isbn-1", "Hamlet", "Drama", 5)
	fixture.addBook(t, "isbn-2", "Dune", "Sci-Fi", 5)

	// One borrow each; Drama was encountered first in the history.
	fixture.borrow(t, "isbn-1")
	fixture.borrow(t, "isbn-2")

	genre, found, err := fixture.analyzer.PreferredGenre(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, "Drama", genre)
}

func Test_PreferredGenre_SkipsBorrowsOfUncatalogedBooks(t *testing.T) {
	fixture := givenFixture(t)
	ctx := t.Context()

	fixture.addBook(t, "isbn-1", "Hamlet", "Drama", 5)

	fixture.borrow(t, "isbn-1")
	fixture.borrow(t, "isbn-gone")
	fixture.borrow(t, "isbn-gone")

	genre, found, err := fixture.analyzer.PreferredGenre(ctx, readerEmail)
	require.NoError(t, err)

	assert.True(t, found)
	assert.Equal(t, "Drama", genre)

	// The unresolvable borrows still show up in the raw history.
	history, err := fixture.ledger.ListHistory(ctx, readerEmail)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func Test_PreferredGenre_OnlyUnresolvableBorrows_ReportsNoPreference(t *testing.T) {
	fixture := givenFixture(t)

	fixture.borrow(t, "isbn-gone")

	_, found, err := fixture.analyzer.PreferredGenre(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.False(t, found)
}

func Test_Recommend_ReturnsTopRatedBooksOfDominantGenre(t *testing.T) {
	fixture := givenFixture(t)

	bookA := fixture.addBook(t, "isbn-a", "Book A", "X", 5)
	bookB := fixture.addBook(t, "isbn-b", "Book B", "X", 3)
	fixture.addBook(t, "isbn-c", "Book C", "Y", 9)

	fixture.borrow(t, "isbn-a")

	matched, err := fixture.ledger.ReturnBook(t.Context(), readerEmail, "isbn-a")
	require.NoError(t, err)
	require.True(t, matched)

	books, err := fixture.engine.Recommend(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.Equal(t, library.Books{bookA, bookB}, books)
}

func Test_Recommend_CapsGenreListAtThree(t *testing.T) {
	fixture := givenFixture(t)

	fixture.addBook(t, "isbn-1", "Book 1", "Sci-Fi", 5)
	fixture.addBook(t, "isbn-2", "Book 2", "Sci-Fi", 4)
	fixture.addBook(t, "isbn-3", "Book 3", "Sci-Fi", 3)
	fixture.addBook(t, "isbn-4", "Book 4", "Sci-Fi", 2)

	fixture.borrow(t, "isbn-4")

	books, err := fixture.engine.Recommend(t.Context(), readerEmail)
	require.NoError(t, err)

	require.Len(t, books, 3)
	assert.Equal(t, "isbn-1", books[0].ISBN)
	assert.Equal(t, "isbn-2", books[1].ISBN)
	assert.Equal(t, "isbn-3", books[2].ISBN)
}

func Test_Recommend_NoHistory_FallsBackToGlobalTopFive(t *testing.T) {
	fixture := givenFixture(t)

	bookD := fixture.addBook(t, "isbn-d", "Book D", "X", 10)
	bookE := fixture.addBook(t, "isbn-e", "Book E", "Y", 1)

	books, err := fixture.engine.Recommend(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.Equal(t, library.Books{bookD, bookE}, books)
}

func Test_Recommend_FallbackCapsAtFive(t *testing.T) {
	fixture := givenFixture(t)

	for idx, isbn := range []string{"isbn-1", "isbn-2", "isbn-3", "isbn-4", "isbn-5", "isbn-6"} {
		fixture.addBook(t, isbn, "Book", "X", 10-idx)
	}

	books, err := fixture.engine.Recommend(t.Context(), readerEmail)
	require.NoError(t, err)

	require.Len(t, books, 5)
	assert.Equal(t, "isbn-1", books[0].ISBN)
	assert.Equal(t, "isbn-5", books[4].ISBN)
}

func Test_Recommend_FallsBackWhenGenreQueryComesBackEmpty(t *testing.T) {
	fixture := givenFixture(t)
	ctx := t.Context()

	fixture.addBook(t, "isbn-1", "Dune", "Sci-Fi", 5)
	bookY := fixture.addBook(t, "isbn-2", "Book", "Y", 9)
	fixture.borrow(t, "isbn-1")

	// A catalog that resolves lookups but has no ranked result for any
	// genre query, as if every Sci-Fi book vanished between the tally and
	// the recommendation query.
	engine, err := recommend.NewEngine(fixture.analyzer, genreBlindCatalog{inner: fixture.store})
	require.NoError(t, err)

	books, err := engine.Recommend(ctx, readerEmail)
	require.NoError(t, err)

	assert.Equal(t, library.Books{bookY, fixture.mustFind(t, "isbn-1")}, books)
}

func Test_Recommend_PropagatesStoreFailures(t *testing.T) {
	fixture := givenFixture(t)

	fixture.addBook(t, "isbn-1", "Dune", "Sci-Fi", 5)
	fixture.borrow(t, "isbn-1")

	engine, err := recommend.NewEngine(fixture.analyzer, failingCatalog{})
	require.NoError(t, err)

	_, err = engine.Recommend(t.Context(), readerEmail)

	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
}

func Test_SnapshotPreferences_PersistsTallyInFirstSeenOrder(t *testing.T) {
	fixture := givenFixture(t)
	ctx := t.Context()

	fixture.addBook(t, "isbn-1", "Hamlet", "Drama", 5)
	fixture.addBook(t, "isbn-2", "Dune", "Sci-Fi", 5)

	fixture.borrow(t, "isbn-1")
	fixture.borrow(t, "isbn-2")
	fixture.borrow(t, "isbn-2")

	profile, err := fixture.analyzer.SnapshotPreferences(ctx, readerEmail)
	require.NoError(t, err)

	assert.Equal(t, readerEmail, profile.UserEmail)
	assert.Equal(t, "Sci-Fi", profile.DominantGenre)
	assert.JSONEq(t,
		`[{"genre":"Drama","count":1},{"genre":"Sci-Fi","count":2}]`,
		string(profile.TallyJSON),
	)

	loaded, found, err := fixture.store.LoadProfile(ctx, readerEmail)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile.DominantGenre, loaded.DominantGenre)
}

func Test_SnapshotPreferences_EmptyHistory_PersistsEmptyTally(t *testing.T) {
	fixture := givenFixture(t)

	profile, err := fixture.analyzer.SnapshotPreferences(t.Context(), readerEmail)
	require.NoError(t, err)

	assert.Empty(t, profile.DominantGenre)

	var tally []recommend.GenreCount
	require.NoError(t, json.Unmarshal(profile.TallyJSON, &tally))
	assert.Empty(t, tally)
}

func Test_SnapshotPreferences_WithoutProfileStore_Fails(t *testing.T) {
	fixture := givenFixture(t)

	analyzer, err := recommend.NewAnalyzer(fixture.ledger, fixture.store)
	require.NoError(t, err)

	_, err = analyzer.SnapshotPreferences(t.Context(), readerEmail)

	assert.ErrorIs(t, err, library.ErrNilStore)
}

/***** Fixture *****/

type fixture struct {
	store    *memoryengine.Engine
	ledger   *lending.Ledger
	analyzer *recommend.Analyzer
	engine   *recommend.Engine
	now      time.Time
}

func givenFixture(t *testing.T) *fixture {
	t.Helper()

	store := memoryengine.NewEngine()

	user, err := library.BuildUser(readerEmail, "Pat Reader")
	require.NoError(t, err)
	require.NoError(t, store.InsertUser(t.Context(), user))

	f := &fixture{
		store: store,
		now:   time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
	}

	f.ledger, err = lending.NewLedger(store, store, lending.WithClock(f.tick))
	require.NoError(t, err)

	f.analyzer, err = recommend.NewAnalyzer(
		f.ledger,
		store,
		recommend.WithProfileStore(store),
		recommend.WithAnalyzerClock(f.tick),
	)
	require.NoError(t, err)

	f.engine, err = recommend.NewEngine(f.analyzer, store)
	require.NoError(t, err)

	return f
}

// tick advances one minute per call so borrow order equals timestamp order.
func (f *fixture) tick() time.Time {
	f.now = f.now.Add(time.Minute)

	return f.now
}

func (f *fixture) addBook(t *testing.T, isbn, title, genre string, rating int) library.Book {
	t.Helper()

	book, err := library.BuildBook(isbn, title, "some author", genre)
	require.NoError(t, err)
	book.Rating = rating

	require.NoError(t, f.store.InsertBook(t.Context(), book))

	return book
}

func (f *fixture) borrow(t *testing.T, isbn library.ISBNString) {
	t.Helper()

	_, err := f.ledger.RecordBorrow(t.Context(), readerEmail, isbn)
	require.NoError(t, err)
}

func (f *fixture) mustFind(t *testing.T, isbn library.ISBNString) library.Book {
	t.Helper()

	book, found, err := f.store.FindByISBN(t.Context(), isbn)
	require.NoError(t, err)
	require.True(t, found)

	return book
}

// genreBlindCatalog delegates to its inner catalog but reports every
// genre-filtered ranking as empty.
type genreBlindCatalog struct {
	inner *memoryengine.Engine
}

func (c genreBlindCatalog) InsertBook(ctx context.Context, book library.Book) error {
	return c.inner.InsertBook(ctx, book)
}

func (c genreBlindCatalog) FindByISBN(ctx context.Context, isbn library.ISBNString) (library.Book, bool, error) {
	return c.inner.FindByISBN(ctx, isbn)
}

func (c genreBlindCatalog) UpdateRating(ctx context.Context, isbn library.ISBNString, rating int) (bool, error) {
	return c.inner.UpdateRating(ctx, isbn, rating)
}

func (c genreBlindCatalog) FindTopByRating(ctx context.Context, filter library.BookFilter, limit int) (library.Books, error) {
	if len(filter.Genres()) > 0 {
		return library.Books{}, nil
	}

	return c.inner.FindTopByRating(ctx, filter, limit)
}

type failingCatalog struct{}

func (failingCatalog) InsertBook(context.Context, library.Book) error {
	return library.ErrStoreUnavailable
}

func (failingCatalog) FindByISBN(context.Context, library.ISBNString) (library.Book, bool, error) {
	return library.Book{}, false, library.ErrStoreUnavailable
}

func (failingCatalog) UpdateRating(context.Context, library.ISBNString, int) (bool, error) {
	return false, library.ErrStoreUnavailable
}

func (failingCatalog) FindTopByRating(context.Context, library.BookFilter, int) (library.Books, error) {
	return nil, library.ErrStoreUnavailable
}
