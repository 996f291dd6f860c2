package memoryengine_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caxton-systems/library-catalog-go/library"
	"github.com/caxton-systems/library-catalog-go/library/memoryengine"
)

func Test_Catalog_InsertAndFindByISBN(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	book, buildErr := library.BuildBook("978-0-441-17271-9", "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, buildErr)

	require.NoError(t, engine.InsertBook(ctx, book))

	found, ok, err := engine.FindByISBN(ctx, book.ISBN)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, book, found)

	_, ok, err = engine.FindByISBN(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Catalog_UpdateRating(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	book, _ := library.BuildBook("isbn-1", "Dune", "Frank Herbert", "Sci-Fi")
	require.NoError(t, engine.InsertBook(ctx, book))

	matched, err := engine.UpdateRating(ctx, "isbn-1", 5)
	require.NoError(t, err)
	assert.True(t, matched)

	updated, _, _ := engine.FindByISBN(ctx, "isbn-1")
	assert.Equal(t, 5, updated.Rating)

	matched, err = engine.UpdateRating(ctx, "unknown", 5)
	require.NoError(t, err)
	assert.False(t, matched)

	_, err = engine.UpdateRating(ctx, "isbn-1", -1)
	assert.ErrorIs(t, err, library.ErrNegativeRating)
}

func Test_Catalog_FindTopByRating_OrdersDeterministically(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	seedBook(t, engine, "isbn-b", "Hyperion", "Sci-Fi", 5)
	seedBook(t, engine, "isbn-a", "Dune", "Sci-Fi", 5)
	seedBook(t, engine, "isbn-c", "Neuromancer", "Sci-Fi", 4)
	seedBook(t, engine, "isbn-d", "Mistborn", "Fantasy", 5)

	filter := library.BuildBookFilter().Matching().AnyGenreOf("Sci-Fi").Finalize()

	books, err := engine.FindTopByRating(ctx, filter, 3)
	require.NoError(t, err)
	require.Len(t, books, 3)

	// Equal ratings break ties on ISBN ascending.
	assert.Equal(t, "isbn-a", books[0].ISBN)
	assert.Equal(t, "isbn-b", books[1].ISBN)
	assert.Equal(t, "isbn-c", books[2].ISBN)
}

func Test_Catalog_FindTopByRating_AppliesAllCriteria(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	seedBook(t, engine, "isbn-a", "Dune", "Sci-Fi", 5)
	seedBook(t, engine, "isbn-b", "Dune Messiah", "Sci-Fi", 2)
	seedBook(t, engine, "isbn-c", "Hyperion", "Sci-Fi", 5)

	filter := library.BuildBookFilter().
		Matching().
		AnyGenreOf("Sci-Fi").
		AndTitleContaining("dune").
		AndRatingAtLeast(3).
		Finalize()

	books, err := engine.FindTopByRating(ctx, filter, 10)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "isbn-a", books[0].ISBN)
}

func Test_Catalog_FindTopByRating_NonpositiveLimit(t *testing.T) {
	engine := memoryengine.NewEngine()

	seedBook(t, engine, "isbn-a", "Dune", "Sci-Fi", 5)

	books, err := engine.FindTopByRating(t.Context(), library.BuildBookFilter().MatchingAnyBook(), 0)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_Users_InsertAndFindByEmail(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	user, buildErr := library.BuildUser("reader@example.com", "Pat Reader")
	require.NoError(t, buildErr)

	require.NoError(t, engine.InsertUser(ctx, user))

	found, ok, err := engine.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user, found)

	_, ok, err = engine.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Ledger_FindRecords_OrdersByBorrowTimestampThenRecordID(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	later := seedRecord(t, engine, "reader@example.com", "isbn-1", base.Add(time.Hour))
	earlier := seedRecord(t, engine, "reader@example.com", "isbn-2", base)
	seedRecord(t, engine, "other@example.com", "isbn-1", base)

	records, err := engine.FindRecords(ctx, "reader@example.com", false)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, earlier.RecordID, records[0].RecordID)
	assert.Equal(t, later.RecordID, records[1].RecordID)
}

func Test_Ledger_MarkReturned_PicksOldestOutstandingLoan(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	first := seedRecord(t, engine, "reader@example.com", "isbn-1", base)
	second := seedRecord(t, engine, "reader@example.com", "isbn-1", base.Add(time.Hour))

	matched, err := engine.MarkReturned(ctx, "reader@example.com", "isbn-1", base.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, matched)

	records, err := engine.FindRecords(ctx, "reader@example.com", false)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := recordsByID(records)
	assert.False(t, byID[first.RecordID].Outstanding())
	assert.True(t, byID[second.RecordID].Outstanding())
}

func Test_Ledger_MarkReturned_IsAtMostOnceEffective(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	seedRecord(t, engine, "reader@example.com", "isbn-1", time.Now())

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		matchedCount int
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			matched, err := engine.MarkReturned(ctx, "reader@example.com", "isbn-1", time.Now())
			assert.NoError(t, err)

			if matched {
				mu.Lock()
				matchedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, matchedCount)
}

func Test_Ledger_MarkReturned_UnmatchedIsNotAnError(t *testing.T) {
	engine := memoryengine.NewEngine()

	matched, err := engine.MarkReturned(t.Context(), "reader@example.com", "isbn-1", time.Now())

	require.NoError(t, err)
	assert.False(t, matched)
}

func Test_Ledger_FindRecords_OnlyOutstanding(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	seedRecord(t, engine, "reader@example.com", "isbn-1", base)
	seedRecord(t, engine, "reader@example.com", "isbn-2", base.Add(time.Hour))

	matched, err := engine.MarkReturned(ctx, "reader@example.com", "isbn-1", base.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, matched)

	outstanding, err := engine.FindRecords(ctx, "reader@example.com", true)
	require.NoError(t, err)
	require.Len(t, outstanding, 1)
	assert.Equal(t, "isbn-2", outstanding[0].ISBN)
}

func Test_Profiles_SaveLoadDelete(t *testing.T) {
	engine := memoryengine.NewEngine()
	ctx := t.Context()

	profile, buildErr := library.BuildPreferenceProfile(
		"reader@example.com",
		"Sci-Fi",
		json.RawMessage(`{"Sci-Fi":3}`),
		time.Now(),
	)
	require.NoError(t, buildErr)

	require.NoError(t, engine.SaveProfile(ctx, profile))

	loaded, found, err := engine.LoadProfile(ctx, "reader@example.com")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile.DominantGenre, loaded.DominantGenre)
	assert.JSONEq(t, string(profile.TallyJSON), string(loaded.TallyJSON))

	require.NoError(t, engine.DeleteProfile(ctx, "reader@example.com"))

	_, found, err = engine.LoadProfile(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting an absent profile stays a no-op.
	assert.NoError(t, engine.DeleteProfile(ctx, "reader@example.com"))
}

/***** Helpers *****/

func seedBook(t *testing.T, engine *memoryengine.Engine, isbn, title, genre string, rating int) {
	t.Helper()

	book, err := library.BuildBook(isbn, title, "some author", genre)
	require.NoError(t, err)
	book.Rating = rating

	require.NoError(t, engine.InsertBook(t.Context(), book))
}

func seedRecord(
	t *testing.T,
	engine *memoryengine.Engine,
	email library.EmailString,
	isbn library.ISBNString,
	borrowedAt time.Time,
) library.BorrowRecord {

	t.Helper()

	record, err := library.BuildBorrowRecord(email, isbn, borrowedAt)
	require.NoError(t, err)
	require.NoError(t, engine.AppendBorrow(t.Context(), record))

	return record
}

func recordsByID(records library.BorrowRecords) map[string]library.BorrowRecord {
	byID := make(map[string]library.BorrowRecord, len(records))

	for _, record := range records {
		byID[record.RecordID] = record
	}

	return byID
}
