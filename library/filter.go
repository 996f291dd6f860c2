package library

import (
	"slices"
	"strings"
)

/***** BookFilter *****/

// BookFilter carries the criteria for a ranked catalog query. It is built
// with BuildBookFilter and consumed by CatalogStore implementations, which
// translate it into their native query language.
type BookFilter struct {
	genres        []GenreString
	titleContains string
	minRating     int
	hasMinRating  bool
}

// Genres returns the exact genre labels to match, any of which qualifies a book.
func (f BookFilter) Genres() []GenreString {
	return f.genres
}

// TitleContains returns the case-insensitive title substring to match,
// or "" when no title criterion is set.
func (f BookFilter) TitleContains() string {
	return f.titleContains
}

// MinRating returns the minimum rating criterion and whether one is set.
func (f BookFilter) MinRating() (int, bool) {
	return f.minRating, f.hasMinRating
}

// IsEmpty reports whether the filter has no criteria at all,
// i.e. it matches every book in the catalog.
func (f BookFilter) IsEmpty() bool {
	return len(f.genres) == 0 && f.titleContains == "" && !f.hasMinRating
}

/***** BookFilterBuilder *****/

// BookFilterBuilder builds a generic book filter to be used in store-specific
// catalog implementations to build queries for the specific query language,
// e.g.: Postgres, MongoDB, in-memory scan, ...
// It is designed with the idea to only allow "useful" filter combinations
// for catalog queries:
//
//   - empty filter (global popularity)
//   - (genre OR genre...)
//   - (title substring)
//   - (minimum rating)
//   - any AND-combination of the above
type BookFilterBuilder interface {
	// Matching starts criteria collection.
	Matching() EmptyBookFilterBuilder

	// MatchingAnyBook directly creates an empty BookFilter.
	MatchingAnyBook() BookFilter
}

type EmptyBookFilterBuilder interface {
	// AnyGenreOf adds one or multiple genres, any of which qualifies a book.
	//
	// It sanitizes the input:
	//	- removing empty genres ("")
	//	- sorting the genres
	//	- removing duplicate genres
	AnyGenreOf(genre GenreString, genres ...GenreString) CompletableBookFilterBuilder

	// TitleContaining adds a case-insensitive title substring criterion.
	TitleContaining(substring string) CompletableBookFilterBuilder

	// RatingAtLeast adds a minimum rating criterion.
	RatingAtLeast(rating int) CompletableBookFilterBuilder
}

type CompletableBookFilterBuilder interface {
	// AndAnyGenreOf adds one or multiple genres, any of which qualifies a book.
	//
	// It sanitizes the input:
	//	- removing empty genres ("")
	//	- sorting the genres
	//	- removing duplicate genres
	AndAnyGenreOf(genre GenreString, genres ...GenreString) CompletableBookFilterBuilder

	// AndTitleContaining adds a case-insensitive title substring criterion.
	AndTitleContaining(substring string) CompletableBookFilterBuilder

	// AndRatingAtLeast adds a minimum rating criterion.
	AndRatingAtLeast(rating int) CompletableBookFilterBuilder

	// Finalize returns the BookFilter once at least one criterion was added.
	Finalize() BookFilter
}

// bookFilterBuilder implements all the interfaces of BookFilterBuilder.
type bookFilterBuilder struct {
	filter BookFilter
}

// BuildBookFilter creates a BookFilterBuilder which must eventually be
// finalized with Finalize() or MatchingAnyBook().
func BuildBookFilter() BookFilterBuilder {
	return bookFilterBuilder{}
}

// Matching starts criteria collection.
func (fb bookFilterBuilder) Matching() EmptyBookFilterBuilder {
	return fb
}

// MatchingAnyBook directly creates an empty BookFilter.
func (fb bookFilterBuilder) MatchingAnyBook() BookFilter {
	return fb.filter
}

// AnyGenreOf adds one or multiple genres, any of which qualifies a book.
//
// It sanitizes the input:
//   - removing empty genres ("")
//   - sorting the genres
//   - removing duplicate genres
func (fb bookFilterBuilder) AnyGenreOf(
	genre GenreString,
	genres ...GenreString,
) CompletableBookFilterBuilder {

	fb.filter.genres = append(
		fb.filter.genres,
		fb.sanitizeGenres(genre, genres...)...,
	)

	return fb
}

// AndAnyGenreOf adds one or multiple genres, any of which qualifies a book.
//
// It sanitizes the input:
//   - removing empty genres ("")
//   - sorting the genres
//   - removing duplicate genres
func (fb bookFilterBuilder) AndAnyGenreOf(
	genre GenreString,
	genres ...GenreString,
) CompletableBookFilterBuilder {

	return fb.AnyGenreOf(genre, genres...)
}

func (fb bookFilterBuilder) sanitizeGenres(
	genre GenreString,
	genres ...GenreString,
) []GenreString {

	allGenres := append([]GenreString{genre}, genres...)
	allGenres = slices.DeleteFunc(
		allGenres,
		func(g GenreString) bool {
			return g == ""
		})
	slices.Sort(allGenres)
	allGenres = slices.Compact(allGenres)
	allGenres = slices.Clip(allGenres)

	return allGenres
}

// TitleContaining adds a case-insensitive title substring criterion.
// Leading and trailing whitespace is trimmed; an all-whitespace substring
// leaves the filter unchanged.
func (fb bookFilterBuilder) TitleContaining(substring string) CompletableBookFilterBuilder {
	fb.filter.titleContains = strings.TrimSpace(substring)

	return fb
}

// AndTitleContaining adds a case-insensitive title substring criterion.
func (fb bookFilterBuilder) AndTitleContaining(substring string) CompletableBookFilterBuilder {
	return fb.TitleContaining(substring)
}

// RatingAtLeast adds a minimum rating criterion. Negative minimums are
// clamped to zero, matching the catalog's rating floor.
func (fb bookFilterBuilder) RatingAtLeast(rating int) CompletableBookFilterBuilder {
	fb.filter.minRating = max(rating, 0)
	fb.filter.hasMinRating = true

	return fb
}

// AndRatingAtLeast adds a minimum rating criterion.
func (fb bookFilterBuilder) AndRatingAtLeast(rating int) CompletableBookFilterBuilder {
	return fb.RatingAtLeast(rating)
}

// Finalize returns the BookFilter once at least one criterion was added.
func (fb bookFilterBuilder) Finalize() BookFilter {
	return fb.filter
}
