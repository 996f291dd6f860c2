package recommend

import (
	"context"

	"github.com/caxton-systems/library-catalog-go/library"
)

// Recommendation list sizes: a genre match yields a short, focused list
// while the popularity fallback casts a wider net.
const (
	genreRecommendationLimit   = 3
	popularRecommendationLimit = 5
)

const (
	logMsgRecommended = "recommendations computed"

	logAttrCount    = "count"
	logAttrFallback = "popularity_fallback"
)

// Engine turns a user's preferred genre into a concrete recommendation
// list. It should be created with NewEngine.
type Engine struct {
	analyzer *Analyzer
	catalog  library.CatalogStore
	logger   library.Logger
}

// EngineOption is a functional option for NewEngine.
type EngineOption func(*Engine) error

// WithEngineLogger configures operational logging.
func WithEngineLogger(logger library.Logger) EngineOption {
	return func(e *Engine) error {
		e.logger = logger

		return nil
	}
}

// NewEngine wires the recommendation engine with its analyzer and the
// book catalog.
func NewEngine(analyzer *Analyzer, catalog library.CatalogStore, options ...EngineOption) (*Engine, error) {
	if analyzer == nil || catalog == nil {
		return nil, library.ErrNilStore
	}

	engine := &Engine{
		analyzer: analyzer,
		catalog:  catalog,
	}

	for _, option := range options {
		if err := option(engine); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// Recommend computes a recommendation list for the user, recomputed from
// the ledger on every call.
//
// When the user has a dominant genre, it returns the top rated books of
// that genre, at most three. When the user has no dominant genre, or the
// genre query comes back empty (every book of that genre was removed since
// it was borrowed), it falls back to the top five books of the whole
// catalog by rating.
//
// Both paths order by rating descending with ISBN ascending as the
// tie-break, so equal inputs always produce the same list. Store failures
// propagate; they are never converted into an empty recommendation.
func (e *Engine) Recommend(ctx context.Context, userEmail library.EmailString) (library.Books, error) {
	if userEmail == "" {
		return nil, library.ErrEmptyEmail
	}

	genre, found, analyzeErr := e.analyzer.PreferredGenre(ctx, userEmail)
	if analyzeErr != nil {
		return nil, analyzeErr
	}

	if found {
		filter := library.BuildBookFilter().
			Matching().
			AnyGenreOf(genre).
			Finalize()

		books, queryErr := e.catalog.FindTopByRating(ctx, filter, genreRecommendationLimit)
		if queryErr != nil {
			return nil, queryErr
		}

		if len(books) > 0 {
			e.log(userEmail, len(books), false)

			return books, nil
		}
	}

	books, queryErr := e.catalog.FindTopByRating(ctx, library.BuildBookFilter().MatchingAnyBook(), popularRecommendationLimit)
	if queryErr != nil {
		return nil, queryErr
	}

	e.log(userEmail, len(books), true)

	return books, nil
}

func (e *Engine) log(userEmail library.EmailString, count int, fallback bool) {
	if e.logger == nil {
		return
	}

	e.logger.Debug(logMsgRecommended,
		logAttrEmail, userEmail,
		logAttrCount, count,
		logAttrFallback, fallback,
	)
}
