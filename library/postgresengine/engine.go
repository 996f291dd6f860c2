package postgresengine

import (
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/caxton-systems/library-catalog-go/library"
	"github.com/caxton-systems/library-catalog-go/library/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName    = "books"
	defaultUsersTableName    = "users"
	defaultLedgerTableName   = "borrow_ledger"
	defaultProfilesTableName = "preference_profiles"

	dialectPostgres = "postgres"

	colISBN   = "isbn"
	colTitle  = "title"
	colAuthor = "author"
	colGenre  = "genre"
	colRating = "rating"

	colEmail = "email"
	colName  = "name"

	colRecordID   = "record_id"
	colUserEmail  = "user_email"
	colBorrowedAt = "borrowed_at"
	colReturnedAt = "returned_at"

	colDominantGenre = "dominant_genre"
	colTally         = "tally"
	colTakenAt       = "taken_at"

	castJsonb = "?::jsonb"
)

type sqlQueryString = string

// Engine is the PostgreSQL implementation of the library store contracts.
// A single Engine serves as library.CatalogStore, library.UserStore,
// library.LedgerStore, and library.ProfileStore at once, sharing one
// database adapter and one set of observability hooks.
type Engine struct {
	db                adapters.DBAdapter
	booksTableName    string
	usersTableName    string
	ledgerTableName   string
	profilesTableName string
	logger            library.Logger
	contextualLogger  library.ContextualLogger
	metricsCollector  library.MetricsCollector
	tracingCollector  library.TracingCollector
}

// interface guards
var (
	_ library.CatalogStore = (*Engine)(nil)
	_ library.UserStore    = (*Engine)(nil)
	_ library.LedgerStore  = (*Engine)(nil)
	_ library.ProfileStore = (*Engine)(nil)
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithBooksTableName overrides the table name for the book catalog.
func WithBooksTableName(tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return library.ErrEmptyTableName
		}

		e.booksTableName = tableName

		return nil
	}
}

// WithUsersTableName overrides the table name for registered users.
func WithUsersTableName(tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return library.ErrEmptyTableName
		}

		e.usersTableName = tableName

		return nil
	}
}

// WithLedgerTableName overrides the table name for the borrow ledger.
func WithLedgerTableName(tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return library.ErrEmptyTableName
		}

		e.ledgerTableName = tableName

		return nil
	}
}

// WithProfilesTableName overrides the table name for preference profiles.
func WithProfilesTableName(tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return library.ErrEmptyTableName
		}

		e.profilesTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Engine.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Operation outcomes, row counts, durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger library.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Engine.
// It receives the same messages as the plain logger, with context
// information for automatic trace/span correlation; when both are
// configured, the contextual logger wins.
func WithContextualLogger(logger library.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
// The collector will receive operation durations and database error counts.
func WithMetrics(collector library.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Engine.
// The collector will receive one span per store operation.
func WithTracing(collector library.TracingCollector) Option {
	return func(e *Engine) error {
		e.tracingCollector = collector
		return nil
	}
}

// NewFromPGXPool creates a new Engine using a pgx pool with optional configuration.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewPGXAdapter(db), options...)
}

// NewFromSQLDB creates a new Engine using a sql.DB with optional configuration.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLAdapter(db), options...)
}

// NewFromSQLX creates a new Engine using a sqlx.DB with optional configuration.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Engine, error) {
	if db == nil {
		return nil, library.ErrNilDatabaseConnection
	}

	return newEngine(adapters.NewSQLXAdapter(db), options...)
}

func newEngine(db adapters.DBAdapter, options ...Option) (*Engine, error) {
	engine := &Engine{
		db:                db,
		booksTableName:    defaultBooksTableName,
		usersTableName:    defaultUsersTableName,
		ledgerTableName:   defaultLedgerTableName,
		profilesTableName: defaultProfilesTableName,
	}

	for _, option := range options {
		if err := option(engine); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

// builder returns a goqu dialect builder for Postgres.
func (e *Engine) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}
