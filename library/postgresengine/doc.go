// Package postgresengine provides the PostgreSQL implementation of the
// library store contracts.
//
// One Engine implements all four store interfaces (catalog, users, borrow
// ledger, preference profiles), supporting multiple database adapters
// (pgx, sql.DB, sqlx) behind a common internal interface. SQL is built
// with goqu and executed with values inlined, so the adapters only need
// plain query/exec entry points.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX)
//   - Compare-and-set return updates, safe under concurrent callers
//   - Ranked catalog queries from a generic BookFilter
//   - Configurable table names and pluggable observability
//
// Usage example:
//
//	pool, _ := pgxpool.New(context.Background(), dsn)
//	engine, _ := postgresengine.NewFromPGXPool(
//		pool,
//		postgresengine.WithLogger(logger),
//	)
//
//	books, err := engine.FindTopByRating(ctx, filter, 5)
//
// Expected schema (default table names):
//
//	CREATE TABLE books (
//	    isbn   TEXT PRIMARY KEY,
//	    title  TEXT NOT NULL,
//	    author TEXT NOT NULL,
//	    genre  TEXT NOT NULL,
//	    rating INTEGER NOT NULL DEFAULT 0
//	);
//
//	CREATE TABLE users (
//	    email TEXT PRIMARY KEY,
//	    name  TEXT NOT NULL
//	);
//
//	CREATE TABLE borrow_ledger (
//	    record_id   TEXT PRIMARY KEY,
//	    user_email  TEXT NOT NULL,
//	    isbn        TEXT NOT NULL,
//	    borrowed_at TIMESTAMPTZ NOT NULL,
//	    returned_at TIMESTAMPTZ
//	);
//	CREATE INDEX borrow_ledger_user_idx ON borrow_ledger (user_email, isbn) WHERE returned_at IS NULL;
//
//	CREATE TABLE preference_profiles (
//	    user_email     TEXT PRIMARY KEY,
//	    dominant_genre TEXT NOT NULL DEFAULT '',
//	    tally          JSONB NOT NULL,
//	    taken_at       TIMESTAMPTZ NOT NULL
//	);
package postgresengine
