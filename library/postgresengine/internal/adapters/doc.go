// Package adapters provides database adapter implementations for the
// PostgreSQL store engine.
//
// It implements the adapter pattern to support multiple PostgreSQL database
// libraries: pgxpool.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, so the
// engine can work with any supported connection type while staying unaware
// of the specifics of each library.
package adapters
