// Package config builds configured database handles for the example
// applications: a pgx pool, a database/sql handle, and an sqlx handle,
// all pointed at the same Postgres instance.
//
// The DSN comes from the LIBRARY_POSTGRES_DSN environment variable, with
// a localhost default suitable for the docker-compose setup.
package config
