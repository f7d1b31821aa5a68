package db

import (
	"context"
	"database/sql"
	_ "embed"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schema string

// Connection opens and pings a postgres database.
func Connection(ctx context.Context, connectionString string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", connectionString)
	if nil != err {
		return nil, errors.Wrap(err, "unable to establish connection to database")
	}
	if err := conn.PingContext(ctx); nil != err {
		conn.Close()
		return nil, errors.Wrap(err, "unable to ping database")
	}
	return conn, nil
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, schema); nil != err {
		return errors.Wrap(err, "unable to apply schema")
	}
	return nil
}
