package db

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"
)

type Db interface {
	InitDb() error

	Get() *sql.DB
	Close() error

	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

var dbLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}
