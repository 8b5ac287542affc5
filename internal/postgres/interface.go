package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Make sure that interfaces are compatible with the pgx package
var (
	_ DB = (*pgx.Conn)(nil)
	_ DB = (*pgxpool.Pool)(nil)
)

// Queryable is an interface that can be used to execute queries and commands
type Queryable interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// TxQueryable is an interface that can be used to execute queries and commands within a transaction
type TxQueryable interface {
	Queryable
	Begin(context.Context) (pgx.Tx, error)
}

// DB is an interface that can be used to execute queries and commands, and also to ping the database
type DB interface {
	Queryable
	TxQueryable
	Ping(ctx context.Context) error
}
