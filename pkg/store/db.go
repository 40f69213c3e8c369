package store

import (
	"context"
	"database/sql"
	"strings"

	"zgo.at/errors"
	"zgo.at/zdb"
	_ "zgo.at/zdb/drivers/go-sqlite3" // SQLite driver for zdb.
)

const schema = `create table if not exists storage (
	key    varchar primary key,
	value  varchar not null
)`

// DB stores everything in a SQLite database.
type DB struct {
	db zdb.DB
}

// NewDB connects to the database and creates the table if it doesn't exist
// yet; conn is "sqlite+path/to/file.sqlite3".
func NewDB(ctx context.Context, conn string) (*DB, error) {
	if strings.HasPrefix(conn, "sqlite+") {
		conn = "sqlite3+" + conn[7:]
	}
	db, err := zdb.Connect(ctx, zdb.ConnectOptions{
		Connect: conn,
		Create:  true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "store.NewDB")
	}
	err = db.Exec(ctx, schema)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store.NewDB")
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.db.Get(ctx, &v, `select value from storage where key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "store.DB.Get")
	}
	return v, true, nil
}

func (d *DB) Set(ctx context.Context, key, value string) error {
	err := d.db.Exec(ctx, `insert into storage (key, value) values (?, ?)
		on conflict (key) do update set value = excluded.value`, key, value)
	return errors.Wrap(err, "store.DB.Set")
}

func (d *DB) Delete(ctx context.Context, key string) error {
	err := d.db.Exec(ctx, `delete from storage where key = ?`, key)
	return errors.Wrap(err, "store.DB.Delete")
}

func (d *DB) Keys(ctx context.Context) ([]string, error) {
	var k []string
	err := d.db.Select(ctx, &k, `select key from storage order by key`)
	return k, errors.Wrap(err, "store.DB.Keys")
}
