// Package sqlite stores docstore documents in a SQLite file.
//
// Each document is one row holding its JSON body. Filtering and ordering run
// in Go with the same rules as the memory backend, so both answer queries
// identically.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/logging"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	body       TEXT NOT NULL,
	version    INTEGER NOT NULL,
	PRIMARY KEY (collection, id)
);

INSERT OR IGNORE INTO meta (key, value) VALUES ('schema', 1);
INSERT OR IGNORE INTO meta (key, value) VALUES ('version', 0);
`

type DB struct {
	db   *sql.DB
	feed *docstore.Feed
	log  *logrus.Entry
}

var _ docstore.DB = (*DB)(nil)

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Storage("open", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Storage("open", err)
	}
	// one connection keeps writers from racing for the file lock and lets
	// ":memory:" behave as a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Storage("create schema", err)
	}
	var ver int
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema'`).Scan(&ver); err != nil {
		_ = db.Close()
		return nil, errors.Storage("check schema version", err)
	}
	if ver != schemaVersion {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeStorage, fmt.Sprintf("unsupported schema version %d", ver)).
			WithDetail("path", path)
	}

	log := logging.NewLogger("docstore").WithField("db", path)
	log.Debug("opened sqlite docstore")
	return &DB{
		db:   db,
		feed: docstore.NewFeed(path),
		log:  log,
	}, nil
}

func (d *DB) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	var (
		body    string
		version int64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT body, version FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&body, &version)
	if err == sql.ErrNoRows {
		return docstore.Document{}, errors.NotFound(collection, id)
	}
	if err != nil {
		return docstore.Document{}, errors.Storage("get", err)
	}
	return decode(id, body, version)
}

func (d *DB) Query(ctx context.Context, q docstore.Query) (docstore.Snapshot, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return docstore.Snapshot{}, errors.Storage("query", err)
	}
	defer tx.Rollback() //nolint:errcheck // nothing to commit

	current, err := readVersion(ctx, tx)
	if err != nil {
		return docstore.Snapshot{}, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id, body, version FROM documents WHERE collection = ?`, q.Collection)
	if err != nil {
		return docstore.Snapshot{}, errors.Storage("query", err)
	}
	defer rows.Close()

	var docs []docstore.Document
	for rows.Next() {
		var (
			id, body string
			version  int64
		)
		if err := rows.Scan(&id, &body, &version); err != nil {
			return docstore.Snapshot{}, errors.Storage("scan", err)
		}
		doc, err := decode(id, body, version)
		if err != nil {
			return docstore.Snapshot{}, err
		}
		if q.Match(doc) {
			docs = append(docs, doc)
		}
	}
	if err := rows.Err(); err != nil {
		return docstore.Snapshot{}, errors.Storage("query", err)
	}
	q.Sort(docs)
	return docstore.Snapshot{Docs: docs, Version: current}, nil
}

func (d *DB) Apply(ctx context.Context, writes ...docstore.Write) (docstore.Version, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Storage("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is a no-op after commit

	if len(writes) == 0 {
		return 0, errors.InvalidInput("writes", "nothing to write")
	}
	current, err := readVersion(ctx, tx)
	if err != nil {
		return 0, err
	}
	next := current + 1

	touched := make([]string, 0, len(writes))
	for _, w := range writes {
		if w.Collection == "" {
			return 0, errors.InvalidInput("collection", "collection is required")
		}
		if w.Doc.ID == "" {
			return 0, errors.InvalidInput("id", "document id is required")
		}
		var stored int64
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM documents WHERE collection = ? AND id = ?`,
			w.Collection, w.Doc.ID,
		).Scan(&stored)
		exists := err == nil
		if err != nil && err != sql.ErrNoRows {
			return 0, errors.Storage("apply", err)
		}
		if w.Delete && !exists {
			return 0, errors.NotFound(w.Collection, w.Doc.ID)
		}
		if w.IfVersion != 0 && (!exists || docstore.Version(stored) != w.IfVersion) {
			return 0, errors.Conflict(w.Collection, "document changed since it was read").
				WithDetail("id", w.Doc.ID)
		}

		if w.Delete {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM documents WHERE collection = ? AND id = ?`, w.Collection, w.Doc.ID)
		} else {
			var body []byte
			body, err = json.Marshal(w.Doc.Data)
			if err != nil {
				return 0, errors.Encoding(w.Collection, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, body, version) VALUES (?, ?, ?, ?)
				ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body, version = excluded.version
			`, w.Collection, w.Doc.ID, string(body), int64(next))
		}
		if err != nil {
			return 0, errors.Storage("apply", err)
		}
		touched = append(touched, w.Collection)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE meta SET value = ? WHERE key = 'version'`, int64(next)); err != nil {
		return 0, errors.Storage("apply", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Storage("commit", err)
	}

	d.log.WithFields(logrus.Fields{
		"version": next,
		"writes":  len(writes),
	}).Debug("committed")
	d.feed.Notify(touched...)
	return next, nil
}

func (d *DB) Watch(ctx context.Context, q docstore.Query) iter.Seq2[docstore.Snapshot, error] {
	return d.feed.Watch(ctx, q, d.Query)
}

func (d *DB) Close() error {
	d.feed.Close()
	if err := d.db.Close(); err != nil {
		return errors.Storage("close", err)
	}
	return nil
}

func readVersion(ctx context.Context, tx *sql.Tx) (docstore.Version, error) {
	var v int64
	if err := tx.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'version'`).Scan(&v); err != nil {
		return 0, errors.Storage("read version", err)
	}
	return docstore.Version(v), nil
}

func decode(id, body string, version int64) (docstore.Document, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return docstore.Document{}, errors.Encoding("document", err).WithDetail("id", id)
	}
	return docstore.Document{ID: id, Data: data, Version: docstore.Version(version)}, nil
}
