// Package docstore is a small document database: schemaless JSON documents in
// named collections, filtered queries, atomic multi-document writes and
// snapshot change feeds.
//
// Every committed write advances a database-wide Version. Writes return it and
// every Snapshot carries the version it was read at, so a consumer that just
// wrote can tell whether a snapshot already includes its own change by
// comparing versions.
package docstore

import (
	"context"
	"iter"
)

// Version orders committed writes. Zero means "never written".
type Version uint64

type Document struct {
	ID      string
	Data    map[string]any
	Version Version
}

// Snapshot is the result of a query at a point in time.
type Snapshot struct {
	Docs    []Document
	Version Version
}

// Write is one document change inside Apply.
type Write struct {
	Collection string
	Doc        Document
	Delete     bool

	// IfVersion, when set, makes the write fail with a conflict unless the
	// stored document is still at that version.
	IfVersion Version
}

// DB is implemented by every backend.
type DB interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, q Query) (Snapshot, error)
	// Apply commits all writes or none of them and returns the new version.
	Apply(ctx context.Context, writes ...Write) (Version, error)
	// Watch yields the current result of q and then a new snapshot after each
	// commit that changes it, until ctx is done or the consumer stops. A
	// failing query ends the feed after yielding the error.
	Watch(ctx context.Context, q Query) iter.Seq2[Snapshot, error]
	Close() error
}

func Put(ctx context.Context, db DB, collection string, doc Document) (Version, error) {
	return db.Apply(ctx, Write{Collection: collection, Doc: doc})
}

func Delete(ctx context.Context, db DB, collection, id string) (Version, error) {
	return db.Apply(ctx, Write{Collection: collection, Doc: Document{ID: id}, Delete: true})
}
