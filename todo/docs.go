package todo

import (
	"context"
	"iter"
	"strings"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
)

// fromDoc decodes a document and lets set copy the id and version into it.
func fromDoc[T any](kind string, doc docstore.Document, set func(*T, docstore.Document)) (T, error) {
	var v T
	if err := docstore.Decode(doc.Data, &v); err != nil {
		return v, errors.Encoding(kind, err).WithDetail("id", doc.ID)
	}
	set(&v, doc)
	return v, nil
}

func toDoc(kind, id string, v any) (docstore.Document, error) {
	data, err := docstore.Encode(v)
	if err != nil {
		return docstore.Document{}, errors.Encoding(kind, err).WithDetail("id", id)
	}
	return docstore.Document{ID: id, Data: data}, nil
}

func pageOf[T any](kind string, snap docstore.Snapshot, set func(*T, docstore.Document)) (Page[T], error) {
	rows := make([]T, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		v, err := fromDoc(kind, doc, set)
		if err != nil {
			return Page[T]{}, err
		}
		rows = append(rows, v)
	}
	return Page[T]{Rows: rows, Version: snap.Version}, nil
}

// watchPages converts a snapshot feed into a page feed. A snapshot that fails
// to decode ends the feed with that error.
func watchPages[T any](ctx context.Context, db docstore.DB, q docstore.Query, kind string, set func(*T, docstore.Document)) iter.Seq2[Page[T], error] {
	return func(yield func(Page[T], error) bool) {
		for snap, err := range db.Watch(ctx, q) {
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			page, err := pageOf(kind, snap, set)
			if err != nil {
				yield(Page[T]{}, err)
				return
			}
			if !yield(page, nil) {
				return
			}
		}
	}
}

func failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

func cleanName(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.InvalidInput(field, "Please enter a "+field+".")
	}
	if len(name) > 200 {
		return "", errors.InvalidInput(field, "The "+field+" is too long.")
	}
	return name, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func setList(l *List, doc docstore.Document) { l.ID, l.Version = doc.ID, doc.Version }
func setItem(i *Item, doc docstore.Document) { i.ID, i.Version = doc.ID, doc.Version }
func setInvitation(v *Invitation, doc docstore.Document) {
	v.ID, v.Version = doc.ID, doc.Version
}
func setUser(u *User, doc docstore.Document) { u.ID = doc.ID }
