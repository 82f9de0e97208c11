package todo

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/google/uuid"
)

// guardAttempts bounds how often a write guarded by its list is retried
// when the list moves underneath it.
const guardAttempts = 3

// ListRepo handles lists and their membership.
type ListRepo struct {
	db  docstore.DB
	now func() time.Time
}

func NewListRepo(db docstore.DB) *ListRepo {
	return &ListRepo{db: db, now: time.Now}
}

func listsOf(userID string) docstore.Query {
	return docstore.Collection(ListsCollection).
		Where(docstore.Contains("members", userID)).
		Order("name", false)
}

// Lists returns the lists userID is a member of, by name.
func (r *ListRepo) Lists(ctx context.Context, userID string) (Page[List], error) {
	snap, err := r.db.Query(ctx, listsOf(userID))
	if err != nil {
		return Page[List]{}, err
	}
	return pageOf("list", snap, setList)
}

func (r *ListRepo) WatchLists(ctx context.Context, userID string) iter.Seq2[Page[List], error] {
	return watchPages(ctx, r.db, listsOf(userID), "list", setList)
}

// Get returns a list userID is a member of.
func (r *ListRepo) Get(ctx context.Context, userID, listID string) (List, error) {
	doc, err := r.db.Get(ctx, ListsCollection, listID)
	if err != nil {
		return List{}, err
	}
	l, err := fromDoc("list", doc, setList)
	if err != nil {
		return List{}, err
	}
	if !slices.Contains(l.Members, userID) {
		return List{}, errors.PermissionDenied(userID, "list", listID)
	}
	return l, nil
}

func (r *ListRepo) Create(ctx context.Context, userID, name string) (Ack, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return Ack{}, err
	}
	l := List{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   userID,
		Members:   []string{userID},
		CreatedAt: r.now().UTC(),
	}
	doc, err := toDoc("list", l.ID, l)
	if err != nil {
		return Ack{}, err
	}
	v, err := docstore.Put(ctx, r.db, ListsCollection, doc)
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: l.ID, Version: v}, nil
}

func (r *ListRepo) Rename(ctx context.Context, userID, listID, name string) (Ack, error) {
	name, err := cleanName("name", name)
	if err != nil {
		return Ack{}, err
	}
	l, err := r.Get(ctx, userID, listID)
	if err != nil {
		return Ack{}, err
	}
	l.Name = name
	doc, err := toDoc("list", l.ID, l)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx, docstore.Write{Collection: ListsCollection, Doc: doc, IfVersion: l.Version})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: l.ID, Version: v}, nil
}

// Delete removes a list together with its items and open invitations. Only
// the owner may delete; other members leave the list instead.
func (r *ListRepo) Delete(ctx context.Context, userID, listID string) (Ack, error) {
	l, err := r.Get(ctx, userID, listID)
	if err != nil {
		return Ack{}, err
	}
	if l.OwnerID != userID {
		return r.leave(ctx, userID, l)
	}

	// Writes that add to the list rewrite it, so anything created after
	// this read fails the delete with a conflict instead of being orphaned.
	writes := []docstore.Write{{
		Collection: ListsCollection,
		Doc:        docstore.Document{ID: l.ID},
		Delete:     true,
		IfVersion:  l.Version,
	}}
	items, err := r.db.Query(ctx, docstore.Collection(ItemsCollection).Where(docstore.Eq("listId", l.ID)))
	if err != nil {
		return Ack{}, err
	}
	for _, doc := range items.Docs {
		writes = append(writes, docstore.Write{Collection: ItemsCollection, Doc: docstore.Document{ID: doc.ID}, Delete: true})
	}
	invites, err := r.db.Query(ctx, docstore.Collection(InvitationsCollection).Where(
		docstore.Eq("listId", l.ID),
		docstore.Eq("status", string(InvitationPending)),
	))
	if err != nil {
		return Ack{}, err
	}
	for _, doc := range invites.Docs {
		writes = append(writes, docstore.Write{Collection: InvitationsCollection, Doc: docstore.Document{ID: doc.ID}, Delete: true})
	}

	v, err := r.db.Apply(ctx, writes...)
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: l.ID, Version: v}, nil
}

// guard applies the writes build returns for listID together with a rewrite
// of the list at the version it was read. A Delete racing with the writes
// then conflicts instead of leaving them behind. The whole read and write is
// retried while other writers keep moving the list.
func (r *ListRepo) guard(ctx context.Context, userID, listID string, build func(List) ([]docstore.Write, error)) (docstore.Version, error) {
	for attempt := 1; ; attempt++ {
		l, err := r.Get(ctx, userID, listID)
		if err != nil {
			return 0, err
		}
		writes, err := build(l)
		if err != nil {
			return 0, err
		}
		doc, err := toDoc("list", l.ID, l)
		if err != nil {
			return 0, err
		}
		writes = append(writes, docstore.Write{Collection: ListsCollection, Doc: doc, IfVersion: l.Version})
		v, err := r.db.Apply(ctx, writes...)
		if err == nil || attempt == guardAttempts || !errors.Is(err, errors.ErrCodeConflict) {
			return v, err
		}
	}
}

func (r *ListRepo) leave(ctx context.Context, userID string, l List) (Ack, error) {
	l.Members = slices.DeleteFunc(slices.Clone(l.Members), func(m string) bool { return m == userID })
	doc, err := toDoc("list", l.ID, l)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx, docstore.Write{Collection: ListsCollection, Doc: doc, IfVersion: l.Version})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: l.ID, Version: v}, nil
}
