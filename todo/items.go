package todo

import (
	"context"
	"iter"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/google/uuid"
)

// ItemRepo handles the items of lists. Every call checks that the user is a
// member of the list the item belongs to.
type ItemRepo struct {
	db    docstore.DB
	lists *ListRepo
	now   func() time.Time
}

func NewItemRepo(db docstore.DB, lists *ListRepo) *ItemRepo {
	return &ItemRepo{db: db, lists: lists, now: time.Now}
}

func itemsOf(listID string, f ItemFilter) docstore.Query {
	q := docstore.Collection(ItemsCollection).
		Where(docstore.Eq("listId", listID)).
		Order("position", false)
	if f.HideCompleted {
		q = q.Where(docstore.Eq("done", false))
	}
	return q
}

// Items returns the items of a list in the order they were added.
func (r *ItemRepo) Items(ctx context.Context, userID, listID string, f ItemFilter) (Page[Item], error) {
	if _, err := r.lists.Get(ctx, userID, listID); err != nil {
		return Page[Item]{}, err
	}
	snap, err := r.db.Query(ctx, itemsOf(listID, f))
	if err != nil {
		return Page[Item]{}, err
	}
	return pageOf("item", snap, setItem)
}

func (r *ItemRepo) WatchItems(ctx context.Context, userID, listID string, f ItemFilter) iter.Seq2[Page[Item], error] {
	if _, err := r.lists.Get(ctx, userID, listID); err != nil {
		return failed[Page[Item]](err)
	}
	return watchPages(ctx, r.db, itemsOf(listID, f), "item", setItem)
}

func (r *ItemRepo) Add(ctx context.Context, userID, listID, title string) (Ack, error) {
	title, err := cleanName("title", title)
	if err != nil {
		return Ack{}, err
	}
	now := r.now().UTC()
	it := Item{
		ID:        uuid.NewString(),
		ListID:    listID,
		Title:     title,
		Position:  now.UnixMicro(),
		CreatedBy: userID,
		CreatedAt: now,
	}
	doc, err := toDoc("item", it.ID, it)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.lists.guard(ctx, userID, listID, func(List) ([]docstore.Write, error) {
		return []docstore.Write{{Collection: ItemsCollection, Doc: doc}}, nil
	})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: it.ID, Version: v}, nil
}

// Toggle flips an item's done flag. It fails with a conflict if someone else
// changed the item in between.
func (r *ItemRepo) Toggle(ctx context.Context, userID, itemID string) (Ack, error) {
	it, err := r.get(ctx, userID, itemID)
	if err != nil {
		return Ack{}, err
	}
	it.Done = !it.Done
	return r.write(ctx, it, it.Version)
}

func (r *ItemRepo) Rename(ctx context.Context, userID, itemID, title string) (Ack, error) {
	title, err := cleanName("title", title)
	if err != nil {
		return Ack{}, err
	}
	it, err := r.get(ctx, userID, itemID)
	if err != nil {
		return Ack{}, err
	}
	it.Title = title
	return r.write(ctx, it, it.Version)
}

func (r *ItemRepo) Delete(ctx context.Context, userID, itemID string) (Ack, error) {
	it, err := r.get(ctx, userID, itemID)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx, docstore.Write{
		Collection: ItemsCollection,
		Doc:        docstore.Document{ID: it.ID},
		Delete:     true,
		IfVersion:  it.Version,
	})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: it.ID, Version: v}, nil
}

func (r *ItemRepo) get(ctx context.Context, userID, itemID string) (Item, error) {
	doc, err := r.db.Get(ctx, ItemsCollection, itemID)
	if err != nil {
		return Item{}, err
	}
	it, err := fromDoc("item", doc, setItem)
	if err != nil {
		return Item{}, err
	}
	if _, err := r.lists.Get(ctx, userID, it.ListID); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return Item{}, errors.NotFound("item", itemID)
		}
		return Item{}, err
	}
	return it, nil
}

func (r *ItemRepo) write(ctx context.Context, it Item, ifVersion docstore.Version) (Ack, error) {
	doc, err := toDoc("item", it.ID, it)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx, docstore.Write{Collection: ItemsCollection, Doc: doc, IfVersion: ifVersion})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: it.ID, Version: v}, nil
}
