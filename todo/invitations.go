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

// InvitationRepo shares lists with other users by email.
type InvitationRepo struct {
	db    docstore.DB
	lists *ListRepo
	users *Auth
	now   func() time.Time
}

func NewInvitationRepo(db docstore.DB, lists *ListRepo, users *Auth) *InvitationRepo {
	return &InvitationRepo{db: db, lists: lists, users: users, now: time.Now}
}

// invitationID is stable per list and recipient so inviting twice updates
// the same document.
func invitationID(listID, email string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("invite:"+listID+":"+email)).String()
}

func pendingFor(email string) docstore.Query {
	return docstore.Collection(InvitationsCollection).
		Where(
			docstore.Eq("toEmail", normalizeEmail(email)),
			docstore.Eq("status", string(InvitationPending)),
		).
		Order("listName", false)
}

// Pending returns the open invitations addressed to email.
func (r *InvitationRepo) Pending(ctx context.Context, email string) (Page[Invitation], error) {
	snap, err := r.db.Query(ctx, pendingFor(email))
	if err != nil {
		return Page[Invitation]{}, err
	}
	return pageOf("invitation", snap, setInvitation)
}

func (r *InvitationRepo) WatchPending(ctx context.Context, email string) iter.Seq2[Page[Invitation], error] {
	return watchPages(ctx, r.db, pendingFor(email), "invitation", setInvitation)
}

// WatchPendingCount yields the number of open invitations for email each
// time it changes.
func (r *InvitationRepo) WatchPendingCount(ctx context.Context, email string) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		last := -1
		for page, err := range r.WatchPending(ctx, email) {
			if err != nil {
				yield(0, err)
				return
			}
			if n := len(page.Rows); n != last {
				last = n
				if !yield(n, nil) {
					return
				}
			}
		}
	}
}

// Invite offers one of from's lists to the owner of email.
func (r *InvitationRepo) Invite(ctx context.Context, from User, listID, email string) (Ack, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Ack{}, errors.InvalidInput("email", "Please enter a valid email address.")
	}
	if email == from.Email {
		return Ack{}, errors.InvalidInput("email", "You can't invite yourself.")
	}
	id := invitationID(listID, email)
	v, err := r.lists.guard(ctx, from.ID, listID, func(l List) ([]docstore.Write, error) {
		if to, err := r.users.Lookup(ctx, email); err == nil && slices.Contains(l.Members, to.ID) {
			return nil, errors.Conflict("invitation", email+" already has this list.")
		}
		if cur, err := r.get(ctx, id); err == nil && cur.Status == InvitationPending {
			return nil, errors.Conflict("invitation", email+" has already been invited.")
		}
		inv := Invitation{
			ID:        id,
			ListID:    l.ID,
			ListName:  l.Name,
			FromID:    from.ID,
			FromEmail: from.Email,
			ToEmail:   email,
			Status:    InvitationPending,
			CreatedAt: r.now().UTC(),
		}
		doc, err := toDoc("invitation", inv.ID, inv)
		if err != nil {
			return nil, err
		}
		return []docstore.Write{{Collection: InvitationsCollection, Doc: doc}}, nil
	})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: id, Version: v}, nil
}

// Accept adds user to the invited list and closes the invitation in one
// write.
func (r *InvitationRepo) Accept(ctx context.Context, user User, invitationID string) (Ack, error) {
	inv, err := r.open(ctx, user, invitationID)
	if err != nil {
		return Ack{}, err
	}
	doc, err := r.db.Get(ctx, ListsCollection, inv.ListID)
	if err != nil {
		return Ack{}, err
	}
	l, err := fromDoc("list", doc, setList)
	if err != nil {
		return Ack{}, err
	}
	if !slices.Contains(l.Members, user.ID) {
		l.Members = append(slices.Clone(l.Members), user.ID)
	}
	inv.Status = InvitationAccepted

	listDoc, err := toDoc("list", l.ID, l)
	if err != nil {
		return Ack{}, err
	}
	invDoc, err := toDoc("invitation", inv.ID, inv)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx,
		docstore.Write{Collection: ListsCollection, Doc: listDoc, IfVersion: l.Version},
		docstore.Write{Collection: InvitationsCollection, Doc: invDoc, IfVersion: inv.Version},
	)
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: inv.ID, Version: v}, nil
}

func (r *InvitationRepo) Decline(ctx context.Context, user User, invitationID string) (Ack, error) {
	inv, err := r.open(ctx, user, invitationID)
	if err != nil {
		return Ack{}, err
	}
	inv.Status = InvitationDeclined
	doc, err := toDoc("invitation", inv.ID, inv)
	if err != nil {
		return Ack{}, err
	}
	v, err := r.db.Apply(ctx, docstore.Write{Collection: InvitationsCollection, Doc: doc, IfVersion: inv.Version})
	if err != nil {
		return Ack{}, err
	}
	return Ack{ID: inv.ID, Version: v}, nil
}

// open returns a pending invitation addressed to user.
func (r *InvitationRepo) open(ctx context.Context, user User, id string) (Invitation, error) {
	inv, err := r.get(ctx, id)
	if err != nil {
		return Invitation{}, err
	}
	if inv.ToEmail != normalizeEmail(user.Email) {
		return Invitation{}, errors.PermissionDenied(user.ID, "invitation", id)
	}
	if inv.Status != InvitationPending {
		return Invitation{}, errors.Conflict("invitation", "This invitation was already answered.")
	}
	return inv, nil
}

func (r *InvitationRepo) get(ctx context.Context, id string) (Invitation, error) {
	doc, err := r.db.Get(ctx, InvitationsCollection, id)
	if err != nil {
		return Invitation{}, err
	}
	return fromDoc("invitation", doc, setInvitation)
}
