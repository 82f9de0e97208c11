package todo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

func errBadCredentials() error {
	return errors.Unauthenticated("Incorrect email or password.")
}

// Auth signs users up and in against the users collection and remembers who
// is signed in for this process.
type Auth struct {
	db   docstore.DB
	cost int
	now  func() time.Time
	log  *logrus.Entry

	mu      sync.RWMutex
	current *User
}

type AuthOption func(*Auth)

// WithCost sets the bcrypt cost for new password hashes.
func WithCost(cost int) AuthOption {
	return func(a *Auth) {
		a.cost = cost
	}
}

func NewAuth(db docstore.DB, opts ...AuthOption) *Auth {
	a := &Auth{
		db:   db,
		cost: bcrypt.DefaultCost,
		now:  time.Now,
		log:  logging.NewLogger("auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// userID is derived from the email so an address maps to one document.
func userID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:"+email)).String()
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}

func (a *Auth) SignUp(ctx context.Context, email, password, name string) (User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return User{}, errors.InvalidInput("email", "Please enter a valid email address.")
	}
	if len(password) < minPasswordLen {
		return User{}, errors.InvalidInput("password", "Passwords need at least 6 characters.")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	id := userID(email)
	if _, err := a.db.Get(ctx, UsersCollection, id); err == nil {
		return User{}, errors.Conflict("user", "An account with this email already exists.")
	} else if !errors.Is(err, errors.ErrCodeNotFound) {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return User{}, errors.Wrap(err, errors.ErrCodeInternal, "could not hash password")
	}
	u := User{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	}
	doc, err := toDoc("user", u.ID, u)
	if err != nil {
		return User{}, err
	}
	if _, err := docstore.Put(ctx, a.db, UsersCollection, doc); err != nil {
		return User{}, err
	}
	a.setCurrent(&u)
	a.log.WithField("user", u.ID).Info("signed up")
	return u, nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (User, error) {
	u, err := a.Lookup(ctx, email)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return User{}, errBadCredentials()
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		a.log.WithField("user", u.ID).Debug("password mismatch")
		return User{}, errBadCredentials()
	}
	a.setCurrent(&u)
	a.log.WithField("user", u.ID).Info("signed in")
	return u, nil
}

// Restore signs a previously remembered user back in without a password.
func (a *Auth) Restore(ctx context.Context, email string) (User, error) {
	if normalizeEmail(email) == "" {
		return User{}, errors.Unauthenticated("No saved session.")
	}
	u, err := a.Lookup(ctx, email)
	if errors.Is(err, errors.ErrCodeNotFound) {
		return User{}, errors.Unauthenticated("Your session has expired. Please sign in again.")
	}
	if err != nil {
		return User{}, err
	}
	a.setCurrent(&u)
	return u, nil
}

func (a *Auth) SignOut(context.Context) error {
	a.setCurrent(nil)
	return nil
}

// Current returns the signed in user.
func (a *Auth) Current() (User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current == nil {
		return User{}, false
	}
	return *a.current, true
}

// Lookup finds a user by email.
func (a *Auth) Lookup(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	doc, err := a.db.Get(ctx, UsersCollection, userID(email))
	if err != nil {
		return User{}, err
	}
	return fromDoc("user", doc, setUser)
}

func (a *Auth) setCurrent(u *User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = u
}
