package todo

import "github.com/delaneyj/todoparty/docstore"

// App bundles the repositories that share one database.
type App struct {
	DB          docstore.DB
	Auth        *Auth
	Lists       *ListRepo
	Items       *ItemRepo
	Invitations *InvitationRepo
}

func New(db docstore.DB, opts ...AuthOption) *App {
	auth := NewAuth(db, opts...)
	lists := NewListRepo(db)
	return &App{
		DB:          db,
		Auth:        auth,
		Lists:       lists,
		Items:       NewItemRepo(db, lists),
		Invitations: NewInvitationRepo(db, lists, auth),
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}
