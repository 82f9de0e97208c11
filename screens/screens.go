// Package screens holds what the per-screen state machines share. Each
// subpackage defines one screen's State, its closed set of Actions and a
// Reducer that switches on the current view first and the action second.
package screens

import (
	"fmt"

	"github.com/delaneyj/todoparty/docstore"
	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/store"
)

// AlertMessage is the text a screen shows for a failed collaborator call.
func AlertMessage(err error) string {
	return errors.UserMessage(err)
}

// Unhandled is returned for (view, action) pairs a table has no entry for.
// Results racing a user driven view change end up here, so it is logged and
// dropped rather than treated as a bug.
func Unhandled[A any](view fmt.Stringer, action A) store.Effect[A] {
	return store.Ignore[A](fmt.Sprintf("%T in %s", action, view))
}

// Stale reports whether a snapshot read at version predates the last write
// this screen made, in which case a newer snapshot is already on its way.
func Stale(version, lastWrite docstore.Version) bool {
	return version < lastWrite
}
