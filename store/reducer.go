package store

// Reducer decides the next state and the effect to run for an action.
// Reduce must not block, perform I/O or keep references to the state it was
// given; slices inside the state are shared with the previous value and have to
// be copied before they are changed.
type Reducer[S, A any] interface {
	Reduce(state S, action A) (S, Effect[A])
}

// ReducerFunc adapts a plain function to a Reducer.
type ReducerFunc[S, A any] func(state S, action A) (S, Effect[A])

func (f ReducerFunc[S, A]) Reduce(state S, action A) (S, Effect[A]) {
	return f(state, action)
}
