package store

// Result carries the outcome of a collaborator call back into a reducer.
type Result[T any] struct {
	Value T
	Err   error
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

func (r Result[T]) OK() bool {
	return r.Err == nil
}

func (r Result[T]) Get() (T, error) {
	return r.Value, r.Err
}
