package store

import (
	"context"
	"fmt"
	"iter"
	"strings"
)

type Kind uint8

const (
	KindNone Kind = iota
	KindTask
	KindStream
	KindCancel
	KindBatch
	KindIgnore
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTask:
		return "task"
	case KindStream:
		return "stream"
	case KindCancel:
		return "cancel"
	case KindBatch:
		return "batch"
	case KindIgnore:
		return "ignore"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type taskFunc[A any] func(ctx context.Context) (A, bool, error)

type streamFunc[A any] func(ctx context.Context) iter.Seq[A]

// Effect describes work to run after a reduce step. The zero value is None.
type Effect[A any] struct {
	kind    Kind
	cause   Cause
	name    string
	reason  string
	task    taskFunc[A]
	stream  streamFunc[A]
	effects []Effect[A]
}

func None[A any]() Effect[A] {
	return Effect[A]{}
}

// Task runs op once. When op reports ok the returned action is sent back to
// the store.
func Task[A any](name string, op func(ctx context.Context) (A, bool)) Effect[A] {
	return Effect[A]{
		kind: KindTask,
		name: name,
		task: func(ctx context.Context) (A, bool, error) {
			a, ok := op(ctx)
			return a, ok, nil
		},
	}
}

// Just sends action back to the store after the current reduce step.
func Just[A any](action A) Effect[A] {
	return Effect[A]{
		kind: KindTask,
		name: "just",
		task: func(context.Context) (A, bool, error) {
			return action, true, nil
		},
	}
}

// Fire runs op for its side effect only. A returned error is logged by the
// store and otherwise dropped.
func Fire[A any](name string, op func(ctx context.Context) error) Effect[A] {
	return Effect[A]{
		kind: KindTask,
		name: name,
		task: func(ctx context.Context) (A, bool, error) {
			var zero A
			return zero, false, op(ctx)
		},
	}
}

// Attempt runs a collaborator call and always answers with wrap(result).
// Errors and panics from op become a failed Result.
func Attempt[T, A any](name string, op func(ctx context.Context) (T, error), wrap func(Result[T]) A) Effect[A] {
	return Effect[A]{
		kind: KindTask,
		name: name,
		task: func(ctx context.Context) (A, bool, error) {
			return wrap(attempt(ctx, op)), true, nil
		},
	}
}

func attempt[T any](ctx context.Context, op func(ctx context.Context) (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Failure[T](fmt.Errorf("panic: %v", r))
		}
	}()
	v, err := op(ctx)
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// Stream subscribes to source and sends every emitted action back to the
// store, in order, until the sequence ends or the handle is cancelled. The
// context passed to source is cancelled with the handle.
func Stream[A any](name string, cause Cause, source func(ctx context.Context) iter.Seq[A]) Effect[A] {
	return Effect[A]{
		kind:   KindStream,
		cause:  cause,
		name:   name,
		stream: source,
	}
}

// Observe adapts a collaborator change feed. Each value or error is wrapped
// into an action; a panic inside the feed is delivered as a final failure.
func Observe[T, A any](name string, cause Cause, source func(ctx context.Context) iter.Seq2[T, error], wrap func(Result[T]) A) Effect[A] {
	return Stream(name, cause, func(ctx context.Context) iter.Seq[A] {
		return func(yield func(A) bool) {
			stopped := false
			defer func() {
				if r := recover(); r != nil && !stopped {
					yield(wrap(Failure[T](fmt.Errorf("panic: %v", r))))
				}
			}()
			for v, err := range source(ctx) {
				res := Success(v)
				if err != nil {
					res = Failure[T](err)
				}
				if !yield(wrap(res)) {
					stopped = true
					return
				}
			}
		}
	})
}

// Cancel stops delivery for the handle live under cause, if any.
func Cancel[A any](cause Cause) Effect[A] {
	return Effect[A]{kind: KindCancel, cause: cause}
}

// Batch schedules effects in order. Nested batches are flattened and None
// values dropped.
func Batch[A any](effects ...Effect[A]) Effect[A] {
	flat := make([]Effect[A], 0, len(effects))
	for _, e := range effects {
		switch e.kind {
		case KindNone:
		case KindBatch:
			flat = append(flat, e.effects...)
		default:
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return None[A]()
	case 1:
		return flat[0]
	default:
		return Effect[A]{kind: KindBatch, effects: flat}
	}
}

// Ignore is returned by a reducer that has no transition for the action in
// the current state. It schedules nothing; the store logs reason.
func Ignore[A any](reason string) Effect[A] {
	return Effect[A]{kind: KindIgnore, reason: reason}
}

// CancelOn keys a task or stream by cause. Arming it cancels any handle
// already live under the same cause.
func (e Effect[A]) CancelOn(cause Cause) Effect[A] {
	if e.kind == KindTask || e.kind == KindStream {
		e.cause = cause
	}
	return e
}

func (e Effect[A]) Kind() Kind           { return e.kind }
func (e Effect[A]) Cause() Cause         { return e.cause }
func (e Effect[A]) Name() string         { return e.name }
func (e Effect[A]) Reason() string       { return e.reason }
func (e Effect[A]) Effects() []Effect[A] { return e.effects }
func (e Effect[A]) IsNone() bool         { return e.kind == KindNone }

// String describes the effect without running it, e.g.
// "batch(task:fetch, stream:watch@1f3a)".
func (e Effect[A]) String() string {
	switch e.kind {
	case KindNone:
		return "none"
	case KindIgnore:
		return "ignore(" + e.reason + ")"
	case KindCancel:
		return "cancel@" + e.cause.String()
	case KindBatch:
		parts := make([]string, len(e.effects))
		for i, child := range e.effects {
			parts[i] = child.String()
		}
		return "batch(" + strings.Join(parts, ", ") + ")"
	default:
		s := e.kind.String() + ":" + e.name
		if e.cause != NoCause {
			s += "@" + e.cause.String()
		}
		return s
	}
}

// Map converts an effect producing A actions into one producing B actions,
// for embedding a child feature's effects in a parent store.
func Map[A, B any](e Effect[A], f func(A) B) Effect[B] {
	out := Effect[B]{
		kind:   e.kind,
		cause:  e.cause,
		name:   e.name,
		reason: e.reason,
	}
	if e.task != nil {
		task := e.task
		out.task = func(ctx context.Context) (B, bool, error) {
			a, ok, err := task(ctx)
			if !ok {
				var zero B
				return zero, false, err
			}
			return f(a), true, err
		}
	}
	if e.stream != nil {
		stream := e.stream
		out.stream = func(ctx context.Context) iter.Seq[B] {
			return func(yield func(B) bool) {
				for a := range stream(ctx) {
					if !yield(f(a)) {
						return
					}
				}
			}
		}
	}
	for _, child := range e.effects {
		out.effects = append(out.effects, Map(child, f))
	}
	return out
}
