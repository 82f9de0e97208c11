package store_test

import (
	"context"
	"errors"
	"iter"
	"slices"
	"testing"

	"github.com/delaneyj/todoparty/store"
	"github.com/delaneyj/todoparty/store/storetest"
	"github.com/stretchr/testify/assert"
)

func TestCauseOf(t *testing.T) {
	a := store.CauseOf("lists", "watch")
	b := store.CauseOf("lists", "watch")
	c := store.CauseOf("lists", "watchx")
	d := store.CauseOf("listswatch")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.NotEqual(t, store.NoCause, a)
	assert.Equal(t, "none", store.NoCause.String())
}

func TestBatchFlattens(t *testing.T) {
	e := store.Batch(
		store.None[int](),
		store.Batch(store.Just(1), store.Task("load", func(context.Context) (int, bool) { return 0, false })),
		store.Ignore[int]("nope"),
	)

	assert.Equal(t, store.KindBatch, e.Kind())
	assert.Len(t, e.Effects(), 3)
	assert.Equal(t, "batch(task:just, task:load, ignore(nope))", e.String())

	assert.True(t, store.Batch[int]().IsNone())
	single := store.Batch(store.None[int](), store.Cancel[int](store.CauseOf("x")))
	assert.Equal(t, store.KindCancel, single.Kind())
}

func TestCancelOnOnlyKeysWork(t *testing.T) {
	cause := store.CauseOf("search")

	task := store.Just(1).CancelOn(cause)
	assert.Equal(t, cause, task.Cause())
	assert.Equal(t, "task:just@"+cause.String(), task.String())

	none := store.None[int]().CancelOn(cause)
	assert.Equal(t, store.NoCause, none.Cause())
}

func TestResult(t *testing.T) {
	ok := store.Success(3)
	assert.True(t, ok.OK())
	v, err := ok.Get()
	assert.Equal(t, 3, v)
	assert.NoError(t, err)

	bad := store.Failure[int](errors.New("offline"))
	assert.False(t, bad.OK())
	_, err = bad.Get()
	assert.EqualError(t, err, "offline")
}

type child struct{ n int }

type parent struct {
	child child
	err   error
}

func TestMapEmbedsChildEffects(t *testing.T) {
	counts := func(ctx context.Context) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			for i := 1; i <= 3; i++ {
				if !yield(i, nil) {
					return
				}
			}
			yield(0, errors.New("feed closed"))
		}
	}
	childEffect := store.Observe("counts", store.CauseOf("counts"), counts, func(r store.Result[int]) child {
		return child{n: r.Value}
	})

	type st struct{ Seen []int }
	s := store.New(st{}, store.Reducer[st, parent](store.ReducerFunc[st, parent](func(s st, a parent) (st, store.Effect[parent]) {
		if a.child.n == 0 && a.err == nil && len(s.Seen) == 0 {
			return s, store.Map(childEffect, func(c child) parent { return parent{child: c} })
		}
		s.Seen = append(slices.Clone(s.Seen), a.child.n)
		return s, store.None[parent]()
	})), storetest.Quiet())
	defer s.Teardown()

	s.Send(parent{})
	final := storetest.WaitFor(t, s, func(s st) bool { return len(s.Seen) == 4 })
	assert.Equal(t, []int{1, 2, 3, 0}, final.Seen)
}

func TestObserveWrapsErrorsAndPanics(t *testing.T) {
	type st struct {
		Values []int
		Errs   []string
	}
	feed := func(ctx context.Context) iter.Seq2[int, error] {
		return func(yield func(int, error) bool) {
			if !yield(1, nil) {
				return
			}
			if !yield(0, errors.New("denied")) {
				return
			}
			panic("snapshot decode")
		}
	}
	s := store.New(st{}, store.Reducer[st, store.Result[int]](store.ReducerFunc[st, store.Result[int]](func(s st, r store.Result[int]) (st, store.Effect[store.Result[int]]) {
		if r.Value == -1 {
			return s, store.Observe("feed", store.CauseOf("feed"), feed, func(r store.Result[int]) store.Result[int] { return r })
		}
		if r.OK() {
			s.Values = append(slices.Clone(s.Values), r.Value)
		} else {
			s.Errs = append(slices.Clone(s.Errs), r.Err.Error())
		}
		return s, store.None[store.Result[int]]()
	})), storetest.Quiet())
	defer s.Teardown()

	s.Send(store.Success(-1))
	final := storetest.WaitFor(t, s, func(s st) bool { return len(s.Errs) == 2 })
	assert.Equal(t, []int{1}, final.Values)
	assert.Equal(t, []string{"denied", "panic: snapshot decode"}, final.Errs)
}
