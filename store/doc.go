// Package store is a unidirectional state runtime.
//
// A [Store] owns one State value, a [Reducer] and the bookkeeping for every
// in-flight [Effect]. Callers never write state directly; they [Store.Send]
// actions. Each action is applied by exactly one Reduce call at a time, in the
// order it was enqueued, and the reducer answers with the next state and an
// Effect describing any work to run afterwards.
//
// # Effects
//
// An Effect is a request, not a running computation. The store turns it into
// one once the reduce step that produced it has been applied:
//
//   - [None]: nothing to do.
//   - [Task], [Just], [Fire], [Attempt]: a one-shot unit of work that yields
//     zero or one follow-up action.
//   - [Stream], [Observe]: a subscription yielding zero or more follow-up
//     actions until it ends or is cancelled.
//   - [Cancel]: stop delivery for whatever is live under a [Cause].
//   - [Batch]: several effects scheduled in order.
//   - [Ignore]: the reducer had no transition for the action; the store logs it.
//
// Follow-up actions re-enter the store through the same queue as user actions.
//
// # Cancellation
//
// Every scheduled task or stream gets a handle. Handles are keyed by [Cause]
// when one is given, and arming a new effect under a live cause cancels the old
// handle first, so one cause never feeds state from two subscriptions.
// Cancelling a stream cancels its context. Cancelling a task only suppresses
// delivery of its result; the task itself runs to completion. Anything a
// cancelled handle had already queued is dropped before it reaches the reducer.
// [Store.Teardown] cancels every handle.
//
// # Failures
//
// Send never returns an error and never panics. [Attempt] and [Observe]
// convert collaborator errors and panics into a [Result] carried by the
// follow-up action; the reducer decides what the user sees.
package store
