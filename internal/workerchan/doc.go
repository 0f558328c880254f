// Package workerchan runs CPU-heavy work in an isolated execution context and
// pairs each request with its eventual response through a correlation id.
//
// A Channel owns one context: a set of goroutines running an EntryPoint that
// read Requests from an inbox and post Responses back. Callers never talk to
// the context directly:
//
//	ch, err := workerchan.Create(entry, workerchan.WithConcurrency(4))
//	call := ch.Call(payload, buf)      // returns immediately
//	msg, err := call.Wait(ctx)         // resolves exactly once
//	ch.Terminate()                     // outstanding calls get ErrTerminated
//
// # Correlation ids
//
// Ids are a per-channel monotonic counter salted with the channel's instance
// id, so an id is never reused while the channel lives and ids from different
// channels never collide.
//
// # Routing
//
// A single dispatcher goroutine consumes every Response and is the only
// place a pending call is resolved by the context. Responses whose id matches
// no outstanding call are dropped and counted.
//
// # Transfer
//
// Byte slices passed as transferables are handed to the context without
// copying. The caller gives up ownership and must not read or write them
// after Call returns. Responses may transfer slices back the same way.
//
// # Termination
//
// Terminate cancels the context, resolves every outstanding call with
// ErrTerminated, waits for the context goroutines to exit and releases the
// bootstrap resource. Calls issued after Terminate resolve with
// ErrTerminated immediately.
package workerchan
