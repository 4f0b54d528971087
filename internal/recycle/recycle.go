// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package recycle implements the critnib index's node allocator: a
// single-writer free list of detached nodes, recycled only after they
// have survived their grace period.
//
// This deliberately does not reuse the teacher repo's sync.Pool-backed
// pool (see pool.go): a sync.Pool entry can be reclaimed by the garbage
// collector at any time, including while it is queued in an index's own
// pending-deletes ring, which would silently violate the specification's
// ownership invariant that a detached node's memory stays within the
// index until its grace period expires. Allocation here is touched only
// by the single writer holding the index's mutex, so a plain linked
// free list is both sufficient and simpler than a concurrent pool would
// be -- but the accounting style (live/total counters for diagnostics)
// is carried over from pool.go unchanged.
package recycle

import (
	"sync/atomic"

	"github.com/critnib/critnib/internal/node"
)

// Allocator hands out *node.Node[V] instances, recycling previously
// freed ones before falling back to a fresh allocation.
type Allocator[V any] struct {
	free *node.Node[V]

	totalAllocated atomic.Int64
	currentLive    atomic.Int64

	// armed/failIn are a test-only allocation-failure injection: while
	// armed, failIn counts how many more Get calls must succeed before
	// the next one fails (0 means "fail on this call").
	armed  atomic.Bool
	failIn atomic.Int64
}

// Get returns a node from the free list, or allocates a new one. ok is
// false only when failure injection (SimulateOOM/SimulateOOMAfter) has
// counted down to the call it targets, modeling the specification's
// ENOMEM path for testability.
func (a *Allocator[V]) Get() (n *node.Node[V], ok bool) {
	if a.armed.Load() {
		if a.failIn.Add(-1) < 0 {
			a.armed.Store(false)
			return nil, false
		}
	}

	if a.free == nil {
		a.totalAllocated.Add(1)
		a.currentLive.Add(1)
		return new(node.Node[V]), true
	}

	n = a.free
	a.free = n.Next()
	n.SetNext(nil)
	a.currentLive.Add(1)
	return n, true
}

// Put returns a node to the free list for future reuse. It is a no-op
// for nil, so callers may unconditionally Put whatever aged out of a
// pending-deletes ring slot, occupied or not.
func (a *Allocator[V]) Put(n *node.Node[V]) {
	if n == nil {
		return
	}
	// Deliberately does not clear n's tagged-union fields or child
	// pointers here, matching critnib.c's free path: a reader that is
	// still descending through n when it gets recycled must see its old,
	// internally-consistent content (a valid Shift paired with valid,
	// non-nil Children) rather than a torn mix of cleared fields that
	// could send it dereferencing a nil child. Every field n's next role
	// needs is overwritten in full by the caller before n is published
	// (see Index.Insert), so no reset step is required at recycle time.
	n.SetNext(a.free)
	a.free = n
	a.currentLive.Add(-1)
}

// SimulateOOM arms a one-shot allocation failure on the very next Get
// call. Test-only hook: Go's runtime allocator does not itself expose a
// recoverable out-of-memory condition the way the embedding API's
// malloc-equivalent can fail, so the specification's ENOMEM contract is
// exercised through this injection point instead.
func (a *Allocator[V]) SimulateOOM() {
	a.failIn.Store(0)
	a.armed.Store(true)
}

// SimulateOOMAfter arms an allocation failure that fires after n more
// Get calls succeed. Test-only, like SimulateOOM.
func (a *Allocator[V]) SimulateOOMAfter(n int64) {
	a.failIn.Store(n)
	a.armed.Store(true)
}

// Stats reports the number of currently live (allocated, not freed)
// nodes and the total ever allocated from the Go heap, for diagnostics
// only -- never consulted by correctness-critical code.
func (a *Allocator[V]) Stats() (live, total int64) {
	return a.currentLive.Load(), a.totalAllocated.Load()
}
