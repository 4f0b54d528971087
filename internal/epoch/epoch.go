// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package epoch implements the remove-counter discipline that lets
// critnib readers traverse the tree without ever taking a lock: a
// writer bumps a monotonic counter on every remove, and a reader
// snapshots it before and after a descent, retrying whenever the
// counter advanced far enough that a node the reader dereferenced
// could since have been recycled out from under it.
//
// This is the same technique the wider literature calls epoch-based
// reclamation; the package is named for that framing rather than
// "remove counter" because it generalizes cleanly to both Get and
// FindLE without either caring what specifically changed.
package epoch

import "sync/atomic"

// DeletedLife is the number of removals a detached node must survive
// before it is eligible for recycling: the grace period. 16 in the
// reference implementation, chosen as a small power of two; it is a
// policy knob, not a correctness-critical constant, as long as it is
// consistent between writer and reader.
const DeletedLife = 16

// Counter is the per-index remove counter.
type Counter struct {
	v atomic.Uint64
}

// Bump increments the counter and returns the ring slot (0..DeletedLife-1)
// this removal owns in the pending-deletes ring.
func (c *Counter) Bump() uint64 {
	return (c.v.Add(1) - 1) % DeletedLife
}

// Snapshot returns the current counter value with acquire ordering.
func (c *Counter) Snapshot() uint64 {
	return c.v.Load()
}

// Stale reports whether a reader that snapshotted the counter at start
// must retry its descent because at least DeletedLife removes have
// since elapsed, meaning nodes it may have dereferenced could have been
// recycled.
func Stale(start, end uint64) bool {
	return end-start >= DeletedLife
}

// Retry runs fn -- a single lock-free descent -- retrying it for as
// long as the remove counter advances by DeletedLife or more while fn
// is in flight. It is the shared envelope used identically by Get and
// FindLE.
func Retry[R any](c *Counter, fn func() R) R {
	for {
		start := c.Snapshot()
		res := fn()
		end := c.Snapshot()
		if !Stale(start, end) {
			return res
		}
	}
}
