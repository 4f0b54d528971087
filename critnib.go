// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package critnib

import (
	"sync"
	"sync/atomic"

	"github.com/critnib/critnib/internal/epoch"
	"github.com/critnib/critnib/internal/node"
	"github.com/critnib/critnib/internal/recycle"
)

// Index is a concurrent 64-bit-key to opaque-value associative index.
// The zero value is not usable; construct one with New.
type Index[V Value] struct {
	// used by -copylocks checker from `go vet`.
	_ [0]sync.Mutex

	mu sync.Mutex // serializes Insert and Remove; never taken by readers

	root atomic.Pointer[node.Node[V]]
	null *node.Node[V] // shared empty-child-slot sentinel, owned by this Index

	alloc recycle.Allocator[V]
	epoch epoch.Counter

	// pending is the DeletedLife-wide ring of detached nodes awaiting
	// their grace period; written only by the writer holding mu.
	pending [epoch.DeletedLife][2]*node.Node[V]
}

// New returns an empty Index.
func New[V Value]() *Index[V] {
	ix := &Index[V]{}
	ix.null = &node.Node[V]{Shift: node.EndBit, Null: true}
	ix.root.Store(ix.null)
	return ix
}

// Close releases every node held by ix. After Close, ix must not be
// used again. Close itself is not safe to call concurrently with any
// other Index method.
func (ix *Index[V]) Close() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.root.Store(nil)
	for i := range ix.pending {
		ix.pending[i][0] = nil
		ix.pending[i][1] = nil
	}
}

// Insert adds a key:value pair to the index.
//
// It returns ErrExist if the key is already present, in which case the
// index is unchanged; a zero value is a no-op that returns nil without
// creating an entry. Insert takes the index's write lock but never
// blocks a concurrent Get or FindLE.
func (ix *Index[V]) Insert(key uint64, val V) error {
	var zero V
	if val == zero {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	leaf, ok := ix.alloc.Get()
	if !ok {
		return ErrNoMem
	}
	leaf.Shift = node.EndBit
	leaf.Key = key
	leaf.Value = val
	leaf.Null = false

	// Descend as long as the current node's path still matches key
	// under its mask, remembering the slot we last stepped through so
	// we can publish into it.
	parentSlot := &ix.root
	n := ix.root.Load()
	for !n.IsLeaf() && (key&node.MaskAbove(n.Shift)) == n.Path {
		parentSlot = &n.Children[node.NibbleAt(key, n.Shift)]
		n = parentSlot.Load()
	}

	if n.Null {
		parentSlot.Store(leaf)
		return nil
	}

	xp := n.EffectivePath()
	if xp == key {
		ix.alloc.Put(leaf)
		return ErrExist
	}

	sh := node.BranchShift(xp, key)
	if sh < 0 || sh > 60 || sh%node.Slice != 0 {
		invariantViolation("branch shift not nibble-aligned in [0,60]")
	}

	branch, ok := ix.alloc.Get()
	if !ok {
		ix.alloc.Put(leaf)
		return ErrNoMem
	}
	branch.Shift = sh
	branch.Path = key & node.MaskAbove(sh)
	branch.Key = 0
	branch.Value = zero
	branch.Null = false
	for i := range branch.Children {
		branch.Children[i].Store(ix.null)
	}
	branch.Children[node.NibbleAt(key, sh)].Store(leaf)
	branch.Children[node.NibbleAt(xp, sh)].Store(n)

	parentSlot.Store(branch)
	return nil
}

// Remove deletes key from the index, returning the value it held or
// the zero value if the key was absent.
func (ix *Index[V]) Remove(key uint64) V {
	var zero V

	ix.mu.Lock()
	defer ix.mu.Unlock()

	d := ix.epoch.Bump()
	ix.alloc.Put(ix.pending[d][0])
	ix.alloc.Put(ix.pending[d][1])
	ix.pending[d][0] = nil
	ix.pending[d][1] = nil

	root := ix.root.Load()
	if root.IsLeaf() {
		if !root.Null && root.Key == key {
			ix.root.Store(ix.null)
			val := root.Value
			ix.pending[d][0] = root
			return val
		}
		return zero
	}

	// n/k walk in lockstep: k is the candidate leaf, n its parent inner
	// node, so that on a match we can relink n's parent around n.
	nParentSlot := &ix.root
	n := root
	kParentSlot := &ix.root
	k := root

	for !k.IsLeaf() {
		nParentSlot = kParentSlot
		n = k
		kParentSlot = &k.Children[node.NibbleAt(key, k.Shift)]
		k = kParentSlot.Load()
	}

	if k.Null || k.Key != key {
		return zero
	}

	kParentSlot.Store(ix.null)

	// Count n's remaining non-null children.
	other := -1
	for i := range n.Children {
		if n.Children[i].Load() != ix.null {
			if other != -1 {
				// >= 2 children remain: n stays, only the leaf is parked.
				val := k.Value
				ix.pending[d][0] = k
				return val
			}
			other = i
		}
	}
	if other == -1 {
		// 0 remain: only reachable when n is the root and its one
		// other child was just removed out from under it; publish the
		// null sentinel in n's place.
		nParentSlot.Store(ix.null)
	} else {
		// Exactly 1 remains: bypass n, publishing its surviving child
		// straight into n's parent slot, and park n alongside the leaf.
		nParentSlot.Store(n.Children[other].Load())
	}
	val := k.Value
	ix.pending[d][0] = n
	ix.pending[d][1] = k
	return val
}

// Get returns the value stored for key, or the zero value if absent.
// It never blocks and never takes a lock.
func (ix *Index[V]) Get(key uint64) V {
	return epoch.Retry(&ix.epoch, func() V {
		var zero V
		n := ix.root.Load()
		for !n.IsLeaf() {
			n = n.Children[node.NibbleAt(key, n.Shift)].Load()
		}
		if !n.Null && n.Key == key {
			return n.Value
		}
		return zero
	})
}

// FindLE returns the value of the greatest stored key <= q, or the zero
// value if no such key exists. It never blocks and never takes a lock.
func (ix *Index[V]) FindLE(q uint64) V {
	return epoch.Retry(&ix.epoch, func() V {
		v, ok := node.FindLE(ix.root.Load(), q)
		if !ok {
			var zero V
			return zero
		}
		return v
	})
}

// IndexStats reports diagnostic counters for an Index. None of these
// participate in correctness; they exist for tuning and tests, the same
// role the teacher repo's pool.Stats plays.
type IndexStats struct {
	LiveNodes      int64
	TotalAllocated int64
	RemoveCount    uint64
}

// Stats returns a snapshot of ix's diagnostic counters.
func (ix *Index[V]) Stats() IndexStats {
	live, total := ix.alloc.Stats()
	return IndexStats{
		LiveNodes:      live,
		TotalAllocated: total,
		RemoveCount:    ix.epoch.Snapshot(),
	}
}
