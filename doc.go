// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package critnib provides a concurrent, in-memory index from 64-bit
// keys to opaque values: a hybrid between a path-compressed radix tree
// and DJ Bernstein's crit-bit tree.
//
// It offers identity lookup (Get, like a hashmap) and predecessor
// lookup (FindLE, like an ordered tree) over the same structure, with
// lookups that are wait-free and take no lock at all, while a single
// writer mutates the tree under a process-local mutex.
//
// # Concurrency
//
// Any number of goroutines may call Get and FindLE concurrently with
// each other and with a single in-flight Insert or Remove. Writers are
// always serialized by Index's internal mutex; only one Insert or
// Remove may run at a time per Index. A reader never blocks and never
// observes a torn node: every structural edit a writer makes is a
// single release-store of one child slot or the root, and every load on
// the read path is an acquire. Removed nodes are kept alive for a grace
// period (internal/epoch.DeletedLife further removes) before recycling,
// so a pathologically stalled reader can only ever observe a stale
// answer, never a crash -- see package internal/epoch for the retry
// discipline that guarantees this.
//
// # Value semantics
//
// Values are opaque, comparable, pointer- or integer-shaped tokens. The
// zero value of V is reserved to mean "no entry": Insert(k, zero) is a
// no-op that reports success, and Get/FindLE return the zero value for
// an absent key. There is no way to distinguish a stored zero value
// from absence -- this mirrors a null pointer being indistinguishable
// from "no entry" in the C index this package is modeled on.
package critnib
