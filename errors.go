// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package critnib

import "github.com/pkg/errors"

var (
	// ErrExist is returned by Insert when the key is already present.
	// The index is left unchanged.
	ErrExist = errors.New("critnib: key already exists")

	// ErrNoMem is returned by Insert when node allocation fails. The
	// index is left unchanged; any node allocated earlier in the same
	// call is recycled before Insert returns.
	ErrNoMem = errors.New("critnib: out of memory")
)

// invariantViolation panics with a stack trace attached, for the one
// failure class the specification requires to abort the process: a
// detected breach of the tree's structural invariants. This can only be
// reached by memory corruption or a bug in the tree mechanics, never by
// valid API use, so panic -- Go's nearest equivalent to abort() -- is
// the right response; no caller of Index's exported methods is expected
// to recover from it.
func invariantViolation(msg string) {
	panic(errors.New("critnib: invariant violation: " + msg))
}
