// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package critnib_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/critnib/critnib"
)

// TestConcurrentReadersDuringWrites exercises scenario 7 from the
// specification: many goroutines calling Get and FindLE in a tight loop
// while a single writer inserts and removes keys underneath them. No
// reader may ever see a torn node or a stale-but-impossible value; the
// only contract is that every observed value was, at some point, really
// stored under that key.
func TestConcurrentReadersDuringWrites(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}

	const keyRange = 4096
	ix := critnib.New[uint64]()

	// Seed half the range so readers have something to find from the
	// start.
	for k := uint64(0); k < keyRange; k += 2 {
		if err := ix.Insert(k, k+1); err != nil {
			t.Fatalf("seed Insert(%d): %v", k, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < 8; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(i), 0))
			for ctx.Err() == nil {
				k := rng.Uint64N(keyRange)
				if v := ix.Get(k); v != 0 && v != k+1 {
					return fmt.Errorf("Get(%d) = %d, want 0 or %d", k, v, k+1)
				}
				if v := ix.FindLE(k); v != 0 && v > k+1 {
					return fmt.Errorf("FindLE(%d) = %d, exceeds query", k, v)
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		rng := rand.New(rand.NewPCG(99, 0))
		for ctx.Err() == nil {
			k := rng.Uint64N(keyRange)
			if rng.IntN(2) == 0 {
				ix.Insert(k, k+1)
			} else {
				ix.Remove(k)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
