// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package critnib_test

import (
	"math/rand/v2"
	"testing"

	"github.com/critnib/critnib"
)

func newBenchIndex(n int) (*critnib.Index[uint64], []uint64) {
	ix := critnib.New[uint64]()
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i)*2 + 1 // odd keys: scatters nibbles, never zero
		ix.Insert(keys[i], keys[i])
	}
	return ix, keys
}

func BenchmarkGetDense(b *testing.B) {
	const n = 1000
	ix, keys := newBenchIndex(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Get(keys[i%n])
	}
}

func BenchmarkGetChurnScale(b *testing.B) {
	const n = 1 << 20
	ix, keys := newBenchIndex(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.Get(keys[i%n])
	}
}

func BenchmarkFindLEDense(b *testing.B) {
	const n = 1000
	ix, keys := newBenchIndex(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix.FindLE(keys[i%n] + 1)
	}
}

func BenchmarkInsertRemove(b *testing.B) {
	ix := critnib.New[uint64]()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := uint64(i)*2 + 1
		ix.Insert(k, k)
		ix.Remove(k)
	}
}

// BenchmarkGetParallel measures the wait-free read path's scalability
// across goroutines while a single writer churns the tree concurrently,
// mirroring the specification's claim that readers never block.
func BenchmarkGetParallel(b *testing.B) {
	const n = 1 << 16
	ix, keys := newBenchIndex(n)

	stop := make(chan struct{})
	go func() {
		rng := rand.New(rand.NewPCG(1, 2))
		for {
			select {
			case <-stop:
				return
			default:
				k := keys[rng.IntN(len(keys))]
				ix.Remove(k)
				ix.Insert(k, k)
			}
		}
	}()
	defer close(stop)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewPCG(uint64(rand.Int64()), 0))
		for pb.Next() {
			ix.Get(keys[rng.IntN(n)])
		}
	})
}
