// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command critnibdemo drives a critnib.Index with one writer and
// several concurrent readers, logging periodic stats, to demonstrate
// the index's wait-free read path under sustained churn.
package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/critnib/critnib"
)

func main() {
	readers := flag.Int("readers", 4, "number of concurrent reader goroutines")
	keyRange := flag.Uint64("range", 1<<16, "key range [0, range)")
	statsEvery := flag.Duration("stats-every", time.Second, "stats logging interval")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ix := critnib.New[uint64]()

	var wg sync.WaitGroup
	wg.Add(*readers + 2)

	go func() {
		defer wg.Done()
		writer(ctx, ix, *keyRange)
	}()

	for i := 0; i < *readers; i++ {
		go func(id int) {
			defer wg.Done()
			reader(ctx, ix, *keyRange, id)
		}(i)
	}

	go func() {
		defer wg.Done()
		reportStats(ctx, ix, *statsEvery)
	}()

	wg.Wait()
	log.Printf("shutdown complete, final stats: %+v", ix.Stats())
}

func writer(ctx context.Context, ix *critnib.Index[uint64], keyRange uint64) {
	rng := rand.New(rand.NewPCG(1, 1))
	for ctx.Err() == nil {
		k := rng.Uint64N(keyRange)
		if rng.IntN(2) == 0 {
			if err := ix.Insert(k, k+1); err != nil && err != critnib.ErrExist {
				log.Printf("insert(%d): %v", k, err)
			}
		} else {
			ix.Remove(k)
		}
	}
}

func reader(ctx context.Context, ix *critnib.Index[uint64], keyRange uint64, id int) {
	rng := rand.New(rand.NewPCG(uint64(id)+2, 0))
	for ctx.Err() == nil {
		k := rng.Uint64N(keyRange)
		ix.Get(k)
		ix.FindLE(k)
	}
}

func reportStats(ctx context.Context, ix *critnib.Index[uint64], every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.Printf("stats: %+v", ix.Stats())
		}
	}
}
