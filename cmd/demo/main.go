// Demo program: opens a page store, creates and commits a page, closes
// and reopens it to show the committed bytes survive, grounded in the
// teacher's cmd/seed program's build-it-and-run-it style.
// Run: go run ./cmd/demo
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"pagestore"
	"pagestore/config"
	"pagestore/pagecache"
	"pagestore/pagelog"
	"pagestore/persistence"
)

const dbPath = "databases/demo.pages"

func main() {
	if err := os.MkdirAll("databases", 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	cfg := pagestoreconfig.Config{PageSize: 4096, CacheCapacityPages: 256}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	cache := pagecache.New(cfg.CacheOptions(), pagelog.Default("cache"))

	store, err := pagestore.Open(persistence.OS{}, cache, dbPath, cfg, pagelog.Default("store"))
	if err != nil {
		log.Fatalf("open: %v", err)
	}

	pg, err := store.Create(1)
	if err != nil {
		log.Fatalf("create: %v", err)
	}

	payload := bytes.Repeat([]byte{0xAA}, cfg.PageSize)
	if err := store.Write(1, pg.ID(), payload, 0, 0, len(payload)); err != nil {
		log.Fatalf("write: %v", err)
	}

	if err := store.Commit(1); err != nil {
		log.Fatalf("commit: %v", err)
	}

	fmt.Printf("committed page %d, cache stats: %s\n", pg.ID(), cache.Stats())

	if err := store.Close(); err != nil {
		log.Fatalf("close: %v", err)
	}

	reopened, err := pagestore.Open(persistence.OS{}, cache, dbPath, cfg, pagelog.Default("store"))
	if err != nil {
		log.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Retrieve(pg.ID())
	if err != nil {
		log.Fatalf("retrieve: %v", err)
	}
	fmt.Printf("retrieved page %d after reopen, matches=%v\n", got.ID(), bytes.Equal(got.Data(), payload))
}
