// Package cache holds the original text of analyzed files, keyed by file name.
package cache

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// Entry is a cached file.
type Entry struct {
	Text   string
	Digest string
}

// Cache is a concurrency-safe content cache. Writing the same name twice
// keeps the last write.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]Entry)}
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Put stores text under name and returns its digest.
func (c *Cache) Put(name, text string) string {
	digest := HashBytes([]byte(text))
	c.mu.Lock()
	c.entries[name] = Entry{Text: text, Digest: digest}
	c.mu.Unlock()
	return digest
}

// Get returns the text stored under name.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e.Text, ok
}

// Digest returns the BLAKE3 digest of the text stored under name.
func (c *Cache) Digest(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e.Digest, ok
}

// Len returns the number of cached files.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
