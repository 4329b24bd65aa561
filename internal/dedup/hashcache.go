package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// fingerprint identifies one observed state of a file without reading its
// content. A cached digest is valid only while the fingerprint matches.
type fingerprint struct {
	size    int64
	modTime int64
}

type cacheEntry struct {
	fp     fingerprint
	digest string
}

// CacheStats reports cache effectiveness for one HashCache instance.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// HashCache memoizes content digests per path. Each cache is owned by one
// detector instance; there is no process-wide cache.
type HashCache struct {
	fs afero.Fs

	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64

	group singleflight.Group
}

// NewHashCache creates a cache backed by the host filesystem.
func NewHashCache() *HashCache {
	return NewHashCacheWithFS(afero.NewOsFs())
}

// NewHashCacheWithFS creates a cache backed by the given filesystem.
func NewHashCacheWithFS(fsys afero.Fs) *HashCache {
	return &HashCache{
		fs:      fsys,
		entries: make(map[string]cacheEntry),
	}
}

// Digest returns the SHA-256 digest of the file at path. A cached digest is
// returned without reading content when the file's size and modification
// time are unchanged since it was computed. Concurrent calls for the same
// path share a single read.
func (c *HashCache) Digest(path string) (string, error) {
	info, err := c.fs.Stat(path)
	if err != nil {
		return "", err
	}
	fp := fingerprint{size: info.Size(), modTime: info.ModTime().UnixNano()}

	c.mu.Lock()
	if entry, ok := c.entries[path]; ok && entry.fp == fp {
		c.hits++
		c.mu.Unlock()
		return entry.digest, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err, _ := c.group.Do(path, func() (any, error) {
		return hashFile(c.fs, path)
	})
	if err != nil {
		return "", err
	}
	digest := v.(string)

	c.mu.Lock()
	c.entries[path] = cacheEntry{fp: fp, digest: digest}
	c.mu.Unlock()

	return digest, nil
}

// Clear drops every cached digest. The next Digest call for any path reads
// content again. Hit and miss counters are preserved.
func (c *HashCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns a snapshot of the cache counters.
func (c *HashCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries)}
}

// hashFile streams the file content through SHA-256.
func hashFile(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
