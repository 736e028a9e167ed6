package tts

import (
	"os"
	"path/filepath"
)

// Cache is the on-disk artifact store. Artifacts live under <dir>/tts named
// <cache-key>.<format>. The cache is unbounded and never invalidated except
// by external deletion; a valid file is reused indefinitely.
type Cache struct {
	dir      string // absolute or relative static root
	minBytes int64
}

// NewCache creates the cache rooted at staticDir and ensures the tts
// subdirectory exists.
func NewCache(staticDir string) (*Cache, error) {
	c := &Cache{dir: staticDir, minBytes: MinValidBytes}
	if err := os.MkdirAll(filepath.Join(staticDir, "tts"), 0o755); err != nil {
		return nil, err
	}
	return c, nil
}

// Path returns the on-disk location for a cache file name.
func (c *Cache) Path(name string) string {
	return filepath.Join(c.dir, "tts", name)
}

// URL returns the public URL for a cache file name, served under /static.
func (c *Cache) URL(name string) string {
	return "/static/tts/" + name
}

// Lookup reports the size of a cached artifact and whether it is valid.
// Undersized files count as misses so truncated renders are re-synthesized.
func (c *Cache) Lookup(name string) (int64, bool) {
	info, err := os.Stat(c.Path(name))
	if err != nil {
		return 0, false
	}
	return info.Size(), info.Size() >= c.minBytes
}

// SizeOf returns the current size of a file, zero when absent.
func (c *Cache) SizeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
