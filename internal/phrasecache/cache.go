// Package phrasecache answers whether a response phrase has pre-rendered
// audio on disk. The cache is consulted only; population is an external
// concern (a build step renders the common phrases ahead of time).
package phrasecache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type manifest struct {
	Phrases []phraseEntry `yaml:"phrases"`
}

type phraseEntry struct {
	Text string `yaml:"text"`
	File string `yaml:"file"`
}

// Cache maps normalized phrase text to pre-rendered audio files.
type Cache struct {
	dir     string
	entries map[string]string
}

// Load reads a YAML manifest listing pre-rendered phrases. A missing
// manifest yields an empty cache, not an error: every lookup then misses and
// the speaker falls back to live synthesis.
func Load(manifestPath string) (*Cache, error) {
	cache := &Cache{entries: map[string]string{}}
	if strings.TrimSpace(manifestPath) == "" {
		return cache, nil
	}

	contents, err := os.ReadFile(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cache, nil
		}
		return nil, fmt.Errorf("failed to read phrase manifest %q: %w", manifestPath, err)
	}

	var m manifest
	if err := yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("failed to parse phrase manifest %q: %w", manifestPath, err)
	}

	cache.dir = filepath.Dir(manifestPath)
	for _, entry := range m.Phrases {
		key := normalizeKey(entry.Text)
		if key == "" || entry.File == "" {
			continue
		}
		cache.entries[key] = entry.File
	}
	return cache, nil
}

// IsCached reports whether text has pre-rendered audio.
func (c *Cache) IsCached(text string) bool {
	_, ok := c.entries[normalizeKey(text)]
	return ok
}

// Audio returns the pre-rendered audio for text. A manifest entry whose file
// has gone missing counts as a miss rather than an error.
func (c *Cache) Audio(text string) ([]byte, bool) {
	file, ok := c.entries[normalizeKey(text)]
	if !ok {
		return nil, false
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(c.dir, file)
	}
	pcm, err := os.ReadFile(file)
	if err != nil {
		return nil, false
	}
	return pcm, true
}

// Len reports how many phrases the manifest provided.
func (c *Cache) Len() int {
	return len(c.entries)
}

// normalizeKey lowercases and strips punctuation so that "Step 1." and
// "step 1" share a cache slot.
func normalizeKey(text string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
