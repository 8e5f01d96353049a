package assets

import "adlibscraper/pkg/models"

// SeenCache maps asset identities to local file paths, partitioned by
// asset kind. It lives for one run, is populated only by successful
// downloads, and is never evicted. Construct one per pipeline so tests
// can inject a pre-seeded or empty cache.
type SeenCache struct {
	byKind map[models.AssetKind]map[string]string
}

// NewSeenCache creates an empty cache
func NewSeenCache() *SeenCache {
	return &SeenCache{
		byKind: make(map[models.AssetKind]map[string]string),
	}
}

// Lookup returns the cached local path for an identity, if present
func (c *SeenCache) Lookup(kind models.AssetKind, identity string) (string, bool) {
	paths, ok := c.byKind[kind]
	if !ok {
		return "", false
	}
	path, ok := paths[identity]
	return path, ok
}

// Register records a successful download for an identity
func (c *SeenCache) Register(kind models.AssetKind, identity, localPath string) {
	paths, ok := c.byKind[kind]
	if !ok {
		paths = make(map[string]string)
		c.byKind[kind] = paths
	}
	paths[identity] = localPath
}

// Len returns the number of cached identities for a kind
func (c *SeenCache) Len(kind models.AssetKind) int {
	return len(c.byKind[kind])
}

// Size returns the total number of cached identities across all kinds
func (c *SeenCache) Size() int {
	n := 0
	for _, paths := range c.byKind {
		n += len(paths)
	}
	return n
}
