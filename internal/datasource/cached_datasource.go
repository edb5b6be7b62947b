package datasource

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/zakaria-lahyani/backtester/internal/frame"
)

// CachedDataSource wraps a DataSource and serves repeated loads of the same
// file and columns from memory. Loaded frames are never modified, so one
// cached frame can be handed to many concurrently running strategies.
type CachedDataSource struct {
	underlying  DataSource
	frameCache  map[string]*frame.Frame
	schemaCache map[string][]string
	mu          sync.RWMutex
}

// NewCachedDataSource creates a new CachedDataSource wrapping the given DataSource.
func NewCachedDataSource(underlying DataSource) *CachedDataSource {
	return &CachedDataSource{
		underlying:  underlying,
		frameCache:  make(map[string]*frame.Frame),
		schemaCache: make(map[string][]string),
		mu:          sync.RWMutex{},
	}
}

// ClearCache drops every cached frame and schema.
func (c *CachedDataSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frameCache = make(map[string]*frame.Frame)
	c.schemaCache = make(map[string][]string)
}

// LoadColumns implements DataSource with caching. Failed loads are not cached.
func (c *CachedDataSource) LoadColumns(ctx context.Context, path string, columns []string) (*frame.Frame, error) {
	key := buildFrameKey(path, columns)

	c.mu.RLock()
	if f, ok := c.frameCache[key]; ok {
		c.mu.RUnlock()

		return f, nil
	}
	c.mu.RUnlock()

	f, err := c.underlying.LoadColumns(ctx, path, columns)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another strategy may have loaded it meanwhile; keep the first
	if cached, ok := c.frameCache[key]; ok {
		return cached, nil
	}

	c.frameCache[key] = f

	return f, nil
}

// ReadSchema implements DataSource with caching.
func (c *CachedDataSource) ReadSchema(ctx context.Context, path string) ([]string, error) {
	c.mu.RLock()
	if columns, ok := c.schemaCache[path]; ok {
		c.mu.RUnlock()

		return columns, nil
	}
	c.mu.RUnlock()

	columns, err := c.underlying.ReadSchema(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.schemaCache[path] = columns
	c.mu.Unlock()

	return columns, nil
}

// Close implements DataSource.
func (c *CachedDataSource) Close() error {
	c.ClearCache()

	return c.underlying.Close()
}

// Len returns the number of cached frames.
func (c *CachedDataSource) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.frameCache)
}

func buildFrameKey(path string, columns []string) string {
	sorted := append([]string(nil), columns...)
	sort.Strings(sorted)

	return path + "|" + strings.Join(sorted, ",")
}
