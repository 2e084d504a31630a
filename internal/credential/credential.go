// Package credential maps content domains to provider secrets, read
// from the persisted configuration store and cached in memory.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Group is the closed set of domains that each carry their own
// provider secret.
type Group string

const (
	GroupService Group = "service"
	GroupJob     Group = "job"
	GroupNews    Group = "news"
)

// Groups lists every credential group.
var Groups = []Group{GroupService, GroupJob, GroupNews}

var (
	// ErrInvalidGroup indicates an unrecognized group value.
	ErrInvalidGroup = errors.New("credential group is invalid")
	// ErrConfigMissing indicates the store has no secret for a group.
	ErrConfigMissing = errors.New("no credential configured for group")
)

// ParseGroup converts user input into a Group.
func ParseGroup(s string) (Group, error) {
	switch Group(strings.ToLower(strings.TrimSpace(s))) {
	case GroupService:
		return GroupService, nil
	case GroupJob:
		return GroupJob, nil
	case GroupNews:
		return GroupNews, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
}

// StoreKey is the configuration-store key holding the group's secret.
func (g Group) StoreKey() string {
	return "translate_api_key_" + string(g)
}

// KeyStore is the persisted configuration store the cache reads
// through. ErrNotFound from GetValue maps to ErrConfigMissing.
type KeyStore interface {
	GetValue(ctx context.Context, key string) (string, error)
	IsNotFound(err error) bool
}

// Cache is a process-local read-through cache of group secrets. Reads
// dominate; writes happen on first access or explicit invalidation.
// Racing first reads may both hit the store, which is harmless since
// the fetch is idempotent.
type Cache struct {
	store KeyStore

	mu      sync.RWMutex
	secrets map[Group]string
}

// NewCache builds a cache over the given store.
func NewCache(store KeyStore) *Cache {
	return &Cache{
		store:   store,
		secrets: make(map[Group]string),
	}
}

// Get returns the group's secret, reading from the store on a cache
// miss. A cached value stays until Invalidate is called; writes to the
// underlying store do not refresh it on their own.
func (c *Cache) Get(ctx context.Context, group Group) (string, error) {
	c.mu.RLock()
	secret, ok := c.secrets[group]
	c.mu.RUnlock()
	if ok {
		return secret, nil
	}

	secret, err := c.store.GetValue(ctx, group.StoreKey())
	if err != nil {
		if c.store.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", ErrConfigMissing, group)
		}
		return "", fmt.Errorf("read credential for %s: %w", group, err)
	}

	c.mu.Lock()
	c.secrets[group] = secret
	c.mu.Unlock()
	return secret, nil
}

// Invalidate drops the cached secret so the next Get re-reads the
// store. Called after a credential write and by the key-test flow.
func (c *Cache) Invalidate(group Group) {
	c.mu.Lock()
	delete(c.secrets, group)
	c.mu.Unlock()
}
