package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/naka-gawa/namespace-stats/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultExpiry is how long a contributor dataset stays valid.
const DefaultExpiry = 30 * time.Minute

const keyPrefix = "github_contributors_"

// Entry is a cached contributor dataset and the time it was written.
type Entry struct {
	Dataset   domain.ContributorDataset `json:"data"`
	WrittenAt time.Time                 `json:"timestamp"`
}

// ContributorCache stores one contributor dataset per identity.
type ContributorCache struct {
	store  Store
	expiry time.Duration
	now    func() time.Time
}

// NewContributorCache wraps store. A non-positive expiry falls back to DefaultExpiry.
func NewContributorCache(store Store, expiry time.Duration, opts ...Option) *ContributorCache {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &ContributorCache{
		store:  store,
		expiry: expiry,
		now:    buildOptions(opts).now,
	}
}

// Key derives the storage key of an identity.
func Key(user string) string {
	return keyPrefix + user
}

// Expiry returns the configured validity window.
func (c *ContributorCache) Expiry() time.Duration {
	return c.expiry
}

// Load returns the entry of user, or ErrMiss when absent or expired.
// An entry that cannot be decoded is removed and reported as an error.
func (c *ContributorCache) Load(ctx context.Context, user string) (*Entry, error) {
	key := Key(user)
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = c.store.Delete(ctx, key)
		return nil, fmt.Errorf("failed to decode cache entry %q: %w", key, err)
	}
	if c.now().Sub(entry.WrittenAt) >= c.expiry {
		_ = c.store.Delete(ctx, key)
		return nil, ErrMiss
	}
	return &entry, nil
}

// Save writes dataset for user, stamped with the current time.
func (c *ContributorCache) Save(ctx context.Context, user string, dataset domain.ContributorDataset) (*Entry, error) {
	entry := &Entry{Dataset: dataset, WrittenAt: c.now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry for %q: %w", user, err)
	}
	if err := c.store.Set(ctx, Key(user), raw, c.expiry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Clear removes the entry of user.
func (c *ContributorCache) Clear(ctx context.Context, user string) error {
	return c.store.Delete(ctx, Key(user))
}

// Remaining returns how long the entry of user stays valid; zero when there is none.
func (c *ContributorCache) Remaining(ctx context.Context, user string) (time.Duration, error) {
	entry, err := c.Load(ctx, user)
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	left := c.expiry - c.now().Sub(entry.WrittenAt)
	if ttl, err := c.store.TTL(ctx, Key(user)); err == nil && ttl >= 0 && ttl < left {
		left = ttl
	}
	if left < 0 {
		left = 0
	}
	return left, nil
}
