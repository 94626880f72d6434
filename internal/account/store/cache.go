package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"marina/internal/account/models"
	id "marina/pkg/domain"
)

// Cached decorates an account store with a Redis read-through cache on
// FindByID. Writes go straight through and drop the cached copy, so a stale
// read can survive at most one TTL. The lifecycle engine never reads through
// the cache for its check-then-write path (Execute bypasses it), so caching
// stays an optimization with no correctness semantics attached.
type Cached struct {
	inner  accountStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type accountStore interface {
	CreateIfEmailAvailable(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByID(ctx context.Context, accountID id.AccountID) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// NewCached wraps inner with a Redis read cache.
func NewCached(inner accountStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
}

// cacheEntry carries the full record including fields the public JSON
// representation omits.
type cacheEntry struct {
	Account      models.Account `json:"account"`
	PasswordHash string         `json:"password_hash"`
}

func cacheKey(accountID id.AccountID) string {
	return "account:" + accountID.String()
}

func (c *Cached) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	raw, err := c.client.Get(ctx, cacheKey(accountID)).Bytes()
	if err == nil {
		var entry cacheEntry
		if unmarshalErr := json.Unmarshal(raw, &entry); unmarshalErr == nil {
			entry.Account.PasswordHash = entry.PasswordHash
			return &entry.Account, nil
		}
		// Unreadable entry: fall through to the source of truth.
		c.evict(ctx, accountID)
	} else if !errors.Is(err, redis.Nil) {
		c.warn(ctx, "account cache read failed", err)
	}

	account, err := c.inner.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, account)
	return account, nil
}

func (c *Cached) CreateIfEmailAvailable(ctx context.Context, account *models.Account) error {
	return c.inner.CreateIfEmailAvailable(ctx, account)
}

func (c *Cached) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return c.inner.FindByEmail(ctx, email)
}

func (c *Cached) ExistsByID(ctx context.Context, accountID id.AccountID) (bool, error) {
	return c.inner.ExistsByID(ctx, accountID)
}

func (c *Cached) Update(ctx context.Context, account *models.Account) error {
	if err := c.inner.Update(ctx, account); err != nil {
		return err
	}
	c.evict(ctx, account.ID)
	return nil
}

func (c *Cached) Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	account, err := c.inner.Execute(ctx, accountID, validate, mutate)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, accountID)
	return account, nil
}

func (c *Cached) List(ctx context.Context) ([]*models.Account, error) {
	return c.inner.List(ctx)
}

func (c *Cached) fill(ctx context.Context, account *models.Account) {
	entry := cacheEntry{Account: *account, PasswordHash: account.PasswordHash}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(account.ID), raw, c.ttl).Err(); err != nil {
		c.warn(ctx, "account cache fill failed", err)
	}
}

func (c *Cached) evict(ctx context.Context, accountID id.AccountID) {
	if err := c.client.Del(ctx, cacheKey(accountID)).Err(); err != nil {
		c.warn(ctx, "account cache evict failed", err)
	}
}

func (c *Cached) warn(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}
