package accountrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/prasastie/munggah/pkg/cache"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
)

type CachedConfig struct {
	Persistent     Repo          `validate:"required"`
	CacheExpiry    time.Duration `validate:"required"`
	CachePrefixKey string        `validate:"required,alphanum"`
	Cache          cache.Cache   `validate:"required"`
}

// CachedRepo decorates the persistent repo with a read-through cache on
// username lookups. Authorization hits this on every guarded request.
type CachedRepo struct {
	Config CachedConfig
}

var _ Repo = (*CachedRepo)(nil)

func NewCached(cfg CachedConfig) (*CachedRepo, error) {
	if err := validator.Validate(cfg); err != nil {
		return nil, err
	}

	return &CachedRepo{
		Config: cfg,
	}, nil
}

func (c *CachedRepo) Create(ctx context.Context, in InputCreate) (out OutCreate, err error) {
	out, err = c.Config.Persistent.Create(ctx, in)
	if err != nil {
		err = fmt.Errorf("persist account to db error: %w", err)
		return
	}

	// if ok, save to cache
	c.setByUsername(ctx, out.Account)
	return
}

func (c *CachedRepo) GetByUsername(ctx context.Context, in InputGetByUsername) (out OutGetByUsername, err error) {
	// Get from cache first
	account, err := c.getByUsername(ctx, in.Username)
	if err == nil && account.Username == in.Username {
		out = OutGetByUsername{
			Account: account,
		}
		return
	}

	// If error occurred, then try get from persistent storage
	if err != nil {
		ylog.Debug(ctx, fmt.Sprintf("account username %s error get from cache", in.Username), ylog.KV("error", err))
		err = nil
	}

	out, err = c.Config.Persistent.GetByUsername(ctx, in)
	if err != nil {
		err = fmt.Errorf("persistence storage fetch error: %w", err)
		return
	}

	// Try cache, only log when error
	c.setByUsername(ctx, out.Account)
	return
}

// List will not use cache. It hard to maintain list in cache.
func (c *CachedRepo) List(ctx context.Context, in InputList) (out OutList, err error) {
	return c.Config.Persistent.List(ctx, in)
}

func (c *CachedRepo) DelByUsername(ctx context.Context, in InputDelByUsername) (out OutDelByUsername, err error) {
	out, err = c.Config.Persistent.DelByUsername(ctx, in)
	if err != nil {
		return
	}

	err = c.delByUsername(ctx, in.Username)
	return
}

// -- cache

func (c *CachedRepo) genCacheKeyByUsername(username string) string {
	return fmt.Sprintf("%s:%s", c.Config.CachePrefixKey, username)
}

func (c *CachedRepo) getByUsername(ctx context.Context, username string) (Account, error) {
	var account Account
	err := c.Config.Cache.GetAs(ctx, c.genCacheKeyByUsername(username), &account)
	if err != nil {
		return Account{}, err
	}

	ylog.Debug(ctx, fmt.Sprintf("get account username %s from cache", username))
	return account, nil
}

func (c *CachedRepo) setByUsername(ctx context.Context, account Account) {
	err := c.Config.Cache.SetExp(ctx, c.genCacheKeyByUsername(account.Username), account, c.Config.CacheExpiry)
	if err != nil {
		ylog.Error(ctx, fmt.Sprintf("cannot save cache account username %s", account.Username), ylog.KV("error", err))
		return
	}

	ylog.Debug(ctx, fmt.Sprintf("caching account username %s", account.Username))
}

func (c *CachedRepo) delByUsername(ctx context.Context, username string) error {
	return c.Config.Cache.Delete(ctx, c.genCacheKeyByUsername(username))
}
