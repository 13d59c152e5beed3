package services

import (
	"context"
	"time"

	"github.com/PauloHFS/hcportal/internal/db"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// UserCache evita um SELECT por requisição autenticada. Toda escrita em users
// feita pelos services chama Invalidate.
type UserCache struct {
	queries *db.Queries
	lru     *expirable.LRU[int64, db.User]
}

func NewUserCache(queries *db.Queries, size int, ttl time.Duration) *UserCache {
	return &UserCache{
		queries: queries,
		lru:     expirable.NewLRU[int64, db.User](size, nil, ttl),
	}
}

func (c *UserCache) Get(ctx context.Context, id int64) (db.User, error) {
	if user, ok := c.lru.Get(id); ok {
		return user, nil
	}
	user, err := c.queries.GetUserByID(ctx, id)
	if err != nil {
		return db.User{}, err
	}
	c.lru.Add(id, user)
	return user, nil
}

func (c *UserCache) Invalidate(id int64) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}

func (c *UserCache) Len() int {
	return c.lru.Len()
}
