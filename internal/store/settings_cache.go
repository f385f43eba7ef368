package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SettingsStore é o backend durável de configurações do jogo.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// SettingsCache faz read-through no Redis na frente do banco para as
// configurações consultadas a cada mensagem (ex: conta bancária exibida
// pelo comando do jogador).
type SettingsCache struct {
	Rdb  *redis.Client
	Next SettingsStore
	TTL  time.Duration
}

func NewSettingsCache(rdb *redis.Client, next SettingsStore, ttl time.Duration) *SettingsCache {
	return &SettingsCache{Rdb: rdb, Next: next, TTL: ttl}
}

func key(k string) string { return "setting:" + k }

func (c *SettingsCache) GetSetting(ctx context.Context, k string) (string, error) {
	v, err := c.Rdb.Get(ctx, key(k)).Result()
	if err == nil {
		return v, nil
	}
	// cache indisponível não bloqueia a leitura, segue pro banco
	v, err = c.Next.GetSetting(ctx, k)
	if err != nil {
		return "", err
	}
	if v != "" {
		_ = c.Rdb.Set(ctx, key(k), v, c.TTL).Err()
	}
	return v, nil
}

func (c *SettingsCache) SetSetting(ctx context.Context, k, value string) error {
	if err := c.Next.SetSetting(ctx, k, value); err != nil {
		return err
	}
	return c.Rdb.Set(ctx, key(k), value, c.TTL).Err()
}
