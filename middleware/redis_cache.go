package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/waveofmymind/simple-db/core"
	"github.com/waveofmymind/simple-db/logger"
	"github.com/waveofmymind/simple-db/model"
)

const cacheKeyPrefix = "simpledb:cache:"

func init() {
	gob.Register(time.Time{})
}

type cacheTTLKey struct{}

// WithCacheTTL enables result caching for queries run under ctx. A zero
// ttl disables caching, a negative one caches without expiry.
func WithCacheTTL(ctx context.Context, ttl time.Duration) context.Context {
	return context.WithValue(ctx, cacheTTLKey{}, ttl)
}

type cachedResult struct {
	Columns []string
	Rows    []model.Row
}

// RedisCacheMiddleware caches query rows in Redis. Only queries run on a
// pool-managed connection are cached. Statements on a held connection,
// pinned or reached through the owner on the context, may see uncommitted
// state and always go to the database.
type RedisCacheMiddleware struct {
	Client *redis.Client

	db     *core.DB
	logger logger.Logger
}

func NewRedisCache(opt *redis.Options) *RedisCacheMiddleware {
	return &RedisCacheMiddleware{
		Client: redis.NewClient(opt),
	}
}

func (m *RedisCacheMiddleware) Name() string {
	return "RedisCache"
}

func (m *RedisCacheMiddleware) Init(db *core.DB) error {
	m.db = db
	m.logger = db.Logger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Wrap(m.Client.Ping(ctx).Err(), "redis ping")
}

func (m *RedisCacheMiddleware) Shutdown() error {
	return m.Client.Close()
}

func (m *RedisCacheMiddleware) Process(ctx context.Context, stmt *core.Statement, next core.Handler) (*core.Result, error) {
	ttl, ok := ctx.Value(cacheTTLKey{}).(time.Duration)
	if !ok || ttl == 0 || stmt.Kind != core.KindQuery || stmt.Conn != nil {
		return next(ctx, stmt)
	}
	if m.db.Pool().Holds(ctx) {
		return next(ctx, stmt)
	}
	if ttl < 0 {
		ttl = 0
	}

	key := cacheKey(stmt)
	if raw, err := m.Client.Get(ctx, key).Bytes(); err == nil {
		var cached cachedResult
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&cached); err == nil {
			return &core.Result{Columns: cached.Columns, Rows: cached.Rows}, nil
		}
		m.logger.Warn("redis cache: dropping undecodable entry %s", key)
	} else if !errors.Is(err, redis.Nil) {
		m.logger.Warn("redis cache: get %s: %v", key, err)
	}

	res, err := next(ctx, stmt)
	if err != nil {
		return res, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cachedResult{Columns: res.Columns, Rows: res.Rows}); err != nil {
		m.logger.Warn("redis cache: encode: %v", err)
		return res, nil
	}
	if err := m.Client.Set(ctx, key, buf.Bytes(), ttl).Err(); err != nil {
		m.logger.Warn("redis cache: set %s: %v", key, err)
	}
	return res, nil
}

// Invalidate removes every cached result.
func (m *RedisCacheMiddleware) Invalidate(ctx context.Context) error {
	iter := m.Client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return m.Client.Del(ctx, keys...).Err()
}

func cacheKey(stmt *core.Statement) string {
	h := sha256.New()
	h.Write([]byte(stmt.SQL))
	for _, a := range stmt.Args {
		fmt.Fprintf(h, "|%T:%v", a, a)
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}
