package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis implements Store on a Redis server. Batches run as MULTI/EXEC
// transactions, so their operations apply atomically from the point of
// view of any other client.
type Redis struct {
	rdb redis.UniversalClient
}

// RedisConfig holds connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

var _ Store = (*Redis)(nil)

// NewRedis connects a Store to a single Redis node.
func NewRedis(cfg RedisConfig) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}
}

// NewRedisWithClient wraps an existing client; the caller keeps
// ownership of it.
func NewRedisWithClient(client redis.UniversalClient) *Redis {
	return &Redis{rdb: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *Redis) SetNX(ctx context.Context, key, value string) (bool, error) {
	return r.rdb.SetNX(ctx, key, value, 0).Result()
}

func (r *Redis) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	return r.rdb.IncrBy(ctx, key, delta).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

func (r *Redis) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) Batch() Batch { return &redisBatch{rdb: r.rdb} }

type opKind int

const (
	opGet opKind = iota
	opSet
	opSetNX
	opIncr
	opDel
)

type batchOp struct {
	kind  opKind
	key   string
	keys  []string
	value string
	ttl   time.Duration
	delta int64
}

type redisBatch struct {
	rdb redis.UniversalClient
	ops []batchOp
}

func (b *redisBatch) Get(key string) {
	b.ops = append(b.ops, batchOp{kind: opGet, key: key})
}

func (b *redisBatch) Set(key, value string, ttl time.Duration) {
	b.ops = append(b.ops, batchOp{kind: opSet, key: key, value: value, ttl: ttl})
}

func (b *redisBatch) SetNX(key, value string) {
	b.ops = append(b.ops, batchOp{kind: opSetNX, key: key, value: value})
}

func (b *redisBatch) Incr(key string, delta int64) {
	b.ops = append(b.ops, batchOp{kind: opIncr, key: key, delta: delta})
}

func (b *redisBatch) Del(keys ...string) {
	b.ops = append(b.ops, batchOp{kind: opDel, keys: keys})
}

func (b *redisBatch) Exec(ctx context.Context) ([]Result, error) {
	pipe := b.rdb.TxPipeline()
	cmds := make([]redis.Cmder, len(b.ops))
	for i, op := range b.ops {
		switch op.kind {
		case opGet:
			cmds[i] = pipe.Get(ctx, op.key)
		case opSet:
			cmds[i] = pipe.Set(ctx, op.key, op.value, op.ttl)
		case opSetNX:
			cmds[i] = pipe.SetNX(ctx, op.key, op.value, 0)
		case opIncr:
			cmds[i] = pipe.IncrBy(ctx, op.key, op.delta)
		case opDel:
			cmds[i] = pipe.Del(ctx, op.keys...)
		}
	}

	// Exec reports redis.Nil when any GET inside the transaction
	// misses; a miss is a per-command outcome, not a batch failure.
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	out := make([]Result, len(cmds))
	for i, cmd := range cmds {
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, err := c.Result()
			if err == redis.Nil {
				out[i] = Result{}
			} else if err != nil {
				return nil, err
			} else {
				out[i] = Result{Value: v, Found: true}
			}
		case *redis.StatusCmd:
			if err := c.Err(); err != nil {
				return nil, err
			}
			out[i] = Result{Found: true}
		case *redis.BoolCmd:
			v, err := c.Result()
			if err != nil {
				return nil, err
			}
			out[i] = Result{Found: v}
		case *redis.IntCmd:
			v, err := c.Result()
			if err != nil {
				return nil, err
			}
			out[i] = Result{Int: v}
		default:
			return nil, fmt.Errorf("kv: unexpected command type %T", cmd)
		}
	}
	return out, nil
}
