package randomness

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

const maxSwapAttempts = 5

var ErrSwapConflict = errors.New("seed swap conflicted with a concurrent rotation")

// RedisStore persiste seed e nonces no Redis.
// Chaves:
//   - {prefix}:seed:current   => JSON da seed corrente
//   - {prefix}:seed:revealed  => hash commitment -> JSON da seed revelada
//   - {prefix}:nonce:{pubkey} => contador INCR por participante
type RedisStore struct {
	Client *redis.Client
	Prefix string
}

func NewRedisStore(c *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "coinflip"
	}
	return &RedisStore{Client: c, Prefix: prefix}
}

func (s *RedisStore) keyCurrent() string  { return s.Prefix + ":seed:current" }
func (s *RedisStore) keyRevealed() string { return s.Prefix + ":seed:revealed" }
func (s *RedisStore) keyNonce(p settlement.Pubkey) string {
	return s.Prefix + ":nonce:" + string(p)
}

func (s *RedisStore) Current(ctx context.Context) (Seed, error) {
	b, err := s.Client.Get(ctx, s.keyCurrent()).Bytes()
	if err == redis.Nil {
		return Seed{}, ErrNoSeed
	}
	if err != nil {
		return Seed{}, err
	}
	var seed Seed
	return seed, json.Unmarshal(b, &seed)
}

// Swap instala a nova seed e arquiva a anterior como revelada numa única transação
// (WATCH + MULTI/EXEC): ou as duas escritas acontecem, ou nenhuma.
func (s *RedisStore) Swap(ctx context.Context, next Seed) (Seed, error) {
	b, err := json.Marshal(next)
	if err != nil {
		return Seed{}, err
	}

	var prev Seed
	swap := func(tx *redis.Tx) error {
		prev = Seed{}
		old, err := tx.Get(ctx, s.keyCurrent()).Bytes()
		if err != nil && err != redis.Nil {
			return err
		}
		hasPrev := err == nil
		if hasPrev {
			if err := json.Unmarshal(old, &prev); err != nil {
				return err
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.keyCurrent(), b, 0)
			if hasPrev {
				pipe.HSet(ctx, s.keyRevealed(), prev.Commitment, old)
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxSwapAttempts; i++ {
		err := s.Client.Watch(ctx, swap, s.keyCurrent())
		if err == redis.TxFailedErr {
			continue // outra rotação concorrente; tenta de novo
		}
		if err != nil {
			return Seed{}, err
		}
		return prev, nil
	}
	return Seed{}, ErrSwapConflict
}

func (s *RedisStore) Revealed(ctx context.Context, commitment string) (Seed, error) {
	b, err := s.Client.HGet(ctx, s.keyRevealed(), commitment).Bytes()
	if err == redis.Nil {
		return Seed{}, ErrSeedNotRevealed
	}
	if err != nil {
		return Seed{}, err
	}
	var seed Seed
	return seed, json.Unmarshal(b, &seed)
}

func (s *RedisStore) NextNonce(ctx context.Context, p settlement.Pubkey) (uint64, error) {
	n, err := s.Client.Incr(ctx, s.keyNonce(p)).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
