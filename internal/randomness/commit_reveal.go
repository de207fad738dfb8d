package randomness

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

// Store guarda a seed corrente, as seeds reveladas e os nonces por participante.
type Store interface {
	Current(ctx context.Context) (Seed, error)
	Swap(ctx context.Context, next Seed) (prev Seed, err error)
	Revealed(ctx context.Context, commitment string) (Seed, error)
	NextNonce(ctx context.Context, participant settlement.Pubkey) (uint64, error)
}

// CommitReveal é a fonte de aleatoriedade de produção.
// A seed é comprometida (hash publicado) antes das jogadas e só é revelada na rotação,
// então nem o operador nem o jogador conseguem escolher o resultado depois do fato.
type CommitReveal struct {
	store Store
	log   *zap.Logger
}

func NewCommitReveal(store Store, log *zap.Logger) *CommitReveal {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommitReveal{store: store, log: log}
}

// Draw implementa settlement.RandomSource.
func (c *CommitReveal) Draw(ctx context.Context, participant settlement.Pubkey, sides uint8) (settlement.Draw, error) {
	if sides == 0 {
		return settlement.Draw{}, fmt.Errorf("sides must be positive")
	}
	seed, err := c.store.Current(ctx)
	if err != nil {
		return settlement.Draw{}, fmt.Errorf("current seed: %w", err)
	}
	nonce, err := c.store.NextNonce(ctx, participant)
	if err != nil {
		return settlement.Draw{}, fmt.Errorf("next nonce: %w", err)
	}

	value, digest := Roll(seed.Secret, participant, nonce, sides)
	return settlement.Draw{
		Value:      value,
		Nonce:      nonce,
		Digest:     digest,
		Commitment: seed.Commitment,
	}, nil
}

// EnsureSeed compromete uma seed nova se ainda não houver nenhuma.
func (c *CommitReveal) EnsureSeed(ctx context.Context) (Seed, error) {
	seed, err := c.store.Current(ctx)
	if err == nil {
		return seed, nil
	}
	if !errors.Is(err, ErrNoSeed) {
		return Seed{}, err
	}
	_, next, err := c.Rotate(ctx)
	return next, err
}

// Commitment devolve o hash da seed corrente (nunca o segredo).
func (c *CommitReveal) Commitment(ctx context.Context) (string, error) {
	seed, err := c.store.Current(ctx)
	if err != nil {
		return "", err
	}
	return seed.Commitment, nil
}

// Rotate revela a seed corrente e compromete uma nova.
func (c *CommitReveal) Rotate(ctx context.Context) (revealed Seed, next Seed, err error) {
	next, err = NewSeed()
	if err != nil {
		return Seed{}, Seed{}, err
	}
	revealed, err = c.store.Swap(ctx, next)
	if err != nil {
		return Seed{}, Seed{}, fmt.Errorf("swap seed: %w", err)
	}
	c.log.Info("server seed rotated",
		zap.String("revealed_commitment", revealed.Commitment),
		zap.String("commitment", next.Commitment),
	)
	return revealed, next, nil
}

// Revealed busca uma seed já revelada pelo seu compromisso.
func (c *CommitReveal) Revealed(ctx context.Context, commitment string) (Seed, error) {
	return c.store.Revealed(ctx, commitment)
}
