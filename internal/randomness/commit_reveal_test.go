package randomness

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

// memStore é um Store em memória para os testes
type memStore struct {
	mu       sync.Mutex
	current  *Seed
	revealed map[string]Seed
	nonces   map[settlement.Pubkey]uint64
}

func newMemStore() *memStore {
	return &memStore{revealed: map[string]Seed{}, nonces: map[settlement.Pubkey]uint64{}}
}

func (m *memStore) Current(context.Context) (Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Seed{}, ErrNoSeed
	}
	return *m.current, nil
}

func (m *memStore) Swap(_ context.Context, next Seed) (Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev Seed
	if m.current != nil {
		prev = *m.current
		m.revealed[prev.Commitment] = prev
	}
	m.current = &next
	return prev, nil
}

func (m *memStore) Revealed(_ context.Context, c string) (Seed, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.revealed[c]
	if !ok {
		return Seed{}, ErrSeedNotRevealed
	}
	return s, nil
}

func (m *memStore) NextNonce(_ context.Context, p settlement.Pubkey) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonces[p]++
	return m.nonces[p], nil
}

func TestCommitReveal_DrawWithoutSeed(t *testing.T) {
	cr := NewCommitReveal(newMemStore(), zap.NewNop())

	_, err := cr.Draw(context.Background(), "alice", 2)
	assert.ErrorIs(t, err, ErrNoSeed)
}

func TestCommitReveal_DrawIsVerifiableAfterRotation(t *testing.T) {
	ctx := context.Background()
	cr := NewCommitReveal(newMemStore(), zap.NewNop())

	seed, err := cr.EnsureSeed(ctx)
	require.NoError(t, err)

	commitment, err := cr.Commitment(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Commitment, commitment)

	var draws []settlement.Draw
	for i := 0; i < 16; i++ {
		d, err := cr.Draw(ctx, "alice", 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, d.Value, uint8(1))
		assert.Equal(t, commitment, d.Commitment)
		assert.Equal(t, uint64(i+1), d.Nonce)
		draws = append(draws, d)
	}

	// antes da rotação a seed não pode ser consultada
	_, err = cr.Revealed(ctx, commitment)
	require.ErrorIs(t, err, ErrSeedNotRevealed)

	revealed, next, err := cr.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed, revealed)
	assert.NotEqual(t, commitment, next.Commitment)

	got, err := cr.Revealed(ctx, commitment)
	require.NoError(t, err)
	for _, d := range draws {
		assert.NoError(t, Verify(got.Secret, d.Commitment, "alice", d.Nonce, 2, d.Value))
	}
}

func TestCommitReveal_EnsureSeedKeepsExisting(t *testing.T) {
	ctx := context.Background()
	cr := NewCommitReveal(newMemStore(), zap.NewNop())

	first, err := cr.EnsureSeed(ctx)
	require.NoError(t, err)
	second, err := cr.EnsureSeed(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCommitReveal_NoncesArePerParticipant(t *testing.T) {
	ctx := context.Background()
	cr := NewCommitReveal(newMemStore(), zap.NewNop())
	_, err := cr.EnsureSeed(ctx)
	require.NoError(t, err)

	a, err := cr.Draw(ctx, "alice", 2)
	require.NoError(t, err)
	b, err := cr.Draw(ctx, "bob", 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), a.Nonce)
	assert.Equal(t, uint64(1), b.Nonce)
}
