package randomness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoll_Deterministic(t *testing.T) {
	v1, d1 := Roll("secret", "alice", 7, 2)
	v2, d2 := Roll("secret", "alice", 7, 2)

	assert.Equal(t, v1, v2)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	_, d3 := Roll("secret", "alice", 8, 2)
	assert.NotEqual(t, d1, d3)
}

func TestRoll_CoversBothSides(t *testing.T) {
	seen := map[uint8]int{}
	for n := uint64(1); n <= 200; n++ {
		v, _ := Roll("fixed-seed", "alice", n, 2)
		seen[v]++
	}
	assert.Len(t, seen, 2)
	assert.Greater(t, seen[0], 50)
	assert.Greater(t, seen[1], 50)
}

func TestNewSeed(t *testing.T) {
	a, err := NewSeed()
	require.NoError(t, err)
	b, err := NewSeed()
	require.NoError(t, err)

	assert.NotEqual(t, a.Secret, b.Secret)
	assert.Equal(t, Commit(a.Secret), a.Commitment)
}

func TestVerify(t *testing.T) {
	secret := "0f0e0d"
	commitment := Commit(secret)
	v, _ := Roll(secret, "alice", 3, 2)

	assert.NoError(t, Verify(secret, commitment, "alice", 3, 2, v))
	assert.ErrorIs(t, Verify(secret, commitment, "alice", 3, 2, 1-v), ErrRollMismatch)
	assert.ErrorIs(t, Verify("other", commitment, "alice", 3, 2, v), ErrCommitmentFailed)
}

func TestSequence(t *testing.T) {
	ctx := context.Background()
	s := NewSequence(1, 0)

	d, err := s.Draw(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), d.Value)
	d, _ = s.Draw(ctx, "alice", 2)
	assert.Equal(t, uint8(0), d.Value)
	d, _ = s.Draw(ctx, "alice", 2)
	assert.Equal(t, uint8(1), d.Value)
	assert.Equal(t, 3, s.Calls())

	_, err = NewSequence().Draw(ctx, "alice", 2)
	assert.Error(t, err)
}
