package randomness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

var (
	ErrNoSeed           = errors.New("no server seed committed")
	ErrSeedNotRevealed  = errors.New("server seed not revealed")
	ErrCommitmentFailed = errors.New("seed does not match commitment")
	ErrRollMismatch     = errors.New("draw does not match revealed seed")
)

// Seed é a server seed secreta e o seu compromisso (sha256 hex), publicado antes das jogadas.
type Seed struct {
	Secret     string    `json:"secret"`
	Commitment string    `json:"commitment"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSeed gera uma seed de 32 bytes.
func NewSeed() (Seed, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return Seed{}, fmt.Errorf("generate seed: %w", err)
	}
	secret := hex.EncodeToString(b)
	return Seed{Secret: secret, Commitment: Commit(secret), CreatedAt: time.Now().UTC()}, nil
}

// Commit devolve o hash publicado para a seed.
func Commit(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Roll calcula o sorteio: HMAC-SHA256(seed, "participant:nonce"), primeiros 8 bytes mod sides.
func Roll(secret string, participant settlement.Pubkey, nonce uint64, sides uint8) (uint8, string) {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(fmt.Sprintf("%s:%d", participant, nonce)))
	sum := h.Sum(nil)

	n := binary.BigEndian.Uint64(sum[:8])
	return uint8(n % uint64(sides)), hex.EncodeToString(sum)
}

// Verify confere um sorteio a partir da seed revelada.
func Verify(secret, commitment string, participant settlement.Pubkey, nonce uint64, sides, value uint8) error {
	if Commit(secret) != commitment {
		return ErrCommitmentFailed
	}
	if sides == 0 {
		return fmt.Errorf("sides must be positive")
	}
	if got, _ := Roll(secret, participant, nonce, sides); got != value {
		return fmt.Errorf("%w: got %d, want %d", ErrRollMismatch, got, value)
	}
	return nil
}
