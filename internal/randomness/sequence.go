package randomness

import (
	"context"
	"errors"
	"sync"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

// Sequence devolve valores fixos em ordem, ciclando. Usada em testes e em ambiente local.
type Sequence struct {
	mu     sync.Mutex
	values []uint8
	calls  int
}

func NewSequence(values ...uint8) *Sequence {
	return &Sequence{values: values}
}

func (s *Sequence) Draw(_ context.Context, _ settlement.Pubkey, _ uint8) (settlement.Draw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.values) == 0 {
		return settlement.Draw{}, errors.New("empty sequence")
	}
	v := s.values[s.calls%len(s.values)]
	s.calls++
	return settlement.Draw{Value: v, Nonce: uint64(s.calls)}, nil
}

// Calls devolve quantos sorteios foram feitos.
func (s *Sequence) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
