package settlement

import (
	"context"
	"fmt"
	"strings"
)

// Pubkey identifica uma conta no ledger (endereço público).
type Pubkey string

// Side é um dos lados da moeda; usado tanto para a escolha quanto para o resultado.
type Side uint8

const (
	Heads Side = 0
	Tails Side = 1
)

func (s Side) String() string {
	switch s {
	case Heads:
		return "heads"
	case Tails:
		return "tails"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide aceita "heads"/"tails" (ou "0"/"1"), como o cliente envia.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads", "h", "0":
		return Heads, nil
	case "tails", "t", "1":
		return Tails, nil
	}
	return 0, fmt.Errorf("%w: unknown side %q", ErrMalformedInput, s)
}

// AccountInfo é o handle de conta passado pelo host na invocação.
// O primeiro da lista é sempre o participante.
type AccountInfo struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool
}

// WagerRequest é o payload decodificado da instrução (9 bytes).
type WagerRequest struct {
	BetAmount uint64
	Choice    Side
}

// TransferInstruction move Amount de From para To via primitiva do host.
type TransferInstruction struct {
	From   Pubkey
	To     Pubkey
	Amount uint64
}

// Draw é o valor sorteado mais a prova para verificação posterior.
type Draw struct {
	Value      uint8
	Nonce      uint64
	Digest     string
	Commitment string
}

// Settlement descreve uma invocação liquidada (ganho ou perda).
type Settlement struct {
	ProgramID   Pubkey
	Participant Pubkey
	Request     WagerRequest
	Outcome     Side
	Won         bool
	Payout      uint64
	Draw        Draw
}

// RandomSource sorteia um valor em [0, sides).
type RandomSource interface {
	Draw(ctx context.Context, participant Pubkey, sides uint8) (Draw, error)
}

// Transferer é a primitiva de transferência do host: move o valor inteiro ou falha.
type Transferer interface {
	Transfer(ctx context.Context, ix TransferInstruction) error
}

// TransferFunc adapta uma função simples para Transferer.
type TransferFunc func(ctx context.Context, ix TransferInstruction) error

func (f TransferFunc) Transfer(ctx context.Context, ix TransferInstruction) error { return f(ctx, ix) }
