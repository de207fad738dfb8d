package settlement

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// InstructionLen é o tamanho mínimo da instrução: 8 bytes de valor (LE) + 1 byte de escolha.
const InstructionLen = 9

// DecodeWager lê o valor apostado e a escolha do buffer da instrução.
// Bytes após o offset 9 são ignorados.
func DecodeWager(data []byte) (WagerRequest, error) {
	if len(data) < InstructionLen {
		return WagerRequest{}, fmt.Errorf("%w: instruction data has %d bytes, want at least %d",
			ErrMalformedInput, len(data), InstructionLen)
	}

	amount := binary.LittleEndian.Uint64(data[:8])
	if amount == 0 {
		return WagerRequest{}, fmt.Errorf("%w: bet amount must be positive", ErrMalformedInput)
	}

	choice := Side(data[8])
	if choice != Heads && choice != Tails {
		return WagerRequest{}, fmt.Errorf("%w: invalid choice byte %d", ErrMalformedInput, data[8])
	}

	return WagerRequest{BetAmount: amount, Choice: choice}, nil
}

// EncodeWager monta os 9 bytes da instrução (usado pelos clientes).
func EncodeWager(w WagerRequest) []byte {
	buf := make([]byte, InstructionLen)
	binary.LittleEndian.PutUint64(buf[:8], w.BetAmount)
	buf[8] = byte(w.Choice)
	return buf
}

// Winnings devolve 2x o valor apostado, falhando se não couber em 64 bits.
func Winnings(bet uint64) (uint64, error) {
	w := new(uint256.Int).Lsh(uint256.NewInt(bet), 1)
	if !w.IsUint64() {
		return 0, fmt.Errorf("%w: %d * 2 exceeds uint64", ErrArithmeticOverflow, bet)
	}
	return w.Uint64(), nil
}
