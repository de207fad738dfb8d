package settlement_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

func wager(amount uint64, choice byte) []byte {
	buf := make([]byte, 9)
	binary.LittleEndian.PutUint64(buf, amount)
	buf[8] = choice
	return buf
}

func TestDecodeWager(t *testing.T) {
	req, err := settlement.DecodeWager(wager(100, 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(100), req.BetAmount)
	assert.Equal(t, settlement.Tails, req.Choice)
}

func TestDecodeWager_IgnoresTrailingBytes(t *testing.T) {
	data := append(wager(7, 0), 0xde, 0xad, 0xbe, 0xef)

	req, err := settlement.DecodeWager(data)
	require.NoError(t, err)
	assert.Equal(t, settlement.WagerRequest{BetAmount: 7, Choice: settlement.Heads}, req)
}

func TestDecodeWager_ShortBuffer(t *testing.T) {
	for n := 0; n < settlement.InstructionLen; n++ {
		_, err := settlement.DecodeWager(make([]byte, n))
		assert.ErrorIs(t, err, settlement.ErrMalformedInput, "len=%d", n)
	}
}

func TestDecodeWager_InvalidChoice(t *testing.T) {
	for _, b := range []byte{2, 3, 0x7f, 0xff} {
		_, err := settlement.DecodeWager(wager(100, b))
		assert.ErrorIs(t, err, settlement.ErrMalformedInput, "choice=%d", b)
	}
}

func TestDecodeWager_ZeroAmount(t *testing.T) {
	_, err := settlement.DecodeWager(wager(0, 0))
	assert.ErrorIs(t, err, settlement.ErrMalformedInput)
}

func TestEncodeWager(t *testing.T) {
	in := settlement.WagerRequest{BetAmount: 100, Choice: settlement.Heads}
	data := settlement.EncodeWager(in)

	assert.Equal(t, []byte{100, 0, 0, 0, 0, 0, 0, 0, 0}, data)
}

func TestWinnings(t *testing.T) {
	w, err := settlement.Winnings(100)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), w)

	w, err = settlement.Winnings(math.MaxUint64 / 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64-1), w)

	_, err = settlement.Winnings(math.MaxUint64/2 + 1)
	assert.ErrorIs(t, err, settlement.ErrArithmeticOverflow)

	_, err = settlement.Winnings(math.MaxUint64)
	assert.ErrorIs(t, err, settlement.ErrArithmeticOverflow)
}

func TestParseSide(t *testing.T) {
	s, err := settlement.ParseSide("Heads")
	require.NoError(t, err)
	assert.Equal(t, settlement.Heads, s)

	s, err = settlement.ParseSide("1")
	require.NoError(t, err)
	assert.Equal(t, settlement.Tails, s)

	_, err = settlement.ParseSide("edge")
	assert.ErrorIs(t, err, settlement.ErrMalformedInput)
}
