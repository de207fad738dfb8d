package settlement

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Handler liquida uma aposta por invocação. Não guarda estado entre chamadas;
// a atomicidade e o isolamento ficam a cargo do host (ver ledger).
type Handler struct {
	log    *zap.Logger
	random RandomSource
}

// NewHandler instancia o handler com a fonte de aleatoriedade injetada.
func NewHandler(log *zap.Logger, random RandomSource) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log, random: random}
}

// Process executa a liquidação:
// 1. Decodifica valor/escolha e resolve o participante
// 2. Calcula o prêmio (2x) com checagem de overflow
// 3. Sorteia um valor em {0,1}
// 4. Se acertou, transfere o prêmio da conta do programa para o participante
//
// Passos 1 e 2 rodam antes do sorteio: entrada inválida é sempre rejeitada do mesmo jeito.
func (h *Handler) Process(ctx context.Context, bank Transferer, programID Pubkey, accounts []AccountInfo, data []byte) (Settlement, error) {
	req, err := DecodeWager(data)
	if err != nil {
		return Settlement{}, err
	}

	if len(accounts) == 0 || accounts[0].Key == "" {
		return Settlement{}, ErrMissingAccount
	}
	participant := accounts[0].Key

	payout, err := Winnings(req.BetAmount)
	if err != nil {
		return Settlement{}, err
	}

	draw, err := h.random.Draw(ctx, participant, 2)
	if err != nil {
		return Settlement{}, fmt.Errorf("%w: %w", ErrRandomnessUnavailable, err)
	}
	if draw.Value > uint8(Tails) {
		return Settlement{}, fmt.Errorf("%w: draw %d out of range", ErrRandomnessUnavailable, draw.Value)
	}

	s := Settlement{
		ProgramID:   programID,
		Participant: participant,
		Request:     req,
		Outcome:     Side(draw.Value),
		Draw:        draw,
	}

	if req.Choice != s.Outcome {
		h.log.Debug("wager lost",
			zap.String("participant", string(participant)),
			zap.Uint64("bet_amount", req.BetAmount),
			zap.Stringer("outcome", s.Outcome),
		)
		return s, nil
	}

	ix := TransferInstruction{From: programID, To: participant, Amount: payout}
	if err := bank.Transfer(ctx, ix); err != nil {
		return Settlement{}, fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}

	s.Won = true
	s.Payout = payout
	h.log.Debug("wager won",
		zap.String("participant", string(participant)),
		zap.Uint64("payout", payout),
		zap.Stringer("outcome", s.Outcome),
	)
	return s, nil
}
