package invoker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/ledger"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	"github.com/radieske/coin-flip-settlement/internal/shared/metrics"
	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

// Ledger é a fronteira atômica da invocação (implementada por ledger.Postgres)
type Ledger interface {
	Atomic(ctx context.Context, invocationID string, fn func(ctx context.Context, bank settlement.Transferer) error) error
}

// Publisher recebe os eventos de saída, sempre depois do commit/rollback
type Publisher interface {
	PublishSettled(ctx context.Context, e events.WagerSettled) error
	PublishRejected(ctx context.Context, e events.WagerRejected) error
}

// Invocation é uma chamada ao programa: contas ordenadas + bytes crus da instrução
type Invocation struct {
	ID       string
	Accounts []settlement.AccountInfo
	Data     []byte
}

// Receipt é o retorno de uma invocação bem sucedida
type Receipt struct {
	InvocationID string
	Settlement   settlement.Settlement
}

// Invoker faz o papel do runtime do host: identifica a invocação, roda o handler
// dentro da transação do ledger e publica o resultado
type Invoker struct {
	log       *zap.Logger
	programID settlement.Pubkey
	handler   *settlement.Handler
	ledger    Ledger
	pub       Publisher
	metrics   *metrics.Settlement
}

func New(log *zap.Logger, programID settlement.Pubkey, h *settlement.Handler, l Ledger, pub Publisher, m *metrics.Settlement) *Invoker {
	return &Invoker{log: log, programID: programID, handler: h, ledger: l, pub: pub, metrics: m}
}

// Invoke executa uma invocação. Erros não são reprocessados aqui;
// quem chamou decide se tenta de novo com uma nova invocação.
func (iv *Invoker) Invoke(ctx context.Context, inv Invocation) (Receipt, error) {
	started := time.Now()
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	log := iv.log.With(zap.String("invocation_id", inv.ID))

	var s settlement.Settlement
	err := iv.ledger.Atomic(ctx, inv.ID, func(ctx context.Context, bank settlement.Transferer) error {
		var perr error
		s, perr = iv.handler.Process(ctx, bank, iv.programID, inv.Accounts, inv.Data)
		return perr
	})
	if err != nil {
		kind := settlement.Kind(err)
		log.Warn("invocation failed", zap.String("kind", kind), zap.Error(err))
		iv.observe(kind, 0, started)

		rej := events.WagerRejected{
			InvocationID: inv.ID,
			Kind:         kind,
			Reason:       err.Error(),
			Ts:           time.Now(),
		}
		if len(inv.Accounts) > 0 {
			rej.Participant = string(inv.Accounts[0].Key)
		}
		if perr := iv.pub.PublishRejected(ctx, rej); perr != nil {
			log.Warn("publish wager_rejected", zap.Error(perr))
		}
		return Receipt{InvocationID: inv.ID}, err
	}

	result := "lost"
	if s.Won {
		result = "won"
	}
	iv.observe(result, s.Payout, started)
	log.Info("wager settled",
		zap.String("participant", string(s.Participant)),
		zap.Uint64("bet_amount", s.Request.BetAmount),
		zap.Stringer("choice", s.Request.Choice),
		zap.Stringer("outcome", s.Outcome),
		zap.Uint64("payout", s.Payout),
	)

	if perr := iv.pub.PublishSettled(ctx, SettledEvent(inv.ID, s)); perr != nil {
		log.Warn("publish wager_settled", zap.Error(perr))
	}

	return Receipt{InvocationID: inv.ID, Settlement: s}, nil
}

func (iv *Invoker) observe(result string, payout uint64, started time.Time) {
	if iv.metrics != nil {
		iv.metrics.Observe(result, payout, started)
	}
}

// SettledEvent converte a liquidação no contrato publicado
func SettledEvent(invocationID string, s settlement.Settlement) events.WagerSettled {
	return events.WagerSettled{
		InvocationID: invocationID,
		ProgramID:    string(s.ProgramID),
		Participant:  string(s.Participant),
		BetAmount:    s.Request.BetAmount,
		Choice:       s.Request.Choice.String(),
		Outcome:      s.Outcome.String(),
		Won:          s.Won,
		Payout:       s.Payout,
		Draw: events.Draw{
			Value:      s.Draw.Value,
			Nonce:      s.Draw.Nonce,
			Digest:     s.Draw.Digest,
			Commitment: s.Draw.Commitment,
		},
		Ts: time.Now(),
	}
}

// Retryable indica falhas de infraestrutura (banco, redis, cancelamento) em que a
// transação fez rollback e reenviar a mesma invocação pode dar outro resultado.
// Rejeições de domínio não entram.
func Retryable(err error) bool {
	if err == nil || settlement.Deterministic(err) {
		return false
	}
	return !errors.Is(err, ledger.ErrInsufficientFunds) &&
		!errors.Is(err, ledger.ErrAccountNotFound) &&
		!errors.Is(err, ledger.ErrInvalidDestination) &&
		!errors.Is(err, ledger.ErrBalanceOverflow)
}
