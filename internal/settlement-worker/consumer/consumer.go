package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/invoker"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

// MessageReader é o lado de leitura do kafka.Reader
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// MessageWriter é o lado de escrita do kafka.Writer (DLQ)
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Invoker executa a invocação (implementado por invoker.Invoker)
type Invoker interface {
	Invoke(ctx context.Context, inv invoker.Invocation) (invoker.Receipt, error)
}

// Processor consome wager_submitted, executa cada invocação e envia para a DLQ
// apenas as falhas de infraestrutura. Rejeições de domínio já saem como wager_rejected.
type Processor struct {
	Log     *zap.Logger
	Reader  MessageReader
	Invoker Invoker
	DLQ     MessageWriter // opcional

	// InvokeTimeout limita cada invocação; ela não é cancelada pelo shutdown do loop
	InvokeTimeout time.Duration

	OnConsumed   func()       // métricas (counter++)
	OnDeadLetter func()       // métricas
	OnError      func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto ser cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			p.onError("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}
		p.Handle(ctx, m)
	}
}

// Handle processa uma mensagem. Nunca bloqueia o loop: erros viram log, métrica ou DLQ.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) {
	var sub events.WagerSubmitted
	if err := json.Unmarshal(m.Value, &sub); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.onError("decode")
		return
	}

	accounts := make([]settlement.AccountInfo, 0, len(sub.Accounts))
	for i, a := range sub.Accounts {
		accounts = append(accounts, settlement.AccountInfo{Key: settlement.Pubkey(a), IsSigner: i == 0, IsWritable: true})
	}

	// o offset já foi lido: a invocação (e a DLQ) terminam mesmo com SIGTERM
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.invokeTimeout())
	defer cancel()

	_, err := p.Invoker.Invoke(ictx, invoker.Invocation{ID: sub.InvocationID, Accounts: accounts, Data: sub.Data})
	if err == nil {
		return
	}
	if !invoker.Retryable(err) {
		// rejeição determinística ou de saldo: já publicada como wager_rejected
		p.onError(settlement.Kind(err))
		return
	}

	p.Log.Error("invocation failed, sending to dlq", zap.String("invocation_id", sub.InvocationID), zap.Error(err))
	p.onError("invoke")
	if p.DLQ == nil {
		return
	}

	dlqMsg := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(err.Error())},
			{Key: "kind", Value: []byte(settlement.Kind(err))},
		},
	}
	if werr := p.DLQ.WriteMessages(ictx, dlqMsg); werr != nil {
		p.Log.Error("dlq write failed", zap.Error(werr))
		p.onError("dlq")
		return
	}
	if p.OnDeadLetter != nil {
		p.OnDeadLetter()
	}
}

func (p *Processor) invokeTimeout() time.Duration {
	if p.InvokeTimeout > 0 {
		return p.InvokeTimeout
	}
	return 30 * time.Second
}

func (p *Processor) onError(stage string) {
	if p.OnError != nil {
		p.OnError(stage)
	}
}
