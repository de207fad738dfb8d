package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/radieske/coin-flip-settlement/internal/settlement"
)

// Postgres implementa o ledger de contas e a primitiva de transferência do host.
// Cada invocação roda numa única transação: ou tudo persiste, ou nada.
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidDestination = errors.New("invalid destination")
	ErrBalanceOverflow    = errors.New("balance overflow")
)

// Atomic abre a transação da invocação e entrega ao fn uma primitiva de transferência
// ligada a ela. Commit só acontece se fn retornar nil; qualquer erro faz rollback.
func (p *Postgres) Atomic(ctx context.Context, invocationID string, fn func(ctx context.Context, bank settlement.Transferer) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invocation: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &txBank{tx: tx, invocationID: invocationID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invocation: %w", err)
	}
	return nil
}

// Balance retorna o saldo atual de uma conta (somente leitura).
func (p *Postgres) Balance(ctx context.Context, account settlement.Pubkey) (uint64, error) {
	var bal uint64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE pubkey=$1`, string(account)).Scan(&bal)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return bal, nil
}

// Ping valida a conexão (healthz).
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

// txBank é a primitiva de transferência dentro da transação da invocação.
type txBank struct {
	tx           *sql.Tx
	invocationID string
}

// Transfer debita a origem e credita o destino, registrando as duas pernas no ledger.
// Garante lock pessimista na linha da origem; o destino é criado se ainda não existir.
func (b *txBank) Transfer(ctx context.Context, ix settlement.TransferInstruction) error {
	if ix.To == "" || ix.To == ix.From {
		return fmt.Errorf("%w: %q", ErrInvalidDestination, ix.To)
	}
	amount := strconv.FormatUint(ix.Amount, 10)

	var balance uint64
	err := b.tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE pubkey=$1 FOR UPDATE`, string(ix.From)).Scan(&balance)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, ix.From)
	}
	if err != nil {
		return err
	}

	if balance < ix.Amount {
		return fmt.Errorf("%w: balance %d, transfer %d", ErrInsufficientFunds, balance, ix.Amount)
	}

	if _, err = b.tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1::numeric, version = version + 1, updated_at = NOW() WHERE pubkey=$2`,
		amount, string(ix.From)); err != nil {
		return err
	}

	if _, err = b.tx.ExecContext(ctx, `
		INSERT INTO accounts(pubkey, balance, version) VALUES($1, $2::numeric, 1)
		ON CONFLICT (pubkey) DO UPDATE SET
		  balance    = accounts.balance + EXCLUDED.balance,
		  version    = accounts.version + 1,
		  updated_at = NOW()`,
		string(ix.To), amount); err != nil {
		if balanceOutOfRange(err) {
			return fmt.Errorf("%w: credit %d to %s", ErrBalanceOverflow, ix.Amount, ix.To)
		}
		return err
	}

	if _, err = b.tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(id, invocation_id, account, operation_type, amount, counterparty)
		VALUES ($1,$2,$3,'DEBIT',$4::numeric,$5), ($6,$2,$5,'CREDIT',$4::numeric,$3)`,
		uuid.NewString(), b.invocationID, string(ix.From), amount, string(ix.To), uuid.NewString()); err != nil {
		return err
	}

	return nil
}

// balanceOutOfRange reconhece o CHECK de saldo (<= 2^64-1) e o estouro do NUMERIC(20,0)
func balanceOutOfRange(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23514" || pqErr.Code == "22003"
}
