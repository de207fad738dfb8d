package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/radieske/coin-flip-settlement/internal/randomness"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	"github.com/radieske/coin-flip-settlement/internal/settlement-service/client"
	"github.com/radieske/coin-flip-settlement/internal/shared/config"
	"github.com/radieske/coin-flip-settlement/internal/shared/kafka"
	"github.com/radieske/coin-flip-settlement/pkg/contracts/events"
)

var (
	amount uint64
	choice string

	account string
	via     string
	timeout time.Duration

	seed        string
	commitment  string
	participant string
	nonce       uint64
	value       uint8
)

var rootCmd = &cobra.Command{
	Use:           "coinflip",
	Short:         "Cliente do programa de liquidação cara-ou-coroa",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// encodeCmd monta os 9 bytes da instrução
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Codifica valor e escolha nos bytes da instrução",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := instruction()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "hex:    %s\nbase64: %s\n", hex.EncodeToString(data), base64.StdEncoding.EncodeToString(data))
		return nil
	},
}

// submitCmd envia a aposta via HTTP (resposta síncrona) ou Kafka (assíncrona)
var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Envia uma aposta para o settlement-service ou para o tópico wager_submitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if account == "" {
			return fmt.Errorf("--account is required")
		}
		data, err := instruction()
		if err != nil {
			return err
		}

		cfg := config.Load()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		switch via {
		case "http":
			res, err := client.New(cfg.SettlementURL).Invoke(ctx, []string{account}, data)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		case "kafka":
			w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSubmitted)
			defer w.Close()

			ev := events.WagerSubmitted{
				InvocationID: uuid.NewString(),
				Accounts:     []string{account},
				Data:         data,
				TsUnixMs:     time.Now().UnixMilli(),
			}
			if err := kafka.Publish(ctx, w, account, ev); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted invocation %s\n", ev.InvocationID)
			return nil
		default:
			return fmt.Errorf("unknown --via %q (http|kafka)", via)
		}
	},
}

// verifyCmd confere um sorteio offline a partir da seed revelada
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verifica um sorteio com a server seed revelada",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := randomness.Verify(seed, commitment, settlement.Pubkey(participant), nonce, 2, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", settlement.Side(value))
		return nil
	},
}

// balanceCmd consulta o saldo antes de apostar
var balanceCmd = &cobra.Command{
	Use:   "balance <account>",
	Short: "Consulta o saldo de uma conta no ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		bal, err := client.New(config.Load().SettlementURL).Balance(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", args[0], bal)
		return nil
	},
}

// seedCmd mostra o compromisso da seed corrente (guardar para o verify)
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Mostra o hash da server seed corrente",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		c, err := client.New(config.Load().SettlementURL).Commitment(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c)
		return nil
	},
}

func instruction() ([]byte, error) {
	side, err := settlement.ParseSide(choice)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, fmt.Errorf("--amount must be positive")
	}
	return settlement.EncodeWager(settlement.WagerRequest{BetAmount: amount, Choice: side}), nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	for _, c := range []*cobra.Command{encodeCmd, submitCmd} {
		c.Flags().Uint64Var(&amount, "amount", 0, "valor apostado (menor unidade)")
		c.Flags().StringVar(&choice, "choice", "heads", "heads | tails")
	}
	submitCmd.Flags().StringVar(&account, "account", "", "conta do participante")
	submitCmd.Flags().StringVar(&via, "via", "http", "http | kafka")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "timeout das chamadas")

	verifyCmd.Flags().StringVar(&seed, "seed", "", "server seed revelada")
	verifyCmd.Flags().StringVar(&commitment, "commitment", "", "hash publicado antes da jogada")
	verifyCmd.Flags().StringVar(&participant, "participant", "", "conta do participante")
	verifyCmd.Flags().Uint64Var(&nonce, "nonce", 0, "nonce do sorteio")
	verifyCmd.Flags().Uint8Var(&value, "value", 0, "valor sorteado (0 = heads, 1 = tails)")

	rootCmd.AddCommand(encodeCmd, submitCmd, verifyCmd, balanceCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
