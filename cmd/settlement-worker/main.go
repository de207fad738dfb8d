package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/invoker"
	"github.com/radieske/coin-flip-settlement/internal/ledger"
	"github.com/radieske/coin-flip-settlement/internal/randomness"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	"github.com/radieske/coin-flip-settlement/internal/settlement-worker/consumer"
	"github.com/radieske/coin-flip-settlement/internal/shared/cache"
	"github.com/radieske/coin-flip-settlement/internal/shared/config"
	"github.com/radieske/coin-flip-settlement/internal/shared/db"
	"github.com/radieske/coin-flip-settlement/internal/shared/kafka"
	"github.com/radieske/coin-flip-settlement/internal/shared/logger"
	"github.com/radieske/coin-flip-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("settlement-worker", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	ldg := ledger.NewPostgres(pg)

	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// O worker divide a seed com o settlement-service; quem roda primeiro compromete
	seeds := randomness.NewCommitReveal(randomness.NewRedisStore(rdb, cfg.SeedPrefix), log)
	if _, err := seeds.EnsureSeed(ctx); err != nil {
		log.Fatal("seed init", zap.Error(err))
	}

	// Kafka: consumer group settlement-worker + writers de saída e DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicWagerSubmitted, "settlement-worker")
	defer reader.Close()

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()
	rejectedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerRejected)
	defer rejectedWriter.Close()

	var dlq *kafka.Writer
	if cfg.TopicWagerSubmittedDLQ != "" {
		dlq = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSubmittedDLQ)
		defer dlq.Close()
	}

	inv := invoker.New(
		log,
		settlement.Pubkey(cfg.ProgramID),
		settlement.NewHandler(log, seeds),
		ldg,
		invoker.Fanout{
			invoker.NewKafkaPublisher(settledWriter, rejectedWriter),
			invoker.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
		},
		metrics.NewSettlement(prometheus.DefaultRegisterer),
	)

	// Métricas do consumo
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_messages_consumed_total", Help: "mensagens consumidas"})
	deadLettered := prometheus.NewCounter(prometheus.CounterOpts{Name: "settlement_worker_dlq_total", Help: "mensagens enviadas para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settlement_worker_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, deadLettered, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Invoker:      inv,
		OnConsumed:   func() { consumed.Inc() },
		OnDeadLetter: func() { deadLettered.Inc() },
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}
	if dlq != nil {
		proc.DLQ = dlq
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.HealthCheck{Name: "postgres", Check: ldg.Ping},
		metrics.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)
	defer metricsSrv.Close()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicWagerSubmitted),
		zap.String("publish", cfg.TopicWagerSettled),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("settlement-worker stopped")
}
