package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/coin-flip-settlement/internal/invoker"
	"github.com/radieske/coin-flip-settlement/internal/ledger"
	"github.com/radieske/coin-flip-settlement/internal/randomness"
	"github.com/radieske/coin-flip-settlement/internal/settlement"
	shttp "github.com/radieske/coin-flip-settlement/internal/settlement-service/http"
	"github.com/radieske/coin-flip-settlement/internal/settlement-service/ws"
	"github.com/radieske/coin-flip-settlement/internal/shared/cache"
	"github.com/radieske/coin-flip-settlement/internal/shared/config"
	"github.com/radieske/coin-flip-settlement/internal/shared/db"
	"github.com/radieske/coin-flip-settlement/internal/shared/kafka"
	"github.com/radieske/coin-flip-settlement/internal/shared/logger"
	"github.com/radieske/coin-flip-settlement/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("settlement-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("program_id", cfg.ProgramID), zap.String("random_source", cfg.RandomSource))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres: ledger de contas e fronteira atômica da invocação
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	ldg := ledger.NewPostgres(pg)

	// Redis: seed/nonces da aleatoriedade e Pub/Sub do feed
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	seeds := randomness.NewCommitReveal(randomness.NewRedisStore(rdb, cfg.SeedPrefix), log)
	seed, err := seeds.EnsureSeed(ctx)
	if err != nil {
		log.Fatal("seed init", zap.Error(err))
	}
	log.Info("server seed committed", zap.String("commitment", seed.Commitment))

	source, err := randomSource(cfg, seeds)
	if err != nil {
		log.Fatal("random source", zap.Error(err))
	}

	// Kafka: eventos de saída
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerSettled)
	defer settledWriter.Close()
	rejectedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerRejected)
	defer rejectedWriter.Close()

	pub := invoker.Fanout{
		invoker.NewKafkaPublisher(settledWriter, rejectedWriter),
		invoker.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel),
	}

	inv := invoker.New(
		log,
		settlement.Pubkey(cfg.ProgramID),
		settlement.NewHandler(log, source),
		ldg,
		pub,
		metrics.NewSettlement(prometheus.DefaultRegisterer),
	)

	// Feed WebSocket alimentado pelo Redis Pub/Sub
	hub := ws.NewHub(func(r *http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)

	api := shttp.NewServer(log, inv, seeds, ldg, cfg.SeedAdminToken, hub.HandleWS)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort,
		metrics.HealthCheck{Name: "postgres", Check: ldg.Ping},
		metrics.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = apiSrv.Shutdown(shutdownCtx)
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("api srv", zap.Error(err))
	}
	log.Info("settlement-service stopped")
}

// randomSource escolhe a fonte de aleatoriedade; a sequência fixa só é aceita em "local"
func randomSource(cfg config.Config, seeds *randomness.CommitReveal) (settlement.RandomSource, error) {
	switch cfg.RandomSource {
	case "commit-reveal", "":
		return seeds, nil
	case "sequence":
		if cfg.Env != "local" {
			return nil, errors.New("sequence random source is only allowed with ENV=local")
		}
		return randomness.NewSequence(0, 1), nil
	default:
		return nil, errors.New("unknown RANDOM_SOURCE " + cfg.RandomSource)
	}
}
