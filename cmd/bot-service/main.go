package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/bot"
	bhttp "github.com/galaxy-digital/line-dice-bot/internal/bot/http"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
	"github.com/galaxy-digital/line-dice-bot/internal/feed"
	"github.com/galaxy-digital/line-dice-bot/internal/producer"
	sharedcache "github.com/galaxy-digital/line-dice-bot/internal/shared/cache"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/config"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/db"
	skafka "github.com/galaxy-digital/line-dice-bot/internal/shared/kafka"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/logger"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/metrics"
	"github.com/galaxy-digital/line-dice-bot/internal/store"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Redis
	rdb, err := sharedcache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers
	wagerWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicWagerPlaced)
	defer wagerWriter.Close()
	settleWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
	defer settleWriter.Close()

	// deps
	repo := store.NewPostgres(pg)
	settings := store.NewSettingsCache(rdb, repo, 60*time.Second)
	book := ledger.New(repo)
	notifier := &producer.SettleNotifier{
		Log:     log,
		Writer:  settleWriter,
		Rdb:     rdb,
		Channel: cfg.RedisPubSubChannel,
	}
	machine := round.NewMachine(log, repo, book, repo, notifier)
	if err := machine.Resume(context.Background()); err != nil {
		log.Fatal("resume round", zap.Error(err))
	}

	handler := bot.NewHandler(log, machine, book, repo, repo, settings, producer.NewKafkaPublisher(wagerWriter))

	// Métricas Prometheus do motor
	wagersPlaced := prometheus.NewCounter(prometheus.CounterOpts{Name: "dice_wagers_placed_total", Help: "apostas aceitas"})
	roundsSettled := prometheus.NewCounter(prometheus.CounterOpts{Name: "dice_rounds_settled_total", Help: "rodadas liquidadas"})
	cmdErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "dice_command_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(wagersPlaced, roundsSettled, cmdErrors)
	handler.OnWagerPlaced = func() { wagersPlaced.Inc() }
	handler.OnRoundSettled = func() { roundsSettled.Inc() }
	handler.OnError = func(stage string) { cmdErrors.WithLabelValues(stage).Inc() }

	// Feed ao vivo: hub WebSocket alimentado pelo Redis Pub/Sub
	hub := feed.NewHub(func(r *http.Request) bool { return true })
	feed.StartRedisSubscriber(context.Background(), log, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público: webhook do chat + feed
	api := bhttp.NewServer(log, handler, cfg.AdminUserID)
	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: mux,
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	log.Info("bot-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
