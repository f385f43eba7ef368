package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/shared/config"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/db"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/kafka"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/logger"
	"github.com/galaxy-digital/line-dice-bot/internal/shared/metrics"
	ev "github.com/galaxy-digital/line-dice-bot/pkg/contracts/events"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres para a trilha de auditoria de liquidações
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Kafka consumer: eventos round_settled emitidos pelo bot-service
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicRoundSettled, "settle-audit")
	defer reader.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicRoundSettledDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettledDLQ)
		defer dlqWriter.Close()
	}

	// Métricas Prometheus do worker
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_audit_consumed_total", Help: "eventos consumidos"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "settle_audit_rows_total", Help: "linhas de auditoria gravadas"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "settle_audit_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, failures)

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	log.Info("settle-audit-worker started", zap.String("consume", cfg.TopicRoundSettled))

	ctx := context.Background()
	for {
		key, value, err := kafka.ReadNext(ctx, reader)
		if err != nil {
			log.Warn("kafka read", zap.Error(err))
			failures.WithLabelValues("read").Inc()
			time.Sleep(time.Second)
			continue
		}
		consumed.Inc()

		var settled ev.RoundSettled
		if jerr := json.Unmarshal(value, &settled); jerr != nil {
			log.Error("unmarshal round_settled", zap.Error(jerr))
			failures.WithLabelValues("decode").Inc()
			continue
		}

		n, err := insertAudit(ctx, pg, &settled)
		if err != nil {
			log.Error("persist audit", zap.Int64("roundId", settled.RoundID), zap.Error(err))
			failures.WithLabelValues("persist").Inc()
			if dlqWriter != nil {
				_ = kafka.WriteJSON(ctx, dlqWriter, string(key), value)
			}
			continue
		}
		persisted.Add(float64(n))
	}
}

// insertAudit grava uma linha por usuário liquidado, tudo na mesma
// transação. Reentrega do evento é inofensiva: a chave (round, user)
// descarta duplicatas.
func insertAudit(ctx context.Context, pg *sql.DB, settled *ev.RoundSettled) (int, error) {
	tx, err := pg.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, ln := range settled.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settle_audit (round_id, user_id, result, staked, payout, balance, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,now())
			ON CONFLICT (round_id, user_id) DO NOTHING`,
			settled.RoundID, ln.UserID, settled.Result, ln.Staked, ln.Payout, ln.Balance); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(settled.Lines), nil
}
