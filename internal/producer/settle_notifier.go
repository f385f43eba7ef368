package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
	"github.com/galaxy-digital/line-dice-bot/internal/feed"
	"github.com/galaxy-digital/line-dice-bot/pkg/contracts/events"
)

// SettleNotifier propaga o fechamento de cada rodada: evento Kafka para o
// worker de auditoria e broadcast Redis Pub/Sub para o feed ao vivo.
// Ambos são melhor esforço; a liquidação já está confirmada no banco.
type SettleNotifier struct {
	Log     *zap.Logger
	Writer  *kafka.Writer
	Rdb     *redis.Client
	Channel string
}

func (n *SettleNotifier) RoundSettled(ctx context.Context, s *round.Settlement) {
	ev := events.RoundSettled{
		RoundID:     s.RoundID,
		Result:      s.Result.String(),
		TotalStaked: s.TotalStaked,
		TotalPayout: s.TotalPayout,
		TsUnixMs:    time.Now().UnixMilli(),
	}
	for _, ln := range s.Lines {
		ev.Lines = append(ev.Lines, events.SettledLine{
			UserID:  ln.UserID,
			Staked:  ln.Staked,
			Payout:  ln.Payout,
			Balance: ln.Balance,
		})
	}
	b, _ := json.Marshal(ev)

	if n.Writer != nil {
		msg := kafka.Message{Key: []byte(strconv.FormatInt(ev.RoundID, 10)), Value: b, Time: time.Now()}
		if err := n.Writer.WriteMessages(ctx, msg); err != nil {
			n.Log.Warn("publish round_settled", zap.Error(err))
		}
	}

	if n.Rdb != nil {
		upd, _ := json.Marshal(feed.Update{Type: "round_settled", Payload: ev})
		pctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		if err := n.Rdb.Publish(pctx, n.Channel, upd).Err(); err != nil {
			n.Log.Warn("feed broadcast publish", zap.Error(err))
		}
	}
}
