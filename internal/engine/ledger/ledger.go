package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
)

var (
	ErrInvalidStake        = errors.New("stake must be positive")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNothingToCancel     = errors.New("no wagers to cancel in this round")
)

// Wager é uma aposta individual registrada em uma rodada.
// Imutável depois de aceita; só sai do livro por cancelamento total.
type Wager struct {
	ID        string
	RoundID   int64
	UserID    int64
	Tokens    []bet.Token
	Stake     int64
	CreatedAt time.Time
}

// Expression devolve a forma textual canônica da aposta, ex: "big3".
func (w Wager) Expression() string { return bet.Expression(w.Tokens) }

// Store é a porta de persistência do livro de apostas. Débito de saldo e
// escrita das apostas acontecem na mesma transação: ou tudo, ou nada.
type Store interface {
	// InsertWagers debita total do saldo do usuário e grava as apostas.
	// Devolve o saldo restante. Falha com ErrInsufficientBalance sem
	// nenhum efeito parcial.
	InsertWagers(ctx context.Context, userID int64, total int64, ws []Wager) (balance int64, err error)
	// DeleteWagers remove todas as apostas do usuário na rodada e devolve
	// a soma ao saldo. Falha com ErrNothingToCancel se não houver nenhuma.
	DeleteWagers(ctx context.Context, roundID, userID int64) (refund, balance int64, err error)
	WagersByRound(ctx context.Context, roundID int64) ([]Wager, error)
}

// Ledger registra apostas por rodada/usuário e responde consultas agregadas.
type Ledger struct {
	store Store
}

func New(store Store) *Ledger { return &Ledger{store: store} }

// Place aceita um lote de linhas de aposta de um usuário para a rodada.
// O total do lote é checado e debitado de uma vez; nenhuma linha entra
// se o saldo não cobre a soma.
func (l *Ledger) Place(ctx context.Context, roundID, userID int64, lines []bet.Line) ([]Wager, int64, error) {
	if len(lines) == 0 {
		return nil, 0, ErrInvalidStake
	}
	var total int64
	now := time.Now()
	ws := make([]Wager, 0, len(lines))
	for _, ln := range lines {
		if ln.Stake <= 0 {
			return nil, 0, ErrInvalidStake
		}
		total += ln.Stake
		ws = append(ws, Wager{
			ID:        uuid.NewString(),
			RoundID:   roundID,
			UserID:    userID,
			Tokens:    ln.Tokens,
			Stake:     ln.Stake,
			CreatedAt: now,
		})
	}
	balance, err := l.store.InsertWagers(ctx, userID, total, ws)
	if err != nil {
		return nil, 0, err
	}
	return ws, balance, nil
}

// CancelAll devolve ao usuário a soma de todas as suas apostas na rodada e
// as remove do livro. Cancelamento parcial não existe.
func (l *Ledger) CancelAll(ctx context.Context, roundID, userID int64) (refund, balance int64, err error) {
	return l.store.DeleteWagers(ctx, roundID, userID)
}

// ListByRound devolve todas as apostas da rodada para a liquidação.
func (l *Ledger) ListByRound(ctx context.Context, roundID int64) ([]Wager, error) {
	return l.store.WagersByRound(ctx, roundID)
}
