package round

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
)

// State é a fase corrente do ciclo de rodada. Settled é transitório: ao
// concluir a liquidação a máquina volta direto para Idle.
type State int

const (
	StateIdle   State = iota // nenhuma rodada corrente
	StateOpen                // aceitando apostas
	StateLocked              // apostas congeladas, aguardando resultado
)

var (
	ErrAlreadyOpen   = errors.New("a round is already open")
	ErrNotOpen       = errors.New("no round is open")
	ErrAlreadyLocked = errors.New("round is already locked")
	ErrNotLocked     = errors.New("round is not locked")
	ErrNotStarted    = errors.New("betting has not started")
	ErrBettingClosed = errors.New("betting is closed for this round")
)

// PastResult é uma rodada já liquidada, para o histórico.
type PastResult struct {
	RoundID int64
	Result  string
}

// Store é a porta de persistência de rodadas.
type Store interface {
	// CreateRound aloca maxID+1 (piso 1001) e insere a rodada aberta,
	// leitura do máximo e inserção na mesma transação.
	CreateRound(ctx context.Context) (int64, error)
	LockRound(ctx context.Context, roundID int64) error
	// FinishRound grava resultado e agregados e marca a rodada liquidada.
	FinishRound(ctx context.Context, roundID int64, result string, totalStaked, totalPayout int64) error
	// CurrentRound devolve a rodada ainda não liquidada, se houver.
	CurrentRound(ctx context.Context) (roundID int64, locked bool, ok bool, err error)
}

// Wallet é a porta de saldo usada pela liquidação.
type Wallet interface {
	Credit(ctx context.Context, userID int64, amount int64) (balance int64, err error)
	Balance(ctx context.Context, userID int64) (int64, error)
}

// Notifier recebe o resultado de cada liquidação concluída (eventos, feed).
type Notifier interface {
	RoundSettled(ctx context.Context, s *Settlement)
}

// Machine é o dono exclusivo das transições de rodada. Todas passam por um
// único gate serializado; a admissão de apostas segura o lado de leitura,
// então um lock/reveal nunca corta uma admissão no meio.
type Machine struct {
	log    *zap.Logger
	store  Store
	ledger *ledger.Ledger
	wallet Wallet
	notify Notifier

	mu      sync.RWMutex
	state   State
	current int64
}

func NewMachine(log *zap.Logger, store Store, l *ledger.Ledger, w Wallet, n Notifier) *Machine {
	return &Machine{log: log, store: store, ledger: l, wallet: w, notify: n}
}

// Resume recarrega a rodada corrente do banco depois de um restart.
func (m *Machine) Resume(ctx context.Context) error {
	id, locked, ok, err := m.store.CurrentRound(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok {
		m.state = StateIdle
		m.current = 0
		return nil
	}
	m.current = id
	if locked {
		m.state = StateLocked
	} else {
		m.state = StateOpen
	}
	return nil
}

// Start abre uma nova rodada. Falha com ErrAlreadyOpen fora de Idle.
func (m *Machine) Start(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return m.current, ErrAlreadyOpen
	}
	id, err := m.store.CreateRound(ctx)
	if err != nil {
		return 0, err
	}
	m.state = StateOpen
	m.current = id
	m.log.Info("round opened", zap.Int64("roundId", id))
	return id, nil
}

// Lock congela as apostas da rodada corrente.
func (m *Machine) Lock(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateIdle:
		return 0, ErrNotOpen
	case StateLocked:
		return m.current, ErrAlreadyLocked
	}
	if err := m.store.LockRound(ctx, m.current); err != nil {
		return 0, err
	}
	m.state = StateLocked
	m.log.Info("round locked", zap.Int64("roundId", m.current))
	return m.current, nil
}

// Reveal valida o resultado, liquida a rodada corrente e volta para Idle.
// Uma segunda revelação da mesma rodada falha com ErrNotLocked: ela já não
// é mais endereçável como corrente.
func (m *Machine) Reveal(ctx context.Context, result string) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateLocked {
		return nil, ErrNotLocked
	}
	r, err := bet.ParseResult(result)
	if err != nil {
		return nil, err
	}

	s, err := m.settle(ctx, m.current, r)
	if err != nil {
		// rodada continua Locked, a revelação pode ser repetida
		return nil, err
	}

	m.state = StateIdle
	m.current = 0

	if m.notify != nil {
		m.notify.RoundSettled(ctx, s)
	}
	m.log.Info("round settled",
		zap.Int64("roundId", s.RoundID),
		zap.String("result", s.Result.String()),
		zap.Int64("totalStaked", s.TotalStaked),
		zap.Int64("totalPayout", s.TotalPayout),
	)
	return s, nil
}

// WithOpenRound executa fn sob o gate de admissão: o estado é garantido
// Open durante toda a chamada e nenhuma transição completa enquanto fn
// não retornar. Admissões de usuários distintos correm em paralelo.
func (m *Machine) WithOpenRound(fn func(roundID int64) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch m.state {
	case StateIdle:
		return ErrNotStarted
	case StateLocked:
		return ErrBettingClosed
	}
	return fn(m.current)
}

// Current devolve o estado e a rodada corrente (0 quando Idle).
func (m *Machine) Current() (State, int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.current
}
