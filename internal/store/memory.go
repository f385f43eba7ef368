package store

import (
	"context"
	"sort"
	"sync"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
)

// Memory implementa as mesmas portas do Postgres inteiramente em memória.
// Serve os testes do motor e desenvolvimento local sem banco; um único
// mutex já dá a linearização que o contrato pede.
type Memory struct {
	mu         sync.Mutex
	users      map[int64]*User
	byExternal map[string]int64
	rounds     map[int64]*memRound
	wagers     []ledger.Wager
	settings   map[string]string
}

type memRound struct {
	id          int64
	state       string // OPEN | LOCKED | SETTLED
	result      string
	totalStaked int64
	totalPayout int64
}

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[int64]*User),
		byExternal: make(map[string]int64),
		rounds:     make(map[int64]*memRound),
		settings:   make(map[string]string),
	}
}

// ---- rounds (round.Store) ----

func (m *Memory) CreateRound(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(1001)
	for rid := range m.rounds {
		if rid+1 > id {
			id = rid + 1
		}
	}
	m.rounds[id] = &memRound{id: id, state: "OPEN"}
	return id, nil
}

func (m *Memory) LockRound(ctx context.Context, roundID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[roundID]
	if !ok {
		return ErrNotFound
	}
	r.state = "LOCKED"
	return nil
}

func (m *Memory) FinishRound(ctx context.Context, roundID int64, result string, totalStaked, totalPayout int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rounds[roundID]
	if !ok {
		return ErrNotFound
	}
	r.state = "SETTLED"
	r.result = result
	r.totalStaked = totalStaked
	r.totalPayout = totalPayout
	return nil
}

func (m *Memory) CurrentRound(ctx context.Context) (int64, bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var cur *memRound
	for _, r := range m.rounds {
		if r.state == "SETTLED" {
			continue
		}
		if cur == nil || r.id > cur.id {
			cur = r
		}
	}
	if cur == nil {
		return 0, false, false, nil
	}
	return cur.id, cur.state == "LOCKED", true, nil
}

func (m *Memory) PastResults(ctx context.Context, limit int) ([]round.PastResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var settled []*memRound
	for _, r := range m.rounds {
		if r.state == "SETTLED" {
			settled = append(settled, r)
		}
	}
	sort.Slice(settled, func(i, j int) bool { return settled[i].id < settled[j].id })
	if len(settled) > limit {
		settled = settled[len(settled)-limit:]
	}
	out := make([]round.PastResult, 0, len(settled))
	for _, r := range settled {
		out = append(out, round.PastResult{RoundID: r.id, Result: r.result})
	}
	return out, nil
}

// ---- wagers (ledger.Store) ----

func (m *Memory) InsertWagers(ctx context.Context, userID int64, total int64, ws []ledger.Wager) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if u.Balance < total {
		return 0, ledger.ErrInsufficientBalance
	}
	u.Balance -= total
	m.wagers = append(m.wagers, ws...)
	return u.Balance, nil
}

func (m *Memory) DeleteWagers(ctx context.Context, roundID, userID int64) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, 0, ErrNotFound
	}
	var refund int64
	kept := m.wagers[:0]
	found := false
	for _, w := range m.wagers {
		if w.RoundID == roundID && w.UserID == userID {
			refund += w.Stake
			found = true
			continue
		}
		kept = append(kept, w)
	}
	if !found {
		return 0, 0, ledger.ErrNothingToCancel
	}
	m.wagers = kept
	u.Balance += refund
	return refund, u.Balance, nil
}

func (m *Memory) WagersByRound(ctx context.Context, roundID int64) ([]ledger.Wager, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Wager
	for _, w := range m.wagers {
		if w.RoundID == roundID {
			out = append(out, w)
		}
	}
	return out, nil
}

// ---- users ----

func (m *Memory) ByExternalID(ctx context.Context, externalID string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byExternal[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

func (m *Memory) ByInternalID(ctx context.Context, id int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Memory) CreateUser(ctx context.Context, externalID, displayName string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(1001)
	for uid := range m.users {
		if uid+1 > id {
			id = uid + 1
		}
	}
	u := &User{ID: id, ExternalID: externalID, DisplayName: displayName}
	m.users[id] = u
	m.byExternal[externalID] = id
	cp := *u
	return &cp, nil
}

func (m *Memory) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	if u.Balance+amount < 0 {
		return 0, ledger.ErrInsufficientBalance
	}
	u.Balance += amount
	return u.Balance, nil
}

func (m *Memory) Balance(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, ErrNotFound
	}
	return u.Balance, nil
}

func (m *Memory) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- settings ----

func (m *Memory) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings[key], nil
}

func (m *Memory) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}
