package round_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
	"github.com/galaxy-digital/line-dice-bot/internal/store"
)

type fixture struct {
	mem     *store.Memory
	book    *ledger.Ledger
	machine *round.Machine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	book := ledger.New(mem)
	m := round.NewMachine(zap.NewNop(), mem, book, mem, nil)
	return &fixture{mem: mem, book: book, machine: m}
}

func (f *fixture) fundUser(t *testing.T, externalID string, balance int64) *store.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.mem.CreateUser(ctx, externalID, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.mem.Credit(ctx, u.ID, balance); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) place(t *testing.T, userID int64, text string) {
	t.Helper()
	lines, err := bet.ParseLines(text)
	if err != nil {
		t.Fatal(err)
	}
	err = f.machine.WithOpenRound(func(roundID int64) error {
		_, _, err := f.book.Place(context.Background(), roundID, userID, lines)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.machine.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1001 {
		t.Errorf("first round id = %d, want 1001", id)
	}

	if _, err := f.machine.Start(ctx); !errors.Is(err, round.ErrAlreadyOpen) {
		t.Errorf("second start err = %v, want ErrAlreadyOpen", err)
	}

	// revelar antes de travar não pode
	if _, err := f.machine.Reveal(ctx, "234"); !errors.Is(err, round.ErrNotLocked) {
		t.Errorf("reveal while open err = %v, want ErrNotLocked", err)
	}

	if _, err := f.machine.Lock(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.machine.Lock(ctx); !errors.Is(err, round.ErrAlreadyLocked) {
		t.Errorf("second lock err = %v, want ErrAlreadyLocked", err)
	}
	if _, err := f.machine.Start(ctx); !errors.Is(err, round.ErrAlreadyOpen) {
		t.Errorf("start while locked err = %v, want ErrAlreadyOpen", err)
	}

	s, err := f.machine.Reveal(ctx, "234")
	if err != nil {
		t.Fatal(err)
	}
	if s.RoundID != 1001 {
		t.Errorf("settled round = %d", s.RoundID)
	}
	if st, cur := f.machine.Current(); st != round.StateIdle || cur != 0 {
		t.Errorf("after reveal state=%v current=%d", st, cur)
	}

	// a rodada liquidada não é mais endereçável
	if _, err := f.machine.Reveal(ctx, "234"); !errors.Is(err, round.ErrNotLocked) {
		t.Errorf("second reveal err = %v, want ErrNotLocked", err)
	}

	id, err = f.machine.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != 1002 {
		t.Errorf("next round id = %d, want 1002", id)
	}
}

func TestLockWithoutRound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.machine.Lock(context.Background()); !errors.Is(err, round.ErrNotOpen) {
		t.Errorf("err = %v, want ErrNotOpen", err)
	}
}

func TestRevealValidatesResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.machine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.machine.Lock(ctx); err != nil {
		t.Fatal(err)
	}

	for _, bad := range []string{"", "23", "2345", "237", "934"} {
		if _, err := f.machine.Reveal(ctx, bad); !errors.Is(err, bet.ErrInvalidResult) {
			t.Errorf("Reveal(%q) err = %v, want ErrInvalidResult", bad, err)
		}
	}
	// a rodada continua travada e pode ser revelada direito
	if _, err := f.machine.Reveal(ctx, "234"); err != nil {
		t.Fatal(err)
	}
}

func TestAdmissionGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	gate := func() error { return f.machine.WithOpenRound(func(int64) error { return nil }) }

	if err := gate(); !errors.Is(err, round.ErrNotStarted) {
		t.Errorf("idle gate err = %v, want ErrNotStarted", err)
	}
	if _, err := f.machine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := gate(); err != nil {
		t.Errorf("open gate err = %v", err)
	}
	if _, err := f.machine.Lock(ctx); err != nil {
		t.Fatal(err)
	}
	if err := gate(); !errors.Is(err, round.ErrBettingClosed) {
		t.Errorf("locked gate err = %v, want ErrBettingClosed", err)
	}
}

func TestSettlementAggregatesPerUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.fundUser(t, "ext-alice", 1000)
	bob := f.fundUser(t, "ext-bob", 500)

	if _, err := f.machine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	f.place(t, alice.ID, "small/100\n2/100")
	f.place(t, bob.ID, "big/200")
	if _, err := f.machine.Lock(ctx); err != nil {
		t.Fatal(err)
	}

	s, err := f.machine.Reveal(ctx, "234")
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalStaked != 400 || s.TotalPayout != 400 {
		t.Errorf("totals staked=%d payout=%d, want 400/400", s.TotalStaked, s.TotalPayout)
	}
	if len(s.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(s.Lines))
	}
	// linhas ordenadas por usuário, um único crédito cada
	if s.Lines[0].UserID != alice.ID || s.Lines[1].UserID != bob.ID {
		t.Fatalf("line order: %+v", s.Lines)
	}
	// alice: small acerta (200) e o 2 aparece uma vez (200)
	if s.Lines[0].Payout != 400 || s.Lines[0].Balance != 1200 {
		t.Errorf("alice payout=%d balance=%d, want 400/1200", s.Lines[0].Payout, s.Lines[0].Balance)
	}
	// bob: big perde com soma 9
	if s.Lines[1].Payout != 0 || s.Lines[1].Balance != 300 {
		t.Errorf("bob payout=%d balance=%d, want 0/300", s.Lines[1].Payout, s.Lines[1].Balance)
	}

	if balance, _ := f.mem.Balance(ctx, alice.ID); balance != 1200 {
		t.Errorf("alice persisted balance = %d", balance)
	}
	if balance, _ := f.mem.Balance(ctx, bob.ID); balance != 300 {
		t.Errorf("bob persisted balance = %d", balance)
	}

	past, err := f.mem.PastResults(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(past) != 1 || past[0].Result != "234" || past[0].RoundID != 1001 {
		t.Errorf("past results = %+v", past)
	}
}

func TestLeopardSettlement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.fundUser(t, "ext-u", 1000)

	if _, err := f.machine.Start(ctx); err != nil {
		t.Fatal(err)
	}
	f.place(t, u.ID, "even/100\n2/100")
	if _, err := f.machine.Lock(ctx); err != nil {
		t.Fatal(err)
	}

	s, err := f.machine.Reveal(ctx, "222")
	if err != nil {
		t.Fatal(err)
	}
	// categoria zerada pelo leopardo, dígito paga 4x
	if s.Lines[0].Payout != 400 {
		t.Errorf("payout = %d, want 400", s.Lines[0].Payout)
	}
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)

	m1 := round.NewMachine(zap.NewNop(), mem, book, mem, nil)
	if _, err := m1.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m1.Lock(ctx); err != nil {
		t.Fatal(err)
	}

	// um processo novo retoma a rodada travada do banco
	m2 := round.NewMachine(zap.NewNop(), mem, book, mem, nil)
	if err := m2.Resume(ctx); err != nil {
		t.Fatal(err)
	}
	if st, cur := m2.Current(); st != round.StateLocked || cur != 1001 {
		t.Errorf("resumed state=%v current=%d, want locked/1001", st, cur)
	}
	if _, err := m2.Reveal(ctx, "111"); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentPlacement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.fundUser(t, "ext-u", 1000)

	if _, err := f.machine.Start(ctx); err != nil {
		t.Fatal(err)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lines, err := bet.ParseLines("2/10")
			if err != nil {
				t.Error(err)
				return
			}
			err = f.machine.WithOpenRound(func(roundID int64) error {
				_, _, err := f.book.Place(ctx, roundID, u.ID, lines)
				return err
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if balance, _ := f.mem.Balance(ctx, u.ID); balance != 1000-n*10 {
		t.Errorf("balance = %d, want %d", balance, 1000-n*10)
	}
	ws, err := f.book.ListByRound(ctx, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != n {
		t.Errorf("wagers = %d, want %d", len(ws), n)
	}
}
