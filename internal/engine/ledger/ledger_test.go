package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/store"
)

func mustLines(t *testing.T, text string) []bet.Line {
	t.Helper()
	lines, err := bet.ParseLines(text)
	if err != nil {
		t.Fatalf("ParseLines(%q): %v", text, err)
	}
	return lines
}

func newUser(t *testing.T, mem *store.Memory, balance int64) *store.User {
	t.Helper()
	ctx := context.Background()
	u, err := mem.CreateUser(ctx, "ext-"+t.Name(), "tester")
	if err != nil {
		t.Fatal(err)
	}
	if balance > 0 {
		if _, err := mem.Credit(ctx, u.ID, balance); err != nil {
			t.Fatal(err)
		}
	}
	return u
}

func TestPlaceDebitsExactly(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 1000)

	ws, balance, err := book.Place(ctx, 1001, u.ID, mustLines(t, "big/100\n2/50"))
	if err != nil {
		t.Fatal(err)
	}
	if balance != 850 {
		t.Errorf("balance = %d, want 850", balance)
	}
	if len(ws) != 2 {
		t.Fatalf("got %d wagers, want 2", len(ws))
	}
	for _, w := range ws {
		if w.ID == "" || w.RoundID != 1001 || w.UserID != u.ID || w.CreatedAt.IsZero() {
			t.Errorf("wager not fully populated: %+v", w)
		}
	}

	listed, err := book.ListByRound(ctx, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("ListByRound: got %d, want 2", len(listed))
	}
}

func TestPlaceInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 100)

	// o lote é avaliado pelo total: nada entra
	_, _, err := book.Place(ctx, 1001, u.ID, mustLines(t, "big/80\n2/80"))
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if balance, _ := mem.Balance(ctx, u.ID); balance != 100 {
		t.Errorf("balance mutated to %d on rejected batch", balance)
	}
	if ws, _ := book.ListByRound(ctx, 1001); len(ws) != 0 {
		t.Errorf("wagers written on rejected batch: %d", len(ws))
	}
}

func TestPlaceBoundary(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 100)

	// apostar o saldo inteiro é permitido
	_, balance, err := book.Place(ctx, 1001, u.ID, mustLines(t, "big/100"))
	if err != nil {
		t.Fatal(err)
	}
	if balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}
	// e mais um centavo não é
	_, _, err = book.Place(ctx, 1001, u.ID, mustLines(t, "big/1"))
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestPlaceRejectsBadStake(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 100)

	if _, _, err := book.Place(ctx, 1001, u.ID, nil); !errors.Is(err, ledger.ErrInvalidStake) {
		t.Errorf("empty batch err = %v, want ErrInvalidStake", err)
	}
	bad := []bet.Line{{Tokens: mustLines(t, "big/10")[0].Tokens, Stake: 0}}
	if _, _, err := book.Place(ctx, 1001, u.ID, bad); !errors.Is(err, ledger.ErrInvalidStake) {
		t.Errorf("zero stake err = %v, want ErrInvalidStake", err)
	}
}

func TestCancelAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 1000)

	lines := mustLines(t, "big/100\n23/50")
	if _, _, err := book.Place(ctx, 1001, u.ID, lines); err != nil {
		t.Fatal(err)
	}

	refund, balance, err := book.CancelAll(ctx, 1001, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if refund != 150 || balance != 1000 {
		t.Errorf("refund=%d balance=%d, want 150/1000", refund, balance)
	}

	// recolocar as mesmas apostas volta ao estado pós-aposta
	_, balance, err = book.Place(ctx, 1001, u.ID, lines)
	if err != nil {
		t.Fatal(err)
	}
	if balance != 850 {
		t.Errorf("balance after re-place = %d, want 850", balance)
	}
}

func TestCancelAllNothing(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	book := ledger.New(mem)
	u := newUser(t, mem, 100)

	if _, _, err := book.CancelAll(ctx, 1001, u.ID); !errors.Is(err, ledger.ErrNothingToCancel) {
		t.Errorf("err = %v, want ErrNothingToCancel", err)
	}

	// cancelamento não vaza entre rodadas
	if _, _, err := book.Place(ctx, 1001, u.ID, mustLines(t, "big/10")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := book.CancelAll(ctx, 1002, u.ID); !errors.Is(err, ledger.ErrNothingToCancel) {
		t.Errorf("other round err = %v, want ErrNothingToCancel", err)
	}
}
