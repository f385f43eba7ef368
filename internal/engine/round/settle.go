package round

import (
	"context"
	"sort"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
)

// UserResult é o efeito agregado da rodada sobre um usuário.
// Payout é o retorno bruto; o líquido para exibição é Payout-Staked,
// já que a aposta foi debitada na entrada.
type UserResult struct {
	UserID  int64
	Staked  int64
	Payout  int64
	Balance int64
}

// Settlement é o fechamento completo de uma rodada.
type Settlement struct {
	RoundID     int64
	Result      bet.Result
	Lines       []UserResult
	TotalStaked int64
	TotalPayout int64
}

// settle busca todas as apostas da rodada, calcula o retorno de cada uma,
// agrega por usuário e aplica um único crédito de saldo por usuário.
// Chamado com o gate exclusivo já tomado: o livro está estável.
func (m *Machine) settle(ctx context.Context, roundID int64, result bet.Result) (*Settlement, error) {
	wagers, err := m.ledger.ListByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}

	type agg struct{ staked, payout int64 }
	perUser := make(map[int64]*agg)
	var order []int64
	for _, w := range wagers {
		a, ok := perUser[w.UserID]
		if !ok {
			a = &agg{}
			perUser[w.UserID] = a
			order = append(order, w.UserID)
		}
		a.staked += w.Stake
		a.payout += bet.Payout(result, w.Stake, w.Tokens)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	s := &Settlement{RoundID: roundID, Result: result}
	for _, uid := range order {
		a := perUser[uid]
		var balance int64
		if a.payout != 0 {
			balance, err = m.wallet.Credit(ctx, uid, a.payout)
		} else {
			balance, err = m.wallet.Balance(ctx, uid)
		}
		if err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, UserResult{UserID: uid, Staked: a.staked, Payout: a.payout, Balance: balance})
		s.TotalStaked += a.staked
		s.TotalPayout += a.payout
	}

	if err := m.store.FinishRound(ctx, roundID, result.String(), s.TotalStaked, s.TotalPayout); err != nil {
		return nil, err
	}
	return s, nil
}
