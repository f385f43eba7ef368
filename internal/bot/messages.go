package bot

import (
	"fmt"
	"strings"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
	"github.com/galaxy-digital/line-dice-bot/internal/store"
)

// Outcome identifica o desfecho de um comando. O texto sai do catálogo
// abaixo; o transporte só entrega, nunca monta mensagem.
type Outcome string

const (
	OutRoundStarted        Outcome = "round_started"
	OutRoundLocked         Outcome = "round_locked"
	OutAlreadyOpen         Outcome = "already_open"
	OutAlreadyLocked       Outcome = "already_locked"
	OutNotStarted          Outcome = "not_started"
	OutNotLocked           Outcome = "not_locked"
	OutBettingClosed       Outcome = "betting_closed"
	OutBetAccepted         Outcome = "bet_accepted"
	OutDuplicateDigit      Outcome = "duplicate_digit"
	OutInsufficientBalance Outcome = "insufficient_balance"
	OutCancelled           Outcome = "bets_cancelled"
	OutNothingToCancel     Outcome = "nothing_to_cancel"
	OutBalance             Outcome = "balance"
	OutDepositOK           Outcome = "deposit_ok"
	OutWithdrawOK          Outcome = "withdraw_ok"
	OutWithdrawDenied      Outcome = "withdraw_denied"
	OutUserNotFound        Outcome = "user_not_found"
	OutInvalidParam        Outcome = "invalid_param"
	OutInvalidResult       Outcome = "invalid_result"
	OutUserList            Outcome = "user_list"
	OutNoUsers             Outcome = "no_users"
	OutBankSet             Outcome = "bank_set"
	OutBankInfo            Outcome = "bank_info"
	OutHelp                Outcome = "help"
	OutRoundResult         Outcome = "round_result"
	OutHistory             Outcome = "history"
	OutNoHistory           Outcome = "no_history"
	OutInternalError       Outcome = "internal_error"
)

// RenderKind marca um pedido de imagem para o renderizador externo.
type RenderKind string

const (
	RenderResult  RenderKind = "result"  // dados da rodada revelada
	RenderHistory RenderKind = "history" // últimas rodadas liquidadas
)

type RenderRequest struct {
	Kind    RenderKind
	RoundID int64
	Result  string
	Rounds  []round.PastResult
}

// Reply é o desfecho estruturado devolvido ao transporte.
type Reply struct {
	Code   Outcome
	Text   string
	Render *RenderRequest
}

func reply(code Outcome, text string) *Reply { return &Reply{Code: code, Text: text} }

// catálogo de mensagens por desfecho
var catalog = map[Outcome]string{
	OutRoundStarted:        "🚩 Round #%d is open, place your bets.",
	OutRoundLocked:         "🚩 Round #%d is locked, no more bets. Watch the live reveal.",
	OutAlreadyOpen:         "🚩 Round #%d is already open.",
	OutAlreadyLocked:       "🚩 Round #%d is already locked.",
	OutNotStarted:          "Betting has not started. The operator opens a round with /start.",
	OutNotLocked:           "The round must be locked with /B before the reveal.",
	OutBettingClosed:       "🚩 Round #%d is locked, bets are frozen.",
	OutDuplicateDigit:      "A digit pair must use two different digits.",
	OutInsufficientBalance: "❌ Insufficient balance, ask the operator for a deposit ❌",
	OutCancelled:           "Your bets were cancelled, %d returned. Balance: 💰%d💰",
	OutNothingToCancel:     "You have no bets in this round.",
	OutBalance:             "Your balance is 💰%d💰.",
	OutDepositOK:           "Deposit of %d done. Balance: 💰%d💰",
	OutWithdrawOK:          "Withdrawal of %d done. Balance: 💰%d💰",
	OutWithdrawDenied:      "The user balance does not cover that withdrawal.",
	OutUserNotFound:        "User does not exist.",
	OutInvalidParam:        "Invalid parameter.",
	OutInvalidResult:       "The result must be exactly 3 digits between 1 and 6.",
	OutNoUsers:             "Nobody is playing yet.",
	OutBankSet:             "Deposit account saved.",
	OutBankInfo:            "Deposit account:\n%s",
	OutNoHistory:           "No settled rounds yet.",
	OutInternalError:       "Unknown error, try again later.",
}

func text(code Outcome, args ...any) string {
	return fmt.Sprintf(catalog[code], args...)
}

// formatBetAccepted monta a confirmação linha a linha de um lote aceito.
func formatBetAccepted(ws []ledger.Wager, total, balance int64) string {
	var b strings.Builder
	for _, w := range ws {
		fmt.Fprintf(&b, " ✅%s => %d 💰💰\n", w.Expression(), w.Stake)
	}
	fmt.Fprintf(&b, "Total staked: 💰%d💰\n", total)
	fmt.Fprintf(&b, "Your balance is 💰%d💰.", balance)
	return b.String()
}

// formatSettlement monta o anúncio de resultado: cabeçalho e uma linha por
// usuário com o líquido assinado e o saldo final, alinhados em 30 colunas.
func formatSettlement(s *round.Settlement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round #%d result: %s", s.RoundID, s.Result)
	for _, ln := range s.Lines {
		net := ln.Payout - ln.Staked
		left := fmt.Sprintf("#%d", ln.UserID)
		right := fmt.Sprintf("%+d = %d", net, ln.Balance)
		pad := 30 - len(left) - len(right)
		if pad < 1 {
			pad = 1
		}
		b.WriteString("\n" + left + strings.Repeat(" ", pad) + right)
	}
	return b.String()
}

func formatUserList(users []store.User) string {
	ls := make([]string, 0, len(users))
	for _, u := range users {
		name := u.DisplayName
		if name == "" {
			name = u.ExternalID
		}
		ls = append(ls, fmt.Sprintf("User %d (%s): balance %d 💰💰", u.ID, name, u.Balance))
	}
	return strings.Join(ls, "\n")
}

const helpText = `Game rules:

1. Category bets (big/small/odd/even), 2x on a win:
   big/100   wins when the three dice sum 11-17
   small/100 wins when the sum is 4-10
   odd/100   wins on an odd sum 5-17
   even/100  wins on an even sum 4-16
   A leopard (three equal dice) loses every category bet.

2. Single digit, digit/amount, e.g. 2/100, digit 1-6:
   one match pays 2x, two matches 3x, three matches 4x.

3. Digit pair, e.g. 23/100, two distinct digits 1-6:
   pays 6x when both digits appear in the result.

4. Category + digit, e.g. big3/100 or 3big/100:
   pays 3.3x when the category wins and the digit appears.

Commands:
/X cancel all your bets this round
/C show balance
/Y show the deposit account
/N last 10 results

Operator:
/start open a round
/B lock the round
/S <3 digits> reveal and settle
/D <uid> <amount> deposit (negative withdraws)
/set <account> set the deposit account`
