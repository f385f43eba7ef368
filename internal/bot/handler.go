package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
	"github.com/galaxy-digital/line-dice-bot/internal/store"
	"github.com/galaxy-digital/line-dice-bot/pkg/contracts/events"
)

// Users são as operações de conta usadas pelos comandos. Duas buscas
// explícitas: quem chama sabe se tem o id do chat ou o id interno.
type Users interface {
	ByExternalID(ctx context.Context, externalID string) (*store.User, error)
	ByInternalID(ctx context.Context, id int64) (*store.User, error)
	CreateUser(ctx context.Context, externalID, displayName string) (*store.User, error)
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)
	ListUsers(ctx context.Context) ([]store.User, error)
}

// History consulta rodadas já liquidadas.
type History interface {
	PastResults(ctx context.Context, limit int) ([]round.PastResult, error)
}

// Settings guarda configurações do jogo (conta de depósito).
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// Publisher emite eventos de aposta para o tópico de auditoria.
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error
}

// Inbound é a tupla que o transporte entrega por mensagem de chat.
type Inbound struct {
	UserID      string // id externo no chat
	DisplayName string
	IsOperator  bool
	Text        string
}

// Handler roteia comandos de chat para o motor e devolve desfechos
// estruturados; nenhuma formatação acontece fora do catálogo.
type Handler struct {
	log      *zap.Logger
	machine  *round.Machine
	ledger   *ledger.Ledger
	users    Users
	history  History
	settings Settings
	publ     Publisher // opcional

	// callbacks de métricas
	OnWagerPlaced  func()
	OnRoundSettled func()
	OnError        func(stage string)
}

func NewHandler(log *zap.Logger, m *round.Machine, l *ledger.Ledger, u Users, hi History, s Settings, p Publisher) *Handler {
	return &Handler{log: log, machine: m, ledger: l, users: u, history: hi, settings: s, publ: p}
}

// Handle processa uma mensagem. Devolve nil quando o texto não é um
// comando nem uma aposta legível (o bot fica quieto no grupo).
func (h *Handler) Handle(ctx context.Context, in Inbound) *Reply {
	cmd, param := splitCommand(in.Text)
	if in.IsOperator {
		if r, handled := h.handleAdmin(ctx, cmd, param); handled {
			return r
		}
	}
	return h.handlePlayer(ctx, in, cmd)
}

func splitCommand(text string) (cmd, param string) {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, ' '); i >= 0 {
		return text[:i], strings.TrimSpace(text[i+1:])
	}
	return text, ""
}

func (h *Handler) handleAdmin(ctx context.Context, cmd, param string) (*Reply, bool) {
	switch cmd {
	case CmdStart:
		id, err := h.machine.Start(ctx)
		switch {
		case err == nil:
			return reply(OutRoundStarted, text(OutRoundStarted, id)), true
		case errors.Is(err, round.ErrAlreadyOpen):
			return reply(OutAlreadyOpen, text(OutAlreadyOpen, id)), true
		default:
			return h.internalError("start", err), true
		}

	case CmdLock:
		id, err := h.machine.Lock(ctx)
		switch {
		case err == nil:
			return reply(OutRoundLocked, text(OutRoundLocked, id)), true
		case errors.Is(err, round.ErrNotOpen):
			return reply(OutNotStarted, text(OutNotStarted)), true
		case errors.Is(err, round.ErrAlreadyLocked):
			return reply(OutAlreadyLocked, text(OutAlreadyLocked, id)), true
		default:
			return h.internalError("lock", err), true
		}

	case CmdDeposit:
		return h.deposit(ctx, param), true

	case CmdReveal:
		return h.reveal(ctx, param), true

	case CmdListUsers:
		users, err := h.users.ListUsers(ctx)
		if err != nil {
			return h.internalError("list_users", err), true
		}
		if len(users) == 0 {
			return reply(OutNoUsers, text(OutNoUsers)), true
		}
		return reply(OutUserList, formatUserList(users)), true

	case CmdSetBank:
		if param == "" {
			return reply(OutInvalidParam, text(OutInvalidParam)), true
		}
		if err := h.settings.SetSetting(ctx, bankAccountKey, param); err != nil {
			return h.internalError("set_bank", err), true
		}
		return reply(OutBankSet, text(OutBankSet)), true
	}
	return nil, false
}

// deposit trata /D <uid> <valor>; valor negativo é retirada.
func (h *Handler) deposit(ctx context.Context, param string) *Reply {
	fields := strings.Fields(param)
	if len(fields) != 2 {
		return reply(OutInvalidParam, text(OutInvalidParam))
	}
	uid, err1 := strconv.ParseInt(fields[0], 10, 64)
	amount, err2 := strconv.ParseInt(fields[1], 10, 64)
	if err1 != nil || err2 != nil {
		return reply(OutInvalidParam, text(OutInvalidParam))
	}

	if _, err := h.users.ByInternalID(ctx, uid); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return reply(OutUserNotFound, text(OutUserNotFound))
		}
		return h.internalError("deposit_lookup", err)
	}

	balance, err := h.users.Credit(ctx, uid, amount)
	switch {
	case err == nil:
		if amount >= 0 {
			return reply(OutDepositOK, text(OutDepositOK, amount, balance))
		}
		return reply(OutWithdrawOK, text(OutWithdrawOK, -amount, balance))
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return reply(OutWithdrawDenied, text(OutWithdrawDenied))
	default:
		return h.internalError("deposit", err)
	}
}

// reveal trata /S <resultado>: valida, liquida e anuncia.
func (h *Handler) reveal(ctx context.Context, param string) *Reply {
	s, err := h.machine.Reveal(ctx, param)
	switch {
	case err == nil:
	case errors.Is(err, bet.ErrInvalidResult):
		return reply(OutInvalidResult, text(OutInvalidResult))
	case errors.Is(err, round.ErrNotLocked):
		if st, _ := h.machine.Current(); st == round.StateIdle {
			return reply(OutNotStarted, text(OutNotStarted))
		}
		return reply(OutNotLocked, text(OutNotLocked))
	default:
		return h.internalError("reveal", err)
	}

	if h.OnRoundSettled != nil {
		h.OnRoundSettled()
	}
	return &Reply{
		Code: OutRoundResult,
		Text: formatSettlement(s),
		Render: &RenderRequest{
			Kind:    RenderResult,
			RoundID: s.RoundID,
			Result:  s.Result.String(),
		},
	}
}

func (h *Handler) handlePlayer(ctx context.Context, in Inbound, cmd string) *Reply {
	user, err := h.users.ByExternalID(ctx, in.UserID)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.users.CreateUser(ctx, in.UserID, in.DisplayName)
	}
	if err != nil {
		return h.internalError("user_lookup", err)
	}

	switch cmd {
	case CmdCancel:
		return h.cancelAll(ctx, user.ID)

	case CmdBalance:
		return reply(OutBalance, text(OutBalance, user.Balance))

	case CmdHelp:
		return reply(OutHelp, helpText)

	case CmdShowBank:
		account, err := h.settings.GetSetting(ctx, bankAccountKey)
		if err != nil {
			return h.internalError("show_bank", err)
		}
		if account == "" {
			return nil
		}
		return reply(OutBankInfo, text(OutBankInfo, account))

	case CmdHistory:
		return h.pastRounds(ctx)
	}

	return h.placeBets(ctx, user, in.Text)
}

func (h *Handler) cancelAll(ctx context.Context, userID int64) *Reply {
	var refund, balance int64
	err := h.machine.WithOpenRound(func(roundID int64) error {
		var err error
		refund, balance, err = h.ledger.CancelAll(ctx, roundID, userID)
		return err
	})
	switch {
	case err == nil:
		return reply(OutCancelled, text(OutCancelled, refund, balance))
	case errors.Is(err, round.ErrNotStarted):
		return reply(OutNotStarted, text(OutNotStarted))
	case errors.Is(err, round.ErrBettingClosed):
		_, id := h.machine.Current()
		return reply(OutBettingClosed, text(OutBettingClosed, id))
	case errors.Is(err, ledger.ErrNothingToCancel):
		return reply(OutNothingToCancel, text(OutNothingToCancel))
	default:
		return h.internalError("cancel", err)
	}
}

func (h *Handler) pastRounds(ctx context.Context) *Reply {
	rs, err := h.history.PastResults(ctx, 10)
	if err != nil {
		return h.internalError("history", err)
	}
	if len(rs) == 0 {
		return reply(OutNoHistory, text(OutNoHistory))
	}
	var b strings.Builder
	b.WriteString("Last results:")
	for _, r := range rs {
		b.WriteString("\nRound #" + strconv.FormatInt(r.RoundID, 10) + "  " + r.Result)
	}
	return &Reply{
		Code:   OutHistory,
		Text:   b.String(),
		Render: &RenderRequest{Kind: RenderHistory, Rounds: rs},
	}
}

// placeBets interpreta o texto como linhas de aposta e registra o lote.
// Texto que não parece aposta é ignorado em silêncio; par de dígitos
// repetido é a única falha de gramática respondida no grupo.
func (h *Handler) placeBets(ctx context.Context, user *store.User, msg string) *Reply {
	lines, err := bet.ParseLines(msg)
	if err != nil {
		if errors.Is(err, bet.ErrDuplicateDigit) {
			return reply(OutDuplicateDigit, text(OutDuplicateDigit))
		}
		return nil
	}

	var (
		wagers  []ledger.Wager
		balance int64
	)
	err = h.machine.WithOpenRound(func(roundID int64) error {
		var err error
		wagers, balance, err = h.ledger.Place(ctx, roundID, user.ID, lines)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, round.ErrNotStarted):
		return reply(OutNotStarted, text(OutNotStarted))
	case errors.Is(err, round.ErrBettingClosed):
		_, id := h.machine.Current()
		return reply(OutBettingClosed, text(OutBettingClosed, id))
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return reply(OutInsufficientBalance, text(OutInsufficientBalance))
	default:
		return h.internalError("place", err)
	}

	var total int64
	for _, w := range wagers {
		total += w.Stake
		if h.OnWagerPlaced != nil {
			h.OnWagerPlaced()
		}
		if h.publ != nil {
			e := events.WagerPlaced{
				WagerID:    w.ID,
				RoundID:    w.RoundID,
				UserID:     w.UserID,
				Expression: w.Expression(),
				Stake:      w.Stake,
				TsUnixMs:   time.Now().UnixMilli(),
			}
			if err := h.publ.PublishWagerPlaced(ctx, e); err != nil {
				h.log.Warn("publish wager_placed", zap.Error(err))
			}
		}
	}
	return reply(OutBetAccepted, formatBetAccepted(wagers, total, balance))
}

func (h *Handler) internalError(stage string, err error) *Reply {
	h.log.Error("command failed", zap.String("stage", stage), zap.Error(err))
	if h.OnError != nil {
		h.OnError(stage)
	}
	return reply(OutInternalError, text(OutInternalError))
}
