package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/galaxy-digital/line-dice-bot/internal/engine/bet"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/ledger"
	"github.com/galaxy-digital/line-dice-bot/internal/engine/round"
)

// Postgres implementa as portas de persistência do motor em banco Postgres.
// Tabelas: users, rounds, wagers, settings (e settle_audit, escrita pelo worker).
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ---- rounds (round.Store) ----

// CreateRound aloca maxID+1 (piso 1001) e insere a rodada aberta na mesma
// transação, garantindo a primitiva atômica "lê máximo, insere".
func (p *Postgres) CreateRound(ctx context.Context) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id)+1, 1001) FROM rounds`).Scan(&id); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rounds (id, state, total_staked, total_payout, created_at, updated_at)
		VALUES ($1, 'OPEN', 0, 0, now(), now())`, id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Postgres) LockRound(ctx context.Context, roundID int64) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE rounds SET state='LOCKED', updated_at=now() WHERE id=$1`, roundID)
	return err
}

func (p *Postgres) FinishRound(ctx context.Context, roundID int64, result string, totalStaked, totalPayout int64) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE rounds SET state='SETTLED', result=$2, total_staked=$3, total_payout=$4, updated_at=now()
		WHERE id=$1`, roundID, result, totalStaked, totalPayout)
	return err
}

// CurrentRound devolve a rodada ainda não liquidada, usada na retomada após restart.
func (p *Postgres) CurrentRound(ctx context.Context) (int64, bool, bool, error) {
	var id int64
	var state string
	err := p.db.QueryRowContext(ctx,
		`SELECT id, state FROM rounds WHERE state <> 'SETTLED' ORDER BY id DESC LIMIT 1`).Scan(&id, &state)
	if err == sql.ErrNoRows {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return id, state == "LOCKED", true, nil
}

// PastResults devolve as últimas n rodadas liquidadas, da mais antiga
// para a mais recente.
func (p *Postgres) PastResults(ctx context.Context, limit int) ([]round.PastResult, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, result FROM rounds WHERE state='SETTLED' ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []round.PastResult
	for rows.Next() {
		var r round.PastResult
		if err := rows.Scan(&r.RoundID, &r.Result); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ---- wagers (ledger.Store) ----

// InsertWagers debita o total do saldo e grava o lote de apostas na mesma
// transação. Lock pessimista na linha do usuário serializa com cancelamento
// e liquidação; usuários distintos não se bloqueiam.
func (p *Postgres) InsertWagers(ctx context.Context, userID int64, total int64, ws []ledger.Wager) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if balance < total {
		return 0, ledger.ErrInsufficientBalance
	}

	balance -= total
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$1, updated_at=now() WHERE id=$2`, balance, userID); err != nil {
		return 0, err
	}
	for _, w := range ws {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wagers (id, round_id, user_id, expression, stake, created_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			w.ID, w.RoundID, w.UserID, w.Expression(), w.Stake, w.CreatedAt); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// DeleteWagers remove todas as apostas do usuário na rodada e devolve a soma
// ao saldo, tudo ou nada.
func (p *Postgres) DeleteWagers(ctx context.Context, roundID, userID int64) (int64, int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, 0, ErrNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	var count int
	var refund int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(stake),0) FROM wagers WHERE round_id=$1 AND user_id=$2`,
		roundID, userID).Scan(&count, &refund); err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, ledger.ErrNothingToCancel
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM wagers WHERE round_id=$1 AND user_id=$2`, roundID, userID); err != nil {
		return 0, 0, err
	}
	balance += refund
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$1, updated_at=now() WHERE id=$2`, balance, userID); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return refund, balance, nil
}

func (p *Postgres) WagersByRound(ctx context.Context, roundID int64) ([]ledger.Wager, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, round_id, user_id, expression, stake, created_at
		FROM wagers WHERE round_id=$1 ORDER BY created_at, id`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Wager
	for rows.Next() {
		var w ledger.Wager
		var expr string
		if err := rows.Scan(&w.ID, &w.RoundID, &w.UserID, &expr, &w.Stake, &w.CreatedAt); err != nil {
			return nil, err
		}
		tokens, err := bet.ParseExpression(expr)
		if err != nil {
			return nil, fmt.Errorf("wager %s: bad expression %q: %w", w.ID, expr, err)
		}
		w.Tokens = tokens
		out = append(out, w)
	}
	return out, rows.Err()
}

// ---- users ----

// ByExternalID busca a conta pelo id do chat. Nunca decide por tipo do id:
// quem chama escolhe explicitamente esta ou ByInternalID.
func (p *Postgres) ByExternalID(ctx context.Context, externalID string) (*User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `
		SELECT id, external_id, display_name, balance, created_at, updated_at
		FROM users WHERE external_id=$1`, externalID))
}

func (p *Postgres) ByInternalID(ctx context.Context, id int64) (*User, error) {
	return p.scanUser(p.db.QueryRowContext(ctx, `
		SELECT id, external_id, display_name, balance, created_at, updated_at
		FROM users WHERE id=$1`, id))
}

func (p *Postgres) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.ExternalID, &u.DisplayName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser aloca o próximo id interno (piso 1001) e insere a conta com
// saldo zero, máximo e inserção na mesma transação.
func (p *Postgres) CreateUser(ctx context.Context, externalID, displayName string) (*User, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id)+1, 1001) FROM users`).Scan(&id); err != nil {
		return nil, err
	}
	var u User
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (id, external_id, display_name, balance, created_at, updated_at)
		VALUES ($1,$2,$3,0,now(),now())
		RETURNING id, external_id, display_name, balance, created_at, updated_at`,
		id, externalID, displayName).
		Scan(&u.ID, &u.ExternalID, &u.DisplayName, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

// Credit aplica um delta ao saldo (negativo = retirada) com lock pessimista.
// Recusa qualquer resultado negativo sem efeito parcial.
func (p *Postgres) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	balance += amount
	if balance < 0 {
		return 0, ledger.ErrInsufficientBalance
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$1, updated_at=now() WHERE id=$2`, balance, userID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

func (p *Postgres) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM users WHERE id=$1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return balance, err
}

func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, external_id, display_name, balance, created_at, updated_at
		FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.DisplayName, &u.Balance, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// ---- settings ----

func (p *Postgres) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

func (p *Postgres) SetSetting(ctx context.Context, key, value string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1,$2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, key, value)
	return err
}
