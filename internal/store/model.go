package store

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// User é a conta persistida de um jogador. O saldo é o único campo
// numérico mutável; nunca fica negativo após uma transação confirmada.
type User struct {
	ID          int64  // id interno sequencial (piso 1001)
	ExternalID  string // id do usuário no chat
	DisplayName string
	Balance     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
