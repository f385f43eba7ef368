package events

// SettledLine é o resultado agregado de um usuário em uma rodada.
type SettledLine struct {
	UserID  int64 `json:"user_id"`
	Staked  int64 `json:"staked"`
	Payout  int64 `json:"payout"` // retorno bruto (aposta já debitada na entrada)
	Balance int64 `json:"balance"`
}

type RoundSettled struct {
	RoundID     int64         `json:"round_id"`
	Result      string        `json:"result"` // três dígitos 1-6, ex: "234"
	TotalStaked int64         `json:"total_staked"`
	TotalPayout int64         `json:"total_payout"`
	Lines       []SettledLine `json:"lines"`
	TsUnixMs    int64         `json:"ts_unix_ms"`
}
