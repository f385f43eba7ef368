package events

type WagerPlaced struct {
	WagerID    string `json:"wager_id"`
	RoundID    int64  `json:"round_id"`
	UserID     int64  `json:"user_id"`
	Expression string `json:"expression"` // tokens canônicos, ex: "big3"
	Stake      int64  `json:"stake"`
	TsUnixMs   int64  `json:"ts_unix_ms"`
}
