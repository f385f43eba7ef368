package dto

// WebhookResponse devolve ao gateway as respostas a entregar no chat.
type WebhookResponse struct {
	Replies []OutboundReply `json:"replies"`
}

type OutboundReply struct {
	ReplyToken string  `json:"replyToken"`
	Code       string  `json:"code"`
	Text       string  `json:"text"`
	Render     *Render `json:"render,omitempty"`
}

// Render é um pedido de imagem para o renderizador externo.
type Render struct {
	Kind    string      `json:"kind"` // "result" | "history"
	RoundID int64       `json:"round_id,omitempty"`
	Result  string      `json:"result,omitempty"`
	Rounds  []PastRound `json:"rounds,omitempty"`
}

type PastRound struct {
	RoundID int64  `json:"round_id"`
	Result  string `json:"result"`
}
