package dto

// WebhookRequest é o lote de eventos que o gateway de chat entrega.
type WebhookRequest struct {
	Events []Event `json:"events"`
}

type Event struct {
	Type       string  `json:"type"` // só "message" interessa
	ReplyToken string  `json:"replyToken"`
	Source     Source  `json:"source"`
	Message    Message `json:"message"`
}

type Source struct {
	UserID      string `json:"userId"`
	GroupID     string `json:"groupId,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type Message struct {
	Type string `json:"type"` // "text"
	Text string `json:"text"`
}
