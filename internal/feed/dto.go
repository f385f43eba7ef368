package feed

// Update é o payload enviado aos observadores do feed ao vivo.
// Type: "round_settled" (por ora o único publicado).
type Update struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
