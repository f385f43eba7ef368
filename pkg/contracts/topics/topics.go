package topics

const (
	// Apostas
	WagerPlaced = "wager_placed"

	// Rodadas
	RoundSettled    = "round_settled"
	RoundSettledDLQ = "round_settled_dlq"
)
