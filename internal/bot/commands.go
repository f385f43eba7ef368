package bot

// Comandos do operador. As palavras vêm do protocolo original do chat e
// são o contrato externo observável, junto com a gramática de aposta.
const (
	CmdStart     = "/start" // abre a rodada
	CmdLock      = "/B"     // congela as apostas
	CmdDeposit   = "/D"     // /D <uid> <valor>, negativo = retirada
	CmdReveal    = "/S"     // /S <3 dígitos>, revela e liquida
	CmdListUsers = "/L"
	CmdSetBank   = "/set" // /set <conta>
)

// Comandos do jogador.
const (
	CmdCancel   = "/X" // cancela todas as apostas da rodada
	CmdBalance  = "/C"
	CmdHelp     = "/A"
	CmdShowBank = "/Y"
	CmdHistory  = "/N" // últimas 10 rodadas
)

// chave da conta bancária em settings
const bankAccountKey = "bank_account"
