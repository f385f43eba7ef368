package bet

import (
	"regexp"
	"strconv"
	"strings"
)

// Line é uma linha de aposta já validada: sequência de tokens + valor.
type Line struct {
	Tokens []Token
	Stake  int64
}

// separadores: tudo que não é dígito nem letra dos símbolos de categoria
var fieldPattern = regexp.MustCompile(`[^0-9a-z]+`)

// ParseLines interpreta uma mensagem de aposta completa. Cada linha do texto
// carrega uma ou duas expressões seguidas do valor, ex: "big3/100", "2 3/50".
// Linhas com outra quantidade de campos são ignoradas; uma linha malformada
// invalida a mensagem inteira. Mensagem sem nenhuma aposta é inválida.
func ParseLines(text string) ([]Line, error) {
	var out []Line
	for _, raw := range strings.Split(strings.ToLower(text), "\n") {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if raw == "" {
			continue
		}
		fields := fieldPattern.Split(raw, -1)
		fields = compact(fields)
		if len(fields) != 2 && len(fields) != 3 {
			continue
		}

		// dígito repetido invalida antes mesmo da gramática rodar
		if len(fields) == 3 && fields[0] == fields[1] {
			return nil, ErrDuplicateDigit
		}
		if len(fields) == 2 && hasRepeatedDigit(fields[0]) {
			return nil, ErrDuplicateDigit
		}

		var tokens []Token
		for _, expr := range fields[:len(fields)-1] {
			ts, err := ParseExpression(expr)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, ts...)
		}
		if err := validateShape(tokens); err != nil {
			return nil, err
		}

		stake, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
		if err != nil {
			return nil, ErrInvalidStakeValue
		}
		if stake <= 0 {
			return nil, ErrInvalidStakeValue
		}
		out = append(out, Line{Tokens: tokens, Stake: stake})
	}
	if len(out) == 0 {
		return nil, ErrInvalidExpression
	}
	return out, nil
}

// validateShape aceita apenas as formas: categoria, dígito,
// categoria+dígito e dígito+dígito distintos.
func validateShape(tokens []Token) error {
	if len(tokens) == 0 || len(tokens) > 2 {
		return ErrInvalidExpression
	}
	nCat := 0
	for _, t := range tokens {
		if !t.IsDigit() {
			nCat++
		}
	}
	if nCat > 1 {
		return ErrInvalidExpression
	}
	if len(tokens) == 2 && nCat == 0 && tokens[0].Digit == tokens[1].Digit {
		return ErrDuplicateDigit
	}
	return nil
}

func hasRepeatedDigit(s string) bool {
	var seen [7]bool
	for i := 0; i < len(s); i++ {
		if s[i] < '1' || s[i] > '6' {
			continue
		}
		d := int(s[i] - '0')
		if seen[d] {
			return true
		}
		seen[d] = true
	}
	return false
}

func compact(fields []string) []string {
	out := fields[:0]
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
