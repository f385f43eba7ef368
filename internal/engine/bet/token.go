package bet

import (
	"errors"
	"strconv"
	"strings"
)

// Category é uma aposta sobre a soma dos três dados.
type Category string

const (
	Big   Category = "big"   // soma 11-17
	Small Category = "small" // soma 4-10
	Odd   Category = "odd"   // soma ímpar 5-17
	Even  Category = "even"  // soma par 4-16
)

// ordem por tamanho do símbolo, o scanner casa sempre o maior prefixo
var categories = []Category{Small, Even, Big, Odd}

var (
	ErrInvalidExpression = errors.New("invalid bet expression")
	ErrDuplicateDigit    = errors.New("digit pair must use two distinct digits")
	ErrInvalidStakeValue = errors.New("invalid stake value")
)

// Token é a unidade atômica de uma aposta: uma categoria ou um dígito 1-6.
// Category vazia indica token de dígito.
type Token struct {
	Category Category
	Digit    int
}

func (t Token) IsDigit() bool { return t.Category == "" }

func (t Token) String() string {
	if t.IsDigit() {
		return strconv.Itoa(t.Digit)
	}
	return string(t.Category)
}

// Expression devolve a forma canônica da sequência, ex: "big3", "23".
func Expression(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.String())
	}
	return b.String()
}

// ParseExpression varre uma expressão de aposta já separada do valor,
// casando a cada posição o maior símbolo de categoria ou um dígito 1-6.
// Regras: no máximo uma categoria por expressão, nenhuma posição pode
// ficar parada sem casar nada, e a sequência final tem 1 ou 2 tokens.
func ParseExpression(expr string) ([]Token, error) {
	var tokens []Token
	seenCategory := false
	for i := 0; i < len(expr); {
		start := i
		for _, c := range categories {
			if strings.HasPrefix(expr[i:], string(c)) {
				if seenCategory {
					return nil, ErrInvalidExpression
				}
				seenCategory = true
				tokens = append(tokens, Token{Category: c})
				i += len(c)
				break
			}
		}
		if i < len(expr) {
			if ch := expr[i]; ch >= '1' && ch <= '6' {
				tokens = append(tokens, Token{Digit: int(ch - '0')})
				i++
			}
		}
		if i == start {
			// travou: nem categoria nem dígito nesta posição
			return nil, ErrInvalidExpression
		}
	}
	if len(tokens) == 0 || len(tokens) > 2 {
		return nil, ErrInvalidExpression
	}
	return tokens, nil
}
