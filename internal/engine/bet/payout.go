package bet

import "errors"

// Result são os três dados revelados de uma rodada.
type Result [3]int

var ErrInvalidResult = errors.New("result must be exactly 3 digits 1-6")

// ParseResult valida e converte a string de resultado, ex: "234".
func ParseResult(s string) (Result, error) {
	var r Result
	if len(s) != 3 {
		return r, ErrInvalidResult
	}
	for i := 0; i < 3; i++ {
		if s[i] < '1' || s[i] > '6' {
			return r, ErrInvalidResult
		}
		r[i] = int(s[i] - '0')
	}
	return r, nil
}

func (r Result) String() string {
	return string([]byte{byte('0' + r[0]), byte('0' + r[1]), byte('0' + r[2])})
}

func (r Result) Sum() int { return r[0] + r[1] + r[2] }

// IsLeopard indica os três dados iguais; zera qualquer aposta de categoria.
func (r Result) IsLeopard() bool { return r[0] == r[1] && r[1] == r[2] }

// Matches conta quantos dos três dados são iguais ao dígito apostado.
func (r Result) Matches(digit int) int {
	n := 0
	for _, d := range r {
		if d == digit {
			n++
		}
	}
	return n
}

// taxas em décimos, o pagamento bruto é stake*rate/10
const (
	rateCategory = 20 // categoria pura: 2x
	rateCombo    = 33 // categoria+dígito: 3.3x
	ratePair     = 60 // par de dígitos, ambos presentes: 6x
)

// acc é o estado do fold sobre a sequência de tokens: a taxa corrente e se
// uma categoria já foi satisfeita (muda a taxa de um dígito posterior).
type acc struct {
	rate        int64
	categoryHit bool
}

// Payout calcula o retorno bruto de uma aposta (0 = perda total).
// Os tokens são aplicados na ordem em que foram escritos; cada passo
// devolve perda terminal ou o acumulador atualizado.
func Payout(result Result, stake int64, tokens []Token) int64 {
	a := acc{}
	for _, t := range tokens {
		next, alive := step(a, result, t)
		if !alive {
			return 0
		}
		a = next
	}
	return stake * a.rate / 10
}

func step(a acc, r Result, t Token) (acc, bool) {
	if !t.IsDigit() {
		// leopardo zera apostas de categoria, restante da sequência incluso
		if r.IsLeopard() {
			return a, false
		}
		if !categoryHits(t.Category, r.Sum()) {
			return a, false
		}
		if a.rate == 0 {
			a.rate = rateCategory
		} else {
			a.rate = rateCombo
		}
		a.categoryHit = true
		return a, true
	}

	matched := r.Matches(t.Digit)
	if matched == 0 {
		return a, false
	}
	switch {
	case a.categoryHit:
		a.rate = rateCombo
	case a.rate != 0:
		// segundo dígito de um par, o primeiro já acertou
		a.rate = ratePair
	case matched == 1:
		a.rate = 20
	case matched == 2:
		a.rate = 30
	default:
		a.rate = 40
	}
	return a, true
}

func categoryHits(c Category, sum int) bool {
	switch c {
	case Big:
		return sum >= 11 && sum <= 17
	case Small:
		return sum >= 4 && sum <= 10
	case Odd:
		return sum%2 == 1 && sum >= 5 && sum <= 17
	case Even:
		return sum%2 == 0 && sum >= 4 && sum <= 16
	}
	return false
}
