package bet

import "testing"

func mustTokens(t *testing.T, expr string) []Token {
	t.Helper()
	tokens, err := ParseExpression(expr)
	if err != nil {
		t.Fatalf("ParseExpression(%q): %v", expr, err)
	}
	return tokens
}

func TestPayout(t *testing.T) {
	cases := []struct {
		result string
		expr   string
		stake  int64
		want   int64
	}{
		// resultado 234: soma 9, sem leopardo
		{"234", "small", 100, 200},
		{"234", "big", 100, 0},
		{"234", "odd", 100, 200},
		{"234", "even", 100, 0},
		{"234", "2", 100, 200},  // um acerto: 2x
		{"234", "5", 100, 0},    // dígito ausente perde
		{"234", "small2", 100, 330},
		{"234", "2small", 100, 330}, // ordem dos tokens não muda o combo
		{"234", "big2", 100, 0},     // categoria falhou, dígito não salva
		{"234", "23", 100, 600},     // par com ambos presentes: 6x
		{"234", "25", 100, 0},       // par com um ausente perde tudo

		// resultado 224: dígito repetido no resultado
		{"224", "2", 100, 300}, // dois acertos: 3x
		{"224", "4", 100, 200},
		{"224", "24", 100, 600},
		{"224", "small", 100, 200}, // soma 8

		// leopardo zera categoria, dígito segue valendo
		{"222", "big", 100, 0},
		{"222", "small", 100, 0},
		{"222", "even", 100, 0}, // soma 6 seria par, leopardo ganha
		{"222", "2", 100, 400},  // três acertos: 4x
		{"222", "big2", 100, 0}, // combo morre na categoria
		{"222", "23", 100, 0},   // par precisa dos dois dígitos

		// faixas de categoria
		{"456", "big", 100, 200},  // soma 15
		{"456", "odd", 100, 200},
		{"456", "small", 100, 0},
		{"116", "even", 100, 200}, // soma 8
		{"126", "odd", 100, 200},  // soma 9

		// truncamento do combo em valores não múltiplos de 10
		{"234", "small2", 15, 49}, // 15*33/10
	}
	for _, c := range cases {
		r, err := ParseResult(c.result)
		if err != nil {
			t.Fatal(err)
		}
		got := Payout(r, c.stake, mustTokens(t, c.expr))
		if got != c.want {
			t.Errorf("Payout(%s, %d, %s) = %d, want %d", c.result, c.stake, c.expr, got, c.want)
		}
	}
}

func TestPayoutDigitPairOrder(t *testing.T) {
	// o segundo dígito do par só vira 6x porque o primeiro já acertou;
	// se o primeiro falhar a aposta morre antes
	r, _ := ParseResult("234")
	if got := Payout(r, 100, mustTokens(t, "53")); got != 0 {
		t.Errorf("pair 53 on 234 = %d, want 0", got)
	}
	if got := Payout(r, 100, mustTokens(t, "32")); got != 600 {
		t.Errorf("pair 32 on 234 = %d, want 600", got)
	}
}
