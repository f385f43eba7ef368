package bet

import (
	"errors"
	"testing"
)

func TestParseExpression(t *testing.T) {
	cases := []struct {
		expr string
		want string // forma canônica, "" = inválida
	}{
		{"big", "big"},
		{"small", "small"},
		{"odd", "odd"},
		{"even", "even"},
		{"3", "3"},
		{"23", "23"},
		{"big3", "big3"},
		{"3big", "3big"},
		{"small6", "small6"},
		{"", ""},
		{"7", ""},
		{"big7", ""},
		{"0", ""},
		{"bigsmall", ""},   // segunda categoria
		{"bigodd", ""},     // idem
		{"234", ""},        // três tokens
		{"big23", ""},      // idem
		{"abc", ""},        // trava sem casar nada
		{"big x", ""},      // espaço não é token
		{"big 3", ""},      // operandos são separados antes da gramática
	}
	for _, c := range cases {
		tokens, err := ParseExpression(c.expr)
		if c.want == "" {
			if err == nil {
				t.Errorf("ParseExpression(%q): expected error, got %v", c.expr, tokens)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseExpression(%q): %v", c.expr, err)
			continue
		}
		if got := Expression(tokens); got != c.want {
			t.Errorf("ParseExpression(%q) = %q, want %q", c.expr, got, c.want)
		}
	}
}

func TestParseLinesShapes(t *testing.T) {
	cases := []struct {
		text  string
		exprs []string
		stake int64
	}{
		{"big/100", []string{"big"}, 100},
		{"2/100", []string{"2"}, 100},
		{"23/100", []string{"23"}, 100},
		{"big3/100", []string{"big3"}, 100},
		{"3big/100", []string{"3big"}, 100},
		{"2 3/50", []string{"23"}, 50},
		{"BIG/10", []string{"big"}, 10},
	}
	for _, c := range cases {
		lines, err := ParseLines(c.text)
		if err != nil {
			t.Fatalf("ParseLines(%q): %v", c.text, err)
		}
		if len(lines) != len(c.exprs) {
			t.Fatalf("ParseLines(%q): got %d lines, want %d", c.text, len(lines), len(c.exprs))
		}
		for i, ln := range lines {
			if got := Expression(ln.Tokens); got != c.exprs[i] {
				t.Errorf("ParseLines(%q) line %d = %q, want %q", c.text, i, got, c.exprs[i])
			}
			if ln.Stake != c.stake {
				t.Errorf("ParseLines(%q) line %d stake = %d, want %d", c.text, i, ln.Stake, c.stake)
			}
		}
	}
}

func TestParseLinesMultiLine(t *testing.T) {
	lines, err := ParseLines("big/100\r\n2/50\n23/30")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if Expression(lines[2].Tokens) != "23" || lines[2].Stake != 30 {
		t.Errorf("last line = %q/%d", Expression(lines[2].Tokens), lines[2].Stake)
	}
}

func TestParseLinesInvalid(t *testing.T) {
	cases := []struct {
		text string
		want error
	}{
		{"22/100", ErrDuplicateDigit},
		{"2 2/100", ErrDuplicateDigit},
		{"hello there", ErrInvalidExpression},
		{"", ErrInvalidExpression},
		{"big/abc", ErrInvalidStakeValue},
		{"big/0", ErrInvalidStakeValue},
		{"7/100", ErrInvalidExpression},
		{"big small/100", ErrInvalidExpression}, // duas categorias na mesma linha
		{"234/100", ErrInvalidExpression},       // três tokens
		{"1 23/100", ErrInvalidExpression},      // idem, via dois operandos
		{"big/100\n22/50", ErrDuplicateDigit},   // linha ruim invalida a mensagem
	}
	for _, c := range cases {
		if _, err := ParseLines(c.text); !errors.Is(err, c.want) {
			t.Errorf("ParseLines(%q) err = %v, want %v", c.text, err, c.want)
		}
	}
}

func TestParseResult(t *testing.T) {
	r, err := ParseResult("234")
	if err != nil {
		t.Fatal(err)
	}
	if r.Sum() != 9 || r.IsLeopard() {
		t.Errorf("result 234: sum=%d leopard=%v", r.Sum(), r.IsLeopard())
	}
	if r.String() != "234" {
		t.Errorf("String() = %q", r.String())
	}

	leo, err := ParseResult("555")
	if err != nil {
		t.Fatal(err)
	}
	if !leo.IsLeopard() {
		t.Error("555 should be leopard")
	}

	for _, bad := range []string{"", "23", "2345", "237", "034", "abc"} {
		if _, err := ParseResult(bad); err == nil {
			t.Errorf("ParseResult(%q): expected error", bad)
		}
	}
}
