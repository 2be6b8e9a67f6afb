package lexer_test

import (
	"testing"

	"github.com/nabbar/x0d/lexer"
	"github.com/nabbar/x0d/source"
)

func allTokens(l *lexer.Lexer) []lexer.Token {
	var out []lexer.Token
	for {
		tok := l.Next()
		out = append(out, tok)
		if tok.Kind == lexer.EOF {
			return out
		}
	}
}

func TestKeywordsAndIdents(t *testing.T) {
	s := source.FromString("t.flow", "handler main { var x = 1; }")
	toks := allTokens(lexer.New(s, nil))

	want := []lexer.Kind{
		lexer.KwHandler, lexer.Ident, lexer.LBrace, lexer.KwVar, lexer.Ident,
		lexer.OpAssign, lexer.Number, lexer.Semicolon, lexer.RBrace, lexer.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected kind %d, got %d (%q)", i, k, toks[i].Kind, toks[i].Text)
		}
	}
}

func TestNumberWithUnitSuffix(t *testing.T) {
	s := source.FromString("t.flow", "30sec")
	l := lexer.New(s, nil)
	tok := l.Next()
	if tok.Kind != lexer.Number {
		t.Fatalf("expected Number, got %d", tok.Kind)
	}
	if tok.Value.(int64) != 30_000_000_000 {
		t.Fatalf("expected 30s in nanoseconds, got %v", tok.Value)
	}
}

func TestIPv4Literal(t *testing.T) {
	s := source.FromString("t.flow", "127.0.0.1")
	tok := lexer.New(s, nil).Next()
	if tok.Kind != lexer.IPAddr || tok.Text != "127.0.0.1" {
		t.Fatalf("expected IPAddr 127.0.0.1, got %d %q", tok.Kind, tok.Text)
	}
}

func TestCidrLiteral(t *testing.T) {
	s := source.FromString("t.flow", "10.0.0.0/8")
	tok := lexer.New(s, nil).Next()
	if tok.Kind != lexer.Cidr || tok.Text != "10.0.0.0/8" {
		t.Fatalf("expected Cidr 10.0.0.0/8, got %d %q", tok.Kind, tok.Text)
	}
}

func TestOperators(t *testing.T) {
	s := source.FromString("t.flow", "=^ =$ =~ == != <= >= **")
	toks := allTokens(lexer.New(s, nil))
	want := []lexer.Kind{
		lexer.OpHeadMatch, lexer.OpTailMatch, lexer.OpRegexMatch, lexer.OpEq,
		lexer.OpNe, lexer.OpLe, lexer.OpGe, lexer.OpPow, lexer.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(want), len(toks), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Fatalf("token %d: expected %d got %d", i, k, toks[i].Kind)
		}
	}
}

func TestUnterminatedStringReportsDiagnostic(t *testing.T) {
	s := source.FromString("t.flow", `"hello`)
	r := source.NewReport()
	lexer.New(s, r).Next()
	if !r.HasErrors() {
		t.Fatal("expected a lex diagnostic for unterminated string")
	}
}
