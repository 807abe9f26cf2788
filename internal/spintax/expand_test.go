package spintax

import (
	mathrand "math/rand/v2"
	"regexp"
	"strings"
	"testing"
)

func mustTokenize(t *testing.T, raw string) []Token {
	t.Helper()
	if err := Validate(raw); err != nil {
		t.Fatalf("Validate(%q) = %v", raw, err)
	}
	tokens, err := Tokenize(raw)
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", raw, err)
	}
	return tokens
}

func testRNG(seed uint64) *mathrand.Rand {
	return mathrand.New(mathrand.NewPCG(seed, seed))
}

func TestExpand_MacroOnlyIsIdempotent(t *testing.T) {
	const input = "Dear {{FIRST_NAME}} {{LAST_NAME}}, your order shipped."
	tokens := mustTokenize(t, input)

	for _, seed := range []uint64{1, 42, 999} {
		got := Expand(tokens, testRNG(seed))
		if got != input {
			t.Errorf("Expand() with seed %d = %q, want %q", seed, got, input)
		}
	}
}

func TestExpand_ChoiceGroupPicksDeclaredAlternatives(t *testing.T) {
	tokens := mustTokenize(t, "{red|green|blue}")
	rng := testRNG(7)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		got := Expand(tokens, rng)
		if got != "red" && got != "green" && got != "blue" {
			t.Fatalf("Expand() = %q, want one of the declared alternatives", got)
		}
		seen[got] = true
	}
	if len(seen) != 3 {
		t.Errorf("100 draws hit %d alternatives, want 3", len(seen))
	}
}

func TestExpand_EmptyAlternative(t *testing.T) {
	tokens := mustTokenize(t, "x{-promo|}")
	rng := testRNG(3)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[Expand(tokens, rng)] = true
	}
	for got := range seen {
		if got != "x-promo" && got != "x" {
			t.Errorf("Expand() = %q, want x-promo or x", got)
		}
	}
	if len(seen) != 2 {
		t.Errorf("50 draws hit %d outcomes, want 2", len(seen))
	}
}

func TestExpand_PatternConformance(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"letters then digits", "Code: [A-Z]{3}[0-9]{2}", `^Code: [A-Z]{3}[0-9]{2}$`},
		{"range quantifier", "[ab]{2,5}", `^[ab]{2,5}$`},
		{"default quantifier", "[xyz]", `^[xyz]$`},
		{"zero minimum", "[0-9]{0,2}", `^[0-9]{0,2}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := mustTokenize(t, tt.input)
			re := regexp.MustCompile(tt.want)
			rng := testRNG(11)
			for i := 0; i < 200; i++ {
				got := Expand(tokens, rng)
				if !re.MatchString(got) {
					t.Fatalf("Expand() = %q, does not match %s", got, tt.want)
				}
			}
		})
	}
}

func TestExpand_DeterministicForFixedSeed(t *testing.T) {
	tokens := mustTokenize(t, "{a|b|c} [A-Z]{2,6} {{USER}} {x|y}")

	first := make([]string, 20)
	rng := testRNG(1234)
	for i := range first {
		first[i] = Expand(tokens, rng)
	}

	rng = testRNG(1234)
	for i := range first {
		if got := Expand(tokens, rng); got != first[i] {
			t.Fatalf("replay diverged at call %d: %q vs %q", i, got, first[i])
		}
	}
}

func TestExpand_MacroPreservation(t *testing.T) {
	const input = "Hello {{FIRST_NAME}}, {Welcome|Hi there|Greetings}! Ref {{ORDER_ID}} [A-Z]{2}"
	tokens := mustTokenize(t, input)
	rng := testRNG(5)

	for i := 0; i < 50; i++ {
		got := Expand(tokens, rng)
		if n := strings.Count(got, "{{FIRST_NAME}}"); n != 1 {
			t.Fatalf("render %d contains {{FIRST_NAME}} %d times, want 1: %q", i, n, got)
		}
		if n := strings.Count(got, "{{ORDER_ID}}"); n != 1 {
			t.Fatalf("render %d contains {{ORDER_ID}} %d times, want 1: %q", i, n, got)
		}
	}
}

func TestExpand_GreetingScenario(t *testing.T) {
	tokens := mustTokenize(t, "Hello {{FIRST_NAME}}, {Welcome|Hi there|Greetings}!")
	rng := testRNG(99)

	endings := map[string]bool{"Welcome!": true, "Hi there!": true, "Greetings!": true}
	for i := 0; i < 30; i++ {
		got := Expand(tokens, rng)
		if !strings.HasPrefix(got, "Hello {{FIRST_NAME}}, ") {
			t.Fatalf("Expand() = %q, want prefix %q", got, "Hello {{FIRST_NAME}}, ")
		}
		tail := strings.TrimPrefix(got, "Hello {{FIRST_NAME}}, ")
		if !endings[tail] {
			t.Fatalf("Expand() = %q, unexpected ending %q", got, tail)
		}
	}
}

func TestExpand_MacroInsideAlternative(t *testing.T) {
	tokens := mustTokenize(t, "{Dear {{NAME}}|Hello}")
	rng := testRNG(21)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[Expand(tokens, rng)] = true
	}
	if !seen["Dear {{NAME}}"] || !seen["Hello"] {
		t.Errorf("outcomes = %v, want both alternatives rendered", seen)
	}
}
