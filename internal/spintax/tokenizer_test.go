package spintax

import (
	"errors"
	"strings"
	"testing"
)

func kindList(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Kind.String()
	}
	return strings.Join(parts, " ")
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "just a subject line",
			want:  "literal",
		},
		{
			name:  "macro between literals",
			input: "Hello {{FIRST_NAME}}!",
			want:  "literal macro literal",
		},
		{
			name:  "choice group",
			input: "{Welcome|Hi there|Greetings}",
			want:  "choice",
		},
		{
			name:  "pattern with quantifiers",
			input: "Code: [A-Z]{3}[0-9]{2}",
			want:  "literal pattern",
		},
		{
			name:  "pattern without quantifier",
			input: "[abc]",
			want:  "pattern",
		},
		{
			name:  "pattern followed by macro",
			input: "[A-Z]{{CODE}}",
			want:  "pattern macro",
		},
		{
			name:  "unterminated bracket is literal",
			input: "price [USD 50",
			want:  "literal",
		},
		{
			name:  "stray closing brace is literal",
			input: "}oops",
			want:  "literal",
		},
		{
			name:  "everything combined",
			input: "Hi {{NAME}}, {your|the} code is [A-Z]{4}.",
			want:  "literal macro literal choice literal pattern literal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if got := kindList(tokens); got != tt.want {
				t.Errorf("Tokenize() kinds = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_ChoiceAlternatives(t *testing.T) {
	tokens, err := Tokenize("{Hi {{NAME}}|Hello|}")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != KindChoice {
		t.Fatalf("Tokenize() = %v, want single choice token", tokens)
	}
	alts := tokens[0].Alts
	if len(alts) != 3 {
		t.Fatalf("alternatives = %d, want 3", len(alts))
	}
	if got := kindList(alts[0]); got != "literal macro" {
		t.Errorf("first alternative kinds = %q, want %q", got, "literal macro")
	}
	if alts[0][1].Text != "NAME" {
		t.Errorf("macro name = %q, want %q", alts[0][1].Text, "NAME")
	}
	if len(alts[1]) != 1 || alts[1][0].Text != "Hello" {
		t.Errorf("second alternative = %v, want single literal Hello", alts[1])
	}
	if len(alts[2]) != 0 {
		t.Errorf("third alternative = %v, want empty", alts[2])
	}
}

func TestTokenize_PatternClasses(t *testing.T) {
	tokens, err := Tokenize("[A-Z]{3}[0-9]{2}")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != KindPattern {
		t.Fatalf("Tokenize() = %v, want single pattern token", tokens)
	}
	classes := tokens[0].Classes
	if len(classes) != 2 {
		t.Fatalf("classes = %d, want 2", len(classes))
	}
	if len(classes[0].Chars) != 26 || classes[0].Min != 3 || classes[0].Max != 3 {
		t.Errorf("first class = %d chars [%d,%d], want 26 chars [3,3]",
			len(classes[0].Chars), classes[0].Min, classes[0].Max)
	}
	if len(classes[1].Chars) != 10 || classes[1].Min != 2 || classes[1].Max != 2 {
		t.Errorf("second class = %d chars [%d,%d], want 10 chars [2,2]",
			len(classes[1].Chars), classes[1].Min, classes[1].Max)
	}

	tokens, err = Tokenize("[a-z]{2,5}")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	cl := tokens[0].Classes[0]
	if cl.Min != 2 || cl.Max != 5 {
		t.Errorf("bounds = [%d,%d], want [2,5]", cl.Min, cl.Max)
	}

	tokens, err = Tokenize("[xyz]")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	cl = tokens[0].Classes[0]
	if cl.Min != 1 || cl.Max != 1 {
		t.Errorf("default bounds = [%d,%d], want [1,1]", cl.Min, cl.Max)
	}
}

func TestTokenize_TripleBrace(t *testing.T) {
	// {{{A}}} backtracks to a choice group holding the macro {{A}}.
	tokens, err := Tokenize("{{{A}}}")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != 1 || tokens[0].Kind != KindChoice {
		t.Fatalf("Tokenize() = %v, want single choice token", tokens)
	}
	alts := tokens[0].Alts
	if len(alts) != 1 || len(alts[0]) != 1 || alts[0][0].Kind != KindMacro || alts[0][0].Text != "A" {
		t.Errorf("alternatives = %v, want one macro A", alts)
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   ErrorKind
		wantOffset int
	}{
		{
			name:       "unclosed choice group",
			input:      "Choice: {a|b",
			wantKind:   ErrUnbalancedBrace,
			wantOffset: 8,
		},
		{
			name:       "nested choice group",
			input:      "{a|{b|c}}",
			wantKind:   ErrNestedGroup,
			wantOffset: 3,
		},
		{
			name:       "quantifier is not a number",
			input:      "[A-Z]{x}",
			wantKind:   ErrInvalidQuantifier,
			wantOffset: 5,
		},
		{
			name:       "unclosed quantifier",
			input:      "[A-Z]{2",
			wantKind:   ErrUnbalancedBrace,
			wantOffset: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatalf("Tokenize() error = nil, want %s", tt.wantKind)
			}
			var synErr *SyntaxError
			if !errors.As(err, &synErr) {
				t.Fatalf("Tokenize() error = %T, want *SyntaxError", err)
			}
			if synErr.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", synErr.Kind, tt.wantKind)
			}
			if synErr.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", synErr.Offset, tt.wantOffset)
			}
		})
	}
}

func TestMacroNames(t *testing.T) {
	tokens, err := Tokenize("{{A}} {x {{B}}|y} {{A}}")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	got := MacroNames(tokens)
	want := []string{"A", "B", "A"}
	if len(got) != len(want) {
		t.Fatalf("MacroNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("MacroNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
