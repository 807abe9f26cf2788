package spintax

import "strings"

// Kind identifies the type of a parsed template token.
type Kind int

const (
	// KindLiteral is a run of plain text copied through unchanged.
	KindLiteral Kind = iota
	// KindMacro is a {{NAME}} personalization placeholder. The engine never
	// resolves macros; they survive expansion verbatim for a downstream
	// substitution step.
	KindMacro
	// KindChoice is a {a|b|c} choice group; expansion picks one alternative.
	KindChoice
	// KindPattern is one or more adjacent [class]{min,max} pairs; expansion
	// draws random characters from each class in order.
	KindPattern
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindMacro:
		return "macro"
	case KindChoice:
		return "choice"
	case KindPattern:
		return "pattern"
	default:
		return "unknown"
	}
}

// Class is one character class of a pattern token with its repeat bounds.
// Chars holds every character the class can produce, ranges already unrolled.
type Class struct {
	Chars []rune
	Min   int
	Max   int
}

// Token is one element of a parsed template. Pos is the byte offset of the
// token start in the source text. Which extra field is meaningful depends on
// Kind: Text for literals (raw text) and macros (the name between braces),
// Alts for choice groups, Classes for pattern tokens.
//
// Choice alternatives are themselves token sequences, but contain only
// literal and macro tokens: the grammar forbids nesting.
type Token struct {
	Kind    Kind
	Pos     int
	Text    string
	Alts    [][]Token
	Classes []Class
}

// MacroNames returns the macro names of a token sequence in render order,
// descending into choice alternatives. Names repeat if the macro does.
func MacroNames(tokens []Token) []string {
	var names []string
	for _, tok := range tokens {
		switch tok.Kind {
		case KindMacro:
			names = append(names, tok.Text)
		case KindChoice:
			for _, alt := range tok.Alts {
				names = append(names, MacroNames(alt)...)
			}
		}
	}
	return names
}

// isNameChar reports whether c belongs to the macro symbol alphabet.
func isNameChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// macroSpan matches a macro candidate at raw[i]: double braces around a run
// of symbol-alphabet characters. It returns the name and the offset just past
// the closing braces. Name validity beyond the alphabet is checked later.
func macroSpan(raw string, i int) (name string, end int, ok bool) {
	if i+1 >= len(raw) || raw[i] != '{' || raw[i+1] != '{' {
		return "", 0, false
	}
	j := i + 2
	for j < len(raw) && isNameChar(raw[j]) {
		j++
	}
	if !strings.HasPrefix(raw[j:], "}}") {
		return "", 0, false
	}
	return raw[i+2 : j], j + 2, true
}

// classSpan matches a bracketed character-class body at raw[i] and returns
// the body and the offset just past the closing bracket. An unterminated
// bracket is not a class; the caller treats it as literal text.
func classSpan(raw string, i int) (body string, end int, ok bool) {
	if i >= len(raw) || raw[i] != '[' {
		return "", 0, false
	}
	j := strings.IndexByte(raw[i+1:], ']')
	if j < 0 {
		return "", 0, false
	}
	return raw[i+1 : i+1+j], i + 1 + j + 1, true
}

// classChars unrolls a class body into its concrete character set, in source
// order. A dash between two characters forms an inclusive range; a dash at
// either end is literal. Descending ranges contribute nothing, which the
// validator rejects as an empty class.
func classChars(body string) []rune {
	runes := []rune(body)
	var chars []rune
	seen := make(map[rune]bool)
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			chars = append(chars, r)
		}
	}
	for i := 0; i < len(runes); i++ {
		if runes[i] == '-' && i > 0 && i < len(runes)-1 {
			continue
		}
		if i+2 < len(runes) && runes[i+1] == '-' {
			for r := runes[i]; r <= runes[i+2]; r++ {
				add(r)
			}
			i += 2
			continue
		}
		add(runes[i])
	}
	return chars
}
