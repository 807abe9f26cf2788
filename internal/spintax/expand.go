package spintax

import (
	mathrand "math/rand/v2"
	"strings"
)

// Expand renders one concrete string from a token sequence. Literals and
// macros are copied through unchanged (a macro keeps its {{NAME}} surface
// form), each choice group picks one alternative uniformly, and each pattern
// class draws a repeat count in [min, max] and that many characters from its
// set. Output is a pure function of the tokens and the rng stream, so a
// fixed seed replays the same text.
//
// The sequence must have passed Validate: expansion assumes every group has
// at least one alternative and every class set is non-empty.
func Expand(tokens []Token, rng *mathrand.Rand) string {
	var b strings.Builder
	expandInto(&b, tokens, rng)
	return b.String()
}

func expandInto(b *strings.Builder, tokens []Token, rng *mathrand.Rand) {
	for _, tok := range tokens {
		switch tok.Kind {
		case KindLiteral:
			b.WriteString(tok.Text)
		case KindMacro:
			b.WriteString("{{")
			b.WriteString(tok.Text)
			b.WriteString("}}")
		case KindChoice:
			expandInto(b, tok.Alts[rng.IntN(len(tok.Alts))], rng)
		case KindPattern:
			for _, cl := range tok.Classes {
				n := cl.Min
				if cl.Max > cl.Min {
					n += rng.IntN(cl.Max - cl.Min + 1)
				}
				for k := 0; k < n; k++ {
					b.WriteRune(cl.Chars[rng.IntN(len(cl.Chars))])
				}
			}
		}
	}
}
