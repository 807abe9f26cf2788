package spintax

import (
	"strconv"
	"strings"
)

// Tokenize scans raw template text into its token sequence: literal runs,
// {{NAME}} macros, {a|b|c} choice groups and [class]{min,max} patterns.
// Scanning is a single left-to-right pass; the only backtracking is the
// double-brace versus single-brace disambiguation for macros.
//
// Malformed input returns the tokens scanned so far together with a
// *SyntaxError. Such a partial sequence is useful for diagnostics only and
// must never be rendered; Validate is the authority on template validity.
func Tokenize(raw string) ([]Token, error) {
	var tokens []Token
	lit := -1

	flush := func(end int) {
		if lit >= 0 && end > lit {
			tokens = append(tokens, Token{Kind: KindLiteral, Pos: lit, Text: raw[lit:end]})
		}
		lit = -1
	}

	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if name, end, ok := macroSpan(raw, i); ok {
				flush(i)
				tokens = append(tokens, Token{Kind: KindMacro, Pos: i, Text: name})
				i = end
				continue
			}
			flush(i)
			tok, end, err := scanChoice(raw, i)
			if err != nil {
				return tokens, err
			}
			tokens = append(tokens, tok)
			i = end
		case '[':
			if _, _, ok := classSpan(raw, i); !ok {
				// Unterminated bracket is plain text.
				if lit < 0 {
					lit = i
				}
				i++
				continue
			}
			flush(i)
			tok, end, err := scanPattern(raw, i)
			if err != nil {
				return tokens, err
			}
			tokens = append(tokens, tok)
			i = end
		default:
			if lit < 0 {
				lit = i
			}
			i++
		}
	}
	flush(len(raw))
	return tokens, nil
}

// scanChoice parses a single-brace choice group starting at raw[start]. The
// body splits on | into alternatives; each alternative is a sequence of
// literal and macro tokens. A bare { inside the body is a nesting error; a
// group that never closes is an unbalanced one.
func scanChoice(raw string, start int) (Token, int, error) {
	tok := Token{Kind: KindChoice, Pos: start}
	var alt []Token
	lit := -1

	flushLit := func(end int) {
		if lit >= 0 && end > lit {
			alt = append(alt, Token{Kind: KindLiteral, Pos: lit, Text: raw[lit:end]})
		}
		lit = -1
	}

	i := start + 1
	for i < len(raw) {
		switch raw[i] {
		case '}':
			flushLit(i)
			tok.Alts = append(tok.Alts, alt)
			return tok, i + 1, nil
		case '|':
			flushLit(i)
			tok.Alts = append(tok.Alts, alt)
			alt = nil
			i++
		case '{':
			if name, end, ok := macroSpan(raw, i); ok {
				flushLit(i)
				alt = append(alt, Token{Kind: KindMacro, Pos: i, Text: name})
				i = end
				continue
			}
			return tok, i, syntaxErr(ErrNestedGroup, i, "nested group inside alternative")
		default:
			if lit < 0 {
				lit = i
			}
			i++
		}
	}
	return tok, len(raw), syntaxErr(ErrUnbalancedBrace, start, "choice group is never closed")
}

// scanPattern parses one or more adjacent [class]{quantifier} pairs starting
// at raw[start] into a single pattern token. A missing quantifier means
// exactly one repeat; a double brace after the class is a macro, not a
// quantifier. Empty classes are the validator's concern, not an error here.
func scanPattern(raw string, start int) (Token, int, error) {
	tok := Token{Kind: KindPattern, Pos: start}
	i := start
	for i < len(raw) && raw[i] == '[' {
		body, end, ok := classSpan(raw, i)
		if !ok {
			break
		}
		cl := Class{Chars: classChars(body), Min: 1, Max: 1}
		i = end
		if i < len(raw) && raw[i] == '{' {
			if _, _, isMacro := macroSpan(raw, i); isMacro {
				tok.Classes = append(tok.Classes, cl)
				break
			}
			lo, hi, qEnd, err := scanQuantifier(raw, i)
			if err != nil {
				return tok, i, err
			}
			cl.Min, cl.Max = lo, hi
			i = qEnd
		}
		tok.Classes = append(tok.Classes, cl)
	}
	return tok, i, nil
}

// scanQuantifier parses {n} or {min,max} at raw[start]. A single brace right
// after a class bracket always commits to quantifier parsing; a body that is
// not one or two non-negative integers with min <= max is an error.
func scanQuantifier(raw string, start int) (lo, hi, end int, err *SyntaxError) {
	rel := strings.IndexByte(raw[start:], '}')
	if rel < 0 {
		return 0, 0, 0, syntaxErr(ErrUnbalancedBrace, start, "quantifier is never closed")
	}
	body := raw[start+1 : start+rel]
	loStr, hiStr := body, body
	if comma := strings.IndexByte(body, ','); comma >= 0 {
		loStr, hiStr = body[:comma], body[comma+1:]
	}
	lo, loErr := strconv.Atoi(loStr)
	hi, hiErr := strconv.Atoi(hiStr)
	if loErr != nil || hiErr != nil || lo < 0 || hi < 0 {
		return 0, 0, 0, syntaxErr(ErrInvalidQuantifier, start, "quantifier bounds must be non-negative integers")
	}
	if lo > hi {
		return 0, 0, 0, syntaxErr(ErrInvalidQuantifier, start, "quantifier minimum exceeds maximum")
	}
	return lo, hi, start + rel + 1, nil
}
