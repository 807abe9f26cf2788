package spintax

// Validate checks raw template text and reports the first syntax problem as
// a *SyntaxError, or nil when the template is well-formed. Checks run in a
// fixed order, each over the whole template, short-circuiting on the first
// failure: brace balance, then group nesting, then pattern well-formedness,
// then macro names. A template that fails validation must not be rendered.
func Validate(raw string) error {
	if err := checkBalance(raw); err != nil {
		return err
	}
	if err := checkNesting(raw); err != nil {
		return err
	}
	if err := checkPatterns(raw); err != nil {
		return err
	}
	if err := checkMacroNames(raw); err != nil {
		return err
	}
	return nil
}

// checkBalance verifies that every single brace closes at its own depth.
// Macros are opaque spans wherever they appear; character classes are opaque
// only at top level, since brackets inside a choice group are literal text.
func checkBalance(raw string) *SyntaxError {
	var open []int
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if _, end, ok := macroSpan(raw, i); ok {
				i = end
				continue
			}
			open = append(open, i)
			i++
		case '}':
			if len(open) == 0 {
				return syntaxErr(ErrUnbalancedBrace, i, "closing brace without opening brace")
			}
			open = open[:len(open)-1]
			i++
		case '[':
			if len(open) == 0 {
				if _, end, ok := classSpan(raw, i); ok {
					i = end
					continue
				}
			}
			i++
		default:
			i++
		}
	}
	if len(open) > 0 {
		return syntaxErr(ErrUnbalancedBrace, open[0], "opening brace is never closed")
	}
	return nil
}

// checkNesting rejects a bare { inside any single-brace span. Macros the
// span fully encloses are opaque: they were already claimed by the greedy
// double-brace scan.
func checkNesting(raw string) *SyntaxError {
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if _, end, ok := macroSpan(raw, i); ok {
				i = end
				continue
			}
			j := i + 1
			for j < len(raw) && raw[j] != '}' {
				if raw[j] == '{' {
					if _, end, ok := macroSpan(raw, j); ok {
						j = end
						continue
					}
					return syntaxErr(ErrNestedGroup, j, "nested group inside alternative")
				}
				j++
			}
			i = j + 1
		case '[':
			if _, end, ok := classSpan(raw, i); ok {
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}
	return nil
}

// checkPatterns verifies every top-level class span: the resolved character
// set must be non-empty, and a quantifier, when present, must hold one or
// two non-negative integers with min <= max. Both failure modes share the
// quantifier error kind.
func checkPatterns(raw string) *SyntaxError {
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if _, end, ok := macroSpan(raw, i); ok {
				i = end
				continue
			}
			i = skipGroupSpan(raw, i)
		case '[':
			body, end, ok := classSpan(raw, i)
			if !ok {
				i++
				continue
			}
			if len(classChars(body)) == 0 {
				return syntaxErr(ErrInvalidQuantifier, i, "empty character class")
			}
			i = end
			if i < len(raw) && raw[i] == '{' {
				if _, _, isMacro := macroSpan(raw, i); isMacro {
					continue
				}
				_, _, qEnd, err := scanQuantifier(raw, i)
				if err != nil {
					return err
				}
				i = qEnd
			}
		default:
			i++
		}
	}
	return nil
}

// checkMacroNames verifies every macro candidate: the name must be non-empty
// and must not start with a digit. The scan already restricts names to
// letters, digits and underscores, so nothing else can reach this check.
// Top-level class bodies are skipped (brace runs inside them are characters,
// not macros), while macros inside choice alternatives are checked.
func checkMacroNames(raw string) *SyntaxError {
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if name, end, ok := macroSpan(raw, i); ok {
				if err := checkName(name, i); err != nil {
					return err
				}
				i = end
				continue
			}
			j := i + 1
			for j < len(raw) && raw[j] != '}' {
				if raw[j] == '{' {
					if name, end, ok := macroSpan(raw, j); ok {
						if err := checkName(name, j); err != nil {
							return err
						}
						j = end
						continue
					}
				}
				j++
			}
			i = j + 1
		case '[':
			if _, end, ok := classSpan(raw, i); ok {
				i = end
				continue
			}
			i++
		default:
			i++
		}
	}
	return nil
}

func checkName(name string, pos int) *SyntaxError {
	if name == "" {
		return syntaxErr(ErrInvalidMacroName, pos, "empty macro name")
	}
	if name[0] >= '0' && name[0] <= '9' {
		return syntaxErr(ErrInvalidMacroName, pos, "macro name must not start with a digit")
	}
	return nil
}

// skipGroupSpan advances past a single-brace span starting at raw[i],
// skipping macros it encloses. Balance was already checked, so the closing
// brace is known to exist.
func skipGroupSpan(raw string, i int) int {
	j := i + 1
	for j < len(raw) && raw[j] != '}' {
		if raw[j] == '{' {
			if _, end, ok := macroSpan(raw, j); ok {
				j = end
				continue
			}
		}
		j++
	}
	return j + 1
}
