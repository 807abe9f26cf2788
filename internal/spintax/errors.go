package spintax

import "fmt"

// ErrorKind classifies template syntax errors. The values double as wire
// identifiers in API responses.
type ErrorKind string

const (
	ErrUnbalancedBrace   ErrorKind = "unbalanced_brace"
	ErrNestedGroup       ErrorKind = "nested_group"
	ErrInvalidQuantifier ErrorKind = "invalid_quantifier"
	ErrInvalidMacroName  ErrorKind = "invalid_macro_name"
)

// SyntaxError is the first syntax problem found in a template. Offset is the
// byte position where the problem was detected. Validation is fail-fast, so
// a template yields at most one SyntaxError per call.
type SyntaxError struct {
	Kind    ErrorKind
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func syntaxErr(kind ErrorKind, offset int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, args...)}
}
