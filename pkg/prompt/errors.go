package prompt

import "fmt"

// ParsingError is the single error kind produced by this package. It reports
// violated structural contracts: prompt/weight count mismatches and wrong
// child types passed to node constructors. Malformed punctuation never
// produces one; such input is consumed as literal text.
type ParsingError struct {
	Message string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("prompt: %s", e.Message)
}

func parsingErrorf(format string, args ...any) *ParsingError {
	return &ParsingError{Message: fmt.Sprintf(format, args...)}
}
