package head

import "fmt"

// ValidationError reports malformed construction input. It is fatal
// to construction and never retried.
type ValidationError struct {
	Lhs string
	Msg string
}

func (e *ValidationError) Error() string {
	if e.Lhs != "" {
		return fmt.Sprintf("invalid head %q: %s", e.Lhs, e.Msg)
	}
	return "invalid hydra configuration: " + e.Msg
}

func validationf(lhs, format string, args ...any) error {
	return &ValidationError{Lhs: lhs, Msg: fmt.Sprintf(format, args...)}
}
