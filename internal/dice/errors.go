package dice

import (
	"errors"
	"fmt"
)

// ErrInvalidNotation indicates a notation string does not match the grammar.
var ErrInvalidNotation = errors.New("invalid dice notation")

// ErrInvalidExpression indicates an expression has a count or sides below one.
var ErrInvalidExpression = errors.New("dice must have positive sides and count")

// ErrMissingSource indicates a roll was requested without a random source.
var ErrMissingSource = errors.New("random source is required")

// ErrExpressionTooLarge indicates an expression exceeds the configured limits.
var ErrExpressionTooLarge = errors.New("dice expression exceeds limits")

// NotationError carries the rejected input and the expected grammar.
type NotationError struct {
	Input    string
	Expected string
}

func newNotationError(input string) *NotationError {
	return &NotationError{Input: input, Expected: ExpectedFormat}
}

// Error implements the error interface.
func (e *NotationError) Error() string {
	return fmt.Sprintf("invalid dice notation: %q. Expected format like %s", e.Input, e.Expected)
}

// Unwrap lets errors.Is match ErrInvalidNotation.
func (e *NotationError) Unwrap() error {
	return ErrInvalidNotation
}
