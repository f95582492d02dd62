// Package dice parses standard dice notation and rolls dice.
package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ExpectedFormat describes the accepted dice notation grammar.
const ExpectedFormat = "NdS+M, e.g. '2d6', 'd20', '3d8+2' or '1d20-1'"

var notationPattern = regexp.MustCompile(`^(\d+)?d(\d+)([+-]\d+)?$`)

// Expression describes a single dice roll: Count dice with Sides faces plus a
// flat Modifier.
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// String renders the canonical notation for the expression.
func (e Expression) String() string {
	notation := fmt.Sprintf("%dd%d", e.Count, e.Sides)
	switch {
	case e.Modifier > 0:
		notation += fmt.Sprintf("+%d", e.Modifier)
	case e.Modifier < 0:
		notation += strconv.Itoa(e.Modifier)
	}
	return notation
}

// Validate reports whether the expression can be rolled.
func (e Expression) Validate() error {
	if e.Count < 1 || e.Sides < 1 {
		return fmt.Errorf("%w: %dd%d", ErrInvalidExpression, e.Count, e.Sides)
	}
	return nil
}

// Parse reads dice notation into an Expression.
//
// The notation is case-insensitive and surrounding whitespace is ignored. The
// count defaults to 1 and the modifier to 0 when omitted. The whole string must
// match; trailing input is rejected.
func Parse(notation string) (Expression, error) {
	match := notationPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(notation)))
	if match == nil {
		return Expression{}, newNotationError(notation)
	}

	expr := Expression{Count: 1}
	if match[1] != "" {
		count, err := strconv.Atoi(match[1])
		if err != nil {
			return Expression{}, newNotationError(notation)
		}
		expr.Count = count
	}

	sides, err := strconv.Atoi(match[2])
	if err != nil {
		return Expression{}, newNotationError(notation)
	}
	expr.Sides = sides

	if match[3] != "" {
		modifier, err := strconv.Atoi(match[3])
		if err != nil {
			return Expression{}, newNotationError(notation)
		}
		expr.Modifier = modifier
	}

	if expr.Count < 1 || expr.Sides < 1 {
		return Expression{}, newNotationError(notation)
	}
	return expr, nil
}
