package dice

import "math/rand"

// Source supplies randomness for rolls. Intn returns a value in [0, n).
//
// *rand.Rand satisfies Source. A Source is not required to be safe for
// concurrent use; callers sharing one across goroutines must synchronize.
type Source interface {
	Intn(n int) int
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Result captures a rolled expression.
type Result struct {
	Notation string
	Rolls    []int
	Subtotal int
	Modifier int
	Total    int
}

// Roll rolls the expression using source.
//
// Rolls appear in draw order and each lies in [1, Sides]. Total is always the
// subtotal plus the modifier.
func Roll(expr Expression, source Source) (Result, error) {
	if err := expr.Validate(); err != nil {
		return Result{}, err
	}
	if source == nil {
		return Result{}, ErrMissingSource
	}

	rolls := make([]int, expr.Count)
	subtotal := 0
	for i := range rolls {
		value := rollDie(source, expr.Sides)
		rolls[i] = value
		subtotal += value
	}

	return Result{
		Notation: expr.String(),
		Rolls:    rolls,
		Subtotal: subtotal,
		Modifier: expr.Modifier,
		Total:    subtotal + expr.Modifier,
	}, nil
}

// RollNotation parses notation and rolls it. Parse errors are returned as is.
func RollNotation(notation string, source Source) (Result, error) {
	expr, err := Parse(notation)
	if err != nil {
		return Result{}, err
	}
	return Roll(expr, source)
}

// RollDie rolls a single die with the provided number of sides.
func RollDie(source Source, sides int) (int, error) {
	if sides < 1 {
		return 0, ErrInvalidExpression
	}
	if source == nil {
		return 0, ErrMissingSource
	}
	return rollDie(source, sides), nil
}

// Between returns a uniform value in [low, high]. It panics if high < low.
func Between(source Source, low, high int) int {
	return low + source.Intn(high-low+1)
}

func rollDie(source Source, sides int) int {
	return source.Intn(sides) + 1
}
