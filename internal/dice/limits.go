package dice

import "fmt"

// Limits bounds expressions accepted from untrusted callers.
// A zero field disables that bound.
type Limits struct {
	MaxCount    int
	MaxSides    int
	MaxModifier int
}

// DefaultLimits are applied at the tool boundary.
var DefaultLimits = Limits{
	MaxCount:    100,
	MaxSides:    1000,
	MaxModifier: 1000,
}

// Check returns ErrExpressionTooLarge when expr exceeds the limits.
func (l Limits) Check(expr Expression) error {
	if l.MaxCount > 0 && expr.Count > l.MaxCount {
		return fmt.Errorf("%w: count %d is above %d", ErrExpressionTooLarge, expr.Count, l.MaxCount)
	}
	if l.MaxSides > 0 && expr.Sides > l.MaxSides {
		return fmt.Errorf("%w: sides %d is above %d", ErrExpressionTooLarge, expr.Sides, l.MaxSides)
	}
	if l.MaxModifier > 0 && (expr.Modifier > l.MaxModifier || expr.Modifier < -l.MaxModifier) {
		return fmt.Errorf("%w: modifier %d is outside ±%d", ErrExpressionTooLarge, expr.Modifier, l.MaxModifier)
	}
	return nil
}
