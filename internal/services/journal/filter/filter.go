// Package filter translates AIP-160 filter expressions over journal records
// into SQL conditions.
package filter

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// SQLCondition represents a SQL WHERE clause fragment with parameters.
type SQLCondition struct {
	// Clause is the SQL WHERE clause (e.g., "tool = ?").
	Clause string
	// Params are the positional parameters for the clause.
	Params []any
}

// Empty reports whether the condition selects everything.
func (c SQLCondition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// Field maps one filter identifier onto the store schema.
type Field struct {
	// Type is the identifier type used for checking.
	Type *expr.Type
	// Column is the SQL column compared against the value.
	Column string
	// Clause, when set, replaces "<column> <op> ?" and receives "<op> ?"
	// through a single %s verb.
	Clause string
}

// Schema is the set of filterable fields for one record kind.
type Schema map[string]Field

// RollSchema covers the roll log.
var RollSchema = Schema{
	"tool":       {Type: filtering.TypeString, Column: "tool"},
	"notation":   {Type: filtering.TypeString, Column: "notation"},
	"label":      {Type: filtering.TypeString, Column: "label"},
	"total":      {Type: filtering.TypeInt, Column: "total"},
	"created_at": {Type: filtering.TypeTimestamp, Column: "created_at"},
}

// NoteSchema covers journal notes. A tag comparison matches when any tag of
// the note satisfies it.
var NoteSchema = Schema{
	"title":      {Type: filtering.TypeString, Column: "title"},
	"slug":       {Type: filtering.TypeString, Column: "slug"},
	"tag":        {Type: filtering.TypeString, Clause: "EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag %s)"},
	"created_at": {Type: filtering.TypeTimestamp, Column: "created_at"},
}

// Declarations returns the AIP declarations for the schema fields.
func (s Schema) Declarations() (*filtering.Declarations, error) {
	opts := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, field := range s {
		opts = append(opts, filtering.DeclareIdent(name, field.Type))
	}
	return filtering.NewDeclarations(opts...)
}

// Parse parses an AIP-160 filter expression and returns a SQL condition.
// Returns an empty condition for an empty filter string.
func (s Schema) Parse(filterStr string) (SQLCondition, error) {
	if strings.TrimSpace(filterStr) == "" {
		return SQLCondition{}, nil
	}

	decls, err := s.Declarations()
	if err != nil {
		return SQLCondition{}, fmt.Errorf("create declarations: %w", err)
	}

	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return SQLCondition{}, fmt.Errorf("parse filter: %w", err)
	}

	return s.translateExpr(filter.CheckedExpr.GetExpr())
}

func (s Schema) translateExpr(e *expr.Expr) (SQLCondition, error) {
	if e == nil {
		return SQLCondition{}, nil
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return s.translateCall(kind.CallExpr)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func (s Schema) translateCall(call *expr.Expr_Call) (SQLCondition, error) {
	switch call.Function {
	case filtering.FunctionAnd, filtering.FunctionFuzzyAnd:
		return s.translateJoin(call.Args, "AND")
	case filtering.FunctionOr:
		return s.translateJoin(call.Args, "OR")
	case filtering.FunctionNot:
		return s.translateNot(call.Args)
	case filtering.FunctionEquals:
		return s.translateComparison(call.Args, "=")
	case filtering.FunctionNotEquals:
		return s.translateComparison(call.Args, "!=")
	case filtering.FunctionLessThan:
		return s.translateComparison(call.Args, "<")
	case filtering.FunctionLessEquals:
		return s.translateComparison(call.Args, "<=")
	case filtering.FunctionGreaterThan:
		return s.translateComparison(call.Args, ">")
	case filtering.FunctionGreaterEquals:
		return s.translateComparison(call.Args, ">=")
	case filtering.FunctionHas:
		return s.translateHas(call.Args)
	default:
		return SQLCondition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func (s Schema) translateJoin(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) < 2 {
		return SQLCondition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}

	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		cond, err := s.translateExpr(arg)
		if err != nil {
			return SQLCondition{}, err
		}
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}

	return SQLCondition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func (s Schema) translateNot(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 1 {
		return SQLCondition{}, fmt.Errorf("NOT requires 1 argument")
	}
	inner, err := s.translateExpr(args[0])
	if err != nil {
		return SQLCondition{}, err
	}
	return SQLCondition{Clause: "NOT " + inner.Clause, Params: inner.Params}, nil
}

func (s Schema) translateComparison(args []*expr.Expr, op string) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("comparison requires 2 arguments")
	}

	field, err := s.lookupField(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	if text, ok := value.(string); ok && field.Type == filtering.TypeTimestamp {
		if value, err = parseMillis(text); err != nil {
			return SQLCondition{}, err
		}
	}

	return SQLCondition{Clause: field.render(op), Params: []any{value}}, nil
}

// translateHas maps the ":" operator to a substring match on string fields.
func (s Schema) translateHas(args []*expr.Expr) (SQLCondition, error) {
	if len(args) != 2 {
		return SQLCondition{}, fmt.Errorf("has requires 2 arguments")
	}

	field, err := s.lookupField(args[0])
	if err != nil {
		return SQLCondition{}, err
	}

	value, err := extractValue(args[1])
	if err != nil {
		return SQLCondition{}, err
	}
	text, ok := value.(string)
	if !ok {
		return SQLCondition{}, fmt.Errorf("has requires a string value")
	}

	return SQLCondition{Clause: field.render("LIKE"), Params: []any{"%" + escapeLike(text) + "%"}}, nil
}

func (s Schema) lookupField(e *expr.Expr) (Field, error) {
	name, err := extractFieldName(e)
	if err != nil {
		return Field{}, err
	}
	field, ok := s[name]
	if !ok {
		return Field{}, fmt.Errorf("unknown field: %s", name)
	}
	return field, nil
}

func (f Field) render(op string) string {
	predicate := op + " ?"
	if op == "LIKE" {
		predicate = `LIKE ? ESCAPE '\'`
	}
	if f.Clause != "" {
		return fmt.Sprintf(f.Clause, predicate)
	}
	return f.Column + " " + predicate
}

func extractFieldName(e *expr.Expr) (string, error) {
	if e == nil {
		return "", fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_IdentExpr:
		return kind.IdentExpr.Name, nil
	default:
		return "", fmt.Errorf("expected identifier, got %T", kind)
	}
}

func extractValue(e *expr.Expr) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		return extractConstValue(kind.ConstExpr)
	case *expr.Expr_CallExpr:
		if kind.CallExpr.Function == filtering.FunctionTimestamp && len(kind.CallExpr.Args) == 1 {
			return extractTimestampMillis(kind.CallExpr.Args[0])
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func extractConstValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return kind.Uint64Value, nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

// extractTimestampMillis converts timestamp("...") into Unix milliseconds,
// the journal's storage format.
func extractTimestampMillis(e *expr.Expr) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("nil timestamp argument")
	}

	constExpr, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a constant string")
	}
	strVal, ok := constExpr.ConstExpr.ConstantKind.(*expr.Constant_StringValue)
	if !ok {
		return 0, fmt.Errorf("timestamp argument must be a string")
	}
	return parseMillis(strVal.StringValue)
}

func parseMillis(value string) (int64, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp format: %s", value)
	}
	return t.UTC().UnixMilli(), nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}
