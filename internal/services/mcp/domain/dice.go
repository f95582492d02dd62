package domain

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/initiative"
	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names recorded in the roll log.
const (
	RollDiceToolName       = "roll_dice"
	RollToolName           = "roll"
	RollInitiativeToolName = "roll_initiative"
)

// RollRecorder appends rolls to the roll log.
type RollRecorder interface {
	RecordRoll(ctx context.Context, tool, label string, result dice.Result) (storage.RollRecord, error)
}

// RollDiceInput represents the MCP tool input for rolling dice notation.
type RollDiceInput struct {
	DiceNotation string `json:"dice_notation" jsonschema:"standard dice notation such as 2d6, 1d20+5 or 3d8-2"`
	Label        string `json:"label,omitempty" jsonschema:"optional label stored with the roll, such as attack or damage"`
}

// RollDiceResult represents the MCP tool output for rolling dice notation.
type RollDiceResult struct {
	Notation string `json:"notation" jsonschema:"notation as submitted"`
	Rolls    []int  `json:"rolls" jsonschema:"individual die results in roll order"`
	Modifier int    `json:"modifier" jsonschema:"flat modifier added to the dice"`
	Total    int    `json:"total" jsonschema:"sum of the rolls plus the modifier"`
}

// RollInput represents the MCP tool input for the expression roller.
type RollInput struct {
	DiceNotation string `json:"dice_notation" jsonschema:"dice notation such as 2d6+3; the count defaults to 1"`
}

// RollResult represents the MCP tool output for the expression roller.
type RollResult struct {
	Expression      string `json:"expression" jsonschema:"canonical form of the rolled expression"`
	IndividualRolls []int  `json:"individual_rolls" jsonschema:"individual die results in roll order"`
	Subtotal        int    `json:"subtotal" jsonschema:"sum of the individual rolls"`
	Modifier        int    `json:"modifier" jsonschema:"flat modifier added to the subtotal"`
	Total           int    `json:"total" jsonschema:"subtotal plus modifier"`
}

// InitiativeParticipant represents one combatant in an initiative request.
type InitiativeParticipant struct {
	Name     string `json:"name,omitempty" jsonschema:"combatant name; defaults to Unknown"`
	Modifier int    `json:"modifier,omitempty" jsonschema:"initiative modifier added to the d20"`
}

// RollInitiativeInput represents the MCP tool input for initiative.
type RollInitiativeInput struct {
	Participants []InitiativeParticipant `json:"participants" jsonschema:"combatants with their initiative modifiers"`
}

// InitiativeEntry represents one rolled initiative.
type InitiativeEntry struct {
	Name     string `json:"name" jsonschema:"combatant name"`
	Roll     int    `json:"roll" jsonschema:"d20 result"`
	Modifier int    `json:"modifier" jsonschema:"initiative modifier"`
	Total    int    `json:"total" jsonschema:"roll plus modifier"`
}

// RollInitiativeResult represents the MCP tool output for initiative.
type RollInitiativeResult struct {
	InitiativeOrder []InitiativeEntry `json:"initiative_order" jsonschema:"combatants ordered by total, highest first"`
}

// RollDiceTool defines the MCP tool schema for rolling dice notation.
func RollDiceTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        RollDiceToolName,
		Description: "Rolls dice using standard notation (e.g. 2d6, 1d20+5, 3d8-2)",
	}
}

// RollTool defines the MCP tool schema for the expression roller.
func RollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        RollToolName,
		Description: "Rolls a dice expression and reports the subtotal before the modifier",
	}
}

// RollInitiativeTool defines the MCP tool schema for initiative.
func RollInitiativeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        RollInitiativeToolName,
		Description: "Rolls d20 initiative for each participant and returns the turn order",
	}
}

// RollDiceHandler rolls notation and logs the result.
func RollDiceHandler(source dice.Source, limits dice.Limits, recorder RollRecorder) mcp.ToolHandlerFor[RollDiceInput, RollDiceResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollDiceInput) (*mcp.CallToolResult, RollDiceResult, error) {
		result, err := rollNotation(input.DiceNotation, source, limits)
		if err != nil {
			return nil, RollDiceResult{}, err
		}
		recordRoll(ctx, recorder, RollDiceToolName, input.Label, result)

		return nil, RollDiceResult{
			Notation: strings.TrimSpace(input.DiceNotation),
			Rolls:    result.Rolls,
			Modifier: result.Modifier,
			Total:    result.Total,
		}, nil
	}
}

// RollHandler rolls notation and reports the canonical expression.
func RollHandler(source dice.Source, limits dice.Limits, recorder RollRecorder) mcp.ToolHandlerFor[RollInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollInput) (*mcp.CallToolResult, RollResult, error) {
		result, err := rollNotation(input.DiceNotation, source, limits)
		if err != nil {
			return nil, RollResult{}, err
		}
		recordRoll(ctx, recorder, RollToolName, "", result)

		return nil, RollResult{
			Expression:      result.Notation,
			IndividualRolls: result.Rolls,
			Subtotal:        result.Subtotal,
			Modifier:        result.Modifier,
			Total:           result.Total,
		}, nil
	}
}

// RollInitiativeHandler rolls initiative and logs one d20 per participant.
func RollInitiativeHandler(source dice.Source, recorder RollRecorder) mcp.ToolHandlerFor[RollInitiativeInput, RollInitiativeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollInitiativeInput) (*mcp.CallToolResult, RollInitiativeResult, error) {
		participants := make([]initiative.Participant, 0, len(input.Participants))
		for _, participant := range input.Participants {
			participants = append(participants, initiative.Participant{
				Name:     participant.Name,
				Modifier: participant.Modifier,
			})
		}

		entries, err := initiative.Roll(participants, source)
		if err != nil {
			return nil, RollInitiativeResult{}, err
		}

		result := RollInitiativeResult{InitiativeOrder: make([]InitiativeEntry, 0, len(entries))}
		for _, entry := range entries {
			result.InitiativeOrder = append(result.InitiativeOrder, InitiativeEntry{
				Name:     entry.Name,
				Roll:     entry.Roll,
				Modifier: entry.Modifier,
				Total:    entry.Total,
			})
			recordRoll(ctx, recorder, RollInitiativeToolName, entry.Name, dice.Result{
				Notation: dice.Expression{Count: 1, Sides: 20, Modifier: entry.Modifier}.String(),
				Rolls:    []int{entry.Roll},
				Subtotal: entry.Roll,
				Modifier: entry.Modifier,
				Total:    entry.Total,
			})
		}
		return nil, result, nil
	}
}

func rollNotation(notation string, source dice.Source, limits dice.Limits) (dice.Result, error) {
	expr, err := dice.Parse(notation)
	if err != nil {
		return dice.Result{}, err
	}
	if err := limits.Check(expr); err != nil {
		return dice.Result{}, limitError(strings.TrimSpace(notation), limits, err)
	}
	result, err := dice.Roll(expr, source)
	if err != nil {
		return dice.Result{}, fmt.Errorf("roll %s: %w", expr, err)
	}
	return result, nil
}

// recordRoll logs the roll. A failed write is reported but does not undo a
// roll the caller already sees.
func recordRoll(ctx context.Context, recorder RollRecorder, tool, label string, result dice.Result) {
	if recorder == nil {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
	defer cancel()
	if _, err := recorder.RecordRoll(runCtx, tool, label, result); err != nil {
		log.Printf("record %s roll %s failed: %v", tool, result.Notation, err)
	}
}
