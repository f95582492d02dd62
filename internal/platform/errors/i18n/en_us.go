package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeDiceInvalidNotation      = "DICE_INVALID_NOTATION"
	CodeDiceInvalidExpression    = "DICE_INVALID_EXPRESSION"
	CodeDiceLimitExceeded        = "DICE_LIMIT_EXCEEDED"
	CodeInitiativeNoParticipants = "INITIATIVE_NO_PARTICIPANTS"
	CodeTableNotFound            = "TABLE_NOT_FOUND"
	CodeLootInvalidTreasureLevel = "LOOT_INVALID_TREASURE_LEVEL"
	CodeInvalidArgument          = "INVALID_ARGUMENT"
	CodeInvalidFilter            = "INVALID_FILTER"
	CodeNotFound                 = "NOT_FOUND"
	CodeAlreadyExists            = "ALREADY_EXISTS"
	CodeFetchFailed              = "FETCH_FAILED"
)

var enUSMessages = map[Code]string{
	CodeDiceInvalidNotation:      "Invalid dice notation: {{.Input}}. Use format like {{.Expected}}",
	CodeDiceInvalidExpression:    "Dice must have at least one die and one side.",
	CodeDiceLimitExceeded:        "Dice roll {{.Input}} is too large: at most {{num .MaxCount}} dice with {{num .MaxSides}} sides and a modifier within ±{{num .MaxModifier}}.",
	CodeInitiativeNoParticipants: "Add at least one participant to roll initiative.",
	CodeTableNotFound:            "Table not found: {{.Table}}. Available tables: {{.Available}}",
	CodeLootInvalidTreasureLevel: "Invalid treasure level {{.Level}}. Use 'low', 'medium', 'high', or 'legendary'",
	CodeInvalidArgument:          "Invalid {{.Field}}: {{.Reason}}",
	CodeInvalidFilter:            "Invalid filter: {{.Filter}}",
	CodeNotFound:                 "{{.Kind}} not found: {{.Name}}",
	CodeAlreadyExists:            "{{.Kind}} already exists: {{.Name}}",
	CodeFetchFailed:              "Failed to load page {{.URL}}",
}
