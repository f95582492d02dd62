// Package errors provides structured error handling with i18n support.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dice errors
	CodeDiceInvalidNotation   Code = "DICE_INVALID_NOTATION"
	CodeDiceInvalidExpression Code = "DICE_INVALID_EXPRESSION"
	CodeDiceLimitExceeded     Code = "DICE_LIMIT_EXCEEDED"

	// Initiative errors
	CodeInitiativeNoParticipants Code = "INITIATIVE_NO_PARTICIPANTS"

	// Table and generator errors
	CodeTableNotFound            Code = "TABLE_NOT_FOUND"
	CodeLootInvalidTreasureLevel Code = "LOOT_INVALID_TREASURE_LEVEL"

	// Journal errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeInvalidFilter   Code = "INVALID_FILTER"
	CodeNotFound        Code = "NOT_FOUND"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"

	// Page fetch errors
	CodeFetchFailed Code = "FETCH_FAILED"
)

// IsInvalidInput reports whether the code is caused by caller input rather
// than by a failing dependency.
func (c Code) IsInvalidInput() bool {
	switch c {
	case CodeDiceInvalidNotation,
		CodeDiceInvalidExpression,
		CodeDiceLimitExceeded,
		CodeInitiativeNoParticipants,
		CodeTableNotFound,
		CodeLootInvalidTreasureLevel,
		CodeInvalidArgument,
		CodeInvalidFilter,
		CodeNotFound,
		CodeAlreadyExists:
		return true
	default:
		return false
	}
}
