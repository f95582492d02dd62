package domain

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/initiative"
	apperrors "github.com/louisbranch/dungeonkit/internal/platform/errors"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/louisbranch/dungeonkit/internal/tables"
	"github.com/louisbranch/dungeonkit/internal/webpage"
)

// ToolError is the failure reported to MCP clients. Its text is the
// localized message; the domain error stays reachable through Unwrap.
type ToolError struct {
	Code    apperrors.Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return e.Message
}

// Unwrap returns the domain error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// LocalizeError converts a handler error into a ToolError rendered for
// locale. Context errors and nil pass through unchanged.
func LocalizeError(err error, locale string) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return err
	}
	appErr := classify(err)
	message := appErr.LocalizedMessage(locale)
	if appErr.Code == apperrors.CodeUnknown {
		message = err.Error()
	}
	return &ToolError{Code: appErr.Code, Message: message, Err: err}
}

// ErrorCode reports the code LocalizeError would assign to err.
func ErrorCode(err error) apperrors.Code {
	if err == nil {
		return ""
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Code
	}
	return classify(err).Code
}

func classify(err error) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var notationErr *dice.NotationError
	if errors.As(err, &notationErr) {
		return apperrors.Wrap(apperrors.CodeDiceInvalidNotation, err, map[string]string{
			"Input":    notationErr.Input,
			"Expected": notationErr.Expected,
		})
	}
	var tableErr *tables.TableError
	if errors.As(err, &tableErr) {
		return apperrors.Wrap(apperrors.CodeTableNotFound, err, map[string]string{
			"Table":     tableErr.Table,
			"Available": strings.Join(tableErr.Available, ", "),
		})
	}

	switch {
	case errors.Is(err, dice.ErrInvalidExpression):
		return apperrors.Wrap(apperrors.CodeDiceInvalidExpression, err, nil)
	case errors.Is(err, initiative.ErrNoParticipants):
		return apperrors.Wrap(apperrors.CodeInitiativeNoParticipants, err, nil)
	case errors.Is(err, tables.ErrInvalidTreasureLevel):
		return apperrors.Wrap(apperrors.CodeLootInvalidTreasureLevel, err, nil)
	case errors.Is(err, journal.ErrInvalidArgument):
		reason := strings.TrimPrefix(err.Error(), journal.ErrInvalidArgument.Error()+": ")
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, map[string]string{
			"Field":  "argument",
			"Reason": reason,
		})
	case errors.Is(err, storage.ErrInvalidFilter):
		return apperrors.Wrap(apperrors.CodeInvalidFilter, err, map[string]string{
			"Filter": strings.TrimPrefix(err.Error(), storage.ErrInvalidFilter.Error()+": "),
		})
	case errors.Is(err, webpage.ErrInvalidURL):
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err, map[string]string{
			"Field":  "url",
			"Reason": err.Error(),
		})
	default:
		return apperrors.Wrap(apperrors.CodeUnknown, err, nil)
	}
}

// limitError reports a notation that parses but exceeds limits.
func limitError(notation string, limits dice.Limits, err error) error {
	return apperrors.Wrap(apperrors.CodeDiceLimitExceeded, err, map[string]string{
		"Input":       notation,
		"MaxCount":    strconv.Itoa(limits.MaxCount),
		"MaxSides":    strconv.Itoa(limits.MaxSides),
		"MaxModifier": strconv.Itoa(limits.MaxModifier),
	})
}

// lookupError attaches the record kind and reference to journal errors.
func lookupError(kind, name string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, err, map[string]string{
			"Kind": kind,
			"Name": name,
		})
	case errors.Is(err, storage.ErrAlreadyExists):
		return apperrors.Wrap(apperrors.CodeAlreadyExists, err, map[string]string{
			"Kind": kind,
			"Name": name,
		})
	default:
		return err
	}
}

// treasureError names the rejected level in the message.
func treasureError(level string, err error) error {
	if !errors.Is(err, tables.ErrInvalidTreasureLevel) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeLootInvalidTreasureLevel, err, map[string]string{
		"Level": level,
	})
}

// fetchError names the URL that could not be loaded.
func fetchError(rawURL string, err error) error {
	if !errors.Is(err, webpage.ErrFetchFailed) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeFetchFailed, err, map[string]string{
		"URL": rawURL,
	})
}
