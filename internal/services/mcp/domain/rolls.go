package domain

import (
	"context"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RollLog pages through logged rolls.
type RollLog interface {
	ListRolls(ctx context.Context, query storage.RollQuery) (storage.RollPage, error)
}

// ListRollsInput represents the MCP tool input for the roll log.
type ListRollsInput struct {
	PageSize  int    `json:"page_size,omitempty" jsonschema:"rolls per page; defaults to 20, at most 100"`
	PageToken string `json:"page_token,omitempty" jsonschema:"next_page_token from a previous call"`
	Filter    string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over tool, notation, label, total and created_at, e.g. total >= 15 AND tool = \"roll_dice\""`
}

// LoggedRoll represents one roll log record.
type LoggedRoll struct {
	ID       string `json:"id" jsonschema:"roll identifier"`
	Tool     string `json:"tool" jsonschema:"tool that made the roll"`
	Notation string `json:"notation" jsonschema:"canonical dice notation"`
	Label    string `json:"label,omitempty" jsonschema:"label given to the roll"`
	Rolls    []int  `json:"rolls" jsonschema:"individual die results"`
	Modifier int    `json:"modifier" jsonschema:"flat modifier"`
	Total    int    `json:"total" jsonschema:"roll total"`
	Created  string `json:"created" jsonschema:"RFC 3339 roll time"`
}

// ListRollsResult represents the MCP tool output for the roll log.
type ListRollsResult struct {
	Rolls         []LoggedRoll `json:"rolls" jsonschema:"rolls, newest first"`
	NextPageToken string       `json:"next_page_token,omitempty" jsonschema:"token for the next page, empty on the last page"`
}

// ListRollsTool defines the MCP tool schema for the roll log.
func ListRollsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_rolls",
		Description: "Lists logged dice rolls newest first, with optional filtering and paging",
	}
}

// ListRollsHandler returns one page of the roll log.
func ListRollsHandler(rolls RollLog) mcp.ToolHandlerFor[ListRollsInput, ListRollsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListRollsInput) (*mcp.CallToolResult, ListRollsResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		page, err := rolls.ListRolls(runCtx, storage.RollQuery{
			PageSize:  input.PageSize,
			PageToken: input.PageToken,
			Filter:    input.Filter,
		})
		if err != nil {
			return nil, ListRollsResult{}, err
		}
		return nil, ListRollsResult{
			Rolls:         loggedRolls(page.Records),
			NextPageToken: page.NextPageToken,
		}, nil
	}
}

func loggedRolls(records []storage.RollRecord) []LoggedRoll {
	out := make([]LoggedRoll, 0, len(records))
	for _, record := range records {
		rolls := record.Rolls
		if rolls == nil {
			rolls = []int{}
		}
		out = append(out, LoggedRoll{
			ID:       record.ID,
			Tool:     record.Tool,
			Notation: record.Notation,
			Label:    record.Label,
			Rolls:    rolls,
			Modifier: record.Modifier,
			Total:    record.Total,
			Created:  formatTime(record.CreatedAt),
		})
	}
	return out
}
