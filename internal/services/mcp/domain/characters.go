package domain

import (
	"context"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CharacterJournal stores characters.
type CharacterJournal interface {
	AddCharacter(ctx context.Context, name string, attributes map[string]any) (storage.Character, bool, error)
	GetCharacter(ctx context.Context, name string) (storage.Character, error)
	ListCharacters(ctx context.Context) ([]journal.CharacterSummary, error)
}

// AddCharacterInput represents the MCP tool input for character upserts.
type AddCharacterInput struct {
	Name          string         `json:"name" jsonschema:"character name"`
	CharacterData map[string]any `json:"character_data,omitempty" jsonschema:"free-form attributes such as class, level, race and hp"`
}

// AddCharacterResult represents the MCP tool output for character upserts.
type AddCharacterResult struct {
	Status string `json:"status" jsonschema:"success when the character was stored"`
	Name   string `json:"name" jsonschema:"character name"`
	Action string `json:"action" jsonschema:"added for a new character, updated otherwise"`
}

// GetCharacterInput represents the MCP tool input for reading a character.
type GetCharacterInput struct {
	Name string `json:"name" jsonschema:"character name, case-insensitive"`
}

// GetCharacterResult represents the MCP tool output for reading a character.
type GetCharacterResult struct {
	Name        string         `json:"name" jsonschema:"character name"`
	Attributes  map[string]any `json:"attributes" jsonschema:"stored character attributes"`
	Created     string         `json:"created" jsonschema:"RFC 3339 creation time"`
	LastUpdated string         `json:"last_updated" jsonschema:"RFC 3339 time of the last update"`
}

// ListCharactersInput represents the MCP tool input for listing characters.
type ListCharactersInput struct{}

// CharacterSummary represents a character in a listing.
type CharacterSummary struct {
	Name  string `json:"name" jsonschema:"character name"`
	Class string `json:"class" jsonschema:"class, or Unknown"`
	Level int    `json:"level" jsonschema:"level, 1 when unset"`
	Race  string `json:"race" jsonschema:"race, or Unknown"`
}

// ListCharactersResult represents the MCP tool output for listing characters.
type ListCharactersResult struct {
	Characters []CharacterSummary `json:"characters" jsonschema:"characters by name"`
}

// AddCharacterTool defines the MCP tool schema for character upserts.
func AddCharacterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "add_character",
		Description: "Adds a character or replaces the attributes of an existing one",
	}
}

// GetCharacterTool defines the MCP tool schema for reading a character.
func GetCharacterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_character",
		Description: "Returns a character's attributes by name",
	}
}

// ListCharactersTool defines the MCP tool schema for listing characters.
func ListCharactersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_characters",
		Description: "Lists characters with class, level and race",
	}
}

// AddCharacterHandler upserts a character.
func AddCharacterHandler(characters CharacterJournal, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[AddCharacterInput, AddCharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AddCharacterInput) (*mcp.CallToolResult, AddCharacterResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		character, created, err := characters.AddCharacter(runCtx, input.Name, input.CharacterData)
		if err != nil {
			return nil, AddCharacterResult{}, lookupError("Character", input.Name, err)
		}
		notifyResource(ctx, notify, CharactersResourceURI)

		action := "updated"
		if created {
			action = "added"
		}
		return nil, AddCharacterResult{Status: "success", Name: character.Name, Action: action}, nil
	}
}

// GetCharacterHandler reads a character.
func GetCharacterHandler(characters CharacterJournal) mcp.ToolHandlerFor[GetCharacterInput, GetCharacterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetCharacterInput) (*mcp.CallToolResult, GetCharacterResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		character, err := characters.GetCharacter(runCtx, input.Name)
		if err != nil {
			return nil, GetCharacterResult{}, lookupError("Character", input.Name, err)
		}
		attributes := character.Attributes
		if attributes == nil {
			attributes = map[string]any{}
		}
		return nil, GetCharacterResult{
			Name:        character.Name,
			Attributes:  attributes,
			Created:     formatTime(character.CreatedAt),
			LastUpdated: formatTime(character.UpdatedAt),
		}, nil
	}
}

// ListCharactersHandler summarizes every character.
func ListCharactersHandler(characters CharacterJournal) mcp.ToolHandlerFor[ListCharactersInput, ListCharactersResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListCharactersInput) (*mcp.CallToolResult, ListCharactersResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		summaries, err := characters.ListCharacters(runCtx)
		if err != nil {
			return nil, ListCharactersResult{}, err
		}
		return nil, ListCharactersResult{Characters: characterSummaries(summaries)}, nil
	}
}

func characterSummaries(summaries []journal.CharacterSummary) []CharacterSummary {
	out := make([]CharacterSummary, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, CharacterSummary{
			Name:  summary.Name,
			Class: summary.Class,
			Level: summary.Level,
			Race:  summary.Race,
		})
	}
	return out
}
