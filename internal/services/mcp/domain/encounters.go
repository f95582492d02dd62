package domain

import (
	"context"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EncounterJournal stores encounters.
type EncounterJournal interface {
	CreateEncounter(ctx context.Context, name, description string, monsters []map[string]any) (storage.Encounter, error)
	GetEncounter(ctx context.Context, ref string) (storage.Encounter, error)
	ListEncounters(ctx context.Context) ([]storage.Encounter, error)
}

// CreateEncounterInput represents the MCP tool input for encounter creation.
type CreateEncounterInput struct {
	Name        string           `json:"name" jsonschema:"unique encounter name"`
	Monsters    []map[string]any `json:"monsters" jsonschema:"monsters with their stats, such as name, hp and ac"`
	Description string           `json:"description,omitempty" jsonschema:"optional scene description"`
}

// CreateEncounterResult represents the MCP tool output for encounter creation.
type CreateEncounterResult struct {
	Status       string `json:"status" jsonschema:"success when the encounter was stored"`
	ID           string `json:"id" jsonschema:"encounter identifier"`
	Name         string `json:"name" jsonschema:"encounter name"`
	MonsterCount int    `json:"monster_count" jsonschema:"number of monsters"`
}

// ListEncountersInput represents the MCP tool input for listing encounters.
type ListEncountersInput struct{}

// EncounterSummary represents an encounter in a listing.
type EncounterSummary struct {
	ID           string `json:"id" jsonschema:"encounter identifier"`
	Name         string `json:"name" jsonschema:"encounter name"`
	MonsterCount int    `json:"monster_count" jsonschema:"number of monsters"`
	Created      string `json:"created" jsonschema:"RFC 3339 creation time"`
}

// ListEncountersResult represents the MCP tool output for listing encounters.
type ListEncountersResult struct {
	Encounters []EncounterSummary `json:"encounters" jsonschema:"encounters, newest first"`
}

// GetEncounterInput represents the MCP tool input for reading an encounter.
type GetEncounterInput struct {
	Name string `json:"name" jsonschema:"encounter name or id"`
}

// GetEncounterResult represents the MCP tool output for reading an encounter.
type GetEncounterResult struct {
	ID          string           `json:"id" jsonschema:"encounter identifier"`
	Name        string           `json:"name" jsonschema:"encounter name"`
	Description string           `json:"description" jsonschema:"scene description"`
	Monsters    []map[string]any `json:"monsters" jsonschema:"monsters with their stats"`
	Created     string           `json:"created" jsonschema:"RFC 3339 creation time"`
}

// CreateEncounterTool defines the MCP tool schema for encounter creation.
func CreateEncounterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_encounter",
		Description: "Creates an encounter with monsters and an optional description",
	}
}

// ListEncountersTool defines the MCP tool schema for listing encounters.
func ListEncountersTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_encounters",
		Description: "Lists encounters with their monster counts",
	}
}

// GetEncounterTool defines the MCP tool schema for reading an encounter.
func GetEncounterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_encounter",
		Description: "Returns an encounter with its monsters by name",
	}
}

// CreateEncounterHandler stores an encounter.
func CreateEncounterHandler(encounters EncounterJournal, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CreateEncounterInput, CreateEncounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateEncounterInput) (*mcp.CallToolResult, CreateEncounterResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		encounter, err := encounters.CreateEncounter(runCtx, input.Name, input.Description, input.Monsters)
		if err != nil {
			return nil, CreateEncounterResult{}, lookupError("Encounter", input.Name, err)
		}
		notifyResource(ctx, notify, EncountersResourceURI)

		return nil, CreateEncounterResult{
			Status:       "success",
			ID:           encounter.ID,
			Name:         encounter.Name,
			MonsterCount: len(encounter.Monsters),
		}, nil
	}
}

// ListEncountersHandler summarizes every encounter.
func ListEncountersHandler(encounters EncounterJournal) mcp.ToolHandlerFor[ListEncountersInput, ListEncountersResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListEncountersInput) (*mcp.CallToolResult, ListEncountersResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		listed, err := encounters.ListEncounters(runCtx)
		if err != nil {
			return nil, ListEncountersResult{}, err
		}
		return nil, ListEncountersResult{Encounters: encounterSummaries(listed)}, nil
	}
}

// GetEncounterHandler reads an encounter.
func GetEncounterHandler(encounters EncounterJournal) mcp.ToolHandlerFor[GetEncounterInput, GetEncounterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetEncounterInput) (*mcp.CallToolResult, GetEncounterResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		encounter, err := encounters.GetEncounter(runCtx, input.Name)
		if err != nil {
			return nil, GetEncounterResult{}, lookupError("Encounter", input.Name, err)
		}
		monsters := encounter.Monsters
		if monsters == nil {
			monsters = []map[string]any{}
		}
		return nil, GetEncounterResult{
			ID:          encounter.ID,
			Name:        encounter.Name,
			Description: encounter.Description,
			Monsters:    monsters,
			Created:     formatTime(encounter.CreatedAt),
		}, nil
	}
}

func encounterSummaries(encounters []storage.Encounter) []EncounterSummary {
	out := make([]EncounterSummary, 0, len(encounters))
	for _, encounter := range encounters {
		out = append(out, EncounterSummary{
			ID:           encounter.ID,
			Name:         encounter.Name,
			MonsterCount: len(encounter.Monsters),
			Created:      formatTime(encounter.CreatedAt),
		})
	}
	return out
}
