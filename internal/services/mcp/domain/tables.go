package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/tables"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TablesResourceURI lists the tables roll_on_table accepts.
const TablesResourceURI = "dungeonkit://tables"

// TableResourceURITemplate addresses the entries of one table.
const TableResourceURITemplate = "dungeonkit://tables/{name}"

// TableNameArgument is the completable argument of TableResourceURITemplate.
const TableNameArgument = "name"

// RollOnTableInput represents the MCP tool input for a table roll.
type RollOnTableInput struct {
	TableName string `json:"table_name" jsonschema:"table to roll on: magic_item_quirk, quest_hook, random_encounter or tavern_name"`
}

// RollOnTableResult represents the MCP tool output for a table roll.
type RollOnTableResult struct {
	Table  string `json:"table" jsonschema:"table rolled on"`
	Roll   int    `json:"roll" jsonschema:"1-based entry index"`
	Result string `json:"result" jsonschema:"selected entry"`
}

// GenerateNPCInput represents the MCP tool input for NPC generation.
type GenerateNPCInput struct {
	Race       string `json:"race,omitempty" jsonschema:"optional race; random when omitted"`
	Occupation string `json:"occupation,omitempty" jsonschema:"optional occupation; random when omitted"`
}

// GenerateNPCResult represents the MCP tool output for NPC generation.
type GenerateNPCResult struct {
	Name         string `json:"name" jsonschema:"full name"`
	Race         string `json:"race" jsonschema:"race"`
	Occupation   string `json:"occupation" jsonschema:"occupation"`
	Trait        string `json:"trait" jsonschema:"personality trait"`
	Strength     int    `json:"strength" jsonschema:"strength score"`
	Dexterity    int    `json:"dexterity" jsonschema:"dexterity score"`
	Constitution int    `json:"constitution" jsonschema:"constitution score"`
	Intelligence int    `json:"intelligence" jsonschema:"intelligence score"`
	Wisdom       int    `json:"wisdom" jsonschema:"wisdom score"`
	Charisma     int    `json:"charisma" jsonschema:"charisma score"`
}

// GenerateLootInput represents the MCP tool input for loot generation.
type GenerateLootInput struct {
	TreasureLevel string `json:"treasure_level,omitempty" jsonschema:"low, medium, high or legendary; defaults to medium"`
}

// GenerateLootResult represents the MCP tool output for loot generation.
type GenerateLootResult struct {
	TreasureLevel string   `json:"treasure_level" jsonschema:"treasure level used"`
	Gold          int      `json:"gold" jsonschema:"gold pieces"`
	Items         []string `json:"items" jsonschema:"item names"`
}

// GenerateHelloWorldInput represents the MCP tool input for greetings.
type GenerateHelloWorldInput struct{}

// GenerateHelloWorldResult represents the MCP tool output for greetings.
type GenerateHelloWorldResult struct {
	Phrase         string `json:"phrase" jsonschema:"combined greeting"`
	HelloComponent string `json:"hello_component" jsonschema:"word used for hello"`
	WorldComponent string `json:"world_component" jsonschema:"word used for world"`
}

// TablesPayload is the body of the tables resource.
type TablesPayload struct {
	Tables []TableEntry `json:"tables"`
}

// TableEntry describes one random table.
type TableEntry struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// RollOnTableTool defines the MCP tool schema for a table roll.
func RollOnTableTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "roll_on_table",
		Description: "Rolls on a random table (see the dungeonkit://tables resource)",
	}
}

// GenerateNPCTool defines the MCP tool schema for NPC generation.
func GenerateNPCTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_random_npc",
		Description: "Generates a random NPC with a name, trait and ability scores",
	}
}

// GenerateLootTool defines the MCP tool schema for loot generation.
func GenerateLootTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_loot",
		Description: "Generates gold and items for a treasure level",
	}
}

// GenerateHelloWorldTool defines the MCP tool schema for greetings.
func GenerateHelloWorldTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "generate_hello_world",
		Description: "Generates a random 'Hello, world!' phrase from synonyms",
	}
}

// RollOnTableHandler picks an entry from a named table.
func RollOnTableHandler(source dice.Source) mcp.ToolHandlerFor[RollOnTableInput, RollOnTableResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input RollOnTableInput) (*mcp.CallToolResult, RollOnTableResult, error) {
		rolled, err := tables.Roll(input.TableName, source)
		if err != nil {
			return nil, RollOnTableResult{}, err
		}
		return nil, RollOnTableResult{Table: rolled.Table, Roll: rolled.Roll, Result: rolled.Result}, nil
	}
}

// GenerateNPCHandler builds a random NPC.
func GenerateNPCHandler(source dice.Source) mcp.ToolHandlerFor[GenerateNPCInput, GenerateNPCResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input GenerateNPCInput) (*mcp.CallToolResult, GenerateNPCResult, error) {
		npc, err := tables.GenerateNPC(input.Race, input.Occupation, source)
		if err != nil {
			return nil, GenerateNPCResult{}, err
		}
		return nil, GenerateNPCResult{
			Name:         npc.Name,
			Race:         npc.Race,
			Occupation:   npc.Occupation,
			Trait:        npc.Trait,
			Strength:     npc.Abilities.Strength,
			Dexterity:    npc.Abilities.Dexterity,
			Constitution: npc.Abilities.Constitution,
			Intelligence: npc.Abilities.Intelligence,
			Wisdom:       npc.Abilities.Wisdom,
			Charisma:     npc.Abilities.Charisma,
		}, nil
	}
}

// GenerateLootHandler rolls treasure for a level.
func GenerateLootHandler(source dice.Source) mcp.ToolHandlerFor[GenerateLootInput, GenerateLootResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input GenerateLootInput) (*mcp.CallToolResult, GenerateLootResult, error) {
		level, err := tables.ParseTreasureLevel(input.TreasureLevel)
		if err != nil {
			return nil, GenerateLootResult{}, treasureError(input.TreasureLevel, err)
		}
		loot, err := tables.GenerateLoot(level, source)
		if err != nil {
			return nil, GenerateLootResult{}, treasureError(input.TreasureLevel, err)
		}
		return nil, GenerateLootResult{
			TreasureLevel: string(loot.Level),
			Gold:          loot.Gold,
			Items:         loot.Items,
		}, nil
	}
}

// GenerateHelloWorldHandler builds a greeting.
func GenerateHelloWorldHandler(source dice.Source) mcp.ToolHandlerFor[GenerateHelloWorldInput, GenerateHelloWorldResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ GenerateHelloWorldInput) (*mcp.CallToolResult, GenerateHelloWorldResult, error) {
		greeting, err := tables.GenerateGreeting(source)
		if err != nil {
			return nil, GenerateHelloWorldResult{}, err
		}
		return nil, GenerateHelloWorldResult{
			Phrase:         greeting.Phrase,
			HelloComponent: greeting.Hello,
			WorldComponent: greeting.World,
		}, nil
	}
}

// TablesResource defines the MCP resource listing random tables.
func TablesResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         TablesResourceURI,
		Name:        "tables",
		Title:       "Random tables",
		Description: "Tables available to roll_on_table with their entry counts",
		MIMEType:    "application/json",
	}
}

// TablesResourceHandler returns the table listing.
func TablesResourceHandler() mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		payload := TablesPayload{Tables: []TableEntry{}}
		for _, name := range tables.Names() {
			entries, err := tables.Entries(name)
			if err != nil {
				return nil, err
			}
			payload.Tables = append(payload.Tables, TableEntry{Name: name, Entries: len(entries)})
		}
		return jsonResource(resourceURI(req, TablesResourceURI), payload)
	}
}

// TableResourceTemplate defines the MCP resource template for one table.
func TableResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		URITemplate: TableResourceURITemplate,
		Name:        "table",
		Title:       "Random table",
		Description: "Every entry of one random table, in roll order",
		MIMEType:    "application/json",
	}
}

// TableDetail represents a table with its entries.
type TableDetail struct {
	Name    string   `json:"name"`
	Entries []string `json:"entries"`
}

// TableResourceHandler returns the entries of the table named in the URI.
func TableResourceHandler() mcp.ResourceHandler {
	return func(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := resourceURI(req, "")
		name, ok := strings.CutPrefix(uri, TablesResourceURI+"/")
		if !ok || name == "" {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		entries, err := tables.Entries(name)
		if err != nil {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return jsonResource(uri, TableDetail{Name: name, Entries: entries})
	}
}

// CompleteTableNames returns the table names starting with prefix.
func CompleteTableNames(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	matches := []string{}
	for _, name := range tables.Names() {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}
	return matches
}

func resourceURI(req *mcp.ReadResourceRequest, fallback string) string {
	if req == nil || req.Params == nil || req.Params.URI == "" {
		return fallback
	}
	return req.Params.URI
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
