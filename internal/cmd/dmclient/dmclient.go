// Package dmclient drives a running MCP server through a scripted session
// prep, printing each tool result.
package dmclient

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/dungeonkit/internal/platform/cmd"
	"github.com/louisbranch/dungeonkit/internal/platform/otel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config holds demo client configuration.
type Config struct {
	URL     string        `env:"MCP_URL"          envDefault:"http://localhost:8000/sse"`
	Timeout time.Duration `env:"DMCLIENT_TIMEOUT" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	bind := func(fs *flag.FlagSet, cfg *Config) {
		fs.StringVar(&cfg.URL, "url", cfg.URL, "MCP SSE endpoint")
		fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall scenario timeout")
	}
	if err := cmd.ParseConfigFromArgs(&cfg, fs, bind, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Step is one scripted tool call.
type Step struct {
	Title     string
	Tool      string
	Arguments map[string]any
}

// ToolCaller calls MCP tools.
type ToolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
}

// Scenario returns the scripted prep for one session. The encounter name
// carries the date so the scenario can run again against the same journal.
func Scenario(now time.Time) []Step {
	return []Step{
		{Title: "Strength check", Tool: "roll_dice", Arguments: map[string]any{"dice_notation": "3d6+2", "label": "strength check"}},
		{Title: "Magic shop note", Tool: "create_note", Arguments: map[string]any{
			"title":   "The Arcane Emporium",
			"content": "A new magic shop in the town of Fallcrest.",
			"tags":    []string{"fallcrest", "shops"},
		}},
		{Title: "Add Thorne", Tool: "add_character", Arguments: map[string]any{
			"name":           "Thorne Ironheart",
			"character_data": map[string]any{"race": "Dwarf", "class": "Fighter", "level": 5, "hp": 45},
		}},
		{Title: "Elf shopkeeper", Tool: "generate_random_npc", Arguments: map[string]any{"race": "elf", "occupation": "shopkeeper"}},
		{Title: "Initiative", Tool: "roll_initiative", Arguments: map[string]any{"participants": []map[string]any{
			{"name": "Thorne", "modifier": 3},
			{"name": "Goblin 1", "modifier": 1},
			{"name": "Goblin 2", "modifier": 1},
			{"name": "Evil Mage", "modifier": 2},
		}}},
		{Title: "Goblin ambush", Tool: "create_encounter", Arguments: map[string]any{
			"name": "Goblin Ambush " + now.UTC().Format("2006-01-02 15:04:05"),
			"monsters": []map[string]any{
				{"name": "Goblin", "count": 4, "hp": 7, "ac": 15},
				{"name": "Goblin Boss", "count": 1, "hp": 21, "ac": 17},
			},
			"description": "Goblins wait in the brush along the road.",
		}},
		{Title: "Ogre loot", Tool: "generate_loot", Arguments: map[string]any{"treasure_level": "medium"}},
		{Title: "Tavern name", Tool: "roll_on_table", Arguments: map[string]any{"table_name": "tavern_name"}},
		{Title: "Quest hook", Tool: "roll_on_table", Arguments: map[string]any{"table_name": "quest_hook"}},
		{Title: "Fallcrest notes", Tool: "list_notes", Arguments: map[string]any{"tag": "fallcrest"}},
	}
}

// Run connects to the server at cfg.URL and plays the scenario.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client := mcp.NewClient(&mcp.Implementation{Name: "dmclient", Version: otel.Version}, nil)
	session, err := client.Connect(ctx, &mcp.SSEClientTransport{Endpoint: cfg.URL}, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return fmt.Errorf("list tools: %w", err)
	}
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	fmt.Fprintf(out, "connected to %s with %d tools: %s\n", cfg.URL, len(names), strings.Join(names, ", "))

	return RunScenario(ctx, session, Scenario(time.Now()), out)
}

// RunScenario calls each step in order. Tool errors are printed and the
// scenario continues; a transport error stops it.
func RunScenario(ctx context.Context, caller ToolCaller, steps []Step, out io.Writer) error {
	failed := 0
	for i, step := range steps {
		fmt.Fprintf(out, "\n== %d. %s (%s)\n", i+1, step.Title, step.Tool)
		result, err := caller.CallTool(ctx, &mcp.CallToolParams{Name: step.Tool, Arguments: step.Arguments})
		if err != nil {
			return fmt.Errorf("call %s: %w", step.Tool, err)
		}
		if result.IsError {
			failed++
			fmt.Fprintf(out, "error: %s\n", contentText(result))
			continue
		}
		fmt.Fprintln(out, renderResult(result))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(steps))
	}
	return nil
}

func renderResult(result *mcp.CallToolResult) string {
	if result.StructuredContent != nil {
		data, err := json.MarshalIndent(result.StructuredContent, "", "  ")
		if err == nil {
			return string(data)
		}
	}
	return contentText(result)
}

func contentText(result *mcp.CallToolResult) string {
	parts := make([]string, 0, len(result.Content))
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}
