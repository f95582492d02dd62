package dmclient

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage/sqlite"
	"github.com/louisbranch/dungeonkit/internal/services/mcp/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type firstFaceSource struct{}

func (firstFaceSource) Intn(int) int { return 0 }

type callerFunc func(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)

func (f callerFunc) CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
	return f(ctx, params)
}

func TestParseConfig(t *testing.T) {
	t.Setenv("DUNGEONKIT_MCP_URL", "http://keep.local:9000/sse")

	cfg, err := ParseConfig(flag.NewFlagSet("dmclient", flag.ContinueOnError), []string{"-timeout", "5s"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.URL != "http://keep.local:9000/sse" || cfg.Timeout != 5*time.Second {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunScenarioAgainstServer(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	server, err := service.New(service.Deps{
		Source:  firstFaceSource{},
		Limits:  dice.DefaultLimits,
		Journal: journal.NewService(store),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("connect server: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })
	session, err := mcp.NewClient(&mcp.Implementation{Name: "dmclient-test", Version: "v0"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })

	var out bytes.Buffer
	steps := Scenario(time.Date(2026, 3, 1, 18, 45, 0, 0, time.UTC))
	if err := RunScenario(ctx, session, steps, &out); err != nil {
		t.Fatalf("run scenario: %v\n%s", err, out.String())
	}
	for _, want := range []string{
		"== 1. Strength check (roll_dice)",
		`"total": 5`,
		`"The Arcane Emporium"`,
		`"Goblin Ambush 2026-03-01 18:45:00"`,
		`"The Prancing Pony"`,
	} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRunScenarioCountsToolErrors(t *testing.T) {
	caller := callerFunc(func(_ context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error) {
		if params.Name == "roll_dice" {
			return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: "Invalid dice notation: x"}}}, nil
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok"}}}, nil
	})
	steps := []Step{{Title: "bad", Tool: "roll_dice"}, {Title: "good", Tool: "list_notes"}}

	var out bytes.Buffer
	err := RunScenario(context.Background(), caller, steps, &out)
	if err == nil || err.Error() != "1 of 2 steps failed" {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out.String(), "error: Invalid dice notation: x") || !strings.Contains(out.String(), "ok") {
		t.Fatalf("output = %s", out.String())
	}
}

func TestRunScenarioStopsOnTransportError(t *testing.T) {
	calls := 0
	caller := callerFunc(func(context.Context, *mcp.CallToolParams) (*mcp.CallToolResult, error) {
		calls++
		return nil, errors.New("connection closed")
	})
	err := RunScenario(context.Background(), caller, Scenario(time.Now()), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "connection closed") || calls != 1 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
}
