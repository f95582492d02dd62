package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage/sqlite"
	"github.com/louisbranch/dungeonkit/internal/services/mcp/domain"
	"github.com/louisbranch/dungeonkit/internal/webpage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// maxSource always rolls the highest face.
type maxSource struct{}

func (maxSource) Intn(n int) int { return n - 1 }

type fetcherFunc func(ctx context.Context, rawURL string) (webpage.Page, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL string) (webpage.Page, error) {
	return f(ctx, rawURL)
}

func newTestJournal(t *testing.T) *journal.Service {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return journal.NewService(store)
}

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Source:  maxSource{},
		Limits:  dice.DefaultLimits,
		Journal: newTestJournal(t),
		Locale:  "en-US",
	}
}

func connectTestClient(t *testing.T, deps Deps, opts *mcp.ClientOptions) *mcp.ClientSession {
	t.Helper()
	server, err := New(deps)
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

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, opts)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("connect client: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func decodeStructured(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	data, err := json.Marshal(result.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
}

func toolErrorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if !result.IsError {
		t.Fatalf("expected tool error, got %+v", result)
	}
	if len(result.Content) == 0 {
		t.Fatal("expected error content")
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestNewRequiresSourceAndJournal(t *testing.T) {
	if _, err := New(Deps{Journal: newTestJournal(t)}); err == nil {
		t.Fatal("expected error without random source")
	}
	if _, err := New(Deps{Source: maxSource{}}); err == nil {
		t.Fatal("expected error without journal")
	}
}

func TestServerListsTools(t *testing.T) {
	session := connectTestClient(t, newTestDeps(t), nil)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{
		"add_character", "create_encounter", "create_note", "generate_hello_world",
		"generate_loot", "generate_random_npc", "get_character", "get_encounter",
		"list_characters", "list_encounters", "list_notes", "list_rolls",
		"read_note", "roll", "roll_dice", "roll_initiative", "roll_on_table",
	}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("tools = %v", names)
	}
}

func TestServerRegistersFetchToolWithFetcher(t *testing.T) {
	deps := newTestDeps(t)
	deps.Fetcher = fetcherFunc(func(_ context.Context, rawURL string) (webpage.Page, error) {
		return webpage.Page{URL: rawURL, Links: []webpage.Link{}}, nil
	})
	session := connectTestClient(t, deps, nil)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(result.Tools) != 18 {
		t.Fatalf("expected 18 tools, got %d", len(result.Tools))
	}
}

func TestServerCallRollDice(t *testing.T) {
	deps := newTestDeps(t)
	session := connectTestClient(t, deps, nil)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      domain.RollDiceToolName,
		Arguments: map[string]any{"dice_notation": "2d6+1", "label": "fireball"},
	})
	if err != nil {
		t.Fatalf("call roll_dice: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}
	var rolled domain.RollDiceResult
	decodeStructured(t, result, &rolled)
	if rolled.Notation != "2d6+1" || rolled.Total != 13 || len(rolled.Rolls) != 2 {
		t.Fatalf("result = %+v", rolled)
	}

	page, err := deps.Journal.ListRolls(ctx, storage.RollQuery{})
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(page.Records) != 1 || page.Records[0].Label != "fireball" {
		t.Fatalf("logged rolls = %+v", page.Records)
	}
}

func TestServerLocalizesToolErrors(t *testing.T) {
	tests := []struct {
		name   string
		locale string
		prefix string
	}{
		{name: "english", locale: "en-US", prefix: "Invalid dice notation: bad-input"},
		{name: "portuguese", locale: "pt-BR", prefix: "Notação de dados inválida: bad-input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t)
			deps.Locale = tt.locale
			session := connectTestClient(t, deps, nil)

			result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
				Name:      domain.RollDiceToolName,
				Arguments: map[string]any{"dice_notation": "bad-input"},
			})
			if err != nil {
				t.Fatalf("call roll_dice: %v", err)
			}
			if got := toolErrorText(t, result); !strings.HasPrefix(got, tt.prefix) {
				t.Fatalf("error text = %q", got)
			}
		})
	}
}

func TestServerReadsResources(t *testing.T) {
	session := connectTestClient(t, newTestDeps(t), nil)
	ctx := context.Background()

	listing, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: domain.TablesResourceURI})
	if err != nil {
		t.Fatalf("read tables: %v", err)
	}
	if !strings.Contains(listing.Contents[0].Text, `"tavern_name"`) {
		t.Fatalf("tables = %s", listing.Contents[0].Text)
	}

	table, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: domain.TablesResourceURI + "/quest_hook"})
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	var detail domain.TableDetail
	if err := json.Unmarshal([]byte(table.Contents[0].Text), &detail); err != nil {
		t.Fatalf("decode table: %v", err)
	}
	if detail.Name != "quest_hook" || len(detail.Entries) == 0 {
		t.Fatalf("detail = %+v", detail)
	}

	if _, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: domain.NotesResourceURI}); err != nil {
		t.Fatalf("read notes: %v", err)
	}
}

func TestServerCompletesTableNames(t *testing.T) {
	session := connectTestClient(t, newTestDeps(t), nil)

	result, err := session.Complete(context.Background(), &mcp.CompleteParams{
		Ref:      &mcp.CompleteReference{Type: "ref/resource", URI: domain.TableResourceURITemplate},
		Argument: mcp.CompleteParamsArgument{Name: domain.TableNameArgument, Value: "t"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(result.Completion.Values) != 1 || result.Completion.Values[0] != "tavern_name" {
		t.Fatalf("values = %v", result.Completion.Values)
	}
}

func TestServerNotifiesResourceSubscribers(t *testing.T) {
	updated := make(chan string, 1)
	session := connectTestClient(t, newTestDeps(t), &mcp.ClientOptions{
		ResourceUpdatedHandler: func(_ context.Context, req *mcp.ResourceUpdatedNotificationRequest) {
			select {
			case updated <- req.Params.URI:
			default:
			}
		},
	})
	ctx := context.Background()

	if err := session.Subscribe(ctx, &mcp.SubscribeParams{URI: domain.NotesResourceURI}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "create_note",
		Arguments: map[string]any{"title": "Goblin ambush", "content": "At the bridge."},
	})
	if err != nil || result.IsError {
		t.Fatalf("create note: %v %+v", err, result)
	}

	select {
	case uri := <-updated:
		if uri != domain.NotesResourceURI {
			t.Fatalf("updated uri = %q", uri)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resource update")
	}
}

func TestInstrumentToolRecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	handler := instrumentTool("roll_dice", "en-US", domain.RollDiceHandler(maxSource{}, dice.DefaultLimits, nil))
	if _, _, err := handler(context.Background(), nil, domain.RollDiceInput{DiceNotation: "1d4"}); err != nil {
		t.Fatalf("roll: %v", err)
	}
	_, _, err := handler(context.Background(), nil, domain.RollDiceInput{DiceNotation: "nope"})
	if err == nil || !strings.HasPrefix(err.Error(), "Invalid dice notation: nope") {
		t.Fatalf("expected localized error, got %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "mcp.tool/roll_dice" || spans[0].Status().Code != codes.Ok {
		t.Fatalf("first span = %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error || spans[1].Status().Description != "DICE_INVALID_NOTATION" {
		t.Fatalf("second span status = %v", spans[1].Status())
	}
	invalidInput := false
	for _, attr := range spans[1].Attributes() {
		if attr.Key == "mcp.tool.invalid_input" {
			invalidInput = attr.Value.AsBool()
		}
	}
	if !invalidInput {
		t.Fatal("expected notation failure to be marked as invalid input")
	}
}

func TestParseTransportKind(t *testing.T) {
	tests := []struct {
		input   string
		want    TransportKind
		wantErr bool
	}{
		{input: "", want: TransportSSE},
		{input: "SSE", want: TransportSSE},
		{input: " stdio ", want: TransportStdio},
		{input: "grpc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTransportKind(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTransportKind(%q) expected error", tt.input)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParseTransportKind(%q) = %q, %v", tt.input, got, err)
		}
	}
}

func TestServeWithTransportStopsOnCancel(t *testing.T) {
	server, err := New(newTestDeps(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	_, serverTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := server.serveWithTransport(ctx, serverTransport); err != nil {
		t.Fatalf("expected nil on cancel, got %v", err)
	}
}
