package domain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/louisbranch/dungeonkit/internal/dice"
	apperrors "github.com/louisbranch/dungeonkit/internal/platform/errors"
	"github.com/louisbranch/dungeonkit/internal/services/journal"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage/sqlite"
	"github.com/louisbranch/dungeonkit/internal/tables"
	"github.com/louisbranch/dungeonkit/internal/webpage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// sequenceSource returns values in order, wrapping around, reduced mod n.
type sequenceSource struct {
	values []int
	next   int
}

func (s *sequenceSource) Intn(n int) int {
	value := s.values[s.next%len(s.values)] % n
	s.next++
	return value
}

func newTestJournal(t *testing.T) *journal.Service {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	now := time.Date(2026, time.March, 1, 18, 45, 0, 0, time.UTC)
	return journal.NewService(store, journal.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))
}

func TestRollDiceHandler(t *testing.T) {
	t.Run("rolls and logs notation", func(t *testing.T) {
		svc := newTestJournal(t)
		handler := RollDiceHandler(&sequenceSource{values: []int{3, 4, 5}}, dice.DefaultLimits, svc)

		_, result, err := handler(context.Background(), nil, RollDiceInput{DiceNotation: " 3d6+2 ", Label: "damage"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := RollDiceResult{Notation: "3d6+2", Rolls: []int{4, 5, 6}, Modifier: 2, Total: 17}
		if !reflect.DeepEqual(result, want) {
			t.Fatalf("result = %+v, want %+v", result, want)
		}

		page, err := svc.ListRolls(context.Background(), storage.RollQuery{})
		if err != nil {
			t.Fatalf("list rolls: %v", err)
		}
		if len(page.Records) != 1 {
			t.Fatalf("logged %d rolls, want 1", len(page.Records))
		}
		record := page.Records[0]
		if record.Tool != RollDiceToolName || record.Label != "damage" || record.Total != 17 {
			t.Fatalf("record = %+v", record)
		}
	})

	t.Run("invalid notation", func(t *testing.T) {
		handler := RollDiceHandler(&sequenceSource{values: []int{0}}, dice.DefaultLimits, nil)
		_, _, err := handler(context.Background(), nil, RollDiceInput{DiceNotation: "bad-input"})
		if !errors.Is(err, dice.ErrInvalidNotation) {
			t.Fatalf("error = %v, want %v", err, dice.ErrInvalidNotation)
		}
		if code := ErrorCode(err); code != apperrors.CodeDiceInvalidNotation {
			t.Fatalf("code = %q", code)
		}
		if msg := LocalizeError(err, "en-US").Error(); !strings.Contains(msg, "bad-input") {
			t.Fatalf("message = %q, want it to reference the input", msg)
		}
		if msg := LocalizeError(err, "pt-BR").Error(); !strings.HasPrefix(msg, "Notação de dados inválida: bad-input") {
			t.Fatalf("pt-BR message = %q", msg)
		}
	})

	t.Run("over the limits", func(t *testing.T) {
		handler := RollDiceHandler(&sequenceSource{values: []int{0}}, dice.DefaultLimits, nil)
		_, _, err := handler(context.Background(), nil, RollDiceInput{DiceNotation: "1000d6"})
		if code := ErrorCode(err); code != apperrors.CodeDiceLimitExceeded {
			t.Fatalf("code = %q (err %v)", code, err)
		}
		if msg := LocalizeError(err, "en-US").Error(); !strings.Contains(msg, "1000d6") {
			t.Fatalf("message = %q", msg)
		}
	})
}

func TestRollHandler(t *testing.T) {
	handler := RollHandler(&sequenceSource{values: []int{9}}, dice.DefaultLimits, nil)
	_, result, err := handler(context.Background(), nil, RollInput{DiceNotation: "D20"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := RollResult{Expression: "1d20", IndividualRolls: []int{10}, Subtotal: 10, Modifier: 0, Total: 10}
	if !reflect.DeepEqual(result, want) {
		t.Fatalf("result = %+v, want %+v", result, want)
	}
}

func TestRollInitiativeHandler(t *testing.T) {
	t.Run("orders by total and logs each roll", func(t *testing.T) {
		svc := newTestJournal(t)
		handler := RollInitiativeHandler(&sequenceSource{values: []int{4, 15, 9}}, svc)

		_, result, err := handler(context.Background(), nil, RollInitiativeInput{Participants: []InitiativeParticipant{
			{Name: "Goblin", Modifier: 2},
			{Name: "Wizard", Modifier: 3},
			{},
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []InitiativeEntry{
			{Name: "Wizard", Roll: 16, Modifier: 3, Total: 19},
			{Name: "Unknown", Roll: 10, Modifier: 0, Total: 10},
			{Name: "Goblin", Roll: 5, Modifier: 2, Total: 7},
		}
		if !reflect.DeepEqual(result.InitiativeOrder, want) {
			t.Fatalf("order = %+v, want %+v", result.InitiativeOrder, want)
		}

		page, err := svc.ListRolls(context.Background(), storage.RollQuery{Filter: `tool = "roll_initiative"`})
		if err != nil {
			t.Fatalf("list rolls: %v", err)
		}
		if len(page.Records) != 3 {
			t.Fatalf("logged %d rolls, want 3", len(page.Records))
		}
	})

	t.Run("no participants", func(t *testing.T) {
		handler := RollInitiativeHandler(&sequenceSource{values: []int{0}}, nil)
		_, _, err := handler(context.Background(), nil, RollInitiativeInput{})
		if code := ErrorCode(err); code != apperrors.CodeInitiativeNoParticipants {
			t.Fatalf("code = %q", code)
		}
	})
}

func TestTableHandlers(t *testing.T) {
	t.Run("roll on table", func(t *testing.T) {
		_, result, err := RollOnTableHandler(&sequenceSource{values: []int{0}})(context.Background(), nil, RollOnTableInput{TableName: tables.TavernName})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Roll != 1 || result.Result != "The Prancing Pony" {
			t.Fatalf("result = %+v", result)
		}
	})

	t.Run("unknown table", func(t *testing.T) {
		_, _, err := RollOnTableHandler(&sequenceSource{values: []int{0}})(context.Background(), nil, RollOnTableInput{TableName: "dragons"})
		msg := LocalizeError(err, "en-US").Error()
		want := "Table not found: dragons. Available tables: magic_item_quirk, quest_hook, random_encounter, tavern_name"
		if msg != want {
			t.Fatalf("message = %q, want %q", msg, want)
		}
	})

	t.Run("npc keeps requested race", func(t *testing.T) {
		_, result, err := GenerateNPCHandler(&sequenceSource{values: []int{0}})(context.Background(), nil, GenerateNPCInput{Race: "elf"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Race != "Elf" || result.Name != "Legolas Greenleaf" {
			t.Fatalf("result = %+v", result)
		}
		if result.Strength < 8 || result.Strength > 16 {
			t.Fatalf("strength = %d", result.Strength)
		}
	})

	t.Run("loot defaults to medium", func(t *testing.T) {
		_, result, err := GenerateLootHandler(&sequenceSource{values: []int{0}})(context.Background(), nil, GenerateLootInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TreasureLevel != "medium" || result.Gold != 50 || len(result.Items) != 1 {
			t.Fatalf("result = %+v", result)
		}
	})

	t.Run("invalid treasure level", func(t *testing.T) {
		_, _, err := GenerateLootHandler(&sequenceSource{values: []int{0}})(context.Background(), nil, GenerateLootInput{TreasureLevel: "mythic"})
		msg := LocalizeError(err, "en-US").Error()
		if !strings.HasPrefix(msg, "Invalid treasure level mythic.") {
			t.Fatalf("message = %q", msg)
		}
	})

	t.Run("hello world", func(t *testing.T) {
		_, result, err := GenerateHelloWorldHandler(&sequenceSource{values: []int{2, 1}})(context.Background(), nil, GenerateHelloWorldInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Phrase != "Greetings, planet!" || result.HelloComponent != "Greetings" || result.WorldComponent != "planet" {
			t.Fatalf("result = %+v", result)
		}
	})
}

func TestNoteHandlers(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()

	var notified []string
	notify := func(_ context.Context, uri string) { notified = append(notified, uri) }

	_, created, err := CreateNoteHandler(svc, notify)(ctx, nil, CreateNoteInput{
		Title:   "Goblin Ambush",
		Content: "Six goblins wait on the ridge.",
		Tags:    []string{"combat", "session-1"},
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	if created.Status != "success" || created.File != "20260301_184501_goblin_ambush.md" {
		t.Fatalf("created = %+v", created)
	}
	if !reflect.DeepEqual(notified, []string{NotesResourceURI}) {
		t.Fatalf("notified = %v", notified)
	}

	if _, _, err := CreateNoteHandler(svc, nil)(ctx, nil, CreateNoteInput{Title: "Tavern Rumors", Content: "The miller saw lights."}); err != nil {
		t.Fatalf("create second note: %v", err)
	}

	_, listed, err := ListNotesHandler(svc)(ctx, nil, ListNotesInput{Tag: "combat"})
	if err != nil {
		t.Fatalf("list notes: %v", err)
	}
	if len(listed.Notes) != 1 || listed.Notes[0].ID != created.ID {
		t.Fatalf("listed = %+v", listed)
	}

	_, all, err := ListNotesHandler(svc)(ctx, nil, ListNotesInput{})
	if err != nil {
		t.Fatalf("list all notes: %v", err)
	}
	if len(all.Notes) != 2 || all.Notes[0].Title != "Tavern Rumors" {
		t.Fatalf("all = %+v", all)
	}
	if all.Notes[0].Tags == nil {
		t.Fatal("expected empty tags slice, got nil")
	}

	_, read, err := ReadNoteHandler(svc)(ctx, nil, ReadNoteInput{TitleOrFilename: "Ambush"})
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	if read.Content != "Six goblins wait on the ridge." {
		t.Fatalf("read = %+v", read)
	}
	if !strings.HasPrefix(read.Markdown, "---\n") || !strings.HasSuffix(read.Markdown, "\n\nSix goblins wait on the ridge.\n") {
		t.Fatalf("markdown = %q", read.Markdown)
	}

	_, _, err = ReadNoteHandler(svc)(ctx, nil, ReadNoteInput{TitleOrFilename: "dragon"})
	if msg := LocalizeError(err, "en-US").Error(); msg != "Note not found: dragon" {
		t.Fatalf("message = %q", msg)
	}

	_, _, err = ListNotesHandler(svc)(ctx, nil, ListNotesInput{Filter: "title = "})
	if code := ErrorCode(err); code != apperrors.CodeInvalidFilter {
		t.Fatalf("code = %q (err %v)", code, err)
	}

	_, _, err = CreateNoteHandler(svc, nil)(ctx, nil, CreateNoteInput{Title: "   "})
	if code := ErrorCode(err); code != apperrors.CodeInvalidArgument {
		t.Fatalf("code = %q (err %v)", code, err)
	}
}

func TestCharacterHandlers(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()
	add := AddCharacterHandler(svc, nil)

	_, first, err := add(ctx, nil, AddCharacterInput{Name: "Aria", CharacterData: map[string]any{"class": "Ranger", "level": float64(3)}})
	if err != nil {
		t.Fatalf("add character: %v", err)
	}
	if first.Action != "added" {
		t.Fatalf("first action = %q", first.Action)
	}
	_, second, err := add(ctx, nil, AddCharacterInput{Name: "Aria", CharacterData: map[string]any{"class": "Ranger", "level": float64(4), "race": "Elf"}})
	if err != nil {
		t.Fatalf("update character: %v", err)
	}
	if second.Action != "updated" {
		t.Fatalf("second action = %q", second.Action)
	}

	_, got, err := GetCharacterHandler(svc)(ctx, nil, GetCharacterInput{Name: "aria"})
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if got.Attributes["race"] != "Elf" || got.Created == "" || got.LastUpdated == "" {
		t.Fatalf("got = %+v", got)
	}

	_, listed, err := ListCharactersHandler(svc)(ctx, nil, ListCharactersInput{})
	if err != nil {
		t.Fatalf("list characters: %v", err)
	}
	want := []CharacterSummary{{Name: "Aria", Class: "Ranger", Level: 4, Race: "Elf"}}
	if !reflect.DeepEqual(listed.Characters, want) {
		t.Fatalf("listed = %+v, want %+v", listed.Characters, want)
	}

	_, _, err = GetCharacterHandler(svc)(ctx, nil, GetCharacterInput{Name: "Borin"})
	if msg := LocalizeError(err, "pt-BR").Error(); msg != "Character não encontrado: Borin" {
		t.Fatalf("message = %q", msg)
	}
}

func TestEncounterHandlers(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()
	create := CreateEncounterHandler(svc, nil)

	monsters := []map[string]any{{"name": "Skeleton", "hp": float64(13)}, {"name": "Zombie"}}
	_, created, err := create(ctx, nil, CreateEncounterInput{Name: "Crypt", Monsters: monsters, Description: "Damp and dark."})
	if err != nil {
		t.Fatalf("create encounter: %v", err)
	}
	if created.MonsterCount != 2 {
		t.Fatalf("created = %+v", created)
	}

	_, _, err = create(ctx, nil, CreateEncounterInput{Name: "crypt", Monsters: monsters})
	if msg := LocalizeError(err, "en-US").Error(); msg != "Encounter already exists: crypt" {
		t.Fatalf("message = %q", msg)
	}

	_, got, err := GetEncounterHandler(svc)(ctx, nil, GetEncounterInput{Name: "Crypt"})
	if err != nil {
		t.Fatalf("get encounter: %v", err)
	}
	if got.Description != "Damp and dark." || len(got.Monsters) != 2 || got.Monsters[0]["name"] != "Skeleton" {
		t.Fatalf("got = %+v", got)
	}

	_, listed, err := ListEncountersHandler(svc)(ctx, nil, ListEncountersInput{})
	if err != nil {
		t.Fatalf("list encounters: %v", err)
	}
	if len(listed.Encounters) != 1 || listed.Encounters[0].MonsterCount != 2 {
		t.Fatalf("listed = %+v", listed)
	}
}

func TestListRollsHandler(t *testing.T) {
	svc := newTestJournal(t)
	ctx := context.Background()
	for _, total := range []int{4, 12, 19} {
		result := dice.Result{Notation: "1d20", Rolls: []int{total}, Subtotal: total, Total: total}
		if _, err := svc.RecordRoll(ctx, RollDiceToolName, "", result); err != nil {
			t.Fatalf("record roll: %v", err)
		}
	}

	handler := ListRollsHandler(svc)
	_, page, err := handler(ctx, nil, ListRollsInput{PageSize: 1, Filter: "total >= 10"})
	if err != nil {
		t.Fatalf("list rolls: %v", err)
	}
	if len(page.Rolls) != 1 || page.Rolls[0].Total != 19 || page.NextPageToken == "" {
		t.Fatalf("first page = %+v", page)
	}

	_, next, err := handler(ctx, nil, ListRollsInput{PageSize: 1, Filter: "total >= 10", PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(next.Rolls) != 1 || next.Rolls[0].Total != 12 || next.NextPageToken != "" {
		t.Fatalf("next page = %+v", next)
	}

	_, _, err = handler(ctx, nil, ListRollsInput{Filter: "unknown_field = 1"})
	if code := ErrorCode(err); code != apperrors.CodeInvalidFilter {
		t.Fatalf("code = %q (err %v)", code, err)
	}
}

func TestFetchPageHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<html><head><title>Bestiary</title></head><body><p>Owlbear</p><a href="/owlbear">Read more</a></body></html>`))
	}))
	t.Cleanup(srv.Close)

	handler := FetchPageHandler(webpage.NewFetcher(time.Second))

	_, result, err := handler(context.Background(), nil, FetchPageInput{URL: srv.URL})
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if result.Title != "Bestiary" || result.Text != "Owlbear Read more" {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Links) != 1 || result.Links[0].Href != srv.URL+"/owlbear" {
		t.Fatalf("links = %+v", result.Links)
	}

	_, _, err = handler(context.Background(), nil, FetchPageInput{URL: srv.URL + "/missing"})
	if msg := LocalizeError(err, "en-US").Error(); msg != "Failed to load page "+srv.URL+"/missing" {
		t.Fatalf("message = %q", msg)
	}

	_, _, err = handler(context.Background(), nil, FetchPageInput{URL: "ftp://example.com"})
	if code := ErrorCode(err); code != apperrors.CodeInvalidArgument {
		t.Fatalf("code = %q", code)
	}
}

func TestResourceHandlers(t *testing.T) {
	t.Run("tables", func(t *testing.T) {
		result, err := TablesResourceHandler()(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: TablesResourceURI}})
		if err != nil {
			t.Fatalf("read tables: %v", err)
		}
		var payload TablesPayload
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &payload); err != nil {
			t.Fatalf("decode tables: %v", err)
		}
		if len(payload.Tables) != 4 || payload.Tables[0].Name != tables.MagicItemQuirk || payload.Tables[0].Entries != 12 {
			t.Fatalf("payload = %+v", payload)
		}
	})

	t.Run("table template", func(t *testing.T) {
		uri := TablesResourceURI + "/" + tables.TavernName
		result, err := TableResourceHandler()(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
		if err != nil {
			t.Fatalf("read table: %v", err)
		}
		var detail TableDetail
		if err := json.Unmarshal([]byte(result.Contents[0].Text), &detail); err != nil {
			t.Fatalf("decode table: %v", err)
		}
		if detail.Name != tables.TavernName || len(detail.Entries) == 0 || detail.Entries[0] != "The Prancing Pony" {
			t.Fatalf("detail = %+v", detail)
		}

		_, err = TableResourceHandler()(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: TablesResourceURI + "/dragons"}})
		if err == nil {
			t.Fatal("expected not found for unknown table")
		}
	})

	t.Run("table completion", func(t *testing.T) {
		if got := CompleteTableNames("Q"); !reflect.DeepEqual(got, []string{tables.QuestHook}) {
			t.Fatalf("completion = %v", got)
		}
		if got := CompleteTableNames("zzz"); got == nil || len(got) != 0 {
			t.Fatalf("completion = %#v", got)
		}
	})

	t.Run("rolls", func(t *testing.T) {
		svc := newTestJournal(t)
		result := dice.Result{Notation: "2d6", Rolls: []int{3, 4}, Subtotal: 7, Total: 7}
		if _, err := svc.RecordRoll(context.Background(), RollToolName, "", result); err != nil {
			t.Fatalf("record roll: %v", err)
		}
		read, err := RollsResourceHandler(svc)(context.Background(), nil)
		if err != nil {
			t.Fatalf("read rolls: %v", err)
		}
		if read.Contents[0].URI != RollsResourceURI || !strings.Contains(read.Contents[0].Text, `"notation": "2d6"`) {
			t.Fatalf("contents = %+v", read.Contents[0])
		}
	})
}

func TestLocalizeErrorPassesThroughContextErrors(t *testing.T) {
	if err := LocalizeError(context.Canceled, "en-US"); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v", err)
	}
	if err := LocalizeError(nil, "en-US"); err != nil {
		t.Fatalf("error = %v, want nil", err)
	}
	wrapped := LocalizeError(errors.New("disk full"), "en-US")
	if wrapped.Error() != "disk full" || ErrorCode(wrapped) != apperrors.CodeUnknown {
		t.Fatalf("wrapped = %v (%q)", wrapped, ErrorCode(wrapped))
	}
}
