package domain

import (
	"context"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Journal resource URIs. Subscribers are notified when a tool changes them.
const (
	NotesResourceURI      = "dungeonkit://notes"
	CharactersResourceURI = "dungeonkit://characters"
	EncountersResourceURI = "dungeonkit://encounters"
	RollsResourceURI      = "dungeonkit://rolls"
)

// recentRollsPageSize is how many rolls the rolls resource shows.
const recentRollsPageSize = 20

// ResourceUpdateNotifier tells subscribed clients that a resource changed.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

func notifyResource(ctx context.Context, notify ResourceUpdateNotifier, uri string) {
	if notify == nil || strings.TrimSpace(uri) == "" {
		return
	}
	notify(ctx, uri)
}

// NotesResource defines the MCP resource listing notes.
func NotesResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         NotesResourceURI,
		Name:        "notes",
		Title:       "Notes",
		Description: "Every note, newest first",
		MIMEType:    "application/json",
	}
}

// CharactersResource defines the MCP resource listing characters.
func CharactersResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         CharactersResourceURI,
		Name:        "characters",
		Title:       "Characters",
		Description: "Character summaries by name",
		MIMEType:    "application/json",
	}
}

// EncountersResource defines the MCP resource listing encounters.
func EncountersResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         EncountersResourceURI,
		Name:        "encounters",
		Title:       "Encounters",
		Description: "Encounter summaries, newest first",
		MIMEType:    "application/json",
	}
}

// RollsResource defines the MCP resource listing recent rolls.
func RollsResource() *mcp.Resource {
	return &mcp.Resource{
		URI:         RollsResourceURI,
		Name:        "rolls",
		Title:       "Recent rolls",
		Description: "The most recent logged rolls, newest first",
		MIMEType:    "application/json",
	}
}

// NotesResourceHandler returns the note listing.
func NotesResourceHandler(notes NoteJournal) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_, result, err := ListNotesHandler(notes)(ctx, nil, ListNotesInput{})
		if err != nil {
			return nil, err
		}
		return jsonResource(resourceURI(req, NotesResourceURI), result)
	}
}

// CharactersResourceHandler returns the character listing.
func CharactersResourceHandler(characters CharacterJournal) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_, result, err := ListCharactersHandler(characters)(ctx, nil, ListCharactersInput{})
		if err != nil {
			return nil, err
		}
		return jsonResource(resourceURI(req, CharactersResourceURI), result)
	}
}

// EncountersResourceHandler returns the encounter listing.
func EncountersResourceHandler(encounters EncounterJournal) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_, result, err := ListEncountersHandler(encounters)(ctx, nil, ListEncountersInput{})
		if err != nil {
			return nil, err
		}
		return jsonResource(resourceURI(req, EncountersResourceURI), result)
	}
}

// RollsResourceHandler returns the most recent rolls.
func RollsResourceHandler(rolls RollLog) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		page, err := rolls.ListRolls(runCtx, storage.RollQuery{PageSize: recentRollsPageSize})
		if err != nil {
			return nil, err
		}
		return jsonResource(resourceURI(req, RollsResourceURI), ListRollsResult{Rolls: loggedRolls(page.Records)})
	}
}
