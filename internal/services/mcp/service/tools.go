package service

import (
	"fmt"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

type toolRegistration struct {
	tool    *mcp.Tool
	handler any
}

func registerTools(registrar mcpRegistrationTarget, registrations []toolRegistration) error {
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerDiceTools(registrar mcpRegistrationTarget, source dice.Source, limits dice.Limits, recorder domain.RollRecorder) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.RollDiceTool(), handler: domain.RollDiceHandler(source, limits, recorder)},
		{tool: domain.RollTool(), handler: domain.RollHandler(source, limits, recorder)},
		{tool: domain.RollInitiativeTool(), handler: domain.RollInitiativeHandler(source, recorder)},
	})
}

func registerTableTools(registrar mcpRegistrationTarget, source dice.Source) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.RollOnTableTool(), handler: domain.RollOnTableHandler(source)},
		{tool: domain.GenerateNPCTool(), handler: domain.GenerateNPCHandler(source)},
		{tool: domain.GenerateLootTool(), handler: domain.GenerateLootHandler(source)},
		{tool: domain.GenerateHelloWorldTool(), handler: domain.GenerateHelloWorldHandler(source)},
	})
}

func registerNoteTools(registrar mcpRegistrationTarget, notes domain.NoteJournal, notify domain.ResourceUpdateNotifier) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.CreateNoteTool(), handler: domain.CreateNoteHandler(notes, notify)},
		{tool: domain.ListNotesTool(), handler: domain.ListNotesHandler(notes)},
		{tool: domain.ReadNoteTool(), handler: domain.ReadNoteHandler(notes)},
	})
}

func registerCharacterTools(registrar mcpRegistrationTarget, characters domain.CharacterJournal, notify domain.ResourceUpdateNotifier) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.AddCharacterTool(), handler: domain.AddCharacterHandler(characters, notify)},
		{tool: domain.GetCharacterTool(), handler: domain.GetCharacterHandler(characters)},
		{tool: domain.ListCharactersTool(), handler: domain.ListCharactersHandler(characters)},
	})
}

func registerEncounterTools(registrar mcpRegistrationTarget, encounters domain.EncounterJournal, notify domain.ResourceUpdateNotifier) error {
	return registerTools(registrar, []toolRegistration{
		{tool: domain.CreateEncounterTool(), handler: domain.CreateEncounterHandler(encounters, notify)},
		{tool: domain.ListEncountersTool(), handler: domain.ListEncountersHandler(encounters)},
		{tool: domain.GetEncounterTool(), handler: domain.GetEncounterHandler(encounters)},
	})
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

// registerTableResources registers the random table listing and per-table entries.
func registerTableResources(registrar mcpRegistrationTarget) {
	registrar.AddResource(domain.TablesResource(), domain.TablesResourceHandler())
	registrar.AddResourceTemplate(domain.TableResourceTemplate(), domain.TableResourceHandler())
}

// registerJournalResources registers readable journal listings.
func registerJournalResources(registrar mcpRegistrationTarget, journal Journal) {
	registrar.AddResource(domain.NotesResource(), domain.NotesResourceHandler(journal))
	registrar.AddResource(domain.CharactersResource(), domain.CharactersResourceHandler(journal))
	registrar.AddResource(domain.EncountersResource(), domain.EncountersResourceHandler(journal))
	registrar.AddResource(domain.RollsResource(), domain.RollsResourceHandler(journal))
}
