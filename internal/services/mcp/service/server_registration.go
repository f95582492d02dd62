package service

import (
	"fmt"

	"github.com/louisbranch/dungeonkit/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpDiceToolsModuleName        = "dice-tools"
	mcpTableToolsModuleName       = "table-tools"
	mcpNoteToolsModuleName        = "note-tools"
	mcpCharacterToolsModuleName   = "character-tools"
	mcpEncounterToolsModuleName   = "encounter-tools"
	mcpRollLogToolsModuleName     = "roll-log-tools"
	mcpFetchToolsModuleName       = "fetch-tools"
	mcpTableResourceModuleName    = "table-resources"
	mcpJournalResourcesModuleName = "journal-resources"
)

// mcpServerRegistrationAdapter adds tools to an MCP server, wrapping each
// handler with tracing and error localization.
type mcpServerRegistrationAdapter struct {
	server *mcp.Server
	locale string
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler, r.locale)
}

func (r mcpServerRegistrationAdapter) AddResourceTemplate(resourceTemplate *mcp.ResourceTemplate, handler mcp.ResourceHandler) {
	r.server.AddResourceTemplate(resourceTemplate, instrumentResource(resourceTemplate.URITemplate, handler))
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, instrumentResource(resource.URI, handler))
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any, string)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any, locale string) {
			mcp.AddTool(server, tool, instrumentTool(tool.Name, locale, handler.(mcp.ToolHandlerFor[I, O])))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.RollDiceInput, domain.RollDiceResult](),
	newMCPToolRegistrar[domain.RollInput, domain.RollResult](),
	newMCPToolRegistrar[domain.RollInitiativeInput, domain.RollInitiativeResult](),
	newMCPToolRegistrar[domain.RollOnTableInput, domain.RollOnTableResult](),
	newMCPToolRegistrar[domain.GenerateNPCInput, domain.GenerateNPCResult](),
	newMCPToolRegistrar[domain.GenerateLootInput, domain.GenerateLootResult](),
	newMCPToolRegistrar[domain.GenerateHelloWorldInput, domain.GenerateHelloWorldResult](),
	newMCPToolRegistrar[domain.CreateNoteInput, domain.CreateNoteResult](),
	newMCPToolRegistrar[domain.ListNotesInput, domain.ListNotesResult](),
	newMCPToolRegistrar[domain.ReadNoteInput, domain.ReadNoteResult](),
	newMCPToolRegistrar[domain.AddCharacterInput, domain.AddCharacterResult](),
	newMCPToolRegistrar[domain.GetCharacterInput, domain.GetCharacterResult](),
	newMCPToolRegistrar[domain.ListCharactersInput, domain.ListCharactersResult](),
	newMCPToolRegistrar[domain.CreateEncounterInput, domain.CreateEncounterResult](),
	newMCPToolRegistrar[domain.ListEncountersInput, domain.ListEncountersResult](),
	newMCPToolRegistrar[domain.GetEncounterInput, domain.GetEncounterResult](),
	newMCPToolRegistrar[domain.ListRollsInput, domain.ListRollsResult](),
	newMCPToolRegistrar[domain.FetchPageInput, domain.FetchPageResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any, locale string) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler, locale)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(deps Deps, notify domain.ResourceUpdateNotifier) []mcpRegistrationModule {
	modules := []mcpRegistrationModule{
		{
			name: mcpDiceToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerDiceTools(registrar, deps.Source, deps.Limits, deps.Journal)
			},
		},
		{
			name: mcpTableToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTableTools(registrar, deps.Source)
			},
		},
		{
			name: mcpNoteToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerNoteTools(registrar, deps.Journal, notify)
			},
		},
		{
			name: mcpCharacterToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerCharacterTools(registrar, deps.Journal, notify)
			},
		},
		{
			name: mcpEncounterToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerEncounterTools(registrar, deps.Journal, notify)
			},
		},
		{
			name: mcpRollLogToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTool(registrar, domain.ListRollsTool(), domain.ListRollsHandler(deps.Journal))
			},
		},
		{
			name: mcpTableResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerTableResources(registrar)
				return nil
			},
		},
		{
			name: mcpJournalResourcesModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerJournalResources(registrar, deps.Journal)
				return nil
			},
		},
	}
	if deps.Fetcher != nil {
		modules = append(modules, mcpRegistrationModule{
			name: mcpFetchToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerTool(registrar, domain.FetchPageTool(), domain.FetchPageHandler(deps.Fetcher))
			},
		})
	}
	return modules
}
