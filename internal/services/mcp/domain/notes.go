package domain

import (
	"context"
	"time"

	"github.com/louisbranch/dungeonkit/internal/platform/timeouts"
	"github.com/louisbranch/dungeonkit/internal/services/journal/notefile"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NoteJournal stores and finds notes.
type NoteJournal interface {
	CreateNote(ctx context.Context, title, content string, tags []string) (storage.Note, error)
	ListNotes(ctx context.Context, tag, filter string) ([]storage.Note, error)
	ReadNote(ctx context.Context, ref string) (storage.Note, error)
}

// CreateNoteInput represents the MCP tool input for note creation.
type CreateNoteInput struct {
	Title   string   `json:"title" jsonschema:"note title"`
	Content string   `json:"content" jsonschema:"note body in markdown"`
	Tags    []string `json:"tags,omitempty" jsonschema:"optional tags for grouping notes"`
}

// CreateNoteResult represents the MCP tool output for note creation.
type CreateNoteResult struct {
	Status  string   `json:"status" jsonschema:"success when the note was stored"`
	ID      string   `json:"id" jsonschema:"note identifier"`
	Title   string   `json:"title" jsonschema:"note title"`
	File    string   `json:"file" jsonschema:"file-style note name derived from time and title"`
	Tags    []string `json:"tags" jsonschema:"normalized tags"`
	Created string   `json:"created" jsonschema:"RFC 3339 creation time"`
}

// ListNotesInput represents the MCP tool input for listing notes.
type ListNotesInput struct {
	Tag    string `json:"tag,omitempty" jsonschema:"optional tag to filter by"`
	Filter string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over title, slug, tag and created_at"`
}

// NoteSummary represents a note in a listing.
type NoteSummary struct {
	ID      string   `json:"id" jsonschema:"note identifier"`
	Title   string   `json:"title" jsonschema:"note title"`
	File    string   `json:"file" jsonschema:"file-style note name"`
	Tags    []string `json:"tags" jsonschema:"note tags"`
	Created string   `json:"created" jsonschema:"RFC 3339 creation time"`
}

// ListNotesResult represents the MCP tool output for listing notes.
type ListNotesResult struct {
	Notes []NoteSummary `json:"notes" jsonschema:"notes, newest first"`
}

// ReadNoteInput represents the MCP tool input for reading a note.
type ReadNoteInput struct {
	TitleOrFilename string `json:"title_or_filename" jsonschema:"note id, file name, or part of the title"`
}

// ReadNoteResult represents the MCP tool output for reading a note.
type ReadNoteResult struct {
	ID       string   `json:"id" jsonschema:"note identifier"`
	Title    string   `json:"title" jsonschema:"note title"`
	File     string   `json:"file" jsonschema:"file-style note name"`
	Tags     []string `json:"tags" jsonschema:"note tags"`
	Created  string   `json:"created" jsonschema:"RFC 3339 creation time"`
	Content  string   `json:"content" jsonschema:"note body"`
	Markdown string   `json:"markdown" jsonschema:"the note as a Markdown file with YAML front matter"`
}

// CreateNoteTool defines the MCP tool schema for note creation.
func CreateNoteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_note",
		Description: "Creates a note with a title, content and optional tags",
	}
}

// ListNotesTool defines the MCP tool schema for listing notes.
func ListNotesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_notes",
		Description: "Lists notes, optionally by tag or filter expression",
	}
}

// ReadNoteTool defines the MCP tool schema for reading a note.
func ReadNoteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "read_note",
		Description: "Reads a note by id, file name or title",
	}
}

// CreateNoteHandler stores a note.
func CreateNoteHandler(notes NoteJournal, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CreateNoteInput, CreateNoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateNoteInput) (*mcp.CallToolResult, CreateNoteResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		note, err := notes.CreateNote(runCtx, input.Title, input.Content, input.Tags)
		if err != nil {
			return nil, CreateNoteResult{}, lookupError("Note", input.Title, err)
		}
		notifyResource(ctx, notify, NotesResourceURI)

		return nil, CreateNoteResult{
			Status:  "success",
			ID:      note.ID,
			Title:   note.Title,
			File:    note.Slug,
			Tags:    nonNilStrings(note.Tags),
			Created: formatTime(note.CreatedAt),
		}, nil
	}
}

// ListNotesHandler lists notes.
func ListNotesHandler(notes NoteJournal) mcp.ToolHandlerFor[ListNotesInput, ListNotesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListNotesInput) (*mcp.CallToolResult, ListNotesResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		listed, err := notes.ListNotes(runCtx, input.Tag, input.Filter)
		if err != nil {
			return nil, ListNotesResult{}, err
		}
		result := ListNotesResult{Notes: make([]NoteSummary, 0, len(listed))}
		for _, note := range listed {
			result.Notes = append(result.Notes, NoteSummary{
				ID:      note.ID,
				Title:   note.Title,
				File:    note.Slug,
				Tags:    nonNilStrings(note.Tags),
				Created: formatTime(note.CreatedAt),
			})
		}
		return nil, result, nil
	}
}

// ReadNoteHandler resolves and returns one note.
func ReadNoteHandler(notes NoteJournal) mcp.ToolHandlerFor[ReadNoteInput, ReadNoteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ReadNoteInput) (*mcp.CallToolResult, ReadNoteResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.StoreCall)
		defer cancel()

		note, err := notes.ReadNote(runCtx, input.TitleOrFilename)
		if err != nil {
			return nil, ReadNoteResult{}, lookupError("Note", input.TitleOrFilename, err)
		}
		doc, err := notefile.Render(note)
		if err != nil {
			return nil, ReadNoteResult{}, err
		}
		return nil, ReadNoteResult{
			ID:       note.ID,
			Title:    note.Title,
			File:     note.Slug,
			Tags:     nonNilStrings(note.Tags),
			Created:  formatTime(note.CreatedAt),
			Content:  note.Content,
			Markdown: string(doc),
		}, nil
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
