// Package storage defines persistence contracts for the game master journal:
// notes, characters, encounters, and the roll log.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested journal record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidFilter indicates a filter expression or page token that cannot
	// be applied.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Note is one markdown note with tags.
type Note struct {
	ID        string
	Slug      string
	Title     string
	Content   string
	Tags      []string
	CreatedAt time.Time
}

// NoteQuery selects notes for listing.
type NoteQuery struct {
	// Tag, when set, keeps only notes carrying the tag.
	Tag string
	// Filter is an AIP-160 expression over title, tag and created_at.
	Filter string
}

// Character stores free-form character attributes keyed by unique name.
type Character struct {
	Name       string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Encounter is a named group of monsters.
type Encounter struct {
	ID          string
	Name        string
	Description string
	Monsters    []map[string]any
	CreatedAt   time.Time
}

// RollRecord is one entry in the roll log.
type RollRecord struct {
	ID        string
	Tool      string
	Notation  string
	Label     string
	Rolls     []int
	Modifier  int
	Total     int
	CreatedAt time.Time
}

// RollQuery selects one page of the roll log, newest first.
type RollQuery struct {
	PageSize  int
	PageToken string
	// Filter is an AIP-160 expression over tool, notation, label, total and
	// created_at.
	Filter string
}

// RollPage is one page of roll records.
type RollPage struct {
	Records       []RollRecord
	NextPageToken string
}

// NoteStore persists notes.
type NoteStore interface {
	CreateNote(ctx context.Context, note Note) error
	ListNotes(ctx context.Context, query NoteQuery) ([]Note, error)
	// FindNote resolves an ID, slug, or title fragment to the newest match.
	FindNote(ctx context.Context, ref string) (Note, error)
}

// CharacterStore persists characters.
type CharacterStore interface {
	// PutCharacter inserts or replaces a character and reports whether it was
	// newly created.
	PutCharacter(ctx context.Context, character Character) (created bool, err error)
	GetCharacter(ctx context.Context, name string) (Character, error)
	ListCharacters(ctx context.Context) ([]Character, error)
}

// EncounterStore persists encounters.
type EncounterStore interface {
	CreateEncounter(ctx context.Context, encounter Encounter) error
	// GetEncounter resolves an encounter by ID or name.
	GetEncounter(ctx context.Context, ref string) (Encounter, error)
	ListEncounters(ctx context.Context) ([]Encounter, error)
}

// RollLogStore persists the roll log.
type RollLogStore interface {
	AppendRoll(ctx context.Context, record RollRecord) error
	ListRolls(ctx context.Context, query RollQuery) (RollPage, error)
}

// Store groups every journal store.
type Store interface {
	NoteStore
	CharacterStore
	EncounterStore
	RollLogStore
}
