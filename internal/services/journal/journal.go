// Package journal records game preparation material: notes, characters,
// encounters, and a log of every roll made through the server.
package journal

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/dungeonkit/internal/dice"
	"github.com/louisbranch/dungeonkit/internal/platform/id"
	"github.com/louisbranch/dungeonkit/internal/platform/pagination"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
)

// ErrInvalidArgument indicates a missing or malformed journal input.
var ErrInvalidArgument = errors.New("invalid argument")

// Unknown is the placeholder for character summary fields that are not set.
const Unknown = "Unknown"

var rollPageSize = pagination.PageSizeConfig{Default: 20, Max: 100}

// maxSlugAttempts bounds the numbered copies tried for one note file name.
const maxSlugAttempts = 100

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugCollapse = regexp.MustCompile(`[\s-]+`)
)

// Service applies journal rules on top of a store.
type Service struct {
	store     storage.Store
	now       func() time.Time
	newID     func() (string, error)
	observers []func(storage.RollRecord)
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides record ID generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithRollObserver registers fn to receive every roll after it is logged.
func WithRollObserver(fn func(storage.RollRecord)) Option {
	return func(s *Service) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// NewService builds a journal service.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{store: store, now: time.Now, newID: id.NewID}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateNote stores a note. Its slug is the creation time followed by the
// normalized title, as in "20260301_184500_goblin_ambush.md"; a repeat within
// the same second becomes "20260301_184500_goblin_ambush_2.md".
func (s *Service) CreateNote(ctx context.Context, title, content string, tags []string) (storage.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return storage.Note{}, fmt.Errorf("%w: title is required", ErrInvalidArgument)
	}
	noteID, err := s.newID()
	if err != nil {
		return storage.Note{}, fmt.Errorf("generate note id: %w", err)
	}
	createdAt := s.now().UTC()
	base := NoteSlug(title, createdAt)
	note := storage.Note{
		ID:        noteID,
		Slug:      base,
		Title:     title,
		Content:   content,
		Tags:      NormalizeTags(tags),
		CreatedAt: createdAt,
	}
	// Same title in the same second: number the file like a second copy.
	for attempt := 2; ; attempt++ {
		err := s.store.CreateNote(ctx, note)
		if err == nil {
			return note, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) || attempt > maxSlugAttempts {
			return storage.Note{}, err
		}
		note.Slug = numberedSlug(base, attempt)
	}
}

// ListNotes lists notes newest first, optionally by tag and filter.
func (s *Service) ListNotes(ctx context.Context, tag, filter string) ([]storage.Note, error) {
	return s.store.ListNotes(ctx, storage.NoteQuery{Tag: strings.TrimSpace(tag), Filter: filter})
}

// ReadNote resolves a note by ID, slug, or title fragment.
func (s *Service) ReadNote(ctx context.Context, ref string) (storage.Note, error) {
	if strings.TrimSpace(ref) == "" {
		return storage.Note{}, fmt.Errorf("%w: note reference is required", ErrInvalidArgument)
	}
	return s.store.FindNote(ctx, ref)
}

// AddCharacter creates or replaces a character and reports whether it was
// newly created. A "name" key inside attributes is ignored.
func (s *Service) AddCharacter(ctx context.Context, name string, attributes map[string]any) (storage.Character, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Character{}, false, fmt.Errorf("%w: character name is required", ErrInvalidArgument)
	}
	clean := make(map[string]any, len(attributes))
	for key, value := range attributes {
		if strings.EqualFold(key, "name") {
			continue
		}
		clean[key] = value
	}
	character := storage.Character{Name: name, Attributes: clean, UpdatedAt: s.now().UTC()}
	created, err := s.store.PutCharacter(ctx, character)
	if err != nil {
		return storage.Character{}, false, err
	}
	return character, created, nil
}

// GetCharacter returns one character by name.
func (s *Service) GetCharacter(ctx context.Context, name string) (storage.Character, error) {
	if strings.TrimSpace(name) == "" {
		return storage.Character{}, fmt.Errorf("%w: character name is required", ErrInvalidArgument)
	}
	return s.store.GetCharacter(ctx, name)
}

// CharacterSummary is the short form used when listing characters.
type CharacterSummary struct {
	Name  string
	Class string
	Level int
	Race  string
}

// ListCharacters summarizes every character.
func (s *Service) ListCharacters(ctx context.Context) ([]CharacterSummary, error) {
	characters, err := s.store.ListCharacters(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]CharacterSummary, 0, len(characters))
	for _, character := range characters {
		summaries = append(summaries, Summarize(character))
	}
	return summaries, nil
}

// Summarize extracts class, level, and race from character attributes.
func Summarize(character storage.Character) CharacterSummary {
	summary := CharacterSummary{Name: character.Name, Class: Unknown, Level: 1, Race: Unknown}
	if class, ok := character.Attributes["class"].(string); ok && class != "" {
		summary.Class = class
	}
	if race, ok := character.Attributes["race"].(string); ok && race != "" {
		summary.Race = race
	}
	switch level := character.Attributes["level"].(type) {
	case float64:
		summary.Level = int(level)
	case int:
		summary.Level = level
	}
	return summary
}

// CreateEncounter stores a named group of monsters.
func (s *Service) CreateEncounter(ctx context.Context, name, description string, monsters []map[string]any) (storage.Encounter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Encounter{}, fmt.Errorf("%w: encounter name is required", ErrInvalidArgument)
	}
	encounterID, err := s.newID()
	if err != nil {
		return storage.Encounter{}, fmt.Errorf("generate encounter id: %w", err)
	}
	if monsters == nil {
		monsters = []map[string]any{}
	}
	encounter := storage.Encounter{
		ID:          encounterID,
		Name:        name,
		Description: strings.TrimSpace(description),
		Monsters:    monsters,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateEncounter(ctx, encounter); err != nil {
		return storage.Encounter{}, err
	}
	return encounter, nil
}

// GetEncounter resolves an encounter by ID or name.
func (s *Service) GetEncounter(ctx context.Context, ref string) (storage.Encounter, error) {
	if strings.TrimSpace(ref) == "" {
		return storage.Encounter{}, fmt.Errorf("%w: encounter name is required", ErrInvalidArgument)
	}
	return s.store.GetEncounter(ctx, ref)
}

// ListEncounters lists encounters newest first.
func (s *Service) ListEncounters(ctx context.Context) ([]storage.Encounter, error) {
	return s.store.ListEncounters(ctx)
}

// RecordRoll appends a dice result to the roll log.
func (s *Service) RecordRoll(ctx context.Context, tool, label string, result dice.Result) (storage.RollRecord, error) {
	rollID, err := s.newID()
	if err != nil {
		return storage.RollRecord{}, fmt.Errorf("generate roll id: %w", err)
	}
	record := storage.RollRecord{
		ID:        rollID,
		Tool:      tool,
		Notation:  result.Notation,
		Label:     strings.TrimSpace(label),
		Rolls:     append([]int(nil), result.Rolls...),
		Modifier:  result.Modifier,
		Total:     result.Total,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.AppendRoll(ctx, record); err != nil {
		return storage.RollRecord{}, err
	}
	for _, observe := range s.observers {
		observe(record)
	}
	return record, nil
}

// ListRolls returns one page of the roll log with a clamped page size.
func (s *Service) ListRolls(ctx context.Context, query storage.RollQuery) (storage.RollPage, error) {
	query.PageSize = pagination.ClampPageSize(query.PageSize, rollPageSize)
	return s.store.ListRolls(ctx, query)
}

// NoteSlug builds the file-style name of a note.
func NoteSlug(title string, createdAt time.Time) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "")
	slug = strings.Trim(slugCollapse.ReplaceAllString(slug, "_"), "_")
	if slug == "" {
		slug = "note"
	}
	return createdAt.Format("20060102_150405") + "_" + slug + ".md"
}

// numberedSlug turns "x.md" into "x_2.md".
func numberedSlug(slug string, n int) string {
	return strings.TrimSuffix(slug, ".md") + "_" + strconv.Itoa(n) + ".md"
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
