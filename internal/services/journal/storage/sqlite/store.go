// Package sqlite provides a SQLite-backed journal storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/dungeonkit/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dungeonkit/internal/services/journal/filter"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage"
	"github.com/louisbranch/dungeonkit/internal/services/journal/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists journal state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite journal store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateNote inserts one note with its tags.
func (s *Store) CreateNote(ctx context.Context, note storage.Note) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(note.ID) == "" {
		return fmt.Errorf("note id is required")
	}
	if strings.TrimSpace(note.Slug) == "" {
		return fmt.Errorf("note slug is required")
	}
	if strings.TrimSpace(note.Title) == "" {
		return fmt.Errorf("note title is required")
	}
	createdAt := note.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO notes (id, slug, title, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		note.ID,
		note.Slug,
		note.Title,
		note.Content,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create note: %w", err)
	}
	for _, tag := range note.Tags {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)`,
			note.ID,
			tag,
		); err != nil {
			return fmt.Errorf("create note tag: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit note: %w", err)
	}
	return nil
}

// ListNotes returns notes newest first.
func (s *Store) ListNotes(ctx context.Context, query storage.NoteQuery) ([]storage.Note, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	cond, err := filter.NoteSchema.Parse(query.Filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	var (
		clauses []string
		params  []any
	)
	if tag := strings.TrimSpace(query.Tag); tag != "" {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM note_tags nt WHERE nt.note_id = notes.id AND nt.tag = ?)")
		params = append(params, tag)
	}
	if !cond.Empty() {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}

	statement := `SELECT id, slug, title, content, created_at FROM notes`
	if len(clauses) > 0 {
		statement += " WHERE " + strings.Join(clauses, " AND ")
	}
	statement += " ORDER BY created_at DESC, id DESC"

	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if err := s.attachTags(ctx, notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// FindNote resolves ref as an ID, then a slug with or without the .md
// extension, then a case-insensitive title fragment. The newest note wins.
func (s *Store) FindNote(ctx context.Context, ref string) (storage.Note, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Note{}, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return storage.Note{}, fmt.Errorf("note reference is required")
	}

	lookups := []struct {
		where  string
		params []any
	}{
		{where: "id = ?", params: []any{ref}},
		{where: "slug = ? OR slug = ?", params: []any{ref, ref + ".md"}},
		{where: "title LIKE ? ESCAPE '\\'", params: []any{"%" + escapeLike(ref) + "%"}},
	}
	for _, lookup := range lookups {
		rows, err := s.sqlDB.QueryContext(
			ctx,
			`SELECT id, slug, title, content, created_at FROM notes WHERE `+lookup.where+
				` ORDER BY created_at DESC, id DESC LIMIT 1`,
			lookup.params...,
		)
		if err != nil {
			return storage.Note{}, fmt.Errorf("find note: %w", err)
		}
		notes, err := scanNotes(rows)
		if err != nil {
			return storage.Note{}, fmt.Errorf("find note: %w", err)
		}
		if len(notes) == 0 {
			continue
		}
		if err := s.attachTags(ctx, notes); err != nil {
			return storage.Note{}, err
		}
		return notes[0], nil
	}
	return storage.Note{}, storage.ErrNotFound
}

func scanNotes(rows *sql.Rows) ([]storage.Note, error) {
	defer rows.Close()

	notes := []storage.Note{}
	for rows.Next() {
		var note storage.Note
		var createdAt int64
		if err := rows.Scan(&note.ID, &note.Slug, &note.Title, &note.Content, &createdAt); err != nil {
			return nil, err
		}
		note.CreatedAt = fromMillis(createdAt)
		note.Tags = []string{}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (s *Store) attachTags(ctx context.Context, notes []storage.Note) error {
	if len(notes) == 0 {
		return nil
	}
	index := make(map[string]int, len(notes))
	placeholders := make([]string, 0, len(notes))
	params := make([]any, 0, len(notes))
	for i, note := range notes {
		index[note.ID] = i
		placeholders = append(placeholders, "?")
		params = append(params, note.ID)
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT note_id, tag FROM note_tags WHERE note_id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY tag ASC`,
		params...,
	)
	if err != nil {
		return fmt.Errorf("load note tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var noteID, tag string
		if err := rows.Scan(&noteID, &tag); err != nil {
			return fmt.Errorf("load note tags: %w", err)
		}
		if i, ok := index[noteID]; ok {
			notes[i].Tags = append(notes[i].Tags, tag)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load note tags: %w", err)
	}
	return nil
}

// PutCharacter inserts or replaces a character's attributes.
func (s *Store) PutCharacter(ctx context.Context, character storage.Character) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	name := strings.TrimSpace(character.Name)
	if name == "" {
		return false, fmt.Errorf("character name is required")
	}
	attributes := character.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}
	payload, err := json.Marshal(attributes)
	if err != nil {
		return false, fmt.Errorf("encode character attributes: %w", err)
	}
	updatedAt := character.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin put character: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var found int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM characters WHERE name = ?`, name).Scan(&found)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("put character: %w", err)
	}

	if created {
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO characters (name, attributes_json, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			name,
			string(payload),
			toMillis(updatedAt),
			toMillis(updatedAt),
		)
	} else {
		_, err = tx.ExecContext(
			ctx,
			`UPDATE characters SET attributes_json = ?, updated_at = ? WHERE name = ?`,
			string(payload),
			toMillis(updatedAt),
			name,
		)
	}
	if err != nil {
		return false, fmt.Errorf("put character: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit character: %w", err)
	}
	return created, nil
}

// GetCharacter returns one character by case-insensitive name.
func (s *Store) GetCharacter(ctx context.Context, name string) (storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Character{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.Character{}, fmt.Errorf("character name is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT name, attributes_json, created_at, updated_at FROM characters WHERE name = ?`,
		name,
	)
	character, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Character{}, storage.ErrNotFound
		}
		return storage.Character{}, fmt.Errorf("get character: %w", err)
	}
	return character, nil
}

// ListCharacters returns every character ordered by name.
func (s *Store) ListCharacters(ctx context.Context) ([]storage.Character, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT name, attributes_json, created_at, updated_at FROM characters ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	characters := []storage.Character{}
	for rows.Next() {
		character, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		characters = append(characters, character)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	return characters, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (storage.Character, error) {
	var character storage.Character
	var payload string
	var createdAt, updatedAt int64
	if err := row.Scan(&character.Name, &payload, &createdAt, &updatedAt); err != nil {
		return storage.Character{}, err
	}
	if err := json.Unmarshal([]byte(payload), &character.Attributes); err != nil {
		return storage.Character{}, fmt.Errorf("decode character attributes: %w", err)
	}
	character.CreatedAt = fromMillis(createdAt)
	character.UpdatedAt = fromMillis(updatedAt)
	return character, nil
}

// CreateEncounter inserts one encounter.
func (s *Store) CreateEncounter(ctx context.Context, encounter storage.Encounter) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(encounter.ID) == "" {
		return fmt.Errorf("encounter id is required")
	}
	name := strings.TrimSpace(encounter.Name)
	if name == "" {
		return fmt.Errorf("encounter name is required")
	}
	monsters := encounter.Monsters
	if monsters == nil {
		monsters = []map[string]any{}
	}
	payload, err := json.Marshal(monsters)
	if err != nil {
		return fmt.Errorf("encode encounter monsters: %w", err)
	}
	createdAt := encounter.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO encounters (id, name, description, monsters_json, created_at) VALUES (?, ?, ?, ?, ?)`,
		encounter.ID,
		name,
		encounter.Description,
		string(payload),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create encounter: %w", err)
	}
	return nil
}

// GetEncounter returns one encounter by ID or case-insensitive name.
func (s *Store) GetEncounter(ctx context.Context, ref string) (storage.Encounter, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Encounter{}, err
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return storage.Encounter{}, fmt.Errorf("encounter reference is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, description, monsters_json, created_at
		   FROM encounters
		  WHERE id = ? OR name = ?
		  LIMIT 1`,
		ref,
		ref,
	)
	encounter, err := scanEncounter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Encounter{}, storage.ErrNotFound
		}
		return storage.Encounter{}, fmt.Errorf("get encounter: %w", err)
	}
	return encounter, nil
}

// ListEncounters returns encounters newest first.
func (s *Store) ListEncounters(ctx context.Context) ([]storage.Encounter, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, description, monsters_json, created_at
		   FROM encounters
		  ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list encounters: %w", err)
	}
	defer rows.Close()

	encounters := []storage.Encounter{}
	for rows.Next() {
		encounter, err := scanEncounter(rows)
		if err != nil {
			return nil, fmt.Errorf("list encounters: %w", err)
		}
		encounters = append(encounters, encounter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list encounters: %w", err)
	}
	return encounters, nil
}

func scanEncounter(row rowScanner) (storage.Encounter, error) {
	var encounter storage.Encounter
	var payload string
	var createdAt int64
	if err := row.Scan(&encounter.ID, &encounter.Name, &encounter.Description, &payload, &createdAt); err != nil {
		return storage.Encounter{}, err
	}
	if err := json.Unmarshal([]byte(payload), &encounter.Monsters); err != nil {
		return storage.Encounter{}, fmt.Errorf("decode encounter monsters: %w", err)
	}
	encounter.CreatedAt = fromMillis(createdAt)
	return encounter, nil
}

// AppendRoll records one roll in the log.
func (s *Store) AppendRoll(ctx context.Context, record storage.RollRecord) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("roll id is required")
	}
	if strings.TrimSpace(record.Tool) == "" {
		return fmt.Errorf("roll tool is required")
	}
	rolls := record.Rolls
	if rolls == nil {
		rolls = []int{}
	}
	payload, err := json.Marshal(rolls)
	if err != nil {
		return fmt.Errorf("encode rolls: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO roll_log (id, tool, notation, label, rolls_json, modifier, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Tool,
		record.Notation,
		record.Label,
		string(payload),
		record.Modifier,
		record.Total,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append roll: %w", err)
	}
	return nil
}

// ListRolls returns one page of the roll log, newest first.
func (s *Store) ListRolls(ctx context.Context, query storage.RollQuery) (storage.RollPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.RollPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.RollPage{}, fmt.Errorf("page size must be greater than zero")
	}

	cond, err := filter.RollSchema.Parse(query.Filter)
	if err != nil {
		return storage.RollPage{}, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}
	var (
		clauses []string
		params  []any
	)
	if !cond.Empty() {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return storage.RollPage{}, err
		}
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		params = append(params, createdAt, createdAt, id)
	}

	statement := `SELECT id, tool, notation, label, rolls_json, modifier, total, created_at FROM roll_log`
	if len(clauses) > 0 {
		statement += " WHERE " + strings.Join(clauses, " AND ")
	}
	statement += " ORDER BY created_at DESC, id DESC LIMIT ?"
	params = append(params, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	defer rows.Close()

	page := storage.RollPage{Records: make([]storage.RollRecord, 0, query.PageSize)}
	for rows.Next() {
		var record storage.RollRecord
		var payload string
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.Tool,
			&record.Notation,
			&record.Label,
			&payload,
			&record.Modifier,
			&record.Total,
			&createdAt,
		); err != nil {
			return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &record.Rolls); err != nil {
			return storage.RollPage{}, fmt.Errorf("decode rolls: %w", err)
		}
		record.CreatedAt = fromMillis(createdAt)
		page.Records = append(page.Records, record)
	}
	if err := rows.Err(); err != nil {
		return storage.RollPage{}, fmt.Errorf("list rolls: %w", err)
	}
	if len(page.Records) > query.PageSize {
		last := page.Records[query.PageSize-1]
		page.NextPageToken = encodePageToken(last.CreatedAt, last.ID)
		page.Records = page.Records[:query.PageSize]
	}
	return page, nil
}

func encodePageToken(createdAt time.Time, id string) string {
	return strconv.FormatInt(toMillis(createdAt), 10) + ":" + id
}

func decodePageToken(token string) (int64, string, error) {
	millis, id, ok := strings.Cut(token, ":")
	if !ok || id == "" {
		return 0, "", fmt.Errorf("%w: malformed page token", storage.ErrInvalidFilter)
	}
	createdAt, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: malformed page token", storage.ErrInvalidFilter)
	}
	return createdAt, id, nil
}

func escapeLike(value string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
