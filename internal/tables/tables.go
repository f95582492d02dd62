// Package tables holds random tables and generators for game preparation:
// named result tables, NPCs, treasure, and greetings.
package tables

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/dungeonkit/internal/dice"
)

// ErrTableNotFound indicates the requested table does not exist.
var ErrTableNotFound = errors.New("table not found")

// Table names.
const (
	TavernName      = "tavern_name"
	QuestHook       = "quest_hook"
	MagicItemQuirk  = "magic_item_quirk"
	RandomEncounter = "random_encounter"
)

var tables = map[string][]string{
	TavernName: {
		"The Prancing Pony", "The Green Dragon", "The Drunken Sailor",
		"The Silver Tankard", "The Laughing Bard", "The Rusty Nail",
		"The Sleeping Giant", "The Golden Cup", "The Salty Dog",
		"The Dragon's Breath", "The Gilded Rose", "The Howling Wolf",
	},
	QuestHook: {
		"A mysterious stranger offers a job with good pay and few questions.",
		"A child's pet has gone missing in a dangerous area.",
		"Strange lights have been seen in an abandoned tower.",
		"A merchant's caravan was attacked, and valuable cargo stolen.",
		"Townsfolk have been disappearing in the night.",
		"An ancient tomb has been discovered outside of town.",
		"A noble is looking for bodyguards for an upcoming journey.",
		"A wizard needs rare ingredients from a monster-infested forest.",
		"A prophetic dream suggests doom unless a specific artifact is found.",
		"Rival adventurers seek the same treasure - it's a race!",
		"A festival needs protection from rumored saboteurs.",
		"A magical experiment has gone wrong with strange effects.",
	},
	MagicItemQuirk: {
		"It always feels slightly warm to the touch.",
		"It makes a quiet whispering sound when used.",
		"It glows faintly in the presence of magic.",
		"Small animals are afraid of it.",
		"It smells faintly of cinnamon.",
		"It floats gently when dropped.",
		"It appears slightly translucent in bright light.",
		"It attracts small insects when unused for a day.",
		"Its color slowly shifts through the rainbow over the course of a week.",
		"It makes its bearer slightly more eloquent when speaking.",
		"It tastes sweet if licked (though few would try this).",
		"It appears in dreams of those who sleep near it.",
	},
	RandomEncounter: {
		"A merchant caravan looking for protection.",
		"Bandits lying in wait to ambush travelers.",
		"A wounded traveler needing assistance.",
		"A strange circle of mushrooms with magical properties.",
		"A patrol of local guards checking for trouble.",
		"A wild animal hunting for food.",
		"A lost child from a nearby village.",
		"A traveling bard looking for stories and company.",
		"A minor elemental creature that escaped from another plane.",
		"An overturned wagon with cargo spilled across the road.",
		"A group of pilgrims heading to a sacred site.",
		"A bounty hunter looking for a specific criminal.",
	},
}

// TableResult is one roll on a named table.
type TableResult struct {
	Table  string
	Roll   int
	Result string
}

// TableError reports an unknown table together with the valid names.
type TableError struct {
	Table     string
	Available []string
}

// Error implements the error interface.
func (e *TableError) Error() string {
	return fmt.Sprintf("table not found: %s (available: %s)", e.Table, strings.Join(e.Available, ", "))
}

// Unwrap lets errors.Is match ErrTableNotFound.
func (e *TableError) Unwrap() error {
	return ErrTableNotFound
}

// Names returns the available table names in sorted order.
func Names() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entries returns a copy of the named table.
func Entries(name string) ([]string, error) {
	entries, ok := tables[strings.TrimSpace(name)]
	if !ok {
		return nil, &TableError{Table: name, Available: Names()}
	}
	return append([]string(nil), entries...), nil
}

// Roll picks one entry from the named table. Roll is the 1-based index of the
// entry, as if rolled on a die with one face per entry.
func Roll(name string, source dice.Source) (TableResult, error) {
	name = strings.TrimSpace(name)
	entries, ok := tables[name]
	if !ok {
		return TableResult{}, &TableError{Table: name, Available: Names()}
	}
	roll, err := dice.RollDie(source, len(entries))
	if err != nil {
		return TableResult{}, err
	}
	return TableResult{Table: name, Roll: roll, Result: entries[roll-1]}, nil
}

func pick(source dice.Source, options []string) string {
	return options[source.Intn(len(options))]
}
